package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sameer-vaidya/marketbuzz/models"
)

func TestWriteCSV(t *testing.T) {
	t.Parallel()
	windows := []models.AggregateWindow{
		{
			WindowStart: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
			Mean:        0.4, Std: 0.2, Count: 3, CILower: 0.174, CIUpper: 0.626,
		},
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, windows); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %d lines", len(lines))
	}
	if lines[0] != "window_start,mean,std,count,ci_lower,ci_upper" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if lines[1] != "2026-08-20T10:00:00Z,0.4,0.2,3,0.174,0.626" {
		t.Fatalf("unexpected row: %q", lines[1])
	}
}

func TestWriteCSVEmptySeries(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "window_start,mean,std,count,ci_lower,ci_upper" {
		t.Fatalf("expected only the header, got %q", got)
	}
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()
	windows := []models.AggregateWindow{
		{WindowStart: time.Date(2026, 8, 20, 10, 15, 0, 0, time.UTC), Mean: -0.1, Count: 1, CILower: -0.1, CIUpper: -0.1},
	}
	var buf bytes.Buffer
	if err := WriteJSON(&buf, windows); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var decoded []models.AggregateWindow
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Count != 1 || !decoded[0].WindowStart.Equal(windows[0].WindowStart) {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
}

func TestWriteJSONEmptySeries(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Fatalf("expected empty array, got %q", got)
	}
}
