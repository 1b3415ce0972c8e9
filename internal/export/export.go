// Package export writes aggregate series in chart-ready formats for the
// external visualization side.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/sameer-vaidya/marketbuzz/models"
)

// WriteCSV renders the window series as CSV with a header row. An empty
// series produces just the header.
func WriteCSV(w io.Writer, windows []models.AggregateWindow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"window_start", "mean", "std", "count", "ci_lower", "ci_upper"}); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, win := range windows {
		row := []string{
			win.WindowStart.UTC().Format(time.RFC3339),
			formatFloat(win.Mean),
			formatFloat(win.Std),
			strconv.Itoa(win.Count),
			formatFloat(win.CILower),
			formatFloat(win.CIUpper),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON renders the window series as an indented JSON array.
func WriteJSON(w io.Writer, windows []models.AggregateWindow) error {
	if windows == nil {
		windows = []models.AggregateWindow{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(windows)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
