package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sameer-vaidya/marketbuzz/config"
	"github.com/sameer-vaidya/marketbuzz/internal/pipeline"
	"github.com/sameer-vaidya/marketbuzz/models"
)

type fakeStore struct {
	runs    map[string]models.Run
	windows map[string][]models.AggregateWindow
	records map[string][]models.Record
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		runs:    make(map[string]models.Run),
		windows: make(map[string][]models.AggregateWindow),
		records: make(map[string][]models.Record),
	}
}

func (f *fakeStore) SaveRun(_ context.Context, run models.Run) error {
	f.runs[run.ID] = run
	return nil
}

func (f *fakeStore) SaveRecords(_ context.Context, runID string, records []models.Record) error {
	f.records[runID] = records
	return nil
}

func (f *fakeStore) SaveWindows(_ context.Context, runID string, windows []models.AggregateWindow) error {
	f.windows[runID] = windows
	return nil
}

func (f *fakeStore) GetRun(_ context.Context, runID string) (models.Run, error) {
	run, ok := f.runs[runID]
	if !ok {
		return models.Run{}, models.ErrRunNotFound
	}
	return run, nil
}

func (f *fakeStore) GetWindows(_ context.Context, runID string) ([]models.AggregateWindow, error) {
	if _, ok := f.runs[runID]; !ok {
		return nil, models.ErrRunNotFound
	}
	return f.windows[runID], nil
}

func (f *fakeStore) ListRuns(_ context.Context, _ int) ([]models.Run, error) {
	out := make([]models.Run, 0, len(f.runs))
	for _, run := range f.runs {
		out = append(out, run)
	}
	return out, nil
}

type fakeCache struct {
	windows map[string][]models.AggregateWindow
}

func (f *fakeCache) SetWindows(_ context.Context, runID string, windows []models.AggregateWindow) error {
	f.windows[runID] = windows
	return nil
}

func (f *fakeCache) GetWindows(_ context.Context, runID string) ([]models.AggregateWindow, bool, error) {
	windows, ok := f.windows[runID]
	return windows, ok, nil
}

func testHandler(t *testing.T, st SignalStore, ch SignalCache) *RunsHandler {
	t.Helper()
	cfg := config.PipelineConfig{
		WindowWidth: 15 * time.Minute,
		Strategy:    config.StrategyPolarity,
		VocabLimit:  2048,
		Blend:       config.BlendConfig{Score: 0.7, Engagement: 0.3},
		Engagement:  config.EngagementConfig{Likes: 1, Reshares: 1.5, Replies: 1},
	}
	pipe, err := pipeline.New(cfg, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	return &RunsHandler{Pipeline: pipe, Store: st, Cache: ch, Logger: log.New(io.Discard, "", 0)}
}

func TestCreateRunWithInlineRecords(t *testing.T) {
	e := echo.New()
	st := newFakeStore()
	handler := testHandler(t, st, nil)

	body := `{"records":[
		{"id":"1","timestamp_utc":"2026-08-20T10:01:00Z","content":"great rally excellent gains","likes":10,"reshares":2,"replies":1},
		{"id":"2","timestamp_utc":"2026-08-20T10:05:00Z","content":"terrible crash awful session","likes":3}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/api/runs", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := handler.create(e.NewContext(req, rec)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp createRunResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Run.RecordCount != 2 || resp.Run.Strategy != "polarity" {
		t.Fatalf("unexpected run header: %+v", resp.Run)
	}
	if len(resp.Windows) != 1 {
		t.Fatalf("expected both records in one quarter-hour window, got %d windows", len(resp.Windows))
	}
	if _, ok := st.runs[resp.Run.ID]; !ok {
		t.Fatalf("run %s not persisted", resp.Run.ID)
	}
	if len(st.records[resp.Run.ID]) != 2 {
		t.Fatalf("expected 2 persisted records, got %d", len(st.records[resp.Run.ID]))
	}
}

func TestCreateRunRejectsEmptyPayload(t *testing.T) {
	e := echo.New()
	handler := testHandler(t, newFakeStore(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/runs", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	err := handler.create(e.NewContext(req, rec))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestCreateRunFromSampleSource(t *testing.T) {
	e := echo.New()
	st := newFakeStore()
	handler := testHandler(t, st, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/runs", strings.NewReader(`{"source":"sample","count":30}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := handler.create(e.NewContext(req, rec)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var resp createRunResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Run.RecordCount != 30 {
		t.Fatalf("expected 30 records, got %d", resp.Run.RecordCount)
	}
	if len(resp.Windows) == 0 {
		t.Fatalf("expected at least one window from sample data")
	}
}

func TestSignalsUnknownRun(t *testing.T) {
	e := echo.New()
	handler := testHandler(t, newFakeStore(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/missing/signals", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("id")
	ctx.SetParamValues("missing")

	err := handler.signals(ctx)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404 HTTPError, got %v", err)
	}
}

func TestSignalsCacheHitSkipsStore(t *testing.T) {
	e := echo.New()
	ch := &fakeCache{windows: make(map[string][]models.AggregateWindow)}
	start := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	ch.windows["run-1"] = []models.AggregateWindow{
		{WindowStart: start, Mean: 0.4, Std: 0.2, Count: 3, CILower: 0.174, CIUpper: 0.626},
	}
	// the store does not know the run at all: a hit must come from the cache
	handler := testHandler(t, newFakeStore(), ch)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/run-1/signals", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("id")
	ctx.SetParamValues("run-1")

	if err := handler.signals(ctx); err != nil {
		t.Fatalf("signals: %v", err)
	}
	var windows []models.AggregateWindow
	if err := json.Unmarshal(rec.Body.Bytes(), &windows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(windows) != 1 || windows[0].Count != 3 {
		t.Fatalf("unexpected cached windows: %+v", windows)
	}
}

func TestSignalsCSVFormat(t *testing.T) {
	e := echo.New()
	st := newFakeStore()
	st.runs["run-2"] = models.Run{ID: "run-2"}
	st.windows["run-2"] = []models.AggregateWindow{
		{WindowStart: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC), Mean: 0.5, Count: 2, CILower: 0.4, CIUpper: 0.6},
	}
	handler := testHandler(t, st, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/run-2/signals?format=csv", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("id")
	ctx.SetParamValues("run-2")

	if err := handler.signals(ctx); err != nil {
		t.Fatalf("signals: %v", err)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "window_start,mean,std,count,ci_lower,ci_upper") {
		t.Fatalf("expected CSV header, got %q", body)
	}
	if !strings.Contains(body, "2026-08-20T10:00:00Z") {
		t.Fatalf("expected window row in CSV, got %q", body)
	}
}
