package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sameer-vaidya/marketbuzz/config"
	"github.com/sameer-vaidya/marketbuzz/internal/export"
	"github.com/sameer-vaidya/marketbuzz/internal/pipeline"
	"github.com/sameer-vaidya/marketbuzz/internal/source"
	"github.com/sameer-vaidya/marketbuzz/models"
)

// SignalStore is the persistence surface the handlers need.
type SignalStore interface {
	SaveRun(ctx context.Context, run models.Run) error
	SaveRecords(ctx context.Context, runID string, records []models.Record) error
	SaveWindows(ctx context.Context, runID string, windows []models.AggregateWindow) error
	GetRun(ctx context.Context, runID string) (models.Run, error)
	GetWindows(ctx context.Context, runID string) ([]models.AggregateWindow, error)
	ListRuns(ctx context.Context, limit int) ([]models.Run, error)
}

// SignalCache is the optional fast path for aggregate series reads.
type SignalCache interface {
	SetWindows(ctx context.Context, runID string, windows []models.AggregateWindow) error
	GetWindows(ctx context.Context, runID string) ([]models.AggregateWindow, bool, error)
}

// RunsHandler serves pipeline runs over HTTP.
type RunsHandler struct {
	Pipeline *pipeline.Pipeline
	Store    SignalStore
	Cache    SignalCache
	Logger   *log.Logger
}

func (h *RunsHandler) Register(g *echo.Group) {
	g.POST("/runs", h.create)
	g.GET("/runs", h.list)
	g.GET("/runs/:id/signals", h.signals)
}

type createRunRequest struct {
	Source  string          `json:"source"`
	Count   int             `json:"count"`
	Records json.RawMessage `json:"records"`
}

type createRunResponse struct {
	Run     models.Run               `json:"run"`
	Windows []models.AggregateWindow `json:"windows"`
}

func (h *RunsHandler) create(c echo.Context) error {
	var req createRunRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	var (
		records    []models.Record
		sourceName string
		err        error
	)
	switch {
	case len(req.Records) > 0:
		records, err = source.DecodeRecords(req.Records)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		sourceName = "inline"
	case req.Source == "sample":
		count := req.Count
		if count <= 0 {
			count = 200
		}
		records, err = (&source.SampleSource{Count: count}).Fetch(ctx)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		sourceName = "sample"
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "provide records or source=sample")
	}

	result, err := h.Pipeline.Run(records)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	run := models.Run{
		ID:          uuid.NewString(),
		Source:      sourceName,
		Strategy:    h.Pipeline.Strategy(),
		WindowWidth: h.windowWidth(),
		RecordCount: len(result.Records),
		Deduped:     result.Deduped,
		Skipped:     result.Skipped,
		CreatedAt:   time.Now().UTC(),
	}
	if h.Store != nil {
		if err := h.Store.SaveRun(ctx, run); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		rawRecords := make([]models.Record, len(result.Records))
		for i, rec := range result.Records {
			rawRecords[i] = rec.Record
		}
		if err := h.Store.SaveRecords(ctx, run.ID, rawRecords); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if err := h.Store.SaveWindows(ctx, run.ID, result.Windows); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	if h.Cache != nil {
		if err := h.Cache.SetWindows(ctx, run.ID, result.Windows); err != nil {
			h.Logger.Printf("caching windows for run %s: %v", run.ID, err)
		}
	}

	return c.JSON(http.StatusCreated, createRunResponse{Run: run, Windows: result.Windows})
}

func (h *RunsHandler) list(c echo.Context) error {
	runs, err := h.Store.ListRuns(c.Request().Context(), 50)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if runs == nil {
		runs = []models.Run{}
	}
	return c.JSON(http.StatusOK, runs)
}

func (h *RunsHandler) signals(c echo.Context) error {
	runID := c.Param("id")
	ctx := c.Request().Context()

	var windows []models.AggregateWindow
	if h.Cache != nil {
		cached, ok, err := h.Cache.GetWindows(ctx, runID)
		if err != nil {
			h.Logger.Printf("cache read for run %s: %v", runID, err)
		} else if ok {
			windows = cached
		}
	}
	if windows == nil {
		stored, err := h.Store.GetWindows(ctx, runID)
		if errors.Is(err, models.ErrRunNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "run not found")
		}
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		windows = stored
		if h.Cache != nil {
			if err := h.Cache.SetWindows(ctx, runID, windows); err != nil {
				h.Logger.Printf("cache fill for run %s: %v", runID, err)
			}
		}
	}

	if c.QueryParam("format") == "csv" {
		c.Response().Header().Set(echo.HeaderContentType, "text/csv")
		c.Response().WriteHeader(http.StatusOK)
		return export.WriteCSV(c.Response(), windows)
	}
	if windows == nil {
		windows = []models.AggregateWindow{}
	}
	return c.JSON(http.StatusOK, windows)
}

func (h *RunsHandler) windowWidth() time.Duration {
	return h.Pipeline.WindowWidth()
}

// sourceFromConfig resolves the configured record source for scheduled runs.
func sourceFromConfig(cfg config.SourceConfig) source.Source {
	if cfg.Kind == "file" && cfg.Path != "" {
		return &source.FileSource{Path: cfg.Path}
	}
	count := cfg.SampleCount
	if count <= 0 {
		count = 200
	}
	return &source.SampleSource{Count: count}
}
