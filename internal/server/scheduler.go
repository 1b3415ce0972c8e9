package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorhill/cronexpr"

	"github.com/sameer-vaidya/marketbuzz/internal/pipeline"
	"github.com/sameer-vaidya/marketbuzz/internal/source"
	"github.com/sameer-vaidya/marketbuzz/models"
)

// Scheduler re-runs the pipeline against the configured source on a cron
// schedule, persisting each run like an API-triggered one.
type Scheduler struct {
	Spec     string
	Source   source.Source
	Pipeline *pipeline.Pipeline
	Store    SignalStore
	Cache    SignalCache
	Logger   *log.Logger
	Stop     chan struct{}
}

// Start validates the cron spec and launches the run loop.
func (s *Scheduler) Start() error {
	expr, err := cronexpr.Parse(s.Spec)
	if err != nil {
		return fmt.Errorf("parsing schedule %q: %w", s.Spec, err)
	}
	go s.loop(expr)
	s.Logger.Printf("scheduler started: %q, next run %s", s.Spec, expr.Next(time.Now()))
	return nil
}

func (s *Scheduler) loop(expr *cronexpr.Expression) {
	for {
		next := expr.Next(time.Now())
		if next.IsZero() {
			s.Logger.Printf("schedule %q has no future runs, stopping", s.Spec)
			return
		}
		timer := time.NewTimer(time.Until(next))
		select {
		case <-s.Stop:
			timer.Stop()
			return
		case <-timer.C:
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	records, err := s.Source.Fetch(ctx)
	if err != nil {
		s.Logger.Printf("fetching %s: %v", s.Source.Name(), err)
		return
	}
	result, err := s.Pipeline.Run(records)
	if err != nil {
		s.Logger.Printf("scheduled run failed: %v", err)
		return
	}

	run := models.Run{
		ID:          uuid.NewString(),
		Source:      s.Source.Name(),
		Strategy:    s.Pipeline.Strategy(),
		WindowWidth: s.Pipeline.WindowWidth(),
		RecordCount: len(result.Records),
		Deduped:     result.Deduped,
		Skipped:     result.Skipped,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.Store.SaveRun(ctx, run); err != nil {
		s.Logger.Printf("saving scheduled run: %v", err)
		return
	}
	rawRecords := make([]models.Record, len(result.Records))
	for i, rec := range result.Records {
		rawRecords[i] = rec.Record
	}
	if err := s.Store.SaveRecords(ctx, run.ID, rawRecords); err != nil {
		s.Logger.Printf("saving records for run %s: %v", run.ID, err)
	}
	if err := s.Store.SaveWindows(ctx, run.ID, result.Windows); err != nil {
		s.Logger.Printf("saving windows for run %s: %v", run.ID, err)
		return
	}
	if s.Cache != nil {
		if err := s.Cache.SetWindows(ctx, run.ID, result.Windows); err != nil {
			s.Logger.Printf("caching windows for run %s: %v", run.ID, err)
		}
	}
	s.Logger.Printf("scheduled run %s: %d records, %d windows", run.ID, run.RecordCount, len(result.Windows))
}
