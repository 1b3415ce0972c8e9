package pipeline

import (
	"fmt"
	"log"
	"time"

	"github.com/sameer-vaidya/marketbuzz/config"
	"github.com/sameer-vaidya/marketbuzz/models"
)

// Pipeline runs the full signal aggregation over one bounded record batch:
// dedup, text normalization, scoring, engagement normalization, composite
// blending and time-window aggregation, in that fixed order.
type Pipeline struct {
	cfg    config.PipelineConfig
	scorer Scorer
	logger *log.Logger
}

// Result is the outcome of one pipeline run.
type Result struct {
	Records  []models.ScoredRecord
	Windows  []models.AggregateWindow
	Deduped  int
	Skipped  int
	Duration time.Duration
}

// New validates the configuration and builds a pipeline. Invalid settings
// (non-positive window width, unknown strategy) are rejected here, before
// any data is touched.
func New(cfg config.PipelineConfig, logger *log.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	scorer, err := NewScorer(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[PIPELINE] ", log.LstdFlags)
	}
	pipelineMetricsOnce.Do(initPipelineMetrics)
	return &Pipeline{cfg: cfg, scorer: scorer, logger: logger}, nil
}

// Strategy reports the active scoring strategy name.
func (p *Pipeline) Strategy() string { return p.scorer.Name() }

// WindowWidth reports the configured aggregation bucket width.
func (p *Pipeline) WindowWidth() time.Duration { return p.cfg.WindowWidth }

// Run executes the pipeline over records. An empty batch yields an empty
// result, never an error.
func (p *Pipeline) Run(records []models.Record) (*Result, error) {
	started := time.Now()

	batch, deduped := dedupe(records)
	recordsIngested.Add(float64(len(batch)))
	recordsDeduped.Add(float64(deduped))

	// per-record stage: normalize text, then batch stage: score
	texts := make([]string, len(batch))
	for i, rec := range batch {
		texts[i] = Normalize(rec.Text)
	}
	scores := p.scorer.Score(texts)

	// engagement runs independently of scoring, then is normalized batch-wide
	magnitudes := make([]float64, len(batch))
	for i, rec := range batch {
		magnitudes[i] = EngagementMagnitude(rec, p.cfg.Engagement)
	}
	normalized := NormalizeEngagement(magnitudes)

	scored := make([]models.ScoredRecord, len(batch))
	for i, rec := range batch {
		scored[i] = models.ScoredRecord{
			Record:               rec,
			NormalizedText:       texts[i],
			Score:                scores[i],
			EngagementMagnitude:  magnitudes[i],
			EngagementNormalized: normalized[i],
			Composite:            Combine(scores[i], normalized[i], p.cfg.Blend),
		}
	}

	windows, skipped, err := AggregateWindows(scored, p.cfg.WindowWidth)
	if err != nil {
		return nil, fmt.Errorf("aggregating windows: %w", err)
	}
	recordsSkipped.Add(float64(skipped))
	windowsEmitted.Add(float64(len(windows)))

	elapsed := time.Since(started)
	runDuration.Observe(elapsed.Seconds())
	p.logger.Printf("run complete: %d records (%d deduped, %d without timestamp), %d windows of %s, strategy=%s",
		len(batch), deduped, skipped, len(windows), p.cfg.WindowWidth, p.scorer.Name())

	return &Result{
		Records:  scored,
		Windows:  windows,
		Deduped:  deduped,
		Skipped:  skipped,
		Duration: elapsed,
	}, nil
}

// dedupe drops records whose id was already seen; the first occurrence wins.
// Counters are clamped to zero so malformed inputs cannot go negative.
func dedupe(records []models.Record) ([]models.Record, int) {
	seen := make(map[string]struct{}, len(records))
	out := make([]models.Record, 0, len(records))
	dropped := 0
	for _, rec := range records {
		if _, ok := seen[rec.ID]; ok {
			dropped++
			continue
		}
		seen[rec.ID] = struct{}{}
		if rec.Likes < 0 {
			rec.Likes = 0
		}
		if rec.Reshares < 0 {
			rec.Reshares = 0
		}
		if rec.Replies < 0 {
			rec.Replies = 0
		}
		out = append(out, rec)
	}
	return out, dropped
}
