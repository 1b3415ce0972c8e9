package models

import (
	"errors"
	"time"
)

// ErrRunNotFound is returned when a pipeline run is not found
var ErrRunNotFound = errors.New("run not found")

// Record is one raw social post observation as delivered by a source.
// Counters are already coerced to non-negative integers and Text to a
// plain string at ingestion time.
type Record struct {
	ID        string    `json:"id"`
	Author    string    `json:"author,omitempty"`
	Timestamp time.Time `json:"timestamp_utc"`
	Text      string    `json:"content"`
	Likes     int       `json:"likes"`
	Reshares  int       `json:"reshares"`
	Replies   int       `json:"replies"`
	Hashtags  []string  `json:"hashtags,omitempty"`
}

// ScoredRecord is a Record with every derived field populated by the
// pipeline. Values are filled stage by stage and never mutated afterwards.
type ScoredRecord struct {
	Record
	NormalizedText       string  `json:"normalized_text"`
	Score                float64 `json:"score"`
	EngagementMagnitude  float64 `json:"engagement_magnitude"`
	EngagementNormalized float64 `json:"engagement_normalized"`
	Composite            float64 `json:"composite_score"`
}

// AggregateWindow is the per-bucket statistic of composite scores for one
// fixed-width time window. WindowStart is the left-closed boundary in UTC.
type AggregateWindow struct {
	WindowStart time.Time `json:"window_start"`
	Mean        float64   `json:"mean"`
	Std         float64   `json:"std"`
	Count       int       `json:"count"`
	CILower     float64   `json:"ci_lower"`
	CIUpper     float64   `json:"ci_upper"`
}

// Run describes one completed pipeline execution over a record batch.
type Run struct {
	ID          string        `json:"id"`
	Source      string        `json:"source"`
	Strategy    string        `json:"strategy"`
	WindowWidth time.Duration `json:"window_width"`
	RecordCount int           `json:"record_count"`
	Deduped     int           `json:"deduped"`
	Skipped     int           `json:"skipped"`
	CreatedAt   time.Time     `json:"created_at"`
}
