// Package source yields record batches of a known schema for the signal
// pipeline. Sources are deliberately dumb: schema coercion happens here so
// the pipeline only ever sees well-typed records.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sameer-vaidya/marketbuzz/models"
)

// Source yields one bounded batch of records.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]models.Record, error)
}

// rawRecord tolerates the loose typing of scraped exports: counters may be
// numbers, numeric strings, null or absent, and content may be any JSON
// value at all.
type rawRecord struct {
	ID        string          `json:"id"`
	Author    string          `json:"author"`
	Username  string          `json:"username"`
	Timestamp string          `json:"timestamp_utc"`
	Content   json.RawMessage `json:"content"`
	Likes     json.RawMessage `json:"likes"`
	Reshares  json.RawMessage `json:"reshares"`
	Retweets  json.RawMessage `json:"retweets"`
	Replies   json.RawMessage `json:"replies"`
	Hashtags  []string        `json:"hashtags"`
}

// DecodeRecords parses a JSON array of raw records, coercing malformed
// fields to safe defaults: non-string content becomes "", missing or invalid
// counters become 0, negative counters are clamped and unparseable
// timestamps become the zero time (the aggregator later skips those).
func DecodeRecords(data []byte) ([]models.Record, error) {
	var raw []rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}
	records := make([]models.Record, 0, len(raw))
	for _, r := range raw {
		author := r.Author
		if author == "" {
			author = r.Username
		}
		reshares := coerceCount(r.Reshares)
		if reshares == 0 {
			reshares = coerceCount(r.Retweets)
		}
		records = append(records, models.Record{
			ID:        r.ID,
			Author:    author,
			Timestamp: parseTimestamp(r.Timestamp),
			Text:      coerceString(r.Content),
			Likes:     coerceCount(r.Likes),
			Reshares:  reshares,
			Replies:   coerceCount(r.Replies),
			Hashtags:  r.Hashtags,
		})
	}
	return records, nil
}

func coerceString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func coerceCount(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n < 0 {
			return 0
		}
		return int(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && v > 0 {
			return v
		}
	}
	return 0
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}
