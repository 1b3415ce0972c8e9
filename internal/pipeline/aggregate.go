package pipeline

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sameer-vaidya/marketbuzz/models"
)

// zScore95 is the two-sided normal quantile for a 95% confidence interval.
const zScore95 = 1.96

// AggregateWindows buckets scored records into fixed-width, left-closed
// right-open UTC windows and computes per-window mean, sample standard
// deviation, count and a 95% confidence interval for the mean. Window
// boundaries are aligned to the Unix epoch via time.Truncate, so repeated
// runs over the same data always produce identical buckets.
//
// Records with a zero timestamp are skipped (returned in the second value).
// Windows without records are absent from the result, which is ordered by
// window start ascending. A non-positive width is a caller error.
func AggregateWindows(records []models.ScoredRecord, width time.Duration) ([]models.AggregateWindow, int, error) {
	if width <= 0 {
		return nil, 0, fmt.Errorf("window width must be positive, got %s", width)
	}

	skipped := 0
	buckets := make(map[time.Time][]float64)
	for _, rec := range records {
		if rec.Timestamp.IsZero() {
			skipped++
			continue
		}
		start := rec.Timestamp.UTC().Truncate(width)
		buckets[start] = append(buckets[start], rec.Composite)
	}

	windows := make([]models.AggregateWindow, 0, len(buckets))
	for start, scores := range buckets {
		windows = append(windows, windowStats(start, scores))
	}
	sort.Slice(windows, func(i, j int) bool {
		return windows[i].WindowStart.Before(windows[j].WindowStart)
	})
	return windows, skipped, nil
}

func windowStats(start time.Time, scores []float64) models.AggregateWindow {
	count := len(scores)

	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean := sum / float64(count)

	var std float64
	if count > 1 {
		var sq float64
		for _, s := range scores {
			d := s - mean
			sq += d * d
		}
		std = math.Sqrt(sq / float64(count-1))
	}

	margin := zScore95 * std / math.Sqrt(float64(count))
	return models.AggregateWindow{
		WindowStart: start,
		Mean:        mean,
		Std:         std,
		Count:       count,
		CILower:     mean - margin,
		CIUpper:     mean + margin,
	}
}
