package pipeline

import (
	"math"

	"github.com/sameer-vaidya/marketbuzz/config"
	"github.com/sameer-vaidya/marketbuzz/models"
)

// EngagementMagnitude collapses the raw counters of one record into a single
// non-negative scalar. The weighted sum passes through log1p so runaway
// outlier counts grow sub-linearly instead of dominating the batch.
func EngagementMagnitude(rec models.Record, w config.EngagementConfig) float64 {
	sum := w.Likes*float64(rec.Likes) + w.Reshares*float64(rec.Reshares) + w.Replies*float64(rec.Replies)
	return math.Log1p(sum)
}

// NormalizeEngagement rescales the magnitudes of a whole batch to zero mean
// and unit sample variance. Degenerate batches (fewer than two records, or
// all magnitudes equal) normalize to 0 for every record.
func NormalizeEngagement(magnitudes []float64) []float64 {
	normalized := make([]float64, len(magnitudes))
	if len(magnitudes) < 2 {
		return normalized
	}

	var sum float64
	for _, m := range magnitudes {
		sum += m
	}
	mean := sum / float64(len(magnitudes))

	var sq float64
	for _, m := range magnitudes {
		d := m - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(magnitudes)-1))
	if std == 0 {
		return normalized
	}

	for i, m := range magnitudes {
		normalized[i] = (m - mean) / std
	}
	return normalized
}
