package pipeline

import (
	"math"
	"testing"

	"github.com/sameer-vaidya/marketbuzz/config"
	"github.com/sameer-vaidya/marketbuzz/models"
)

var testEngagementWeights = config.EngagementConfig{Likes: 1, Reshares: 1.5, Replies: 1}

func TestEngagementMagnitude(t *testing.T) {
	t.Parallel()
	zero := EngagementMagnitude(models.Record{}, testEngagementWeights)
	if zero != 0 {
		t.Fatalf("expected zero magnitude for zero counters, got %v", zero)
	}

	rec := models.Record{Likes: 10, Reshares: 4, Replies: 2}
	got := EngagementMagnitude(rec, testEngagementWeights)
	want := math.Log1p(10 + 1.5*4 + 2)
	if !almostEqual(got, want, 1e-12) {
		t.Fatalf("magnitude got %v, want %v", got, want)
	}

	// monotonic in every counter
	if EngagementMagnitude(models.Record{Likes: 11, Reshares: 4, Replies: 2}, testEngagementWeights) <= got {
		t.Fatalf("magnitude not monotonic in likes")
	}

	// sub-linear: a hundredfold count is far less than a hundredfold magnitude
	small := EngagementMagnitude(models.Record{Likes: 1}, testEngagementWeights)
	large := EngagementMagnitude(models.Record{Likes: 100}, testEngagementWeights)
	if large >= 100*small {
		t.Fatalf("magnitude not sub-linear: %v vs %v", large, small)
	}
}

func TestNormalizeEngagementZeroMeanUnitVariance(t *testing.T) {
	t.Parallel()
	normalized := NormalizeEngagement([]float64{1, 2, 3, 4, 5})
	var sum float64
	for _, v := range normalized {
		sum += v
	}
	mean := sum / float64(len(normalized))
	if !almostEqual(mean, 0, 1e-9) {
		t.Fatalf("expected mean 0, got %v", mean)
	}
	var sq float64
	for _, v := range normalized {
		sq += (v - mean) * (v - mean)
	}
	variance := sq / float64(len(normalized)-1)
	if !almostEqual(variance, 1, 1e-9) {
		t.Fatalf("expected sample variance 1, got %v", variance)
	}
}

func TestNormalizeEngagementDegenerateBatches(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   []float64
	}{
		{name: "single record", in: []float64{3.7}},
		{name: "all equal", in: []float64{2, 2, 2, 2}},
		{name: "empty", in: nil},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := NormalizeEngagement(tt.in)
			if len(got) != len(tt.in) {
				t.Fatalf("expected %d values, got %d", len(tt.in), len(got))
			}
			for i, v := range got {
				if v != 0 {
					t.Fatalf("expected zero-variance default 0 at %d, got %v", i, v)
				}
			}
		})
	}
}

// A single record with no engagement at all stays exactly neutral.
func TestEngagementSingleSilentRecord(t *testing.T) {
	t.Parallel()
	mag := EngagementMagnitude(models.Record{Likes: 0, Reshares: 0, Replies: 0}, testEngagementWeights)
	if mag != 0 {
		t.Fatalf("expected magnitude 0, got %v", mag)
	}
	normalized := NormalizeEngagement([]float64{mag})
	if normalized[0] != 0 {
		t.Fatalf("expected normalized 0 for single-record batch, got %v", normalized[0])
	}
}
