package pipeline

import "github.com/sameer-vaidya/marketbuzz/config"

// Combine blends a record's text score and normalized engagement into the
// composite signal. Pure per-record arithmetic; the output range follows the
// inputs and weights and is not clamped.
func Combine(score, engagementNormalized float64, w config.BlendConfig) float64 {
	return w.Score*score + w.Engagement*engagementNormalized
}
