package pipeline

import (
	"fmt"

	"github.com/sameer-vaidya/marketbuzz/config"
)

// Scorer assigns one scalar per record given the normalized texts of the
// whole batch. Implementations may use batch-wide statistics, so a single
// record cannot be scored in isolation: callers re-run Score over the full
// batch whenever the batch changes.
type Scorer interface {
	Name() string
	Score(texts []string) []float64
}

// NewScorer selects the configured scoring strategy.
func NewScorer(cfg config.PipelineConfig) (Scorer, error) {
	switch cfg.Strategy {
	case config.StrategyPolarity:
		return PolarityScorer{}, nil
	case config.StrategyBuzz:
		return NewBuzzScorer(cfg.VocabLimit), nil
	default:
		return nil, fmt.Errorf("unknown scoring strategy %q", cfg.Strategy)
	}
}
