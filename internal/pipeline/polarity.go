package pipeline

import (
	"github.com/grassmudhorses/vader-go/lexicon"
	"github.com/grassmudhorses/vader-go/sentitext"
)

// PolarityScorer maps each text to a VADER compound sentiment polarity in
// [-1, 1]. Records are scored independently of each other; empty text is
// neutral (0).
type PolarityScorer struct{}

func (PolarityScorer) Name() string { return "polarity" }

func (PolarityScorer) Score(texts []string) []float64 {
	scores := make([]float64, len(texts))
	for i, text := range texts {
		if text == "" {
			continue
		}
		parsed := sentitext.Parse(text, lexicon.DefaultLexicon)
		scores[i] = sentitext.PolarityScore(parsed).Compound
	}
	return scores
}
