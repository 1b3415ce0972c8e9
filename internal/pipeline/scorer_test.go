package pipeline

import (
	"testing"

	"github.com/sameer-vaidya/marketbuzz/config"
)

func TestNewScorerSelection(t *testing.T) {
	t.Parallel()
	cfg := config.PipelineConfig{Strategy: config.StrategyPolarity, VocabLimit: 100}
	s, err := NewScorer(cfg)
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	if s.Name() != "polarity" {
		t.Fatalf("expected polarity scorer, got %q", s.Name())
	}

	cfg.Strategy = config.StrategyBuzz
	s, err = NewScorer(cfg)
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	if s.Name() != "buzz" {
		t.Fatalf("expected buzz scorer, got %q", s.Name())
	}

	cfg.Strategy = "tarot"
	if _, err := NewScorer(cfg); err == nil {
		t.Fatalf("expected error for unknown strategy")
	}
}

func TestPolarityScorer(t *testing.T) {
	t.Parallel()
	texts := []string{
		"strong momentum great gains excellent day",
		"terrible crash awful losses fear everywhere",
		"",
	}
	scores := PolarityScorer{}.Score(texts)
	if len(scores) != len(texts) {
		t.Fatalf("expected %d scores, got %d", len(texts), len(scores))
	}
	if scores[0] <= 0 {
		t.Fatalf("expected positive polarity for bullish text, got %v", scores[0])
	}
	if scores[1] >= 0 {
		t.Fatalf("expected negative polarity for bearish text, got %v", scores[1])
	}
	if scores[2] != 0 {
		t.Fatalf("expected neutral score for empty text, got %v", scores[2])
	}
	for i, s := range scores {
		if s < -1 || s > 1 {
			t.Fatalf("score %d out of [-1,1]: %v", i, s)
		}
	}
}

func TestPolarityScorerEmptyBatch(t *testing.T) {
	t.Parallel()
	if scores := (PolarityScorer{}).Score(nil); len(scores) != 0 {
		t.Fatalf("expected empty result for empty batch, got %v", scores)
	}
}

func TestBuzzScorer(t *testing.T) {
	t.Parallel()
	scorer := NewBuzzScorer(2048)
	texts := []string{
		"nifty rally momentum banking sector",
		"nifty crash correction banking stress",
		"cricket scores nothing about markets",
		"",
		"the and of", // stop words only
	}
	scores := scorer.Score(texts)
	if len(scores) != len(texts) {
		t.Fatalf("expected %d scores, got %d", len(texts), len(scores))
	}
	for i, s := range scores {
		if s < 0 {
			t.Fatalf("buzz score %d negative: %v", i, s)
		}
	}
	if scores[0] == 0 || scores[1] == 0 || scores[2] == 0 {
		t.Fatalf("expected positive buzz for texts with terms, got %v", scores[:3])
	}
	if scores[3] != 0 {
		t.Fatalf("expected zero buzz for empty text, got %v", scores[3])
	}
	if scores[4] != 0 {
		t.Fatalf("expected zero buzz for stop-word-only text, got %v", scores[4])
	}
}

func TestBuzzScorerAllEmptyTexts(t *testing.T) {
	t.Parallel()
	scorer := NewBuzzScorer(2048)
	scores := scorer.Score([]string{"", "", ""})
	for i, s := range scores {
		if s != 0 {
			t.Fatalf("expected zero vector for empty vocabulary, got score %d = %v", i, s)
		}
	}
}

func TestBuzzScorerVocabularyCap(t *testing.T) {
	t.Parallel()
	scorer := NewBuzzScorer(1)
	// "nifty" appears in both documents and wins the single vocabulary slot
	scores := scorer.Score([]string{
		"nifty rally",
		"nifty crash",
		"obscure standalone chatter",
	})
	if scores[0] <= 0 || scores[1] <= 0 {
		t.Fatalf("expected in-vocabulary texts to score, got %v", scores[:2])
	}
	if scores[2] != 0 {
		t.Fatalf("expected out-of-vocabulary text to score 0, got %v", scores[2])
	}
}

func TestBuzzScorerDeterministic(t *testing.T) {
	t.Parallel()
	scorer := NewBuzzScorer(8)
	texts := []string{
		"banking rally momentum",
		"banking stress correction",
		"rally everywhere today",
	}
	first := scorer.Score(texts)
	second := scorer.Score(texts)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("buzz scoring not deterministic at %d: %v vs %v", i, first[i], second[i])
		}
	}
}
