package pipeline

import (
	"math"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/analysis"
	"github.com/blevesearch/bleve/analysis/lang/en"
	porterstemmer "github.com/blevesearch/go-porterstemmer"
)

// BuzzScorer scores each record by the summed TF-IDF weight of its terms
// under a model fitted on the whole batch. The vocabulary is capped at the
// vocabLimit most document-frequent stemmed terms; English stop words and
// single-character tokens are excluded. Scores are always >= 0 and records
// without any in-vocabulary term score 0.
//
// The model is refitted on every Score call; there is no incremental update
// path, so adding a record means re-scoring the batch.
type BuzzScorer struct {
	vocabLimit int
	stopWords  analysis.TokenMap
}

// NewBuzzScorer builds a buzz scorer with the given vocabulary cap.
func NewBuzzScorer(vocabLimit int) *BuzzScorer {
	stop := analysis.NewTokenMap()
	if err := stop.LoadBytes(en.EnglishStopWords); err != nil {
		// the embedded list is well-formed; an empty map only widens the vocabulary
		stop = analysis.NewTokenMap()
	}
	return &BuzzScorer{vocabLimit: vocabLimit, stopWords: stop}
}

func (s *BuzzScorer) Name() string { return "buzz" }

func (s *BuzzScorer) Score(texts []string) []float64 {
	scores := make([]float64, len(texts))
	if len(texts) == 0 {
		return scores
	}

	// collection phase: tokenize every text and count document frequencies
	docs := make([][]string, len(texts))
	docFreq := make(map[string]int)
	for i, text := range texts {
		terms := s.terms(text)
		docs[i] = terms
		seen := make(map[string]struct{}, len(terms))
		for _, term := range terms {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			docFreq[term]++
		}
	}
	if len(docFreq) == 0 {
		return scores
	}

	// cap the vocabulary at the most widespread terms; ties break
	// lexicographically so the model is deterministic
	vocab := make([]string, 0, len(docFreq))
	for term := range docFreq {
		vocab = append(vocab, term)
	}
	sort.Slice(vocab, func(i, j int) bool {
		if docFreq[vocab[i]] != docFreq[vocab[j]] {
			return docFreq[vocab[i]] > docFreq[vocab[j]]
		}
		return vocab[i] < vocab[j]
	})
	if len(vocab) > s.vocabLimit {
		vocab = vocab[:s.vocabLimit]
	}

	// smoothed inverse document frequency, strictly positive
	n := float64(len(texts))
	idf := make(map[string]float64, len(vocab))
	for _, term := range vocab {
		idf[term] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	// reduction phase: per-record sum of tf * idf over in-vocabulary terms
	for i, terms := range docs {
		if len(terms) == 0 {
			continue
		}
		counts := make(map[string]int, len(terms))
		for _, term := range terms {
			counts[term]++
		}
		total := float64(len(terms))
		var sum float64
		for term, count := range counts {
			weight, ok := idf[term]
			if !ok {
				continue
			}
			sum += float64(count) / total * weight
		}
		scores[i] = sum
	}
	return scores
}

// terms splits normalized text into stemmed, stop-word-filtered tokens.
func (s *BuzzScorer) terms(text string) []string {
	fields := strings.Fields(text)
	terms := make([]string, 0, len(fields))
	for _, field := range fields {
		if len(field) < 2 {
			continue
		}
		if s.stopWords[field] {
			continue
		}
		terms = append(terms, porterstemmer.StemString(field))
	}
	return terms
}
