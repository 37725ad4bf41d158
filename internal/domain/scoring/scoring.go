// Package scoring computes topic-to-candidate relevance for one batch of
// candidates at a time.
//
// Relevance is a weighted sum of three signals: the share of topic keywords
// present in the candidate text, the TF-IDF cosine similarity between the
// candidate and the topic, and a Jaro-Winkler similarity of the raw texts.
// The TF-IDF corpus is the batch plus the topic, so relevance is only
// comparable between candidates of the same batch.
package scoring

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/scribe/internal/domain/model"
	"github.com/okian/scribe/internal/domain/similarity"
	"github.com/okian/scribe/pkg/metrics"
)

// Default signal weights.
const (
	defaultKeywordWeight    = 0.4
	defaultTFIDFWeight      = 0.4
	defaultSimilarityWeight = 0.2
)

// Weights controls how the three signals combine into relevance.
type Weights struct {
	Keyword    float64
	TFIDF      float64
	Similarity float64
}

// DefaultWeights returns the 0.4 / 0.4 / 0.2 weighting.
func DefaultWeights() Weights {
	return Weights{
		Keyword:    defaultKeywordWeight,
		TFIDF:      defaultTFIDFWeight,
		Similarity: defaultSimilarityWeight,
	}
}

// Option applies a configuration option to the BatchScorer.
type Option func(*BatchScorer)

// WithWeights sets the signal weights. Negative weights are ignored.
func WithWeights(w Weights) Option {
	return func(s *BatchScorer) {
		if w.Keyword < 0 || w.TFIDF < 0 || w.Similarity < 0 {
			return
		}
		s.weights = w
	}
}

// Signals are the per-candidate inputs to the composite relevance.
type Signals struct {
	Keyword    float64
	TFIDF      float64
	Similarity float64
}

// Scorer scores a batch of candidates against one topic.
type Scorer interface {
	// ScoreBatch returns one ScoredCandidate per candidate, in input order.
	ScoreBatch(ctx context.Context, candidates []model.Candidate, topicText string, keywords []string) ([]model.ScoredCandidate, error)
}

// BatchScorer implements Scorer. It holds no per-batch state.
type BatchScorer struct {
	weights Weights
}

// NewBatchScorer creates a scorer with configuration options.
func NewBatchScorer(opts ...Option) *BatchScorer {
	s := &BatchScorer{
		weights: DefaultWeights(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Weights returns the weights in use.
func (s *BatchScorer) Weights() Weights { return s.weights }

// ScoreBatch scores candidates against the topic.
func (s *BatchScorer) ScoreBatch(ctx context.Context, candidates []model.Candidate, topicText string, keywords []string) ([]model.ScoredCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}
	if len(candidates) == 0 {
		return []model.ScoredCandidate{}, nil
	}

	start := time.Now()
	defer func() {
		metrics.RecordBatchScoringLatency(float64(time.Since(start).Milliseconds()))
	}()

	blobs := make([]string, len(candidates))
	for i, c := range candidates {
		blobs[i] = CandidateText(c)
	}
	topic := strings.ToLower(topicText)

	// The topic is the last document; a fresh corpus per batch.
	corpus := similarity.NewCorpus(append(append([]string(nil), blobs...), topic))
	topicIndex := len(candidates)

	out := make([]model.ScoredCandidate, len(candidates))
	for i, c := range candidates {
		sig := Signals{
			Keyword:    KeywordScore(blobs[i], keywords),
			TFIDF:      corpus.Similarity(i, topicIndex),
			Similarity: similarity.StringSimilarity(blobs[i], topic),
		}
		out[i] = model.ScoredCandidate{
			ID:        c.ID,
			Relevance: s.Combine(sig),
			Source:    c,
		}
	}
	return out, nil
}

// Combine applies the weights to the signals. Non-finite or negative inputs
// count as zero so that relevance always sorts.
func (s *BatchScorer) Combine(sig Signals) float64 {
	r := s.weights.Keyword*floor(sig.Keyword) +
		s.weights.TFIDF*floor(sig.TFIDF) +
		s.weights.Similarity*floor(sig.Similarity)
	return floor(r)
}

func floor(x float64) float64 {
	x = similarity.Finite(x)
	if x < 0 {
		return 0
	}
	return x
}

// CandidateText renders the lowercase text blob for a candidate: summary,
// description and comment bodies separated by spaces.
func CandidateText(c model.Candidate) string {
	parts := make([]string, 0, 2+len(c.Comments))
	for _, p := range append([]string{c.Summary, c.Description}, c.Comments...) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}
