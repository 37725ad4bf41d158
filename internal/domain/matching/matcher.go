package matching

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/scribe/internal/domain/model"
	"github.com/okian/scribe/internal/domain/scoring"
	"github.com/okian/scribe/pkg/logger"
	"github.com/okian/scribe/pkg/metrics"
)

// CandidateRetriever fetches the candidate pool for a topic.
type CandidateRetriever interface {
	Retrieve(ctx context.Context, keywords []string) ([]model.Candidate, error)
}

// Option applies a configuration option to the Matcher.
type Option func(*Matcher)

// WithBatchSize sets how many candidates share one TF-IDF corpus.
func WithBatchSize(size int) Option {
	return func(m *Matcher) {
		if size > 0 {
			m.batchSize = size
		}
	}
}

// WithBatchConcurrency caps how many batches are scored at once.
// The default of 1 scores batches one after another.
func WithBatchConcurrency(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// WithLogger sets a custom logger for the matcher.
func WithLogger(l logger.Logger) Option {
	return func(m *Matcher) {
		if l != nil {
			m.logger = l
		}
	}
}

// Matcher ranks candidates for a topic and picks the best one.
type Matcher struct {
	retriever   CandidateRetriever
	scorer      scoring.Scorer
	batchSize   int
	concurrency int
	logger      logger.Logger
}

// NewMatcher creates a matcher with configuration options.
func NewMatcher(retriever CandidateRetriever, scorer scoring.Scorer, opts ...Option) *Matcher {
	m := &Matcher{
		retriever:   retriever,
		scorer:      scorer,
		batchSize:   DefaultBatchSize,
		concurrency: 1,
		logger:      logger.Get().Named("matcher"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match returns the top-ranked candidate for topic, or no match when the
// candidate pool is empty. Retrieval and scoring failures are logged and
// reported as no match. No minimum relevance is applied.
func (m *Matcher) Match(ctx context.Context, topic model.Topic) model.MatchResult {
	start := time.Now()
	defer func() {
		metrics.RecordMatchLatency(float64(time.Since(start).Milliseconds()))
	}()

	ranked, err := m.Rank(ctx, topic)
	if err != nil {
		metrics.RecordRetrievalError()
		metrics.RecordErrorByComponent("matcher", "retrieval_error")
		m.logger.Error(ctx, "matching failed; treating topic as unmatched",
			logger.String("topic", topic.Label),
			logger.Error(err),
		)
		return model.NoMatch()
	}
	if len(ranked) == 0 {
		m.logger.Info(ctx, "no candidates for topic", logger.String("topic", topic.Label))
		return model.NoMatch()
	}

	best := ranked[0]
	m.logger.Info(ctx, "matched topic",
		logger.String("topic", topic.Label),
		logger.String("itemID", best.ID),
		logger.Float64("relevance", best.Relevance),
	)
	return model.Matched(best)
}

// Rank retrieves and scores every candidate for topic and returns them
// sorted by descending relevance. Ties keep retrieval order.
func (m *Matcher) Rank(ctx context.Context, topic model.Topic) ([]model.ScoredCandidate, error) {
	candidates, err := m.retriever.Retrieve(ctx, topic.Keywords)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []model.ScoredCandidate{}, nil
	}

	batches := Batches(candidates, m.batchSize)
	results := make([][]model.ScoredCandidate, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for i, batch := range batches {
		g.Go(func() error {
			scored, err := m.scorer.ScoreBatch(gctx, batch, topic.Text, topic.Keywords)
			if err != nil {
				return fmt.Errorf("%w: batch %d: %w", ErrScoring, i+1, err)
			}
			m.logBatch(gctx, i+1, len(batches), scored)
			results[i] = scored
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]model.ScoredCandidate, 0, len(candidates))
	for _, r := range results {
		merged = append(merged, r...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Relevance > merged[j].Relevance
	})
	return merged, nil
}

func (m *Matcher) logBatch(ctx context.Context, n, total int, scored []model.ScoredCandidate) {
	if len(scored) == 0 {
		return
	}
	lo, hi := scored[0].Relevance, scored[0].Relevance
	for _, s := range scored[1:] {
		lo = min(lo, s.Relevance)
		hi = max(hi, s.Relevance)
	}
	m.logger.Debug(ctx, "scored batch",
		logger.Int("batch", n),
		logger.Int("batches", total),
		logger.Int("size", len(scored)),
		logger.Float64("minRelevance", lo),
		logger.Float64("maxRelevance", hi),
	)
}
