// Package matching finds the tracked item a topic most likely updates.
//
// Candidates come from a full-text search over the topic keywords, are split
// into fixed-size batches, scored batch by batch and merged into one ranking.
// Each batch is scored against its own TF-IDF corpus, so the merged ranking
// compares relevances computed under different term statistics. That is an
// accepted approximation: it keeps corpora small and matches how candidates
// were always ranked.
package matching

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/scribe/internal/domain/model"
	"github.com/okian/scribe/pkg/logger"
	"github.com/okian/scribe/pkg/metrics"
)

// Default retrieval and batching limits.
const (
	DefaultMaxResults = 50
	DefaultBatchSize  = 10
)

// Searcher runs a tracker query and returns at most maxResults candidates.
type Searcher interface {
	SearchCandidates(ctx context.Context, query string, maxResults int) ([]model.Candidate, error)
}

// RetrieverOption applies a configuration option to the Retriever.
type RetrieverOption func(*Retriever)

// WithMaxResults bounds the number of candidates fetched per topic.
func WithMaxResults(n int) RetrieverOption {
	return func(r *Retriever) {
		if n > 0 {
			r.maxResults = n
		}
	}
}

// WithRetrieverLogger sets a custom logger for the retriever.
func WithRetrieverLogger(l logger.Logger) RetrieverOption {
	return func(r *Retriever) {
		if l != nil {
			r.logger = l
		}
	}
}

// Retriever turns topic keywords into a tracker search.
type Retriever struct {
	searcher   Searcher
	maxResults int
	logger     logger.Logger
}

// NewRetriever creates a retriever backed by searcher.
func NewRetriever(searcher Searcher, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		searcher:   searcher,
		maxResults: DefaultMaxResults,
		logger:     logger.Get().Named("retriever"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve fetches candidates for keywords, most recently updated first.
// No search is issued when there are no usable keywords.
func (r *Retriever) Retrieve(ctx context.Context, keywords []string) ([]model.Candidate, error) {
	query := BuildQuery(keywords)
	if query == "" {
		r.logger.Debug(ctx, "no keywords; skipping candidate search")
		return nil, nil
	}

	r.logger.Debug(ctx, "searching candidates", logger.String("query", query), logger.Int("maxResults", r.maxResults))
	candidates, err := r.searcher.SearchCandidates(ctx, query, r.maxResults)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	if len(candidates) > r.maxResults {
		candidates = candidates[:r.maxResults]
	}
	metrics.RecordCandidatesRetrieved(len(candidates))
	r.logger.Info(ctx, "retrieved candidates", logger.Int("count", len(candidates)))
	return candidates, nil
}

// BuildQuery ORs a full-text clause per keyword and orders by last update:
//
//	text ~ "sso" OR text ~ "saml" ORDER BY updated DESC
//
// Blank keywords are skipped; an empty result means there is nothing to search.
func BuildQuery(keywords []string) string {
	clauses := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		clauses = append(clauses, `text ~ "`+escapeQuoted(k)+`"`)
	}
	if len(clauses) == 0 {
		return ""
	}
	return strings.Join(clauses, " OR ") + " ORDER BY updated DESC"
}

func escapeQuoted(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// Batches splits candidates into consecutive groups of at most size.
func Batches(candidates []model.Candidate, size int) [][]model.Candidate {
	if size <= 0 {
		size = DefaultBatchSize
	}
	out := make([][]model.Candidate, 0, (len(candidates)+size-1)/size)
	for i := 0; i < len(candidates); i += size {
		end := i + size
		if end > len(candidates) {
			end = len(candidates)
		}
		out = append(out, candidates[i:end])
	}
	return out
}
