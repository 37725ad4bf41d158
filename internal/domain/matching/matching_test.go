package matching_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/scribe/internal/domain/matching"
	"github.com/okian/scribe/internal/domain/model"
	"github.com/okian/scribe/internal/domain/scoring"
	"github.com/okian/scribe/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type mockSearcher struct {
	mu         sync.Mutex
	candidates []model.Candidate
	err        error
	queries    []string
	limits     []int
}

func (m *mockSearcher) SearchCandidates(ctx context.Context, query string, maxResults int) ([]model.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	m.limits = append(m.limits, maxResults)
	if m.err != nil {
		return nil, m.err
	}
	return m.candidates, nil
}

// fixedScorer assigns relevance from a lookup table, ignoring the text.
type fixedScorer struct {
	relevance map[string]float64
	err       error
}

func (f *fixedScorer) ScoreBatch(ctx context.Context, candidates []model.Candidate, topicText string, keywords []string) ([]model.ScoredCandidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.ScoredCandidate, len(candidates))
	for i, c := range candidates {
		out[i] = model.ScoredCandidate{ID: c.ID, Relevance: f.relevance[c.ID], Source: c}
	}
	return out, nil
}

func fillerCandidates(n int) []model.Candidate {
	out := make([]model.Candidate, n)
	for i := range out {
		out[i] = model.Candidate{
			ID:      fmt.Sprintf("OPS-%d", i+1),
			Summary: fmt.Sprintf("Routine maintenance task number %d for the warehouse team", i+1),
		}
	}
	return out
}

func TestBuildQuery(t *testing.T) {
	Convey("Given topic keywords", t, func() {
		Convey("Then each keyword should become an ORed text clause", func() {
			So(matching.BuildQuery([]string{"SSO", "SAML"}), ShouldEqual,
				`text ~ "SSO" OR text ~ "SAML" ORDER BY updated DESC`)
		})

		Convey("Then quotes and backslashes should be escaped", func() {
			So(matching.BuildQuery([]string{`say "hi"`, `a\b`}), ShouldEqual,
				`text ~ "say \"hi\"" OR text ~ "a\\b" ORDER BY updated DESC`)
		})

		Convey("Then blank keywords should be skipped", func() {
			So(matching.BuildQuery([]string{" ", "sso"}), ShouldEqual, `text ~ "sso" ORDER BY updated DESC`)
			So(matching.BuildQuery(nil), ShouldEqual, "")
			So(matching.BuildQuery([]string{"", "  "}), ShouldEqual, "")
		})
	})
}

func TestBatches(t *testing.T) {
	Convey("Given 25 candidates", t, func() {
		batches := matching.Batches(fillerCandidates(25), 10)

		Convey("Then they should split into batches of 10, 10 and 5", func() {
			So(len(batches), ShouldEqual, 3)
			So(len(batches[0]), ShouldEqual, 10)
			So(len(batches[1]), ShouldEqual, 10)
			So(len(batches[2]), ShouldEqual, 5)
			So(batches[2][0].ID, ShouldEqual, "OPS-21")
		})
	})

	Convey("Given no candidates", t, func() {
		So(matching.Batches(nil, 10), ShouldBeEmpty)
	})

	Convey("Given a non-positive batch size", t, func() {
		So(len(matching.Batches(fillerCandidates(11), 0)), ShouldEqual, 2)
	})
}

func TestRetriever(t *testing.T) {
	ctx := context.Background()

	Convey("Given a retriever", t, func() {
		searcher := &mockSearcher{candidates: fillerCandidates(60)}
		r := matching.NewRetriever(searcher)

		Convey("When retrieving with keywords", func() {
			got, err := r.Retrieve(ctx, []string{"warehouse"})

			Convey("Then it should bound the result set", func() {
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, matching.DefaultMaxResults)
				So(searcher.limits, ShouldResemble, []int{matching.DefaultMaxResults})
				So(searcher.queries[0], ShouldEqual, `text ~ "warehouse" ORDER BY updated DESC`)
			})
		})

		Convey("When there are no keywords", func() {
			got, err := r.Retrieve(ctx, nil)

			Convey("Then no search should be issued", func() {
				So(err, ShouldBeNil)
				So(got, ShouldBeEmpty)
				So(searcher.queries, ShouldBeEmpty)
			})
		})

		Convey("When the search fails", func() {
			searcher.err = errors.New("502 bad gateway")
			_, err := r.Retrieve(ctx, []string{"sso"})

			Convey("Then the error should be a retrieval error", func() {
				So(errors.Is(err, matching.ErrRetrieval), ShouldBeTrue)
			})
		})
	})

	Convey("Given a custom max results", t, func() {
		searcher := &mockSearcher{candidates: fillerCandidates(30)}
		r := matching.NewRetriever(searcher, matching.WithMaxResults(20))
		got, err := r.Retrieve(ctx, []string{"x"})
		So(err, ShouldBeNil)
		So(len(got), ShouldEqual, 20)
		So(searcher.limits, ShouldResemble, []int{20})
	})
}

func TestMatcher_Match(t *testing.T) {
	ctx := context.Background()
	topic := model.Topic{
		Text:     "The SAML metadata exchange is done and SSO goes live on Monday",
		Label:    "SSO launch",
		Keywords: []string{"SSO", "SAML", "metadata"},
	}

	Convey("Given an empty candidate pool", t, func() {
		m := matching.NewMatcher(matching.NewRetriever(&mockSearcher{}), scoring.NewBatchScorer())

		Convey("Then there should be no match", func() {
			So(m.Match(ctx, topic).Found, ShouldBeFalse)
		})
	})

	Convey("Given a failing tracker search", t, func() {
		m := matching.NewMatcher(
			matching.NewRetriever(&mockSearcher{err: errors.New("timeout")}),
			scoring.NewBatchScorer(),
		)

		Convey("Then the failure should degrade to no match", func() {
			So(m.Match(ctx, topic).Found, ShouldBeFalse)
		})
	})

	Convey("Given a failing scorer", t, func() {
		m := matching.NewMatcher(
			matching.NewRetriever(&mockSearcher{candidates: fillerCandidates(3)}),
			&fixedScorer{err: errors.New("boom")},
		)

		Convey("Then Rank should report a scoring error and Match no match", func() {
			_, err := m.Rank(ctx, topic)
			So(errors.Is(err, matching.ErrScoring), ShouldBeTrue)
			So(m.Match(ctx, topic).Found, ShouldBeFalse)
		})
	})

	Convey("Given 15 candidates where the best one sits in the second batch", t, func() {
		candidates := fillerCandidates(15)
		candidates[12] = model.Candidate{
			ID:          "IAM-42",
			Summary:     "SSO with SAML for enterprise tenants",
			Description: "Exchange SAML metadata with the IdP and enable SSO",
		}
		searcher := &mockSearcher{candidates: candidates}
		m := matching.NewMatcher(matching.NewRetriever(searcher), scoring.NewBatchScorer(), matching.WithBatchSize(10))

		Convey("When matching the topic", func() {
			result := m.Match(ctx, topic)

			Convey("Then the globally best candidate should win", func() {
				So(result.Found, ShouldBeTrue)
				So(result.Best.ID, ShouldEqual, "IAM-42")
				So(result.Best.Source, ShouldResemble, candidates[12])
			})
		})

		Convey("When ranking twice", func() {
			first, err1 := m.Rank(ctx, topic)
			second, err2 := m.Rank(ctx, topic)

			Convey("Then the ordering should be identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(len(first), ShouldEqual, 15)
				So(first, ShouldResemble, second)
			})
		})

		Convey("When batches are scored in parallel", func() {
			parallel := matching.NewMatcher(matching.NewRetriever(searcher), scoring.NewBatchScorer(),
				matching.WithBatchSize(10), matching.WithBatchConcurrency(4))
			sequential, err1 := m.Rank(ctx, topic)
			concurrent, err2 := parallel.Rank(ctx, topic)

			Convey("Then the ranking should not change", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(concurrent, ShouldResemble, sequential)
			})
		})
	})

	Convey("Given tied relevances across batches", t, func() {
		candidates := fillerCandidates(4)
		scorer := &fixedScorer{relevance: map[string]float64{
			"OPS-1": 0.2, "OPS-2": 0.5, "OPS-3": 0.5, "OPS-4": 0.1,
		}}
		m := matching.NewMatcher(matching.NewRetriever(&mockSearcher{candidates: candidates}), scorer,
			matching.WithBatchSize(2))

		Convey("Then ties should keep retrieval order", func() {
			ranked, err := m.Rank(ctx, topic)
			So(err, ShouldBeNil)
			ids := make([]string, len(ranked))
			for i, r := range ranked {
				ids[i] = r.ID
			}
			So(ids, ShouldResemble, []string{"OPS-2", "OPS-3", "OPS-1", "OPS-4"})
		})
	})

	Convey("Given only zero-relevance candidates", t, func() {
		scorer := &fixedScorer{relevance: map[string]float64{}}
		m := matching.NewMatcher(matching.NewRetriever(&mockSearcher{candidates: fillerCandidates(2)}), scorer)

		Convey("Then the first candidate is still returned", func() {
			result := m.Match(ctx, topic)
			So(result.Found, ShouldBeTrue)
			So(result.Best.ID, ShouldEqual, "OPS-1")
			So(result.Best.Relevance, ShouldEqual, 0)
		})
	})
}
