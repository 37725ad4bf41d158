package scoring_test

import (
	"context"
	"math"
	"testing"

	"github.com/okian/scribe/internal/domain/model"
	scoring "github.com/okian/scribe/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestKeywordScore(t *testing.T) {
	Convey("Given a candidate text", t, func() {
		text := "enable sso via saml for the enterprise tenant"

		Convey("When all keywords appear", func() {
			So(scoring.KeywordScore(text, []string{"SSO", "SAML"}), ShouldEqual, 1.0)
		})

		Convey("When half the keywords appear", func() {
			So(scoring.KeywordScore(text, []string{"saml", "billing"}), ShouldEqual, 0.5)
		})

		Convey("When the keyword list is empty", func() {
			score := scoring.KeywordScore(text, []string{})
			So(math.IsNaN(score), ShouldBeFalse)
			So(score, ShouldEqual, 0)
			So(scoring.KeywordScore(text, nil), ShouldEqual, 0)
		})

		Convey("When a keyword is a multi-word phrase", func() {
			So(scoring.KeywordScore(text, []string{"enterprise tenant"}), ShouldEqual, 0)
		})
	})
}

func TestCandidateText(t *testing.T) {
	Convey("Given a candidate with all fields", t, func() {
		c := model.Candidate{
			ID:          "OPS-1",
			Summary:     "SSO Rollout",
			Description: "Enable SAML",
			Comments:    []string{"IdP metadata uploaded", "  "},
		}

		Convey("Then the blob should join the fields in lowercase", func() {
			So(scoring.CandidateText(c), ShouldEqual, "sso rollout enable saml idp metadata uploaded")
		})
	})
}

func TestBatchScorer_ScoreBatch(t *testing.T) {
	ctx := context.Background()

	Convey("Given a batch scorer with default weights", t, func() {
		scorer := scoring.NewBatchScorer()
		So(scorer.Weights(), ShouldResemble, scoring.DefaultWeights())

		candidates := []model.Candidate{
			{ID: "A", Summary: "Roll out SSO with SAML for enterprise customers"},
			{ID: "B", Summary: "Quarterly billing export is slow"},
			{ID: "C", Summary: ""},
		}
		topic := "We finished the SAML metadata exchange so SSO can go live next week"

		Convey("When scoring the batch", func() {
			scored, err := scorer.ScoreBatch(ctx, candidates, topic, []string{"SSO", "SAML"})
			So(err, ShouldBeNil)

			Convey("Then it should return one result per candidate in order", func() {
				So(len(scored), ShouldEqual, len(candidates))
				for i, s := range scored {
					So(s.ID, ShouldEqual, candidates[i].ID)
					So(s.Source, ShouldResemble, candidates[i])
				}
			})

			Convey("Then every relevance should be finite and non-negative", func() {
				for _, s := range scored {
					So(math.IsNaN(s.Relevance), ShouldBeFalse)
					So(math.IsInf(s.Relevance, 0), ShouldBeFalse)
					So(s.Relevance, ShouldBeGreaterThanOrEqualTo, 0)
				}
			})

			Convey("Then the candidate containing both keywords should rank above the one with none", func() {
				So(scored[0].Relevance, ShouldBeGreaterThan, scored[1].Relevance)
			})
		})

		Convey("When scoring twice", func() {
			first, err1 := scorer.ScoreBatch(ctx, candidates, topic, []string{"SSO"})
			second, err2 := scorer.ScoreBatch(ctx, candidates, topic, []string{"SSO"})

			Convey("Then the results should be identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first, ShouldResemble, second)
			})
		})

		Convey("When the keyword list is empty", func() {
			scored, err := scorer.ScoreBatch(ctx, candidates, topic, nil)

			Convey("Then scoring should still succeed without NaN", func() {
				So(err, ShouldBeNil)
				for _, s := range scored {
					So(math.IsNaN(s.Relevance), ShouldBeFalse)
				}
			})
		})

		Convey("When the batch is empty", func() {
			scored, err := scorer.ScoreBatch(ctx, nil, topic, []string{"SSO"})
			So(err, ShouldBeNil)
			So(scored, ShouldBeEmpty)
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := scorer.ScoreBatch(cctx, candidates, topic, []string{"SSO"})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestBatchScorer_Weights(t *testing.T) {
	Convey("Given custom weights", t, func() {
		scorer := scoring.NewBatchScorer(scoring.WithWeights(scoring.Weights{Keyword: 1}))

		Convey("Then only the keyword signal should count", func() {
			So(scorer.Combine(scoring.Signals{Keyword: 0.5, TFIDF: 0.9, Similarity: 0.9}), ShouldEqual, 0.5)
		})
	})

	Convey("Given negative weights", t, func() {
		scorer := scoring.NewBatchScorer(scoring.WithWeights(scoring.Weights{Keyword: -1}))

		Convey("Then the defaults should be kept", func() {
			So(scorer.Weights(), ShouldResemble, scoring.DefaultWeights())
		})
	})

	Convey("Given non-finite signals", t, func() {
		scorer := scoring.NewBatchScorer()

		Convey("Then they should count as zero", func() {
			r := scorer.Combine(scoring.Signals{Keyword: math.NaN(), TFIDF: math.Inf(1), Similarity: 0.5})
			So(r, ShouldAlmostEqual, 0.1, 1e-9)
		})
	})
}
