package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/okian/scribe/internal/domain/model"
	"github.com/okian/scribe/internal/domain/pipeline"
	"github.com/okian/scribe/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// Mock implementations for testing.
type mockMatcher struct {
	results map[string]model.MatchResult // by topic label
	calls   []string
}

func (m *mockMatcher) Match(ctx context.Context, topic model.Topic) model.MatchResult {
	m.calls = append(m.calls, topic.Label)
	return m.results[topic.Label]
}

type mockSummarizer struct {
	summary model.Summary
	err     error
	items   []model.Candidate
}

func (m *mockSummarizer) Summarize(ctx context.Context, topic model.Topic, item model.Candidate) (model.Summary, error) {
	m.items = append(m.items, item)
	return m.summary, m.err
}

type comment struct{ itemID, body string }

type mockCommenter struct {
	posted []comment
	err    error
}

func (m *mockCommenter) AddComment(ctx context.Context, itemID, body string) error {
	if m.err != nil {
		return m.err
	}
	m.posted = append(m.posted, comment{itemID: itemID, body: body})
	return nil
}

type mockStore struct {
	records []model.UpdateRecord
	failOn  int // 1-based insert number to fail on; 0 never fails
}

func (m *mockStore) InsertRecord(ctx context.Context, rec model.UpdateRecord) (model.UpdateRecord, error) {
	if m.failOn > 0 && len(m.records)+1 == m.failOn {
		return model.UpdateRecord{}, errors.New("disk full")
	}
	rec.ID = fmt.Sprintf("rec-%d", len(m.records)+1)
	m.records = append(m.records, rec)
	return rec, nil
}

type mockSegmenter struct {
	topics []model.Topic
	err    error
}

func (m *mockSegmenter) Segment(ctx context.Context, transcript string) ([]model.Topic, error) {
	return m.topics, m.err
}

type mockReader struct {
	item model.Candidate
	err  error
}

func (m *mockReader) GetCandidate(ctx context.Context, itemID string) (model.Candidate, error) {
	return m.item, m.err
}

func matched(id string) model.MatchResult {
	return model.Matched(model.ScoredCandidate{ID: id, Relevance: 0.7, Source: model.Candidate{ID: id, Summary: "search copy"}})
}

func TestExtractResourceLinks(t *testing.T) {
	Convey("Given topic text with two links", t, func() {
		links := pipeline.ExtractResourceLinks("see https://example.com/doc and https://jira.example.com/X-1")

		Convey("Then both should be returned in order", func() {
			So(links, ShouldResemble, []string{"https://example.com/doc", "https://jira.example.com/X-1"})
		})
	})

	Convey("Given repeated and plain http links", t, func() {
		links := pipeline.ExtractResourceLinks("http://a.io/x then https://b.io, then http://a.io/x")

		Convey("Then duplicates are kept and trailing punctuation stays attached", func() {
			So(links, ShouldResemble, []string{"http://a.io/x", "https://b.io,", "http://a.io/x"})
		})
	})

	Convey("Given links followed by non-ASCII spaces", t, func() {
		links := pipeline.ExtractResourceLinks("https://a.io/x\u00a0next https://b.io/y\u2003and https://c.io/z\ufeffend")

		Convey("Then each link stops at the space", func() {
			So(links, ShouldResemble, []string{"https://a.io/x", "https://b.io/y", "https://c.io/z"})
		})
	})

	Convey("Given text without links", t, func() {
		links := pipeline.ExtractResourceLinks("nothing to see; ftp://old.host is not http")
		So(links, ShouldNotBeNil)
		So(links, ShouldBeEmpty)
	})
}

func TestComposeComment(t *testing.T) {
	Convey("Given an update with links", t, func() {
		body := pipeline.ComposeComment("SSO is live", "SAML metadata exchanged.", []string{"https://a", "https://b"})
		So(body, ShouldEqual, "Update from meeting discussion:\n\nSSO is live\n\nDetails:\nSAML metadata exchanged.\n\nResources:\nhttps://a\nhttps://b")
	})

	Convey("Given an update without links", t, func() {
		body := pipeline.ComposeComment("SSO is live", "SAML metadata exchanged.", nil)
		So(body, ShouldEqual, "Update from meeting discussion:\n\nSSO is live\n\nDetails:\nSAML metadata exchanged.")
	})
}

func TestPipeline_ProcessTopics(t *testing.T) {
	ctx := context.Background()
	ssoTopic := model.Topic{Label: "sso", Text: "SAML done, notes at https://wiki.example.com/sso", Keywords: []string{"sso"}}
	chatTopic := model.Topic{Label: "chat", Text: "weekend plans", Keywords: []string{"weekend"}}

	Convey("Given a topic with no candidates", t, func() {
		matcher := &mockMatcher{results: map[string]model.MatchResult{}}
		summarizer := &mockSummarizer{summary: model.NewUpdate("d", "o")}
		commenter := &mockCommenter{}
		store := &mockStore{}
		p := pipeline.New(matcher, summarizer, commenter, store)

		report, err := p.ProcessTopics(ctx, "m-1", []model.Topic{chatTopic})

		Convey("Then nothing should be persisted or posted", func() {
			So(err, ShouldBeNil)
			So(report.Topics, ShouldEqual, 1)
			So(report.Matched, ShouldEqual, 0)
			So(store.records, ShouldBeEmpty)
			So(commenter.posted, ShouldBeEmpty)
			So(summarizer.items, ShouldBeEmpty)
		})
	})

	Convey("Given a matched topic with a reportable update", t, func() {
		matcher := &mockMatcher{results: map[string]model.MatchResult{"sso": matched("IAM-1")}}
		summarizer := &mockSummarizer{summary: model.NewUpdate("SAML metadata exchanged.", "SSO ready")}
		commenter := &mockCommenter{}
		store := &mockStore{}
		p := pipeline.New(matcher, summarizer, commenter, store)

		report, err := p.ProcessTopics(ctx, "m-1", []model.Topic{ssoTopic, chatTopic})

		Convey("Then a comment should be posted and a record stored", func() {
			So(err, ShouldBeNil)
			So(report.Topics, ShouldEqual, 2)
			So(report.Matched, ShouldEqual, 1)
			So(report.Commented, ShouldEqual, 1)
			So(report.RecordIDs, ShouldResemble, []string{"rec-1"})
			So(len(commenter.posted), ShouldEqual, 1)
			So(commenter.posted[0].itemID, ShouldEqual, "IAM-1")
			So(commenter.posted[0].body, ShouldEqual,
				"Update from meeting discussion:\n\nSSO ready\n\nDetails:\nSAML metadata exchanged.\n\nResources:\nhttps://wiki.example.com/sso")

			rec := store.records[0]
			So(rec.MeetingID, ShouldEqual, "m-1")
			So(*rec.ItemID, ShouldEqual, "IAM-1")
			So(*rec.Summary, ShouldEqual, "SAML metadata exchanged.")
			So(*rec.OneLiner, ShouldEqual, "SSO ready")
			So(rec.ResourceLinks, ShouldResemble, []string{"https://wiki.example.com/sso"})
			So(rec.OriginalTopic, ShouldResemble, ssoTopic)
		})

		Convey("Then topics should be processed in order", func() {
			So(matcher.calls, ShouldResemble, []string{"sso", "chat"})
		})
	})

	Convey("Given the summarizer reports nothing new", t, func() {
		matcher := &mockMatcher{results: map[string]model.MatchResult{"sso": matched("IAM-1")}}
		summarizer := &mockSummarizer{summary: model.NoUpdateSummary()}
		commenter := &mockCommenter{}
		store := &mockStore{}
		p := pipeline.New(matcher, summarizer, commenter, store)

		_, err := p.ProcessTopics(ctx, "m-1", []model.Topic{ssoTopic})

		Convey("Then no comment is posted and a record with null summary is stored", func() {
			So(err, ShouldBeNil)
			So(commenter.posted, ShouldBeEmpty)
			So(len(store.records), ShouldEqual, 1)
			So(store.records[0].Summary, ShouldBeNil)
			So(store.records[0].OneLiner, ShouldBeNil)
			So(store.records[0].ResourceLinks, ShouldResemble, []string{"https://wiki.example.com/sso"})
		})
	})

	Convey("Given the summarizer fails", t, func() {
		matcher := &mockMatcher{results: map[string]model.MatchResult{"sso": matched("IAM-1")}}
		summarizer := &mockSummarizer{err: errors.New("llm unavailable")}
		commenter := &mockCommenter{}
		store := &mockStore{}
		p := pipeline.New(matcher, summarizer, commenter, store)

		_, err := p.ProcessTopics(ctx, "m-1", []model.Topic{ssoTopic})

		Convey("Then the failure should behave like no update, not placeholder text", func() {
			So(err, ShouldBeNil)
			So(commenter.posted, ShouldBeEmpty)
			So(len(store.records), ShouldEqual, 1)
			So(store.records[0].Summary, ShouldBeNil)
			So(store.records[0].OneLiner, ShouldBeNil)
		})
	})

	Convey("Given posting the comment fails", t, func() {
		matcher := &mockMatcher{results: map[string]model.MatchResult{"sso": matched("IAM-1")}}
		summarizer := &mockSummarizer{summary: model.NewUpdate("d", "o")}
		commenter := &mockCommenter{err: errors.New("403")}
		store := &mockStore{}
		p := pipeline.New(matcher, summarizer, commenter, store)

		report, err := p.ProcessTopics(ctx, "m-1", []model.Topic{ssoTopic})

		Convey("Then the record should still be stored", func() {
			So(err, ShouldBeNil)
			So(report.Commented, ShouldEqual, 0)
			So(len(store.records), ShouldEqual, 1)
			So(*store.records[0].Summary, ShouldEqual, "d")
		})
	})

	Convey("Given persistence fails on the second matched topic", t, func() {
		second := model.Topic{Label: "billing", Text: "csv export"}
		third := model.Topic{Label: "deploy", Text: "friday deploy"}
		matcher := &mockMatcher{results: map[string]model.MatchResult{
			"sso": matched("IAM-1"), "billing": matched("FIN-2"), "deploy": matched("OPS-3"),
		}}
		store := &mockStore{failOn: 2}
		p := pipeline.New(matcher, &mockSummarizer{}, &mockCommenter{}, store)

		report, err := p.ProcessTopics(ctx, "m-1", []model.Topic{ssoTopic, second, third})

		Convey("Then the run should abort and keep the earlier record", func() {
			So(errors.Is(err, pipeline.ErrPersist), ShouldBeTrue)
			So(len(store.records), ShouldEqual, 1)
			So(report.Persisted, ShouldEqual, 1)
			So(matcher.calls, ShouldResemble, []string{"sso", "billing"})
		})
	})

	Convey("Given an issue reader", t, func() {
		matcher := &mockMatcher{results: map[string]model.MatchResult{"sso": matched("IAM-1")}}
		summarizer := &mockSummarizer{summary: model.NoUpdateSummary()}

		Convey("When the refresh succeeds", func() {
			fresh := model.Candidate{ID: "IAM-1", Summary: "fresh copy", Comments: []string{"older update"}}
			p := pipeline.New(matcher, summarizer, &mockCommenter{}, &mockStore{},
				pipeline.WithIssueReader(&mockReader{item: fresh}))
			_, err := p.ProcessTopics(ctx, "m-1", []model.Topic{ssoTopic})

			Convey("Then the summarizer should see the full item", func() {
				So(err, ShouldBeNil)
				So(summarizer.items[0], ShouldResemble, fresh)
			})
		})

		Convey("When the refresh fails", func() {
			p := pipeline.New(matcher, summarizer, &mockCommenter{}, &mockStore{},
				pipeline.WithIssueReader(&mockReader{err: errors.New("404")}))
			_, err := p.ProcessTopics(ctx, "m-1", []model.Topic{ssoTopic})

			Convey("Then the search copy should be used", func() {
				So(err, ShouldBeNil)
				So(summarizer.items[0].Summary, ShouldEqual, "search copy")
			})
		})
	})

	Convey("Given a cancelled context", t, func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		matcher := &mockMatcher{results: map[string]model.MatchResult{"sso": matched("IAM-1")}}
		p := pipeline.New(matcher, &mockSummarizer{}, &mockCommenter{}, &mockStore{})

		_, err := p.ProcessTopics(cctx, "m-1", []model.Topic{ssoTopic})

		Convey("Then no topic should start", func() {
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(matcher.calls, ShouldBeEmpty)
		})
	})
}

func TestPipeline_ProcessTranscript(t *testing.T) {
	ctx := context.Background()

	Convey("Given segmentation fails", t, func() {
		matcher := &mockMatcher{results: map[string]model.MatchResult{}}
		p := pipeline.New(matcher, &mockSummarizer{}, &mockCommenter{}, &mockStore{},
			pipeline.WithSegmenter(&mockSegmenter{err: errors.New("bad json")}))

		report, err := p.ProcessTranscript(ctx, "m-2", "hello team, the sso rollout is done")

		Convey("Then the whole transcript should be processed as one topic", func() {
			So(err, ShouldBeNil)
			So(report.Topics, ShouldEqual, 1)
			So(matcher.calls, ShouldResemble, []string{model.FallbackTopicLabel})
		})
	})

	Convey("Given segmentation succeeds", t, func() {
		matcher := &mockMatcher{results: map[string]model.MatchResult{"b": matched("X-2")}}
		store := &mockStore{}
		p := pipeline.New(matcher, &mockSummarizer{}, &mockCommenter{}, store,
			pipeline.WithSegmenter(&mockSegmenter{topics: []model.Topic{{Label: "a"}, {Label: "b"}}}))

		report, err := p.ProcessTranscript(ctx, "m-3", "...")

		Convey("Then each topic should be processed", func() {
			So(err, ShouldBeNil)
			So(report.Topics, ShouldEqual, 2)
			So(report.Matched, ShouldEqual, 1)
			So(len(store.records), ShouldEqual, 1)
		})
	})

	Convey("Given no segmenter", t, func() {
		p := pipeline.New(&mockMatcher{}, &mockSummarizer{}, &mockCommenter{}, &mockStore{})
		_, err := p.ProcessTranscript(ctx, "m-4", "...")
		So(err, ShouldNotBeNil)
	})
}
