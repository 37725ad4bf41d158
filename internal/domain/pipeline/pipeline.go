// Package pipeline turns matched topics into tracker updates and stored records.
//
// Topics are handled one at a time, in segmentation order. For each topic the
// pipeline matches a tracked item, asks the summarizer what changed, posts a
// comment when there is something to report and stores an UpdateRecord. A
// failed store aborts the run; records already stored for earlier topics stay.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/scribe/internal/domain/model"
	"github.com/okian/scribe/pkg/logger"
	"github.com/okian/scribe/pkg/metrics"
)

// Matcher picks the tracked item a topic updates.
type Matcher interface {
	Match(ctx context.Context, topic model.Topic) model.MatchResult
}

// Segmenter splits a raw transcript into topics.
type Segmenter interface {
	Segment(ctx context.Context, transcript string) ([]model.Topic, error)
}

// Summarizer describes what a topic adds to an item's history.
type Summarizer interface {
	Summarize(ctx context.Context, topic model.Topic, item model.Candidate) (model.Summary, error)
}

// Commenter posts a comment on a tracked item.
type Commenter interface {
	AddComment(ctx context.Context, itemID, body string) error
}

// IssueReader loads the full history of a tracked item.
type IssueReader interface {
	GetCandidate(ctx context.Context, itemID string) (model.Candidate, error)
}

// RecordStore persists update records.
type RecordStore interface {
	InsertRecord(ctx context.Context, rec model.UpdateRecord) (model.UpdateRecord, error)
}

// Report summarizes one transcript run.
type Report struct {
	MeetingID string
	Topics    int
	Matched   int
	Commented int
	Persisted int
	RecordIDs []string
}

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithSegmenter enables ProcessTranscript.
func WithSegmenter(s Segmenter) Option {
	return func(p *Pipeline) { p.segmenter = s }
}

// WithIssueReader refreshes the matched item before summarizing.
// Without it the fields returned by the search are used.
func WithIssueReader(r IssueReader) Option {
	return func(p *Pipeline) { p.reader = r }
}

// Pipeline processes topics against a tracker.
type Pipeline struct {
	matcher    Matcher
	summarizer Summarizer
	commenter  Commenter
	store      RecordStore
	segmenter  Segmenter
	reader     IssueReader
	logger     logger.Logger
}

// New creates a pipeline.
func New(matcher Matcher, summarizer Summarizer, commenter Commenter, store RecordStore, opts ...Option) *Pipeline {
	p := &Pipeline{
		matcher:    matcher,
		summarizer: summarizer,
		commenter:  commenter,
		store:      store,
		logger:     logger.Get().Named("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessTranscript segments transcript and processes the resulting topics.
// Unusable segmentation output falls back to one topic covering the whole
// transcript.
func (p *Pipeline) ProcessTranscript(ctx context.Context, meetingID, transcript string) (Report, error) {
	if p.segmenter == nil {
		return Report{MeetingID: meetingID}, errors.New("pipeline has no segmenter")
	}
	topics, err := p.segmenter.Segment(ctx, transcript)
	if err != nil {
		metrics.RecordSegmentationFallback()
		p.logger.Warn(ctx, "segmentation failed; using whole transcript as one topic",
			logger.String("meetingID", meetingID),
			logger.Error(err),
		)
		topics = []model.Topic{model.FallbackTopic(transcript)}
	}
	p.logger.Info(ctx, "segmented transcript", logger.String("meetingID", meetingID), logger.Int("topics", len(topics)))

	report, err := p.ProcessTopics(ctx, meetingID, topics)
	if err == nil {
		metrics.RecordTranscriptProcessed()
	}
	return report, err
}

// ProcessTopics runs every topic through match, summarize, comment and store.
func (p *Pipeline) ProcessTopics(ctx context.Context, meetingID string, topics []model.Topic) (Report, error) {
	report := Report{MeetingID: meetingID, RecordIDs: []string{}}
	for _, topic := range topics {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("transcript %s interrupted: %w", meetingID, err)
		}
		report.Topics++
		metrics.RecordTopicProcessed()

		rec, commented, ok, err := p.processTopic(ctx, meetingID, topic)
		if err != nil {
			return report, err
		}
		if !ok {
			continue
		}
		report.Matched++
		if commented {
			report.Commented++
		}
		report.Persisted++
		report.RecordIDs = append(report.RecordIDs, rec.ID)
	}
	p.logger.Info(ctx, "finished processing transcript",
		logger.String("meetingID", meetingID),
		logger.Int("topics", report.Topics),
		logger.Int("matched", report.Matched),
		logger.Int("commented", report.Commented),
	)
	return report, nil
}

// processTopic handles one topic. ok is false when nothing matched.
func (p *Pipeline) processTopic(ctx context.Context, meetingID string, topic model.Topic) (rec model.UpdateRecord, commented, ok bool, err error) {
	p.logger.Info(ctx, "processing topic", logger.String("topic", topic.Label))

	match := p.matcher.Match(ctx, topic)
	if !match.Found {
		metrics.RecordTopicUnmatched()
		return model.UpdateRecord{}, false, false, nil
	}
	metrics.RecordTopicMatched()
	itemID := match.Best.ID

	item := p.loadItem(ctx, match.Best)
	summary := p.summarize(ctx, topic, item)
	links := ExtractResourceLinks(topic.Text)
	p.logger.Debug(ctx, "extracted resource links", logger.Int("count", len(links)))

	if summary.IsUpdate() {
		body := ComposeComment(summary.OneLiner, summary.Detail, links)
		if cerr := p.commenter.AddComment(ctx, itemID, body); cerr != nil {
			metrics.RecordErrorByComponent("pipeline", "comment_error")
			p.logger.Error(ctx, "failed to post comment",
				logger.String("itemID", itemID),
				logger.Error(fmt.Errorf("%w: %w", ErrComment, cerr)),
			)
		} else {
			commented = true
			metrics.RecordCommentPosted()
			p.logger.Info(ctx, "posted update comment", logger.String("itemID", itemID))
		}
	} else {
		metrics.RecordSummarySkipped()
		p.logger.Info(ctx, "nothing new to report; no comment posted", logger.String("itemID", itemID))
	}

	rec = model.UpdateRecord{
		MeetingID:     meetingID,
		ItemID:        &itemID,
		OriginalTopic: topic,
		ResourceLinks: links,
	}
	if summary.IsUpdate() {
		detail, oneLiner := summary.Detail, summary.OneLiner
		rec.Summary = &detail
		rec.OneLiner = &oneLiner
	}

	stored, serr := p.store.InsertRecord(ctx, rec)
	if serr != nil {
		metrics.RecordPersistenceError()
		metrics.RecordErrorByComponent("pipeline", "persistence_error")
		return model.UpdateRecord{}, commented, true, fmt.Errorf("%w: topic %q: %w", ErrPersist, topic.Label, serr)
	}
	metrics.RecordRecordPersisted()
	p.logger.Info(ctx, "stored update record", logger.String("recordID", stored.ID), logger.String("itemID", itemID))
	return stored, commented, true, nil
}

func (p *Pipeline) loadItem(ctx context.Context, best model.ScoredCandidate) model.Candidate {
	if p.reader == nil {
		return best.Source
	}
	item, err := p.reader.GetCandidate(ctx, best.ID)
	if err != nil {
		p.logger.Warn(ctx, "could not refresh item; using search fields",
			logger.String("itemID", best.ID),
			logger.Error(err),
		)
		return best.Source
	}
	return item
}

// summarize maps every summarizer failure to NoUpdate.
func (p *Pipeline) summarize(ctx context.Context, topic model.Topic, item model.Candidate) model.Summary {
	s, err := p.summarizer.Summarize(ctx, topic, item)
	if err != nil {
		metrics.RecordSummarizationError()
		metrics.RecordErrorByComponent("pipeline", "summarization_error")
		p.logger.Error(ctx, "summarization failed; skipping comment",
			logger.String("itemID", item.ID),
			logger.Error(err),
		)
		return model.NoUpdateSummary()
	}
	return s
}
