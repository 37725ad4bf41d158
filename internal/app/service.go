// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/scribe/internal/adapters/llm"
	"github.com/okian/scribe/internal/adapters/mq/queue"
	"github.com/okian/scribe/internal/adapters/mq/worker"
	"github.com/okian/scribe/internal/adapters/repository"
	"github.com/okian/scribe/internal/adapters/tracker"
	"github.com/okian/scribe/internal/domain/dedupe"
	"github.com/okian/scribe/internal/domain/matching"
	"github.com/okian/scribe/internal/domain/model"
	"github.com/okian/scribe/internal/domain/pipeline"
	"github.com/okian/scribe/internal/domain/scoring"
	"github.com/okian/scribe/pkg/logger"
	"github.com/okian/scribe/pkg/metrics"
)

// ErrNotStarted is returned by operations that need a started service.
var ErrNotStarted = errors.New("service not started")

// Tracker is everything the service needs from an issue tracker.
type Tracker interface {
	matching.Searcher
	pipeline.Commenter
	pipeline.IssueReader
	Configured() bool
}

// TrackerFactory builds a tracker client for one delivery.
type TrackerFactory func(host, token string) Tracker

// Service wires the record store, the transcript queue and the worker pool,
// and builds a fresh matcher and pipeline for every transcript job.
type Service struct {
	mu sync.RWMutex

	store      repository.Store
	ownsStore  bool
	deduper    dedupe.Deduper
	queue      *queue.InMemoryQueue
	pool       *worker.Pool
	scorer     *scoring.BatchScorer
	segmenter  pipeline.Segmenter
	summarizer pipeline.Summarizer
	newTracker TrackerFactory

	workerCount      int
	queueSize        int
	dedupeSize       int
	dbPath           string
	trackerBaseURL   string
	trackerToken     string
	llmBaseURL       string
	llmModel         string
	llmAPIKey        string
	llmTimeout       time.Duration
	batchSize        int
	maxResults       int
	batchConcurrency int
	weights          scoring.Weights

	started bool
	logger  logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:      1,
		queueSize:        1_000,
		dedupeSize:       10_000,
		dbPath:           "scribe.db",
		batchSize:        matching.DefaultBatchSize,
		maxResults:       matching.DefaultMaxResults,
		batchConcurrency: 1,
		weights:          scoring.DefaultWeights(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.newTracker == nil {
		s.newTracker = s.defaultTracker
	}
	s.scorer = scoring.NewBatchScorer(scoring.WithWeights(s.weights))
	return s
}

func (s *Service) defaultTracker(host, token string) Tracker {
	if token == "" {
		token = s.trackerToken
	}
	if s.trackerBaseURL != "" {
		return tracker.New(tracker.WithBaseURL(s.trackerBaseURL), tracker.WithToken(token))
	}
	c := tracker.New()
	c.SetConfig(host, token)
	return c
}

// Start opens the record store and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting scribe service...")

	if err := s.initComponents(ctx); err != nil {
		return err
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "scribe service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("batchSize", s.batchSize),
	)
	return nil
}

// Open prepares the store and the language model without starting the
// worker pool. Used by one-shot commands.
func (s *Service) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s.initComponents(ctx)
}

// initComponents must be called with s.mu held.
func (s *Service) initComponents(ctx context.Context) error {
	if s.store == nil {
		store, err := repository.Open(ctx, s.dbPath)
		if err != nil {
			return fmt.Errorf("open record store: %w", err)
		}
		s.store = store
		s.ownsStore = true
	}
	if s.segmenter == nil || s.summarizer == nil {
		client := llm.New(
			llm.WithBaseURL(s.llmBaseURL),
			llm.WithModel(s.llmModel),
			llm.WithAPIKey(s.llmAPIKey),
			llm.WithTimeout(s.llmTimeout),
		)
		if s.segmenter == nil {
			s.segmenter = client
		}
		if s.summarizer == nil {
			s.summarizer = client
		}
	}
	return nil
}

// Stop drains the queue, stops the workers and closes the store.
// Workers read the store under s.mu, so the pool drains without the lock held.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	pool := s.pool
	s.pool = nil
	s.mu.Unlock()

	if pool != nil {
		_ = pool.Shutdown(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil && s.ownsStore {
		if err := s.store.Close(); err != nil && s.logger != nil {
			s.logger.Error(ctx, "error closing record store", logger.Error(err))
		}
		s.store = nil
	}
	if s.started {
		s.logger.Info(ctx, "scribe service stopped")
	}
	s.started = false
}

// SeenAndRecord reports whether a delivery id was seen before and records it.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	return s.deduper.SeenAndRecord(ctx, id)
}

// Unrecord forgets a delivery id.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the number of remembered delivery ids.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// EnqueueTranscript submits a transcript job. Returns false on backpressure.
func (s *Service) EnqueueTranscript(ctx context.Context, job model.TranscriptJob) bool {
	s.mu.RLock()
	q := s.queue
	s.mu.RUnlock()
	if q == nil {
		return false
	}
	s.logger.Debug(ctx, "enqueueing transcript",
		logger.String("jobID", job.JobID),
		logger.String("meetingID", job.MeetingID),
	)
	return q.Enqueue(ctx, job)
}

// ProcessJob runs one transcript through the pipeline with the job's tracker.
func (s *Service) ProcessJob(ctx context.Context, job model.TranscriptJob) error {
	report, err := s.processJob(ctx, job)
	if err != nil {
		// a re-delivery of the same webhook must be processed again
		s.forget(ctx, job.JobID)
		return err
	}
	s.logger.Info(ctx, "transcript job done",
		logger.String("jobID", job.JobID),
		logger.String("meetingID", job.MeetingID),
		logger.Int("topics", report.Topics),
		logger.Int("persisted", report.Persisted),
	)
	return nil
}

func (s *Service) processJob(ctx context.Context, job model.TranscriptJob) (pipeline.Report, error) {
	p, err := s.Pipeline(job.TrackerHost, job.TrackerToken)
	if err != nil {
		return pipeline.Report{}, err
	}
	return p.ProcessTranscript(ctx, job.MeetingID, job.Transcript)
}

func (s *Service) forget(ctx context.Context, id string) {
	s.mu.RLock()
	d := s.deduper
	s.mu.RUnlock()
	if d != nil && id != "" {
		d.Unrecord(ctx, id)
	}
}

// Matcher builds a matcher that searches the given tracker.
func (s *Service) Matcher(t Tracker) *matching.Matcher {
	retriever := matching.NewRetriever(t, matching.WithMaxResults(s.maxResults))
	return matching.NewMatcher(retriever, s.scorer,
		matching.WithBatchSize(s.batchSize),
		matching.WithBatchConcurrency(s.batchConcurrency),
	)
}

// Tracker builds a configured tracker client for host and token.
func (s *Service) Tracker(host, token string) (Tracker, error) {
	t := s.newTracker(host, token)
	if !t.Configured() {
		return nil, fmt.Errorf("tracker host %q: %w", host, tracker.ErrNotConfigured)
	}
	return t, nil
}

// Pipeline builds a pipeline bound to one tracker site.
func (s *Service) Pipeline(host, token string) (*pipeline.Pipeline, error) {
	s.mu.RLock()
	store, seg, sum := s.store, s.segmenter, s.summarizer
	s.mu.RUnlock()
	if store == nil {
		return nil, ErrNotStarted
	}

	t, err := s.Tracker(host, token)
	if err != nil {
		return nil, err
	}
	return pipeline.New(s.Matcher(t), sum, t, store,
		pipeline.WithSegmenter(seg),
		pipeline.WithIssueReader(t),
	), nil
}

// GetRecord returns one stored update record.
func (s *Service) GetRecord(ctx context.Context, id string) (model.UpdateRecord, error) {
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()
	if store == nil {
		return model.UpdateRecord{}, ErrNotStarted
	}
	return store.GetRecord(ctx, id)
}

// ListByMeeting returns the stored records of one meeting.
func (s *Service) ListByMeeting(ctx context.Context, meetingID string) ([]model.UpdateRecord, error) {
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()
	if store == nil {
		return nil, ErrNotStarted
	}
	return store.ListByMeeting(ctx, meetingID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":          s.started,
		"workerCount":      s.workerCount,
		"queueSize":        s.queueSize,
		"dedupeSize":       s.dedupeSize,
		"batchSize":        s.batchSize,
		"maxResults":       s.maxResults,
		"batchConcurrency": s.batchConcurrency,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["deliveriesSeen"] = s.deduper.Size()
		stats["workers"] = s.pool.Stats()
		if n, err := s.store.Count(ctx); err == nil {
			stats["records"] = n
		}
		metrics.UpdateQueueSize(queueLen)
	}
	return stats
}
