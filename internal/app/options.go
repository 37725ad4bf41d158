package service

import (
	"time"

	"github.com/okian/scribe/internal/adapters/repository"
	"github.com/okian/scribe/internal/config"
	"github.com/okian/scribe/internal/domain/pipeline"
	"github.com/okian/scribe/internal/domain/scoring"
	"github.com/okian/scribe/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued transcripts.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many delivery ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDBPath sets the SQLite file opened on Start.
func WithDBPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.dbPath = path
		}
	}
}

// WithStore uses an already opened record store instead of opening DBPath.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithTrackerDefaults sets the tracker REST root override and the token used
// when a delivery carries none.
func WithTrackerDefaults(baseURL, token string) Option {
	return func(s *Service) {
		s.trackerBaseURL = baseURL
		s.trackerToken = token
	}
}

// WithTrackerFactory replaces how per-job tracker clients are built.
func WithTrackerFactory(f TrackerFactory) Option {
	return func(s *Service) {
		if f != nil {
			s.newTracker = f
		}
	}
}

// WithLLMConfig configures the chat completions client.
func WithLLMConfig(baseURL, model, apiKey string, timeout time.Duration) Option {
	return func(s *Service) {
		s.llmBaseURL = baseURL
		s.llmModel = model
		s.llmAPIKey = apiKey
		s.llmTimeout = timeout
	}
}

// WithLanguageModel uses the given segmenter and summarizer instead of the
// chat completions client.
func WithLanguageModel(seg pipeline.Segmenter, sum pipeline.Summarizer) Option {
	return func(s *Service) {
		if seg != nil {
			s.segmenter = seg
		}
		if sum != nil {
			s.summarizer = sum
		}
	}
}

// WithBatchSize sets how many candidates share one scoring corpus.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithMaxResults caps the candidate pool per topic.
func WithMaxResults(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// WithBatchConcurrency caps parallel batch scoring.
func WithBatchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchConcurrency = n
		}
	}
}

// WithWeights sets the relevance signal weights.
func WithWeights(w scoring.Weights) Option {
	return func(s *Service) {
		s.weights = w
	}
}

// OptionsFromConfig maps loaded configuration onto service options.
func OptionsFromConfig(cfg *config.Config) []Option {
	return []Option{
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithDBPath(cfg.DBPath),
		WithTrackerDefaults(cfg.TrackerBaseURL, cfg.TrackerToken),
		WithLLMConfig(cfg.LLMBaseURL, cfg.LLMModel, cfg.LLMAPIKey, time.Duration(cfg.LLMTimeoutSeconds)*time.Second),
		WithBatchSize(cfg.BatchSize),
		WithMaxResults(cfg.MaxResults),
		WithBatchConcurrency(cfg.BatchConcurrency),
		WithWeights(scoring.Weights{
			Keyword:    cfg.KeywordWeight,
			TFIDF:      cfg.TFIDFWeight,
			Similarity: cfg.SimilarityWeight,
		}),
	}
}
