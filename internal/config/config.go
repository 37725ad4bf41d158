// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and SCRIBE_ environment variables over the defaults.
// - Validation failures wrap ErrInvalidConfig; provider failures wrap ErrLoadConfig.
package config

import (
	"context"
	"fmt"
	"strings"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DBPath is the sqlite file holding update records.
	DBPath string `koanf:"db_path"`

	// QueueSize bounds the in-memory transcript job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of transcript workers. One keeps
	// transcripts strictly sequential.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the webhook delivery deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// TrackerBaseURL overrides the tracker REST root. When empty the
	// per-delivery tracker host is used.
	TrackerBaseURL string `koanf:"tracker_base_url"`

	// TrackerToken is the fallback bearer token for the tracker.
	TrackerToken string `koanf:"tracker_token"`

	// LLMBaseURL points at an OpenAI-compatible chat completions API.
	LLMBaseURL string `koanf:"llm_base_url"`

	// LLMModel names the chat model used for segmentation and summaries.
	LLMModel string `koanf:"llm_model"`

	// LLMAPIKey authenticates against the language model API.
	LLMAPIKey string `koanf:"llm_api_key"`

	// LLMTimeoutSeconds bounds a single language model request.
	LLMTimeoutSeconds int `koanf:"llm_timeout_seconds"`

	// BatchSize is the number of candidates scored per corpus.
	BatchSize int `koanf:"batch_size"`

	// MaxResults caps the candidate pool returned by the tracker search.
	MaxResults int `koanf:"max_results"`

	// BatchConcurrency caps how many batches are scored in parallel.
	BatchConcurrency int `koanf:"batch_concurrency"`

	// KeywordWeight, TFIDFWeight and SimilarityWeight combine the signals.
	KeywordWeight    float64 `koanf:"keyword_weight"`
	TFIDFWeight      float64 `koanf:"tfidf_weight"`
	SimilarityWeight float64 `koanf:"similarity_weight"`
}

// New creates a Config holding the defaults. The context is reserved for
// future sources and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		DBPath:            "scribe.db",
		QueueSize:         1_000,
		WorkerCount:       1,
		DedupeSize:        10_000,
		LLMBaseURL:        "https://api.openai.com/v1",
		LLMModel:          "gpt-4o-mini",
		LLMTimeoutSeconds: 60,
		BatchSize:         10,
		MaxResults:        50,
		BatchConcurrency:  1,
		KeywordWeight:     0.4,
		TFIDFWeight:       0.4,
		SimilarityWeight:  0.2,
	}
}

// Validate checks ranges and required values.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.DBPath) == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.DedupeSize <= 0:
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch_size must be positive", ErrInvalidConfig)
	case c.MaxResults <= 0:
		return fmt.Errorf("%w: max_results must be positive", ErrInvalidConfig)
	case c.BatchConcurrency <= 0:
		return fmt.Errorf("%w: batch_concurrency must be positive", ErrInvalidConfig)
	case c.LLMTimeoutSeconds <= 0:
		return fmt.Errorf("%w: llm_timeout_seconds must be positive", ErrInvalidConfig)
	case c.KeywordWeight < 0 || c.TFIDFWeight < 0 || c.SimilarityWeight < 0:
		return fmt.Errorf("%w: weights must not be negative", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
