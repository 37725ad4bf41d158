// Package llm talks to an OpenAI-compatible chat completions API to split
// transcripts into topics and to describe what a topic adds to a ticket.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/scribe/internal/domain/model"
	"github.com/okian/scribe/pkg/logger"
	"github.com/okian/scribe/pkg/metrics"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 60 * time.Second
	endpointPath   = "/chat/completions"
	errBodyLimit   = 4 << 10
)

// Client is a chat completions client. It is safe for concurrent use.
type Client struct {
	hc      *http.Client
	log     logger.Logger
	baseURL string
	model   string
	apiKey  string
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		hc:      &http.Client{Timeout: defaultTimeout},
		log:     logger.Get().Named("llm"),
		baseURL: defaultBaseURL,
		model:   defaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// complete sends one system and one user message and returns the content of
// the first choice, requesting a JSON object response.
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode: %w", ErrRequest, err)
	}

	url := strings.TrimRight(c.baseURL, "/") + endpointPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %w", ErrRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", ErrRateLimited
	}
	if resp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		return "", fmt.Errorf("%w: status %d: %s", ErrRequest, resp.StatusCode, strings.TrimSpace(string(slurp)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode: %w", ErrInvalidResponse, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrInvalidResponse)
	}
	return out.Choices[0].Message.Content, nil
}

type segmentPayload struct {
	Data *[]model.Topic `json:"data"`
}

// Segment splits a transcript into topics. Malformed output is an error so
// the caller can fall back to a single topic.
func (c *Client) Segment(ctx context.Context, transcript string) ([]model.Topic, error) {
	content, err := c.complete(ctx, segmentSystemPrompt, segmentUserPrompt+transcript)
	if err != nil {
		metrics.RecordErrorByComponent("llm", "segment")
		return nil, err
	}

	var p segmentPayload
	if err := json.Unmarshal([]byte(content), &p); err != nil {
		return nil, fmt.Errorf("%w: segments: %w", ErrInvalidResponse, err)
	}
	if p.Data == nil {
		return nil, fmt.Errorf("%w: segments: missing data array", ErrInvalidResponse)
	}

	topics := make([]model.Topic, 0, len(*p.Data))
	for _, t := range *p.Data {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		if t.WordCount <= 0 {
			t.WordCount = len(strings.Fields(t.Text))
		}
		if t.Keywords == nil {
			t.Keywords = []string{}
		}
		topics = append(topics, t)
	}
	c.log.Info(ctx, "transcript segmented", logger.Int("topics", len(topics)))
	return topics, nil
}

type summaryPayload struct {
	Summary  *string `json:"summary"`
	OneLiner *string `json:"oneLiner"`
}

// Summarize describes what the topic adds to the item's history. Null or
// blank fields mean there is nothing to report.
func (c *Client) Summarize(ctx context.Context, topic model.Topic, item model.Candidate) (model.Summary, error) {
	content, err := c.complete(ctx, summarizeSystemPrompt, summarizeUserPrompt+SummaryContext(topic, item))
	if err != nil {
		metrics.RecordErrorByComponent("llm", "summarize")
		return model.NoUpdateSummary(), err
	}

	var p summaryPayload
	if err := json.Unmarshal([]byte(content), &p); err != nil {
		return model.NoUpdateSummary(), fmt.Errorf("%w: summary: %w", ErrInvalidResponse, err)
	}
	if p.Summary == nil || p.OneLiner == nil {
		return model.NoUpdateSummary(), nil
	}
	return model.NewUpdate(strings.TrimSpace(*p.Summary), strings.TrimSpace(*p.OneLiner)), nil
}

// SummaryContext renders the ticket history and the new discussion.
func SummaryContext(topic model.Topic, item model.Candidate) string {
	var b strings.Builder
	b.WriteString("Ticket Summary: ")
	b.WriteString(item.Summary)
	b.WriteString("\nOriginal Description: ")
	b.WriteString(item.Description)
	b.WriteString("\nPrevious Updates:\n")
	b.WriteString(strings.Join(item.Comments, "\n"))
	b.WriteString("\nNew Discussion: ")
	b.WriteString(topic.Text)
	return b.String()
}
