// Package tracker is a small client for the Jira Cloud REST API (v3). It
// searches issues with JQL, reads issue history and posts comments.
package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/okian/scribe/internal/domain/model"
	"github.com/okian/scribe/pkg/logger"
	"github.com/okian/scribe/pkg/metrics"
)

const (
	apiPath        = "/rest/api/3"
	defaultTimeout = 30 * time.Second
	errBodyLimit   = 4 << 10
)

// DefaultFields are the issue fields needed to score and summarize an item.
var DefaultFields = []string{"summary", "description", "comment"}

// Issue is a tracked work item with its text fields rendered to plain text.
type Issue struct {
	Key         string
	Summary     string
	Description string
	Comments    []string
}

// Candidate converts the issue to the matching domain type.
func (i Issue) Candidate() model.Candidate {
	return model.Candidate{
		ID:          i.Key,
		Summary:     i.Summary,
		Description: i.Description,
		Comments:    i.Comments,
	}
}

// Client talks to one tracker site. It is unusable until a base URL and a
// token are set, either through options or SetConfig.
type Client struct {
	hc  *http.Client
	log logger.Logger

	mu      sync.RWMutex
	baseURL string
	token   string
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		hc:  &http.Client{Timeout: defaultTimeout},
		log: logger.Get().Named("tracker"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetConfig points the client at a site host (e.g. "acme.atlassian.net")
// and sets its bearer token.
func (c *Client) SetConfig(host, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = BaseURL(host)
	c.token = token
}

// Configured reports whether the client can make requests.
func (c *Client) Configured() bool {
	_, _, ok := c.config()
	return ok
}

// BaseURL derives the REST root for a host. Hosts without a scheme get https.
func BaseURL(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	host = trimSlash(host)
	if strings.HasSuffix(host, apiPath) {
		return host
	}
	return host + apiPath
}

func trimSlash(s string) string { return strings.TrimRight(strings.TrimSpace(s), "/") }

func (c *Client) config() (string, string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL, c.token, c.baseURL != "" && c.token != ""
}

type searchRequest struct {
	JQL        string   `json:"jql"`
	MaxResults int      `json:"maxResults"`
	Fields     []string `json:"fields"`
}

type issuePayload struct {
	Key    string `json:"key"`
	Fields struct {
		Summary     string          `json:"summary"`
		Description json.RawMessage `json:"description"`
		Comment     struct {
			Comments []struct {
				Body json.RawMessage `json:"body"`
			} `json:"comments"`
		} `json:"comment"`
	} `json:"fields"`
}

func (p issuePayload) issue() Issue {
	out := Issue{
		Key:         p.Key,
		Summary:     p.Fields.Summary,
		Description: RenderField(p.Fields.Description),
		Comments:    make([]string, 0, len(p.Fields.Comment.Comments)),
	}
	for _, cm := range p.Fields.Comment.Comments {
		if text := RenderField(cm.Body); text != "" {
			out.Comments = append(out.Comments, text)
		}
	}
	return out
}

type searchResponse struct {
	Issues []issuePayload `json:"issues"`
}

// Search runs a JQL query and returns at most maxResults issues in the
// order the tracker ranked them.
func (c *Client) Search(ctx context.Context, jql string, maxResults int, fields []string) ([]Issue, error) {
	if len(fields) == 0 {
		fields = DefaultFields
	}
	var resp searchResponse
	req := searchRequest{JQL: jql, MaxResults: maxResults, Fields: fields}
	if err := c.do(ctx, http.MethodPost, "/search/jql", req, &resp); err != nil {
		return nil, err
	}
	issues := make([]Issue, 0, len(resp.Issues))
	for _, p := range resp.Issues {
		issues = append(issues, p.issue())
	}
	c.log.Debug(ctx, "tracker search", logger.String("jql", jql), logger.Int("issues", len(issues)))
	return issues, nil
}

// SearchCandidates runs a JQL query and returns the issues as candidates.
func (c *Client) SearchCandidates(ctx context.Context, query string, maxResults int) ([]model.Candidate, error) {
	issues, err := c.Search(ctx, query, maxResults, DefaultFields)
	if err != nil {
		return nil, err
	}
	out := make([]model.Candidate, len(issues))
	for i, is := range issues {
		out[i] = is.Candidate()
	}
	return out, nil
}

// GetIssue loads one issue with the given fields.
func (c *Client) GetIssue(ctx context.Context, id string, fields []string) (Issue, error) {
	if len(fields) == 0 {
		fields = DefaultFields
	}
	path := "/issue/" + url.PathEscape(id) + "?fields=" + url.QueryEscape(strings.Join(fields, ","))
	var p issuePayload
	if err := c.do(ctx, http.MethodGet, path, nil, &p); err != nil {
		return Issue{}, err
	}
	return p.issue(), nil
}

// GetCandidate loads the full history of an item.
func (c *Client) GetCandidate(ctx context.Context, id string) (model.Candidate, error) {
	is, err := c.GetIssue(ctx, id, DefaultFields)
	if err != nil {
		return model.Candidate{}, err
	}
	return is.Candidate(), nil
}

// AddComment posts body as a single-paragraph comment on the issue.
func (c *Client) AddComment(ctx context.Context, id, body string) error {
	payload := struct {
		Body adfNode `json:"body"`
	}{Body: paragraphDoc(body)}
	return c.do(ctx, http.MethodPost, "/issue/"+url.PathEscape(id)+"/comment", payload, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	base, token, ok := c.config()
	if !ok {
		return ErrNotConfigured
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: encode: %w", ErrRequest, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, base+path, body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequest, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.hc.Do(req)
	if err != nil {
		metrics.RecordErrorByComponent("tracker", "transport")
		return fmt.Errorf("%w: %s %s: %w", ErrRequest, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		metrics.RecordErrorByComponent("tracker", "status")
		return fmt.Errorf("%w: %s %s: status %d: %s", ErrRequest, method, path, resp.StatusCode, strings.TrimSpace(string(slurp)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}
