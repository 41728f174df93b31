// ABOUTME: HTTP client for the Gemini generateContent endpoint with bounded retry.
// ABOUTME: Retries 429, 5xx, and transport failures with exponential backoff and Retry-After.

package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	DefaultBaseURL     = "https://generativelanguage.googleapis.com"
	DefaultModel       = "gemini-2.5-flash"
	DefaultMaxAttempts = 3
	DefaultBackoff     = time.Second

	defaultContextLimit = 50
	defaultBodyPrefix   = 200
)

// Client talks to the structuring service. The zero API key puts it in
// offline mode: every call synthesizes locally.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	maxAttempts int
	backoff     time.Duration

	contextLimit int
	bodyPrefix   int

	http  *http.Client
	log   *log.Logger
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithModel(m string) Option {
	return func(c *Client) { c.model = m }
}

// WithRetry sets the attempt budget and the backoff seed.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.maxAttempts = attempts
		}
		c.backoff = backoff
	}
}

// WithSearchContext bounds how many records, and how much of each body, a search sends.
func WithSearchContext(limit, bodyPrefix int) Option {
	return func(c *Client) {
		if limit > 0 {
			c.contextLimit = limit
		}
		if bodyPrefix > 0 {
			c.bodyPrefix = bodyPrefix
		}
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithSleep replaces the backoff wait. It must return ctx.Err() when ctx ends.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = sleep }
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:       apiKey,
		baseURL:      DefaultBaseURL,
		model:        DefaultModel,
		maxAttempts:  DefaultMaxAttempts,
		backoff:      DefaultBackoff,
		contextLimit: defaultContextLimit,
		bodyPrefix:   defaultBodyPrefix,
		http:         &http.Client{Timeout: 30 * time.Second},
		log:          log.Default(),
		now:          time.Now,
		sleep:        sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether a credential is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string `json:"response_mime_type"`
}

type generateRequest struct {
	SystemInstruction *content         `json:"system_instruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (c *Client) endpoint() string {
	q := url.Values{}
	q.Set("key", c.apiKey)
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent?%s", c.baseURL, url.PathEscape(c.model), q.Encode())
}

// generate posts req and returns the first candidate's text.
func (c *Client) generate(ctx context.Context, req generateRequest) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		text, wait, err := c.attempt(ctx, body, attempt)
		if err == nil {
			return text, nil
		}
		if !IsTransient(err) {
			return "", err
		}
		lastErr = err

		if attempt == c.maxAttempts-1 {
			break
		}
		c.log.Warn("inference request failed, retrying", "attempt", attempt+1, "of", c.maxAttempts, "wait", wait, "err", err)
		if err := c.sleep(ctx, wait); err != nil {
			return "", fmt.Errorf("retry aborted: %w", err)
		}
	}
	return "", fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, c.maxAttempts, lastErr)
}

// attempt performs one request. On a transient failure it also returns how
// long to wait before the next attempt.
func (c *Client) attempt(ctx context.Context, body []byte, attempt int) (string, time.Duration, error) {
	backoff := c.backoff * time.Duration(1<<attempt)

	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", 0, ctx.Err()
		}
		return "", backoff, &TransientError{Err: err}
	}
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return "", backoff, &TransientError{Err: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		if ra, ok := retryAfter(resp.Header.Get("Retry-After")); ok {
			backoff = ra
		}
		return "", backoff, &TransientError{Status: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", 0, &PermanentError{Status: resp.StatusCode, Body: truncate(string(respBody), 500)}
	}

	var gr generateResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return "", 0, &PermanentError{Err: fmt.Errorf("decode envelope: %w", err)}
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", 0, ErrEmptyResponse
	}
	text := gr.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", 0, ErrEmptyResponse
	}
	return text, 0, nil
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(v string) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
