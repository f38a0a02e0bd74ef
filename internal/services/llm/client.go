package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL        = "https://api.openai.com/v1/chat/completions"
	defaultHTTPTimeout    = 60 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryAttempts  = 5
)

// Config captures the runtime settings required to talk to the LLM.
// KeywordModel falls back to Model when empty.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	KeywordModel   string
	Temperature    float64
	TimeoutSeconds int
}

// Client wraps an OpenAI-compatible chat completion endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client

	attempts  int
	baseDelay time.Duration
	maxDelay  time.Duration
	sleeper   func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts sets how many requests one completion may issue.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.attempts = attempts
	}
}

// WithRetryBackoff sets the first retry delay and the cap it doubles towards.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = baseDelay
		c.maxDelay = maxDelay
	}
}

// WithSleeper replaces the timer used between attempts.
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs an LLM client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.KeywordModel = strings.TrimSpace(cfg.KeywordModel)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.KeywordModel == "" {
		cfg.KeywordModel = cfg.Model
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		attempts:   defaultRetryAttempts,
		baseDelay:  defaultRetryBaseDelay,
		maxDelay:   defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.attempts <= 0 {
		client.attempts = 1
	}
	return client
}

// Complete issues a plain-text chat completion against model. An empty
// model uses the configured script model.
func (c *Client) Complete(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	const op = "llm complete"
	systemPrompt = strings.TrimSpace(systemPrompt)
	userPrompt = strings.TrimSpace(userPrompt)
	switch {
	case systemPrompt == "":
		return "", fmt.Errorf("%s: system prompt required", op)
	case userPrompt == "":
		return "", fmt.Errorf("%s: user prompt required", op)
	case c.cfg.APIKey == "":
		return "", fmt.Errorf("%s: api key required", op)
	}
	if model = strings.TrimSpace(model); model == "" {
		model = c.cfg.Model
	}
	return c.call(ctx, op, chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: c.cfg.Temperature,
	})
}

// HealthCheck asks the keyword model for keywords of a fixed sentence and
// fails unless at least one comes back. It exercises the key, the endpoint
// and the model the search stage depends on.
func (c *Client) HealthCheck(ctx context.Context) error {
	keywords, err := c.Keywords(ctx, "Waves roll onto a sandy beach.", 1)
	if err != nil {
		return fmt.Errorf("llm health: %w", err)
	}
	if len(keywords) == 0 {
		return errors.New("llm health: no keywords returned")
	}
	return nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// statusError is a non-2xx reply from the endpoint.
type statusError struct {
	Code       int
	Body       string
	RetryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.Code, e.Body)
}

func (e *statusError) transient() bool {
	return e.Code == http.StatusRequestTimeout || e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

// emptyReplyError is a 2xx reply without any text to use.
type emptyReplyError struct {
	Op           string
	FinishReason string
	Refusal      string
	Snippet      string
}

func (e *emptyReplyError) Error() string {
	return fmt.Sprintf("%s: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.Op, e.FinishReason, e.Refusal, e.Snippet)
}

func (c *Client) call(ctx context.Context, op string, req chatRequest) (string, error) {
	encoded, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%s: encode body: %w", op, err)
	}
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		text, err := c.send(ctx, op, encoded)
		if err == nil {
			return text, nil
		}
		lastErr = err
		wait, retry := c.nextDelay(ctx, err, attempt)
		if !retry {
			return "", err
		}
		if err := c.sleep(ctx, wait); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("%s: failed after %d attempts: %w", op, c.attempts, lastErr)
}

// send performs one request and returns the first non-empty reply text.
func (c *Client) send(ctx context.Context, op string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request: http error (timeout=%s): %w", c.httpClient.Timeout, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", &statusError{
			Code:       resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("llm request: decode response: %w", err)
	}
	if decoded.Error != nil {
		return "", fmt.Errorf("llm request: api error: %s", strings.TrimSpace(decoded.Error.Message))
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("%s: empty choices", op)
	}
	empty := &emptyReplyError{Op: op, Snippet: summarizePayloadSnippet(string(raw))}
	for _, choice := range decoded.Choices {
		if text := strings.TrimSpace(choice.Message.Content); text != "" {
			return text, nil
		}
		if empty.FinishReason == "" {
			empty.FinishReason = strings.TrimSpace(choice.FinishReason)
		}
		if empty.Refusal == "" {
			empty.Refusal = strings.TrimSpace(choice.Message.Refusal)
		}
	}
	return "", empty
}

// nextDelay classifies err. Rate limits, server errors, timeouts and empty
// replies are retried; everything else fails the completion.
func (c *Client) nextDelay(ctx context.Context, err error, attempt int) (time.Duration, bool) {
	if attempt >= c.attempts || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	var empty *emptyReplyError
	if errors.As(err, &empty) {
		return c.backoff(attempt), true
	}
	var status *statusError
	if errors.As(err, &status) {
		if !status.transient() {
			return 0, false
		}
		if status.RetryAfter > 0 {
			if c.maxDelay > 0 && status.RetryAfter > c.maxDelay {
				return c.maxDelay, true
			}
			return status.RetryAfter, true
		}
		return c.backoff(attempt), true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.backoff(attempt), true
	}
	return 0, false
}

// backoff doubles baseDelay per attempt up to maxDelay.
func (c *Client) backoff(attempt int) time.Duration {
	if c.baseDelay <= 0 {
		return 0
	}
	delay := c.baseDelay
	for i := 1; i < attempt && delay < c.maxDelay; i++ {
		delay *= 2
	}
	if c.maxDelay > 0 && delay > c.maxDelay {
		delay = c.maxDelay
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		return max(time.Until(when), 0)
	}
	return 0
}
