package pexels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://api.pexels.com/videos/search"
	defaultPerPage     = 50
	defaultOrientation = "portrait"
	defaultAttempts    = 5
	defaultRetryWait   = 10 * time.Second
	maxRetryWait       = 60 * time.Second
	defaultHTTPTimeout = 30 * time.Second
)

// Config captures the settings for the Pexels API.
type Config struct {
	APIKey      string
	BaseURL     string
	PerPage     int
	Orientation string
	MaxAttempts int
	RetryWait   time.Duration
	Timeout     time.Duration
}

// Client queries the Pexels video search endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	sleeper    func(time.Duration)
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

// WithSleeper overrides how retry waits are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a search client.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = defaultPerPage
	}
	if cfg.Orientation == "" {
		cfg.Orientation = defaultOrientation
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultAttempts
	}
	if cfg.RetryWait < 0 {
		cfg.RetryWait = defaultRetryWait
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}
	client := &Client{cfg: cfg, httpClient: &http.Client{Timeout: cfg.Timeout}}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// VideoFile is one rendition of a stock video.
type VideoFile struct {
	Link     string `json:"link"`
	FileType string `json:"file_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Video is a single search result.
type Video struct {
	ID       int64       `json:"id"`
	Duration float64     `json:"duration"`
	URL      string      `json:"url"`
	Files    []VideoFile `json:"video_files"`
}

// BestFile returns the link of the largest-resolution .mp4 rendition.
func (v Video) BestFile() (string, bool) {
	var (
		best     string
		bestArea int
	)
	for _, f := range v.Files {
		if !strings.Contains(f.Link, ".mp4") {
			continue
		}
		if area := f.Width * f.Height; area > bestArea || best == "" {
			best, bestArea = f.Link, area
		}
	}
	return best, best != ""
}

type searchResponse struct {
	Videos     []Video `json:"videos"`
	TotalCount int     `json:"total_results"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("pexels search: http %d: %s", e.StatusCode, e.Body)
}

// Search runs one query and returns the videos on the first page.
func (c *Client) Search(ctx context.Context, query string) ([]Video, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("pexels search: query required")
	}
	if c.cfg.APIKey == "" {
		return nil, errors.New("pexels search: api key required")
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		videos, err := c.searchOnce(ctx, query)
		if err == nil {
			return videos, nil
		}
		lastErr = err
		if attempt == c.cfg.MaxAttempts || !retryable(ctx, err) {
			break
		}
		if err := c.sleep(ctx, c.retryWait(attempt)); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("pexels search %q: %w", query, lastErr)
}

func (c *Client) searchOnce(ctx context.Context, query string) ([]Video, error) {
	endpoint, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("pexels search: build url: %w", err)
	}
	q := endpoint.Query()
	q.Set("query", query)
	q.Set("per_page", strconv.Itoa(c.cfg.PerPage))
	q.Set("orientation", c.cfg.Orientation)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("pexels search: new request: %w", err)
	}
	req.Header.Set("Authorization", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pexels search: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("pexels search: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &httpStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("pexels search: decode response: %w", err)
	}
	return parsed.Videos, nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests ||
			statusErr.StatusCode == http.StatusRequestTimeout ||
			statusErr.StatusCode >= http.StatusInternalServerError
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// retryWait grows by RetryWait per attempt up to one minute.
func (c *Client) retryWait(attempt int) time.Duration {
	wait := c.cfg.RetryWait * time.Duration(attempt)
	if wait > maxRetryWait {
		return maxRetryWait
	}
	return wait
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
