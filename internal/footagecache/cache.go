package footagecache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"storyreel/internal/config"
	"storyreel/internal/fileutil"
	"storyreel/internal/logging"
	"storyreel/internal/textutil"
)

const (
	downloadsDir = "downloads"
	trimmedDir   = "trimmed"
	gib          = int64(1024 * 1024 * 1024)
)

// ErrTrim marks a failure of the trimmer rather than of the download.
var ErrTrim = errors.New("footage trim failed")

// statfsFunc allows tests to stub filesystem stats.
type statfsFunc func(path string) (total uint64, free uint64, err error)

// Trimmer cuts duration seconds starting at offset out of src into dest,
// scaled and cropped to the output frame.
type Trimmer interface {
	Trim(ctx context.Context, src, dest string, offset, duration float64) error
}

// Request identifies one trimmed rendition.
type Request struct {
	ID       string
	URL      string
	Offset   float64
	Duration float64
}

// Manager handles downloading, trimming and pruning cached footage.
type Manager struct {
	root         string
	maxBytes     int64
	minFreeBytes uint64
	attempts     int
	retryDelay   time.Duration
	httpClient   *http.Client
	trimmer      Trimmer
	logger       *slog.Logger
	statfs       statfsFunc
	sleeper      func(time.Duration)

	mu     sync.Mutex
	keys   map[string]*sync.Mutex
	active map[string]int
}

// Option customizes the manager.
type Option func(*Manager)

// WithHTTPClient overrides the download client.
func WithHTTPClient(client *http.Client) Option {
	return func(m *Manager) {
		if client != nil {
			m.httpClient = client
		}
	}
}

// WithSleeper overrides how retry waits are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(m *Manager) {
		m.sleeper = sleeper
	}
}

// NewManager builds a cache manager rooted at the configured footage cache.
func NewManager(cfg *config.Config, trimmer Trimmer, logger *slog.Logger, opts ...Option) *Manager {
	attempts := cfg.Footage.DownloadAttempts
	if attempts <= 0 {
		attempts = 1
	}
	timeout := time.Duration(cfg.Footage.DownloadTimeout) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	m := &Manager{
		root:         cfg.FootageCacheDir(),
		maxBytes:     int64(cfg.Footage.CacheMaxGiB) * gib,
		minFreeBytes: uint64(cfg.Footage.CacheMinFreeGiB) * uint64(gib),
		attempts:     attempts,
		retryDelay:   time.Duration(cfg.Footage.DownloadRetrySeconds) * time.Second,
		httpClient:   &http.Client{Timeout: timeout},
		trimmer:      trimmer,
		statfs:       realStatfs,
		keys:         make(map[string]*sync.Mutex),
		active:       make(map[string]int),
	}
	m.SetLogger(logger)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetLogger refreshes the manager's logging destination.
func (m *Manager) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = logging.NewNop()
	}
	m.logger = logging.NewComponentLogger(logger, "footagecache")
}

// Root returns the cache directory.
func (m *Manager) Root() string {
	return m.root
}

// DownloadPath returns where the raw clip for id is stored.
func (m *Manager) DownloadPath(id string) string {
	return filepath.Join(m.root, downloadsDir, textutil.SanitizeToken(id)+".mp4")
}

// TrimmedPath returns where the rendition described by req is stored.
func (m *Manager) TrimmedPath(req Request) string {
	name := fmt.Sprintf("trimmed_%.2f_%.2f_%s.mp4", req.Duration, req.Offset, textutil.SanitizeToken(req.ID))
	return filepath.Join(m.root, trimmedDir, name)
}

// Fetch returns a trimmed rendition for req, downloading and trimming it
// when it is not cached yet.
func (m *Manager) Fetch(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.ID) == "" {
		return "", errors.New("footagecache: clip id required")
	}
	if req.Duration <= 0 {
		return "", fmt.Errorf("footagecache: clip %s: duration %.2f must be positive", req.ID, req.Duration)
	}
	if req.Offset < 0 {
		return "", fmt.Errorf("footagecache: clip %s: negative offset %.2f", req.ID, req.Offset)
	}

	trimmed := m.TrimmedPath(req)
	unlock := m.lockKey(trimmed)
	defer unlock()
	release := m.hold(trimmed)
	defer release()

	if fileutil.Exists(trimmed) {
		touch(trimmed)
		m.logger.DebugContext(ctx, "footage cache hit", logging.String("clip_id", req.ID), logging.String("path", trimmed))
		return trimmed, nil
	}

	rawRelease := m.hold(m.DownloadPath(req.ID))
	defer rawRelease()
	raw, err := m.Download(ctx, req.ID, req.URL)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return "", fmt.Errorf("footagecache: create trimmed dir: %w", err)
	}
	partial := strings.TrimSuffix(trimmed, ".mp4") + ".partial.mp4"
	if err := m.trimmer.Trim(ctx, raw, partial, req.Offset, req.Duration); err != nil {
		_ = os.Remove(partial)
		return "", fmt.Errorf("footagecache: %w: clip %s: %w", ErrTrim, req.ID, err)
	}
	if err := os.Rename(partial, trimmed); err != nil {
		_ = os.Remove(partial)
		return "", fmt.Errorf("footagecache: finalize trimmed clip %s: %w", req.ID, err)
	}
	m.logger.InfoContext(ctx, "trimmed footage clip",
		logging.String("clip_id", req.ID),
		logging.Seconds("offset", req.Offset),
		logging.Seconds("duration", req.Duration),
	)

	if err := m.prune(ctx); err != nil {
		logging.WarnWithContext(m.logger, "footage cache prune failed", "footage_cache_prune_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "free disk space or lower footage.cache_max_gib"),
		)
	}
	return trimmed, nil
}

// Download returns the raw clip for id, fetching url when it is not cached.
// Failed attempts are retried after a fixed delay.
func (m *Manager) Download(ctx context.Context, id, url string) (string, error) {
	dest := m.DownloadPath(id)
	unlock := m.lockKey(dest)
	defer unlock()

	if fileutil.Exists(dest) {
		touch(dest)
		return dest, nil
	}
	if strings.TrimSpace(url) == "" {
		return "", fmt.Errorf("footagecache: clip %s has no download url", id)
	}

	var lastErr error
	for attempt := 1; attempt <= m.attempts; attempt++ {
		lastErr = m.downloadOnce(ctx, url, dest)
		if lastErr == nil {
			m.logger.InfoContext(ctx, "downloaded footage clip",
				logging.String("clip_id", id),
				logging.Int("attempt", attempt),
			)
			return dest, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if attempt < m.attempts {
			m.logger.DebugContext(ctx, "footage download failed, retrying",
				logging.String("clip_id", id),
				logging.Int("attempt", attempt),
				logging.Error(lastErr),
			)
			if err := m.sleep(ctx, m.retryDelay); err != nil {
				return "", err
			}
		}
	}
	return "", fmt.Errorf("footagecache: download clip %s after %d attempts: %w", id, m.attempts, lastErr)
}

func (m *Manager) downloadOnce(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http %d", resp.StatusCode)
	}
	n, err := fileutil.StreamToFileAtomic(dest, resp.Body)
	if err != nil {
		return err
	}
	if n == 0 {
		_ = os.Remove(dest)
		return errors.New("empty response body")
	}
	return nil
}

func (m *Manager) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if m.sleeper != nil {
		m.sleeper(delay)
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

// lockKey serializes work on one cache path.
func (m *Manager) lockKey(path string) func() {
	m.mu.Lock()
	lock, ok := m.keys[path]
	if !ok {
		lock = &sync.Mutex{}
		m.keys[path] = lock
	}
	m.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}

// hold marks path as in use so pruning skips it.
func (m *Manager) hold(path string) func() {
	m.mu.Lock()
	m.active[path]++
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		if m.active[path]--; m.active[path] <= 0 {
			delete(m.active, path)
		}
		m.mu.Unlock()
	}
}

func (m *Manager) inUse(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active[path] > 0
}

func touch(path string) {
	now := time.Now()
	_ = os.Chtimes(path, now, now)
}

func realStatfs(path string) (uint64, uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	return total, free, nil
}
