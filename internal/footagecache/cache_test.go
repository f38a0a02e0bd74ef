package footagecache

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"storyreel/internal/config"
	"storyreel/internal/logging"
)

type copyTrimmer struct {
	calls atomic.Int32
	fail  bool
}

func (c *copyTrimmer) Trim(_ context.Context, src, dest string, _, _ float64) error {
	c.calls.Add(1)
	if c.fail {
		return errors.New("ffmpeg exploded")
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dest, append([]byte("trimmed:"), data...), 0o644)
}

func newTestManager(t *testing.T, trimmer Trimmer, handler http.Handler) (*Manager, *httptest.Server) {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.CacheDir = t.TempDir()
	cfg.Footage.CacheMaxGiB = 1
	cfg.Footage.CacheMinFreeGiB = 0
	cfg.Footage.DownloadAttempts = 3
	cfg.Footage.DownloadRetrySeconds = 2
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	m := NewManager(&cfg, trimmer, logging.NewNop(), WithSleeper(func(time.Duration) {}))
	m.statfs = func(string) (uint64, uint64, error) { return 100, 50, nil }
	return m, server
}

func TestFetchDownloadsTrimsAndReuses(t *testing.T) {
	var hits atomic.Int32
	trimmer := &copyTrimmer{}
	m, server := newTestManager(t, trimmer, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("raw-clip"))
	}))

	req := Request{ID: "123", URL: server.URL + "/123.mp4", Offset: 0, Duration: 4.5}
	path, err := m.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if filepath.Base(path) != "trimmed_4.50_0.00_123.mp4" {
		t.Fatalf("path = %s", path)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "trimmed:raw-clip" {
		t.Fatalf("trimmed content = %q", data)
	}

	again, err := m.Fetch(context.Background(), req)
	if err != nil || again != path {
		t.Fatalf("second Fetch = %s, %v", again, err)
	}
	continued, err := m.Fetch(context.Background(), Request{ID: "123", URL: req.URL, Offset: 4.5, Duration: 2})
	if err != nil {
		t.Fatalf("Fetch with offset: %v", err)
	}
	if continued == path {
		t.Fatal("offset rendition must use its own cache key")
	}
	if hits.Load() != 1 {
		t.Fatalf("downloads = %d, want 1", hits.Load())
	}
	if trimmer.calls.Load() != 2 {
		t.Fatalf("trims = %d, want 2", trimmer.calls.Load())
	}
}

func TestDownloadRetriesThenSucceeds(t *testing.T) {
	var hits atomic.Int32
	m, server := newTestManager(t, &copyTrimmer{}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	var slept []time.Duration
	m.sleeper = func(d time.Duration) { slept = append(slept, d) }

	if _, err := m.Download(context.Background(), "9", server.URL); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if len(slept) != 2 || slept[0] != 2*time.Second {
		t.Fatalf("slept = %v", slept)
	}
}

func TestDownloadGivesUpAfterAttempts(t *testing.T) {
	m, server := newTestManager(t, &copyTrimmer{}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	if _, err := m.Download(context.Background(), "9", server.URL); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(m.DownloadPath("9")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("failed download left a file: %v", err)
	}
}

func TestFetchTrimFailureLeavesNoFile(t *testing.T) {
	m, server := newTestManager(t, &copyTrimmer{fail: true}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("raw"))
	}))
	req := Request{ID: "1", URL: server.URL, Duration: 1}
	if _, err := m.Fetch(context.Background(), req); !errors.Is(err, ErrTrim) {
		t.Fatalf("expected ErrTrim, got %v", err)
	}
	if _, err := os.Stat(m.TrimmedPath(req)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("trimmed file exists after failure: %v", err)
	}
}

func TestFetchValidatesRequest(t *testing.T) {
	m, _ := newTestManager(t, &copyTrimmer{}, http.NotFoundHandler())
	if _, err := m.Fetch(context.Background(), Request{ID: "1", Duration: 0}); err == nil {
		t.Fatal("expected error for zero duration")
	}
	if _, err := m.Fetch(context.Background(), Request{Duration: 1}); err == nil {
		t.Fatal("expected error for missing id")
	}
}

func TestConcurrentFetchSameClipDownloadsOnce(t *testing.T) {
	var hits atomic.Int32
	m, server := newTestManager(t, &copyTrimmer{}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("raw"))
	}))
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := m.Fetch(context.Background(), Request{ID: "7", URL: server.URL, Offset: float64(i), Duration: 1})
			if err != nil {
				t.Errorf("Fetch %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()
	if hits.Load() != 1 {
		t.Fatalf("downloads = %d, want 1", hits.Load())
	}
}

func writeAged(t *testing.T, path string, size int, age time.Duration) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
	when := time.Now().Add(-age)
	if err := os.Chtimes(path, when, when); err != nil {
		t.Fatal(err)
	}
}

func TestPruneRemovesOldestUntilUnderBudget(t *testing.T) {
	m, _ := newTestManager(t, &copyTrimmer{}, http.NotFoundHandler())
	m.maxBytes = 25
	oldest := filepath.Join(m.Root(), downloadsDir, "1.mp4")
	middle := filepath.Join(m.Root(), trimmedDir, "trimmed_1.00_0.00_1.mp4")
	newest := filepath.Join(m.Root(), trimmedDir, "trimmed_2.00_0.00_2.mp4")
	writeAged(t, oldest, 10, 3*time.Hour)
	writeAged(t, middle, 10, 2*time.Hour)
	writeAged(t, newest, 10, time.Hour)

	removed, err := m.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(oldest); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("oldest file should be pruned")
	}
	stats, err := m.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 2 || stats.Trimmed != 2 || stats.TotalBytes != 20 || stats.Files[0].Path != newest {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestPruneHonoursFreeSpaceAndSkipsActive(t *testing.T) {
	m, _ := newTestManager(t, &copyTrimmer{}, http.NotFoundHandler())
	m.minFreeBytes = 60

	active := filepath.Join(m.Root(), downloadsDir, "a.mp4")
	other := filepath.Join(m.Root(), downloadsDir, "b.mp4")
	writeAged(t, active, 30, 2*time.Hour)
	writeAged(t, other, 30, time.Hour)
	release := m.hold(active)
	defer release()

	m.statfs = func(string) (uint64, uint64, error) {
		if _, err := os.Stat(other); errors.Is(err, os.ErrNotExist) {
			return 100, 70, nil
		}
		return 100, 40, nil
	}
	if _, err := m.Prune(context.Background()); err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if _, err := os.Stat(active); err != nil {
		t.Fatal("active file must survive pruning")
	}
	if _, err := os.Stat(other); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("inactive file should be pruned to restore free space")
	}
}

func TestClearAndEmptyStats(t *testing.T) {
	m, _ := newTestManager(t, &copyTrimmer{}, http.NotFoundHandler())
	stats, err := m.Stats(context.Background())
	if err != nil || stats.Entries != 0 {
		t.Fatalf("empty stats = %+v, %v", stats, err)
	}
	writeAged(t, filepath.Join(m.Root(), trimmedDir, "x.mp4"), 5, time.Minute)
	n, err := m.Clear(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("Clear = %d, %v", n, err)
	}
}
