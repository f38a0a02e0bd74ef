package pexels

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"storyreel/internal/scenario"
)

type fakeAPI struct {
	mu       sync.Mutex
	queries  []string
	results  map[string][]Video
	failures map[string]int
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := r.URL.Query().Get("query")
	f.queries = append(f.queries, q)
	if r.Header.Get("Authorization") != "key" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if r.URL.Query().Get("orientation") != "portrait" || r.URL.Query().Get("per_page") != "50" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if f.failures[q] > 0 {
		f.failures[q]--
		w.WriteHeader(http.StatusTooManyRequests)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"videos": f.results[q]})
}

func newClient(t *testing.T, api *fakeAPI, slept *[]time.Duration) *Client {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)
	return NewClient(
		Config{APIKey: "key", BaseURL: server.URL, RetryWait: 10 * time.Second},
		WithSleeper(func(d time.Duration) {
			if slept != nil {
				*slept = append(*slept, d)
			}
		}),
	)
}

func video(id int64, duration float64, files ...VideoFile) Video {
	return Video{ID: id, Duration: duration, Files: files}
}

func TestBestFilePicksLargestMP4(t *testing.T) {
	v := video(1, 10,
		VideoFile{Link: "https://x/small.mp4", Width: 540, Height: 960},
		VideoFile{Link: "https://x/huge.mov", Width: 4000, Height: 8000},
		VideoFile{Link: "https://x/large.mp4", Width: 1080, Height: 1920},
	)
	link, ok := v.BestFile()
	if !ok || link != "https://x/large.mp4" {
		t.Fatalf("BestFile = %q, %v", link, ok)
	}
	if _, ok := video(2, 10, VideoFile{Link: "https://x/a.webm"}).BestFile(); ok {
		t.Fatal("expected no mp4")
	}
}

func TestCandidatesFilterDurationAndDeduplicate(t *testing.T) {
	api := &fakeAPI{results: map[string][]Video{
		"coffee": {
			video(1, 12, VideoFile{Link: "https://x/1.mp4", Width: 1080, Height: 1920}),
			video(2, 3, VideoFile{Link: "https://x/2.mp4", Width: 1080, Height: 1920}),
		},
		"morning": {
			video(1, 12, VideoFile{Link: "https://x/1.mp4", Width: 1080, Height: 1920}),
			video(3, 8, VideoFile{Link: "https://x/3.mp4", Width: 720, Height: 1280}),
		},
	}}
	client := newClient(t, api, nil)

	pool, err := client.Candidates(context.Background(), []string{"coffee", "morning"}, 5.5, nil)
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	want := scenario.Pool{{ID: "1", URL: "https://x/1.mp4"}, {ID: "3", URL: "https://x/3.mp4"}}
	if len(pool) != 2 || pool[0] != want[0] || pool[1] != want[1] {
		t.Fatalf("pool = %+v", pool)
	}
}

func TestCandidatesRetryMultiWordKeywordPerWord(t *testing.T) {
	api := &fakeAPI{results: map[string][]Video{
		"steam": {video(7, 9, VideoFile{Link: "https://x/7.mp4", Width: 1, Height: 1})},
	}}
	client := newClient(t, api, nil)

	pool, err := client.Candidates(context.Background(), []string{"hot steam cup"}, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(pool) != 1 || pool[0].ID != "7" {
		t.Fatalf("pool = %+v", pool)
	}
	want := []string{"hot steam cup", "hot", "steam"}
	if len(api.queries) != len(want) {
		t.Fatalf("queries = %v, want %v", api.queries, want)
	}
	for i := range want {
		if api.queries[i] != want[i] {
			t.Fatalf("queries = %v, want %v", api.queries, want)
		}
	}
}

func TestSearchRetriesWithIncrementingWait(t *testing.T) {
	api := &fakeAPI{
		results:  map[string][]Video{"sea": {video(1, 10)}},
		failures: map[string]int{"sea": 2},
	}
	var slept []time.Duration
	client := newClient(t, api, &slept)

	videos, err := client.Search(context.Background(), "sea")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(videos) != 1 {
		t.Fatalf("videos = %+v", videos)
	}
	if len(slept) != 2 || slept[0] != 10*time.Second || slept[1] != 20*time.Second {
		t.Fatalf("slept = %v", slept)
	}
}

func TestCandidatesFailWhenEverySearchFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()
	client := NewClient(Config{APIKey: "wrong", BaseURL: server.URL}, WithSleeper(func(time.Duration) {}))

	if _, err := client.Candidates(context.Background(), []string{"a", "b"}, 1, nil); err == nil {
		t.Fatal("expected error when all searches fail")
	}
}

func TestMinDuration(t *testing.T) {
	aligned := scenario.TextBlock{Words: []scenario.Word{{Word: "a", Start: 1, End: 4}}}
	if got := MinDuration(aligned, 5, 0.5); got != 3.5 {
		t.Fatalf("MinDuration(aligned) = %v", got)
	}
	if got := MinDuration(scenario.TextBlock{}, 5, 0.5); got != 5.5 {
		t.Fatalf("MinDuration(unaligned) = %v", got)
	}
}
