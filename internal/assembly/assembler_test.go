package assembly

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"storyreel/internal/config"
	"storyreel/internal/footage"
	"storyreel/internal/footagecache"
	"storyreel/internal/logging"
	"storyreel/internal/media/ffmpeg"
	"storyreel/internal/scenario"
	"storyreel/internal/services"
	"storyreel/internal/services/llm"
	"storyreel/internal/store"
	"storyreel/internal/testsupport"
)

const testScript = "The cat sleeps on the warm mat today. Then the dog runs across the green field fast."

type fakeServices struct {
	mu sync.Mutex

	scriptCalls  int
	keywordCalls int
	narrations   int
	transcribes  int
	searches     int
	fetches      []footagecache.Request
	jobs         []ffmpeg.RenderJob

	pools     map[string]scenario.Pool
	renderErr error
	fetchDir  string
}

func (f *fakeServices) WriteScript(_ context.Context, req llm.ScriptRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scriptCalls++
	return testScript, nil
}

func (f *fakeServices) Keywords(_ context.Context, text string, _ int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keywordCalls++
	if strings.Contains(text, "cat") {
		return []string{"cat"}, nil
	}
	return []string{"dog"}, nil
}

func (f *fakeServices) Synthesize(_ context.Context, _ string, dest string) error {
	f.mu.Lock()
	f.narrations++
	f.mu.Unlock()
	return os.WriteFile(dest, []byte("mp3"), 0o644)
}

func (f *fakeServices) Transcribe(context.Context, string) ([]scenario.Word, error) {
	f.mu.Lock()
	f.transcribes++
	f.mu.Unlock()
	var words []scenario.Word
	for i, token := range strings.Fields(testScript) {
		start := float64(i) * 0.5
		words = append(words, scenario.Word{Word: token, Start: start, End: scenario.RoundTimestamp(start + 0.4)})
	}
	return words, nil
}

func (f *fakeServices) Candidates(_ context.Context, keywords []string, _ float64, _ *slog.Logger) (scenario.Pool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	var pool scenario.Pool
	for _, kw := range keywords {
		for _, c := range f.pools[kw] {
			pool.Add(c)
		}
	}
	return pool, nil
}

func (f *fakeServices) Fetch(_ context.Context, req footagecache.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, req)
	path := filepath.Join(f.fetchDir, fmt.Sprintf("%s_%.2f.mp4", req.ID, req.Offset))
	return path, os.WriteFile(path, []byte("clip"), 0o644)
}

func (f *fakeServices) Render(_ context.Context, job ffmpeg.RenderJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	if f.renderErr != nil {
		return f.renderErr
	}
	if err := os.MkdirAll(filepath.Dir(job.Output), 0o755); err != nil {
		return err
	}
	return os.WriteFile(job.Output, []byte("video"), 0o644)
}

func (f *fakeServices) Duration(context.Context, string) (float64, error) {
	return 8.6, nil
}

func (f *fakeServices) services() Services {
	return Services{
		Script:      f,
		Keywords:    f,
		Narrator:    f,
		Transcriber: f,
		Search:      f,
		Fetcher:     f,
		Renderer:    f,
		Prober:      f,
	}
}

func newFakes(t *testing.T) *fakeServices {
	return &fakeServices{
		fetchDir: t.TempDir(),
		pools: map[string]scenario.Pool{
			"cat": {{ID: "A", URL: "https://example.test/a.mp4"}, {ID: "B", URL: "https://example.test/b.mp4"}},
			"dog": {{ID: "C", URL: "https://example.test/c.mp4"}},
		},
	}
}

func newTestAssembler(t *testing.T, cfg *config.Config, fakes *fakeServices) (*Assembler, *store.Store) {
	t.Helper()
	st := testsupport.MustOpenStore(t, cfg)
	day := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	a, err := New(cfg, st, fakes.services(), logging.NewNop(), WithClock(func() time.Time { return day }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a, st
}

func TestAssembleProducesVideoAndLedger(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSeed(7), testsupport.WithMusicDir("one.mp3"))
	fakes := newFakes(t)
	a, st := newTestAssembler(t, cfg, fakes)
	ctx := context.Background()

	result, err := a.Assemble(ctx, "Cats and dogs")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	wantOutput := filepath.Join(cfg.Paths.OutputDir, "2026-03-14", VideoID("Cats and dogs")+".mp4")
	if result.OutputPath != wantOutput {
		t.Fatalf("output = %q, want %q", result.OutputPath, wantOutput)
	}
	if _, err := os.Stat(wantOutput); err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if result.Blocks != 2 || result.Lines == 0 {
		t.Fatalf("blocks=%d lines=%d", result.Blocks, result.Lines)
	}
	if len(result.Misses) != 0 || len(result.SkippedBlocks) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", result)
	}
	if result.Duration != 8.6 {
		t.Fatalf("duration = %v, want narration length 8.6", result.Duration)
	}
	if result.Music != "one.mp3" {
		t.Fatalf("music = %q", result.Music)
	}
	if result.TierCounts[footage.TierFresh] != 2 {
		t.Fatalf("tier counts = %v", result.TierCounts)
	}

	job := fakes.jobs[0]
	if len(job.Clips) != 2 {
		t.Fatalf("render clips = %+v", job.Clips)
	}
	if job.Clips[0].Start != 0 || job.Clips[0].Duration != 4 || job.Clips[1].Start != 4 || job.Clips[1].Duration != 4.4 {
		t.Fatalf("clip spans = %+v", job.Clips)
	}
	for _, c := range job.Clips {
		if c.Path == "" {
			t.Fatalf("clip without fetched path: %+v", c)
		}
	}
	if !strings.HasSuffix(job.Subtitles, "captions.ass") {
		t.Fatalf("subtitles = %q", job.Subtitles)
	}
	for _, name := range []string{"scenario.json", "words.json", "captions.ass", "captions.srt", "timeline.json", "narration.mp3"} {
		if _, err := os.Stat(filepath.Join(result.WorkspaceDir, name)); err != nil {
			t.Fatalf("artifact %s missing: %v", name, err)
		}
	}

	run, err := st.GetRun(ctx, result.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != store.StatusCompleted || run.OutputPath != wantOutput || run.Seed != 7 || run.Stage != "render" {
		t.Fatalf("run = %+v", run)
	}
	allocs, err := st.Allocations(ctx, result.RunID)
	if err != nil {
		t.Fatalf("Allocations: %v", err)
	}
	if len(allocs) != 2 || allocs[1].ClipID != "C" || allocs[1].Tier != "fresh" {
		t.Fatalf("allocations = %+v", allocs)
	}
}

func TestAssembleReusesArtifacts(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSeed(3))
	fakes := newFakes(t)
	a, _ := newTestAssembler(t, cfg, fakes)

	first, err := a.Assemble(context.Background(), "Cats and dogs")
	if err != nil {
		t.Fatalf("first Assemble: %v", err)
	}
	second, err := a.Assemble(context.Background(), "Cats and dogs")
	if err != nil {
		t.Fatalf("second Assemble: %v", err)
	}
	if first.RunID == second.RunID {
		t.Fatal("expected a new run id per attempt")
	}
	if fakes.scriptCalls != 1 || fakes.keywordCalls != 2 || fakes.narrations != 1 || fakes.transcribes != 1 || fakes.searches != 2 {
		t.Fatalf("services called again: script=%d keywords=%d narration=%d transcribe=%d search=%d",
			fakes.scriptCalls, fakes.keywordCalls, fakes.narrations, fakes.transcribes, fakes.searches)
	}
	for _, stage := range []string{"script", "keywords", "narration", "transcription", "search"} {
		if !slices.Contains(second.Reused, stage) {
			t.Fatalf("stage %s not reported as reused: %v", stage, second.Reused)
		}
	}
}

func TestAssembleSearchesBorrowedPoolsAgain(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSeed(5))
	fakes := newFakes(t)
	dogPool := fakes.pools["dog"]
	delete(fakes.pools, "dog")
	a, _ := newTestAssembler(t, cfg, fakes)

	first, err := a.Assemble(context.Background(), "Cats and dogs")
	if err != nil {
		t.Fatalf("first Assemble: %v", err)
	}
	sc, err := scenario.Load(filepath.Join(first.WorkspaceDir, "scenario.json"))
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	if !sc.Blocks[1].PoolBorrowed || sc.Blocks[1].Candidates[0].ID != "A" {
		t.Fatalf("block 1 should carry a borrowed pool, got %+v", sc.Blocks[1])
	}
	if sc.Blocks[0].PoolBorrowed {
		t.Fatal("searched block marked as borrowed")
	}

	fakes.pools["dog"] = dogPool
	second, err := a.Assemble(context.Background(), "Cats and dogs")
	if err != nil {
		t.Fatalf("second Assemble: %v", err)
	}
	if fakes.searches != 3 {
		t.Fatalf("expected only the borrowed block to be searched again, got %d searches", fakes.searches)
	}
	if slices.Contains(second.Reused, "search") {
		t.Fatalf("search reported as reused: %v", second.Reused)
	}
	sc, err = scenario.Load(filepath.Join(second.WorkspaceDir, "scenario.json"))
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	if sc.Blocks[1].PoolBorrowed || len(sc.Blocks[1].Candidates) != 1 || sc.Blocks[1].Candidates[0].ID != "C" {
		t.Fatalf("block 1 pool after re-search = %+v", sc.Blocks[1])
	}
}

func TestAssembleRenderFailureMarksRunFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSeed(1))
	fakes := newFakes(t)
	fakes.renderErr = errors.New("encoder crashed")
	a, st := newTestAssembler(t, cfg, fakes)

	result, err := a.Assemble(context.Background(), "Cats and dogs")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if result == nil || result.FailedStage != "render" {
		t.Fatalf("result = %+v", result)
	}
	run, err := st.GetRun(context.Background(), result.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != store.StatusFailed || !strings.Contains(run.ErrorMessage, "encoder crashed") {
		t.Fatalf("run = %+v", run)
	}
}

func TestAssembleEmptyPoolsAreInvalid(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSeed(1))
	fakes := newFakes(t)
	fakes.pools = nil
	a, st := newTestAssembler(t, cfg, fakes)

	result, err := a.Assemble(context.Background(), "Nothing to see")
	if !errors.Is(err, footage.ErrEmptyCandidatePool) || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected empty pool validation error, got %v", err)
	}
	if result.FailedStage != "plan" {
		t.Fatalf("failed stage = %q", result.FailedStage)
	}
	run, _ := st.GetRun(context.Background(), result.RunID)
	if run.Status != store.StatusInvalid {
		t.Fatalf("status = %s, want invalid", run.Status)
	}
	if len(fakes.jobs) != 0 {
		t.Fatal("render should not run")
	}
}

func TestAssembleRejectsEmptyThemeAndLockedVideo(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	a, _ := newTestAssembler(t, cfg, newFakes(t))
	if _, err := a.Assemble(context.Background(), "  "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	unlock, err := lockVideo(cfg.LockDir(), VideoID("Busy"))
	if err != nil {
		t.Fatalf("lockVideo: %v", err)
	}
	defer unlock()
	if _, err := a.Assemble(context.Background(), "Busy"); !errors.Is(err, ErrVideoLocked) {
		t.Fatalf("expected ErrVideoLocked, got %v", err)
	}
}

func TestNewRequiresServices(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	_, err := New(cfg, st, Services{Script: newFakes(t)}, nil)
	if err == nil || !strings.Contains(err.Error(), "renderer") {
		t.Fatalf("expected missing services error, got %v", err)
	}
}

func TestBorrowPools(t *testing.T) {
	a := scenario.Pool{{ID: "a"}}
	c := scenario.Pool{{ID: "c"}}
	blocks := []scenario.TextBlock{{}, {Candidates: a}, {}, {Candidates: c}, {}}
	borrowed := borrowPools(blocks)
	if !slices.Equal(borrowed, []int{2, 4, 0}) {
		t.Fatalf("borrowed = %v", borrowed)
	}
	for i, b := range blocks {
		if b.PoolBorrowed != slices.Contains(borrowed, i) {
			t.Fatalf("block %d PoolBorrowed = %v", i, b.PoolBorrowed)
		}
	}
	want := []string{"a", "a", "a", "c", "c"}
	for i, b := range blocks {
		if len(b.Candidates) != 1 || b.Candidates[0].ID != want[i] {
			t.Fatalf("block %d pool = %+v", i, b.Candidates)
		}
	}
	if got := borrowPools([]scenario.TextBlock{{}, {}}); len(got) != 0 {
		t.Fatalf("all-empty blocks borrowed %v", got)
	}
}

func TestVideoIDAndWorkspace(t *testing.T) {
	if VideoID("Space") != VideoID(" Space ") {
		t.Fatal("video id should ignore surrounding whitespace")
	}
	if VideoID("Space") == VideoID("Ocean") {
		t.Fatal("different themes share a video id")
	}
	ws := NewWorkspace("/out", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), "vid")
	if ws.Dir != filepath.Join("/out", "2026-01-02", "vid") || ws.Output != filepath.Join("/out", "2026-01-02", "vid.mp4") {
		t.Fatalf("workspace = %+v", ws)
	}
}

func TestFetchProgressSamplesQuarterSteps(t *testing.T) {
	p := newFetchProgress(8)
	var logged []int
	for range 8 {
		if done, _, ok := p.advance(); ok {
			logged = append(logged, done)
		}
	}
	if !slices.Equal(logged, []int{1, 2, 4, 6, 8}) {
		t.Fatalf("logged progress at %v", logged)
	}
}

func TestFetchProgressConcurrentWorkers(t *testing.T) {
	p := newFetchProgress(100)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		emitted int
	)
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, ok := p.advance(); ok {
				mu.Lock()
				emitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if p.done != 100 {
		t.Fatalf("done = %d, want 100", p.done)
	}
	if emitted != 5 {
		t.Fatalf("emitted %d progress logs, want 5", emitted)
	}
}
