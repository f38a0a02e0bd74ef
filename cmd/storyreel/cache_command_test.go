package main

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"storyreel/internal/footagecache"
	"storyreel/internal/testsupport"
)

func TestCacheStatsAndClear(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Footage.CacheMinFreeGiB = 0
	writeTestConfig(t, env.configPath, env.cfg)
	root := env.cfg.FootageCacheDir()
	testsupport.WriteFile(t, filepath.Join(root, "downloads", "A.mp4"), 2048)
	testsupport.WriteFile(t, filepath.Join(root, "trimmed", "A_0.000_2.100.mp4"), 1024)

	out, _, err := runCLI(t, []string{"cache", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	requireContains(t, out, "Entries: 2 (1 downloads, 1 trimmed)")
	requireContains(t, out, "3.0 KiB")
	requireContains(t, out, "A.mp4")

	out, _, err = runCLI(t, []string{"cache", "stats", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("cache stats --json: %v", err)
	}
	var stats footagecache.Stats
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Entries != 2 || stats.TotalBytes != 3072 {
		t.Fatalf("stats = %+v", stats)
	}

	out, _, err = runCLI(t, []string{"cache", "prune"}, env.configPath)
	if err != nil {
		t.Fatalf("cache prune: %v", err)
	}
	requireContains(t, out, "No cache entries pruned")

	out, _, err = runCLI(t, []string{"cache", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Removed 2 cached files")

	out, _, err = runCLI(t, []string{"cache", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("cache stats after clear: %v", err)
	}
	requireContains(t, out, "Cached clips: none")
}
