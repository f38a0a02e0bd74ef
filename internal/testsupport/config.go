package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"storyreel/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.LLM.APIKey = "test"
	cfgVal.Speech.APIKey = "test"
	cfgVal.Stock.APIKey = "test"
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Footage.DownloadRetrySeconds = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithSeed fixes the allocator seed on the test config.
func WithSeed(seed int64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Footage.Seed = seed
	}
}

// WithMusicDir creates a music directory holding the named tracks.
func WithMusicDir(tracks ...string) ConfigOption {
	return func(b *configBuilder) {
		dir := filepath.Join(b.baseDir, "music")
		for _, name := range tracks {
			WriteFile(b.t, filepath.Join(dir, name), 16)
		}
		if len(tracks) == 0 {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				b.t.Fatalf("mkdir music dir: %v", err)
			}
		}
		b.cfg.Render.MusicDir = dir
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
