package deps

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"storyreel/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: " ", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for unset command: %q", results[2].Detail)
	}

	missing := Missing(results)
	if len(missing) != 1 || missing[0].Name != "Missing" {
		t.Fatalf("Missing = %#v", missing)
	}
}

func TestRequirementsUvxOptionality(t *testing.T) {
	cfg := config.Default()
	cfg.Render.FFprobeBinary = "ffprobe-custom"
	cfg.Speech.Provider = "openai"
	reqs := Requirements(&cfg)
	if len(reqs) != 3 {
		t.Fatalf("expected 3 requirements, got %d", len(reqs))
	}
	if reqs[1].Command != "ffprobe-custom" {
		t.Fatalf("ffprobe command = %q", reqs[1].Command)
	}
	if !reqs[2].Optional {
		t.Fatal("uvx should be optional for the openai provider")
	}
	cfg.Speech.Provider = "whisperx"
	if Requirements(&cfg)[2].Optional {
		t.Fatal("uvx should be required for the whisperx provider")
	}
}

func TestResolveFFprobeSibling(t *testing.T) {
	tmp := t.TempDir()
	script := []byte("#!/bin/sh\nexit 0\n")
	ffmpegPath := filepath.Join(tmp, executableName("ffmpeg"))
	ffprobePath := filepath.Join(tmp, executableName("ffprobe"))
	for _, p := range []string{ffmpegPath, ffprobePath} {
		if err := os.WriteFile(p, script, 0o755); err != nil {
			t.Fatalf("write stub: %v", err)
		}
	}

	status := ResolveFFprobe(ffmpegPath)
	if !status.Available {
		t.Fatalf("expected sibling ffprobe, got detail %q", status.Detail)
	}
	if status.Command != ffprobePath {
		t.Fatalf("expected %q, got %q", ffprobePath, status.Command)
	}
}

func TestResolveFFprobePathFallback(t *testing.T) {
	tmp := t.TempDir()
	script := []byte("#!/bin/sh\nexit 0\n")
	ffmpegPath := filepath.Join(tmp, executableName("ffmpeg"))
	if err := os.WriteFile(ffmpegPath, script, 0o755); err != nil {
		t.Fatalf("write ffmpeg stub: %v", err)
	}
	binDir := filepath.Join(tmp, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	ffprobePath := filepath.Join(binDir, executableName("ffprobe"))
	if err := os.WriteFile(ffprobePath, script, 0o755); err != nil {
		t.Fatalf("write ffprobe stub: %v", err)
	}
	t.Setenv("PATH", binDir)

	status := ResolveFFprobe(ffmpegPath)
	if !status.Available || status.Command != ffprobePath {
		t.Fatalf("expected PATH fallback %q, got %#v", ffprobePath, status)
	}
}

func TestResolveFFprobeNotFound(t *testing.T) {
	t.Setenv("PATH", "")
	status := ResolveFFprobe(filepath.Join(t.TempDir(), "ffmpeg"))
	if status.Available {
		t.Fatal("expected ffprobe resolution to fail")
	}
	if status.Detail == "" {
		t.Fatal("expected detail message when ffprobe is unavailable")
	}
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}
