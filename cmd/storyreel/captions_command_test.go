package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storyreel/internal/scenario"
)

func sampleWords() []scenario.Word {
	return []scenario.Word{
		{Word: "Коты", Start: 0.1, End: 0.5},
		{Word: "спят", Start: 0.55, End: 0.9},
		{Word: "шестнадцать", Start: 1.0, End: 1.6},
		{Word: "часов", Start: 1.65, End: 2.0},
		{Word: "в", Start: 2.05, End: 2.1},
		{Word: "день.", Start: 2.15, End: 2.6},
		{Word: "Правда.", Start: 4.5, End: 5.0},
	}
}

func TestCaptionsCommandWritesFiles(t *testing.T) {
	env := setupCLITestEnv(t)
	wordsPath := filepath.Join(env.baseDir, "words.json")
	writeJSONFile(t, wordsPath, sampleWords())
	srtPath := filepath.Join(env.baseDir, "out", "captions.srt")
	assPath := filepath.Join(env.baseDir, "out", "captions.ass")

	out, _, err := runCLI(t, []string{"captions", wordsPath, "--srt", srtPath, "--ass", assPath}, env.configPath)
	if err != nil {
		t.Fatalf("captions: %v", err)
	}
	requireContains(t, out, "7 words ->")
	requireContains(t, out, "Wrote "+srtPath)

	srt, err := os.ReadFile(srtPath)
	if err != nil {
		t.Fatalf("read srt: %v", err)
	}
	if !strings.HasPrefix(string(srt), "1\n00:00:00,100 --> ") {
		t.Fatalf("unexpected srt start: %q", string(srt))
	}
	ass, err := os.ReadFile(assPath)
	if err != nil {
		t.Fatalf("read ass: %v", err)
	}
	requireContains(t, string(ass), "[Events]")
}

func TestCaptionsCommandJSONRespectsLimits(t *testing.T) {
	env := setupCLITestEnv(t)
	wordsPath := filepath.Join(env.baseDir, "words.json")
	writeJSONFile(t, wordsPath, sampleWords())

	out, _, err := runCLI(t, []string{"captions", wordsPath, "--max-chars", "12", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("captions: %v", err)
	}
	var lines []scenario.CaptionLine
	if err := json.Unmarshal([]byte(out), &lines); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(lines) < 3 {
		t.Fatalf("expected several lines at 12 chars, got %d", len(lines))
	}
	total := 0
	for _, line := range lines {
		total += len(line.Words)
		if len(line.Words) > 1 && len([]rune(line.Text)) > 12 {
			t.Fatalf("line %q exceeds 12 chars", line.Text)
		}
	}
	if total != len(sampleWords()) {
		t.Fatalf("words lost: %d of %d", total, len(sampleWords()))
	}
	// The 1.9s pause before the last word always breaks the line.
	if last := lines[len(lines)-1]; last.Text != "Правда." {
		t.Fatalf("last line = %q", last.Text)
	}
}

func TestCaptionsCommandRejectsUnknownPreset(t *testing.T) {
	env := setupCLITestEnv(t)
	wordsPath := filepath.Join(env.baseDir, "words.json")
	writeJSONFile(t, wordsPath, sampleWords())

	if _, _, err := runCLI(t, []string{"captions", wordsPath, "--preset", "huge"}, env.configPath); err == nil {
		t.Fatalf("expected unknown preset error")
	}
}
