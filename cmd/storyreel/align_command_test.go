package main

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"storyreel/internal/scenario"
)

func TestAlignCommandReportsMisses(t *testing.T) {
	env := setupCLITestEnv(t)
	scenarioPath := filepath.Join(env.baseDir, "scenario.json")
	writeJSONFile(t, scenarioPath, scenario.Scenario{
		FullScript: "Коты спят шестнадцать часов в день. Правда, котики.",
		Blocks: []scenario.TextBlock{
			{Text: "Коты спят шестнадцать часов в день."},
			{Text: "Правда, котики."},
			{Text: "Мяу."},
		},
	})
	wordsPath := filepath.Join(env.baseDir, "words.json")
	writeJSONFile(t, wordsPath, sampleWords())
	alignedPath := filepath.Join(env.baseDir, "aligned.json")

	out, _, err := runCLI(t, []string{"align", scenarioPath, wordsPath, "-o", alignedPath, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	var got alignOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if got.Report.Tokens != 9 || got.Report.Matched != 7 {
		t.Fatalf("report = %+v", got.Report)
	}
	if len(got.Report.Misses) != 2 || got.Report.Misses[0].Token != "котики." || got.Report.Misses[0].Block != 1 {
		t.Fatalf("misses = %+v", got.Report.Misses)
	}
	if len(got.Skipped) != 1 || got.Skipped[0] != 2 {
		t.Fatalf("unaligned = %v", got.Skipped)
	}

	aligned, err := scenario.Load(alignedPath)
	if err != nil {
		t.Fatalf("load aligned: %v", err)
	}
	if len(aligned.Blocks[0].Words) != 6 || aligned.Blocks[1].Words[0].Word != "Правда." {
		t.Fatalf("aligned blocks = %+v", aligned.Blocks)
	}
	if len(aligned.Words) != len(sampleWords()) {
		t.Fatalf("word stream not saved: %d", len(aligned.Words))
	}
}

func TestAlignCommandTable(t *testing.T) {
	env := setupCLITestEnv(t)
	scenarioPath := filepath.Join(env.baseDir, "scenario.json")
	writeJSONFile(t, scenarioPath, scenario.Scenario{
		Blocks: []scenario.TextBlock{{Text: "Коты спят шестнадцать часов в день. Правда."}},
	})
	wordsPath := filepath.Join(env.baseDir, "words.json")
	writeJSONFile(t, wordsPath, sampleWords())

	out, _, err := runCLI(t, []string{"align", scenarioPath, wordsPath}, env.configPath)
	if err != nil {
		t.Fatalf("align: %v", err)
	}
	requireContains(t, out, "[OK] 7/7 tokens matched across 1 blocks")
}
