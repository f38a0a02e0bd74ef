package main

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"storyreel/internal/scenario"
	"storyreel/internal/testsupport"
)

type planOutput struct {
	Allocations []struct {
		Candidate scenario.Candidate `json:"candidate"`
		Tier      string             `json:"tier"`
		Start     float64            `json:"start"`
		End       float64            `json:"end"`
	} `json:"allocations"`
	Placements []struct {
		Kind string `json:"kind"`
	} `json:"placements"`
	TierCounts map[string]int `json:"tier_counts"`
	Duration   float64        `json:"duration"`
}

func writePlanScenario(t *testing.T, dir string) string {
	t.Helper()
	words := sampleWords()
	path := filepath.Join(dir, "scenario.json")
	writeJSONFile(t, path, scenario.Scenario{
		FullScript: "Коты спят шестнадцать часов в день. Правда.",
		Words:      words,
		Blocks: []scenario.TextBlock{
			{
				Text:       "Коты спят шестнадцать часов в день.",
				Words:      words[:6],
				Candidates: scenario.Pool{{ID: "A"}, {ID: "B"}, {ID: "C"}},
			},
			{
				Text:       "Правда.",
				Words:      words[6:],
				Candidates: scenario.Pool{{ID: "B"}, {ID: "D"}},
			},
		},
	})
	return path
}

func decodePlan(t *testing.T, out string) planOutput {
	t.Helper()
	var plan planOutput
	if err := json.Unmarshal([]byte(out), &plan); err != nil {
		t.Fatalf("decode plan: %v\n%s", err, out)
	}
	return plan
}

func TestPlanCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	path := writePlanScenario(t, env.baseDir)

	out, _, err := runCLI(t, []string{"plan", path, "--seed", "5", "-f", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	plan := decodePlan(t, out)
	if len(plan.Allocations) != 2 {
		t.Fatalf("allocations = %+v", plan.Allocations)
	}
	if plan.Allocations[0].Candidate.ID == plan.Allocations[1].Candidate.ID {
		t.Fatalf("fresh pools should not reuse a clip: %+v", plan.Allocations)
	}
	if plan.TierCounts["fresh"] != 2 {
		t.Fatalf("tier counts = %v", plan.TierCounts)
	}
	if plan.Duration != 5.0 {
		t.Fatalf("duration = %v", plan.Duration)
	}
	captions := 0
	for _, p := range plan.Placements {
		if p.Kind == "caption" {
			captions++
		}
	}
	if captions == 0 {
		t.Fatalf("expected caption placements segmented from words")
	}

	again, _, err := runCLI(t, []string{"plan", path, "--seed", "5", "-f", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("plan again: %v", err)
	}
	if again != out {
		t.Fatalf("same seed produced different plans")
	}
}

func TestPlanCommandReplaysRunSeed(t *testing.T) {
	env := setupCLITestEnv(t)
	path := writePlanScenario(t, env.baseDir)

	st := testsupport.MustOpenStore(t, env.cfg)
	run, err := st.BeginRun(context.Background(), "video", "cats", 11)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	bySeed, _, err := runCLI(t, []string{"plan", path, "--seed", "11", "-f", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("plan --seed: %v", err)
	}
	byRun, _, err := runCLI(t, []string{"plan", path, "--run", run.ID[:8], "-f", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("plan --run: %v", err)
	}
	if bySeed != byRun {
		t.Fatalf("run seed replay differs\nseed: %s\nrun:  %s", bySeed, byRun)
	}
}

func TestPlanCommandYAMLAndTable(t *testing.T) {
	env := setupCLITestEnv(t)
	path := writePlanScenario(t, env.baseDir)

	out, _, err := runCLI(t, []string{"plan", path, "-f", "yaml"}, env.configPath)
	if err != nil {
		t.Fatalf("plan yaml: %v", err)
	}
	requireContains(t, out, "placements:")
	requireContains(t, out, "tier: fresh")

	out, _, err = runCLI(t, []string{"plan", path, "--seed", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("plan table: %v", err)
	}
	requireContains(t, out, "Seed 2: 2 segments, 2 fresh")

	if _, _, err := runCLI(t, []string{"plan", path, "-f", "xml"}, env.configPath); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestPlanCommandLineGranularity(t *testing.T) {
	env := setupCLITestEnv(t)
	path := writePlanScenario(t, env.baseDir)

	out, _, err := runCLI(t, []string{"plan", path, "--granularity", "line", "-f", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	plan := decodePlan(t, out)
	captions := 0
	for _, p := range plan.Placements {
		if p.Kind == "caption" {
			captions++
		}
	}
	if len(plan.Allocations) != captions {
		t.Fatalf("line granularity: %d allocations for %d captions", len(plan.Allocations), captions)
	}
}
