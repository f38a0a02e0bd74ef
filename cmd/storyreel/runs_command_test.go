package main

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"storyreel/internal/store"
	"storyreel/internal/testsupport"
)

func seedRuns(t *testing.T, env *cliTestEnv) (*store.Store, *store.Run, *store.Run) {
	t.Helper()
	ctx := context.Background()
	st := testsupport.MustOpenStore(t, env.cfg)

	done := testsupport.BeginRun(t, st, "vid-cats", "Коты")
	if err := st.SetStage(ctx, done.ID, "render"); err != nil {
		t.Fatalf("SetStage: %v", err)
	}
	if err := st.RecordAllocations(ctx, done.ID, []store.AllocationRecord{
		{Index: 0, ClipID: "A", Tier: "fresh", Start: 0, End: 2.1},
		{Index: 1, ClipID: "A", Tier: "extend", Start: 2.1, End: 5},
	}); err != nil {
		t.Fatalf("RecordAllocations: %v", err)
	}
	if err := st.RecordMisses(ctx, done.ID, []store.MissRecord{{Block: 1, Token: "котики", Cursor: 7}}); err != nil {
		t.Fatalf("RecordMisses: %v", err)
	}
	if err := st.Complete(ctx, done.ID, "/out/vid-cats.mp4", 5); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	stuck := testsupport.BeginRun(t, st, "vid-dogs", "Собаки")
	return st, done, stuck
}

func TestRunsListAndShow(t *testing.T) {
	env := setupCLITestEnv(t)
	_, done, _ := seedRuns(t, env)

	out, _, err := runCLI(t, []string{"runs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	requireContains(t, out, shortID(done.ID))
	requireContains(t, out, "Собаки")
	requireContains(t, out, "Totals: 1 running, 1 completed")

	out, _, err = runCLI(t, []string{"runs", "list", "--status", "completed", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("runs list --json: %v", err)
	}
	var runs []store.Run
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode runs: %v\n%s", err, out)
	}
	if len(runs) != 1 || runs[0].ID != done.ID || runs[0].OutputPath != "/out/vid-cats.mp4" {
		t.Fatalf("runs = %+v", runs)
	}

	out, _, err = runCLI(t, []string{"runs", "show", shortID(done.ID)}, env.configPath)
	if err != nil {
		t.Fatalf("runs show: %v", err)
	}
	requireContains(t, out, "[OK] completed")
	requireContains(t, out, "extend")
	requireContains(t, out, "котики (block 1)")

	out, _, err = runCLI(t, []string{"runs", "show", done.ID, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("runs show --json: %v", err)
	}
	var detail struct {
		Allocations []store.AllocationRecord `json:"allocations"`
		Misses      []store.MissRecord       `json:"misses"`
	}
	if err := json.Unmarshal([]byte(out), &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if len(detail.Allocations) != 2 || len(detail.Misses) != 1 {
		t.Fatalf("detail = %+v", detail)
	}
}

func TestRunsListRejectsUnknownStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"runs", "list", "--status", "paused"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "unknown status") {
		t.Fatalf("expected unknown status error, got %v", err)
	}
}

func TestRunsAbandonAndPrune(t *testing.T) {
	env := setupCLITestEnv(t)
	st, _, stuck := seedRuns(t, env)

	out, _, err := runCLI(t, []string{"runs", "abandon"}, env.configPath)
	if err != nil {
		t.Fatalf("runs abandon: %v", err)
	}
	requireContains(t, out, "Marked 1 runs as failed")
	run, err := st.GetRun(context.Background(), stuck.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != store.StatusFailed {
		t.Fatalf("status = %s", run.Status)
	}

	out, _, err = runCLI(t, []string{"runs", "prune", "--older-than", "1h"}, env.configPath)
	if err != nil {
		t.Fatalf("runs prune: %v", err)
	}
	requireContains(t, out, "Deleted 0 runs")

	if _, _, err := runCLI(t, []string{"runs", "prune", "--older-than", "0s"}, env.configPath); err == nil {
		t.Fatalf("expected non-positive cutoff error")
	}
}
