package testsupport

import (
	"context"
	"testing"

	"storyreel/internal/config"
	"storyreel/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// BeginRun creates a running ledger entry for tests.
func BeginRun(t testing.TB, st *store.Store, videoID, theme string) *store.Run {
	t.Helper()

	run, err := st.BeginRun(context.Background(), videoID, theme, 0)
	if err != nil {
		t.Fatalf("store.BeginRun: %v", err)
	}
	return run
}
