package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storyreel/internal/testsupport"
)

func keywordServer(t *testing.T, status int, reply string) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"denied"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": reply}}},
		})
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestDoctorSkipsAPICheckByDefault(t *testing.T) {
	server, calls := keywordServer(t, http.StatusOK, "beach")
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	env.cfg.LLM.BaseURL = server.URL
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	if *calls != 0 {
		t.Fatalf("doctor without --check-api sent %d requests", *calls)
	}
	if strings.Contains(out, "LLM API") {
		t.Fatalf("unexpected api line:\n%s", out)
	}
}

func TestDoctorCheckAPIReportsHealthyModel(t *testing.T) {
	server, calls := keywordServer(t, http.StatusOK, "beach")
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	env.cfg.LLM.BaseURL = server.URL
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"doctor", "--check-api"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor --check-api: %v\n%s", err, out)
	}
	if *calls != 1 {
		t.Fatalf("expected one request, got %d", *calls)
	}
	requireContains(t, out, "[OK] keyword model answered")
}

func TestDoctorCheckAPIFailsOnRejectedKey(t *testing.T) {
	server, calls := keywordServer(t, http.StatusUnauthorized, "")
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	env.cfg.LLM.BaseURL = server.URL
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"doctor", "--check-api"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "llm api check failed") {
		t.Fatalf("expected api check failure, got %v", err)
	}
	if *calls != 1 {
		t.Fatalf("rejected key should not be retried, got %d requests", *calls)
	}
	requireContains(t, out, "http 401")
}
