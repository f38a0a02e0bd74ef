package main

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"storyreel/internal/footage"
)

func TestReadThemesSkipsBlanksAndComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "themes.txt")
	content := "# weekly batch\nКоты\n\n  Собаки  \n# done\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write themes: %v", err)
	}
	got, err := readThemes(path)
	if err != nil {
		t.Fatalf("readThemes: %v", err)
	}
	if want := []string{"Коты", "Собаки"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("themes = %q, want %q", got, want)
	}
}

func TestHumanBytes(t *testing.T) {
	cases := map[int64]string{
		512:             "512 B",
		2048:            "2.0 KiB",
		5 * 1024 * 1024: "5.0 MiB",
	}
	for in, want := range cases {
		if got := humanBytes(in); got != want {
			t.Fatalf("humanBytes(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatTiersIsOrdered(t *testing.T) {
	got := formatTiers(map[footage.Tier]int{footage.TierForced: 1, footage.TierFresh: 3})
	if got != "3 fresh, 1 forced" {
		t.Fatalf("formatTiers = %q", got)
	}
	if formatTiers(nil) != "none" {
		t.Fatalf("expected none for empty counts")
	}
}

func TestAssembleRequiresThemes(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"assemble"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "no themes given") {
		t.Fatalf("expected missing themes error, got %v", err)
	}
}

func TestAssembleRequiresCredentials(t *testing.T) {
	env := setupCLITestEnv(t)
	t.Setenv("PEXELS_API_KEY", "")
	env.cfg.Stock.APIKey = ""
	writeTestConfig(t, env.configPath, env.cfg)

	_, _, err := runCLI(t, []string{"assemble", "--theme", "Коты"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "PEXELS_API_KEY") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}
