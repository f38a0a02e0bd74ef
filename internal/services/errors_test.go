package services_test

import (
	"errors"
	"strings"
	"testing"

	"storyreel/internal/services"
	"storyreel/internal/store"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "render", "ffmpeg", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"render", "ffmpeg", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestFailureStatusMapping(t *testing.T) {
	validationErr := services.Wrap(services.ErrValidation, "allocate", "segments", "empty pool", nil)
	if status := services.FailureStatus(validationErr); status != store.StatusInvalid {
		t.Fatalf("expected invalid for validation error, got %s", status)
	}

	transientErr := services.Wrap(services.ErrTransient, "fetch", "download", "reset", errors.New("io"))
	if status := services.FailureStatus(transientErr); status != store.StatusFailed {
		t.Fatalf("expected failed for transient error, got %s", status)
	}

	if status := services.FailureStatus(nil); status != store.StatusFailed {
		t.Fatalf("expected failed for nil error, got %s", status)
	}
}
