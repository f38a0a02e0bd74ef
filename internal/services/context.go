package services

import "context"

type contextKey string

const (
	runIDKey     contextKey = "run_id"
	videoIDKey   contextKey = "video_id"
	stageKey     contextKey = "stage"
	requestIDKey contextKey = "request_id"
)

func withString(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key contextKey) (string, bool) {
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRunID annotates context with the ledger run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	return withString(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, runIDKey)
}

// WithVideoID annotates context with the theme-derived video identifier.
func WithVideoID(ctx context.Context, id string) context.Context {
	return withString(ctx, videoIDKey, id)
}

// VideoIDFromContext extracts the video identifier if present.
func VideoIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, videoIDKey)
}

// WithStage annotates context with the assembly stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	return withString(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, stageKey)
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withString(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, requestIDKey)
}
