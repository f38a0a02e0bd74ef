// Package logging assembles structured slog loggers and formatting helpers used
// across storyreel.
//
// It owns the console and JSON handlers, level and output plumbing, and
// context-aware helpers so stage code tags log lines with run IDs, video IDs,
// stages and correlation IDs. A no-op logger is provided for tests.
package logging
