// Package services defines shared utilities consumed by the assembly stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, video IDs, stage names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent run statuses (failed vs invalid).
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
