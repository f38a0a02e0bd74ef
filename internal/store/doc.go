// Package store persists the assembly run ledger in SQLite.
//
// Each assembly attempt is a Run keyed by a random identifier and tagged with
// the deterministic video id of its theme. Runs record the stage currently
// executing, the final status, the footage allocations chosen for the
// timeline and any alignment misses, so `storyreel runs` can explain a video
// after the fact. The database runs in WAL mode and busy errors are retried
// with a short backoff.
package store
