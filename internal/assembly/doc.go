// Package assembly drives one video from theme to rendered file.
//
// An Assembler runs a fixed stage sequence (script, keywords, narration,
// transcription, alignment, captions, search, plan, fetch, render) for a
// theme. Each stage persists its artifact under the run workspace and an
// existing artifact is reused on the next attempt, so a failed run can be
// retried without paying for the LLM, TTS or transcription again.
//
// Every attempt is recorded in the run ledger with its seed, the alignment
// misses and the footage allocation. Failures are tagged with the services
// error markers and mapped to a ledger status with services.FailureStatus.
//
// BuildPlan is the pure part of the pipeline (segments, allocation and
// composition) and is shared with the CLI plan command.
package assembly
