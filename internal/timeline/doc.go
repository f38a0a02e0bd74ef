// Package timeline turns aligned blocks, caption lines and footage
// allocations into ordered render placements.
//
// Footage segments are derived at block or caption-line granularity. Each
// segment runs from the end of the previous one to the start of the next
// unit, so a clip bridges pauses in the narration. Compose merges captions
// and footage into one list ordered by start time and rejects gaps and
// non-positive durations instead of clamping them.
package timeline
