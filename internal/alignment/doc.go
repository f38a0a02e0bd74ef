// Package alignment attaches transcribed words to the script blocks that were
// narrated.
//
// The transcription rarely reproduces the script exactly, so Align walks one
// forward-only cursor over the word stream and matches script tokens by their
// normalized form. Tokens that cannot be found are skipped and reported as
// misses; the cursor never moves backwards.
package alignment
