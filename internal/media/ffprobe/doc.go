// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Prober: runs ffprobe through a replaceable command runner
//   - Result: parsed ffprobe output containing streams and format metadata
//
// Prober.Duration is what the assembly uses to measure narration and
// downloaded clips.
package ffprobe
