// Package whisperx transcribes narration locally with WhisperX.
//
// The narration is converted to mono 16 kHz WAV with ffmpeg, WhisperX runs
// through uvx, and the per-segment word timings in its JSON output are
// flattened into a word stream. Words WhisperX could not align (digits,
// symbols) inherit timing from their neighbours so the stream stays
// monotonic.
package whisperx
