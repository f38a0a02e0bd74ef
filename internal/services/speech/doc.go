// Package speech narrates scripts with OpenAI text-to-speech and transcribes
// narration back into a timestamped word stream.
//
// Transcription requests verbose JSON with word granularity so every word
// carries start and end offsets. Timestamps are rounded to centiseconds on
// decode and the stream is validated before it is returned.
package speech
