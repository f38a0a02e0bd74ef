// Package ffmpeg builds and runs the ffmpeg invocations of an assembly run.
//
// Encoder.Trim cuts a stock clip to the span a placement needs and reframes it
// to the portrait output size; it satisfies footagecache.Trimmer. Encoder.Render
// lays the trimmed clips over a black base, burns in the ASS captions and mixes
// narration with an optional background track.
package ffmpeg
