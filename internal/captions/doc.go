// Package captions groups timestamped words into caption lines and writes
// them as SRT or ASS subtitle files.
//
// Segment is a single greedy pass over the word stream: every word lands in
// exactly one line and line order follows word order. The ASS writer emits
// karaoke tags so the active word is highlighted as it is spoken.
package captions
