// Package footage assigns stock clips to timeline segments.
//
// A Registry records, for one assembly run, every clip already placed and the
// furthest timeline point it covers. The Allocator walks segments in order
// and picks, per segment, a clip not yet used (Fresh), a clip still in view
// that can keep playing (Extend), or the first pool candidate (Forced). Each
// choice and its registry update happen under one lock, so parallel callers
// never observe the same clip as fresh.
package footage
