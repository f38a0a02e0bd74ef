// Package pexels searches the Pexels video API and turns results into
// footage candidate pools.
//
// Searches are per keyword in portrait orientation. A multi-word keyword
// with no hits is retried one word at a time. Videos shorter than the block
// needs are dropped and each remaining video contributes its largest .mp4
// rendition. Requests are retried on rate limits, server errors and network
// failures with an incrementing wait.
package pexels
