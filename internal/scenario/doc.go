// Package scenario holds the data model shared by every assembly stage.
//
// A Scenario starts as generated script text split into TextBlocks, gains a
// transcribed Word stream once narration exists, and is enriched in place by
// the aligner (block words), the caption segmenter (lines) and the stock
// search (candidate pools). The JSON forms round-trip losslessly: word order
// is preserved and timestamps are quantized to two decimals on decode.
package scenario
