// Package textutil provides token normalization and filename helpers.
//
// NormalizeWord is the comparison key used when matching script tokens to
// transcribed words. SanitizeToken turns clip ids into cache file names.
package textutil
