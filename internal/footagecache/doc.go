// Package footagecache downloads stock clips and keeps trimmed renditions
// on disk so repeated assemblies reuse them.
//
// Raw downloads live under downloads/ keyed by clip id. Trimmed renditions
// live under trimmed/ keyed by duration, source offset and clip id. Both are
// plain files; a file's modification time is refreshed whenever it is
// served, and pruning removes the least recently used files first.
//
// # Size Management
//
// The cache enforces a size budget (footage.cache_max_gib) and a minimum
// free-space floor on the underlying volume (footage.cache_min_free_gib).
// Files used by an in-flight fetch are never pruned. Manual pruning is
// available via `storyreel cache prune`.
package footagecache
