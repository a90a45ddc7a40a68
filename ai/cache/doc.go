// Package cache provides caching decorators for ai.Embedder.
//
// LRU keeps recently used vectors in memory, keyed by model and text.
// Persistent reads and writes vectors through a storage.VectorCache so that
// unchanged profile texts and topic names are not re-embedded across runs.
// Provider applies either or both to every embedder a provider hands out.
//
// Inside one batch each distinct text is sent to the inner embedder at most
// once; duplicates share the returned vector.
package cache
