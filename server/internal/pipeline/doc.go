// Package pipeline runs one dashboard refresh: fetch the series from the
// TTL cache (generating it if stale), score every reading, evaluate the
// latest score against the alert threshold, and return everything as an
// immutable Snapshot for the presentation layer.
//
// A refresh either returns a complete Snapshot or an error; nothing is
// exposed mid-computation. Only the cache slot is shared between refreshes.
package pipeline
