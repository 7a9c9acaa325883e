package store

import (
	"log/slog"
	"sync"
	"time"

	"github.com/aegismon/aegis/pkg/types"
)

// GenerateFunc produces a fresh series for the given instant.
type GenerateFunc func(now time.Time) (types.Series, error)

// Entry is a series together with the time it was generated.
type Entry struct {
	Series      types.Series
	GeneratedAt time.Time
}

// Age returns how old the entry is at now.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.GeneratedAt)
}

// Cache memoizes the output of a GenerateFunc for a caller-chosen TTL.
//
// All exported methods are safe for concurrent use. Generation runs under
// the cache lock, so the GenerateFunc is never called concurrently.
type Cache struct {
	generate GenerateFunc

	mu    sync.Mutex
	entry *Entry
}

// New creates an empty Cache backed by generate.
func New(generate GenerateFunc) *Cache {
	return &Cache{generate: generate}
}

// GetOrGenerate returns the cached series if it is younger than ttl at now,
// otherwise it generates, stores and returns a new one. A non-positive ttl
// always regenerates. A failed generation leaves the previous slot intact.
//
// The returned Series is a copy; callers may modify it freely.
func (c *Cache) GetOrGenerate(now time.Time, ttl time.Duration) (Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entry != nil {
		if age := c.entry.Age(now); age >= 0 && age < ttl {
			return Entry{Series: c.entry.Series.Clone(), GeneratedAt: c.entry.GeneratedAt}, nil
		}
	}

	series, err := c.generate(now)
	if err != nil {
		return Entry{}, err
	}
	c.entry = &Entry{Series: series, GeneratedAt: now}
	slog.Debug("store: generated series", "samples", len(series), "generated_at", now)

	return Entry{Series: series.Clone(), GeneratedAt: now}, nil
}

// Peek returns the cached entry without regenerating, and false if the
// cache has never been filled.
func (c *Cache) Peek() (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry == nil {
		return Entry{}, false
	}
	return Entry{Series: c.entry.Series.Clone(), GeneratedAt: c.entry.GeneratedAt}, true
}
