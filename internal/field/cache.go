package field

import (
	"fmt"

	"github.com/maypok86/otter"
)

// DefaultParseCacheSize is the number of distinct option documents kept.
const DefaultParseCacheSize = 10_000

type parseResult struct {
	opts Options
	err  error
}

// ParseCache memoizes option parsing by field type and raw option text, so
// repeated graph builds over unchanged tables skip JSON decoding.
// Cached Options values are shared between builds and must not be mutated.
type ParseCache struct {
	cache otter.Cache[string, parseResult]
}

// NewParseCache creates a cache holding up to capacity parsed documents.
func NewParseCache(capacity int) (*ParseCache, error) {
	if capacity <= 0 {
		capacity = DefaultParseCacheSize
	}
	cache, err := otter.MustBuilder[string, parseResult](capacity).
		CollectStats().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build parse cache: %w", err)
	}
	return &ParseCache{cache: cache}, nil
}

// FromRecord is FromRecord with cached option parsing.
func (c *ParseCache) FromRecord(rec Record) (*Meta, error) {
	return fromRecord(rec, c.parse)
}

func (c *ParseCache) parse(rec Record) (Options, error) {
	key, ok := parseCacheKey(rec)
	if !ok {
		return parseRecordOptions(rec)
	}
	if cached, ok := c.cache.Get(key); ok {
		return cached.opts, cached.err
	}
	opts, err := parseRecordOptions(rec)
	c.cache.Set(key, parseResult{opts: opts, err: err})
	return opts, err
}

// Stats returns the cache hit and miss counters.
func (c *ParseCache) Stats() (hits, misses int64) {
	stats := c.cache.Stats()
	return stats.Hits(), stats.Misses()
}

// Close releases the cache's background resources.
func (c *ParseCache) Close() {
	c.cache.Close()
}

func parseCacheKey(rec Record) (string, bool) {
	var raw *string
	switch rec.Type {
	case TypeLink, TypeConditionalRollup, TypeConditionalLookup:
		raw = rec.Options
	case TypeLookup, TypeRollup:
		raw = rec.LookupOptions
	}
	if raw == nil {
		return "", false
	}
	return string(rec.Type) + "\x00" + *raw, true
}
