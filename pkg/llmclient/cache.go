package llmclient

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// extractCacheSize bounds the memoized-extraction cache; job retries often
// replay an identical model reply (same payload, same prompt), so this
// avoids re-running the brace-balancing scan on every retry.
const extractCacheSize = 256

// ExtractCache memoizes ExtractJSON's balanced-object search by raw reply
// string, bounded via github.com/hashicorp/golang-lru/v2 so a pathological
// stream of unique replies can't grow it unbounded.
type ExtractCache struct {
	candidates *lru.Cache[string, string]
}

// NewExtractCache builds an ExtractCache with the package's fixed bound.
func NewExtractCache() *ExtractCache {
	c, err := lru.New[string, string](extractCacheSize)
	if err != nil {
		panic(err) // only fails for a non-positive size, which extractCacheSize never is
	}
	return &ExtractCache{candidates: c}
}

// ExtractJSON behaves like the package-level ExtractJSON but memoizes the
// balanced-object candidate substring per raw reply.
func (c *ExtractCache) ExtractJSON(reply string, out any) error {
	if candidate, ok := c.candidates.Get(reply); ok {
		return unmarshalCandidate(candidate, out)
	}
	candidate, err := findCandidate(reply)
	if err != nil {
		return err
	}
	c.candidates.Add(reply, candidate)
	return unmarshalCandidate(candidate, out)
}
