package feed

import (
	"regexp"
	"sync"
)

// PatternCache compiles user-authored regular expressions once and caches
// the result, including compile failures. Success patterns and rule
// patterns come from feed configuration, so a bad expression is a
// configuration error surfaced at the point of use, never a panic.
type PatternCache struct {
	mu       sync.RWMutex
	compiled map[string]*regexp.Regexp
	failed   map[string]error
}

// NewPatternCache creates an empty pattern cache
func NewPatternCache() *PatternCache {
	return &PatternCache{
		compiled: make(map[string]*regexp.Regexp),
		failed:   make(map[string]error),
	}
}

// Get returns the compiled pattern for the expression, compiling it on
// first use. Both outcomes are cached, so a feed with a broken pattern
// does not pay recompilation on every lead.
func (c *PatternCache) Get(expr string) (*regexp.Regexp, error) {
	c.mu.RLock()
	re, ok := c.compiled[expr]
	if ok {
		c.mu.RUnlock()
		return re, nil
	}
	err, ok := c.failed[expr]
	c.mu.RUnlock()
	if ok {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if re, ok := c.compiled[expr]; ok {
		return re, nil
	}
	if err, ok := c.failed[expr]; ok {
		return nil, err
	}

	re, err = regexp.Compile(expr)
	if err != nil {
		c.failed[expr] = err
		return nil, err
	}
	c.compiled[expr] = re
	return re, nil
}
