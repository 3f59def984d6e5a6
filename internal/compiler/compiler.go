package compiler

import (
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/roach88/rulesort/internal/rule"
)

// DefaultCacheSize is the number of executors kept by New.
const DefaultCacheSize = 256

// Compiler parses rules and caches the executors built from them.
type Compiler struct {
	cache *lru.Cache[cacheKey, Executor]
}

// cacheKey identifies an executor by the target instance that compiled it.
// Targets sharing a name may be configured differently.
type cacheKey struct {
	target Target
	rule   string
}

// New creates a Compiler caching up to size executors. A size <= 0 selects
// DefaultCacheSize.
func New(size int) *Compiler {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[cacheKey, Executor](size)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}
	return &Compiler{cache: cache}
}

// Compile returns the executor for rule text compiled by target. Targets
// must be comparable; every target in this module is a pointer.
func (c *Compiler) Compile(text string, target Target) (Executor, error) {
	key := cacheKey{target: target, rule: text}
	if exec, ok := c.cache.Get(key); ok {
		return exec, nil
	}

	slog.Debug("compiling rule", "target", target.Name(), "rule", text)

	n, err := rule.Parse(text)
	if err != nil {
		return nil, err
	}
	exec, err := target.Compile(n)
	if err != nil {
		return nil, fmt.Errorf("compile %q for %s: %w", text, target.Name(), err)
	}

	c.cache.Add(key, exec)
	return exec, nil
}

// Len returns the number of cached executors.
func (c *Compiler) Len() int {
	return c.cache.Len()
}
