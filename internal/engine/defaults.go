package engine

import (
	"github.com/roach88/rulesort/internal/compiler"
	"github.com/roach88/rulesort/internal/native"
	"github.com/roach88/rulesort/internal/relational"
)

// DefaultSorting returns a SortingEngine serving query builders and
// in-memory collections.
func DefaultSorting(c *compiler.Compiler) *SortingEngine {
	return NewSortingEngine(c, relational.NewSortTarget(nil), native.NewSortTarget(nil))
}

// DefaultFiltering returns a FilteringEngine serving query builders and
// in-memory collections.
func DefaultFiltering(c *compiler.Compiler) *FilteringEngine {
	return NewFilteringEngine(c, relational.NewFilterTarget(nil), native.NewFilterTarget(nil))
}
