package engine

import (
	"context"

	"github.com/roach88/rulesort/internal/compiler"
	"github.com/roach88/rulesort/internal/spec"
)

// SortingEngine sorts targets by rules.
type SortingEngine struct {
	registry
}

// NewSortingEngine creates a SortingEngine. A nil compiler selects a new
// one with the default cache size.
func NewSortingEngine(c *compiler.Compiler, targets ...compiler.Target) *SortingEngine {
	return &SortingEngine{registry: newRegistry(c, targets)}
}

// Sort returns a freshly ordered result.
func (e *SortingEngine) Sort(ctx context.Context, target any, rule string, params spec.Parameters, ectx compiler.ExecutionContext) (any, error) {
	exec, err := e.executor(rule, target, compiler.ModeSort)
	if err != nil {
		return nil, err
	}
	return exec.Sort(ctx, target, params, ectx)
}

// ApplySort extends target in place with the ordering and returns it.
func (e *SortingEngine) ApplySort(ctx context.Context, target any, rule string, params spec.Parameters, ectx compiler.ExecutionContext) (any, error) {
	exec, err := e.executor(rule, target, compiler.ModeApplySort)
	if err != nil {
		return nil, err
	}
	return exec.ApplySort(ctx, target, params, ectx)
}

// Satisfies reports whether sorting target by rule yields anything.
func (e *SortingEngine) Satisfies(ctx context.Context, target any, rule string, params spec.Parameters, ectx compiler.ExecutionContext) (bool, error) {
	exec, err := e.executor(rule, target, compiler.ModeSatisfies)
	if err != nil {
		return false, err
	}
	return exec.Satisfies(ctx, target, params, ectx)
}

// SortSpec is Sort with a specification.
func (e *SortingEngine) SortSpec(ctx context.Context, target any, s spec.Specification, ectx compiler.ExecutionContext) (any, error) {
	return e.Sort(ctx, target, s.Rule(), s.Parameters(), ectx)
}

// ApplySortSpec is ApplySort with a specification.
func (e *SortingEngine) ApplySortSpec(ctx context.Context, target any, s spec.Specification, ectx compiler.ExecutionContext) (any, error) {
	return e.ApplySort(ctx, target, s.Rule(), s.Parameters(), ectx)
}

// SatisfiesSpec is Satisfies with a specification.
func (e *SortingEngine) SatisfiesSpec(ctx context.Context, target any, s spec.Specification, ectx compiler.ExecutionContext) (bool, error) {
	return e.Satisfies(ctx, target, s.Rule(), s.Parameters(), ectx)
}
