package engine

import (
	"context"

	"github.com/roach88/rulesort/internal/compiler"
	"github.com/roach88/rulesort/internal/spec"
)

// FilteringEngine filters targets by rules.
type FilteringEngine struct {
	registry
}

// NewFilteringEngine creates a FilteringEngine. A nil compiler selects a
// new one with the default cache size.
func NewFilteringEngine(c *compiler.Compiler, targets ...compiler.Target) *FilteringEngine {
	return &FilteringEngine{registry: newRegistry(c, targets)}
}

// Filter returns the elements of target satisfying rule.
func (e *FilteringEngine) Filter(ctx context.Context, target any, rule string, params spec.Parameters, ectx compiler.ExecutionContext) (any, error) {
	exec, err := e.executor(rule, target, compiler.ModeFilter)
	if err != nil {
		return nil, err
	}
	return exec.Filter(ctx, target, params, ectx)
}

// ApplyFilter extends target in place with the condition and returns it.
func (e *FilteringEngine) ApplyFilter(ctx context.Context, target any, rule string, params spec.Parameters, ectx compiler.ExecutionContext) (any, error) {
	exec, err := e.executor(rule, target, compiler.ModeApplyFilter)
	if err != nil {
		return nil, err
	}
	return exec.ApplyFilter(ctx, target, params, ectx)
}

// Satisfies reports whether target satisfies rule.
func (e *FilteringEngine) Satisfies(ctx context.Context, target any, rule string, params spec.Parameters, ectx compiler.ExecutionContext) (bool, error) {
	exec, err := e.executor(rule, target, compiler.ModeSatisfies)
	if err != nil {
		return false, err
	}
	return exec.Satisfies(ctx, target, params, ectx)
}

// FilterSpec is Filter with a specification.
func (e *FilteringEngine) FilterSpec(ctx context.Context, target any, s spec.Specification, ectx compiler.ExecutionContext) (any, error) {
	return e.Filter(ctx, target, s.Rule(), s.Parameters(), ectx)
}

// ApplyFilterSpec is ApplyFilter with a specification.
func (e *FilteringEngine) ApplyFilterSpec(ctx context.Context, target any, s spec.Specification, ectx compiler.ExecutionContext) (any, error) {
	return e.ApplyFilter(ctx, target, s.Rule(), s.Parameters(), ectx)
}

// SatisfiesSpec is Satisfies with a specification.
func (e *FilteringEngine) SatisfiesSpec(ctx context.Context, target any, s spec.Specification, ectx compiler.ExecutionContext) (bool, error) {
	return e.Satisfies(ctx, target, s.Rule(), s.Parameters(), ectx)
}
