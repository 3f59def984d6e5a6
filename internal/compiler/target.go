package compiler

import (
	"context"

	"github.com/roach88/rulesort/internal/rule"
	"github.com/roach88/rulesort/internal/spec"
)

// Mode is the operation a target compiler is asked to support.
type Mode string

const (
	ModeSort        Mode = "sort"
	ModeApplySort   Mode = "apply_sort"
	ModeFilter      Mode = "filter"
	ModeApplyFilter Mode = "apply_filter"
	ModeSatisfies   Mode = "satisfies"
)

// ExecutionContext carries caller-supplied named values visible to
// operators at runtime.
type ExecutionContext map[string]any

// Target compiles rules for one kind of target (an in-memory collection, a
// query builder, ...).
type Target interface {
	// Name identifies the target compiler; it is part of the executor cache key.
	Name() string

	// Supports reports whether the compiler handles target in the given mode.
	Supports(target any, mode Mode) bool

	// Compile turns a parsed rule into an executor.
	Compile(n rule.Node) (Executor, error)
}

// Executor is the compiled artifact for one (rule, target compiler) pair.
type Executor interface {
	// Sort returns a freshly ordered result.
	Sort(ctx context.Context, target any, params spec.Parameters, ectx ExecutionContext) (any, error)

	// ApplySort extends target in place with the ordering and returns it.
	ApplySort(ctx context.Context, target any, params spec.Parameters, ectx ExecutionContext) (any, error)

	// Filter returns the elements of target satisfying the rule.
	Filter(ctx context.Context, target any, params spec.Parameters, ectx ExecutionContext) (any, error)

	// ApplyFilter extends target in place with the condition and returns it.
	ApplyFilter(ctx context.Context, target any, params spec.Parameters, ectx ExecutionContext) (any, error)

	// Satisfies reports whether target satisfies the rule.
	Satisfies(ctx context.Context, target any, params spec.Parameters, ectx ExecutionContext) (bool, error)
}

// Unsupported implements every Executor operation by failing with
// ErrNotSupported. Embed it and override what the target supports.
type Unsupported struct{}

func (Unsupported) Sort(context.Context, any, spec.Parameters, ExecutionContext) (any, error) {
	return nil, notSupported(ModeSort)
}

func (Unsupported) ApplySort(context.Context, any, spec.Parameters, ExecutionContext) (any, error) {
	return nil, notSupported(ModeApplySort)
}

func (Unsupported) Filter(context.Context, any, spec.Parameters, ExecutionContext) (any, error) {
	return nil, notSupported(ModeFilter)
}

func (Unsupported) ApplyFilter(context.Context, any, spec.Parameters, ExecutionContext) (any, error) {
	return nil, notSupported(ModeApplyFilter)
}

func (Unsupported) Satisfies(context.Context, any, spec.Parameters, ExecutionContext) (bool, error) {
	return false, notSupported(ModeSatisfies)
}
