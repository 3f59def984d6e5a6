package optimizer

import (
	"github.com/roach88/rulesort/internal/compiler"
	"github.com/roach88/rulesort/internal/orm"
	"github.com/roach88/rulesort/internal/spec"
)

// OrderColumn is one term of the ORDER BY applied outside a UNION. Name is
// the member column alias ("age_2").
type OrderColumn struct {
	Name      string
	Direction spec.Direction
}

// String renders the term as "name DIR".
func (o OrderColumn) String() string { return o.Name + " " + string(o.Direction) }

// State is the value threaded through the optimizer phases.
//
// Target is a *orm.QueryBuilder until Finalize builds a UNION, an
// *orm.NativeQuery afterwards.
type State struct {
	target    any
	filter    spec.Specification
	composite *spec.FilterTemplateComposite
	orderBy   []OrderColumn
	ectx      compiler.ExecutionContext
}

// NewState returns a state with no extracted disjunction.
func NewState(target any, filter spec.Specification) *State {
	return &State{target: target, filter: filter}
}

// Target returns the query builder or the UNION query.
func (s *State) Target() any { return s.target }

// Builder returns the target when it is still a query builder.
func (s *State) Builder() (*orm.QueryBuilder, bool) {
	qb, ok := s.target.(*orm.QueryBuilder)
	return qb, ok
}

// Filter returns the filter left after extraction, nil when none remains.
func (s *State) Filter() spec.Specification { return s.filter }

// Composite returns the extracted filter-template disjunction.
func (s *State) Composite() *spec.FilterTemplateComposite { return s.composite }

// CanBeOptimized reports whether a disjunction was extracted.
func (s *State) CanBeOptimized() bool { return s.composite != nil }

// OrderBy returns the ORDER BY applied outside the UNION.
func (s *State) OrderBy() []OrderColumn {
	return append([]OrderColumn(nil), s.orderBy...)
}

// ExecutionContext returns the context union members are filtered with.
func (s *State) ExecutionContext() compiler.ExecutionContext { return s.ectx }

// WithTarget returns a copy of s carrying target.
func (s *State) WithTarget(target any) *State {
	next := *s
	next.target = target
	return &next
}

// WithExecutionContext returns a copy of s carrying ectx.
func (s *State) WithExecutionContext(ectx compiler.ExecutionContext) *State {
	next := *s
	next.ectx = ectx
	return &next
}
