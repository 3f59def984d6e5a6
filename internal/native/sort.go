package native

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/rulesort/internal/compiler"
	"github.com/roach88/rulesort/internal/rule"
	"github.com/roach88/rulesort/internal/spec"
)

// SortTarget compiles sort rules for in-memory collections.
type SortTarget struct {
	operators Operators
}

// NewSortTarget creates a SortTarget. A nil ops selects DefaultOperators.
func NewSortTarget(ops Operators) *SortTarget {
	if ops == nil {
		ops = DefaultOperators()
	}
	return &SortTarget{operators: ops}
}

// Name implements compiler.Target.
func (t *SortTarget) Name() string { return "native-sort" }

// Supports implements compiler.Target. In-memory collections are only ever
// sorted into a new result, never in place.
func (t *SortTarget) Supports(target any, mode compiler.Mode) bool {
	switch mode {
	case compiler.ModeSort, compiler.ModeSatisfies:
		return IsCollection(target)
	}
	return false
}

// Compile implements compiler.Target. The rule must be a conjunction of
// "key = parameter" clauses.
func (t *SortTarget) Compile(n rule.Node) (compiler.Executor, error) {
	plan := &Plan{}
	for _, clause := range rule.Conjuncts(n) {
		key, param, err := sortClause(clause, t.operators, t.Name())
		if err != nil {
			return nil, err
		}
		plan.Keys = append(plan.Keys, key)
		plan.Directions = append(plan.Directions, param)
	}
	return &sortExecutor{plan: plan}, nil
}

func sortClause(clause rule.Node, ops Operators, target string) (Key, rule.Parameter, error) {
	var b rule.Binary
	switch c := clause.(type) {
	case rule.Binary:
		b = c
	case rule.Not:
		return nil, rule.Parameter{}, &compiler.OperatorNotFoundError{Operator: "not", Target: target}
	default:
		return nil, rule.Parameter{}, fmt.Errorf("sort clause must have the form key = parameter, got %T", clause)
	}
	if b.Op != "=" {
		return nil, rule.Parameter{}, &compiler.OperatorNotFoundError{Operator: b.Op, Target: target}
	}

	key, err := compileKey(b.Left, ops, target)
	if err != nil {
		return nil, rule.Parameter{}, err
	}
	param, ok := b.Right.(rule.Parameter)
	if !ok {
		return nil, rule.Parameter{}, fmt.Errorf("sort clause must bind its direction to a parameter, got %T", b.Right)
	}
	return key, param, nil
}

// Plan is a compiled multi-key sort: one key and one direction parameter
// per clause, primary key first.
type Plan struct {
	Keys       []Key
	Directions []rule.Parameter
}

// directions binds the plan's direction parameters.
func (p *Plan) directions(params spec.Parameters) ([]spec.Direction, error) {
	dirs := make([]spec.Direction, len(p.Directions))
	for i, ref := range p.Directions {
		v, ok := params.Lookup(ref.Name, ref.Index)
		if !ok {
			return nil, fmt.Errorf("missing direction parameter for sort key %d", i)
		}
		d, err := spec.ParseDirection(v)
		if err != nil {
			return nil, fmt.Errorf("sort key %d: %w", i, err)
		}
		dirs[i] = d
	}
	return dirs, nil
}

// compareKeys compares two records' key values lexicographically. The first
// unequal key decides, sign-flipped by its direction. When every key is
// equal the result falls back to the last key's outcome (+1 for ascending,
// -1 for descending) and tied is true.
func compareKeys(a, b []any, dirs []spec.Direction) (result int, tied bool) {
	less := true
	sign := 1
	for i, dir := range dirs {
		sign = dir.Sign()
		c := Compare(a[i], b[i])
		less = c < 0
		if c != 0 {
			if less {
				return -sign, false
			}
			return sign, false
		}
	}
	if less {
		return -sign, true
	}
	return sign, true
}

type sortRow struct {
	item any
	keys []any
}

type sortExecutor struct {
	compiler.Unsupported
	plan *Plan
}

// Sort implements compiler.Executor. Records tied on every key keep their
// input order.
func (e *sortExecutor) Sort(_ context.Context, target any, params spec.Parameters, ectx compiler.ExecutionContext) (any, error) {
	dirs, err := e.plan.directions(params)
	if err != nil {
		return nil, err
	}
	items, rebuild, err := Collect(target)
	if err != nil {
		return nil, err
	}

	rows := make([]sortRow, len(items))
	for i, item := range items {
		keys := make([]any, len(e.plan.Keys))
		for k, key := range e.plan.Keys {
			v, err := key.Value(item, ectx)
			if err != nil {
				return nil, err
			}
			keys[k] = v
		}
		rows[i] = sortRow{item: item, keys: keys}
	}

	slices.SortStableFunc(rows, func(a, b sortRow) int {
		c, tied := compareKeys(a.keys, b.keys, dirs)
		if tied {
			return 0
		}
		return c
	})

	for i, row := range rows {
		items[i] = row.item
	}
	return rebuild(items), nil
}

// Satisfies implements compiler.Executor: a collection satisfies a sort
// rule when sorting it yields at least one record.
func (e *sortExecutor) Satisfies(ctx context.Context, target any, params spec.Parameters, ectx compiler.ExecutionContext) (bool, error) {
	sorted, err := e.Sort(ctx, target, params, ectx)
	if err != nil {
		return false, err
	}
	n, err := Len(sorted)
	if err != nil {
		return false, err
	}
	return n != 0, nil
}
