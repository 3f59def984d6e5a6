package relational

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/rulesort/internal/compiler"
	"github.com/roach88/rulesort/internal/orm"
	"github.com/roach88/rulesort/internal/queryir"
	"github.com/roach88/rulesort/internal/rule"
	"github.com/roach88/rulesort/internal/spec"
)

// SortTarget compiles sort rules into ORDER BY terms of a query builder.
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
func (t *SortTarget) Name() string { return "relational-sort" }

// Supports implements compiler.Target.
func (t *SortTarget) Supports(target any, mode compiler.Mode) bool {
	if _, ok := target.(*orm.QueryBuilder); !ok {
		return false
	}
	switch mode {
	case compiler.ModeSort, compiler.ModeApplySort, compiler.ModeSatisfies:
		return true
	}
	return false
}

// Compile implements compiler.Target. Every clause of the conjunction
// becomes one ORDER BY term.
func (t *SortTarget) Compile(n rule.Node) (compiler.Executor, error) {
	exec := &sortExecutor{}
	for _, clause := range rule.Conjuncts(n) {
		b, ok := clause.(rule.Binary)
		if !ok {
			if _, isNot := clause.(rule.Not); isNot {
				return nil, &compiler.OperatorNotFoundError{Operator: "not", Target: t.Name()}
			}
			return nil, fmt.Errorf("sort clause must have the form key = parameter, got %T", clause)
		}
		if b.Op != "=" {
			return nil, &compiler.OperatorNotFoundError{Operator: b.Op, Target: t.Name()}
		}
		param, ok := b.Right.(rule.Parameter)
		if !ok {
			return nil, fmt.Errorf("sort clause must bind its direction to a parameter, got %T", b.Right)
		}
		key, err := compileKey(b.Left, t.operators, t.Name())
		if err != nil {
			return nil, err
		}
		exec.clauses = append(exec.clauses, sortClause{key: key, direction: param})
	}
	return exec, nil
}

// sortKey produces the ORDER BY expression of one clause for a builder.
type sortKey interface {
	expr(qb *orm.QueryBuilder) (queryir.Expr, error)
}

type pathKey struct{ path []string }

func (k pathKey) expr(qb *orm.QueryBuilder) (queryir.Expr, error) {
	return resolveColumn(qb, k.path)
}

type literalKey struct{ value any }

func (k literalKey) expr(*orm.QueryBuilder) (queryir.Expr, error) {
	return queryir.Param{Value: k.value}, nil
}

type operatorKey struct {
	name string
	op   Operator
	args []sortKey
}

func (k operatorKey) expr(qb *orm.QueryBuilder) (queryir.Expr, error) {
	args := make([]queryir.Expr, len(k.args))
	for i, arg := range k.args {
		e, err := arg.expr(qb)
		if err != nil {
			return nil, err
		}
		args[i] = e
	}
	return k.op(args)
}

func compileKey(n rule.Node, ops Operators, target string) (sortKey, error) {
	switch node := n.(type) {
	case rule.Access:
		return pathKey{path: node.Path}, nil
	case rule.Literal:
		return literalKey{value: node.Value}, nil
	case rule.Call:
		op, ok := ops[node.Name]
		if !ok {
			return nil, &compiler.OperatorNotFoundError{Operator: node.Name, Target: target}
		}
		key := operatorKey{name: node.Name, op: op}
		for _, arg := range node.Args {
			argKey, err := compileKey(arg, ops, target)
			if err != nil {
				return nil, err
			}
			key.args = append(key.args, argKey)
		}
		return key, nil
	case rule.Binary:
		return nil, &compiler.OperatorNotFoundError{Operator: node.Op, Target: target}
	case rule.Not:
		return nil, &compiler.OperatorNotFoundError{Operator: "not", Target: target}
	}
	return nil, fmt.Errorf("%T cannot be used as a sort key", n)
}

type sortClause struct {
	key       sortKey
	direction rule.Parameter
}

type sortExecutor struct {
	compiler.Unsupported
	clauses []sortClause
}

// ApplySort implements compiler.Executor. It adds the joins the keys need
// and one ORDER BY term per clause to the builder, and returns it. On
// error the builder is left untouched.
func (e *sortExecutor) ApplySort(_ context.Context, target any, params spec.Parameters, _ compiler.ExecutionContext) (any, error) {
	qb, err := builder(target)
	if err != nil {
		return nil, err
	}

	scratch := qb.Clone()
	terms := make([]queryir.OrderTerm, len(e.clauses))
	for i, clause := range e.clauses {
		v, ok := params.Lookup(clause.direction.Name, clause.direction.Index)
		if !ok {
			return nil, fmt.Errorf("missing direction parameter for sort key %d", i)
		}
		dir, err := spec.ParseDirection(v)
		if err != nil {
			return nil, fmt.Errorf("sort key %d: %w", i, err)
		}
		expr, err := clause.key.expr(scratch)
		if err != nil {
			return nil, fmt.Errorf("sort key %d: %w", i, err)
		}
		terms[i] = queryir.OrderTerm{Expr: expr, Direction: dir}
	}

	merge(qb, scratch)
	qb.AddOrderBy(terms...)
	slog.Debug("applied sort", "terms", len(terms), "joins", len(qb.Joins()))
	return qb, nil
}

// Sort implements compiler.Executor: it sorts a clone of the builder and
// executes it.
func (e *sortExecutor) Sort(ctx context.Context, target any, params spec.Parameters, ectx compiler.ExecutionContext) (any, error) {
	qb, err := builder(target)
	if err != nil {
		return nil, err
	}
	sorted := qb.Clone()
	if _, err := e.ApplySort(ctx, sorted, params, ectx); err != nil {
		return nil, err
	}
	q, err := sorted.GetQuery()
	if err != nil {
		return nil, err
	}
	return q.Result(ctx)
}

// Satisfies implements compiler.Executor: the builder satisfies the rule
// when the sorted query returns at least one record.
func (e *sortExecutor) Satisfies(ctx context.Context, target any, params spec.Parameters, ectx compiler.ExecutionContext) (bool, error) {
	result, err := e.Sort(ctx, target, params, ectx)
	if err != nil {
		return false, err
	}
	return len(result.([]orm.Record)) > 0, nil
}
