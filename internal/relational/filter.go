package relational

import (
	"context"
	"fmt"

	"github.com/roach88/rulesort/internal/compiler"
	"github.com/roach88/rulesort/internal/orm"
	"github.com/roach88/rulesort/internal/queryir"
	"github.com/roach88/rulesort/internal/rule"
	"github.com/roach88/rulesort/internal/spec"
)

// FilterTarget compiles boolean rules into WHERE conditions of a query
// builder.
//
// Besides the SQL functions of its operators it understands:
//
//	like(path, pattern)         SQL LIKE
//	match(path..., query)       full-text relevance, true when > 0
//	ctx('key')                  a value of the execution context
type FilterTarget struct {
	operators Operators
}

// NewFilterTarget creates a FilterTarget. A nil ops selects
// DefaultOperators.
func NewFilterTarget(ops Operators) *FilterTarget {
	if ops == nil {
		ops = DefaultOperators()
	}
	return &FilterTarget{operators: ops}
}

// Name implements compiler.Target.
func (t *FilterTarget) Name() string { return "relational-filter" }

// Supports implements compiler.Target.
func (t *FilterTarget) Supports(target any, mode compiler.Mode) bool {
	if _, ok := target.(*orm.QueryBuilder); !ok {
		return false
	}
	switch mode {
	case compiler.ModeFilter, compiler.ModeApplyFilter, compiler.ModeSatisfies:
		return true
	}
	return false
}

type scope struct {
	qb     *orm.QueryBuilder
	params spec.Parameters
	ectx   compiler.ExecutionContext
}

type (
	predicateFn func(s scope) (queryir.Predicate, error)
	exprFn      func(s scope) (queryir.Expr, error)
)

// Compile implements compiler.Target.
func (t *FilterTarget) Compile(n rule.Node) (compiler.Executor, error) {
	pred, err := t.predicate(n)
	if err != nil {
		return nil, err
	}
	return &filterExecutor{predicate: pred}, nil
}

var comparisonOps = map[string]bool{"=": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

func (t *FilterTarget) predicate(n rule.Node) (predicateFn, error) {
	switch node := n.(type) {
	case rule.Binary:
		switch {
		case node.Op == "and" || node.Op == "or":
			left, err := t.predicate(node.Left)
			if err != nil {
				return nil, err
			}
			right, err := t.predicate(node.Right)
			if err != nil {
				return nil, err
			}
			and := node.Op == "and"
			return func(s scope) (queryir.Predicate, error) {
				l, err := left(s)
				if err != nil {
					return nil, err
				}
				r, err := right(s)
				if err != nil {
					return nil, err
				}
				if and {
					return queryir.And{Predicates: []queryir.Predicate{l, r}}, nil
				}
				return queryir.Or{Predicates: []queryir.Predicate{l, r}}, nil
			}, nil
		case comparisonOps[node.Op]:
			return t.comparison(node.Op, node.Left, node.Right)
		}
		return nil, &compiler.OperatorNotFoundError{Operator: node.Op, Target: t.Name()}

	case rule.Not:
		inner, err := t.predicate(node.Operand)
		if err != nil {
			return nil, err
		}
		return func(s scope) (queryir.Predicate, error) {
			p, err := inner(s)
			if err != nil {
				return nil, err
			}
			return queryir.Not{Predicate: p}, nil
		}, nil

	case rule.Call:
		switch node.Name {
		case "like":
			if len(node.Args) != 2 {
				return nil, fmt.Errorf("like: expected 2 arguments, got %d", len(node.Args))
			}
			return t.comparison("LIKE", node.Args[0], node.Args[1])
		case "match":
			match, err := t.expr(node)
			if err != nil {
				return nil, err
			}
			return truth(match, ">", 0), nil
		}
		fn, err := t.expr(node)
		if err != nil {
			return nil, err
		}
		return truth(fn, "=", true), nil

	case rule.Literal:
		if b, ok := node.Value.(bool); ok {
			return func(scope) (queryir.Predicate, error) {
				if b {
					return queryir.And{}, nil
				}
				return queryir.Or{}, nil
			}, nil
		}
	}

	fn, err := t.expr(n)
	if err != nil {
		return nil, err
	}
	return truth(fn, "=", true), nil
}

// truth turns an expression used as a condition into "expr op value".
func truth(fn exprFn, op string, value any) predicateFn {
	return func(s scope) (queryir.Predicate, error) {
		e, err := fn(s)
		if err != nil {
			return nil, err
		}
		return queryir.Compare{Op: op, Left: e, Right: queryir.Param{Value: value}}, nil
	}
}

func (t *FilterTarget) comparison(op string, leftNode, rightNode rule.Node) (predicateFn, error) {
	left, err := t.expr(leftNode)
	if err != nil {
		return nil, err
	}
	right, err := t.expr(rightNode)
	if err != nil {
		return nil, err
	}
	return func(s scope) (queryir.Predicate, error) {
		l, err := left(s)
		if err != nil {
			return nil, err
		}
		r, err := right(s)
		if err != nil {
			return nil, err
		}
		return queryir.Compare{Op: op, Left: l, Right: r}, nil
	}, nil
}

func (t *FilterTarget) expr(n rule.Node) (exprFn, error) {
	switch node := n.(type) {
	case rule.Access:
		return func(s scope) (queryir.Expr, error) {
			return resolveColumn(s.qb, node.Path)
		}, nil

	case rule.Literal:
		return func(scope) (queryir.Expr, error) {
			return queryir.Param{Value: node.Value}, nil
		}, nil

	case rule.Parameter:
		return func(s scope) (queryir.Expr, error) {
			v, ok := s.params.Lookup(node.Name, node.Index)
			if !ok {
				if node.Name != "" {
					return nil, fmt.Errorf("missing parameter :%s", node.Name)
				}
				return nil, fmt.Errorf("missing parameter #%d", node.Index)
			}
			return queryir.Param{Value: v}, nil
		}, nil

	case rule.Call:
		switch node.Name {
		case "match":
			return t.match(node)
		case "ctx":
			return contextValue(node)
		}
		op, ok := t.operators[node.Name]
		if !ok {
			return nil, &compiler.OperatorNotFoundError{Operator: node.Name, Target: t.Name()}
		}
		args := make([]exprFn, len(node.Args))
		for i, arg := range node.Args {
			fn, err := t.expr(arg)
			if err != nil {
				return nil, err
			}
			args[i] = fn
		}
		return func(s scope) (queryir.Expr, error) {
			values := make([]queryir.Expr, len(args))
			for i, arg := range args {
				v, err := arg(s)
				if err != nil {
					return nil, err
				}
				values[i] = v
			}
			return op(values)
		}, nil

	case rule.Binary:
		return nil, &compiler.OperatorNotFoundError{Operator: node.Op, Target: t.Name()}
	case rule.Not:
		return nil, &compiler.OperatorNotFoundError{Operator: "not", Target: t.Name()}
	}
	return nil, fmt.Errorf("unsupported rule node %T", n)
}

func (t *FilterTarget) match(node rule.Call) (exprFn, error) {
	if len(node.Args) < 2 {
		return nil, fmt.Errorf("match: expected at least one column and a query")
	}
	var paths [][]string
	for _, arg := range node.Args[:len(node.Args)-1] {
		access, ok := arg.(rule.Access)
		if !ok {
			return nil, fmt.Errorf("match: columns must be property paths, got %T", arg)
		}
		paths = append(paths, access.Path)
	}
	query, err := t.expr(node.Args[len(node.Args)-1])
	if err != nil {
		return nil, err
	}
	return func(s scope) (queryir.Expr, error) {
		m := queryir.Match{}
		for _, path := range paths {
			col, err := resolveColumn(s.qb, path)
			if err != nil {
				return nil, err
			}
			m.Columns = append(m.Columns, col)
		}
		q, err := query(s)
		if err != nil {
			return nil, err
		}
		m.Query = q
		return m, nil
	}, nil
}

func contextValue(node rule.Call) (exprFn, error) {
	if len(node.Args) != 1 {
		return nil, fmt.Errorf("ctx: expected 1 argument, got %d", len(node.Args))
	}
	lit, ok := node.Args[0].(rule.Literal)
	key, isString := lit.Value.(string)
	if !ok || !isString {
		return nil, fmt.Errorf("ctx: key must be a string literal")
	}
	return func(s scope) (queryir.Expr, error) {
		return queryir.Param{Value: s.ectx[key]}, nil
	}, nil
}

type filterExecutor struct {
	compiler.Unsupported
	predicate predicateFn
}

// ApplyFilter implements compiler.Executor: it ANDs the condition onto the
// builder's WHERE clause and returns the builder. On error the builder is
// left untouched.
func (e *filterExecutor) ApplyFilter(_ context.Context, target any, params spec.Parameters, ectx compiler.ExecutionContext) (any, error) {
	qb, err := builder(target)
	if err != nil {
		return nil, err
	}
	scratch := qb.Clone()
	p, err := e.predicate(scope{qb: scratch, params: params, ectx: ectx})
	if err != nil {
		return nil, err
	}
	merge(qb, scratch)
	qb.AndWhere(p)
	return qb, nil
}

// Filter implements compiler.Executor: it filters a clone of the builder
// and executes it.
func (e *filterExecutor) Filter(ctx context.Context, target any, params spec.Parameters, ectx compiler.ExecutionContext) (any, error) {
	qb, err := builder(target)
	if err != nil {
		return nil, err
	}
	filtered := qb.Clone()
	if _, err := e.ApplyFilter(ctx, filtered, params, ectx); err != nil {
		return nil, err
	}
	q, err := filtered.GetQuery()
	if err != nil {
		return nil, err
	}
	return q.Result(ctx)
}

// Satisfies implements compiler.Executor: true when at least one row
// matches.
func (e *filterExecutor) Satisfies(ctx context.Context, target any, params spec.Parameters, ectx compiler.ExecutionContext) (bool, error) {
	qb, err := builder(target)
	if err != nil {
		return false, err
	}
	probe := qb.Clone()
	if _, err := e.ApplyFilter(ctx, probe, params, ectx); err != nil {
		return false, err
	}
	one := 1
	probe.SetMaxResults(&one)
	q, err := probe.GetQuery()
	if err != nil {
		return false, err
	}
	records, err := q.Result(ctx)
	if err != nil {
		return false, err
	}
	return len(records) > 0, nil
}
