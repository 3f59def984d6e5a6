package native

import (
	"context"
	"fmt"

	"github.com/roach88/rulesort/internal/compiler"
	"github.com/roach88/rulesort/internal/rule"
	"github.com/roach88/rulesort/internal/spec"
)

// FilterTarget compiles boolean rules for in-memory records and
// collections.
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
func (t *FilterTarget) Name() string { return "native-filter" }

// Supports implements compiler.Target.
func (t *FilterTarget) Supports(target any, mode compiler.Mode) bool {
	switch mode {
	case compiler.ModeFilter:
		return IsCollection(target)
	case compiler.ModeSatisfies:
		return target != nil && !IsCollection(target)
	}
	return false
}

// Compile implements compiler.Target.
func (t *FilterTarget) Compile(n rule.Node) (compiler.Executor, error) {
	eval, err := t.compile(n)
	if err != nil {
		return nil, err
	}
	return &filterExecutor{eval: eval}, nil
}

type evaluator func(record any, params spec.Parameters, ectx compiler.ExecutionContext) (any, error)

func (t *FilterTarget) compile(n rule.Node) (evaluator, error) {
	switch node := n.(type) {
	case rule.Access:
		return func(record any, _ spec.Parameters, _ compiler.ExecutionContext) (any, error) {
			return Resolve(record, node.Path), nil
		}, nil
	case rule.Literal:
		return func(any, spec.Parameters, compiler.ExecutionContext) (any, error) {
			return node.Value, nil
		}, nil
	case rule.Parameter:
		return func(_ any, params spec.Parameters, _ compiler.ExecutionContext) (any, error) {
			v, ok := params.Lookup(node.Name, node.Index)
			if !ok {
				return nil, fmt.Errorf("missing parameter %s", describeParam(node))
			}
			return v, nil
		}, nil
	case rule.Not:
		operand, err := t.compile(node.Operand)
		if err != nil {
			return nil, err
		}
		return func(record any, params spec.Parameters, ectx compiler.ExecutionContext) (any, error) {
			v, err := operand(record, params, ectx)
			if err != nil {
				return nil, err
			}
			return !Truthy(v), nil
		}, nil
	case rule.Call:
		return t.compileCall(node)
	case rule.Binary:
		return t.compileBinary(node)
	}
	return nil, fmt.Errorf("unsupported rule node %T", n)
}

func (t *FilterTarget) compileCall(node rule.Call) (evaluator, error) {
	op, ok := t.operators[node.Name]
	if !ok {
		return nil, &compiler.OperatorNotFoundError{Operator: node.Name, Target: t.Name()}
	}
	args := make([]evaluator, len(node.Args))
	for i, arg := range node.Args {
		eval, err := t.compile(arg)
		if err != nil {
			return nil, err
		}
		args[i] = eval
	}
	return func(record any, params spec.Parameters, ectx compiler.ExecutionContext) (any, error) {
		values := make([]any, len(args))
		for i, arg := range args {
			v, err := arg(record, params, ectx)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		return op(ectx, values)
	}, nil
}

func (t *FilterTarget) compileBinary(node rule.Binary) (evaluator, error) {
	left, err := t.compile(node.Left)
	if err != nil {
		return nil, err
	}
	right, err := t.compile(node.Right)
	if err != nil {
		return nil, err
	}

	var test func(c int) bool
	switch node.Op {
	case "and", "or":
		and := node.Op == "and"
		return func(record any, params spec.Parameters, ectx compiler.ExecutionContext) (any, error) {
			l, err := left(record, params, ectx)
			if err != nil {
				return nil, err
			}
			if Truthy(l) != and {
				return !and, nil
			}
			r, err := right(record, params, ectx)
			if err != nil {
				return nil, err
			}
			return Truthy(r), nil
		}, nil
	case "=":
		test = func(c int) bool { return c == 0 }
	case "!=":
		test = func(c int) bool { return c != 0 }
	case "<":
		test = func(c int) bool { return c < 0 }
	case "<=":
		test = func(c int) bool { return c <= 0 }
	case ">":
		test = func(c int) bool { return c > 0 }
	case ">=":
		test = func(c int) bool { return c >= 0 }
	default:
		return nil, &compiler.OperatorNotFoundError{Operator: node.Op, Target: t.Name()}
	}

	return func(record any, params spec.Parameters, ectx compiler.ExecutionContext) (any, error) {
		l, err := left(record, params, ectx)
		if err != nil {
			return nil, err
		}
		r, err := right(record, params, ectx)
		if err != nil {
			return nil, err
		}
		return test(Compare(l, r)), nil
	}, nil
}

func describeParam(p rule.Parameter) string {
	if p.Name != "" {
		return ":" + p.Name
	}
	return fmt.Sprintf("#%d", p.Index)
}

type filterExecutor struct {
	compiler.Unsupported
	eval evaluator
}

// Filter implements compiler.Executor.
func (e *filterExecutor) Filter(_ context.Context, target any, params spec.Parameters, ectx compiler.ExecutionContext) (any, error) {
	items, rebuild, err := Collect(target)
	if err != nil {
		return nil, err
	}
	kept := items[:0]
	for _, item := range items {
		v, err := e.eval(item, params, ectx)
		if err != nil {
			return nil, err
		}
		if Truthy(v) {
			kept = append(kept, item)
		}
	}
	return rebuild(kept), nil
}

// Satisfies implements compiler.Executor.
func (e *filterExecutor) Satisfies(_ context.Context, target any, params spec.Parameters, ectx compiler.ExecutionContext) (bool, error) {
	v, err := e.eval(target, params, ectx)
	if err != nil {
		return false, err
	}
	return Truthy(v), nil
}
