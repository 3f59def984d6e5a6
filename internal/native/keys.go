package native

import (
	"fmt"

	"github.com/roach88/rulesort/internal/compiler"
	"github.com/roach88/rulesort/internal/rule"
)

// Key computes one sort key for a record.
type Key interface {
	Value(record any, ectx compiler.ExecutionContext) (any, error)
}

// PathKey reads a property path.
type PathKey struct {
	Path []string
}

// Value implements Key.
func (k PathKey) Value(record any, _ compiler.ExecutionContext) (any, error) {
	return Resolve(record, k.Path), nil
}

// OperatorKey is a computed sort key: an operator evaluated over the values
// of its argument keys, resolved per record.
type OperatorKey struct {
	Name     string
	Operator Operator
	Args     []Key
}

// Value implements Key.
func (k OperatorKey) Value(record any, ectx compiler.ExecutionContext) (any, error) {
	args := make([]any, len(k.Args))
	for i, arg := range k.Args {
		v, err := arg.Value(record, ectx)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	v, err := k.Operator(ectx, args)
	if err != nil {
		return nil, fmt.Errorf("operator %s: %w", k.Name, err)
	}
	return v, nil
}

// LiteralKey is a constant operator argument.
type LiteralKey struct {
	Constant any
}

// Value implements Key.
func (k LiteralKey) Value(any, compiler.ExecutionContext) (any, error) {
	return k.Constant, nil
}

func compileKey(n rule.Node, ops Operators, target string) (Key, error) {
	switch node := n.(type) {
	case rule.Access:
		return PathKey{Path: node.Path}, nil
	case rule.Literal:
		return LiteralKey{Constant: node.Value}, nil
	case rule.Call:
		op, ok := ops[node.Name]
		if !ok {
			return nil, &compiler.OperatorNotFoundError{Operator: node.Name, Target: target}
		}
		key := OperatorKey{Name: node.Name, Operator: op}
		for _, arg := range node.Args {
			argKey, err := compileKey(arg, ops, target)
			if err != nil {
				return nil, err
			}
			key.Args = append(key.Args, argKey)
		}
		return key, nil
	case rule.Binary:
		return nil, &compiler.OperatorNotFoundError{Operator: node.Op, Target: target}
	case rule.Not:
		return nil, &compiler.OperatorNotFoundError{Operator: "not", Target: target}
	default:
		return nil, fmt.Errorf("%T cannot be used as a sort key", n)
	}
}
