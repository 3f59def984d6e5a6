package relational

import (
	"fmt"
	"strings"

	"github.com/roach88/rulesort/internal/queryir"
	"github.com/roach88/rulesort/internal/querysql"
)

// Operator builds a SQL expression from its compiled arguments.
type Operator func(args []queryir.Expr) (queryir.Expr, error)

// Operators maps lower-case operator names to implementations.
type Operators map[string]Operator

// DefaultOperators returns the portable SQL functions every dialect
// renders.
func DefaultOperators() Operators {
	ops := Operators{}
	for _, name := range []string{"length", "lower", "upper", "abs", "trim", "coalesce", "concat"} {
		ops[name] = function(name)
	}
	return ops
}

// With returns a copy of ops extended with extra, extra winning on conflict.
func (ops Operators) With(extra Operators) Operators {
	merged := make(Operators, len(ops)+len(extra))
	for name, op := range ops {
		merged[name] = op
	}
	for name, op := range extra {
		merged[strings.ToLower(name)] = op
	}
	return merged
}

func function(name string) Operator {
	return func(args []queryir.Expr) (queryir.Expr, error) {
		if !querysql.IsFunction(name) {
			return nil, fmt.Errorf("%s: %w", name, querysql.ErrUnsupported)
		}
		if name != "concat" && name != "coalesce" && len(args) != 1 {
			return nil, fmt.Errorf("%s: expected 1 argument, got %d", name, len(args))
		}
		return queryir.Func{Name: name, Args: args}, nil
	}
}
