package native

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/roach88/rulesort/internal/compiler"
)

// Operator is a function callable from rules, e.g. "length(name)". It
// receives the evaluated arguments in order.
type Operator func(ectx compiler.ExecutionContext, args []any) (any, error)

// Operators maps lower-case operator names to implementations.
type Operators map[string]Operator

// DefaultOperators returns the operators available to in-memory rules.
func DefaultOperators() Operators {
	return Operators{
		"length":   opLength,
		"lower":    stringOp(strings.ToLower),
		"upper":    stringOp(strings.ToUpper),
		"trim":     stringOp(strings.TrimSpace),
		"abs":      opAbs,
		"concat":   opConcat,
		"coalesce": opCoalesce,
		"like":     opLike,
		"ctx":      opContext,
	}
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

func arity(name string, args []any, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s: expected %d argument(s), got %d", name, n, len(args))
	}
	return nil
}

func opLength(_ compiler.ExecutionContext, args []any) (any, error) {
	if err := arity("length", args, 1); err != nil {
		return nil, err
	}
	v := deref(args[0])
	if v == nil {
		return int64(0), nil
	}
	if s, ok := v.(string); ok {
		return int64(utf8.RuneCountInString(s)), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return int64(rv.Len()), nil
	}
	return int64(utf8.RuneCountInString(fmt.Sprint(v))), nil
}

func stringOp(fn func(string) string) Operator {
	return func(_ compiler.ExecutionContext, args []any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		v := deref(args[0])
		if v == nil {
			return nil, nil
		}
		return fn(fmt.Sprint(v)), nil
	}
}

func opAbs(_ compiler.ExecutionContext, args []any) (any, error) {
	if err := arity("abs", args, 1); err != nil {
		return nil, err
	}
	v := deref(args[0])
	if class(v) != classNumber {
		return nil, fmt.Errorf("abs: not a number: %v", v)
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.CanInt():
		if i := rv.Int(); i < 0 {
			return -i, nil
		}
		return rv.Int(), nil
	case rv.CanUint():
		return rv.Uint(), nil
	}
	return math.Abs(rv.Float()), nil
}

func opConcat(_ compiler.ExecutionContext, args []any) (any, error) {
	var b strings.Builder
	for _, arg := range args {
		if v := deref(arg); v != nil {
			fmt.Fprint(&b, v)
		}
	}
	return b.String(), nil
}

func opCoalesce(_ compiler.ExecutionContext, args []any) (any, error) {
	for _, arg := range args {
		if v := deref(arg); v != nil {
			return v, nil
		}
	}
	return nil, nil
}

// opLike implements SQL LIKE: '%' matches any run, '_' any single character.
func opLike(_ compiler.ExecutionContext, args []any) (any, error) {
	if err := arity("like", args, 2); err != nil {
		return nil, err
	}
	v, pattern := deref(args[0]), deref(args[1])
	if v == nil || pattern == nil {
		return false, nil
	}

	var expr strings.Builder
	expr.WriteString("(?s)^")
	for _, r := range fmt.Sprint(pattern) {
		switch r {
		case '%':
			expr.WriteString(".*")
		case '_':
			expr.WriteString(".")
		default:
			expr.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	expr.WriteString("$")

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, fmt.Errorf("like: %w", err)
	}
	return re.MatchString(fmt.Sprint(v)), nil
}

// opContext reads a value of the execution context: ctx('tenant').
func opContext(ectx compiler.ExecutionContext, args []any) (any, error) {
	if err := arity("ctx", args, 1); err != nil {
		return nil, err
	}
	name, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("ctx: key must be a string, got %T", args[0])
	}
	return ectx[name], nil
}
