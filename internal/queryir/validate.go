package queryir

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationResult lists the structural problems of a query.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems describes every violation found, in traversal order.
	Problems []string
}

// Err returns nil for a valid result, otherwise one error listing every
// problem.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return errors.New("invalid query: " + strings.Join(r.Problems, "; "))
}

// Validate checks that a query is well formed before it reaches a backend:
//  1. at least one FROM, aliases unique across FROM and joins
//  2. joins reference an alias declared before them
//  3. every column reference uses a declared alias
//  4. non-negative pagination
//
// Validate is a pure function with no side effects.
func Validate(sel *Select) ValidationResult {
	v := &validator{
		problems: []string{},
		aliases:  make(map[string]bool),
	}
	v.validateSelect(sel)

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
	aliases  map[string]bool
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) declare(alias string) {
	if alias == "" {
		v.addProblem("empty alias")
		return
	}
	if v.aliases[alias] {
		v.addProblem("alias %q declared twice", alias)
	}
	v.aliases[alias] = true
}

func (v *validator) validateSelect(sel *Select) {
	if sel == nil {
		v.addProblem("nil query")
		return
	}

	if len(sel.From) == 0 {
		v.addProblem("no FROM clause")
	}
	for _, from := range sel.From {
		if from.Entity == "" {
			v.addProblem("FROM without entity for alias %q", from.Alias)
		}
		v.declare(from.Alias)
	}
	for _, join := range sel.Joins {
		if !v.aliases[join.Parent] {
			v.addProblem("join %s: unknown parent alias %q", join, join.Parent)
		}
		v.declare(join.Alias)
		v.validatePredicate(join.Condition)
	}

	if len(sel.Items) == 0 {
		v.addProblem("empty SELECT list")
	}
	for _, item := range sel.Items {
		switch it := item.(type) {
		case EntitySelect:
			v.validateAlias(it.Alias)
		case ExprSelect:
			v.validateExpr(it.Expr)
		default:
			v.addProblem("unknown select item %T", item)
		}
	}

	v.validatePredicate(sel.Where)
	v.validatePredicate(sel.Having)
	for _, term := range sel.OrderBy {
		v.validateExpr(term.Expr)
	}

	if sel.Limit != nil && *sel.Limit < 0 {
		v.addProblem("negative limit %d", *sel.Limit)
	}
	if sel.Offset < 0 {
		v.addProblem("negative offset %d", sel.Offset)
	}
}

func (v *validator) validateAlias(alias string) {
	if !v.aliases[alias] {
		v.addProblem("unknown alias %q", alias)
	}
}

func (v *validator) validateExpr(e Expr) {
	switch x := e.(type) {
	case Column:
		v.validateAlias(x.Alias)
	case Param:
	case Func:
		for _, arg := range x.Args {
			v.validateExpr(arg)
		}
	case Match:
		if len(x.Columns) == 0 {
			v.addProblem("MATCH without columns")
		}
		for _, c := range x.Columns {
			v.validateAlias(c.Alias)
		}
		v.validateExpr(x.Query)
	case Count:
		v.validateExpr(x.Expr)
	case nil:
		v.addProblem("nil expression")
	default:
		v.addProblem("unknown expression %T", e)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch x := p.(type) {
	case nil:
		// no condition
	case Compare:
		v.validateExpr(x.Left)
		v.validateExpr(x.Right)
	case And:
		for _, sub := range x.Predicates {
			v.validatePredicate(sub)
		}
	case Or:
		for _, sub := range x.Predicates {
			v.validatePredicate(sub)
		}
	case Not:
		v.validatePredicate(x.Predicate)
	default:
		v.addProblem("unknown predicate %T", p)
	}
}
