package queryir

import (
	"fmt"
	"strings"
)

// FormatExpr renders e in builder notation, for join keys and debugging.
// Parameter values are shown as "?".
func FormatExpr(e Expr) string {
	switch x := e.(type) {
	case Column:
		return x.String()
	case Param:
		return "?"
	case Func:
		args := make([]string, len(x.Args))
		for i, a := range x.Args {
			args[i] = FormatExpr(a)
		}
		return x.Name + "(" + strings.Join(args, ", ") + ")"
	case Match:
		cols := make([]string, len(x.Columns))
		for i, c := range x.Columns {
			cols[i] = c.String()
		}
		return "MATCH(" + strings.Join(cols, ", ") + ") AGAINST(" + FormatExpr(x.Query) + ")"
	case Count:
		if x.Distinct {
			return "COUNT(DISTINCT " + FormatExpr(x.Expr) + ")"
		}
		return "COUNT(" + FormatExpr(x.Expr) + ")"
	case nil:
		return "<nil>"
	}
	return fmt.Sprintf("%T", e)
}

// FormatPredicate renders p in builder notation.
func FormatPredicate(p Predicate) string {
	switch x := p.(type) {
	case Compare:
		return FormatExpr(x.Left) + " " + x.Op + " " + FormatExpr(x.Right)
	case And:
		return joinPredicates(x.Predicates, " AND ")
	case Or:
		return joinPredicates(x.Predicates, " OR ")
	case Not:
		return "NOT (" + FormatPredicate(x.Predicate) + ")"
	case nil:
		return "<nil>"
	}
	return fmt.Sprintf("%T", p)
}

func joinPredicates(preds []Predicate, sep string) string {
	parts := make([]string, len(preds))
	for i, p := range preds {
		parts[i] = "(" + FormatPredicate(p) + ")"
	}
	return strings.Join(parts, sep)
}
