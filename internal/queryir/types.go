package queryir

import (
	"fmt"
	"slices"

	"github.com/roach88/rulesort/internal/spec"
)

// Expr is a scalar expression.
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// Predicate is a boolean condition used in WHERE, HAVING and join
// conditions.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// SelectItem is one entry of the SELECT list.
type SelectItem interface {
	selectItemNode() // Marker method - seals interface to this package
}

// Column references a mapped field of the entity bound to Alias.
//
//	Column{Alias: "p", Field: "age"}  →  p.age
type Column struct {
	Alias string
	Field string
}

func (Column) exprNode() {}

func (c Column) String() string { return c.Alias + "." + c.Field }

// Param is a bound value. It is always rendered as a placeholder; a nil
// Value compared with = or != renders as IS [NOT] NULL.
type Param struct {
	Value any
}

func (Param) exprNode() {}

// Func applies a portable SQL function. Name is lower case: length,
// lower, upper, abs, trim, coalesce, concat.
type Func struct {
	Name string
	Args []Expr
}

func (Func) exprNode() {}

// Match is a full-text relevance score of Query against Columns.
type Match struct {
	Columns []Column
	Query   Expr
}

func (Match) exprNode() {}

// Count is COUNT(expr), or COUNT(DISTINCT expr).
type Count struct {
	Expr     Expr
	Distinct bool
}

func (Count) exprNode() {}

// Compare applies a comparison operator: =, !=, <, <=, >, >=, LIKE.
type Compare struct {
	Op    string
	Left  Expr
	Right Expr
}

func (Compare) predicateNode() {}

// And is a conjunction. An empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or is a disjunction. An empty Or is always false.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// Not negates a predicate.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}

// EntitySelect selects every mapped field of the entity bound to Alias.
type EntitySelect struct {
	Alias string
}

func (EntitySelect) selectItemNode() {}

// ExprSelect selects a scalar expression under the result name As.
type ExprSelect struct {
	Expr Expr
	As   string
}

func (ExprSelect) selectItemNode() {}

// From binds a root entity to an alias.
type From struct {
	Entity string
	Alias  string
}

// JoinLeft is the only join kind the builder produces.
const JoinLeft = "LEFT"

// Join follows Association of the entity bound to Parent and binds the
// associated entity to Alias.
type Join struct {
	Kind        string
	Parent      string
	Association string
	Alias       string
	Condition   Predicate
}

// String renders the join the way it is compared for deduplication:
// "LEFT JOIN p.address _address".
func (j Join) String() string {
	kind := j.Kind
	if kind == "" {
		kind = JoinLeft
	}
	s := fmt.Sprintf("%s JOIN %s.%s %s", kind, j.Parent, j.Association, j.Alias)
	if j.Condition != nil {
		s += " WITH " + FormatPredicate(j.Condition)
	}
	return s
}

// OrderTerm is one ORDER BY term. The direction is a value, never text.
type OrderTerm struct {
	Expr      Expr
	Direction spec.Direction
}

// Select is a complete query.
type Select struct {
	Items   []SelectItem
	From    []From
	Joins   []Join
	Where   Predicate
	Having  Predicate
	OrderBy []OrderTerm
	Limit   *int
	Offset  int
}

// Clone returns a copy that shares no slices with s. Predicates and
// expressions are immutable values and are shared.
func (s *Select) Clone() *Select {
	c := *s
	c.Items = slices.Clone(s.Items)
	c.From = slices.Clone(s.From)
	c.Joins = slices.Clone(s.Joins)
	c.OrderBy = slices.Clone(s.OrderBy)
	if s.Limit != nil {
		limit := *s.Limit
		c.Limit = &limit
	}
	return &c
}

// Conjoin ANDs p onto base, flattening nested conjunctions. A nil base
// yields p.
func Conjoin(base, p Predicate) Predicate {
	switch {
	case base == nil:
		return p
	case p == nil:
		return base
	}
	var preds []Predicate
	if and, ok := base.(And); ok {
		preds = append(preds, and.Predicates...)
	} else {
		preds = append(preds, base)
	}
	return And{Predicates: append(preds, p)}
}
