package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulesort/internal/spec"
)

func personQuery() *Select {
	limit := 10
	return &Select{
		Items: []SelectItem{EntitySelect{Alias: "p"}},
		From:  []From{{Entity: "Person", Alias: "p"}},
		Joins: []Join{{Kind: JoinLeft, Parent: "p", Association: "address", Alias: "_address"}},
		Where: Compare{Op: ">", Left: Column{Alias: "p", Field: "age"}, Right: Param{Value: 18}},
		OrderBy: []OrderTerm{
			{Expr: Column{Alias: "_address", Field: "city"}, Direction: spec.Ascending},
		},
		Limit: &limit,
	}
}

func TestJoin_String(t *testing.T) {
	j := Join{Parent: "p", Association: "address", Alias: "_address"}
	assert.Equal(t, "LEFT JOIN p.address _address", j.String())

	j.Condition = Compare{Op: "=", Left: Column{Alias: "_address", Field: "city"}, Right: Param{Value: "Oslo"}}
	assert.Equal(t, "LEFT JOIN p.address _address WITH _address.city = ?", j.String())
}

func TestSelect_CloneIsIndependent(t *testing.T) {
	orig := personQuery()
	c := orig.Clone()

	c.Joins = append(c.Joins, Join{Parent: "p", Association: "team", Alias: "_team"})
	c.OrderBy[0].Direction = spec.Descending
	*c.Limit = 99

	assert.Len(t, orig.Joins, 1)
	assert.Equal(t, spec.Ascending, orig.OrderBy[0].Direction)
	assert.Equal(t, 10, *orig.Limit)
}

func TestConjoin(t *testing.T) {
	a := Compare{Op: "=", Left: Column{Alias: "p", Field: "a"}, Right: Param{Value: 1}}
	b := Compare{Op: "=", Left: Column{Alias: "p", Field: "b"}, Right: Param{Value: 2}}
	c := Compare{Op: "=", Left: Column{Alias: "p", Field: "c"}, Right: Param{Value: 3}}

	assert.Equal(t, a, Conjoin(nil, a))
	assert.Equal(t, And{Predicates: []Predicate{a, b, c}}, Conjoin(Conjoin(a, b), c))
}

func TestFormatPredicate(t *testing.T) {
	p := Or{Predicates: []Predicate{
		Compare{Op: "=", Left: Func{Name: "lower", Args: []Expr{Column{Alias: "p", Field: "name"}}}, Right: Param{Value: "x"}},
		Not{Predicate: Compare{Op: ">", Left: Count{Expr: Column{Alias: "p", Field: "id"}, Distinct: true}, Right: Param{Value: 1}}},
	}}

	assert.Equal(t, "(lower(p.name) = ?) OR (NOT (COUNT(DISTINCT p.id) > ?))", FormatPredicate(p))
}

func TestValidate_Valid(t *testing.T) {
	res := Validate(personQuery())

	assert.True(t, res.Valid, res.Problems)
	assert.NoError(t, res.Err())
}

func TestValidate_Problems(t *testing.T) {
	limit := -1
	sel := &Select{
		From:    []From{{Entity: "Person", Alias: "p"}, {Entity: "Team", Alias: "p"}},
		Joins:   []Join{{Parent: "x", Association: "address", Alias: "_address"}},
		Where:   Compare{Op: "=", Left: Column{Alias: "q", Field: "age"}, Right: Param{Value: 1}},
		OrderBy: []OrderTerm{{Expr: nil}},
		Limit:   &limit,
	}

	res := Validate(sel)
	require.False(t, res.Valid)
	assert.Equal(t, []string{
		`alias "p" declared twice`,
		`join LEFT JOIN x.address _address: unknown parent alias "x"`,
		"empty SELECT list",
		`unknown alias "q"`,
		"nil expression",
		"negative limit -1",
	}, res.Problems)
	assert.ErrorContains(t, res.Err(), "invalid query: ")
}
