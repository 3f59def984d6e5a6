package orm

import (
	"fmt"
	"slices"

	"github.com/roach88/rulesort/internal/queryir"
	"github.com/roach88/rulesort/internal/schema"
)

// Part names a resettable part of a query.
type Part int

const (
	PartSelect Part = iota
	PartWhere
	PartHaving
	PartOrderBy
	PartJoins
)

// QueryBuilder builds a queryir.Select step by step. Builders are mutable
// and not safe for concurrent use; Clone before sharing.
type QueryBuilder struct {
	em  *EntityManager
	sel *queryir.Select
}

func newQueryBuilder(em *EntityManager) *QueryBuilder {
	return &QueryBuilder{em: em, sel: &queryir.Select{}}
}

// EntityManager returns the builder's entity manager.
func (qb *QueryBuilder) EntityManager() *EntityManager { return qb.em }

// Select replaces the SELECT list.
func (qb *QueryBuilder) Select(items ...queryir.SelectItem) *QueryBuilder {
	qb.sel.Items = slices.Clone(items)
	return qb
}

// AddSelect appends to the SELECT list.
func (qb *QueryBuilder) AddSelect(items ...queryir.SelectItem) *QueryBuilder {
	qb.sel.Items = append(qb.sel.Items, items...)
	return qb
}

// SelectItems returns a copy of the SELECT list.
func (qb *QueryBuilder) SelectItems() []queryir.SelectItem {
	return slices.Clone(qb.sel.Items)
}

// From adds a root entity.
func (qb *QueryBuilder) From(entity, alias string) *QueryBuilder {
	qb.sel.From = append(qb.sel.From, queryir.From{Entity: entity, Alias: alias})
	return qb
}

// LeftJoin joins association of parent as alias.
func (qb *QueryBuilder) LeftJoin(parent, association, alias string, cond queryir.Predicate) *QueryBuilder {
	qb.sel.Joins = append(qb.sel.Joins, queryir.Join{
		Kind:        queryir.JoinLeft,
		Parent:      parent,
		Association: association,
		Alias:       alias,
		Condition:   cond,
	})
	return qb
}

// LeftJoinUnique adds join unless a join with the same rendered form is
// already present. It reports whether the join was added.
func (qb *QueryBuilder) LeftJoinUnique(join queryir.Join) bool {
	if join.Kind == "" {
		join.Kind = queryir.JoinLeft
	}
	rendered := join.String()
	for _, existing := range qb.sel.Joins {
		if existing.String() == rendered {
			return false
		}
	}
	qb.sel.Joins = append(qb.sel.Joins, join)
	return true
}

// Joins returns a copy of the join list.
func (qb *QueryBuilder) Joins() []queryir.Join {
	return slices.Clone(qb.sel.Joins)
}

// Where replaces the WHERE condition.
func (qb *QueryBuilder) Where(p queryir.Predicate) *QueryBuilder {
	qb.sel.Where = p
	return qb
}

// AndWhere ANDs p onto the WHERE condition.
func (qb *QueryBuilder) AndWhere(p queryir.Predicate) *QueryBuilder {
	qb.sel.Where = queryir.Conjoin(qb.sel.Where, p)
	return qb
}

// WherePart returns the WHERE condition, nil when there is none.
func (qb *QueryBuilder) WherePart() queryir.Predicate { return qb.sel.Where }

// Having replaces the HAVING condition.
func (qb *QueryBuilder) Having(p queryir.Predicate) *QueryBuilder {
	qb.sel.Having = p
	return qb
}

// HavingPart returns the HAVING condition.
func (qb *QueryBuilder) HavingPart() queryir.Predicate { return qb.sel.Having }

// AddOrderBy appends ORDER BY terms.
func (qb *QueryBuilder) AddOrderBy(terms ...queryir.OrderTerm) *QueryBuilder {
	qb.sel.OrderBy = append(qb.sel.OrderBy, terms...)
	return qb
}

// OrderBy replaces the ORDER BY terms.
func (qb *QueryBuilder) OrderBy(terms ...queryir.OrderTerm) *QueryBuilder {
	qb.sel.OrderBy = slices.Clone(terms)
	return qb
}

// OrderByPart returns a copy of the ORDER BY terms.
func (qb *QueryBuilder) OrderByPart() []queryir.OrderTerm {
	return slices.Clone(qb.sel.OrderBy)
}

// SetFirstResult sets the offset.
func (qb *QueryBuilder) SetFirstResult(offset int) *QueryBuilder {
	qb.sel.Offset = offset
	return qb
}

// FirstResult returns the offset.
func (qb *QueryBuilder) FirstResult() int { return qb.sel.Offset }

// SetMaxResults sets the limit; nil removes it.
func (qb *QueryBuilder) SetMaxResults(limit *int) *QueryBuilder {
	if limit == nil {
		qb.sel.Limit = nil
		return qb
	}
	l := *limit
	qb.sel.Limit = &l
	return qb
}

// MaxResults returns the limit, nil when unlimited.
func (qb *QueryBuilder) MaxResults() *int {
	if qb.sel.Limit == nil {
		return nil
	}
	l := *qb.sel.Limit
	return &l
}

// ResetParts clears the given parts.
func (qb *QueryBuilder) ResetParts(parts ...Part) *QueryBuilder {
	for _, part := range parts {
		switch part {
		case PartSelect:
			qb.sel.Items = nil
		case PartWhere:
			qb.sel.Where = nil
		case PartHaving:
			qb.sel.Having = nil
		case PartOrderBy:
			qb.sel.OrderBy = nil
		case PartJoins:
			qb.sel.Joins = nil
		}
	}
	return qb
}

// RootAliases returns the aliases of the FROM entities, in order.
func (qb *QueryBuilder) RootAliases() []string {
	out := make([]string, len(qb.sel.From))
	for i, from := range qb.sel.From {
		out[i] = from.Alias
	}
	return out
}

// RootEntities returns the FROM entity names, in order.
func (qb *QueryBuilder) RootEntities() []string {
	out := make([]string, len(qb.sel.From))
	for i, from := range qb.sel.From {
		out[i] = from.Entity
	}
	return out
}

// RootAlias returns the first root alias.
func (qb *QueryBuilder) RootAlias() (string, error) {
	if len(qb.sel.From) == 0 {
		return "", fmt.Errorf("query builder has no FROM clause")
	}
	return qb.sel.From[0].Alias, nil
}

// HasAlias reports whether alias is bound by FROM or a join.
func (qb *QueryBuilder) HasAlias(alias string) bool {
	for _, from := range qb.sel.From {
		if from.Alias == alias {
			return true
		}
	}
	for _, join := range qb.sel.Joins {
		if join.Alias == alias {
			return true
		}
	}
	return false
}

// EntityOf returns the entity bound to alias.
func (qb *QueryBuilder) EntityOf(alias string) (*schema.Entity, error) {
	s := qb.em.schema
	for _, from := range qb.sel.From {
		if from.Alias == alias {
			return s.Entity(from.Entity)
		}
	}
	for _, join := range qb.sel.Joins {
		if join.Alias != alias {
			continue
		}
		parent, err := qb.EntityOf(join.Parent)
		if err != nil {
			return nil, err
		}
		assoc, ok := parent.Association(join.Association)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", schema.ErrUnknownField, parent.Name, join.Association)
		}
		return s.Entity(assoc.Target)
	}
	return nil, fmt.Errorf("unknown alias %q", alias)
}

// Clone returns an independent copy sharing the entity manager.
func (qb *QueryBuilder) Clone() *QueryBuilder {
	return &QueryBuilder{em: qb.em, sel: qb.sel.Clone()}
}

// Build returns a copy of the query being built.
func (qb *QueryBuilder) Build() *queryir.Select {
	return qb.sel.Clone()
}

// GetQuery compiles the builder into an executable query.
func (qb *QueryBuilder) GetQuery() (*Query, error) {
	stmt, err := qb.em.compiler.Compile(qb.sel)
	if err != nil {
		return nil, err
	}
	return &Query{em: qb.em, stmt: stmt}, nil
}
