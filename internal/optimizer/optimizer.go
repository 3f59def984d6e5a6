package optimizer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/roach88/rulesort/internal/engine"
	"github.com/roach88/rulesort/internal/orm"
	"github.com/roach88/rulesort/internal/queryir"
	"github.com/roach88/rulesort/internal/spec"
)

// Modifier adjusts a UNION member after its filter is applied.
type Modifier func(member *orm.QueryBuilder) *orm.QueryBuilder

// Optimizer rewrites filter-template disjunctions into UNION queries.
type Optimizer struct {
	filters *engine.FilteringEngine
}

// New creates an Optimizer filtering union members through filters.
func New(filters *engine.FilteringEngine) *Optimizer {
	return &Optimizer{filters: filters}
}

// Prepare clones target and extracts the filter-template disjunction from
// filter. Nothing is extracted unless run is set and filter is either a
// disjunction itself or a conjunction holding exactly one, directly or in a
// nested conjunction. With more than one the state is inert.
func (o *Optimizer) Prepare(target *orm.QueryBuilder, filter spec.Specification, run bool) (*State, error) {
	qb := target.Clone()
	if filter == nil || !run {
		return NewState(qb, filter), nil
	}

	var candidates []spec.Specification
	switch f := filter.(type) {
	case *spec.FilterTemplateComposite:
		return &State{target: qb, composite: f}, nil
	case *spec.AndX:
		candidates = f.Specifications()
	default:
		return NewState(qb, filter), nil
	}

	if countTemplates(candidates) != 1 {
		return NewState(qb, filter), nil
	}

	var composite *spec.FilterTemplateComposite
	var remaining []spec.Specification
	for _, s := range candidates {
		switch c := s.(type) {
		case *spec.FilterTemplateComposite:
			composite = c
			continue
		case *spec.AndX:
			if c.ContainsFilterTemplates() {
				var rest []spec.Specification
				for _, child := range c.Specifications() {
					if ftc, ok := child.(*spec.FilterTemplateComposite); ok {
						composite = ftc
						continue
					}
					rest = append(rest, child)
				}
				if len(rest) == 0 {
					continue
				}
				nested, err := spec.NewAndX(rest...)
				if err != nil {
					return nil, err
				}
				s = nested
			}
		}
		remaining = append(remaining, s)
	}

	var reduced spec.Specification
	if len(remaining) > 0 {
		and, err := spec.NewAndX(remaining...)
		if err != nil {
			return nil, err
		}
		reduced = and
	}
	slog.Debug("extracted filter templates", "members", composite.Len())
	return &State{target: qb, filter: reduced, composite: composite}, nil
}

// countTemplates counts the disjunctions among specs, including those of
// directly nested conjunctions.
func countTemplates(specs []spec.Specification) int {
	n := 0
	for _, s := range specs {
		switch c := s.(type) {
		case *spec.FilterTemplateComposite:
			n++
		case *spec.AndX:
			for _, child := range c.Specifications() {
				if _, ok := child.(*spec.FilterTemplateComposite); ok {
					n++
				}
			}
		}
	}
	return n
}

// Finalize builds the UNION: one member per template, each a clone of the
// state's builder with the template ANDed onto its filter and its HAVING,
// ORDER BY and pagination dropped. modifier, when set, adjusts every member
// before rendering. The template's ORDER BY is remapped onto the UNION's
// result columns.
//
// A state without an extracted disjunction passes through with its filter
// cleared.
func (o *Optimizer) Finalize(ctx context.Context, s *State, modifier Modifier) (*State, error) {
	if !s.CanBeOptimized() {
		return NewState(s.target, nil), nil
	}
	template, ok := s.Builder()
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedResult, s.target)
	}
	template = template.Clone()

	query, err := template.GetQuery()
	if err != nil {
		return nil, fmt.Errorf("compile union template: %w", err)
	}
	orderBy, err := outerOrder(template, query)
	if err != nil {
		return nil, err
	}

	templates := s.composite.Specifications()
	members := make([]*queryir.Select, len(templates))
	for i, t := range templates {
		member, err := o.filters.ApplyFilterSpec(ctx, template.Clone(), t, s.ectx)
		if err != nil {
			return nil, fmt.Errorf("union member %d: %w", i, err)
		}
		qb := member.(*orm.QueryBuilder)
		qb.ResetParts(orm.PartHaving, orm.PartOrderBy).
			SetFirstResult(0).
			SetMaxResults(nil)
		if modifier != nil {
			qb = modifier(qb)
		}
		members[i] = qb.Build()
	}

	em := template.EntityManager()
	stmt, err := em.Compiler().CompileUnion(members)
	if err != nil {
		return nil, err
	}
	slog.Debug("built union", "members", len(members), "params", len(stmt.Params))

	return &State{
		target:    em.CreateNativeQuery(stmt.SQL, stmt.Params, stmt.Mapping),
		filter:    s.filter,
		composite: s.composite,
		orderBy:   orderBy,
		ectx:      s.ectx,
	}, nil
}

// outerOrder maps the template's ORDER BY onto result column aliases.
// A template selecting no entity fields yields no outer order.
func outerOrder(template *orm.QueryBuilder, query *orm.Query) ([]OrderColumn, error) {
	mapping := query.Mapping()
	hasFields := false
	for _, rc := range mapping {
		if !rc.Scalar {
			hasFields = true
			break
		}
	}
	if !hasFields {
		return nil, nil
	}

	scalars := make(map[string]string)
	for _, item := range template.SelectItems() {
		if es, ok := item.(queryir.ExprSelect); ok && es.As != "" {
			scalars[queryir.FormatExpr(es.Expr)] = es.As
		}
	}

	var out []OrderColumn
	for _, term := range template.OrderByPart() {
		var name string
		var found bool
		if c, ok := term.Expr.(queryir.Column); ok {
			name, found = mapping.Column(c.Alias, c.Field)
		} else if as, ok := scalars[queryir.FormatExpr(term.Expr)]; ok {
			name, found = mapping.Scalar(as)
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrUnresolvableOrder, queryir.FormatExpr(term.Expr))
		}
		out = append(out, OrderColumn{Name: name, Direction: term.Direction})
	}
	return out, nil
}

// ProduceQuery paginates the state's target. A builder is cloned, bounded
// and compiled. A UNION is wrapped as
//
//	SELECT * FROM (<union>) u ORDER BY ... LIMIT n OFFSET m
//
// where each clause is present only when it has a value; OFFSET is only
// emitted together with LIMIT.
func (o *Optimizer) ProduceQuery(s *State, limit, offset *int) (orm.Executable, error) {
	switch target := s.target.(type) {
	case *orm.QueryBuilder:
		qb := target.Clone().SetMaxResults(limit)
		if offset != nil {
			qb.SetFirstResult(*offset)
		} else {
			qb.SetFirstResult(0)
		}
		return qb.GetQuery()
	case *orm.NativeQuery:
		var b strings.Builder
		b.WriteString("SELECT * FROM (" + target.SQL() + ") u")
		if len(s.orderBy) > 0 {
			terms := make([]string, len(s.orderBy))
			for i, term := range s.orderBy {
				terms[i] = term.String()
			}
			b.WriteString(" ORDER BY " + strings.Join(terms, ", "))
		}
		if limit != nil {
			b.WriteString(" LIMIT " + strconv.Itoa(*limit))
			if offset != nil {
				b.WriteString(" OFFSET " + strconv.Itoa(*offset))
			}
		}
		return target.EntityManager().CreateNativeQuery(b.String(), target.Params(), target.Mapping()), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedResult, s.target)
}
