// Package querysql renders queryir queries as parameterized SQL.
//
// CRITICAL: values are never interpolated. Every queryir.Param becomes a
// placeholder and its value is appended to Statement.Params in textual
// order, including across the members of a UNION.
package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/rulesort/internal/queryir"
	"github.com/roach88/rulesort/internal/schema"
)

// ResultColumn describes one column of a statement's result set.
type ResultColumn struct {
	// Name is the SQL column alias ("age_2", "sclr_3").
	Name string

	// Alias is the query alias owning the field; empty for scalars.
	Alias string

	// Field is the entity field, or the result name of a scalar.
	Field string

	// Scalar marks an ExprSelect result.
	Scalar bool
}

// Mapping is the result-set mapping of a statement, in SELECT order.
type Mapping []ResultColumn

// Column returns the SQL column alias carrying alias.field.
func (m Mapping) Column(alias, field string) (string, bool) {
	for _, rc := range m {
		if !rc.Scalar && rc.Alias == alias && rc.Field == field {
			return rc.Name, true
		}
	}
	return "", false
}

// Scalar returns the SQL column alias of the scalar selected as name.
func (m Mapping) Scalar(name string) (string, bool) {
	for _, rc := range m {
		if rc.Scalar && rc.Field == name {
			return rc.Name, true
		}
	}
	return "", false
}

// Statement is rendered SQL with its parameters and result-set mapping.
type Statement struct {
	SQL     string
	Params  []any
	Mapping Mapping
}

// Compiler renders queries against a schema in one dialect.
type Compiler struct {
	schema  *schema.Schema
	dialect Dialect
}

// NewCompiler creates a Compiler.
func NewCompiler(s *schema.Schema, d Dialect) *Compiler {
	return &Compiler{schema: s, dialect: d}
}

// Dialect returns the compiler's dialect.
func (c *Compiler) Dialect() Dialect { return c.dialect }

// Compile renders one query.
func (c *Compiler) Compile(sel *queryir.Select) (*Statement, error) {
	w := &writer{compiler: c}
	sql, mapping, err := w.compileSelect(sel)
	if err != nil {
		return nil, err
	}
	return &Statement{SQL: sql, Params: w.params, Mapping: mapping}, nil
}

// CompileUnion renders members joined with " UNION ". Placeholders are
// numbered across all members; the mapping is the first member's. Members
// must be neither ordered nor paginated.
func (c *Compiler) CompileUnion(members []*queryir.Select) (*Statement, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("union without members")
	}

	w := &writer{compiler: c}
	parts := make([]string, len(members))
	var mapping Mapping
	for i, member := range members {
		if len(member.OrderBy) > 0 || member.Limit != nil || member.Offset > 0 {
			return nil, fmt.Errorf("union member %d: must not be ordered or paginated", i)
		}
		sql, m, err := w.compileSelect(member)
		if err != nil {
			return nil, fmt.Errorf("union member %d: %w", i, err)
		}
		if i == 0 {
			mapping = m
		} else if len(m) != len(mapping) {
			return nil, fmt.Errorf("union member %d: selects %d columns, first member %d", i, len(m), len(mapping))
		}
		parts[i] = sql
	}
	return &Statement{SQL: strings.Join(parts, " UNION "), Params: w.params, Mapping: mapping}, nil
}

// writer holds the state of one rendering pass. Parameters are shared by
// every select rendered through it; column numbering restarts per select so
// union members produce identical column aliases.
type writer struct {
	compiler *Compiler
	params   []any
	columns  int
	entities map[string]*schema.Entity
}

func (w *writer) compileSelect(sel *queryir.Select) (string, Mapping, error) {
	if err := queryir.Validate(sel).Err(); err != nil {
		return "", nil, err
	}
	w.columns = 0
	if err := w.bindAliases(sel); err != nil {
		return "", nil, err
	}

	var b strings.Builder
	var mapping Mapping

	b.WriteString("SELECT ")
	for i, item := range sel.Items {
		if i > 0 {
			b.WriteString(", ")
		}
		cols, err := w.selectItem(item)
		if err != nil {
			return "", nil, err
		}
		for j, col := range cols {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(col.sql + " AS " + col.Name)
			mapping = append(mapping, col.ResultColumn)
		}
	}

	b.WriteString(" FROM ")
	for i, from := range sel.From {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(w.entities[from.Alias].Table + " " + from.Alias)
	}

	for _, join := range sel.Joins {
		sql, err := w.join(join)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(" " + sql)
	}

	if sel.Where != nil {
		sql, err := w.predicate(sel.Where)
		if err != nil {
			return "", nil, fmt.Errorf("where: %w", err)
		}
		b.WriteString(" WHERE " + sql)
	}
	if sel.Having != nil {
		sql, err := w.predicate(sel.Having)
		if err != nil {
			return "", nil, fmt.Errorf("having: %w", err)
		}
		b.WriteString(" HAVING " + sql)
	}

	if len(sel.OrderBy) > 0 {
		terms := make([]string, len(sel.OrderBy))
		for i, term := range sel.OrderBy {
			sql, err := w.expr(term.Expr)
			if err != nil {
				return "", nil, fmt.Errorf("order by: %w", err)
			}
			terms[i] = sql + " " + string(term.Direction)
		}
		b.WriteString(" ORDER BY " + strings.Join(terms, ", "))
	}

	b.WriteString(w.compiler.dialect.Pagination(sel.Limit, sel.Offset))
	return b.String(), mapping, nil
}

// bindAliases resolves every alias of sel to its entity.
func (w *writer) bindAliases(sel *queryir.Select) error {
	s := w.compiler.schema
	w.entities = make(map[string]*schema.Entity)
	for _, from := range sel.From {
		e, err := s.Entity(from.Entity)
		if err != nil {
			return err
		}
		w.entities[from.Alias] = e
	}
	for _, join := range sel.Joins {
		parent := w.entities[join.Parent]
		assoc, ok := parent.Association(join.Association)
		if !ok {
			return fmt.Errorf("join %s: %w: %s.%s", join, schema.ErrUnknownField, parent.Name, join.Association)
		}
		target, err := s.Entity(assoc.Target)
		if err != nil {
			return err
		}
		w.entities[join.Alias] = target
	}
	return nil
}

type renderedColumn struct {
	ResultColumn
	sql string
}

func (w *writer) nextName(base string) string {
	name := base + "_" + strconv.Itoa(w.columns)
	w.columns++
	return name
}

func (w *writer) selectItem(item queryir.SelectItem) ([]renderedColumn, error) {
	switch it := item.(type) {
	case queryir.EntitySelect:
		e := w.entities[it.Alias]
		cols := make([]renderedColumn, len(e.Fields))
		for i, f := range e.Fields {
			cols[i] = renderedColumn{
				ResultColumn: ResultColumn{Name: w.nextName(f.ColumnName()), Alias: it.Alias, Field: f.Name},
				sql:          it.Alias + "." + f.ColumnName(),
			}
		}
		return cols, nil
	case queryir.ExprSelect:
		sql, err := w.expr(it.Expr)
		if err != nil {
			return nil, err
		}
		return []renderedColumn{{
			ResultColumn: ResultColumn{Name: w.nextName("sclr"), Field: it.As, Scalar: true},
			sql:          sql,
		}}, nil
	}
	return nil, fmt.Errorf("unsupported select item %T", item)
}

func (w *writer) join(j queryir.Join) (string, error) {
	parent := w.entities[j.Parent]
	target := w.entities[j.Alias]
	assoc, _ := parent.Association(j.Association)

	var on string
	if assoc.Inverse {
		on = j.Alias + "." + assoc.JoinColumn + " = " + j.Parent + "." + assoc.Referenced()
	} else {
		on = j.Parent + "." + assoc.JoinColumn + " = " + j.Alias + "." + assoc.Referenced()
	}
	if j.Condition != nil {
		cond, err := w.predicate(j.Condition)
		if err != nil {
			return "", fmt.Errorf("join %s: %w", j, err)
		}
		on += " AND " + cond
	}

	kind := j.Kind
	if kind == "" {
		kind = queryir.JoinLeft
	}
	return kind + " JOIN " + target.Table + " " + j.Alias + " ON " + on, nil
}

var comparisons = map[string]bool{
	"=": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true, "LIKE": true,
}

func (w *writer) predicate(p queryir.Predicate) (string, error) {
	switch x := p.(type) {
	case queryir.Compare:
		return w.compare(x)
	case queryir.And:
		if len(x.Predicates) == 0 {
			return "1 = 1", nil
		}
		parts, err := w.predicates(x.Predicates)
		if err != nil {
			return "", err
		}
		return strings.Join(parts, " AND "), nil
	case queryir.Or:
		if len(x.Predicates) == 0 {
			return "1 = 0", nil
		}
		parts, err := w.predicates(x.Predicates)
		if err != nil {
			return "", err
		}
		return "(" + strings.Join(parts, " OR ") + ")", nil
	case queryir.Not:
		inner, err := w.predicate(x.Predicate)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	}
	return "", fmt.Errorf("unsupported predicate %T", p)
}

func (w *writer) predicates(preds []queryir.Predicate) ([]string, error) {
	parts := make([]string, len(preds))
	for i, p := range preds {
		sql, err := w.predicate(p)
		if err != nil {
			return nil, err
		}
		parts[i] = sql
	}
	return parts, nil
}

func (w *writer) compare(c queryir.Compare) (string, error) {
	if !comparisons[c.Op] {
		return "", fmt.Errorf("unsupported comparison %q", c.Op)
	}
	left, err := w.expr(c.Left)
	if err != nil {
		return "", err
	}
	if p, ok := c.Right.(queryir.Param); ok && p.Value == nil {
		switch c.Op {
		case "=":
			return left + " IS NULL", nil
		case "!=":
			return left + " IS NOT NULL", nil
		}
	}
	right, err := w.expr(c.Right)
	if err != nil {
		return "", err
	}
	op := c.Op
	if op == "!=" {
		op = "<>"
	}
	return left + " " + op + " " + right, nil
}

func (w *writer) expr(e queryir.Expr) (string, error) {
	switch x := e.(type) {
	case queryir.Column:
		return w.column(x)
	case queryir.Param:
		w.params = append(w.params, x.Value)
		return w.compiler.dialect.Placeholder(len(w.params)), nil
	case queryir.Func:
		args, err := w.exprs(x.Args)
		if err != nil {
			return "", err
		}
		return w.compiler.dialect.Function(x.Name, args)
	case queryir.Match:
		cols := make([]string, len(x.Columns))
		for i, col := range x.Columns {
			sql, err := w.column(col)
			if err != nil {
				return "", err
			}
			cols[i] = sql
		}
		query, err := w.expr(x.Query)
		if err != nil {
			return "", err
		}
		return w.compiler.dialect.Match(cols, query)
	case queryir.Count:
		inner, err := w.expr(x.Expr)
		if err != nil {
			return "", err
		}
		if x.Distinct {
			return "COUNT(DISTINCT " + inner + ")", nil
		}
		return "COUNT(" + inner + ")", nil
	}
	return "", fmt.Errorf("unsupported expression %T", e)
}

func (w *writer) exprs(es []queryir.Expr) ([]string, error) {
	out := make([]string, len(es))
	for i, e := range es {
		sql, err := w.expr(e)
		if err != nil {
			return nil, err
		}
		out[i] = sql
	}
	return out, nil
}

func (w *writer) column(c queryir.Column) (string, error) {
	e := w.entities[c.Alias]
	col, err := e.Column(c.Field)
	if err != nil {
		return "", err
	}
	return c.Alias + "." + col, nil
}
