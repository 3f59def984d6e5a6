package orm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/rulesort/internal/querysql"
	"github.com/roach88/rulesort/internal/store"
)

// Record is one hydrated result row.
type Record map[string]any

// Executable is a query ready to run: a compiled builder (*Query) or
// hand-built SQL (*NativeQuery).
type Executable interface {
	SQL() string
	Params() []any
	Mapping() querysql.Mapping
	Result(ctx context.Context) ([]Record, error)
	SingleScalarResult(ctx context.Context) (any, error)
}

var (
	_ Executable = (*Query)(nil)
	_ Executable = (*NativeQuery)(nil)
)

// Query is a compiled QueryBuilder.
type Query struct {
	em   *EntityManager
	stmt *querysql.Statement
}

func (q *Query) SQL() string                    { return q.stmt.SQL }
func (q *Query) Params() []any                  { return q.stmt.Params }
func (q *Query) Mapping() querysql.Mapping      { return q.stmt.Mapping }
func (q *Query) Statement() *querysql.Statement { return q.stmt }

// Result executes the query and hydrates every row.
func (q *Query) Result(ctx context.Context) ([]Record, error) {
	return execute(ctx, q.em, q.stmt)
}

// SingleScalarResult executes the query and returns its single value.
func (q *Query) SingleScalarResult(ctx context.Context) (any, error) {
	return scalar(ctx, q.em, q.stmt)
}

// NativeQuery is hand-built SQL with its parameters and mapping.
type NativeQuery struct {
	em   *EntityManager
	stmt *querysql.Statement
}

func (q *NativeQuery) SQL() string               { return q.stmt.SQL }
func (q *NativeQuery) Params() []any             { return q.stmt.Params }
func (q *NativeQuery) Mapping() querysql.Mapping { return q.stmt.Mapping }

// EntityManager returns the entity manager the query runs on.
func (q *NativeQuery) EntityManager() *EntityManager { return q.em }

// Result executes the query and hydrates every row.
func (q *NativeQuery) Result(ctx context.Context) ([]Record, error) {
	return execute(ctx, q.em, q.stmt)
}

// SingleScalarResult executes the query and returns its single value.
func (q *NativeQuery) SingleScalarResult(ctx context.Context) (any, error) {
	return scalar(ctx, q.em, q.stmt)
}

func execute(ctx context.Context, em *EntityManager, stmt *querysql.Statement) ([]Record, error) {
	if em.db == nil {
		return nil, fmt.Errorf("entity manager has no database")
	}
	slog.Debug("executing query", "sql", stmt.SQL, "params", len(stmt.Params))

	rows, err := em.db.QueryRows(ctx, stmt.SQL, stmt.Params...)
	if err != nil {
		return nil, err
	}
	return Hydrate(rows, stmt.Mapping), nil
}

func scalar(ctx context.Context, em *EntityManager, stmt *querysql.Statement) (any, error) {
	if em.db == nil {
		return nil, fmt.Errorf("entity manager has no database")
	}
	slog.Debug("executing scalar query", "sql", stmt.SQL, "params", len(stmt.Params))
	return em.db.QueryScalar(ctx, stmt.SQL, stmt.Params...)
}

// Hydrate turns rows into Records. The owner of the first non-scalar
// column is the root alias. Columns absent from mapping are copied as is.
func Hydrate(rows []store.Row, mapping querysql.Mapping) []Record {
	root := ""
	for _, rc := range mapping {
		if !rc.Scalar {
			root = rc.Alias
			break
		}
	}

	out := make([]Record, len(rows))
	for i, row := range rows {
		rec := make(Record, len(row))
		mapped := make(map[string]bool, len(mapping))
		for _, rc := range mapping {
			v, ok := row[rc.Name]
			if !ok {
				continue
			}
			mapped[rc.Name] = true
			switch {
			case rc.Scalar, rc.Alias == root:
				rec[rc.Field] = v
			default:
				nested, _ := rec[rc.Alias].(Record)
				if nested == nil {
					nested = Record{}
					rec[rc.Alias] = nested
				}
				nested[rc.Field] = v
			}
		}
		for name, v := range row {
			if !mapped[name] {
				rec[name] = v
			}
		}
		out[i] = rec
	}
	return out
}
