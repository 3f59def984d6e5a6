package orm

import (
	"context"

	"github.com/roach88/rulesort/internal/querysql"
	"github.com/roach88/rulesort/internal/schema"
	"github.com/roach88/rulesort/internal/store"
)

// Querier executes rendered SQL. *store.Store implements it.
type Querier interface {
	QueryRows(ctx context.Context, query string, args ...any) ([]store.Row, error)
	QueryScalar(ctx context.Context, query string, args ...any) (any, error)
}

// EntityManager ties a schema, a SQL dialect and a database together.
type EntityManager struct {
	schema   *schema.Schema
	compiler *querysql.Compiler
	db       Querier
}

// NewEntityManager creates an EntityManager.
func NewEntityManager(s *schema.Schema, d querysql.Dialect, db Querier) *EntityManager {
	return &EntityManager{
		schema:   s,
		compiler: querysql.NewCompiler(s, d),
		db:       db,
	}
}

// Schema returns the entity metadata.
func (em *EntityManager) Schema() *schema.Schema { return em.schema }

// Compiler returns the SQL compiler.
func (em *EntityManager) Compiler() *querysql.Compiler { return em.compiler }

// CreateQueryBuilder returns an empty builder.
func (em *EntityManager) CreateQueryBuilder() *QueryBuilder {
	return newQueryBuilder(em)
}

// CreateNativeQuery wraps hand-built SQL. Results are hydrated through
// mapping.
func (em *EntityManager) CreateNativeQuery(sql string, params []any, mapping querysql.Mapping) *NativeQuery {
	return &NativeQuery{
		em:   em,
		stmt: &querysql.Statement{SQL: sql, Params: params, Mapping: mapping},
	}
}
