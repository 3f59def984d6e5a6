package orm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulesort/internal/queryir"
	"github.com/roach88/rulesort/internal/querysql"
	"github.com/roach88/rulesort/internal/spec"
	"github.com/roach88/rulesort/internal/testutil"
)

func newEntityManager(t *testing.T) *EntityManager {
	t.Helper()
	return NewEntityManager(testutil.PeopleSchema(), querysql.SQLite, testutil.PeopleStore(t))
}

func people(em *EntityManager) *QueryBuilder {
	return em.CreateQueryBuilder().
		Select(queryir.EntitySelect{Alias: "p"}).
		From("Person", "p")
}

func TestQuery_ResultHydratesRootAndJoinedAliases(t *testing.T) {
	em := newEntityManager(t)
	qb := people(em).
		AddSelect(queryir.EntitySelect{Alias: "_address"}).
		LeftJoin("p", "address", "_address", nil).
		AndWhere(queryir.Compare{Op: "=", Left: queryir.Column{Alias: "p", Field: "name"}, Right: queryir.Param{Value: "ada"}})

	q, err := qb.GetQuery()
	require.NoError(t, err)
	records, err := q.Result(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, Record{
		"id":   int64(1),
		"name": "ada",
		"age":  int64(36),
		"_address": Record{
			"id":   int64(1),
			"city": "Oslo",
		},
	}, records[0])
}

func TestQuery_OrderAndPagination(t *testing.T) {
	em := newEntityManager(t)
	two := 2
	qb := people(em).
		AddOrderBy(
			queryir.OrderTerm{Expr: queryir.Column{Alias: "p", Field: "age"}, Direction: spec.Ascending},
			queryir.OrderTerm{Expr: queryir.Column{Alias: "p", Field: "name"}, Direction: spec.Descending},
		).
		SetFirstResult(1).
		SetMaxResults(&two)

	q, err := qb.GetQuery()
	require.NoError(t, err)
	records, err := q.Result(context.Background())
	require.NoError(t, err)

	names := make([]any, len(records))
	for i, r := range records {
		names[i] = r["name"]
	}
	assert.Equal(t, []any{"bob", "eve"}, names)
}

func TestQuery_SingleScalarResult(t *testing.T) {
	em := newEntityManager(t)
	qb := people(em).Select(queryir.ExprSelect{
		Expr: queryir.Count{Expr: queryir.Column{Alias: "p", Field: "id"}, Distinct: true},
		As:   "total",
	})

	q, err := qb.GetQuery()
	require.NoError(t, err)
	n, err := q.SingleScalarResult(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestQueryBuilder_LeftJoinUnique(t *testing.T) {
	em := newEntityManager(t)
	qb := people(em)
	join := queryir.Join{Parent: "p", Association: "address", Alias: "_address"}

	assert.True(t, qb.LeftJoinUnique(join))
	assert.False(t, qb.LeftJoinUnique(join))
	assert.Len(t, qb.Joins(), 1)

	other := join
	other.Alias = "a2"
	assert.True(t, qb.LeftJoinUnique(other))
	assert.Len(t, qb.Joins(), 2)
}

func TestQueryBuilder_CloneIsIndependent(t *testing.T) {
	em := newEntityManager(t)
	orig := people(em)
	c := orig.Clone().
		LeftJoin("p", "address", "_address", nil).
		AndWhere(queryir.Compare{Op: ">", Left: queryir.Column{Alias: "p", Field: "age"}, Right: queryir.Param{Value: 1}}).
		SetFirstResult(3)

	assert.Empty(t, orig.Joins())
	assert.Nil(t, orig.WherePart())
	assert.Equal(t, 0, orig.FirstResult())
	assert.Len(t, c.Joins(), 1)
}

func TestQueryBuilder_ResetPartsAndAliases(t *testing.T) {
	em := newEntityManager(t)
	qb := people(em).
		LeftJoin("p", "address", "_address", nil).
		LeftJoin("_address", "country", "_address_country", nil).
		Having(queryir.Compare{Op: ">", Left: queryir.Column{Alias: "p", Field: "age"}, Right: queryir.Param{Value: 1}}).
		AddOrderBy(queryir.OrderTerm{Expr: queryir.Column{Alias: "p", Field: "age"}, Direction: spec.Ascending})

	assert.Equal(t, []string{"p"}, qb.RootAliases())
	assert.Equal(t, []string{"Person"}, qb.RootEntities())
	assert.True(t, qb.HasAlias("_address_country"))
	assert.False(t, qb.HasAlias("x"))

	e, err := qb.EntityOf("_address_country")
	require.NoError(t, err)
	assert.Equal(t, "Country", e.Name)

	qb.ResetParts(PartHaving, PartOrderBy)
	assert.Nil(t, qb.HavingPart())
	assert.Empty(t, qb.OrderByPart())
}

func TestMaxResults_IsCopied(t *testing.T) {
	em := newEntityManager(t)
	limit := 3
	qb := people(em).SetMaxResults(&limit)
	limit = 7

	got := qb.MaxResults()
	require.NotNil(t, got)
	assert.Equal(t, 3, *got)

	qb.SetMaxResults(nil)
	assert.Nil(t, qb.MaxResults())
}

func TestNativeQuery(t *testing.T) {
	em := newEntityManager(t)
	mapping := querysql.Mapping{{Name: "n", Alias: "p", Field: "name"}}

	nq := em.CreateNativeQuery("SELECT name AS n, age FROM person WHERE id = ?", []any{2}, mapping)
	records, err := nq.Result(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []Record{{"name": "bob", "age": int64(25)}}, records)
}
