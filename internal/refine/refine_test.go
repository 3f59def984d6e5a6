package refine

import (
	"context"
	"iter"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulesort/internal/engine"
	"github.com/roach88/rulesort/internal/orm"
	"github.com/roach88/rulesort/internal/queryir"
	"github.com/roach88/rulesort/internal/querysql"
	"github.com/roach88/rulesort/internal/spec"
	"github.com/roach88/rulesort/internal/store"
	"github.com/roach88/rulesort/internal/testutil"
)

func newRefiner() *Refiner {
	return New(engine.DefaultSorting(nil), engine.DefaultFiltering(nil))
}

func newBuilder(t *testing.T) *orm.QueryBuilder {
	t.Helper()
	em := orm.NewEntityManager(testutil.PeopleSchema(), querysql.SQLite, testutil.PeopleStore(t))
	return em.CreateQueryBuilder().
		Select(queryir.EntitySelect{Alias: "p"}).
		From("Person", "p")
}

func rule(text string, values ...any) spec.Specification {
	return spec.Rule(text, spec.Positional(values...)...)
}

func intp(v int) *int { return &v }

func sortBy(t *testing.T, keys ...spec.Specification) spec.Specification {
	t.Helper()
	s, err := spec.NewSortAndX(keys...)
	require.NoError(t, err)
	return s
}

// templated keeps everyone but dan who is older than 30 or named bob.
func templated(t *testing.T) spec.Specification {
	t.Helper()
	ftc, err := spec.NewFilterTemplateComposite(rule("age > ?", 30), rule("name = ?", "bob"))
	require.NoError(t, err)
	filter, err := spec.NewAndX(rule("name != ?", "dan"), ftc)
	require.NoError(t, err)
	return filter
}

func names(t *testing.T, result any) []string {
	t.Helper()
	records, ok := result.([]orm.Record)
	require.True(t, ok, "result is %T", result)
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r["name"].(string)
	}
	return out
}

func TestRefineSpec_Builder(t *testing.T) {
	qb := newBuilder(t)
	got, err := newRefiner().RefineSpec(context.Background(), qb, Request{
		Filter: rule("age > ?", 24),
		Sort:   sortBy(t, spec.SortBy(spec.Descending, "age"), spec.SortBy(spec.Ascending, "name")),
		Offset: intp(1),
		Limit:  intp(2),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ada", "eve"}, names(t, got))

	assert.Nil(t, qb.WherePart())
	assert.Empty(t, qb.OrderByPart())
	assert.Nil(t, qb.MaxResults())
}

func TestRefineSpec_Union(t *testing.T) {
	qb := newBuilder(t)
	got, err := newRefiner().RefineSpec(context.Background(), qb, Request{
		Filter: templated(t),
		Sort:   spec.SortBy(spec.Ascending, "age"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "ada"}, names(t, got))
	assert.Nil(t, qb.WherePart())
}

func TestRefineSpec_UnionPaginatesOutside(t *testing.T) {
	got, err := newRefiner().RefineSpec(context.Background(), newBuilder(t), Request{
		Filter: templated(t),
		Sort:   spec.SortBy(spec.Descending, "age"),
		Limit:  intp(1),
		Offset: intp(1),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, names(t, got))
}

func TestRefineSpec_BuilderBoundsSurviveUnion(t *testing.T) {
	qb := newBuilder(t).SetMaxResults(intp(1))
	got, err := newRefiner().RefineSpec(context.Background(), qb, Request{
		Filter: templated(t),
		Sort:   spec.SortBy(spec.Descending, "age"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ada"}, names(t, got))
}

func TestRefineSpec_OptimizerState(t *testing.T) {
	ctx := context.Background()
	r := newRefiner()

	state, err := r.ApplyRefineSpecReturnOptimizerResult(ctx, newBuilder(t), Request{
		Filter: templated(t),
		Sort:   spec.SortBy(spec.Ascending, "age"),
	})
	require.NoError(t, err)
	assert.False(t, state.CanBeOptimized())

	got, err := r.RefineSpec(ctx, state, Request{})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "ada"}, names(t, got))

	_, err = r.RefineSpec(ctx, state, Request{Filter: rule("age > ?", 1)})
	require.ErrorIs(t, err, ErrAlreadyOptimized)
	_, err = r.RefineSpec(ctx, state, Request{Sort: spec.SortBy(spec.Ascending, "age")})
	require.ErrorIs(t, err, ErrAlreadyOptimized)
}

func TestRefineSpecOne(t *testing.T) {
	ctx := context.Background()
	r := newRefiner()

	got, ok, err := r.RefineSpecOne(ctx, newBuilder(t), Request{
		Sort: sortBy(t, spec.SortBy(spec.Ascending, "age"), spec.SortBy(spec.Descending, "name")),
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "cid", got.(orm.Record)["name"])

	_, ok, err = r.RefineSpecOne(ctx, newBuilder(t), Request{Filter: rule("age > ?", 100)})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApplyRefineSpec_ReturnsFilteredClone(t *testing.T) {
	qb := newBuilder(t)
	got, err := newRefiner().ApplyRefineSpec(context.Background(), qb, Request{
		Filter: templated(t),
		Sort:   spec.SortBy(spec.Ascending, "name"),
		Limit:  intp(3),
	})
	require.NoError(t, err)

	applied, ok := got.(*orm.QueryBuilder)
	require.True(t, ok)
	assert.NotSame(t, qb, applied)
	assert.NotNil(t, applied.WherePart())
	assert.Len(t, applied.OrderByPart(), 1)
	assert.Equal(t, 3, *applied.MaxResults())
	assert.Nil(t, qb.WherePart())
}

func TestCount_Builder(t *testing.T) {
	ctx := context.Background()
	r := newRefiner()

	tests := []struct {
		name string
		req  Request
		want int
	}{
		{"everyone", Request{}, 5},
		{"filtered", Request{Filter: rule("age < ?", 30)}, 2},
		{"ignores bounds", Request{Filter: rule("age < ?", 30), Limit: intp(1), Offset: intp(1)}, 2},
		{"union", Request{Filter: templated(t), Sort: spec.SortBy(spec.Ascending, "age")}, 2},
		{"joined sort", Request{Sort: spec.SortBy(spec.Ascending, "pets.petName")}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Count(ctx, newBuilder(t), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type recorder struct {
	sql  string
	args []any
}

func (r *recorder) QueryRows(context.Context, string, ...any) ([]store.Row, error) {
	return []store.Row{}, nil
}

func (r *recorder) QueryScalar(_ context.Context, query string, args ...any) (any, error) {
	r.sql, r.args = query, args
	return int64(7), nil
}

func TestCount_RelocatesFullTextMatch(t *testing.T) {
	rec := &recorder{}
	em := orm.NewEntityManager(testutil.PeopleSchema(), querysql.MySQL, rec)
	match := queryir.Match{
		Columns: []queryir.Column{{Alias: "p", Field: "name"}},
		Query:   queryir.Param{Value: "ada"},
	}
	qb := em.CreateQueryBuilder().
		Select(queryir.EntitySelect{Alias: "p"}, queryir.ExprSelect{Expr: match, As: "relevance"}).
		From("Person", "p").
		Having(queryir.Compare{Op: ">", Left: match, Right: queryir.Param{Value: 0.5}}).
		AddOrderBy(queryir.OrderTerm{Expr: match, Direction: spec.Descending})

	got, err := newRefiner().Count(context.Background(), qb, Request{})
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, "SELECT COUNT(DISTINCT p.id) AS sclr_0 FROM person p WHERE MATCH (p.name) AGAINST (?) > ?", rec.sql)
	assert.Equal(t, []any{"ada", 0}, rec.args)
}

func TestCount_UnionWrapsOuterCount(t *testing.T) {
	rec := &recorder{}
	em := orm.NewEntityManager(testutil.PeopleSchema(), querysql.SQLite, rec)
	qb := em.CreateQueryBuilder().
		Select(queryir.EntitySelect{Alias: "p"}).
		From("Person", "p")

	_, err := newRefiner().Count(context.Background(), qb, Request{Filter: templated(t)})
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT COUNT(sclr_0) AS sclr_0 FROM (SELECT p.id AS sclr_0 FROM person p WHERE p.name <> ? AND p.age > ? UNION SELECT p.id AS sclr_0 FROM person p WHERE p.name <> ? AND p.name = ?) u",
		rec.sql)
	assert.Equal(t, []any{"dan", 30, "dan", "bob"}, rec.args)
}

type person struct {
	Name string
	Age  int
}

func people() []person {
	return []person{{"eve", 30}, {"bob", 25}, {"ada", 36}, {"cid", 25}, {"dan", 52}}
}

func TestRefineSpec_Collection(t *testing.T) {
	got, err := newRefiner().RefineSpec(context.Background(), people(), Request{
		Filter: rule("age >= ?", 30),
		Sort:   spec.SortBy(spec.Ascending, "name"),
		Offset: intp(1),
		Limit:  intp(5),
	})
	require.NoError(t, err)
	assert.Equal(t, []person{{"dan", 52}, {"eve", 30}}, got)
}

func TestRefineSpec_CollectionBoundsClamp(t *testing.T) {
	r := newRefiner()
	ctx := context.Background()

	got, err := r.RefineSpec(ctx, people(), Request{Offset: intp(10)})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = r.RefineSpec(ctx, people(), Request{Limit: intp(2)})
	require.NoError(t, err)
	assert.Equal(t, people()[:2], got)
}

func TestRefineSpec_Iterator(t *testing.T) {
	seq := slices.Values([]any{
		map[string]any{"name": "b", "age": 30},
		map[string]any{"name": "a", "age": 25},
		map[string]any{"name": "c", "age": 25},
	})

	got, err := newRefiner().RefineSpec(context.Background(), iter.Seq[any](seq), Request{
		Sort:  spec.SortBy(spec.Descending, "name"),
		Limit: intp(2),
	})
	require.NoError(t, err)

	out, ok := got.(iter.Seq[any])
	require.True(t, ok, "result is %T", got)
	items := slices.Collect(out)
	require.Len(t, items, 2)
	assert.Equal(t, "c", items[0].(map[string]any)["name"])
	assert.Equal(t, "b", items[1].(map[string]any)["name"])
}

func TestCount_Collection(t *testing.T) {
	got, err := newRefiner().Count(context.Background(), people(), Request{Filter: rule("age = ?", 25), Limit: intp(1)})
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestRefineSpec_UnsupportedTarget(t *testing.T) {
	_, err := newRefiner().RefineSpec(context.Background(), 42, Request{Sort: spec.SortBy(spec.Ascending, "age")})
	require.ErrorIs(t, err, engine.ErrTargetUnsupported)

	_, err = newRefiner().RefineSpec(context.Background(), 42, Request{Limit: intp(1)})
	require.Error(t, err)
}

var _ orm.Querier = (*recorder)(nil)

func TestQuery_Explains(t *testing.T) {
	ctx := context.Background()
	req := Request{Filter: templated(t), Sort: spec.SortBy(spec.Ascending, "age"), Limit: intp(5)}

	q, err := newRefiner().Query(ctx, newBuilder(t), req)
	require.NoError(t, err)
	assert.Contains(t, q.SQL(), " UNION ")
	assert.True(t, strings.HasSuffix(q.SQL(), ") u ORDER BY age_2 ASC LIMIT 5"), q.SQL())

	disabled := New(engine.DefaultSorting(nil), engine.DefaultFiltering(nil), WithOptimizer(false))
	q, err = disabled.Query(ctx, newBuilder(t), req)
	require.NoError(t, err)
	assert.NotContains(t, q.SQL(), " UNION ")
	assert.Contains(t, q.SQL(), " OR ")

	records, err := q.Result(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "ada"}, names(t, records))

	_, err = newRefiner().Query(ctx, people(), Request{})
	require.Error(t, err)
}
