package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulesort/internal/compiler"
	"github.com/roach88/rulesort/internal/native"
	"github.com/roach88/rulesort/internal/orm"
	"github.com/roach88/rulesort/internal/queryir"
	"github.com/roach88/rulesort/internal/querysql"
	"github.com/roach88/rulesort/internal/rule"
	"github.com/roach88/rulesort/internal/spec"
	"github.com/roach88/rulesort/internal/testutil"
)

type record struct {
	Name string
	Age  int
}

func records() []record {
	return []record{{"b", 30}, {"a", 25}, {"c", 25}}
}

func newBuilder(t *testing.T) *orm.QueryBuilder {
	t.Helper()
	em := orm.NewEntityManager(testutil.PeopleSchema(), querysql.SQLite, testutil.PeopleStore(t))
	return em.CreateQueryBuilder().
		Select(queryir.EntitySelect{Alias: "p"}).
		From("Person", "p")
}

// claimAll supports everything and records that it was asked.
type claimAll struct {
	compiler.Unsupported
	name  string
	asked int
}

func (c *claimAll) Name() string { return c.name }

func (c *claimAll) Supports(any, compiler.Mode) bool {
	c.asked++
	return true
}

func (c *claimAll) Compile(rule.Node) (compiler.Executor, error) {
	return c, nil
}

func (c *claimAll) Sort(context.Context, any, spec.Parameters, compiler.ExecutionContext) (any, error) {
	return c.name, nil
}

func TestSortingEngine_Sort(t *testing.T) {
	e := DefaultSorting(nil)
	ctx := context.Background()

	got, err := e.Sort(ctx, records(), "age = ? AND name = ?", spec.Positional(spec.Ascending, spec.Ascending), nil)
	require.NoError(t, err)
	assert.Equal(t, []record{{"a", 25}, {"c", 25}, {"b", 30}}, got)

	got, err = e.SortSpec(ctx, records(), spec.SortBy(spec.Descending, "age"), nil)
	require.NoError(t, err)
	assert.Equal(t, []record{{"b", 30}, {"a", 25}, {"c", 25}}, got)
}

func TestSortingEngine_Empty(t *testing.T) {
	got, err := DefaultSorting(nil).SortSpec(context.Background(), []record{}, spec.SortBy(spec.Ascending, "age"), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSortingEngine_ApplySortDispatchesToBuilder(t *testing.T) {
	qb := newBuilder(t)
	got, err := DefaultSorting(nil).ApplySortSpec(context.Background(), qb, spec.SortBy(spec.Descending, "age"), nil)
	require.NoError(t, err)
	assert.Same(t, qb, got)
	assert.Equal(t, []queryir.OrderTerm{{
		Expr:      queryir.Column{Alias: "p", Field: "age"},
		Direction: spec.Descending,
	}}, qb.OrderByPart())
}

func TestSortingEngine_Satisfies(t *testing.T) {
	e := DefaultSorting(nil)
	ctx := context.Background()

	ok, err := e.SatisfiesSpec(ctx, records(), spec.SortBy(spec.Ascending, "age"), nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Satisfies(ctx, []record{}, "age = ?", spec.Positional(spec.Ascending), nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = e.SatisfiesSpec(ctx, newBuilder(t), spec.SortBy(spec.Ascending, "name"), nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSortingEngine_TargetUnsupported(t *testing.T) {
	e := DefaultSorting(nil)
	ctx := context.Background()

	_, err := e.Sort(ctx, "not a collection", "age = ?", spec.Positional(spec.Ascending), nil)
	require.ErrorIs(t, err, ErrTargetUnsupported)
	assert.True(t, IsTargetUnsupported(err))

	var de *DispatchError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, ErrCodeTargetUnsupported, de.Code)
	assert.Equal(t, "string", de.Target)
	assert.Equal(t, compiler.ModeSort, de.Mode)

	// In-memory collections cannot be sorted in place.
	_, err = e.ApplySort(ctx, records(), "age = ?", spec.Positional(spec.Ascending), nil)
	require.ErrorIs(t, err, ErrTargetUnsupported)
}

func TestSortingEngine_CompileErrors(t *testing.T) {
	e := DefaultSorting(nil)
	ctx := context.Background()

	_, err := e.Sort(ctx, records(), "soundex(name) = ?", spec.Positional(spec.Ascending), nil)
	require.Error(t, err)
	assert.True(t, IsCompileError(err))
	assert.True(t, compiler.IsOperatorNotFound(err))

	_, err = e.Sort(ctx, records(), "age = (", nil, nil)
	require.Error(t, err)
	assert.True(t, IsCompileError(err))
	var se *rule.SyntaxError
	assert.True(t, errors.As(err, &se))
}

func TestSortingEngine_FirstMatchWins(t *testing.T) {
	first := &claimAll{name: "first"}
	second := &claimAll{name: "second"}
	e := NewSortingEngine(nil, first, second)

	got, err := e.Sort(context.Background(), 1, "a = ?", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "first", got)
	assert.Equal(t, 1, first.asked)
	assert.Zero(t, second.asked)
}

func TestSortingEngine_Register(t *testing.T) {
	e := NewSortingEngine(nil)
	_, err := e.Sort(context.Background(), records(), "age = ?", spec.Positional(spec.Ascending), nil)
	require.ErrorIs(t, err, ErrTargetUnsupported)

	e.Register(native.NewSortTarget(nil))
	require.Len(t, e.Targets(), 1)
	_, err = e.Sort(context.Background(), records(), "age = ?", spec.Positional(spec.Ascending), nil)
	require.NoError(t, err)
}

func TestSortingEngine_SharesCompilerCache(t *testing.T) {
	c := compiler.New(8)
	e := DefaultSorting(c)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := e.SortSpec(ctx, records(), spec.SortBy(spec.Ascending, "age"), nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, c.Len())
}

func TestSortingEngine_SharedCompilerKeepsTargetOperators(t *testing.T) {
	c := compiler.New(0)
	negated := native.DefaultOperators().With(native.Operators{
		"abs": func(_ compiler.ExecutionContext, args []any) (any, error) {
			return -args[0].(int), nil
		},
	})
	plain := NewSortingEngine(c, native.NewSortTarget(nil))
	custom := NewSortingEngine(c, native.NewSortTarget(negated))
	ctx := context.Background()
	input := []map[string]any{{"n": 2}, {"n": 3}, {"n": 1}}
	key := spec.SortByOperator(spec.Ascending, "abs", "n")

	got, err := plain.SortSpec(ctx, input, key, nil)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"n": 1}, {"n": 2}, {"n": 3}}, got)

	got, err = custom.SortSpec(ctx, input, key, nil)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"n": 3}, {"n": 2}, {"n": 1}}, got)
	assert.Equal(t, 2, c.Len())
}

func TestFilteringEngine(t *testing.T) {
	e := DefaultFiltering(nil)
	ctx := context.Background()

	got, err := e.Filter(ctx, records(), "age < ?", spec.Positional(30), nil)
	require.NoError(t, err)
	assert.Equal(t, []record{{"a", 25}, {"c", 25}}, got)

	ok, err := e.SatisfiesSpec(ctx, record{"a", 25}, spec.Rule("name = :n", spec.Named("n", "a")), nil)
	require.NoError(t, err)
	assert.True(t, ok)

	qb := newBuilder(t)
	applied, err := e.ApplyFilterSpec(ctx, qb, spec.Rule("age > ?", spec.Positional(30)...), nil)
	require.NoError(t, err)
	assert.Same(t, qb, applied)
	assert.NotNil(t, qb.WherePart())

	result, err := e.FilterSpec(ctx, newBuilder(t), spec.Rule("age > ?", spec.Positional(40)...), nil)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "dan", result.([]orm.Record)[0]["name"])
}

func TestFilteringEngine_TargetUnsupported(t *testing.T) {
	_, err := DefaultFiltering(nil).ApplyFilter(context.Background(), records(), "age < ?", spec.Positional(30), nil)
	require.ErrorIs(t, err, ErrTargetUnsupported)
	assert.Contains(t, err.Error(), "TARGET_UNSUPPORTED")
}
