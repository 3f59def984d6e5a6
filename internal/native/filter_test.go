package native

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulesort/internal/compiler"
	"github.com/roach88/rulesort/internal/rule"
	"github.com/roach88/rulesort/internal/spec"
)

func compileFilter(t *testing.T, text string) compiler.Executor {
	t.Helper()
	n, err := rule.Parse(text)
	require.NoError(t, err)
	exec, err := NewFilterTarget(nil).Compile(n)
	require.NoError(t, err)
	return exec
}

func TestFilter_Comparisons(t *testing.T) {
	tests := []struct {
		rule   string
		params spec.Parameters
		want   []string
	}{
		{"age = 25", nil, []string{"a", "c"}},
		{"age > ?", spec.Positional(25), []string{"b"}},
		{"age >= :min AND name != 'c'", spec.Parameters{spec.Named("min", 25)}, []string{"b", "a"}},
		{"name = 'a' OR name = 'b'", nil, []string{"b", "a"}},
		{"NOT age < 30", nil, []string{"b"}},
		{"like(name, ?)", spec.Positional("_"), []string{"b", "a", "c"}},
		{"upper(name) = 'C'", nil, []string{"c"}},
	}
	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			exec := compileFilter(t, tt.rule)
			got, err := exec.Filter(context.Background(), people(), tt.params, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(t, got))
		})
	}
}

func TestFilter_ExecutionContext(t *testing.T) {
	exec := compileFilter(t, "name = ctx('who')")

	got, err := exec.Filter(context.Background(), people(), nil, compiler.ExecutionContext{"who": "c"})
	require.NoError(t, err)

	assert.Equal(t, []string{"c"}, names(t, got))
}

func TestFilter_MissingParameter(t *testing.T) {
	exec := compileFilter(t, "age = :min")

	_, err := exec.Filter(context.Background(), people(), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ":min")
}

func TestFilter_Satisfies(t *testing.T) {
	exec := compileFilter(t, "address.city = 'Oslo'")

	ok, err := exec.Satisfies(context.Background(), map[string]any{"address": map[string]any{"city": "Oslo"}}, nil, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = exec.Satisfies(context.Background(), map[string]any{}, nil, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFilter_UnknownOperator(t *testing.T) {
	n, err := rule.Parse("soundex(name) = 'x'")
	require.NoError(t, err)

	_, err = NewFilterTarget(nil).Compile(n)
	assert.True(t, compiler.IsOperatorNotFound(err))
}

func TestFilter_SortIsNotSupported(t *testing.T) {
	exec := compileFilter(t, "age = 25")

	_, err := exec.Sort(context.Background(), people(), nil, nil)
	require.ErrorIs(t, err, compiler.ErrNotSupported)
}

func TestFilterTarget_Supports(t *testing.T) {
	target := NewFilterTarget(nil)

	assert.True(t, target.Supports([]any{}, compiler.ModeFilter))
	assert.True(t, target.Supports(map[string]any{}, compiler.ModeSatisfies))
	assert.False(t, target.Supports([]any{}, compiler.ModeSatisfies))
	assert.False(t, target.Supports([]any{}, compiler.ModeSort))
}
