package native

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	type inner struct {
		Tags []string `json:"tags"`
	}
	record := map[string]any{
		"name": "ada",
		"address": map[string]any{
			"city": "London",
		},
		"items":  []any{"first", "second"},
		"detail": &inner{Tags: []string{"x", "y"}},
	}

	tests := []struct {
		path string
		want any
	}{
		{"name", "ada"},
		{"address.city", "London"},
		{"items.1", "second"},
		{"detail.tags.0", "x"},
		{"detail.Tags.1", "y"},
		{"missing", nil},
		{"address.missing.deeper", nil},
		{"items.7", nil},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(record, splitPath(tt.path)))
		})
	}
}

func splitPath(p string) []string {
	var out []string
	start := 0
	for i := 0; i < len(p); i++ {
		if p[i] == '.' {
			out = append(out, p[start:i])
			start = i + 1
		}
	}
	return append(out, p[start:])
}

func TestCompare(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		a, b any
		want int
	}{
		{"ints", 1, 2, -1},
		{"mixed numbers", int64(3), 2.5, 1},
		{"uint vs int", uint8(4), 4, 0},
		{"large int vs uint", int64(1<<53 + 1), uint64(1 << 53), 1},
		{"large uint vs int", uint64(1 << 53), int64(1<<53 + 1), -1},
		{"negative int vs uint", int64(-1), uint64(0), -1},
		{"max uint vs max int", uint64(math.MaxUint64), int64(math.MaxInt64), 1},
		{"strings", "b", "a", 1},
		{"nfc", "\u00e9", "e\u0301", 0},
		{"nil first", nil, 0, -1},
		{"bool before number", true, 0, -1},
		{"false before true", false, true, -1},
		{"number before string", 10, "1", -1},
		{"times", now, now.Add(time.Second), -1},
		{"pointer deref", ptr(5), 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.a, tt.b))
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestTruthy(t *testing.T) {
	assert.True(t, Truthy(true))
	assert.True(t, Truthy(1))
	assert.True(t, Truthy("x"))
	assert.True(t, Truthy(map[string]any{}))
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(0.0))
	assert.False(t, Truthy(""))
	assert.False(t, Truthy((*int)(nil)))
}
