package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulesort/internal/testutil"
)

const peopleConfig = `
database: dsn: %s
optimizer: %t
entities: [{
	name: "Person"
	table: "person"
	fields: [{name: "id"}, {name: "name"}, {name: "age"}]
	associations: [{name: "address", target: "Address", joinColumn: "address_id"}]
}, {
	name: "Address"
	table: "address"
	fields: [{name: "id"}, {name: "city"}]
}]
`

func configFile(t *testing.T, optimizer bool) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rulesort.cue")
	src := fmt.Sprintf(peopleConfig, strconv.Quote(testutil.PeopleDatabase(t)), optimizer)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestQueryCommand(t *testing.T) {
	out, err := execute(t, "--format", "json", "--config", configFile(t, true),
		"query", "Person", "--by", "age:desc", "--limit", "2")
	require.NoError(t, err)
	assert.Equal(t, []string{"dan", "ada"}, responseNames(t, decode(t, out)))
}

func TestQueryCommand_JoinedSort(t *testing.T) {
	out, err := execute(t, "--format", "json", "--config", configFile(t, true),
		"query", "Person", "--alias", "p", "--by", "address.city:desc", "--by", "name",
		"--filter", "age < :max", "-p", "max=50")
	require.NoError(t, err)
	assert.Equal(t, []string{"cid", "ada", "eve", "bob"}, responseNames(t, decode(t, out)))
}

func TestQueryCommand_Templates(t *testing.T) {
	args := []string{
		"query", "Person", "--by", "age",
		"--template", "age > :min", "--template", "name = :who",
		"-p", "min=35", "-p", "who=bob",
	}
	for _, optimizer := range []bool{true, false} {
		t.Run(strconv.FormatBool(optimizer), func(t *testing.T) {
			cfg := configFile(t, optimizer)
			out, err := execute(t, append([]string{"--format", "json", "--config", cfg}, args...)...)
			require.NoError(t, err)
			assert.Equal(t, []string{"bob", "ada", "dan"}, responseNames(t, decode(t, out)))

			out, err = execute(t, append([]string{"--format", "json", "--config", cfg}, append(args, "--explain")...)...)
			require.NoError(t, err)
			explain := decode(t, out).Data.(map[string]any)
			assert.Equal(t, optimizer, strings.Contains(explain["sql"].(string), " UNION "))
			assert.Len(t, explain["params"], 2)
		})
	}
}

func TestQueryCommand_Count(t *testing.T) {
	out, err := execute(t, "--format", "json", "--config", configFile(t, true),
		"query", "Person", "--template", "age > :min", "--template", "name = :who",
		"-p", "min=35", "-p", "who=bob", "--limit", "1", "--count")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"count": float64(3)}, decode(t, out).Data)
}

func TestQueryCommand_Errors(t *testing.T) {
	cfg := configFile(t, true)
	tests := []struct {
		name string
		args []string
		exit int
		code string
	}{
		{"missing config", []string{"--config", filepath.Join(t.TempDir(), "none.cue"), "query", "Person"}, ExitCommandError, ErrCodeConfig},
		{"unknown entity", []string{"--config", cfg, "query", "Robot"}, ExitCommandError, ErrCodeInput},
		{"unknown field", []string{"--config", cfg, "query", "Person", "--by", "height"}, ExitFailure, ErrCodeQuery},
		{"unknown operator", []string{"--config", cfg, "query", "Person", "--by", "soundex(name)"}, ExitFailure, ErrCodeRule},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"--format", "json"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.exit, GetExitCode(err))
			assert.Equal(t, tt.code, decode(t, out).Error.Code)
		})
	}
}
