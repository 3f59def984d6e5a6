package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulesort/internal/querysql"
)

const people = `
database: dsn: "people.db"
entities: [{
	name: "Person"
	table: "person"
	fields: [{name: "id"}, {name: "name"}, {name: "age"}]
	associations: [{name: "address", target: "Address", joinColumn: "address_id"}]
}, {
	name: "Address"
	fields: [{name: "id"}, {name: "city", column: "city_name"}]
}]
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse("people.cue", []byte(people))
	require.NoError(t, err)

	assert.Equal(t, Database{Driver: "sqlite3", DSN: "people.db"}, cfg.Database)
	assert.Equal(t, "sqlite", cfg.Dialect)
	assert.Equal(t, 256, cfg.CacheSize)
	assert.True(t, cfg.Optimizer)
	require.Len(t, cfg.Entities, 2)
	assert.Equal(t, "Address", cfg.Entities[1].Table)
	assert.Equal(t, "id", cfg.Entities[1].Identifier)
	assert.Empty(t, cfg.Entities[1].Associations)
	assert.Equal(t, "city_name", cfg.Entities[1].Fields[1].Column)
}

func TestParse_Overrides(t *testing.T) {
	src := `
database: {driver: "postgres", dsn: "postgres://localhost/people"}
dialect: "postgres"
cacheSize: 16
optimizer: false
`
	cfg, err := Parse("pg.cue", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 16, cfg.CacheSize)
	assert.False(t, cfg.Optimizer)
	assert.Empty(t, cfg.Entities)

	d, err := cfg.SQLDialect()
	require.NoError(t, err)
	assert.Equal(t, querysql.Postgres, d)
}

func TestParse_Rejects(t *testing.T) {
	tests := map[string]string{
		"syntax":         `database: {`,
		"missing dsn":    `dialect: "mysql"`,
		"bad dialect":    `database: dsn: "x"` + "\n" + `dialect: "oracle"`,
		"negative cache": `database: dsn: "x"` + "\n" + `cacheSize: -1`,
		"unknown field":  `database: dsn: "x"` + "\n" + `colour: "blue"`,
		"nameless field": `database: dsn: "x"` + "\n" + `entities: [{name: "A", fields: [{column: "a"}]}]`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(name+".cue", []byte(src))
			require.Error(t, err)
		})
	}
}

func TestConfig_Schema(t *testing.T) {
	cfg, err := Parse("people.cue", []byte(people))
	require.NoError(t, err)

	s, err := cfg.Schema()
	require.NoError(t, err)
	person, err := s.Entity("Person")
	require.NoError(t, err)
	assoc, ok := person.Association("address")
	require.True(t, ok)
	assert.Equal(t, "Address", assoc.Target)
	assert.Equal(t, "id", assoc.Referenced())

	address, err := s.Entity("Address")
	require.NoError(t, err)
	col, err := address.Column("city")
	require.NoError(t, err)
	assert.Equal(t, "city_name", col)
}

func TestConfig_SchemaUnknownTarget(t *testing.T) {
	cfg, err := Parse("bad.cue", []byte(`
database: dsn: "x"
entities: [{name: "A", fields: [{name: "id"}], associations: [{name: "b", target: "B", joinColumn: "b_id"}]}]
`))
	require.NoError(t, err)
	_, err = cfg.Schema()
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rulesort.cue")
	require.NoError(t, os.WriteFile(path, []byte(people), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Entities, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.cue"))
	require.Error(t, err)
}
