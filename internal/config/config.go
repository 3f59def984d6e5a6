package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/rulesort/internal/querysql"
	"github.com/roach88/rulesort/internal/schema"
)

//go:embed schema.cue
var schemaCUE string

// Config is a decoded configuration file.
type Config struct {
	Database  Database `json:"database"`
	Dialect   string   `json:"dialect"`
	CacheSize int      `json:"cacheSize"`
	Optimizer bool     `json:"optimizer"`
	Entities  []Entity `json:"entities"`
}

// Database selects the database/sql driver and its data source.
type Database struct {
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
}

// Entity maps one entity to a table.
type Entity struct {
	Name         string        `json:"name"`
	Table        string        `json:"table"`
	Identifier   string        `json:"identifier"`
	Fields       []Field       `json:"fields"`
	Associations []Association `json:"associations"`
}

type Field struct {
	Name   string `json:"name"`
	Column string `json:"column,omitempty"`
}

type Association struct {
	Name             string `json:"name"`
	Target           string `json:"target"`
	JoinColumn       string `json:"joinColumn"`
	ReferencedColumn string `json:"referencedColumn,omitempty"`
	Inverse          bool   `json:"inverse"`
}

// Load reads and decodes the CUE file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes CUE source. filename is used in error positions.
func Parse(filename string, src []byte) (*Config, error) {
	ctx := cuecontext.New()

	def := ctx.CompileString(schemaCUE, cue.Filename("schema.cue")).LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("config schema: %w", err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	v = def.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate %s: %w", filename, err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	return &cfg, nil
}

// Schema builds the entity metadata.
func (c *Config) Schema() (*schema.Schema, error) {
	entities := make([]schema.Entity, len(c.Entities))
	for i, e := range c.Entities {
		fields := make([]schema.Field, len(e.Fields))
		for j, f := range e.Fields {
			fields[j] = schema.Field{Name: f.Name, Column: f.Column}
		}
		assocs := make([]schema.Association, len(e.Associations))
		for j, a := range e.Associations {
			assocs[j] = schema.Association{
				Name:             a.Name,
				Target:           a.Target,
				JoinColumn:       a.JoinColumn,
				ReferencedColumn: a.ReferencedColumn,
				Inverse:          a.Inverse,
			}
		}
		entities[i] = schema.Entity{
			Name:         e.Name,
			Table:        e.Table,
			Identifier:   e.Identifier,
			Fields:       fields,
			Associations: assocs,
		}
	}
	return schema.New(entities...)
}

// SQLDialect returns the configured dialect.
func (c *Config) SQLDialect() (querysql.Dialect, error) {
	return querysql.DialectFor(c.Dialect)
}
