package querysql

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnsupported is returned when a dialect cannot express a construct.
var ErrUnsupported = errors.New("not supported by dialect")

// Dialect renders the backend-specific parts of a statement.
type Dialect interface {
	// Name is the dialect name used in configuration.
	Name() string

	// Placeholder returns the n-th (1-based) parameter placeholder.
	Placeholder(n int) string

	// Function renders a portable function over rendered arguments.
	Function(name string, args []string) (string, error)

	// Match renders a full-text relevance score.
	Match(columns []string, query string) (string, error)

	// Pagination renders the LIMIT/OFFSET suffix, with a leading space, or "".
	Pagination(limit *int, offset int) string
}

var (
	SQLite   Dialect = sqliteDialect{}
	MySQL    Dialect = mysqlDialect{}
	Postgres Dialect = postgresDialect{}
)

// DialectFor returns the dialect registered under name.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql":
		return Postgres, nil
	}
	return nil, fmt.Errorf("unknown dialect %q", name)
}

var commonFunctions = map[string]string{
	"length":   "LENGTH",
	"lower":    "LOWER",
	"upper":    "UPPER",
	"abs":      "ABS",
	"trim":     "TRIM",
	"coalesce": "COALESCE",
}

// IsFunction reports whether name is a portable function every dialect
// renders.
func IsFunction(name string) bool {
	_, ok := commonFunctions[name]
	return ok || name == "concat"
}

func renderFunction(d Dialect, name string, args []string, overrides map[string]string) (string, error) {
	fn, ok := overrides[name]
	if !ok {
		fn, ok = commonFunctions[name]
	}
	if !ok {
		return "", fmt.Errorf("function %s: %w (%s)", name, ErrUnsupported, d.Name())
	}
	return fn + "(" + strings.Join(args, ", ") + ")", nil
}

func pagination(limit *int, offset int, unbounded string) string {
	var b strings.Builder
	switch {
	case limit != nil:
		b.WriteString(" LIMIT " + strconv.Itoa(*limit))
	case offset > 0 && unbounded != "":
		b.WriteString(" LIMIT " + unbounded)
	}
	if offset > 0 {
		b.WriteString(" OFFSET " + strconv.Itoa(offset))
	}
	return b.String()
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string           { return "sqlite" }
func (sqliteDialect) Placeholder(int) string { return "?" }

func (d sqliteDialect) Function(name string, args []string) (string, error) {
	if name == "concat" {
		return "(" + strings.Join(args, " || ") + ")", nil
	}
	return renderFunction(d, name, args, nil)
}

func (d sqliteDialect) Match([]string, string) (string, error) {
	return "", fmt.Errorf("full-text match: %w (%s)", ErrUnsupported, d.Name())
}

func (sqliteDialect) Pagination(limit *int, offset int) string {
	return pagination(limit, offset, "-1")
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string           { return "mysql" }
func (mysqlDialect) Placeholder(int) string { return "?" }

func (d mysqlDialect) Function(name string, args []string) (string, error) {
	return renderFunction(d, name, args, map[string]string{
		"length": "CHAR_LENGTH",
		"concat": "CONCAT",
	})
}

func (mysqlDialect) Match(columns []string, query string) (string, error) {
	return "MATCH (" + strings.Join(columns, ", ") + ") AGAINST (" + query + ")", nil
}

func (mysqlDialect) Pagination(limit *int, offset int) string {
	return pagination(limit, offset, "18446744073709551615")
}

type postgresDialect struct{}

func (postgresDialect) Name() string             { return "postgres" }
func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (d postgresDialect) Function(name string, args []string) (string, error) {
	if name == "concat" {
		return "(" + strings.Join(args, " || ") + ")", nil
	}
	return renderFunction(d, name, args, nil)
}

func (postgresDialect) Match(columns []string, query string) (string, error) {
	return "ts_rank(to_tsvector(concat_ws(' ', " + strings.Join(columns, ", ") + ")), plainto_tsquery(" + query + "))", nil
}

func (postgresDialect) Pagination(limit *int, offset int) string {
	return pagination(limit, offset, "")
}
