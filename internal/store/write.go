package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Insert writes rows into table inside one transaction. Each row's columns
// are written in sorted order; rows may have different column sets.
func (s *Store) Insert(ctx context.Context, table string, rows ...Row) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	defer tx.Rollback()

	for _, row := range rows {
		columns := make([]string, 0, len(row))
		for name := range row {
			columns = append(columns, name)
		}
		slices.Sort(columns)

		placeholders := make([]string, len(columns))
		args := make([]any, len(columns))
		for i, name := range columns {
			placeholders[i] = s.placeholder(i + 1)
			args[i] = row[name]
		}

		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table,
			strings.Join(columns, ", "),
			strings.Join(placeholders, ", "))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

// ExecScript runs each statement of a semicolon-separated script. It is
// meant for fixture DDL, not for statements containing literal semicolons.
func (s *Store) ExecScript(ctx context.Context, script string) error {
	for _, stmt := range strings.Split(script, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return nil
}
