// Package store executes rendered SQL against a database/sql backend.
//
// Three drivers are registered: sqlite3 (mattn/go-sqlite3), mysql
// (go-sql-driver/mysql) and postgres (lib/pq). Rows are returned as
// column-name maps so callers can hydrate them through a result-set
// mapping without knowing the driver's column types.
//
// # Database Configuration (sqlite3)
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
