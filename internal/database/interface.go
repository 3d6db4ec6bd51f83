package database

import "context"

// DB is a connection pool. Every request borrows exactly one Conn from it,
// points that Conn at a database with SelectDatabase and releases it when
// the request completes. Layers above this package never import the
// postgres or mysql packages directly.
type DB interface {
	// Conn borrows a dedicated connection from the pool.
	Conn(ctx context.Context) (Conn, error)

	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the connection pool.
	Close()

	// Dialect reports the SQL flavour spoken by the pool.
	Dialect() Dialect
}

// Querier runs statements. Both Conn and test doubles implement it.
type Querier interface {
	// Query executes a SQL statement that returns multiple rows.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// QueryRow executes a SQL statement that returns at most one row.
	// A missing row surfaces from Scan as a not-found error.
	QueryRow(ctx context.Context, sql string, args ...any) Row

	// Exec executes a statement that returns no rows.
	Exec(ctx context.Context, sql string, args ...any) (Result, error)

	// Dialect reports how identifiers and placeholders are written.
	Dialect() Dialect
}

// Conn is a single connection borrowed from a DB.
type Conn interface {
	Querier

	// SelectDatabase makes name the target of unqualified table names for
	// the remaining lifetime of the connection. Callers must allow-list
	// name against the catalog first.
	SelectDatabase(ctx context.Context, name string) error

	// Release returns the connection to the pool. Safe to call twice.
	Release()
}

// Result describes the effect of an Exec.
type Result struct {
	RowsAffected int64
	LastInsertID int64 // 0 when the engine does not report one
}

// Rows is an abstraction over a database result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	// Next advances to the next row.
	// Returns false when no more rows exist or on error.
	Next() bool

	// Scan copies the current row's columns into the provided destinations.
	Scan(dest ...any) error

	// Columns returns the column names of the result set.
	Columns() ([]string, error)

	// Close releases resources held by the result set.
	Close()

	// Err returns any error encountered during iteration.
	Err() error
}

// Row is an abstraction over a single database row.
type Row interface {
	Scan(dest ...any) error
}
