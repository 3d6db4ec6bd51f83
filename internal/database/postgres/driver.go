package postgres

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/errs"
)

// Driver is a PostgreSQL implementation of database.DB backed by pgxpool.
// It is safe for concurrent use by multiple goroutines.
//
// Postgres connections are bound to one database at connect time, so the
// "database" a request selects is a schema inside it.
type Driver struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL using the provided Config and returns a Driver.
// It calls Ping to validate the connection before returning.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	pool, err := buildPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	d := &Driver{pool: pool}

	if err := d.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return d, nil
}

// --- database.DB implementation ---

// Conn acquires a dedicated connection from the pool.
func (d *Driver) Conn(ctx context.Context) (database.Conn, error) {
	c, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, mapError(err, "failed to acquire connection")
	}
	return &conn{c: c}, nil
}

// Ping verifies the database is reachable by acquiring and releasing a connection.
func (d *Driver) Ping(ctx context.Context) error {
	if err := d.pool.Ping(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Close drains the connection pool. Call when the application shuts down.
func (d *Driver) Close() {
	d.pool.Close()
}

func (d *Driver) Dialect() database.Dialect {
	return database.DialectPostgres
}

// --- database.Conn implementation ---

type conn struct {
	c    *pgxpool.Conn
	once sync.Once
}

// SelectDatabase points unqualified names at schema name. The pool resets
// search_path when the connection is released.
func (c *conn) SelectDatabase(ctx context.Context, name string) error {
	if _, err := c.c.Exec(ctx, "SET search_path TO "+database.DialectPostgres.QuoteIdent(name)); err != nil {
		return mapError(err, "failed to select schema")
	}
	return nil
}

func (c *conn) Release() {
	c.once.Do(c.c.Release)
}

func (c *conn) Dialect() database.Dialect {
	return database.DialectPostgres
}

// Query executes a SQL statement that returns multiple rows.
func (c *conn) Query(ctx context.Context, sql string, args ...any) (database.Rows, error) {
	rows, err := c.c.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &pgxRows{rows: rows}, nil
}

// QueryRow executes a SQL statement expected to return at most one row.
func (c *conn) QueryRow(ctx context.Context, sql string, args ...any) database.Row {
	return &pgxRow{row: c.c.QueryRow(ctx, sql, args...)}
}

// Exec runs a statement. Postgres reports generated keys through
// RETURNING, so LastInsertID is always 0.
func (c *conn) Exec(ctx context.Context, sql string, args ...any) (database.Result, error) {
	tag, err := c.c.Exec(ctx, sql, args...)
	if err != nil {
		return database.Result{}, mapError(err, "statement failed")
	}
	return database.Result{RowsAffected: tag.RowsAffected()}, nil
}

// --- pgx type wrappers ---

// pgxRows wraps pgx.Rows to satisfy database.Rows.
type pgxRows struct {
	rows pgx.Rows
}

func (r *pgxRows) Next() bool { return r.rows.Next() }
func (r *pgxRows) Close()     { r.rows.Close() }

func (r *pgxRows) Scan(dest ...any) error {
	if err := r.rows.Scan(dest...); err != nil {
		return mapError(err, "failed to scan row")
	}
	return nil
}

func (r *pgxRows) Err() error {
	if err := r.rows.Err(); err != nil {
		return mapError(err, "row iteration failed")
	}
	return nil
}

func (r *pgxRows) Columns() ([]string, error) {
	descs := r.rows.FieldDescriptions()
	cols := make([]string, len(descs))
	for i, d := range descs {
		cols[i] = d.Name
	}
	return cols, nil
}

// pgxRow wraps pgx.Row to satisfy database.Row.
type pgxRow struct {
	row pgx.Row
}

func (r *pgxRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, "record not found", err)
	}
	return mapError(err, "failed to scan row")
}
