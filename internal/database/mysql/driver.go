package mysql

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	_ "github.com/go-sql-driver/mysql" // register "mysql" driver
	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/errs"
)

// Driver is a MySQL implementation of database.DB backed by database/sql.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	db *sql.DB
}

// New opens a MySQL connection pool using the provided Config and returns a Driver.
// It calls Ping to validate the connection before returning.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	db, err := buildPool(cfg)
	if err != nil {
		return nil, err
	}

	d := &Driver{db: db}

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	if err := d.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return d, nil
}

// NewFromDB wraps an already opened pool. The caller keeps responsibility
// for the DSN options New would otherwise enforce.
func NewFromDB(db *sql.DB) *Driver {
	return &Driver{db: db}
}

// --- database.DB implementation ---

func (d *Driver) Conn(ctx context.Context) (database.Conn, error) {
	c, err := d.db.Conn(ctx)
	if err != nil {
		return nil, mapError(err, "failed to acquire connection")
	}
	return &conn{c: c}, nil
}

func (d *Driver) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

func (d *Driver) Close() {
	_ = d.db.Close()
}

func (d *Driver) Dialect() database.Dialect {
	return database.DialectMySQL
}

// --- database.Conn implementation ---

type conn struct {
	c    *sql.Conn
	once sync.Once
}

func (c *conn) SelectDatabase(ctx context.Context, name string) error {
	if _, err := c.c.ExecContext(ctx, "USE "+database.DialectMySQL.QuoteIdent(name)); err != nil {
		return mapError(err, "failed to select database")
	}
	return nil
}

func (c *conn) Release() {
	c.once.Do(func() { _ = c.c.Close() })
}

func (c *conn) Dialect() database.Dialect {
	return database.DialectMySQL
}

func (c *conn) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := c.c.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &mysqlRows{rows: rows}, nil
}

func (c *conn) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return &mysqlRow{row: c.c.QueryRowContext(ctx, query, args...)}
}

func (c *conn) Exec(ctx context.Context, query string, args ...any) (database.Result, error) {
	res, err := c.c.ExecContext(ctx, query, args...)
	if err != nil {
		return database.Result{}, mapError(err, "statement failed")
	}
	var out database.Result
	if out.RowsAffected, err = res.RowsAffected(); err != nil {
		return database.Result{}, mapError(err, "failed to read affected rows")
	}
	// LastInsertId never fails on this driver, but stays 0 for non-inserts.
	out.LastInsertID, _ = res.LastInsertId()
	return out, nil
}

// --- sql.DB type wrappers ---

type mysqlRows struct {
	rows *sql.Rows
}

func (r *mysqlRows) Next() bool                 { return r.rows.Next() }
func (r *mysqlRows) Columns() ([]string, error) { return r.rows.Columns() }
func (r *mysqlRows) Close()                     { _ = r.rows.Close() }

func (r *mysqlRows) Scan(dest ...any) error {
	if err := r.rows.Scan(dest...); err != nil {
		return mapError(err, "failed to scan row")
	}
	return nil
}

func (r *mysqlRows) Err() error {
	if err := r.rows.Err(); err != nil {
		return mapError(err, "row iteration failed")
	}
	return nil
}

type mysqlRow struct {
	row *sql.Row
}

func (r *mysqlRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, "record not found", err)
	}
	return mapError(err, "failed to scan row")
}
