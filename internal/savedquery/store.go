// Package savedquery keeps named SQL snippets in a local SQLite file so
// operators can reuse them across sessions.
package savedquery

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/koustreak/dbdesk/internal/errs"
	_ "modernc.org/sqlite"
)

// SavedQuery is a stored SQL statement, optionally scoped to a database
// and table. Empty Database or Table means unscoped.
type SavedQuery struct {
	ID          string     `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	SQL         string     `db:"query_sql" json:"sql"`
	Database    string     `db:"database_name" json:"database,omitempty"`
	Table       string     `db:"table_name" json:"table,omitempty"`
	Description string     `db:"description" json:"description"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	LastUsedAt  *time.Time `db:"last_used_at" json:"lastUsedAt"`
	UseCount    int64      `db:"use_count" json:"useCount"`
}

// Store is the SQLite-backed saved query repository.
type Store struct {
	db   *sqlx.DB
	path string
}

// Open opens the SQLite file at path and applies migrations.
// Use ":memory:" for an in-memory store.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	if path == ":memory:" {
		dsn = ":memory:"
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to open saved query store", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to open saved query store", err)
	}

	s := &Store{db: db, path: path}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the store is usable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errs.Wrap(errs.ErrKindConnectionFailed, "saved query store unavailable", err)
	}
	return nil
}

const columns = `id, name, query_sql, COALESCE(database_name, '') AS database_name,
	COALESCE(table_name, '') AS table_name, description, created_at, last_used_at, use_count`

// Save stores q under a new id. Name and SQL are required.
func (s *Store) Save(ctx context.Context, q SavedQuery) (*SavedQuery, error) {
	q.Name = strings.TrimSpace(q.Name)
	q.SQL = strings.TrimSpace(q.SQL)
	if q.Name == "" {
		return nil, errs.Invalid("query name is required")
	}
	if q.SQL == "" {
		return nil, errs.Invalid("query SQL is required")
	}

	q.ID = uuid.NewString()
	q.CreatedAt = time.Now().UTC()
	q.LastUsedAt = nil
	q.UseCount = 0

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO saved_queries (id, name, query_sql, database_name, table_name, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.Name, q.SQL, nullIfEmpty(q.Database), nullIfEmpty(q.Table), q.Description, q.CreatedAt)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to save query", err)
	}
	return &q, nil
}

// List returns the queries visible for database and table: those scoped to
// them plus unscoped ones. Empty arguments do not filter. Recently used
// queries come first, then newest.
func (s *Store) List(ctx context.Context, database, table string) ([]SavedQuery, error) {
	var (
		where []string
		args  []any
	)
	if database != "" {
		where = append(where, "(database_name IS NULL OR database_name = ?)")
		args = append(args, database)
	}
	if table != "" {
		where = append(where, "(table_name IS NULL OR table_name = ?)")
		args = append(args, table)
	}

	q := "SELECT " + columns + " FROM saved_queries"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY last_used_at DESC, created_at DESC"

	out := make([]SavedQuery, 0)
	if err := s.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to list saved queries", err)
	}
	return out, nil
}

// Load returns the query with id and records the use.
func (s *Store) Load(ctx context.Context, id string) (*SavedQuery, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to load saved query", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE saved_queries SET use_count = use_count + 1, last_used_at = ? WHERE id = ?",
		time.Now().UTC(), id)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to load saved query", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, errs.NotFound("saved query %q not found", id)
	}

	var q SavedQuery
	if err := tx.GetContext(ctx, &q, "SELECT "+columns+" FROM saved_queries WHERE id = ?", id); err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to load saved query", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to load saved query", err)
	}
	return &q, nil
}

// Delete removes the query with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM saved_queries WHERE id = ?", id)
	if err != nil {
		return errs.Wrap(errs.ErrKindQueryFailed, "failed to delete saved query", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.NotFound("saved query %q not found", id)
	}
	return nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (s *Store) String() string {
	return fmt.Sprintf("savedquery(%s)", s.path)
}
