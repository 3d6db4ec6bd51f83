// Package dbtest provides sqlmock-backed connections for tests of packages
// that build and run SQL against a database.Conn.
package dbtest

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/database/mysql"
	"github.com/stretchr/testify/require"
)

// MySQL returns a MySQL-dialect connection whose statements are matched
// exactly against the expectations registered on the returned mock.
func MySQL(t *testing.T) (database.Conn, sqlmock.Sqlmock) {
	return open(t, sqlmock.QueryMatcherEqual)
}

// MySQLRegexp is MySQL with regular-expression statement matching, for
// tests that only care about a distinctive fragment of a long query.
func MySQLRegexp(t *testing.T) (database.Conn, sqlmock.Sqlmock) {
	return open(t, sqlmock.QueryMatcherRegexp)
}

// Pool returns a MySQL-dialect pool backed by the same kind of mock.
func Pool(t *testing.T) (database.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return mysql.NewFromDB(db), mock
}

func open(t *testing.T, matcher sqlmock.QueryMatcher) (database.Conn, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(matcher))
	require.NoError(t, err)

	conn, err := mysql.NewFromDB(db).Conn(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Release()
		_ = db.Close()
	})
	return conn, mock
}
