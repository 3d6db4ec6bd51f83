package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/koustreak/dbdesk/internal/database/mysql"
	"github.com/koustreak/dbdesk/internal/filestore"
	"github.com/koustreak/dbdesk/internal/logger"
	"github.com/koustreak/dbdesk/internal/records"
	"github.com/koustreak/dbdesk/internal/savedquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, opts ...Option) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	return newServerWithConfig(t, Config{MaxRows: 100, Limits: records.DefaultLimits()}, opts...)
}

func newServerWithConfig(t *testing.T, cfg Config, opts ...Option) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	opts = append([]Option{WithLogger(logger.Nop())}, opts...)
	return New(cfg, mysql.NewFromDB(db), opts...).Handler(), mock
}

// expectSelect registers the allow-list lookup and USE for database shop.
func expectSelect(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`FROM information_schema.schemata`).
		WillReturnRows(sqlmock.NewRows([]string{"schema_name", "tables", "size"}).
			AddRow("information_schema", 60, 0).
			AddRow("shop", 3, 49152))
	mock.ExpectExec("USE `shop`").WillReturnResult(sqlmock.NewResult(0, 0))
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, rd))

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	h, _ := newServer(t)

	rec, body := do(t, h, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "mysql", body["dialect"])
	assert.Equal(t, false, body["savedQueries"])
}

func TestHealth_PingsSavedQueries(t *testing.T) {
	store, err := savedquery.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	h, _ := newServer(t, WithSavedQueries(store))

	rec, body := do(t, h, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["savedQueries"])

	require.NoError(t, store.Close())
	rec, body = do(t, h, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "saved query store unavailable", body["error"])
}

func TestListDatabases_HidesSystemSchemas(t *testing.T) {
	h, mock := newServer(t)
	mock.ExpectQuery(`FROM information_schema.schemata`).
		WillReturnRows(sqlmock.NewRows([]string{"schema_name", "tables", "size"}).
			AddRow("mysql", 30, 0).
			AddRow("shop", 3, 49152))

	rec, body := do(t, h, http.MethodGet, "/api/databases", "")
	require.Equal(t, http.StatusOK, rec.Code)

	dbs := body["databases"].([]any)
	require.Len(t, dbs, 1)
	assert.Equal(t, "shop", dbs[0].(map[string]any)["name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectDatabase_UnknownIsNotFound(t *testing.T) {
	h, mock := newServer(t)
	mock.ExpectQuery(`FROM information_schema.schemata`).
		WillReturnRows(sqlmock.NewRows([]string{"schema_name", "tables", "size"}).AddRow("shop", 3, 0))

	rec, body := do(t, h, http.MethodGet, "/api/databases/billing/tables", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, `database "billing" not found`, body["error"])
	assert.NoError(t, mock.ExpectationsWereMet(), "no USE may run for a database outside the allow-list")
}

func TestListTables(t *testing.T) {
	h, mock := newServer(t)
	expectSelect(mock)
	mock.ExpectQuery(`COALESCE\(data_length \+ index_length, 0\)`).
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "table_type", "size"}).
			AddRow("active_users", "VIEW", 0).
			AddRow("users", "BASE TABLE", 16384))

	rec, body := do(t, h, http.MethodGet, "/api/databases/shop/tables", "")
	require.Equal(t, http.StatusOK, rec.Code)

	tables := body["tables"].([]any)
	require.Len(t, tables, 2)
	assert.Equal(t, "view", tables[0].(map[string]any)["kind"])
	assert.Equal(t, float64(16384), tables[1].(map[string]any)["size"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteQuery(t *testing.T) {
	h, mock := newServer(t)
	expectSelect(mock)
	mock.ExpectQuery(`SELECT id, name FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Ada").AddRow(2, "Linus"))

	rec, body := do(t, h, http.MethodPost, "/api/databases/shop/query", `{"query":"SELECT id, name FROM users;"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "select", body["type"])
	assert.Equal(t, []any{"id", "name"}, body["columns"])
	assert.Equal(t, float64(2), body["rowCount"])
	assert.Equal(t, false, body["truncated"])
	assert.Equal(t, []any{float64(1), "Ada"}, body["rows"].([]any)[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteQuery_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed body", `{"query":`, http.StatusBadRequest},
		{"empty statement", `{"query":"  ;"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mock := newServer(t)
			expectSelect(mock)

			rec, body := do(t, h, http.MethodPost, "/api/databases/shop/query", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestCreateDatabase_StepFailure(t *testing.T) {
	h, mock := newServer(t)
	mock.ExpectExec("CREATE DATABASE `shop` CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci").
		WillReturnError(&gomysql.MySQLError{Number: 1007, Message: "Can't create database 'shop'; database exists"})

	rec, body := do(t, h, http.MethodPost, "/api/databases", `{"name":"shop"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, float64(1), body["step"])
	assert.Equal(t, float64(0), body["committed"])
	assert.Contains(t, body["error"], "step 1/1 (create database) failed")
}

func TestExportQuery_Download(t *testing.T) {
	h, mock := newServer(t)
	expectSelect(mock)
	mock.ExpectQuery(`SELECT id, name FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Ada").AddRow(2, "Linus"))

	rec, _ := do(t, h, http.MethodPost, "/api/databases/shop/query/export?format=csv",
		`{"query":"SELECT id, name FROM users","name":"users"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, `attachment; filename="users.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "id,name\n1,Ada\n2,Linus\n", rec.Body.String())
}

func TestQueryTimeout_SparesExports(t *testing.T) {
	cfg := Config{MaxRows: 100, Limits: records.DefaultLimits(), QueryTimeout: 50 * time.Millisecond}

	t.Run("export outlives the timeout", func(t *testing.T) {
		h, mock := newServerWithConfig(t, cfg)
		expectSelect(mock)
		mock.ExpectQuery(`SELECT id FROM users`).
			WillDelayFor(200 * time.Millisecond).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))

		rec, _ := do(t, h, http.MethodPost, "/api/databases/shop/query/export", `{"query":"SELECT id FROM users"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "id\n1\n2\n", rec.Body.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ad-hoc query is cut off", func(t *testing.T) {
		h, mock := newServerWithConfig(t, cfg)
		expectSelect(mock)
		mock.ExpectQuery(`SELECT id FROM users`).
			WillDelayFor(200 * time.Millisecond).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

		rec, body := do(t, h, http.MethodPost, "/api/databases/shop/query", `{"query":"SELECT id FROM users"}`)
		assert.NotEqual(t, http.StatusOK, rec.Code)
		assert.Equal(t, false, body["success"])
	})
}

func TestExportQuery_RejectsWrites(t *testing.T) {
	h, mock := newServer(t)
	expectSelect(mock)

	rec, body := do(t, h, http.MethodPost, "/api/databases/shop/query/export", `{"query":"DELETE FROM users"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "only read statements can be exported", body["error"])
}

type memorySink struct {
	objects map[string][]byte
}

func (m *memorySink) Ping(context.Context) error { return nil }
func (m *memorySink) Close() error               { return nil }

func (m *memorySink) Put(_ context.Context, bucket, key string, r io.Reader, contentType string) (*filestore.ObjectInfo, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return nil, err
	}
	m.objects[bucket+"/"+key] = buf.Bytes()
	return &filestore.ObjectInfo{Bucket: bucket, Key: key, Size: n, ContentType: contentType}, nil
}

func (m *memorySink) PresignGetURL(_ context.Context, bucket, key string, ttl time.Duration) (string, error) {
	return "https://objects.local/" + bucket + "/" + key + "?ttl=" + ttl.String(), nil
}

func TestExportQuery_ObjectSink(t *testing.T) {
	sink := &memorySink{objects: map[string][]byte{}}
	h, mock := newServer(t, WithSink(sink))
	expectSelect(mock)
	mock.ExpectQuery(`SELECT id FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2).AddRow(3))

	rec, body := do(t, h, http.MethodPost, "/api/databases/shop/query/export?format=jsonl&sink=object",
		`{"query":"SELECT id FROM users"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	key := body["key"].(string)
	assert.Equal(t, "dbdesk-exports", body["bucket"])
	assert.True(t, strings.HasPrefix(key, "exports/shop/query-"), key)
	assert.True(t, strings.HasSuffix(key, ".jsonl"), key)
	assert.Equal(t, float64(3), body["rows"])
	assert.Contains(t, body["url"], "https://objects.local/dbdesk-exports/")

	stored := string(sink.objects["dbdesk-exports/"+key])
	assert.Equal(t, "{\"id\":1}\n{\"id\":2}\n{\"id\":3}\n", stored)
	assert.Equal(t, float64(len(stored)), body["size"])
}

func TestExportQuery_ObjectSinkDisabled(t *testing.T) {
	h, mock := newServer(t)
	expectSelect(mock)

	rec, body := do(t, h, http.MethodPost, "/api/databases/shop/query/export?sink=object", `{"query":"SELECT 1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "object storage export is not configured", body["error"])
}

func TestSavedQueries(t *testing.T) {
	store, err := savedquery.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	h, _ := newServer(t, WithSavedQueries(store))

	rec, body := do(t, h, http.MethodPost, "/api/saved-queries",
		`{"name":"recent orders","sql":"SELECT * FROM orders ORDER BY id DESC","database":"shop","table":"orders"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	id := body["query"].(map[string]any)["id"].(string)

	_, body = do(t, h, http.MethodGet, "/api/saved-queries?database=shop&table=orders", "")
	require.Len(t, body["queries"], 1)

	_, body = do(t, h, http.MethodGet, "/api/saved-queries?database=shop&table=users", "")
	assert.Empty(t, body["queries"])

	_, body = do(t, h, http.MethodGet, "/api/saved-queries/"+id, "")
	assert.Equal(t, float64(1), body["query"].(map[string]any)["useCount"])

	rec, _ = do(t, h, http.MethodDelete, "/api/saved-queries/"+id, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = do(t, h, http.MethodGet, "/api/saved-queries/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestSavedQueries_Disabled(t *testing.T) {
	h, _ := newServer(t)

	rec, body := do(t, h, http.MethodGet, "/api/saved-queries", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "saved queries are not enabled", body["error"])
}

func TestPageRequest(t *testing.T) {
	q := url.Values{
		"offset":     {"40"},
		"limit":      {"20"},
		"sortColumn": {"age"},
		"sortOrder":  {"desc"},
		"filters":    {`{"age":">=30","active":true}`},
	}
	r := httptest.NewRequest(http.MethodGet, "/x?"+q.Encode(), nil)

	req, err := pageRequest(r)
	require.NoError(t, err)
	assert.Equal(t, 40, req.Offset)
	assert.Equal(t, 20, req.Limit)
	assert.Equal(t, "age", req.SortColumn)
	assert.Equal(t, "desc", req.SortOrder)
	assert.Equal(t, records.Filters{"age": ">=30", "active": "true"}, req.Filters)

	_, err = pageRequest(httptest.NewRequest(http.MethodGet, "/x?limit=ten", nil))
	assert.Error(t, err)
	_, err = pageRequest(httptest.NewRequest(http.MethodGet, "/x?filters=%5B1%5D", nil))
	assert.Error(t, err)
}
