package records

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/koustreak/dbdesk/internal/database/dbtest"
	"github.com/koustreak/dbdesk/internal/errs"
	"github.com/koustreak/dbdesk/internal/query"
	"github.com/koustreak/dbdesk/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticDescriber map[string]*schema.TableDescriptor

func (s staticDescriber) Describe(_ context.Context, table string) (*schema.TableDescriptor, error) {
	if d, ok := s[table]; ok {
		return d, nil
	}
	return nil, errs.NotFound("table %q not found", table)
}

func newStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	conn, mock := dbtest.MySQL(t)
	describer := staticDescriber{
		"users":        usersTable(),
		"active_users": {Name: "active_users", Kind: schema.KindView, Columns: usersTable().Columns},
		"events":       eventsTable(),
	}
	return NewStore(conn, describer, DefaultLimits()), mock
}

func TestStore_UsersScenario(t *testing.T) {
	s, mock := newStore(t)
	ctx := context.Background()
	id := Identity{Column: "id", Value: "1"}
	cols := []string{"id", "name", "age"}

	mock.ExpectExec("INSERT INTO `users` (`name`, `age`) VALUES (?, ?)").
		WithArgs("Ada", nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT `id`, `name`, `age` FROM `users` WHERE `id` = ? LIMIT ?").
		WithArgs(int64(1), 1).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(1), "Ada", nil))
	mock.ExpectExec("UPDATE `users` SET `age` = ? WHERE `id` = ?").
		WithArgs(int64(30), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT COUNT(*) FROM `users` WHERE `name` LIKE ?").
		WithArgs("%Ad%").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT * FROM `users` WHERE `name` LIKE ? ORDER BY `age` DESC LIMIT ? OFFSET ?").
		WithArgs("%Ad%", 20, 0).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(1), "Ada", int64(30)))
	mock.ExpectExec("DELETE FROM `users` WHERE `id` = ?").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT `id`, `name`, `age` FROM `users` WHERE `id` = ? LIMIT ?").
		WithArgs(int64(1), 1).
		WillReturnRows(sqlmock.NewRows(cols))

	ins, err := s.Insert(ctx, "users", Values{"name": "Ada", "age": nil})
	require.NoError(t, err)
	assert.Equal(t, int64(1), ins.ID)
	assert.Equal(t, "id", ins.Column)

	row, err := s.SelectOne(ctx, "users", id)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": int64(1), "name": "Ada", "age": nil}, row)

	n, err := s.Update(ctx, "users", id, Values{"age": 30})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	page, err := s.SelectPage(ctx, "users", PageRequest{SortColumn: "age", SortOrder: "DESC", Filters: Filters{"name": "Ad"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 20, page.Limit)
	require.Len(t, page.Records, 1)
	assert.Equal(t, int64(1), page.Records[0]["id"])

	n, err = s.Delete(ctx, "users", id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.SelectOne(ctx, "users", id)
	assert.True(t, errs.IsNotFound(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_MissingRow(t *testing.T) {
	s, mock := newStore(t)
	ctx := context.Background()
	id := Identity{Column: "id", Value: 404}

	mock.ExpectExec("UPDATE `users` SET `age` = ? WHERE `id` = ?").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM `users` WHERE `id` = ?").WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := s.Update(ctx, "users", id, Values{"age": 1})
	assert.True(t, errs.IsNotFound(err))
	_, err = s.Delete(ctx, "users", id)
	assert.True(t, errs.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ViewsAreReadOnly(t *testing.T) {
	s, mock := newStore(t)
	ctx := context.Background()
	id := Identity{Column: "id", Value: 1}

	_, err := s.Insert(ctx, "active_users", Values{"name": "x"})
	assert.True(t, errs.IsInvalidInput(err))
	_, err = s.Update(ctx, "active_users", id, Values{"name": "x"})
	assert.True(t, errs.IsInvalidInput(err))
	_, err = s.Delete(ctx, "active_users", id)
	assert.True(t, errs.IsInvalidInput(err))

	assert.NoError(t, mock.ExpectationsWereMet(), "no statement may reach the server")
}

func TestStore_Export(t *testing.T) {
	s, mock := newStore(t)
	mock.ExpectQuery("SELECT * FROM `users` ORDER BY `name` ASC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "age"}).
			AddRow(int64(1), "Ada", nil).
			AddRow(int64(2), "Grace", int64(85)))

	var buf bytes.Buffer
	n, err := s.Export(context.Background(), "users", PageRequest{SortColumn: "name", Limit: 1}, query.NewCSVWriter(&buf))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, "id,name,age\n1,Ada,\n2,Grace,85\n", buf.String())
}

func eventsTable() *schema.TableDescriptor {
	return &schema.TableDescriptor{
		Name: "events",
		Kind: schema.KindTable,
		Columns: []schema.ColumnDescriptor{
			{Name: "id", BaseType: schema.Integer, Key: schema.KeyPrimary},
			{Name: "day", BaseType: schema.Date},
			{Name: "at", BaseType: schema.DateTime},
			{Name: "starts", BaseType: schema.Time},
		},
		PrimaryKey:  "id",
		PrimaryKeys: []string{"id"},
	}
}

func TestStore_TemporalValuesReadBackAsWritten(t *testing.T) {
	s, mock := newStore(t)
	cols := []string{"id", "day", "at", "starts"}
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	at := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
	starts := time.Date(0, 1, 1, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT `id`, `day`, `at`, `starts` FROM `events` WHERE `id` = ? LIMIT ?").
		WithArgs(int64(1), 1).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(1), day, at, starts))
	mock.ExpectQuery("SELECT * FROM `events`").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(1), day, at, nil))

	row, err := s.SelectOne(context.Background(), "events", Identity{Column: "id", Value: "1"})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", row["day"])
	assert.Equal(t, "2024-01-02 15:04:05", row["at"])
	assert.Equal(t, "09:30:00", row["starts"])

	var buf bytes.Buffer
	_, err = s.Export(context.Background(), "events", PageRequest{}, query.NewCSVWriter(&buf))
	require.NoError(t, err)
	assert.Equal(t, "id,day,at,starts\n1,2024-01-02,2024-01-02 15:04:05,\n", buf.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
