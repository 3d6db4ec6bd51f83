package schema

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/koustreak/dbdesk/internal/database/dbtest"
	"github.com/koustreak/dbdesk/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columnCols = []string{"column_name", "column_type", "nullable", "column_key", "column_default", "extra"}

func TestDescribe_BaseTable(t *testing.T) {
	conn, mock := dbtest.MySQLRegexp(t)

	mock.ExpectQuery(`SELECT table_type FROM information_schema.tables`).
		WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"table_type"}).AddRow("BASE TABLE"))
	mock.ExpectQuery(`FROM information_schema.columns`).
		WithArgs("users").
		WillReturnRows(sqlmock.NewRows(columnCols).
			AddRow("id", "int(11)", false, "PRI", nil, "auto_increment").
			AddRow("name", "varchar(50)", false, "UNI", nil, "").
			AddRow("age", "int(11)", true, "", nil, "").
			AddRow("size", "enum('s','m','l')", false, "", "m", "").
			AddRow("active", "tinyint(1)", false, "", "1", ""))
	mock.ExpectQuery(`FROM information_schema.statistics`).
		WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"index_name", "column_name"}).AddRow("uq_users_name", "name"))

	desc, err := New(conn).Describe(context.Background(), "users")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, KindTable, desc.Kind)
	assert.Equal(t, "id", desc.PrimaryKey)
	assert.Equal(t, []string{"id", "name", "age", "size", "active"}, desc.ColumnNames())

	id, _ := desc.Column("id")
	assert.True(t, id.AutoIncrement)
	assert.Equal(t, KeyPrimary, id.Key)
	assert.Equal(t, Integer, id.BaseType)

	name, _ := desc.Column("name")
	assert.Equal(t, Char, name.BaseType)
	assert.Equal(t, "50", name.Length)
	assert.Equal(t, KeyUnique, name.Key)
	assert.Equal(t, "uq_users_name", name.UniqueIndex)

	age, _ := desc.Column("age")
	assert.True(t, age.Nullable)
	assert.Nil(t, age.Default)

	size, _ := desc.Column("size")
	assert.Equal(t, []string{"s", "m", "l"}, size.EnumValues)
	assert.Equal(t, InputSelect, size.Input)
	require.NotNil(t, size.Default)
	assert.Equal(t, "m", *size.Default)

	active, _ := desc.Column("active")
	assert.Equal(t, Integer, active.BaseType)
	assert.True(t, active.Boolean)
	assert.Equal(t, InputCheckbox, active.Input)
}

func TestDescribe_View(t *testing.T) {
	conn, mock := dbtest.MySQLRegexp(t)

	mock.ExpectQuery(`SELECT table_type FROM information_schema.tables`).
		WithArgs("adults").
		WillReturnRows(sqlmock.NewRows([]string{"table_type"}).AddRow("VIEW"))
	mock.ExpectQuery(`FROM information_schema.columns`).
		WithArgs("adults").
		WillReturnRows(sqlmock.NewRows(columnCols).
			AddRow("id", "int(11)", false, "", "0", ""))
	mock.ExpectQuery(`SELECT view_definition FROM information_schema.views`).
		WithArgs("adults").
		WillReturnRows(sqlmock.NewRows([]string{"view_definition"}).AddRow("select `id` from `users` where `age` >= 18"))

	desc, err := New(conn).Describe(context.Background(), "adults")
	require.NoError(t, err)

	assert.True(t, desc.IsView())
	assert.Empty(t, desc.PrimaryKey)
	assert.Contains(t, desc.ViewDefinition, "from `users`")
}

func TestDescribe_NotFound(t *testing.T) {
	conn, mock := dbtest.MySQLRegexp(t)

	mock.ExpectQuery(`SELECT table_type FROM information_schema.tables`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"table_type"}))

	_, err := New(conn).Describe(context.Background(), "ghost")
	assert.True(t, errs.IsNotFound(err))
	assert.Equal(t, `table "ghost" not found`, errs.Message(err))
}

func TestDescribe_CompositeKey(t *testing.T) {
	conn, mock := dbtest.MySQLRegexp(t)

	mock.ExpectQuery(`SELECT table_type`).WithArgs("links").
		WillReturnRows(sqlmock.NewRows([]string{"table_type"}).AddRow("BASE TABLE"))
	mock.ExpectQuery(`FROM information_schema.columns`).WithArgs("links").
		WillReturnRows(sqlmock.NewRows(columnCols).
			AddRow("a", "int", false, "PRI", nil, "").
			AddRow("b", "int", false, "PRI", nil, ""))
	mock.ExpectQuery(`FROM information_schema.statistics`).WithArgs("links").
		WillReturnRows(sqlmock.NewRows([]string{"index_name", "column_name"}))

	desc, err := New(conn).Describe(context.Background(), "links")
	require.NoError(t, err)
	assert.Empty(t, desc.PrimaryKey)
	assert.Equal(t, []string{"a", "b"}, desc.PrimaryKeys)
}

func TestListTables(t *testing.T) {
	conn, mock := dbtest.MySQLRegexp(t)

	mock.ExpectQuery(`SELECT table_name, table_type`).
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "table_type", "size"}).
			AddRow("adults", "VIEW", int64(0)).
			AddRow("users", "BASE TABLE", int64(32768)))

	tables, err := New(conn).ListTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []TableSummary{
		{Name: "adults", Kind: KindView, Size: 0},
		{Name: "users", Kind: KindTable, Size: 32768},
	}, tables)
}

func TestListForeignKeyCandidates(t *testing.T) {
	conn, mock := dbtest.MySQLRegexp(t)

	mock.ExpectQuery(`table_type = 'BASE TABLE'`).
		WithArgs("orders").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("customers").AddRow("products"))

	names, err := New(conn).ListForeignKeyCandidates(context.Background(), "orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"customers", "products"}, names)
}

func TestListForeignKeys(t *testing.T) {
	conn, mock := dbtest.MySQLRegexp(t)

	mock.ExpectQuery(`FROM information_schema.key_column_usage kcu`).
		WithArgs("orders").
		WillReturnRows(sqlmock.NewRows([]string{"name", "col", "rt", "rc", "del", "upd"}).
			AddRow("fk_orders_customer_id", "customer_id", "customers", "id", "CASCADE", "RESTRICT"))

	fks, err := New(conn).ListForeignKeys(context.Background(), "orders")
	require.NoError(t, err)
	assert.Equal(t, []ForeignKey{{
		Name: "fk_orders_customer_id", Column: "customer_id",
		RefTable: "customers", RefColumn: "id", OnDelete: "CASCADE", OnUpdate: "RESTRICT",
	}}, fks)
}

func TestListDatabases_SkipsSystemSchemas(t *testing.T) {
	conn, mock := dbtest.MySQLRegexp(t)

	mock.ExpectQuery(`FROM information_schema.schemata`).
		WillReturnRows(sqlmock.NewRows([]string{"schema_name", "tables", "size"}).
			AddRow("information_schema", int64(79), int64(0)).
			AddRow("mysql", int64(38), int64(2048)).
			AddRow("shop", int64(3), int64(65536)).
			AddRow("sys", int64(101), int64(0)))

	dbs, err := New(conn).ListDatabases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []DatabaseSummary{{Name: "shop", Tables: 3, Size: 65536}}, dbs)
}

func TestViewSource(t *testing.T) {
	t.Run("view", func(t *testing.T) {
		conn, mock := dbtest.MySQLRegexp(t)
		mock.ExpectQuery(`SELECT table_type`).WithArgs("adults").
			WillReturnRows(sqlmock.NewRows([]string{"table_type"}).AddRow("VIEW"))
		mock.ExpectQuery("SHOW CREATE VIEW `adults`").
			WillReturnRows(sqlmock.NewRows([]string{"View", "Create View", "character_set_client", "collation_connection"}).
				AddRow("adults", "CREATE VIEW `adults` AS select 1", "utf8mb4", "utf8mb4_general_ci"))

		src, err := New(conn).ViewSource(context.Background(), "adults")
		require.NoError(t, err)
		assert.Equal(t, "CREATE VIEW `adults` AS select 1", src)
	})

	t.Run("base table is rejected", func(t *testing.T) {
		conn, mock := dbtest.MySQLRegexp(t)
		mock.ExpectQuery(`SELECT table_type`).WithArgs("users").
			WillReturnRows(sqlmock.NewRows([]string{"table_type"}).AddRow("BASE TABLE"))

		_, err := New(conn).ViewSource(context.Background(), "users")
		assert.True(t, errs.IsInvalidInput(err))
	})
}

func TestListViews(t *testing.T) {
	t.Run("definer lookups", func(t *testing.T) {
		conn, mock := dbtest.MySQLRegexp(t)

		mock.ExpectQuery(`FROM information_schema.views`).
			WillReturnRows(sqlmock.NewRows([]string{"name", "definer", "security", "updatable"}).
				AddRow("adults", "admin@%", "DEFINER", true).
				AddRow("legacy", "gone@localhost", "DEFINER", false))
		mock.ExpectQuery(`FROM mysql.user`).WithArgs("admin", "%").
			WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(int64(1)))
		mock.ExpectQuery(`FROM mysql.user`).WithArgs("gone", "localhost").
			WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(int64(0)))

		views, err := New(conn).ListViews(context.Background())
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.True(t, *views[0].DefinerExists)
		assert.False(t, *views[1].DefinerExists)
		assert.False(t, views[1].Updatable)
	})

	t.Run("account table not readable", func(t *testing.T) {
		conn, mock := dbtest.MySQLRegexp(t)

		mock.ExpectQuery(`FROM information_schema.views`).
			WillReturnRows(sqlmock.NewRows([]string{"name", "definer", "security", "updatable"}).
				AddRow("adults", "admin@%", "DEFINER", true))
		mock.ExpectQuery(`FROM mysql.user`).
			WillReturnError(&gomysql.MySQLError{Number: 1142, Message: "SELECT command denied"})

		views, err := New(conn).ListViews(context.Background())
		require.NoError(t, err)
		assert.Nil(t, views[0].DefinerExists)
	})
}

func TestSplitDefiner(t *testing.T) {
	u, h := splitDefiner("`root`@`localhost`")
	assert.Equal(t, "root", u)
	assert.Equal(t, "localhost", h)

	u, h = splitDefiner("svc@10.0.0.%")
	assert.Equal(t, "svc", u)
	assert.Equal(t, "10.0.0.%", h)
}
