// Package schema resolves table metadata at request time: it classifies
// declared column types and reads the catalog of the selected database.
// Nothing here is cached; every call reflects the catalog as it is now.
package schema

import (
	"context"
	"strings"

	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/errs"
)

// Introspector reads catalog metadata through a connection that already
// has a database selected.
type Introspector struct {
	q   database.Querier
	sql *queries
}

// New returns an Introspector speaking q's dialect.
func New(q database.Querier) *Introspector {
	sql := &postgresQueries
	if q.Dialect() == database.DialectMySQL {
		sql = &mysqlQueries
	}
	return &Introspector{q: q, sql: sql}
}

// Kind reports whether name is a base table or a view in the selected
// database, or fails with a not-found error.
func (i *Introspector) Kind(ctx context.Context, name string) (TableKind, error) {
	var tableType string
	if err := i.q.QueryRow(ctx, i.sql.tableKind, name).Scan(&tableType); err != nil {
		if errs.IsNotFound(err) {
			return "", errs.NotFound("table %q not found", name)
		}
		return "", err
	}
	return kindOf(tableType), nil
}

// Exists reports whether a table or view called name exists.
func (i *Introspector) Exists(ctx context.Context, name string) (bool, error) {
	_, err := i.Kind(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case errs.IsNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

// Describe builds the descriptor of a table or view.
func (i *Introspector) Describe(ctx context.Context, table string) (*TableDescriptor, error) {
	kind, err := i.Kind(ctx, table)
	if err != nil {
		return nil, err
	}

	cols, err := i.columns(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, errs.NotFound("table %q not found", table)
	}

	desc := &TableDescriptor{Name: table, Kind: kind, Columns: cols}

	if kind == KindView {
		if err := i.q.QueryRow(ctx, i.sql.viewDefinition, table).Scan(&desc.ViewDefinition); err != nil && !errs.IsNotFound(err) {
			return nil, err
		}
		return desc, nil
	}

	for _, c := range cols {
		if c.Key == KeyPrimary {
			desc.PrimaryKeys = append(desc.PrimaryKeys, c.Name)
		}
	}
	if len(desc.PrimaryKeys) == 1 {
		desc.PrimaryKey = desc.PrimaryKeys[0]
	}

	if err := i.attachUniqueIndexes(ctx, desc); err != nil {
		return nil, err
	}
	return desc, nil
}

func (i *Introspector) columns(ctx context.Context, table string) ([]ColumnDescriptor, error) {
	rows, err := i.q.Query(ctx, i.sql.columns, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []ColumnDescriptor
	for rows.Next() {
		var c ColumnDescriptor
		var key string
		if err := rows.Scan(&c.Name, &c.RawType, &c.Nullable, &key, &c.Default, &c.Extra); err != nil {
			return nil, err
		}

		c.BaseType = Classify(c.RawType)
		_, c.Length = SplitType(c.RawType)
		c.Input = c.BaseType.Input()
		c.Key = keyKind(key)
		c.EnumValues = ParseDomain(c.RawType)
		c.AutoIncrement = i.isAutoIncrement(c.Extra)
		c.Boolean = BooleanHint(&c)
		if c.Boolean {
			c.Input = InputCheckbox
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func (i *Introspector) isAutoIncrement(extra string) bool {
	if i.q.Dialect() == database.DialectPostgres {
		return extra != ""
	}
	return strings.Contains(strings.ToLower(extra), "auto_increment")
}

func (i *Introspector) attachUniqueIndexes(ctx context.Context, desc *TableDescriptor) error {
	rows, err := i.q.Query(ctx, i.sql.uniqueIndexes, desc.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var index, column string
		if err := rows.Scan(&index, &column); err != nil {
			return err
		}
		if c, ok := desc.Column(column); ok && c.UniqueIndex == "" {
			c.UniqueIndex = index
		}
	}
	return rows.Err()
}

// ListTables returns every table and view of the selected database.
func (i *Introspector) ListTables(ctx context.Context) ([]TableSummary, error) {
	rows, err := i.q.Query(ctx, i.sql.listTables)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := make([]TableSummary, 0)
	for rows.Next() {
		var t TableSummary
		var tableType string
		if err := rows.Scan(&t.Name, &tableType, &t.Size); err != nil {
			return nil, err
		}
		t.Kind = kindOf(tableType)
		if t.Kind == KindView {
			t.Size = 0
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// ListForeignKeyCandidates returns the base tables that can be referenced
// by a foreign key, leaving out exclude.
func (i *Introspector) ListForeignKeyCandidates(ctx context.Context, exclude string) ([]string, error) {
	rows, err := i.q.Query(ctx, i.sql.fkCandidates, exclude)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ListForeignKeys returns the foreign-key constraints declared on table.
func (i *Introspector) ListForeignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	rows, err := i.q.Query(ctx, i.sql.foreignKeys, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fks := make([]ForeignKey, 0)
	for rows.Next() {
		var fk ForeignKey
		if err := rows.Scan(&fk.Name, &fk.Column, &fk.RefTable, &fk.RefColumn, &fk.OnDelete, &fk.OnUpdate); err != nil {
			return nil, err
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

// ListDatabases returns the user databases (schemas on Postgres) visible
// to the connection, with table counts and sizes.
func (i *Introspector) ListDatabases(ctx context.Context) ([]DatabaseSummary, error) {
	rows, err := i.q.Query(ctx, i.sql.databases)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dbs := make([]DatabaseSummary, 0)
	for rows.Next() {
		var d DatabaseSummary
		if err := rows.Scan(&d.Name, &d.Tables, &d.Size); err != nil {
			return nil, err
		}
		if IsSystemSchema(d.Name) {
			continue
		}
		dbs = append(dbs, d)
	}
	return dbs, rows.Err()
}

// HasDatabase reports whether name is one of the databases ListDatabases
// returns. It is the allow-list check run before SelectDatabase.
func (i *Introspector) HasDatabase(ctx context.Context, name string) (bool, error) {
	dbs, err := i.ListDatabases(ctx)
	if err != nil {
		return false, err
	}
	for _, d := range dbs {
		if d.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// ViewSource returns the CREATE VIEW statement of view.
func (i *Introspector) ViewSource(ctx context.Context, view string) (string, error) {
	kind, err := i.Kind(ctx, view)
	if err != nil {
		return "", err
	}
	if kind != KindView {
		return "", errs.Invalid("%q is a table, not a view", view)
	}

	if i.q.Dialect() == database.DialectMySQL {
		var name, source, charset, collation string
		err := i.q.QueryRow(ctx, "SHOW CREATE VIEW "+database.DialectMySQL.QuoteIdent(view)).
			Scan(&name, &source, &charset, &collation)
		return source, err
	}

	var body string
	if err := i.q.QueryRow(ctx, i.sql.viewDefinition, view).Scan(&body); err != nil {
		return "", err
	}
	return "CREATE VIEW " + database.DialectPostgres.QuoteIdent(view) + " AS" + "\n" + body, nil
}

// ListViews returns the views of the selected database with their
// definer and whether that account still exists.
func (i *Introspector) ListViews(ctx context.Context) ([]ViewInfo, error) {
	rows, err := i.q.Query(ctx, i.sql.views)
	if err != nil {
		return nil, err
	}

	views := make([]ViewInfo, 0)
	for rows.Next() {
		var v ViewInfo
		if err := rows.Scan(&v.Name, &v.Definer, &v.SecurityType, &v.Updatable); err != nil {
			rows.Close()
			return nil, err
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// The connection is single-use: the result set must be closed before
	// the definer lookups run.
	rows.Close()

	if i.sql.definerExists == "" {
		for idx := range views {
			views[idx].DefinerExists = ptr(true)
		}
		return views, nil
	}

	for idx := range views {
		user, host := splitDefiner(views[idx].Definer)
		var n int64
		err := i.q.QueryRow(ctx, i.sql.definerExists, user, host).Scan(&n)
		if errs.IsPermissionDenied(err) || errs.IsNotFound(err) {
			// mysql.user is not readable; leave existence unknown.
			break
		}
		if err != nil {
			return nil, err
		}
		views[idx].DefinerExists = ptr(n > 0)
	}
	return views, nil
}

// CurrentUser returns the account the connection is authenticated as, in
// the form the server uses for DEFINER clauses.
func (i *Introspector) CurrentUser(ctx context.Context) (string, error) {
	var user string
	err := i.q.QueryRow(ctx, i.sql.currentUser).Scan(&user)
	return user, err
}

// --- helpers ---

func kindOf(tableType string) TableKind {
	if strings.Contains(strings.ToUpper(tableType), "VIEW") {
		return KindView
	}
	return KindTable
}

func keyKind(key string) KeyKind {
	switch strings.ToUpper(key) {
	case "PRI":
		return KeyPrimary
	case "UNI":
		return KeyUnique
	case "MUL":
		return KeyMulti
	default:
		return KeyNone
	}
}

// splitDefiner splits user@host, stripping the quotes MySQL may add.
func splitDefiner(definer string) (user, host string) {
	at := strings.LastIndex(definer, "@")
	if at < 0 {
		return strings.Trim(definer, "'`"), ""
	}
	return strings.Trim(definer[:at], "'`"), strings.Trim(definer[at+1:], "'`")
}

func ptr[T any](v T) *T { return &v }
