package database

import (
	"fmt"
	"strings"

	"github.com/koustreak/dbdesk/internal/errs"
)

// validOps is the allowlist of comparison operators for WHERE clauses.
// Any operator not in this list is rejected to prevent SQL injection
// through the operator position (which cannot be parameterized).
var validOps = map[string]bool{
	"=":       true,
	"!=":      true,
	"<>":      true,
	"<":       true,
	">":       true,
	"<=":      true,
	">=":      true,
	"LIKE":    true,
	"ILIKE":   true,
	"BETWEEN": true,
}

// opContains is the internal operator behind WhereContains.
const opContains = "CONTAINS"

// SelectBuilder constructs a parameterized SELECT query using a fluent API.
// Values are never interpolated into the SQL string — always passed as args.
// Identifiers are quoted for the dialect but must already be allow-listed.
//
// Usage (MySQL):
//
//	sql, args, err := Select("users", DialectMySQL).
//	    WhereContains("name", "Ad").
//	    OrderBy("age", Desc).
//	    Limit(20).
//	    Offset(0).
//	    Build()
type SelectBuilder struct {
	table   string
	dialect Dialect
	columns []string
	where   []whereClause
	orderBy []orderClause
	limit   *int
	offset  *int
}

// SortDirection controls the ORDER BY direction.
type SortDirection bool

const (
	Asc  SortDirection = false
	Desc SortDirection = true
)

func (d SortDirection) String() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

type whereClause struct {
	column string
	op     string
	values []any
}

type orderClause struct {
	column string
	dir    SortDirection
}

// Select starts a new SelectBuilder for the given table and dialect.
func Select(table string, d Dialect) *SelectBuilder {
	return &SelectBuilder{table: table, dialect: d}
}

// Columns restricts the SELECT to the specified columns.
// If not called, SELECT * is used.
func (b *SelectBuilder) Columns(cols ...string) *SelectBuilder {
	b.columns = cols
	return b
}

// Where adds a WHERE condition. op must be one of the allowed comparison
// operators (=, !=, <>, <, >, <=, >=, LIKE, ILIKE).
// Multiple calls are combined with AND.
func (b *SelectBuilder) Where(column, op string, value any) *SelectBuilder {
	b.where = append(b.where, whereClause{column, op, []any{value}})
	return b
}

// WhereBetween adds an inclusive range condition.
func (b *SelectBuilder) WhereBetween(column string, lo, hi any) *SelectBuilder {
	b.where = append(b.where, whereClause{column, "BETWEEN", []any{lo, hi}})
	return b
}

// WhereContains adds a case-insensitive substring match. The value is
// escaped so that %, _ and \ match literally. On Postgres the column is
// cast to text so non-text columns can be searched too.
func (b *SelectBuilder) WhereContains(column, value string) *SelectBuilder {
	b.where = append(b.where, whereClause{column, opContains, []any{"%" + EscapeLike(value) + "%"}})
	return b
}

// OrderBy appends an ORDER BY clause for the given column and direction.
func (b *SelectBuilder) OrderBy(column string, dir SortDirection) *SelectBuilder {
	b.orderBy = append(b.orderBy, orderClause{column, dir})
	return b
}

// Limit sets the maximum number of rows to return.
func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = &n
	return b
}

// Offset sets the number of rows to skip (for pagination).
func (b *SelectBuilder) Offset(n int) *SelectBuilder {
	b.offset = &n
	return b
}

// Build produces the final SQL string and argument slice.
// Returns an error if any WHERE operator is not in the allowlist.
func (b *SelectBuilder) Build() (string, []any, error) {
	// --- column list ---
	cols := "*"
	if len(b.columns) > 0 {
		quoted := make([]string, len(b.columns))
		for i, c := range b.columns {
			quoted[i] = b.dialect.QuoteIdent(c)
		}
		cols = strings.Join(quoted, ", ")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(cols)
	sb.WriteString(" FROM ")
	sb.WriteString(b.dialect.QuoteIdent(b.table))

	args, err := b.writeWhere(&sb)
	if err != nil {
		return "", nil, err
	}
	argIdx := len(args) + 1

	// --- ORDER BY ---
	if len(b.orderBy) > 0 {
		parts := make([]string, len(b.orderBy))
		for i, o := range b.orderBy {
			parts[i] = fmt.Sprintf("%s %s", b.dialect.QuoteIdent(o.column), o.dir)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}

	// --- LIMIT ---
	if b.limit != nil {
		sb.WriteString(" LIMIT ")
		sb.WriteString(b.dialect.Placeholder(argIdx))
		args = append(args, *b.limit)
		argIdx++
	}

	// --- OFFSET ---
	if b.offset != nil {
		sb.WriteString(" OFFSET ")
		sb.WriteString(b.dialect.Placeholder(argIdx))
		args = append(args, *b.offset)
	}

	return sb.String(), args, nil
}

// BuildCount produces SELECT COUNT(*) over the same table and WHERE
// clause, ignoring columns, ordering, limit and offset.
func (b *SelectBuilder) BuildCount() (string, []any, error) {
	var sb strings.Builder
	sb.WriteString("SELECT COUNT(*) FROM ")
	sb.WriteString(b.dialect.QuoteIdent(b.table))

	args, err := b.writeWhere(&sb)
	if err != nil {
		return "", nil, err
	}
	return sb.String(), args, nil
}

func (b *SelectBuilder) writeWhere(sb *strings.Builder) ([]any, error) {
	if len(b.where) == 0 {
		return nil, nil
	}

	var args []any
	argIdx := 1
	parts := make([]string, 0, len(b.where))
	for _, w := range b.where {
		col := b.dialect.QuoteIdent(w.column)
		op := strings.ToUpper(w.op)

		switch {
		case op == opContains:
			if b.dialect == DialectPostgres {
				parts = append(parts, fmt.Sprintf("CAST(%s AS TEXT) ILIKE %s", col, b.dialect.Placeholder(argIdx)))
			} else {
				parts = append(parts, fmt.Sprintf("%s LIKE %s", col, b.dialect.Placeholder(argIdx)))
			}
		case op == "BETWEEN":
			parts = append(parts, fmt.Sprintf("%s BETWEEN %s AND %s",
				col, b.dialect.Placeholder(argIdx), b.dialect.Placeholder(argIdx+1)))
		case validOps[op]:
			parts = append(parts, fmt.Sprintf("%s %s %s", col, op, b.dialect.Placeholder(argIdx)))
		default:
			return nil, errs.Invalid("unsupported WHERE operator: %q", w.op)
		}
		args = append(args, w.values...)
		argIdx += len(w.values)
	}
	sb.WriteString(" WHERE ")
	sb.WriteString(strings.Join(parts, " AND "))
	return args, nil
}

// EscapeLike escapes the LIKE metacharacters %, _ and the escape
// character itself so s matches literally inside a pattern.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
