package records

import (
	"fmt"
	"strings"

	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/errs"
	"github.com/koustreak/dbdesk/internal/schema"
)

// BuildSelectPage builds the filtered, sorted, paged SELECT for req.
// req is used as given; Store applies the paging limits first.
func BuildSelectPage(desc *schema.TableDescriptor, d database.Dialect, req PageRequest) (string, []any, error) {
	b, err := selectBuilder(desc, d, req)
	if err != nil {
		return "", nil, err
	}
	return b.Limit(req.Limit).Offset(req.Offset).Build()
}

// BuildSelectAll is BuildSelectPage without LIMIT and OFFSET.
func BuildSelectAll(desc *schema.TableDescriptor, d database.Dialect, req PageRequest) (string, []any, error) {
	b, err := selectBuilder(desc, d, req)
	if err != nil {
		return "", nil, err
	}
	return b.Build()
}

// BuildCount counts the rows matching filters.
func BuildCount(desc *schema.TableDescriptor, d database.Dialect, filters Filters) (string, []any, error) {
	b := database.Select(desc.Name, d)
	if err := applyFilters(b, desc, filters, d); err != nil {
		return "", nil, err
	}
	return b.BuildCount()
}

func selectBuilder(desc *schema.TableDescriptor, d database.Dialect, req PageRequest) (*database.SelectBuilder, error) {
	b := database.Select(desc.Name, d)
	if err := applyFilters(b, desc, req.Filters, d); err != nil {
		return nil, err
	}
	applySort(b, desc, req.SortColumn, req.SortOrder)
	return b, nil
}

// BuildSelectOne selects the row addressed by id. Columns are listed in
// descriptor order.
func BuildSelectOne(desc *schema.TableDescriptor, d database.Dialect, id Identity) (string, []any, error) {
	key, err := identity(desc, d, id)
	if err != nil {
		return "", nil, err
	}
	return database.Select(desc.Name, d).Columns(desc.ColumnNames()...).Where(id.Column, "=", key).Limit(1).Build()
}

// BuildInsert inserts values into a base table. Auto-increment columns are
// skipped; on Postgres the primary key is returned.
func BuildInsert(desc *schema.TableDescriptor, d database.Dialect, values Values) (string, []any, error) {
	if err := writable(desc); err != nil {
		return "", nil, err
	}
	if err := knownColumns(desc, values); err != nil {
		return "", nil, err
	}

	var cols []string
	var args []any
	for i := range desc.Columns {
		col := &desc.Columns[i]
		raw, ok := values[col.Name]
		if !ok || col.AutoIncrement {
			continue
		}
		v, err := Coerce(col, raw, d)
		if err != nil {
			return "", nil, err
		}
		cols = append(cols, d.QuoteIdent(col.Name))
		args = append(args, v)
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(d.QuoteIdent(desc.Name))
	switch {
	case len(cols) > 0:
		fmt.Fprintf(&sb, " (%s) VALUES (%s)", strings.Join(cols, ", "), d.Placeholders(1, len(cols)))
	case d == database.DialectPostgres:
		sb.WriteString(" DEFAULT VALUES")
	default:
		sb.WriteString(" () VALUES ()")
	}
	if d == database.DialectPostgres && desc.PrimaryKey != "" {
		sb.WriteString(" RETURNING ")
		sb.WriteString(d.QuoteIdent(desc.PrimaryKey))
	}
	return sb.String(), args, nil
}

// BuildUpdate sets values on the row addressed by id.
func BuildUpdate(desc *schema.TableDescriptor, d database.Dialect, id Identity, values Values) (string, []any, error) {
	key, err := identity(desc, d, id)
	if err != nil {
		return "", nil, err
	}
	if len(values) == 0 {
		return "", nil, errs.Invalid("no values to update")
	}
	if err := knownColumns(desc, values); err != nil {
		return "", nil, err
	}

	sets := make([]string, 0, len(values))
	args := make([]any, 0, len(values)+1)
	for i := range desc.Columns {
		col := &desc.Columns[i]
		raw, ok := values[col.Name]
		if !ok {
			continue
		}
		v, err := Coerce(col, raw, d)
		if err != nil {
			return "", nil, err
		}
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = %s", d.QuoteIdent(col.Name), d.Placeholder(len(args))))
	}
	args = append(args, key)

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		d.QuoteIdent(desc.Name), strings.Join(sets, ", "), d.QuoteIdent(id.Column), d.Placeholder(len(args)))
	return sql, args, nil
}

// BuildDelete deletes the row addressed by id.
func BuildDelete(desc *schema.TableDescriptor, d database.Dialect, id Identity) (string, []any, error) {
	key, err := identity(desc, d, id)
	if err != nil {
		return "", nil, err
	}
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", d.QuoteIdent(desc.Name), d.QuoteIdent(id.Column), d.Placeholder(1))
	return sql, []any{key}, nil
}

func writable(desc *schema.TableDescriptor) error {
	if desc.IsView() {
		return errs.Invalid("%q is a view; records can only be changed in base tables", desc.Name)
	}
	return nil
}

// identity checks that id addresses desc by its single-column primary key
// and coerces the key value.
func identity(desc *schema.TableDescriptor, d database.Dialect, id Identity) (any, error) {
	if err := writable(desc); err != nil {
		return nil, err
	}
	switch {
	case len(desc.PrimaryKeys) > 1:
		return nil, errs.Invalid("%q has a composite primary key; rows cannot be addressed by a single column", desc.Name)
	case desc.PrimaryKey == "":
		return nil, errs.Invalid("%q has no primary key", desc.Name)
	case id.Column != desc.PrimaryKey:
		return nil, errs.Invalid("%q is not the primary key of %q", id.Column, desc.Name)
	}
	col, _ := desc.Column(desc.PrimaryKey)
	key, err := Coerce(col, id.Value, d)
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, errs.Invalid("primary key value is required")
	}
	return key, nil
}

func knownColumns(desc *schema.TableDescriptor, values Values) error {
	for name := range values {
		if _, ok := desc.Column(name); !ok {
			return errs.Invalid("unknown column %q in %q", name, desc.Name)
		}
	}
	return nil
}
