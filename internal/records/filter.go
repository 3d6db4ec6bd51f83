package records

import (
	"sort"
	"strconv"
	"strings"

	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/errs"
	"github.com/koustreak/dbdesk/internal/schema"
)

// Filter policy, by base type of the filtered column:
//
//	char, text, set, other   substring match, LIKE metacharacters escaped
//	integer, decimal,        "lo..hi" range (either end may be open),
//	date, datetime, time     a leading >, >=, <, <=, != or <>, else equality
//	enum, boolean            equality
//
// Filters on unknown columns and empty filter values are ignored. A value
// that is not a number on a numeric column is rejected.
func applyFilters(b *database.SelectBuilder, desc *schema.TableDescriptor, filters Filters, d database.Dialect) error {
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		col, ok := desc.Column(name)
		if !ok {
			continue
		}
		value := strings.TrimSpace(filters[name])
		if value == "" {
			continue
		}

		switch {
		case col.Boolean || col.BaseType == schema.Boolean:
			v, err := coerceBool(col, value, d)
			if err != nil {
				return err
			}
			b.Where(col.Name, "=", v)
		case col.BaseType == schema.Enum:
			b.Where(col.Name, "=", value)
		case col.BaseType.IsNumeric() || col.BaseType.IsTemporal():
			if err := applyComparison(b, col, value); err != nil {
				return err
			}
		default:
			b.WhereContains(col.Name, value)
		}
	}
	return nil
}

var comparisonOps = []string{">=", "<=", "!=", "<>", ">", "<", "="}

func applyComparison(b *database.SelectBuilder, col *schema.ColumnDescriptor, value string) error {
	if lo, hi, ok := strings.Cut(value, ".."); ok {
		lo, hi = strings.TrimSpace(lo), strings.TrimSpace(hi)
		switch {
		case lo == "" && hi == "":
			return nil
		case hi == "":
			return where(b, col, ">=", lo)
		case lo == "":
			return where(b, col, "<=", hi)
		}
		loV, err := operand(col, lo)
		if err != nil {
			return err
		}
		hiV, err := operand(col, hi)
		if err != nil {
			return err
		}
		b.WhereBetween(col.Name, loV, hiV)
		return nil
	}

	for _, op := range comparisonOps {
		if rest, ok := strings.CutPrefix(value, op); ok {
			return where(b, col, op, strings.TrimSpace(rest))
		}
	}
	return where(b, col, "=", value)
}

func where(b *database.SelectBuilder, col *schema.ColumnDescriptor, op, raw string) error {
	v, err := operand(col, raw)
	if err != nil {
		return err
	}
	b.Where(col.Name, op, v)
	return nil
}

// operand parses a comparison operand. Temporal operands are bound as
// written.
func operand(col *schema.ColumnDescriptor, raw string) (any, error) {
	if raw == "" {
		return nil, errs.Invalid("filter on %q: missing value", col.Name)
	}
	switch col.BaseType {
	case schema.Integer:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n, nil
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f, nil
		}
		return nil, errs.Invalid("filter on %q: %q is not a number", col.Name, raw)
	case schema.Decimal:
		if !decimalPattern.MatchString(raw) {
			return nil, errs.Invalid("filter on %q: %q is not a number", col.Name, raw)
		}
		return raw, nil
	default:
		return raw, nil
	}
}

// applySort orders by a known column. Unknown columns are ignored; the
// order is ASC unless DESC is asked for.
func applySort(b *database.SelectBuilder, desc *schema.TableDescriptor, column, order string) {
	if column == "" {
		return
	}
	if _, ok := desc.Column(column); !ok {
		return
	}
	dir := database.Asc
	if strings.EqualFold(strings.TrimSpace(order), "DESC") {
		dir = database.Desc
	}
	b.OrderBy(column, dir)
}
