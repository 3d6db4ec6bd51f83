package records

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/errs"
	"github.com/koustreak/dbdesk/internal/schema"
	"github.com/spf13/cast"
)

var decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// maxExactFloat is the largest magnitude below which every integer is
// exactly representable as a float64.
const maxExactFloat = 1 << 53

// Coerce converts a client-supplied value into what the driver should bind
// for col. nil is NULL, and so is "" for every non-textual column.
func Coerce(col *schema.ColumnDescriptor, raw any, d database.Dialect) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if s, ok := raw.(string); ok && s == "" && !col.BaseType.IsTextual() {
		return nil, nil
	}

	switch {
	case col.Boolean || col.BaseType == schema.Boolean:
		return coerceBool(col, raw, d)
	case col.BaseType == schema.Integer:
		return coerceInt(col, raw)
	case col.BaseType == schema.Decimal:
		return coerceDecimal(col, raw)
	case col.BaseType == schema.Enum:
		return coerceEnum(col, raw)
	case col.BaseType == schema.Set:
		return coerceSet(col, raw)
	default:
		return coerceString(col, raw)
	}
}

func coerceBool(col *schema.ColumnDescriptor, raw any, d database.Dialect) (any, error) {
	var b bool
	switch v := raw.(type) {
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, errs.Invalid("column %q: %q is not a boolean", col.Name, v)
		}
		b = parsed
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, errs.Invalid("column %q: %s is not a boolean", col.Name, v)
		}
		b = f != 0
	default:
		parsed, err := cast.ToBoolE(v)
		if err != nil {
			return nil, errs.Invalid("column %q: %v is not a boolean", col.Name, v)
		}
		b = parsed
	}

	if d == database.DialectPostgres {
		return b, nil
	}
	if b {
		return int64(1), nil
	}
	return int64(0), nil
}

func coerceInt(col *schema.ColumnDescriptor, raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, errs.Invalid("column %q: %q is not an integer", col.Name, v)
		}
		return n, nil
	case json.Number:
		if n, err := strconv.ParseInt(v.String(), 10, 64); err == nil {
			return n, nil
		}
		// 1e3 and 30.0 are integers written as floats.
		f, err := v.Float64()
		if err != nil || !exactInt(f) {
			return nil, errs.Invalid("column %q: %s is not an integer in range", col.Name, v)
		}
		return int64(f), nil
	case float64:
		if !exactInt(v) {
			return nil, errs.Invalid("column %q: %v is not an exact integer", col.Name, v)
		}
		return int64(v), nil
	case bool:
		return nil, errs.Invalid("column %q: %v is not an integer", col.Name, v)
	}
	n, err := cast.ToInt64E(raw)
	if err != nil {
		return nil, errs.Invalid("column %q: %v is not an integer", col.Name, raw)
	}
	return n, nil
}

// exactInt reports whether f is whole and small enough to have lost no
// digits when it was parsed.
func exactInt(f float64) bool {
	return f == math.Trunc(f) && math.Abs(f) <= maxExactFloat
}

func coerceDecimal(col *schema.ColumnDescriptor, raw any) (any, error) {
	var s string
	switch v := raw.(type) {
	case json.Number:
		s = v.String()
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return nil, errs.Invalid("column %q: %v is not a number", col.Name, v)
	default:
		str, err := cast.ToStringE(v)
		if err != nil {
			return nil, errs.Invalid("column %q: %v is not a number", col.Name, v)
		}
		s = strings.TrimSpace(str)
	}
	if !decimalPattern.MatchString(s) {
		return nil, errs.Invalid("column %q: %q is not a number", col.Name, s)
	}
	return s, nil
}

func coerceEnum(col *schema.ColumnDescriptor, raw any) (any, error) {
	if n, ok := raw.(json.Number); ok {
		raw = n.String()
	}
	s, err := cast.ToStringE(raw)
	if err != nil {
		return nil, errs.Invalid("column %q: %v is not a valid value", col.Name, raw)
	}
	if !inDomain(col.EnumValues, s) {
		return nil, errs.Invalid("column %q: %q is not one of %s", col.Name, s, strings.Join(col.EnumValues, ", "))
	}
	return s, nil
}

// coerceSet accepts a list of members or a comma-separated string and
// binds the members joined by commas.
func coerceSet(col *schema.ColumnDescriptor, raw any) (any, error) {
	var members []string
	switch v := raw.(type) {
	case string:
		if v != "" {
			members = strings.Split(v, ",")
		}
	default:
		list, err := cast.ToStringSliceE(v)
		if err != nil {
			return nil, errs.Invalid("column %q: %v is not a list of values", col.Name, v)
		}
		members = list
	}

	for i, m := range members {
		members[i] = strings.TrimSpace(m)
		if !inDomain(col.EnumValues, members[i]) {
			return nil, errs.Invalid("column %q: %q is not one of %s", col.Name, members[i], strings.Join(col.EnumValues, ", "))
		}
	}
	return strings.Join(members, ","), nil
}

func coerceString(col *schema.ColumnDescriptor, raw any) (any, error) {
	switch v := raw.(type) {
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, errs.Invalid("column %q: %v", col.Name, err)
		}
		return string(b), nil
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	}
	s, err := cast.ToStringE(raw)
	if err != nil {
		return nil, errs.Invalid("column %q: unsupported value %v", col.Name, raw)
	}
	return s, nil
}

// inDomain is lenient when the domain is unknown.
func inDomain(domain []string, v string) bool {
	if len(domain) == 0 {
		return true
	}
	for _, d := range domain {
		if d == v {
			return true
		}
	}
	return false
}
