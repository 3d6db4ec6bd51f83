package ddl

import (
	"regexp"
	"strings"

	"github.com/koustreak/dbdesk/internal/errs"
	"github.com/koustreak/dbdesk/internal/schema"
)

// ColumnSpec is the mutation input for one column. Default is written
// verbatim: nil or "" means no DEFAULT clause, and the literal NULL sets a
// NULL default. Default and Extra are trusted operator input.
type ColumnSpec struct {
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	Nullable      bool    `json:"nullable"`
	Default       *string `json:"default"`
	QuoteDefault  bool    `json:"quoteDefault"` // quote Default according to the column's base type
	AutoIncrement bool    `json:"autoIncrement"`
	Unique        bool    `json:"unique"`
	Primary       bool    `json:"primary"`
	Extra         string  `json:"extra"`
	Position      string  `json:"position"` // end, first or after_<column>; new columns only
}

// BuildDefinition renders everything after the column name, in the only
// order MySQL accepts: type, NOT NULL, DEFAULT, AUTO_INCREMENT, UNIQUE,
// PRIMARY KEY, extra.
func BuildDefinition(spec ColumnSpec) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(spec.Type))

	if !spec.Nullable {
		sb.WriteString(" NOT NULL")
	}
	if def := defaultLiteral(spec); def != "" {
		sb.WriteString(" DEFAULT ")
		sb.WriteString(def)
	}
	if spec.AutoIncrement {
		sb.WriteString(" AUTO_INCREMENT")
	}
	if spec.Unique {
		sb.WriteString(" UNIQUE")
	}
	if spec.Primary {
		sb.WriteString(" PRIMARY KEY")
	}
	if extra := strings.TrimSpace(spec.Extra); extra != "" {
		sb.WriteString(" ")
		sb.WriteString(extra)
	}
	return sb.String()
}

func defaultLiteral(spec ColumnSpec) string {
	if spec.Default == nil {
		return ""
	}
	raw := strings.TrimSpace(*spec.Default)
	if raw == "" {
		return ""
	}
	if spec.QuoteDefault {
		return QuoteDefault(schema.Classify(spec.Type), raw)
	}
	return raw
}

var (
	numericLiteral = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
	quotedLiteral  = regexp.MustCompile(`^'([^'\\]|''|\\.)*'$`)
)

// QuoteDefault quotes raw as a string literal when the base type needs it.
// NULL, CURRENT_TIMESTAMP-style keywords, parenthesised expressions and
// already quoted literals are returned unchanged, as are numbers for
// numeric and boolean columns.
func QuoteDefault(base schema.BaseType, raw string) string {
	upper := strings.ToUpper(raw)
	switch {
	case upper == "NULL",
		strings.HasPrefix(upper, "CURRENT_TIMESTAMP"),
		strings.HasPrefix(upper, "NOW("),
		strings.HasPrefix(raw, "("),
		quotedLiteral.MatchString(raw):
		return raw
	case !base.NeedsQuoting() && (numericLiteral.MatchString(raw) || upper == "TRUE" || upper == "FALSE"):
		return raw
	}
	return "'" + strings.ReplaceAll(strings.ReplaceAll(raw, `\`, `\\`), "'", "''") + "'"
}

// --- identifier and type checks ---

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

const maxNameLen = 64

// ValidateName checks a name that is about to be created. Existing names
// are checked against the catalog instead.
func ValidateName(what, name string) error {
	if name == "" {
		return errs.Invalid("%s name is required", what)
	}
	if len(name) > maxNameLen || !namePattern.MatchString(name) {
		return errs.Invalid("%s name %q may only contain letters, numbers and underscores (max %d)", what, name, maxNameLen)
	}
	return nil
}

var typePattern = func() *regexp.Regexp {
	word := `[a-z][a-z0-9_]*`
	args := `\(\s*(?:''\s*(?:,\s*''\s*)*|\d+\s*(?:,\s*\d+\s*)?)\)`
	return regexp.MustCompile(`(?i)^` + word + `(?:\s+` + word + `)*\s*(?:` + args + `)?(?:\s+` + word + `)*$`)
}()

// ValidateType accepts declared types shaped like word[(args)] [word…],
// where args are integers or quoted enum/set literals. Statement
// separators and comments are rejected.
func ValidateType(raw string) error {
	s := strings.TrimSpace(raw)
	if s == "" {
		return errs.Invalid("column type is required")
	}
	skeleton, ok := stripLiterals(s)
	if !ok {
		return errs.Invalid("unbalanced quotes in column type %q", raw)
	}
	if !typePattern.MatchString(skeleton) {
		return errs.Invalid("invalid column type %q", raw)
	}
	return nil
}

// stripLiterals replaces every quoted literal with '' so only the shape of
// the declaration remains.
func stripLiterals(s string) (string, bool) {
	var sb strings.Builder
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !inQuote {
			if c == '\'' {
				inQuote = true
				sb.WriteString("''")
				continue
			}
			sb.WriteByte(c)
			continue
		}
		switch {
		case c == '\\':
			i++
		case c == '\'' && i+1 < len(s) && s[i+1] == '\'':
			i++
		case c == '\'':
			inQuote = false
		}
	}
	return sb.String(), !inQuote
}

// --- position ---

// PositionKind says where a new column goes.
type PositionKind int

const (
	AtEnd PositionKind = iota
	AtFirst
	AfterColumn
)

// Position is a parsed position directive.
type Position struct {
	Kind   PositionKind
	Column string // set for AfterColumn
}

// ParsePosition parses end, first or after_<column>. An empty directive
// means end.
func ParsePosition(directive string) (Position, error) {
	switch d := strings.TrimSpace(directive); {
	case d == "" || d == "end":
		return Position{Kind: AtEnd}, nil
	case d == "first":
		return Position{Kind: AtFirst}, nil
	case strings.HasPrefix(d, "after_") && len(d) > len("after_"):
		return Position{Kind: AfterColumn, Column: strings.TrimPrefix(d, "after_")}, nil
	default:
		return Position{}, errs.Invalid("invalid position %q: want end, first or after_<column>", directive)
	}
}

// Clause renders the position suffix of ADD COLUMN, including the leading
// space, or "" for AtEnd.
func (p Position) Clause() string {
	switch p.Kind {
	case AtFirst:
		return " FIRST"
	case AfterColumn:
		return " AFTER " + quote(p.Column)
	default:
		return ""
	}
}
