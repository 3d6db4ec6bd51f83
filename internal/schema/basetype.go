package schema

import (
	"strings"
)

// BaseType is the coarse family a declared column type belongs to,
// independent of length, precision and modifiers.
type BaseType string

const (
	Integer  BaseType = "integer"
	Decimal  BaseType = "decimal"
	Char     BaseType = "char"
	Text     BaseType = "text"
	Enum     BaseType = "enum"
	Set      BaseType = "set"
	Date     BaseType = "date"
	DateTime BaseType = "datetime"
	Time     BaseType = "time"
	Boolean  BaseType = "boolean"
	Other    BaseType = "other"
)

// InputKind is the form control a client renders for a column.
type InputKind string

const (
	InputNumber      InputKind = "number"
	InputText        InputKind = "text"
	InputTextarea    InputKind = "textarea"
	InputSelect      InputKind = "select"
	InputMultiselect InputKind = "multiselect"
	InputDate        InputKind = "date"
	InputDateTime    InputKind = "datetime"
	InputTime        InputKind = "time"
	InputCheckbox    InputKind = "checkbox"
)

var families = map[string]BaseType{
	// integer
	"tinyint": Integer, "smallint": Integer, "mediumint": Integer, "int": Integer,
	"integer": Integer, "bigint": Integer, "int2": Integer, "int4": Integer, "int8": Integer,
	"serial": Integer, "smallserial": Integer, "bigserial": Integer, "serial4": Integer,
	"serial8": Integer, "year": Integer,

	// decimal / float
	"decimal": Decimal, "dec": Decimal, "numeric": Decimal, "fixed": Decimal, "float": Decimal,
	"double": Decimal, "double precision": Decimal, "real": Decimal, "float4": Decimal,
	"float8": Decimal, "money": Decimal,

	// char / varchar
	"char": Char, "varchar": Char, "character": Char, "character varying": Char,
	"nchar": Char, "nvarchar": Char, "national char": Char, "national varchar": Char,
	"bpchar": Char, "uuid": Char, "inet": Char, "cidr": Char, "macaddr": Char,

	// text
	"text": Text, "tinytext": Text, "mediumtext": Text, "longtext": Text,
	"json": Text, "jsonb": Text, "xml": Text, "citext": Text,

	"enum": Enum,
	"set":  Set,

	"date": Date,

	"datetime": DateTime, "timestamp": DateTime, "timestamptz": DateTime,
	"timestamp with time zone": DateTime, "timestamp without time zone": DateTime,

	"time": Time, "timetz": Time, "time with time zone": Time, "time without time zone": Time,

	"bool": Boolean, "boolean": Boolean,
}

// modifiers are trailing words that never change the family.
var modifiers = map[string]bool{
	"unsigned": true,
	"signed":   true,
	"zerofill": true,
}

// SplitType separates a declared type into its lowercased base name and
// the text between the first pair of parentheses. Modifiers such as
// UNSIGNED, ZEROFILL and CHARACTER SET clauses are dropped.
//
//	SplitType("DECIMAL(10,2) UNSIGNED")      // "decimal", "10,2"
//	SplitType("timestamp(3) with time zone") // "timestamp with time zone", "3"
func SplitType(raw string) (base, length string) {
	s := strings.ToLower(strings.TrimSpace(raw))

	if open := strings.IndexByte(s, '('); open >= 0 {
		if closing := matchingParen(s, open); closing > open {
			length = s[open+1 : closing]
			s = s[:open] + " " + s[closing+1:]
		}
	}

	for _, cut := range []string{" character set ", " charset ", " collate "} {
		if i := strings.Index(" "+s+" ", cut); i >= 0 {
			s = s[:max(i-1, 0)]
		}
	}

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if !modifiers[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " "), length
}

// matchingParen finds the ')' closing the '(' at open, skipping quoted
// enum literals. Returns -1 if unbalanced.
func matchingParen(s string, open int) int {
	depth := 0
	inQuote := false
	for i := open; i < len(s); i++ {
		switch c := s[i]; {
		case inQuote:
			if c == '\\' {
				i++
			} else if c == '\'' {
				if i+1 < len(s) && s[i+1] == '\'' {
					i++
				} else {
					inQuote = false
				}
			}
		case c == '\'':
			inQuote = true
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// Classify maps a declared column type to its BaseType. It is pure, total
// and case-insensitive: types it does not recognise (arrays, blobs,
// spatial, user-defined) are Other.
//
// Classify reports only the declared family. TINYINT(1) is Integer; treating
// it as a boolean is a caller policy, see BooleanHint.
func Classify(raw string) BaseType {
	base, _ := SplitType(raw)
	if strings.HasSuffix(base, "[]") || strings.HasPrefix(base, "_") {
		return Other
	}
	if bt, ok := families[base]; ok {
		return bt
	}
	// "int(11) unsigned" style leftovers or vendor aliases such as "int unsigned"
	if first, _, ok := strings.Cut(base, " "); ok {
		if bt, ok := families[first]; ok {
			return bt
		}
	}
	return Other
}

// Input returns the form control used to edit values of this type.
func (b BaseType) Input() InputKind {
	switch b {
	case Integer, Decimal:
		return InputNumber
	case Text:
		return InputTextarea
	case Enum:
		return InputSelect
	case Set:
		return InputMultiselect
	case Date:
		return InputDate
	case DateTime:
		return InputDateTime
	case Time:
		return InputTime
	case Boolean:
		return InputCheckbox
	default:
		return InputText
	}
}

// NeedsQuoting reports whether literals of this type must be written as
// quoted strings in SQL.
func (b BaseType) NeedsQuoting() bool {
	switch b {
	case Integer, Decimal, Boolean:
		return false
	default:
		return true
	}
}

func (b BaseType) IsTextual() bool  { return b == Char || b == Text }
func (b BaseType) IsNumeric() bool  { return b == Integer || b == Decimal }
func (b BaseType) IsTemporal() bool { return b == Date || b == DateTime || b == Time }

// BooleanHint is the policy layered over Classify: a column is presented
// as a checkbox when it is a real boolean or a TINYINT(1).
func BooleanHint(c *ColumnDescriptor) bool {
	if c.BaseType == Boolean {
		return true
	}
	if c.BaseType != Integer || c.Length != "1" {
		return false
	}
	base, _ := SplitType(c.RawType)
	return base == "tinyint"
}
