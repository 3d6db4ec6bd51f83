package schema

import "strings"

// ParseDomain extracts the ordered literal values from an ENUM or SET
// declaration such as enum('a','it''s','b'). It returns nil for any other
// type.
func ParseDomain(raw string) []string {
	bt := Classify(raw)
	if bt != Enum && bt != Set {
		return nil
	}

	open := strings.IndexByte(raw, '(')
	if open < 0 {
		return nil
	}
	closing := matchingParen(raw, open)
	if closing < 0 {
		return nil
	}
	body := raw[open+1 : closing]

	var (
		values  []string
		cur     strings.Builder
		inQuote bool
	)
	for i := 0; i < len(body); i++ {
		c := body[i]
		if !inQuote {
			if c == '\'' {
				inQuote = true
				cur.Reset()
			}
			continue
		}
		switch {
		case c == '\\' && i+1 < len(body):
			i++
			cur.WriteByte(body[i])
		case c == '\'' && i+1 < len(body) && body[i+1] == '\'':
			i++
			cur.WriteByte('\'')
		case c == '\'':
			inQuote = false
			values = append(values, cur.String())
		default:
			cur.WriteByte(c)
		}
	}
	return values
}
