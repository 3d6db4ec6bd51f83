package query

import (
	"strings"
	"unicode"
)

// Kind says whether a statement returns a result set.
type Kind int

const (
	Write Kind = iota
	Read
)

func (k Kind) String() string {
	if k == Read {
		return "select"
	}
	return "non-select"
}

var readKeywords = map[string]bool{
	"SELECT":   true,
	"SHOW":     true,
	"DESCRIBE": true,
	"DESC":     true,
	"EXPLAIN":  true,
	"WITH":     true,
	"VALUES":   true,
	"TABLE":    true,
	"PRAGMA":   true,
}

// Classify reports whether stmt is a read. Leading whitespace, comments
// (--, # and /* */) and opening parentheses are skipped before the first
// keyword is inspected. Anything unrecognised is a write.
func Classify(stmt string) Kind {
	if readKeywords[firstKeyword(stmt)] {
		return Read
	}
	return Write
}

func firstKeyword(s string) string {
	for {
		s = strings.TrimLeftFunc(s, func(r rune) bool { return unicode.IsSpace(r) || r == '(' })
		switch {
		case strings.HasPrefix(s, "--"), strings.HasPrefix(s, "#"):
			nl := strings.IndexByte(s, '\n')
			if nl < 0 {
				return ""
			}
			s = s[nl+1:]
		case strings.HasPrefix(s, "/*"):
			end := strings.Index(s[2:], "*/")
			if end < 0 {
				return ""
			}
			s = s[end+4:]
		default:
			end := strings.IndexFunc(s, func(r rune) bool {
				return !unicode.IsLetter(r) && r != '_'
			})
			if end < 0 {
				end = len(s)
			}
			return strings.ToUpper(s[:end])
		}
	}
}
