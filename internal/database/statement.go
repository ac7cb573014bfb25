package database

import (
	"regexp"
	"strings"
)

// rowKeywords are the leading keywords of statements that produce a result
// set and therefore go through QueryContext instead of ExecContext.
var rowKeywords = map[string]bool{
	"SELECT":   true,
	"SHOW":     true,
	"WITH":     true,
	"VALUES":   true,
	"EXPLAIN":  true,
	"DESCRIBE": true,
	"DESC":     true,
	"PRAGMA":   true,
	"TABLE":    true,
}

var returningClause = regexp.MustCompile(`(?i)\bRETURNING\b`)

// returnsRows reports whether query yields rows.
func returnsRows(query string) bool {
	q := skipPreamble(query)
	end := strings.IndexFunc(q, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	})
	if end < 0 {
		end = len(q)
	}
	if rowKeywords[strings.ToUpper(q[:end])] {
		return true
	}
	return returningClause.MatchString(unquoted(q))
}

// unquoted blanks out string literals and quoted identifiers so keywords
// inside them are not matched. Doubled quotes ('it''s') close and reopen,
// which leaves the literal blank as well.
func unquoted(q string) string {
	if !strings.ContainsAny(q, "'\"`") {
		return q
	}
	b := []byte(q)
	var quote byte
	for i, c := range b {
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				b[i] = ' '
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		}
	}
	return string(b)
}

// skipPreamble drops leading whitespace, opening parentheses and SQL comments.
func skipPreamble(q string) string {
	for {
		q = strings.TrimLeft(q, " \t\r\n(")
		switch {
		case strings.HasPrefix(q, "--"), strings.HasPrefix(q, "#"):
			i := strings.IndexByte(q, '\n')
			if i < 0 {
				return ""
			}
			q = q[i+1:]
		case strings.HasPrefix(q, "/*"):
			i := strings.Index(q, "*/")
			if i < 0 {
				return ""
			}
			q = q[i+2:]
		default:
			return q
		}
	}
}
