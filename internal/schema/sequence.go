package schema

import (
	"regexp"
	"strings"
)

// nextvalRe matches the first string literal passed to nextval(). Doubled
// single quotes inside the literal are accepted.
var nextvalRe = regexp.MustCompile(`(?i)\bnextval\s*\(\s*'((?:[^']|'')+)'`)

// SequenceName extracts the sequence identifier from a column default such
// as nextval('orders_id_seq'::regclass).
//
// This is best-effort text matching on the default's printed form, not a
// parse of the expression grammar. The returned text is the literal's
// content, which PostgreSQL prints as a valid (quoted when necessary,
// possibly schema-qualified) relation name.
func SequenceName(defaultExpr string) (string, bool) {
	m := nextvalRe.FindStringSubmatch(defaultExpr)
	if m == nil {
		return "", false
	}
	name := strings.ReplaceAll(m[1], "''", "'")
	if strings.TrimSpace(name) == "" {
		return "", false
	}
	return name, true
}
