package domain

import "strings"

// NormalizeQuery cleans raw query text before embedding: lowercases,
// replaces every rune that is not a Latin or Cyrillic letter, a digit, or
// whitespace with a space, collapses whitespace runs, and trims the ends.
// The character classes mirror the ones the index was built with, so query
// and indexed text go through the same transform.
//
// The function is pure and idempotent; empty input yields empty output.
func NormalizeQuery(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isQueryRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	// strings.Fields collapses runs of whitespace and drops the ends.
	return strings.Join(strings.Fields(b.String()), " ")
}

// isQueryRune reports whether r survives normalization. Whitespace is kept
// here and collapsed afterwards. The Cyrillic range а-я deliberately
// excludes ё, matching the index-side cleaning.
func isQueryRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r >= 'а' && r <= 'я':
		return true
	case r == ' ' || r == '\t' || r == '\n' || r == '\r':
		return true
	}
	return false
}
