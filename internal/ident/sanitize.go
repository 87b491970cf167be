// Package ident turns arbitrary header text and file names into safe SQL
// identifiers.
//
// Every identifier produced here:
//   - contains only [a-z0-9_]
//   - does not start with a digit
//   - is never a reserved keyword (see ReservedKeywords)
//   - is unique within the used-set it was generated against
//
// Storage backends still quote identifiers; values always travel as bind
// parameters.
package ident

import (
	"path/filepath"
	"strconv"
	"strings"
)

// TableFallback is the prefix used when a file name sanitizes to nothing or
// starts with a digit.
const TableFallback = "data"

// defaultFallback covers callers that pass an empty fallback prefix.
const defaultFallback = "col"

// Sanitize returns a safe identifier derived from raw.
//
// fallbackPrefix replaces an empty result and prefixes a result that starts
// with a digit. When used is non-nil, a name already present gets the first
// free "_1", "_2", ... suffix and the final name is added to used.
//
// Sanitize never fails; an empty or fully symbolic raw value yields
// fallbackPrefix (made unique against used).
func Sanitize(raw, fallbackPrefix string, used map[string]struct{}) string {
	s := strings.ReplaceAll(raw, "\uFEFF", "")
	s = strings.ToLower(strings.TrimSpace(s))
	s = collapse(s)

	if s == "" {
		s = fallbackPrefix
	}
	if s == "" {
		s = defaultFallback
	}
	if s[0] >= '0' && s[0] <= '9' {
		s = fallbackPrefix + "_" + s
	}
	if IsReserved(s) {
		s += "_"
	}

	if used == nil {
		return s
	}
	base := s
	for n := 1; ; n++ {
		if _, taken := used[s]; !taken {
			break
		}
		s = base + "_" + strconv.Itoa(n)
	}
	used[s] = struct{}{}
	return s
}

// collapse maps every rune outside [a-z0-9] to '_', folds runs of '_' into a
// single one and trims '_' from both ends.
func collapse(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastUnderscore := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}

// Headers sanitizes a header row positionally. All headers share one used-set,
// so duplicates are disambiguated in column order; header i (1-based) falls
// back to "col_<i>".
func Headers(raw []string) []string {
	used := make(map[string]struct{}, len(raw))
	out := make([]string, len(raw))
	for i, h := range raw {
		out[i] = Sanitize(h, "col_"+strconv.Itoa(i+1), used)
	}
	return out
}

// TableName derives the target table name from a CSV path: the base name
// without its extension, sanitized with the "data" fallback and no used-set.
func TableName(csvPath string) string {
	base := filepath.Base(csvPath)
	// Leading dots belong to the name, not the extension: ".csv" stays "csv".
	base = strings.TrimSuffix(base, filepath.Ext(strings.TrimLeft(base, ".")))
	return Sanitize(base, TableFallback, nil)
}
