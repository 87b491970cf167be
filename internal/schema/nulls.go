package schema

import "strings"

// NullTokens is the fixed set of cell values, compared after trimming and
// lowercasing, that are stored as NULL regardless of column type.
var NullTokens = map[string]struct{}{
	"":     {},
	"na":   {},
	"n/a":  {},
	"null": {},
	"none": {},
}

// IsNull reports whether the trimmed, lowercased cell is a null token.
func IsNull(cell string) bool {
	_, ok := NullTokens[strings.ToLower(strings.TrimSpace(cell))]
	return ok
}

// NonNull trims cell and reports whether it carries a value.
func NonNull(cell string) (string, bool) {
	v := strings.TrimSpace(cell)
	if _, null := NullTokens[strings.ToLower(v)]; null {
		return "", false
	}
	return v, true
}
