package ident

// ReservedKeywords is the fixed set of words a sanitized identifier must never
// equal. It holds the SQLite keywords plus the storage type names used in
// generated DDL.
//
// Callers may read it but must not mutate it; use IsReserved for lookups.
var ReservedKeywords = map[string]struct{}{}

var keywordList = []string{
	"abort", "action", "add", "after", "all", "alter", "analyze", "and", "as", "asc",
	"attach", "autoincrement", "before", "begin", "between", "by", "cascade", "case",
	"cast", "check", "collate", "column", "commit", "conflict", "constraint", "create",
	"cross", "current_date", "current_time", "current_timestamp", "database", "default",
	"deferrable", "deferred", "delete", "desc", "detach", "distinct", "drop", "each",
	"else", "end", "escape", "except", "exclusive", "exists", "explain", "fail", "for",
	"foreign", "from", "full", "glob", "group", "having", "if", "ignore", "immediate",
	"in", "index", "indexed", "initially", "inner", "insert", "instead", "intersect",
	"into", "is", "isnull", "join", "key", "left", "like", "limit", "match", "natural",
	"no", "not", "notnull", "null", "of", "offset", "on", "or", "order", "outer",
	"plan", "pragma", "primary", "query", "raise", "recursive", "references", "regexp",
	"reindex", "release", "rename", "replace", "restrict", "right", "rollback", "row",
	"savepoint", "select", "set", "table", "temporary", "then", "to", "transaction",
	"trigger", "union", "unique", "update", "using", "vacuum", "values", "view", "virtual",
	"when", "where", "without",

	// type names
	"integer", "real", "text", "blob",
}

func init() {
	for _, k := range keywordList {
		ReservedKeywords[k] = struct{}{}
	}
}

// IsReserved reports whether s exactly matches a reserved keyword.
// The comparison is case-sensitive; sanitized identifiers are already lowercase.
func IsReserved(s string) bool {
	_, ok := ReservedKeywords[s]
	return ok
}

// Keywords returns a copy of the reserved keyword list in declaration order.
func Keywords() []string {
	return append([]string(nil), keywordList...)
}
