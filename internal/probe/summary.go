package probe

import (
	"fmt"
	"strings"

	"csvimport/internal/schema"
)

// RenderSummary renders a small human-readable report of an inference pass:
// one line per column with the raw header, the sanitized name and the type.
//
// Used by the CLI dry-run mode; nothing is written to the destination.
func RenderSummary(table string, headers []string, tbl schema.Table, rows int) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "table=%s\n", table)
	fmt.Fprintf(&b, "rows=%d\n", rows)
	fmt.Fprintf(&b, "header,column,type\n")
	for i, c := range tbl.Columns {
		h := ""
		if i < len(headers) {
			h = headers[i]
		}
		fmt.Fprintf(&b, "%s,%s,%s\n", summaryField(h), c.Name, c.Type)
	}
	return []byte(b.String())
}

// summaryField quotes a raw header the way encoding/csv would when it carries
// a comma, quote or newline.
func summaryField(s string) string {
	if !strings.ContainsAny(s, ",\"\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
