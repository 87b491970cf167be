package ident

import (
	"reflect"
	"regexp"
	"testing"
)

var identRE = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func TestSanitize_TableDriven(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		fallback string
		want     string
	}{
		{"plain", "Name", "col_1", "name"},
		{"bom_and_space", "\ufeff  Customer ID ", "col_1", "customer_id"},
		{"punctuation_runs", "Price ($) / unit", "col_1", "price_unit"},
		{"existing_underscores_collapse", "__a__b__", "col_1", "a_b"},
		{"empty", "", "col_3", "col_3"},
		{"whitespace_only", "   ", "col_2", "col_2"},
		{"symbols_only", "%%%", "col_4", "col_4"},
		{"leading_digit", "2020 Sales", "col_1", "col_1_2020_sales"},
		{"reserved", "Select", "col_1", "select_"},
		{"type_name_reserved", "TEXT", "col_1", "text_"},
		{"non_ascii_replaced", "Größe", "col_1", "gr_e"},
		{"table_fallback_digit", "2024", "data", "data_2024"},
		{"empty_fallback_guard", "", "", "col"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Sanitize(tt.raw, tt.fallback, nil); got != tt.want {
				t.Fatalf("Sanitize(%q, %q) = %q, want %q", tt.raw, tt.fallback, got, tt.want)
			}
		})
	}
}

func TestSanitize_UsedSetSuffixes(t *testing.T) {
	t.Parallel()

	used := map[string]struct{}{}
	got := []string{
		Sanitize("a", "col_1", used),
		Sanitize("a", "col_2", used),
		Sanitize("a_1", "col_3", used),
		Sanitize("a", "col_4", used),
	}
	// "a_1" is taken by the second call, so the explicit "a_1" header gets "a_1_1".
	want := []string{"a", "a_1", "a_1_1", "a_2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if len(used) != len(want) {
		t.Fatalf("used set has %d entries, want %d", len(used), len(want))
	}
}

func TestHeaders_Duplicates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  []string
		want []string
	}{
		{"case_variants", []string{"Name", "name", "NAME"}, []string{"name", "name_1", "name_2"}},
		{"blank_headers_use_position", []string{"", "x", ""}, []string{"col_1", "x", "col_3"}},
		{"reserved_then_dup", []string{"order", "Order"}, []string{"order_", "order__1"}},
		{"collide_after_cleaning", []string{"a b", "a-b", "a.b"}, []string{"a_b", "a_b_1", "a_b_2"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Headers(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Headers(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

// TestHeaders_Properties checks the identifier invariants over a mixed bag of
// hostile inputs: non-empty, pattern-conforming, never reserved, pairwise distinct.
func TestHeaders_Properties(t *testing.T) {
	t.Parallel()

	raw := []string{
		"", " ", "1", "11", "select", "SELECT", "from", "__", "é", "a\"b", "a'b",
		"col_1", "col_1", "x;drop table t", "\ufeffid", "id", "ID ", "blob", "integer",
	}
	got := Headers(raw)
	if len(got) != len(raw) {
		t.Fatalf("len=%d, want %d", len(got), len(raw))
	}

	seen := map[string]bool{}
	for i, s := range got {
		if s == "" {
			t.Fatalf("header %d sanitized to empty", i)
		}
		if !identRE.MatchString(s) {
			t.Fatalf("header %d = %q does not match %s", i, s, identRE)
		}
		if IsReserved(s) {
			t.Fatalf("header %d = %q is reserved", i, s)
		}
		if seen[s] {
			t.Fatalf("header %d = %q duplicates an earlier header (all=%q)", i, s, got)
		}
		seen[s] = true
	}
}

func TestTableName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"/tmp/County Health.csv", "county_health"},
		{"data/2024-report.csv", "data_2024_report"},
		{"archive.tar.csv", "archive_tar"},
		{"noext", "noext"},
		{"/x/.csv", "csv"},
		{"/x/Table.CSV", "table_"},
		{"", "data"},
		{"/x/!!!.csv", "data"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			if got := TableName(tt.path); got != tt.want {
				t.Fatalf("TableName(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestReservedKeywords_Enumerable(t *testing.T) {
	t.Parallel()

	kw := Keywords()
	if len(kw) != len(ReservedKeywords) {
		t.Fatalf("Keywords() has %d entries, set has %d (duplicate in list?)", len(kw), len(ReservedKeywords))
	}
	for _, k := range []string{"select", "table", "integer", "real", "text", "blob"} {
		if !IsReserved(k) {
			t.Fatalf("%q should be reserved", k)
		}
	}
	for _, k := range kw {
		if got := Sanitize(k, "col_1", nil); got != k+"_" {
			t.Fatalf("Sanitize(%q) = %q, want %q", k, got, k+"_")
		}
	}

	kw[0] = "mutated"
	if Keywords()[0] == "mutated" {
		t.Fatalf("Keywords must return a copy")
	}
}
