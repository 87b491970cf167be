package csv

import (
	"context"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func collect(t *testing.T, path string, width int) ([][]string, []int) {
	t.Helper()
	var rows [][]string
	var lines []int
	n, err := StreamRecords(context.Background(), path, width, func(line int, f []string) error {
		rows = append(rows, append([]string(nil), f...))
		lines = append(lines, line)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamRecords: %v", err)
	}
	if n != len(rows) {
		t.Fatalf("count=%d, delivered=%d", n, len(rows))
	}
	return rows, lines
}

func TestReadHeader_StripsBOM(t *testing.T) {
	t.Parallel()

	p := writeFile(t, "bom.csv", "\xEF\xBB\xBFid,name\n1,a\n")
	hdr, err := ReadHeader(context.Background(), p)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if want := []string{"id", "name"}; !reflect.DeepEqual(hdr, want) {
		t.Fatalf("header=%q, want %q", hdr, want)
	}
}

func TestReadHeader_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing_file", func(t *testing.T) {
		t.Parallel()
		_, err := ReadHeader(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
		if !errors.Is(err, fs.ErrNotExist) {
			t.Fatalf("err=%v, want fs.ErrNotExist", err)
		}
	})

	t.Run("empty_file", func(t *testing.T) {
		t.Parallel()
		_, err := ReadHeader(context.Background(), writeFile(t, "empty.csv", ""))
		if !errors.Is(err, ErrNoHeader) {
			t.Fatalf("err=%v, want ErrNoHeader", err)
		}
	})

	t.Run("blank_first_line", func(t *testing.T) {
		t.Parallel()
		_, err := ReadHeader(context.Background(), writeFile(t, "lead.csv", "\nx,y\n1,2\n"))
		if !errors.Is(err, ErrBlankHeader) {
			t.Fatalf("err=%v, want ErrBlankHeader", err)
		}
	})

	t.Run("only_newlines", func(t *testing.T) {
		t.Parallel()
		_, err := ReadHeader(context.Background(), writeFile(t, "nl.csv", "\r\n\n"))
		if !errors.Is(err, ErrBlankHeader) {
			t.Fatalf("err=%v, want ErrBlankHeader", err)
		}
	})

	t.Run("bom_only", func(t *testing.T) {
		t.Parallel()
		_, err := ReadHeader(context.Background(), writeFile(t, "bom.csv", "\xEF\xBB\xBF"))
		if !errors.Is(err, ErrNoHeader) {
			t.Fatalf("err=%v, want ErrNoHeader", err)
		}
	})
}

func TestStreamRecords_QuotedFieldsAndWidth(t *testing.T) {
	t.Parallel()

	body := "a,b,c\n" +
		"1,\"x, y\",3\n" +
		"2,\"multi\nline\"\n" +
		"3,q,r,extra,more\n"
	rows, lines := collect(t, writeFile(t, "q.csv", body), 3)

	want := [][]string{
		{"1", "x, y", "3"},
		{"2", "multi\nline", ""},
		{"3", "q", "r"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows=%q, want %q", rows, want)
	}
	if wantLines := []int{2, 3, 5}; !reflect.DeepEqual(lines, wantLines) {
		t.Fatalf("lines=%v, want %v", lines, wantLines)
	}
}

func TestStreamRecords_HeaderOnly(t *testing.T) {
	t.Parallel()

	rows, _ := collect(t, writeFile(t, "h.csv", "a,b\n"), 2)
	if len(rows) != 0 {
		t.Fatalf("rows=%q, want none", rows)
	}
}

func TestStreamRecords_CallbackErrorStops(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	p := writeFile(t, "s.csv", "a\n1\n2\n3\n")
	calls := 0
	n, err := StreamRecords(context.Background(), p, 1, func(int, []string) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v, want boom", err)
	}
	if n != 2 || calls != 2 {
		t.Fatalf("n=%d calls=%d, want 2/2", n, calls)
	}
}

func TestStreamRecords_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := StreamRecords(ctx, writeFile(t, "c.csv", "a\n1\n"), 1, func(int, []string) error {
		t.Fatalf("callback must not run on a canceled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v, want context.Canceled", err)
	}
}

func TestNormalizeWidth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		width int
		rec   []string
		want  []string
	}{
		{"exact", 2, []string{"a", "b"}, []string{"a", "b"}},
		{"pad", 3, []string{"a"}, []string{"a", "", ""}},
		{"truncate", 1, []string{"a", "b", "c"}, []string{"a"}},
		{"empty_record", 2, nil, []string{"", ""}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dst := make([]string, tt.width)
			for i := range dst {
				dst[i] = "stale"
			}
			if got := NormalizeWidth(dst, tt.rec); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("NormalizeWidth(%q) = %q, want %q", tt.rec, got, tt.want)
			}
		})
	}
}

func TestIsParseError(t *testing.T) {
	t.Parallel()

	pe := &stdcsv.ParseError{StartLine: 2, Line: 2, Column: 1, Err: stdcsv.ErrQuote}
	if !IsParseError(fmt.Errorf("csv read: %w", pe)) {
		t.Fatalf("wrapped *csv.ParseError not recognized")
	}
	if IsParseError(io.ErrUnexpectedEOF) {
		t.Fatalf("io error classified as parse error")
	}
}

func TestStreamRecords_BlankLinesAreEmptyRecords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		wantRows  [][]string
		wantLines []int
	}{
		{
			name:      "between_rows",
			body:      "a,b\n1,2\n\n3,4\n",
			wantRows:  [][]string{{"1", "2"}, {"", ""}, {"3", "4"}},
			wantLines: []int{2, 3, 4},
		},
		{
			name:      "after_header",
			body:      "a,b\n\n\n1,2",
			wantRows:  [][]string{{"", ""}, {"", ""}, {"1", "2"}},
			wantLines: []int{2, 3, 4},
		},
		{
			name:      "trailing",
			body:      "a,b\r\n1,2\r\n\r\n",
			wantRows:  [][]string{{"1", "2"}, {"", ""}},
			wantLines: []int{2, 3},
		},
		{
			name:      "after_multiline_field",
			body:      "a,b\n1,\"x\ny\"\n\n2,z\n",
			wantRows:  [][]string{{"1", "x\ny"}, {"", ""}, {"2", "z"}},
			wantLines: []int{2, 4, 5},
		},
		{
			name:      "no_trailing_newline",
			body:      "a,b\n1,2",
			wantRows:  [][]string{{"1", "2"}},
			wantLines: []int{2},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rows, lines := collect(t, writeFile(t, tt.name+".csv", tt.body), 2)
			if !reflect.DeepEqual(rows, tt.wantRows) {
				t.Fatalf("rows=%q, want %q", rows, tt.wantRows)
			}
			if !reflect.DeepEqual(lines, tt.wantLines) {
				t.Fatalf("lines=%v, want %v", lines, tt.wantLines)
			}
		})
	}
}

func TestStreamRecords_BlankFirstLine(t *testing.T) {
	t.Parallel()

	_, err := StreamRecords(context.Background(), writeFile(t, "lead.csv", "\nx,y\n1,2\n"), 2, func(int, []string) error {
		t.Fatalf("callback must not run without a header")
		return nil
	})
	if !errors.Is(err, ErrBlankHeader) {
		t.Fatalf("err=%v, want ErrBlankHeader", err)
	}
}
