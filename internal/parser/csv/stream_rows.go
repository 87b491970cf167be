// Package csv reads CSV input for the importer.
//
// Input is decoded as UTF-8; a leading byte-order mark is stripped. Parsing is
// comma-delimited and quote-aware, so quoted fields may carry commas and
// newlines. Records of any width are accepted and normalized to the header
// width by the caller-visible stream.
//
// An empty line is a record of empty fields, not a separator: inside the data
// it yields an all-empty row, and as the first line it makes the header blank.
package csv

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrNoHeader is returned when the input has no first record at all.
var ErrNoHeader = errors.New("csv: no header row")

// ErrBlankHeader is returned when the first line of the input is empty.
var ErrBlankHeader = errors.New("csv: blank header row")

// RecordFunc receives one data record, already normalized to the header width.
// line is the 1-based input line the record starts on. An empty input line is
// delivered as a record of empty fields.
//
// The fields slice is reused between calls; copy anything retained.
type RecordFunc func(line int, fields []string) error

// Open opens path for reading through a BOM-stripping UTF-8 decoder.
// Invalid UTF-8 sequences are replaced with U+FFFD rather than failing.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	type rc struct {
		io.Reader
		io.Closer
	}
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	return &rc{
		Reader: transform.NewReader(f, dec),
		Closer: f,
	}, nil
}

// lineCounter counts newlines passing through it. encoding/csv skips empty
// lines; the count lets callers find the ones after the last record.
type lineCounter struct {
	r     io.Reader
	lines int
}

func (c *lineCounter) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.lines += bytes.Count(p[:n], []byte{'\n'})
	return n, err
}

// recordEndLine returns the line the record just read ends on.
func recordEndLine(cr *csv.Reader, rec []string) int {
	last := len(rec) - 1
	line, _ := cr.FieldPos(last)
	return line + strings.Count(rec[last], "\n")
}

// readHeader reads the first record and rejects inputs whose first line is
// empty.
func readHeader(cr *csv.Reader, lc *lineCounter) ([]string, error) {
	hdr, err := cr.Read()
	if err == io.EOF {
		if lc.lines > 0 {
			return nil, ErrBlankHeader
		}
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if line, _ := cr.FieldPos(0); line != 1 {
		return nil, ErrBlankHeader
	}
	return hdr, nil
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = ','
	cr.FieldsPerRecord = -1 // width is normalized, never validated
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	return cr
}

// ReadHeader returns the first record of path.
//
// Errors:
//   - filesystem errors from os.Open are returned unwrapped (errors.Is with
//     fs.ErrNotExist works).
//   - ErrNoHeader when the file holds no records.
//   - ErrBlankHeader when the first line is empty.
//   - a wrapped *csv.ParseError when the first record is malformed.
func ReadHeader(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	lc := &lineCounter{r: src}
	hdr, err := readHeader(newReader(lc), lc)
	if err != nil {
		return nil, err
	}
	// ReuseRecord: detach from the reader's buffer.
	return append([]string(nil), hdr...), nil
}

// StreamRecords reads path from the start, skips the header record and calls
// fn for every data record normalized to width fields. It returns the number
// of data records delivered.
//
// Streaming stops at the first error from the reader, from fn, or from ctx;
// there is no skip-and-continue mode.
func StreamRecords(ctx context.Context, path string, width int, fn RecordFunc) (int, error) {
	src, err := Open(path)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	lc := &lineCounter{r: src}
	cr := newReader(lc)
	hdr, err := readHeader(cr, lc)
	if err != nil {
		return 0, err
	}
	prevEnd := recordEndLine(cr, hdr)

	buf := make([]string, width)
	var n int
	blanks := func(from, to int) error {
		for ln := from; ln < to; ln++ {
			n++
			if err := fn(ln, NormalizeWidth(buf, nil)); err != nil {
				return err
			}
		}
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		rec, err := cr.Read()
		if err == io.EOF {
			// empty lines after the last record
			err := blanks(prevEnd+1, lc.lines+1)
			return n, err
		}
		if err != nil {
			return n, fmt.Errorf("csv read: %w", err)
		}

		line, _ := cr.FieldPos(0)
		if err := blanks(prevEnd+1, line); err != nil {
			return n, err
		}
		prevEnd = recordEndLine(cr, rec)

		n++
		if err := fn(line, NormalizeWidth(buf, rec)); err != nil {
			return n, err
		}
	}
}

// IsParseError reports whether err came from malformed CSV syntax rather than
// from the filesystem or a callback.
func IsParseError(err error) bool {
	var pe *csv.ParseError
	return errors.As(err, &pe)
}

// NormalizeWidth copies rec into dst, padding missing trailing fields with ""
// and dropping fields beyond len(dst). dst is returned for convenience.
func NormalizeWidth(dst, rec []string) []string {
	k := copy(dst, rec)
	for i := k; i < len(dst); i++ {
		dst[i] = ""
	}
	return dst
}
