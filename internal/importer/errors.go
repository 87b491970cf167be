package importer

import "errors"

// ErrValidation classifies input problems detected before the destination is
// opened.
var ErrValidation = errors.New("invalid input")

// ErrDatabase classifies failures reported by the destination engine. The
// engine's own message is kept in the wrapped error.
var ErrDatabase = errors.New("database error")

var (
	ErrNoHeader     error = &kindError{msg: "CSV appears to be empty (no header row)", kind: ErrValidation}
	ErrBlankHeader  error = &kindError{msg: "header row is missing or contains only empty column names", kind: ErrValidation}
	ErrMalformedCSV error = &kindError{msg: "malformed CSV", kind: ErrValidation}
)

// kindError is a sentinel with its own message that also matches its kind
// under errors.Is.
type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }
