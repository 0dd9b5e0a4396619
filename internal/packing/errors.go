package packing

import (
	"errors"
	"strings"
)

var (
	// ErrHeaderNotFound means no row in the search window looked like a header.
	ErrHeaderNotFound = errors.New("header not found")

	// ErrRequiredColumnsMissing means the header lacks description or quantity.
	ErrRequiredColumnsMissing = errors.New("required columns missing")
)

// ParseError is the fatal normalization failure. No partial result
// accompanies it.
type ParseError struct {
	Err       error   // ErrHeaderNotFound or ErrRequiredColumnsMissing
	HeaderRow int     // -1 when no header was found
	Missing   []Field // required fields absent from the header
}

func (e *ParseError) Error() string {
	msg := "parse error: " + e.Err.Error()
	if len(e.Missing) > 0 {
		names := make([]string, len(e.Missing))
		for i, f := range e.Missing {
			names[i] = string(f)
		}
		msg += " (" + strings.Join(names, ", ") + ")"
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }
