package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("ledger not found")
	ErrParse          = errors.New("ledger parse error")
	ErrSchemaMismatch = errors.New("ledger schema mismatch")

	ErrCardinalityMismatch = errors.New("edited rows do not match selection size")
	ErrUnknownKey          = errors.New("edited row is outside the selection")
	ErrDuplicateKey        = errors.New("duplicate row key")
)

// ParseError reports where a stored ledger could not be read. Line is
// 1-based and counts the header; Column is empty for row level problems.
type ParseError struct {
	Ledger Name
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Column != "":
		return fmt.Sprintf("parse %s line %d column %s: %v", e.Ledger, e.Line, e.Column, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("parse %s line %d: %v", e.Ledger, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Ledger, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is makes every ParseError match ErrParse.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

func parseErr(ledger Name, line int, column string, err error) error {
	return &ParseError{Ledger: ledger, Line: line, Column: column, Err: err}
}
