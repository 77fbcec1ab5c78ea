package ics

import (
	"errors"
	"fmt"
)

// ErrNilSource is returned when a parse entry point is handed a nil line
// source or reader. It is the earliest possible failure: nothing has been
// read or parsed yet.
var ErrNilSource = errors.New("ics: line source is nil")

// ErrRawNewline is returned when a logical line handed to the tokenizer
// still contains a raw CR or LF. That is a caller contract violation;
// newlines inside values must be escaped before this layer.
var ErrRawNewline = errors.New("ics: content line contains a raw newline")

// TokenError reports a logical line that does not match the content-line
// grammar. The tokenizer is a pure per-line function, so a TokenError never
// affects lines already tokenized.
type TokenError struct {
	Line string // the offending logical line
	Pos  int    // byte offset at which scanning gave up
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("ics: cannot tokenize line %q (offset %d)", e.Line, e.Pos)
}

// StructuralError reports mismatched or missing BEGIN/END block delimiters.
// Expected is the name of the innermost open block ("" when none is open);
// Actual is the name carried by the offending END line ("" when the input
// ended while the block was still open).
type StructuralError struct {
	Expected string
	Actual   string
}

func (e *StructuralError) Error() string {
	switch {
	case e.Expected == "":
		return fmt.Sprintf("ics: END:%s without a matching BEGIN", e.Actual)
	case e.Actual == "":
		return fmt.Sprintf("ics: unexpected end of input, expected END:%s", e.Expected)
	default:
		return fmt.Sprintf("ics: expected END:%s, got END:%s", e.Expected, e.Actual)
	}
}
