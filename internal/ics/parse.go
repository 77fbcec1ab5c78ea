package ics

import (
	"fmt"
	"io"
	"strings"
)

// TokenScanner tokenizes logical lines on demand, in the scanner idiom:
// call Next until it reports false, then check Err. The first line that
// fails to tokenize stops the scan; lines already produced are unaffected.
type TokenScanner struct {
	lines *Unfolder
	line  int
	err   error
}

// NewTokenScanner builds a scanner over the unfolded lines of src.
func NewTokenScanner(src LineSource) (*TokenScanner, error) {
	u, err := NewUnfolder(src)
	if err != nil {
		return nil, err
	}
	return &TokenScanner{lines: u}, nil
}

// Next returns the next content line.
func (ts *TokenScanner) Next() (*ContentLine, bool) {
	if ts.err != nil {
		return nil, false
	}
	raw, ok := ts.lines.Next()
	if !ok {
		return nil, false
	}
	ts.line++
	cl, err := ParseContentLine(raw)
	if err != nil {
		ts.err = fmt.Errorf("logical line %d: %w", ts.line, err)
		return nil, false
	}
	return cl, true
}

// Err returns the first tokenization error, if any.
func (ts *TokenScanner) Err() error { return ts.err }

// ParseTokens assembles the token stream into the component tree. The
// scanner is a shared cursor: tokens consumed while a block is open come
// from the same stream that top-level dispatch reads, so nesting is
// resolved with an explicit stack of open containers instead of recursion.
//
// The first tokenization or structural error aborts the whole document;
// no partial tree is returned.
func ParseTokens(ts *TokenScanner) ([]Component, error) {
	top := []Component{}
	var open []*Container // innermost block last
	for {
		cl, ok := ts.Next()
		if !ok {
			break
		}
		switch cl.Name {
		case "BEGIN":
			open = append(open, &Container{Name: cl.Value})
		case "END":
			if len(open) == 0 {
				return nil, &StructuralError{Actual: cl.Value}
			}
			block := open[len(open)-1]
			if cl.Value != block.Name {
				return nil, &StructuralError{Expected: block.Name, Actual: cl.Value}
			}
			open = open[:len(open)-1]
			if len(open) > 0 {
				if err := open[len(open)-1].Append(block); err != nil {
					return nil, err
				}
			} else {
				top = append(top, block)
			}
		default:
			if len(open) > 0 {
				if err := open[len(open)-1].Append(cl); err != nil {
					return nil, err
				}
			} else {
				top = append(top, cl)
			}
		}
	}
	if err := ts.Err(); err != nil {
		return nil, err
	}
	if len(open) > 0 {
		return nil, &StructuralError{Expected: open[len(open)-1].Name}
	}
	return top, nil
}

// ParseLines runs the full unfold/tokenize/build pipeline over src.
func ParseLines(src LineSource) ([]Component, error) {
	ts, err := NewTokenScanner(src)
	if err != nil {
		return nil, err
	}
	return ParseTokens(ts)
}

// ParseReader parses an iCalendar document from r.
func ParseReader(r io.Reader) ([]Component, error) {
	if r == nil {
		return nil, ErrNilSource
	}
	return ParseLines(NewReaderSource(r))
}

// ParseString parses an iCalendar document from an in-memory string.
func ParseString(text string) ([]Component, error) {
	return ParseLines(NewSliceSource(splitLines(text)))
}

// Encode serializes components back to iCalendar text with CRLF line ends.
// Re-parsing the result yields an equal tree; byte-identity with the
// original input is not guaranteed.
func Encode(components []Component) string {
	var b strings.Builder
	for _, comp := range components {
		b.WriteString(comp.String())
		b.WriteString("\r\n")
	}
	return b.String()
}

// splitLines splits on CRLF, LF or bare CR.
func splitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			lines = append(lines, text[start:i])
			start = i + 1
		case '\r':
			lines = append(lines, text[start:i])
			start = i + 1
			if start < len(text) && text[start] == '\n' {
				start++
				i++
			}
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}
