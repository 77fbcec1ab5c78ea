package ics

import (
	"bufio"
	"io"
	"strings"
)

// LineSource is a pull cursor over physical text lines. Next returns the
// next line and false once the source is exhausted.
type LineSource interface {
	Next() (string, bool)
}

type sliceSource struct {
	lines []string
	pos   int
}

// NewSliceSource returns a LineSource reading from an in-memory slice.
func NewSliceSource(lines []string) LineSource {
	return &sliceSource{lines: lines}
}

func (s *sliceSource) Next() (string, bool) {
	if s.pos >= len(s.lines) {
		return "", false
	}
	line := s.lines[s.pos]
	s.pos++
	return line, true
}

type readerSource struct {
	sc *bufio.Scanner
}

// NewReaderSource returns a LineSource reading from r line by line.
func NewReaderSource(r io.Reader) LineSource {
	return &readerSource{sc: bufio.NewScanner(r)}
}

func (s *readerSource) Next() (string, bool) {
	if !s.sc.Scan() {
		return "", false
	}
	return s.sc.Text(), true
}

// Unfolder merges folded physical lines into logical lines in a single
// lazy forward pass:
//
//   - blank or whitespace-only lines are skipped entirely,
//   - carriage returns are stripped,
//   - a line starting with a space or tab continues the previous line,
//     with that first character removed,
//   - anything else completes the pending logical line.
type Unfolder struct {
	src     LineSource
	pending string
}

// NewUnfolder wraps src. A nil source is rejected before anything is read.
func NewUnfolder(src LineSource) (*Unfolder, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	return &Unfolder{src: src}, nil
}

// Next returns the next logical line.
func (u *Unfolder) Next() (string, bool) {
	for {
		line, ok := u.src.Next()
		if !ok {
			if u.pending != "" {
				out := u.pending
				u.pending = ""
				return out, true
			}
			return "", false
		}
		switch {
		case strings.TrimSpace(line) == "":
			// Blank lines neither terminate nor start a logical line.
		case u.pending == "":
			u.pending = strings.Trim(line, "\r")
		case line[0] == ' ' || line[0] == '\t':
			u.pending += strings.Trim(line[1:], "\r")
		default:
			out := u.pending
			u.pending = strings.Trim(line, "\r")
			return out, true
		}
	}
}

// UnfoldLines drains src through an Unfolder and collects the logical lines.
func UnfoldLines(src LineSource) ([]string, error) {
	u, err := NewUnfolder(src)
	if err != nil {
		return nil, err
	}
	var out []string
	for {
		line, ok := u.Next()
		if !ok {
			return out, nil
		}
		out = append(out, line)
	}
}
