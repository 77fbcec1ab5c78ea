package ics

import "strings"

// Param is one parameter of a content line: a name and its ordered values.
type Param struct {
	Name   string
	Values []string
}

// Params is the ordered parameter list of a content line. Order follows the
// declaration order in the source text.
type Params []Param

// Get returns the value list of the named parameter. Lookup is exact-match;
// parameter names are stored as written.
func (ps Params) Get(name string) ([]string, bool) {
	for _, p := range ps {
		if p.Name == name {
			return p.Values, true
		}
	}
	return nil, false
}

// Set replaces the whole value list of the named parameter, appending the
// parameter when it is not present yet. Partial in-place edits of a value
// list are deliberately not offered.
func (ps *Params) Set(name string, values ...string) {
	for i := range *ps {
		if (*ps)[i].Name == name {
			(*ps)[i].Values = values
			return
		}
	}
	*ps = append(*ps, Param{Name: name, Values: values})
}

// Equal reports element-wise equality, including order.
func (ps Params) Equal(other Params) bool {
	if len(ps) != len(other) {
		return false
	}
	for i, p := range ps {
		o := other[i]
		if p.Name != o.Name || len(p.Values) != len(o.Values) {
			return false
		}
		for j, v := range p.Values {
			if v != o.Values[j] {
				return false
			}
		}
	}
	return true
}

// ContentLine is one parsed property line.
//
// For example, ``FOO;BAR=1:YOLO`` is represented by
//
//	ContentLine{Name: "FOO", Params: Params{{Name: "BAR", Values: []string{"1"}}}, Value: "YOLO"}
//
// The name is stored upper-cased; parameter names and values and the value
// itself are kept verbatim (no unescaping happens at this layer).
type ContentLine struct {
	Name   string
	Params Params
	Value  string
}

// ParseContentLine parses a single unfolded logical line. A line containing
// a raw CR/LF is rejected with ErrRawNewline; a line that does not match
// the grammar yields a *TokenError.
func ParseContentLine(line string) (*ContentLine, error) {
	if strings.ContainsAny(line, "\r\n") {
		return nil, ErrRawNewline
	}
	s := lineScanner{input: line}
	cl, ok := s.contentLine()
	if !ok {
		return nil, &TokenError{Line: line, Pos: s.pos}
	}
	return cl, nil
}

// String re-serializes the line as NAME[;PARAM=v1,v2...]*:VALUE.
func (cl *ContentLine) String() string {
	var b strings.Builder
	b.WriteString(cl.Name)
	for _, p := range cl.Params {
		b.WriteByte(';')
		b.WriteString(p.Name)
		b.WriteByte('=')
		b.WriteString(strings.Join(p.Values, ","))
	}
	b.WriteByte(':')
	b.WriteString(cl.Value)
	return b.String()
}

// Equal reports whether other is a content line with the same name, the
// same ordered parameters and the same value.
func (cl *ContentLine) Equal(other Component) bool {
	o, ok := other.(*ContentLine)
	if !ok || o == nil {
		return false
	}
	return cl.Name == o.Name && cl.Value == o.Value && cl.Params.Equal(o.Params)
}

// Clone returns a deep copy.
func (cl *ContentLine) Clone() *ContentLine {
	out := &ContentLine{Name: cl.Name, Value: cl.Value}
	for _, p := range cl.Params {
		out.Params = append(out.Params, Param{Name: p.Name, Values: append([]string(nil), p.Values...)})
	}
	return out
}

func (*ContentLine) component() {}

// lineScanner is a recursive-descent scanner for the content-line grammar:
//
//	contentline = name (";" name "=" pvalue ("," pvalue)*)* ":" value
//	name        = [A-Za-z0-9-]+
//	pvalue      = quoted | [^";:,]*          (bare values may be empty)
//	value       = the raw remainder of the line (may be empty)
type lineScanner struct {
	input string
	pos   int
}

func (s *lineScanner) contentLine() (*ContentLine, bool) {
	name, ok := s.name()
	if !ok {
		return nil, false
	}
	var params Params
	for s.accept(';') {
		p, ok := s.param()
		if !ok {
			return nil, false
		}
		params = append(params, p)
	}
	if !s.accept(':') {
		return nil, false
	}
	value := s.input[s.pos:]
	s.pos = len(s.input)
	return &ContentLine{Name: strings.ToUpper(name), Params: params, Value: value}, true
}

func (s *lineScanner) name() (string, bool) {
	start := s.pos
	for s.pos < len(s.input) && isNameChar(s.input[s.pos]) {
		s.pos++
	}
	if s.pos == start {
		return "", false
	}
	return s.input[start:s.pos], true
}

func (s *lineScanner) param() (Param, bool) {
	name, ok := s.name()
	if !ok {
		return Param{}, false
	}
	if !s.accept('=') {
		return Param{}, false
	}
	values := []string{}
	for {
		v, ok := s.paramValue()
		if !ok {
			return Param{}, false
		}
		values = append(values, v)
		if !s.accept(',') {
			break
		}
	}
	return Param{Name: name, Values: values}, true
}

func (s *lineScanner) paramValue() (string, bool) {
	if s.pos < len(s.input) && s.input[s.pos] == '"' {
		// Quoted value; the quotes are preserved verbatim so that String()
		// reproduces the source form.
		end := strings.IndexByte(s.input[s.pos+1:], '"')
		if end < 0 {
			return "", false
		}
		v := s.input[s.pos : s.pos+end+2]
		s.pos += end + 2
		return v, true
	}
	start := s.pos
	for s.pos < len(s.input) && isParamText(s.input[s.pos]) {
		s.pos++
	}
	return s.input[start:s.pos], true
}

func (s *lineScanner) accept(c byte) bool {
	if s.pos < len(s.input) && s.input[s.pos] == c {
		s.pos++
		return true
	}
	return false
}

func isNameChar(c byte) bool {
	return c == '-' ||
		('0' <= c && c <= '9') ||
		('A' <= c && c <= 'Z') ||
		('a' <= c && c <= 'z')
}

func isParamText(c byte) bool {
	switch c {
	case '"', ';', ':', ',':
		return false
	}
	return true
}
