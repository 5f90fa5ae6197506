// Package scan locates translation function calls and their string
// literal arguments in Python source text.
//
// The scanner is a small hand-written lexer covering the slice of the
// Python grammar that matters here: comments, string literals in every
// prefix and quote form, identifiers, and bracket nesting. Scanning is a
// pure function of the input text, so it is restartable and keeps no
// state between files. Regular expressions alone cannot isolate a call's
// string argument across nested quotes and multi-line literals, which is
// why this lexes instead of matching.
package scan

import (
	"strings"
)

// StringLit is a single Python string literal.
type StringLit struct {
	// Start is the byte offset of the literal, prefix included.
	Start int
	// End is the byte offset just past the closing quote.
	End int
	// Prefix holds the literal's prefix letters as written ("", "f", "rb", ...).
	Prefix string
	// Quote is the quote form: `"`, `'`, `"""` or `'''`.
	Quote string
	// Body is the raw source text between the quotes.
	Body string
}

// IsFString reports whether the literal is an f-string.
func (l StringLit) IsFString() bool {
	return strings.ContainsAny(l.Prefix, "fF")
}

// Call is a translation function call whose first argument is a string literal.
type Call struct {
	// Keyword is the function name that matched.
	Keyword string
	// Start is the byte offset of the keyword.
	Start int
	// End is the byte offset just past the call's closing parenthesis.
	End int
	// Line is the 1-based line number of the keyword.
	Line int
	// Snippet is the trimmed source line containing the call start.
	Snippet string
	// Lit is the call's string literal argument.
	Lit StringLit

	// HasFormat is set when the call is directly followed by .format(...).
	HasFormat bool
	// FormatArgs is the raw argument text inside .format(...).
	FormatArgs string
	// FormatEnd is the byte offset just past .format's closing parenthesis.
	FormatEnd int
}

// Problem records a spot where call boundaries could not be determined.
type Problem struct {
	Line    int
	Snippet string
}

// stringPrefixes lists the valid Python string literal prefixes, lowercased.
var stringPrefixes = map[string]bool{
	"r": true, "b": true, "u": true, "f": true,
	"fr": true, "rf": true, "br": true, "rb": true,
}

// Calls scans src for calls to any function in keywords whose first
// argument starts with a string literal, in source order. Calls whose
// first argument is not a string literal are skipped silently. Unclosed
// calls, unterminated strings and implicit string concatenation are
// reported as Problems; scanning never fails hard.
func Calls(src string, keywords map[string]bool) ([]Call, []Problem) {
	s := &scanner{src: src, line: 1}
	var calls []Call
	var problems []Problem

	for !s.eof() {
		c := s.src[s.pos]
		switch {
		case c == '#':
			s.skipComment()
		case c == '"' || c == '\'':
			if _, ok := s.lexString(); !ok {
				problems = append(problems, Problem{Line: s.line, Snippet: lineSnippet(src, s.pos)})
				return calls, problems
			}
		case isIdentStart(c):
			start, startLine := s.pos, s.line
			name := s.lexIdent()
			if stringPrefixes[strings.ToLower(name)] && s.atQuote() {
				s.pos = start
				if _, ok := s.lexString(); !ok {
					problems = append(problems, Problem{Line: startLine, Snippet: lineSnippet(src, start)})
					return calls, problems
				}
				continue
			}
			// Attribute access (obj._(...)) is a method, not the
			// translation function.
			if keywords[name] && (start == 0 || src[start-1] != '.') {
				call, prob := s.lexCall(name, start, startLine)
				if call != nil {
					calls = append(calls, *call)
				}
				if prob != nil {
					problems = append(problems, *prob)
				}
			}
		default:
			s.advance()
		}
	}

	return calls, problems
}

// scanner walks src tracking the current byte offset and line number.
type scanner struct {
	src  string
	pos  int
	line int
}

func (s *scanner) eof() bool { return s.pos >= len(s.src) }

func (s *scanner) advance() {
	if s.src[s.pos] == '\n' {
		s.line++
	}
	s.pos++
}

func (s *scanner) atQuote() bool {
	return !s.eof() && (s.src[s.pos] == '"' || s.src[s.pos] == '\'')
}

// atString reports whether the scanner sits at a string literal,
// including prefixed forms like f"..." or rb'...'.
func (s *scanner) atString() bool {
	if s.eof() {
		return false
	}
	if s.atQuote() {
		return true
	}
	if !isIdentStart(s.src[s.pos]) {
		return false
	}
	j := s.pos
	for j < len(s.src) && isIdentByte(s.src[j]) {
		j++
	}
	if !stringPrefixes[strings.ToLower(s.src[s.pos:j])] {
		return false
	}
	return j < len(s.src) && (s.src[j] == '"' || s.src[j] == '\'')
}

// skipComment consumes from # up to (not including) the newline.
func (s *scanner) skipComment() {
	for !s.eof() && s.src[s.pos] != '\n' {
		s.pos++
	}
}

// skipTrivia consumes whitespace, comments and backslash-newline
// continuations. Only used inside parentheses, where newlines are not
// significant.
func (s *scanner) skipTrivia() {
	for !s.eof() {
		switch c := s.src[s.pos]; {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			s.advance()
		case c == '#':
			s.skipComment()
		case c == '\\' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '\n':
			s.advance()
			s.advance()
		default:
			return
		}
	}
}

// lexIdent consumes an identifier and returns it.
func (s *scanner) lexIdent() string {
	start := s.pos
	for !s.eof() && isIdentByte(s.src[s.pos]) {
		s.pos++
	}
	return s.src[start:s.pos]
}

// lexString consumes a string literal starting at the current position,
// prefix included. Returns ok=false on an unterminated literal; the
// scanner is then positioned at end of input or line.
func (s *scanner) lexString() (StringLit, bool) {
	lit := StringLit{Start: s.pos}

	j := s.pos
	for j < len(s.src) && isIdentByte(s.src[j]) {
		j++
	}
	if j > s.pos {
		lit.Prefix = s.src[s.pos:j]
		s.pos = j
	}

	q := s.src[s.pos]
	triple := strings.HasPrefix(s.src[s.pos:], strings.Repeat(string(q), 3))

	if triple {
		lit.Quote = strings.Repeat(string(q), 3)
		for i := 0; i < 3; i++ {
			s.advance()
		}
		bodyStart := s.pos
		for !s.eof() {
			if s.src[s.pos] == '\\' {
				s.advance()
				if !s.eof() {
					s.advance()
				}
				continue
			}
			if strings.HasPrefix(s.src[s.pos:], lit.Quote) {
				lit.Body = s.src[bodyStart:s.pos]
				for i := 0; i < 3; i++ {
					s.advance()
				}
				lit.End = s.pos
				return lit, true
			}
			s.advance()
		}
		return lit, false
	}

	lit.Quote = string(q)
	s.advance()
	bodyStart := s.pos
	for !s.eof() {
		switch c := s.src[s.pos]; {
		case c == '\\':
			// Even in raw strings the backslash keeps the next quote
			// from terminating the literal.
			s.advance()
			if !s.eof() {
				s.advance()
			}
		case c == '\n':
			return lit, false
		case c == q:
			lit.Body = s.src[bodyStart:s.pos]
			s.advance()
			lit.End = s.pos
			return lit, true
		default:
			s.advance()
		}
	}
	return lit, false
}

// lexCall parses one call to keyword, positioned just past the keyword.
// Returns a nil Call when the call is not of interest (no parenthesis, or
// a non-literal first argument), and a Problem when its boundaries could
// not be determined.
func (s *scanner) lexCall(keyword string, start, startLine int) (*Call, *Problem) {
	for !s.eof() && (s.src[s.pos] == ' ' || s.src[s.pos] == '\t') {
		s.pos++
	}
	if s.eof() || s.src[s.pos] != '(' {
		return nil, nil
	}
	s.advance()
	depth := 1

	prob := &Problem{Line: startLine, Snippet: lineSnippet(s.src, start)}

	s.skipTrivia()
	if s.eof() {
		return nil, prob
	}

	call := &Call{
		Keyword: keyword,
		Start:   start,
		Line:    startLine,
		Snippet: lineSnippet(s.src, start),
	}

	if !s.atString() {
		// Non-literal argument: out of scope, just find the call's end.
		if !s.skipBalanced(&depth) {
			return nil, prob
		}
		return nil, nil
	}

	lit, ok := s.lexString()
	if !ok {
		return nil, prob
	}
	call.Lit = lit

	s.skipTrivia()
	if s.atString() {
		// Implicit concatenation: the argument cannot be isolated into a
		// single literal, so flag it instead of guessing.
		s.skipBalanced(&depth)
		return nil, prob
	}

	if !s.skipBalanced(&depth) {
		return nil, prob
	}
	call.End = s.pos

	s.lexFormatSuffix(call)
	return call, nil
}

// lexFormatSuffix detects a chained .format(...) after the call and
// records its argument span. The scanner position is restored when no
// suffix is present.
func (s *scanner) lexFormatSuffix(call *Call) {
	savePos, saveLine := s.pos, s.line
	restore := func() {
		s.pos, s.line = savePos, saveLine
	}

	s.skipTrivia()
	if !strings.HasPrefix(s.src[s.pos:], ".format") {
		restore()
		return
	}
	s.pos += len(".format")
	for !s.eof() && (s.src[s.pos] == ' ' || s.src[s.pos] == '\t') {
		s.pos++
	}
	if s.eof() || s.src[s.pos] != '(' {
		restore()
		return
	}
	s.advance()
	argStart := s.pos
	depth := 1
	if !s.skipBalanced(&depth) {
		restore()
		return
	}
	call.HasFormat = true
	call.FormatArgs = s.src[argStart : s.pos-1]
	call.FormatEnd = s.pos
}

// skipBalanced consumes source until the bracket depth reaches zero,
// skipping over strings and comments. Returns true when the depth was
// closed by a parenthesis, false on premature end of input or a
// mismatched closing bracket.
func (s *scanner) skipBalanced(depth *int) bool {
	for !s.eof() {
		c := s.src[s.pos]
		switch {
		case c == '#':
			s.skipComment()
		case c == '"' || c == '\'':
			if _, ok := s.lexString(); !ok {
				return false
			}
		case isIdentStart(c):
			start := s.pos
			name := s.lexIdent()
			if stringPrefixes[strings.ToLower(name)] && s.atQuote() {
				s.pos = start
				if _, ok := s.lexString(); !ok {
					return false
				}
			}
		case c == '(' || c == '[' || c == '{':
			*depth++
			s.advance()
		case c == ')' || c == ']' || c == '}':
			*depth--
			matched := c == ')'
			s.advance()
			if *depth == 0 {
				return matched
			}
		default:
			s.advance()
		}
	}
	return false
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentByte(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// lineSnippet returns the trimmed source line containing the byte offset.
func lineSnippet(src string, off int) string {
	if off > len(src) {
		off = len(src)
	}
	start := strings.LastIndexByte(src[:off], '\n') + 1
	end := strings.IndexByte(src[off:], '\n')
	if end < 0 {
		end = len(src)
	} else {
		end += off
	}
	return strings.TrimSpace(src[start:end])
}
