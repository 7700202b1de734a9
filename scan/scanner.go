package scan

import (
	"regexp"
	"unicode/utf8"
)

// Scanner is a forward only cursor over source text.
type Scanner struct {
	src string
	pos int
}

func NewScanner(src string) *Scanner {
	return &Scanner{src: src}
}

// Source returns the complete text being scanned.
func (s *Scanner) Source() string {
	return s.src
}

// Pos returns the current byte offset.
func (s *Scanner) Pos() int {
	return s.pos
}

// AtEnd reports whether the whole source has been consumed.
func (s *Scanner) AtEnd() bool {
	return s.pos >= len(s.src)
}

// ConsumePattern matches re at the current position and advances past the
// match. The pattern should be anchored with ^. When there is no non-empty
// match at the current position nothing is consumed and false is returned.
func (s *Scanner) ConsumePattern(re *regexp.Regexp) (string, bool) {
	if s.AtEnd() {
		return "", false
	}
	loc := re.FindStringIndex(s.src[s.pos:])
	if loc == nil || loc[0] != 0 || loc[1] == 0 {
		return "", false
	}
	match := s.src[s.pos : s.pos+loc[1]]
	s.pos += loc[1]
	return match, true
}

// ConsumeChar returns the next character and advances past it.
func (s *Scanner) ConsumeChar() (rune, bool) {
	if s.AtEnd() {
		return 0, false
	}
	r, size := utf8.DecodeRuneInString(s.src[s.pos:])
	s.pos += size
	return r, true
}

// Peek returns up to n next characters without advancing.
func (s *Scanner) Peek(n int) string {
	end := s.pos
	for i := 0; i < n && end < len(s.src); i++ {
		_, size := utf8.DecodeRuneInString(s.src[end:])
		end += size
	}
	return s.src[s.pos:end]
}

// rewind is used by the tokenizer to undo a lookahead.
func (s *Scanner) rewind(pos int) {
	s.pos = pos
}
