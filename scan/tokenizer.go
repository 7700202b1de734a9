package scan

import (
	"regexp"
	"unicode"
)

// ClassifyFunc produces the next token of a concrete language. It receives
// the character just consumed from the scanner and the offset it started at.
// Token text should be sliced from the source, first is utf8.RuneError for
// invalid input.
// Single character punctuation is returned as is, anything else should
// greedily consume characters outside of the language stop set and be
// returned as KindText.
type ClassifyFunc func(s *Scanner, first rune, offset int) Token

var whitespaceRun = regexp.MustCompile(`^\s+`)

// Tokenizer turns scanner output into a stream with one token lookahead.
// Only the current token and the scanner cursor are kept.
type Tokenizer struct {
	s          *Scanner
	classify   ClassifyFunc
	whitespace Kind
	labels     Labels

	cur Token
	ok  bool
}

// NewTokenizer creates tokenizer over src and fetches the first token.
func NewTokenizer(src string, classify ClassifyFunc, whitespace Kind, labels Labels) *Tokenizer {
	t := &Tokenizer{
		s:          NewScanner(src),
		classify:   classify,
		whitespace: whitespace,
		labels:     labels,
	}
	t.Advance(false)
	return t
}

// Current returns current token, false when input is exhausted.
func (t *Tokenizer) Current() (Token, bool) {
	return t.cur, t.ok
}

// Ended reports whether there is no current token.
func (t *Tokenizer) Ended() bool {
	return !t.ok
}

// Advance moves to the next token. When skipWhitespace is set whitespace
// tokens are never observed by the caller.
func (t *Tokenizer) Advance(skipWhitespace bool) (Token, bool) {
	for {
		offset := t.s.Pos()
		r, ok := t.s.ConsumeChar()
		if !ok {
			t.cur, t.ok = Token{Offset: offset}, false
			return t.cur, false
		}
		if unicode.IsSpace(r) {
			t.s.ConsumePattern(whitespaceRun)
			if skipWhitespace {
				continue
			}
			t.cur, t.ok = Token{Kind: t.whitespace, Text: t.s.Source()[offset:t.s.Pos()], Offset: offset}, true
			return t.cur, true
		}
		t.cur, t.ok = t.classify(t.s, r, offset), true
		return t.cur, true
	}
}

// EatWhitespace skips current token if it is whitespace.
func (t *Tokenizer) EatWhitespace() {
	if t.ok && t.cur.Kind == t.whitespace {
		t.Advance(false)
	}
}

// PeekToken returns the token Advance would produce without committing to
// it: both scanner cursor and current token are restored.
func (t *Tokenizer) PeekToken(skipWhitespace bool) (Token, bool) {
	pos, cur, ok := t.s.Pos(), t.cur, t.ok
	tok, found := t.Advance(skipWhitespace)
	t.s.rewind(pos)
	t.cur, t.ok = cur, ok
	return tok, found
}

// Is reports whether there is a current token of one of the kinds in mask.
func (t *Tokenizer) Is(mask Kind) bool {
	return t.ok && t.cur.Kind.Is(mask)
}

// Expect asserts that current token is one of the kinds in mask.
func (t *Tokenizer) Expect(mask Kind) (Token, error) {
	if !t.ok {
		return t.cur, newEOFError(t.labels.Describe(mask))
	}
	if !t.cur.Kind.Is(mask) {
		return t.cur, newSyntaxError(t.s.Source(), t.cur, t.labels.Describe(mask))
	}
	return t.cur, nil
}

// Unexpected returns error describing current token (or end of input) as not
// fitting the grammar.
func (t *Tokenizer) Unexpected() error {
	if !t.ok {
		return ErrUnexpectedEOF
	}
	return newSyntaxError(t.s.Source(), t.cur, nil)
}
