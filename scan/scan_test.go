package scan

import (
	"errors"
	"regexp"
	"testing"
)

const (
	kindOpen Kind = 1 << (iota + 1)
	kindClose
	kindSpace
)

var (
	testLabels = Labels{kindOpen: "(", kindClose: ")", kindSpace: "whitespace", KindText: "text"}
	testWord   = regexp.MustCompile(`^[^()\s]+`)
)

func classifyTest(s *Scanner, first rune, offset int) Token {
	switch first {
	case '(':
		return Token{Kind: kindOpen, Text: "(", Offset: offset}
	case ')':
		return Token{Kind: kindClose, Text: ")", Offset: offset}
	}
	rest, _ := s.ConsumePattern(testWord)
	return Token{Kind: KindText, Text: string(first) + rest, Offset: offset}
}

func newTestTokenizer(src string) *Tokenizer {
	return NewTokenizer(src, classifyTest, kindSpace, testLabels)
}

func TestScanner_ConsumePattern(t *testing.T) {
	s := NewScanner("abc123 rest")

	if _, ok := s.ConsumePattern(regexp.MustCompile(`^\d+`)); ok {
		t.Fatal("expected no match at current position")
	}
	if s.Pos() != 0 {
		t.Fatalf("position moved on failed match: %d", s.Pos())
	}

	// match exists later in the input but not at cursor
	if _, ok := s.ConsumePattern(regexp.MustCompile(`\d+`)); ok {
		t.Fatal("unanchored match away from cursor must be rejected")
	}

	m, ok := s.ConsumePattern(regexp.MustCompile(`^[a-z]+`))
	if !ok || m != "abc" {
		t.Fatalf("got %q/%v, want abc", m, ok)
	}
	if s.Pos() != 3 {
		t.Errorf("expected position 3, got %d", s.Pos())
	}
}

func TestScanner_ConsumeCharAndPeek(t *testing.T) {
	s := NewScanner("ÿx")

	if got := s.Peek(5); got != "ÿx" {
		t.Errorf("Peek(5) = %q", got)
	}
	if s.Pos() != 0 {
		t.Fatal("peek must not advance")
	}

	r, ok := s.ConsumeChar()
	if !ok || r != 'ÿ' {
		t.Fatalf("got %q/%v", r, ok)
	}
	if got := s.Peek(1); got != "x" {
		t.Errorf("Peek(1) = %q", got)
	}
	s.ConsumeChar()
	if !s.AtEnd() {
		t.Error("expected end of input")
	}
	if _, ok := s.ConsumeChar(); ok {
		t.Error("ConsumeChar at end must fail")
	}
}

func TestKind_Is(t *testing.T) {
	mask := kindOpen | KindText
	if !kindOpen.Is(mask) || !KindText.Is(mask) {
		t.Error("members of mask not recognized")
	}
	if kindClose.Is(mask) {
		t.Error("non member recognized")
	}
	if got := testLabels.Describe(KindText | kindOpen | kindClose); len(got) != 3 || got[0] != "(" || got[2] != "text" {
		t.Errorf("Describe = %v", got)
	}
}

func TestTokenizer_Sequence(t *testing.T) {
	tz := newTestTokenizer("(ab  cd)")

	want := []Token{
		{Kind: kindOpen, Text: "(", Offset: 0},
		{Kind: KindText, Text: "ab", Offset: 1},
		{Kind: kindSpace, Text: "  ", Offset: 3},
		{Kind: KindText, Text: "cd", Offset: 5},
		{Kind: kindClose, Text: ")", Offset: 7},
	}
	for i, w := range want {
		tok, ok := tz.Current()
		if !ok {
			t.Fatalf("token %d: unexpected end", i)
		}
		if tok != w {
			t.Errorf("token %d: got %+v, want %+v", i, tok, w)
		}
		tz.Advance(false)
	}
	if !tz.Ended() {
		t.Error("expected tokenizer to be exhausted")
	}
}

func TestTokenizer_SkipWhitespace(t *testing.T) {
	tz := newTestTokenizer("a \n\t b")
	tok, ok := tz.Advance(true)
	if !ok || tok.Text != "b" {
		t.Fatalf("got %+v/%v, want b", tok, ok)
	}

	tz = newTestTokenizer(" a")
	tz.EatWhitespace()
	if tok, _ := tz.Current(); tok.Text != "a" {
		t.Errorf("EatWhitespace left %+v", tok)
	}
	tz.EatWhitespace()
	if tok, _ := tz.Current(); tok.Text != "a" {
		t.Errorf("EatWhitespace on text must be a no-op, got %+v", tok)
	}
}

func TestTokenizer_PeekIsNonCommitting(t *testing.T) {
	tz := newTestTokenizer("a ( b")

	peeked, ok := tz.PeekToken(true)
	if !ok || peeked.Kind != kindOpen {
		t.Fatalf("peeked %+v", peeked)
	}
	if cur, _ := tz.Current(); cur.Text != "a" {
		t.Errorf("current changed by peek: %+v", cur)
	}
	next, _ := tz.Advance(false)
	if next.Kind != kindSpace {
		t.Errorf("peek moved the cursor, next is %+v", next)
	}
}

func TestTokenizer_Expect(t *testing.T) {
	tz := newTestTokenizer("a\n  )")
	if _, err := tz.Expect(KindText); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tz.Advance(true)
	_, err := tz.Expect(kindOpen | KindText)
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("expected SyntaxError, got %v", err)
	}
	if se.Token.Text != ")" || se.Line != 2 || se.Column != 3 {
		t.Errorf("got token %q at %d:%d", se.Token.Text, se.Line, se.Column)
	}
	if len(se.Expected) != 2 || se.Expected[0] != "(" || se.Expected[1] != "text" {
		t.Errorf("expected labels %v", se.Expected)
	}

	tz.Advance(false)
	if _, err := tz.Expect(kindClose); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("expected end of input error, got %v", err)
	}
	if err := tz.Unexpected(); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("expected end of input error, got %v", err)
	}
}

func TestTokenizer_EmptyInput(t *testing.T) {
	tz := newTestTokenizer("")
	if !tz.Ended() {
		t.Fatal("empty input must start exhausted")
	}
	if _, ok := tz.PeekToken(false); ok {
		t.Error("peek past end must fail")
	}
}
