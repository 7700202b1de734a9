package css

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"spritec/scan"
)

const (
	kindOpenBrace scan.Kind = 1 << (iota + 1)
	kindCloseBrace
	kindColon
	kindSemicolon
	kindWhitespace

	kindText = scan.KindText
)

var labels = scan.Labels{
	kindOpenBrace:  "{",
	kindCloseBrace: "}",
	kindColon:      ":",
	kindSemicolon:  ";",
	kindWhitespace: "whitespace",
	kindText:       "text",
}

var (
	textRun  = regexp.MustCompile(`^[^{:;}\s]+`)
	comments = regexp.MustCompile(`/\*[\s\S]*?\*/`)
)

func classify(s *scan.Scanner, first rune, offset int) scan.Token {
	switch first {
	case '{':
		return scan.Token{Kind: kindOpenBrace, Text: "{", Offset: offset}
	case '}':
		return scan.Token{Kind: kindCloseBrace, Text: "}", Offset: offset}
	case ':':
		return scan.Token{Kind: kindColon, Text: ":", Offset: offset}
	case ';':
		return scan.Token{Kind: kindSemicolon, Text: ";", Offset: offset}
	}
	s.ConsumePattern(textRun)
	return scan.Token{Kind: kindText, Text: s.Source()[offset:s.Pos()], Offset: offset}
}

// UnknownAtRuleError is returned for at-rules the parser does not support.
type UnknownAtRuleError struct {
	Name  string
	Token scan.Token
}

func (e *UnknownAtRuleError) Error() string {
	return fmt.Sprintf("unknown at-rule %q at offset %d", e.Name, e.Token.Offset)
}

// StripComments removes all /* ... */ comments.
func StripComments(src string) string {
	return comments.ReplaceAllString(src, "")
}

// Parser parses CSS stylesheets into structured rules.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse removes comments from CSS text and parses it into a StyleSheet.
// The optional source parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) (*StyleSheet, error) {
	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}
	sheet, err := p.ParseString(StripComments(string(data)))
	if err != nil {
		return nil, err
	}
	p.log.Debug("Parsed CSS", zap.Int("rules", len(sheet.Rules)))
	return sheet, nil
}

// ParseString parses stylesheet text as is. Comments are not allowed.
func (p *Parser) ParseString(src string) (*StyleSheet, error) {
	st := &state{tz: scan.NewTokenizer(src, classify, kindWhitespace, labels), log: p.log}
	rules, err := st.rules(false)
	if err != nil {
		return nil, err
	}
	return &StyleSheet{Rules: rules}, nil
}

// state holds tokenizer for a single parse call.
type state struct {
	tz  *scan.Tokenizer
	log *zap.Logger
}

// rules parses a rule list. Nested lists stop in front of closing brace and
// leave it to the caller.
func (st *state) rules(nested bool) ([]Rule, error) {
	var rules []Rule
	for {
		st.tz.EatWhitespace()
		if st.tz.Ended() && !nested {
			return rules, nil
		}
		if nested && st.tz.Is(kindCloseBrace) {
			return rules, nil
		}
		tok, err := st.tz.Expect(kindText)
		if err != nil {
			return nil, err
		}

		var rule Rule
		if strings.HasPrefix(tok.Text, "@") {
			rule, err = st.atRule(tok)
		} else {
			rule, err = st.styleRule()
		}
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
}

func (st *state) atRule(tok scan.Token) (Rule, error) {
	switch tok.Text {
	case "@font-face":
		// anything between keyword and block is ignored
		if _, err := st.textUntil(kindOpenBrace); err != nil {
			return nil, err
		}
		decls, err := st.block()
		if err != nil {
			return nil, err
		}
		return &FontFaceRule{Declarations: decls}, nil

	case "@media":
		st.tz.Advance(false)
		cond, err := st.textUntil(kindOpenBrace)
		if err != nil {
			return nil, err
		}
		st.tz.Advance(false)
		rules, err := st.rules(true)
		if err != nil {
			return nil, err
		}
		if err := st.closeBlock(); err != nil {
			return nil, err
		}
		return &MediaRule{ConditionText: cond, Rules: rules}, nil

	case "@keyframes":
		st.tz.Advance(false)
		name, err := st.textUntil(kindOpenBrace)
		if err != nil {
			return nil, err
		}
		st.tz.Advance(false)
		if err := st.keyframes(name); err != nil {
			return nil, err
		}
		return &KeyFramesRule{Name: name}, nil
	}
	return nil, &UnknownAtRuleError{Name: tok.Text, Token: tok}
}

func (st *state) styleRule() (Rule, error) {
	selector, err := st.textUntil(kindOpenBrace)
	if err != nil {
		return nil, err
	}
	decls, err := st.block()
	if err != nil {
		return nil, err
	}
	return &StyleRule{Selector: selector, Declarations: decls}, nil
}

// keyframes validates keyframe list and drops it.
func (st *state) keyframes(name string) error {
	var frames int
	for {
		st.tz.EatWhitespace()
		if st.tz.Is(kindCloseBrace) {
			break
		}
		if _, err := st.tz.Expect(kindText); err != nil {
			return err
		}
		if _, err := st.textUntil(kindOpenBrace); err != nil {
			return err
		}
		if _, err := st.block(); err != nil {
			return err
		}
		frames++
	}
	st.log.Debug("Dropping keyframes body", zap.String("name", name), zap.Int("frames", frames))
	return st.closeBlock()
}

// block parses "{ declarations }" with current token on the opening brace.
func (st *state) block() ([]Declaration, error) {
	if _, err := st.tz.Expect(kindOpenBrace); err != nil {
		return nil, err
	}
	st.tz.Advance(false)
	decls, err := st.declarations()
	if err != nil {
		return nil, err
	}
	return decls, st.closeBlock()
}

func (st *state) closeBlock() error {
	if _, err := st.tz.Expect(kindCloseBrace); err != nil {
		return err
	}
	st.tz.Advance(false)
	return nil
}

// declarations parses declaration list up to (not including) closing brace.
func (st *state) declarations() ([]Declaration, error) {
	var decls []Declaration
	for {
		st.tz.EatWhitespace()
		if st.tz.Is(kindCloseBrace) {
			return decls, nil
		}
		if _, err := st.tz.Expect(kindText); err != nil {
			return nil, err
		}
		name, err := st.textUntil(kindColon | kindSemicolon | kindOpenBrace | kindCloseBrace)
		if err != nil {
			return nil, err
		}
		if _, err := st.tz.Expect(kindColon); err != nil {
			return nil, err
		}
		st.tz.Advance(false)

		value, err := st.textUntil(kindSemicolon | kindOpenBrace | kindCloseBrace)
		if err != nil {
			return nil, err
		}
		tok, err := st.tz.Expect(kindSemicolon | kindCloseBrace)
		if err != nil {
			return nil, err
		}
		if tok.Kind == kindSemicolon {
			st.tz.Advance(false)
		}
		decls = append(decls, Declaration{Name: name, Value: value})
	}
}

// textUntil concatenates tokens until one of the kinds in mask becomes
// current and returns trimmed result. Running out of input is an error.
func (st *state) textUntil(mask scan.Kind) (string, error) {
	var b strings.Builder
	for {
		tok, ok := st.tz.Current()
		if !ok {
			_, err := st.tz.Expect(mask)
			return "", err
		}
		if tok.Kind.Is(mask) {
			return strings.TrimSpace(b.String()), nil
		}
		b.WriteString(tok.Text)
		st.tz.Advance(false)
	}
}
