// Package markup parses the well-formed markup subset produced by the site
// export into an ast tree.
//
// There is no void element table and no entity decoding: every element is
// either self closed with "/>" or explicitly closed, attribute values are
// kept exactly as written between quotes.
package markup

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"spritec/ast"
	"spritec/scan"
)

const (
	kindLessThan scan.Kind = 1 << (iota + 1)
	kindGreaterThan
	kindEquals
	kindSingleQuote
	kindDoubleQuote
	kindColon
	kindWhitespace
	kindSlash
	kindStartCloseTag

	kindText  = scan.KindText
	kindQuote = kindSingleQuote | kindDoubleQuote
)

var labels = scan.Labels{
	kindLessThan:      "<",
	kindGreaterThan:   ">",
	kindEquals:        "=",
	kindSingleQuote:   "'",
	kindDoubleQuote:   `"`,
	kindColon:         ":",
	kindWhitespace:    "whitespace",
	kindSlash:         "/",
	kindStartCloseTag: "</",
	kindText:          "text",
}

var (
	textRun      = regexp.MustCompile(`^[^<>='":\s/]+`)
	htmlComments = regexp.MustCompile(`<!--[\s\S]*?-->`)
	declarations = regexp.MustCompile(`<![^>]*>`)
)

func classify(s *scan.Scanner, first rune, offset int) scan.Token {
	switch first {
	case '<':
		if s.Peek(1) == "/" {
			s.ConsumeChar()
			return scan.Token{Kind: kindStartCloseTag, Text: "</", Offset: offset}
		}
		return scan.Token{Kind: kindLessThan, Text: "<", Offset: offset}
	case '>':
		return scan.Token{Kind: kindGreaterThan, Text: ">", Offset: offset}
	case '=':
		return scan.Token{Kind: kindEquals, Text: "=", Offset: offset}
	case '\'':
		return scan.Token{Kind: kindSingleQuote, Text: "'", Offset: offset}
	case '"':
		return scan.Token{Kind: kindDoubleQuote, Text: `"`, Offset: offset}
	case ':':
		return scan.Token{Kind: kindColon, Text: ":", Offset: offset}
	case '/':
		return scan.Token{Kind: kindSlash, Text: "/", Offset: offset}
	}
	s.ConsumePattern(textRun)
	return scan.Token{Kind: kindText, Text: s.Source()[offset:s.Pos()], Offset: offset}
}

// StripComments removes comments and other "<!...>" constructs such as
// doctype declarations.
func StripComments(src string) string {
	return declarations.ReplaceAllString(htmlComments.ReplaceAllString(src, ""), "")
}

// Parser parses markup text into ast nodes.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new markup parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("markup-parser")}
}

// Parse removes comments from data and parses the rest. The optional source
// parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) (ast.Node, error) {
	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing markup", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}
	return p.ParseString(StripComments(string(data)))
}

// ParseString parses markup text as is. Single top level node is returned
// directly, otherwise top level nodes are wrapped into *ast.Fragment.
func (p *Parser) ParseString(src string) (ast.Node, error) {
	st := &state{tz: scan.NewTokenizer(src, classify, kindWhitespace, labels)}

	children, err := st.childNodes()
	if err != nil {
		return nil, err
	}
	if !st.tz.Ended() {
		// stray closing tag
		return nil, st.tz.Unexpected()
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return ast.NewFragment(children...), nil
}

type state struct {
	tz *scan.Tokenizer
}

// childNodes parses nodes until closing tag or end of input. Whitespace
// between nodes is insignificant.
func (st *state) childNodes() ([]ast.Node, error) {
	children := []ast.Node{}
	st.tz.EatWhitespace()
	for !st.tz.Ended() && !st.tz.Is(kindStartCloseTag) {
		var (
			child ast.Node
			err   error
		)
		if st.tz.Is(kindLessThan) {
			child, err = st.element()
		} else {
			child = st.text()
		}
		if err != nil {
			return nil, err
		}
		children = append(children, child)
		st.tz.EatWhitespace()
	}
	return children, nil
}

// text accumulates everything up to the next tag.
func (st *state) text() *ast.Text {
	tok, _ := st.tz.Current()
	var b strings.Builder
	b.WriteString(tok.Text)
	for {
		tok, ok := st.tz.Advance(false)
		if !ok || tok.Kind.Is(kindLessThan|kindStartCloseTag) {
			break
		}
		b.WriteString(tok.Text)
	}
	return &ast.Text{Value: b.String()}
}

func (st *state) element() (*ast.Element, error) {
	st.tz.Advance(true)
	tagName, err := st.name()
	if err != nil {
		return nil, err
	}
	attrs, err := st.attributes()
	if err != nil {
		return nil, err
	}

	el := &ast.Element{TagName: tagName, Attributes: attrs, Children: []ast.Node{}}
	if st.tz.Is(kindSlash) {
		st.tz.Advance(false)
		if _, err := st.tz.Expect(kindGreaterThan); err != nil {
			return nil, err
		}
		st.tz.Advance(false)
		return el, nil
	}
	st.tz.Advance(false)

	if el.Children, err = st.childNodes(); err != nil {
		return nil, err
	}

	// closing tag name is not compared with the opening one
	if _, err := st.tz.Expect(kindStartCloseTag); err != nil {
		return nil, err
	}
	st.tz.Advance(true)
	if _, err := st.name(); err != nil {
		return nil, err
	}
	st.tz.Advance(true)
	if _, err := st.tz.Expect(kindGreaterThan); err != nil {
		return nil, err
	}
	st.tz.Advance(false)
	return el, nil
}

// name reads tag or attribute name starting at current token, namespaced
// names ("xlink:href") are joined. Current token is left on the last part.
func (st *state) name() (string, error) {
	tok, err := st.tz.Expect(kindText)
	if err != nil {
		return "", err
	}
	name := tok.Text
	for {
		next, ok := st.tz.PeekToken(false)
		if !ok || next.Kind != kindColon {
			return name, nil
		}
		st.tz.Advance(false)
		st.tz.Advance(false)
		part, err := st.tz.Expect(kindText)
		if err != nil {
			return "", err
		}
		name += ":" + part.Text
	}
}

// attributes parses attribute list after tag name. On success current token
// is either '>' or '/'.
func (st *state) attributes() ([]ast.Attribute, error) {
	attrs := []ast.Attribute{}
	for {
		tok, ok := st.tz.Advance(true)
		if !ok || tok.Kind.Is(kindGreaterThan|kindSlash) {
			break
		}
		attr, err := st.attribute()
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}
	if _, err := st.tz.Expect(kindGreaterThan | kindSlash); err != nil {
		return nil, err
	}
	return attrs, nil
}

func (st *state) attribute() (ast.Attribute, error) {
	key, err := st.name()
	if err != nil {
		return ast.Attribute{}, err
	}
	if next, ok := st.tz.PeekToken(true); !ok || next.Kind != kindEquals {
		return ast.Attribute{Key: key}, nil
	}
	st.tz.Advance(true)
	st.tz.Advance(true)
	value, err := st.quoted()
	if err != nil {
		return ast.Attribute{}, err
	}
	return ast.Attribute{Key: key, Value: value, HasValue: true}, nil
}

// quoted reads quoted string, either kind of quote terminates it.
func (st *state) quoted() (string, error) {
	if _, err := st.tz.Expect(kindQuote); err != nil {
		return "", err
	}
	var b strings.Builder
	for {
		tok, ok := st.tz.Advance(false)
		if !ok || tok.Kind.Is(kindQuote) {
			break
		}
		b.WriteString(tok.Text)
	}
	if _, err := st.tz.Expect(kindQuote); err != nil {
		return "", err
	}
	return b.String(), nil
}
