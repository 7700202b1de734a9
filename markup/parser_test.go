package markup_test

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"spritec/ast"
	"spritec/markup"
	"spritec/scan"
)

func parse(t *testing.T, src string) ast.Node {
	t.Helper()
	node, err := markup.NewParser(zap.NewNop()).Parse([]byte(src))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return node
}

func TestParser_SingleNodeIsNotWrapped(t *testing.T) {
	node := parse(t, `  <div class="a">hello</div>  `)

	el, ok := node.(*ast.Element)
	if !ok {
		t.Fatalf("expected element, got %T", node)
	}
	if el.TagName != "div" || el.AttributeValue("class") != "a" {
		t.Errorf("unexpected element %+v", el)
	}
	if len(el.Children) != 1 || el.Children[0].(*ast.Text).Value != "hello" {
		t.Errorf("unexpected children %+v", el.Children)
	}
}

func TestParser_FragmentWrapping(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		children int
	}{
		{name: "empty", src: "", children: 0},
		{name: "whitespace only", src: " \n\t ", children: 0},
		{name: "two elements", src: `<a></a><b></b>`, children: 2},
		{name: "text and element", src: `hi <b></b>`, children: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frag, ok := parse(t, tt.src).(*ast.Fragment)
			if !ok {
				t.Fatal("expected fragment")
			}
			if len(frag.Children) != tt.children {
				t.Errorf("expected %d children, got %d", tt.children, len(frag.Children))
			}
		})
	}
}

func TestParser_SelfClosing(t *testing.T) {
	frag := parse(t, `<img src="a.png"/><div /><br/>`).(*ast.Fragment)

	if len(frag.Children) != 3 {
		t.Fatalf("expected 3 children, got %d", len(frag.Children))
	}
	for _, c := range frag.Children {
		el := c.(*ast.Element)
		if el.Children == nil || len(el.Children) != 0 {
			t.Errorf("%s: expected empty children, got %+v", el.TagName, el.Children)
		}
	}
	if v := frag.Children[0].(*ast.Element).AttributeValue("src"); v != "a.png" {
		t.Errorf("unexpected src %q", v)
	}
}

func TestParser_Attributes(t *testing.T) {
	el := parse(t, `<input type = "text" disabled data-x='it"></input>`).(*ast.Element)

	want := []ast.Attribute{
		{Key: "type", Value: "text", HasValue: true},
		{Key: "disabled"},
		// either quote terminates the value
		{Key: "data-x", Value: "it", HasValue: true},
	}
	if len(el.Attributes) != len(want) {
		t.Fatalf("expected %d attributes, got %+v", len(want), el.Attributes)
	}
	for i, w := range want {
		if el.Attributes[i] != w {
			t.Errorf("attribute %d: got %+v, want %+v", i, el.Attributes[i], w)
		}
	}
}

func TestParser_AttributeValues(t *testing.T) {
	el := parse(t, `<a href="http://x.test/a?b=c" xlink:href="#id" empty="" title='single'>x</a>`).(*ast.Element)

	want := []ast.Attribute{
		{Key: "href", Value: "http://x.test/a?b=c", HasValue: true},
		{Key: "xlink:href", Value: "#id", HasValue: true},
		{Key: "empty", Value: "", HasValue: true},
		{Key: "title", Value: "single", HasValue: true},
	}
	if len(el.Attributes) != len(want) {
		t.Fatalf("expected %d attributes, got %+v", len(want), el.Attributes)
	}
	for i, w := range want {
		if el.Attributes[i] != w {
			t.Errorf("attribute %d: got %+v, want %+v", i, el.Attributes[i], w)
		}
	}
}

func TestParser_DuplicateAttributesKept(t *testing.T) {
	el := parse(t, `<a x="1" x="2"></a>`).(*ast.Element)
	if len(el.Attributes) != 2 {
		t.Errorf("expected both attributes, got %+v", el.Attributes)
	}
}

func TestParser_ClosingTagNameNotChecked(t *testing.T) {
	el := parse(t, `<div><span>a</div></p >`).(*ast.Element)
	if el.TagName != "div" || el.Children[0].(*ast.Element).TagName != "span" {
		t.Errorf("unexpected tree %s", ast.Dump(el))
	}
}

func TestParser_TextContent(t *testing.T) {
	el := parse(t, "<p>\n  Price: 5 = \"five\" / it's\n  <b>bold</b> tail </p>").(*ast.Element)

	if len(el.Children) != 3 {
		t.Fatalf("expected 3 children, got %s", ast.Dump(el))
	}
	if v := el.Children[0].(*ast.Text).Value; v != "Price: 5 = \"five\" / it's\n  " {
		t.Errorf("unexpected text %q", v)
	}
	if v := el.Children[2].(*ast.Text).Value; v != "tail " {
		t.Errorf("unexpected tail %q", v)
	}
}

func TestParser_TextMayStartWithPunctuation(t *testing.T) {
	if v := parse(t, `> = '`).(*ast.Text).Value; v != `> = '` {
		t.Errorf("unexpected text %q", v)
	}
	el := parse(t, `<p>= x / "y"</p>`).(*ast.Element)
	if v := el.Children[0].(*ast.Text).Value; v != `= x / "y"` {
		t.Errorf("unexpected text %q", v)
	}
}

func TestParser_InvalidUTF8TextIsKept(t *testing.T) {
	el := parse(t, "<p>\xe9t\xe9</p>").(*ast.Element)
	if v := el.Children[0].(*ast.Text).Value; v != "\xe9t\xe9" {
		t.Errorf("text changed: %q", v)
	}
}

func TestParser_CommentsAndDoctype(t *testing.T) {
	node := parse(t, "<!DOCTYPE html><!-- a <b> comment -->\n<html><body><!--x-->ok</body></html>")

	html, ok := node.(*ast.Element)
	if !ok || html.TagName != "html" {
		t.Fatalf("unexpected root %s", ast.Dump(node))
	}
	body := ast.FindElementByTagName(html, "body")
	if body == nil || len(body.Children) != 1 || body.Children[0].(*ast.Text).Value != "ok" {
		t.Errorf("unexpected body %s", ast.Dump(html))
	}
}

func TestParser_RoundTrip(t *testing.T) {
	tests := []string{
		`<div class="a b" data-component="Card"><h1 data-layer="Title">Hello world</h1><img src="x.png" alt></img></div>`,
		`<ul><li>one</li><li>two</li></ul><p>tail</p>`,
		`<svg viewBox="0 0 10 10"><path d="M0 0L10 10"></path></svg>`,
	}

	p := markup.NewParser(nil)
	for _, src := range tests {
		node, err := p.ParseString(src)
		if err != nil {
			t.Fatalf("%s: %v", src, err)
		}
		if got := ast.Render(node); got != src {
			t.Errorf("round trip mismatch:\ngot:  %s\nwant: %s", got, src)
		}
	}
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		eof  bool
	}{
		{name: "unclosed element", src: `<div>`, eof: true},
		{name: "unclosed nested", src: `<div><span></span>`, eof: true},
		{name: "unterminated tag", src: `<div class="a"`, eof: true},
		{name: "unterminated value", src: `<div class="a>`, eof: true},
		{name: "missing tag name", src: `< >`},
		{name: "unquoted value", src: `<div a=b></div>`},
		{name: "stray closing tag", src: `<a></a></b>`},
		{name: "bad self closing", src: `<a/ >`},
	}

	p := markup.NewParser(zap.NewNop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := p.Parse([]byte(tt.src))
			if err == nil {
				t.Fatalf("expected error, got %s", ast.Dump(node))
			}
			if node != nil {
				t.Error("partial tree returned with error")
			}
			if got := errors.Is(err, scan.ErrUnexpectedEOF); got != tt.eof {
				t.Errorf("unexpected end of input = %v, want %v (%v)", got, tt.eof, err)
			}
			var se *scan.SyntaxError
			if !tt.eof && !errors.As(err, &se) {
				t.Errorf("expected syntax error, got %T", err)
			}
		})
	}
}

func TestParser_SyntaxErrorLocation(t *testing.T) {
	_, err := markup.NewParser(nil).ParseString("<div>\n  <p a=1></p>\n</div>")

	var se *scan.SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("expected syntax error, got %v", err)
	}
	if se.Token.Text != "1" || se.Line != 2 || se.Column != 8 {
		t.Errorf("got %q at %d:%d", se.Token.Text, se.Line, se.Column)
	}
}
