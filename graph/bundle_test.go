package graph_test

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"spritec/ast"
	"spritec/css"
	"spritec/graph"
	"spritec/markup"
)

func parsers() (*markup.Parser, *css.Parser) {
	return markup.NewParser(zap.NewNop()), css.NewParser(zap.NewNop())
}

func TestBundle(t *testing.T) {
	g := graph.Graph{
		"https://a.test/": {
			URL:      "https://a.test/",
			MimeType: graph.MimeHTML,
			Dependencies: map[string]string{
				"first.css":  "https://a.test/first.css",
				"second.css": "https://a.test/second.css",
			},
			Content: []byte(`<!DOCTYPE html>
<html>
  <head>
    <link href="first.css" rel="stylesheet" type="text/css"/>
    <link href="second.css" type="text/css"/>
    <link href="favicon.png" rel="icon"/>
    <script src="head.js"></script>
  </head>
  <body>
    <!-- generated -->
    <div class="first"><script>alert(1)</script><noscript>x</noscript>hi</div>
    <p>two</p>
    <script src="tail.js"></script>
  </body>
</html>`),
		},
		"https://a.test/first.css":  {URL: "https://a.test/first.css", MimeType: graph.MimeCSS, Content: []byte(`/* 1 */ .first { color: red }`)},
		"https://a.test/second.css": {URL: "https://a.test/second.css", MimeType: graph.MimeCSS, Content: []byte(`.second { color: blue }`)},
		"https://a.test/favicon.png": {URL: "https://a.test/favicon.png", MimeType: "image/png"},
	}

	mp, cp := parsers()
	bundles, err := graph.Bundle(g, mp, cp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bundles) != 1 {
		t.Fatalf("expected 1 bundle, got %d", len(bundles))
	}

	children := bundles[0].Children
	if len(children) != 4 {
		t.Fatalf("expected 4 children, got %s", ast.Dump(bundles[0]))
	}

	// stylesheets are prepended one by one: last link comes first
	for i, want := range []string{".second", ".first"} {
		style, ok := children[i].(*ast.StyleElement)
		if !ok {
			t.Fatalf("child %d: expected style element, got %T", i, children[i])
		}
		if style.TagName != "style" || style.Sheet.Rules[0].(*css.StyleRule).Selector != want {
			t.Errorf("child %d: unexpected stylesheet %s", i, style.Sheet)
		}
	}

	if got := ast.FilterElementsByTagName(bundles[0], "script"); len(got) != 0 {
		t.Errorf("scripts left in bundle: %d", len(got))
	}
	if got := ast.FilterElementsByTagName(bundles[0], "noscript"); len(got) != 0 {
		t.Errorf("noscript left in bundle: %d", len(got))
	}
	div := children[2].(*ast.Element)
	if len(div.Children) != 1 || div.Children[0].(*ast.Text).Value != "hi" {
		t.Errorf("unexpected div %s", ast.Dump(div))
	}
}

func TestBundle_Errors(t *testing.T) {
	mp, cp := parsers()

	if _, err := graph.Bundle(graph.Graph{}, mp, cp); !errors.Is(err, graph.ErrNoEntry) {
		t.Errorf("expected ErrNoEntry, got %v", err)
	}

	noBody := graph.Graph{"https://a.test/": {URL: "https://a.test/", MimeType: graph.MimeHTML, Content: []byte(`<div></div>`)}}
	if _, err := graph.Bundle(noBody, mp, cp); err == nil {
		t.Error("expected error for document without body")
	}

	missing := graph.Graph{"https://a.test/": {
		URL:      "https://a.test/",
		MimeType: graph.MimeHTML,
		Content:  []byte(`<html><head><link href="gone.css" type="text/css"></link></head><body></body></html>`),
	}}
	if _, err := graph.Bundle(missing, mp, cp); err == nil {
		t.Error("expected error for stylesheet missing from graph")
	}

	badCSS := graph.Graph{
		"https://a.test/": {
			URL:      "https://a.test/",
			MimeType: graph.MimeHTML,
			Content:  []byte(`<html><head><link href="https://a.test/s.css" type="text/css"/></head><body></body></html>`),
		},
		"https://a.test/s.css": {URL: "https://a.test/s.css", MimeType: graph.MimeCSS, Content: []byte(`@import "x.css";`)},
	}
	var ue *css.UnknownAtRuleError
	if _, err := graph.Bundle(badCSS, mp, cp); !errors.As(err, &ue) {
		t.Errorf("expected UnknownAtRuleError, got %v", err)
	}
}
