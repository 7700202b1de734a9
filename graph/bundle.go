package graph

import (
	"fmt"
	"strings"

	"golang.org/x/net/html/atom"

	"spritec/ast"
	"spritec/css"
	"spritec/markup"
)

// Bundle produces one self contained tree per markup resource in g (in URL
// order). The tree is a fragment holding children of the document body with
// all script elements removed, preceded by a style element for every linked
// stylesheet. Every stylesheet is prepended, so the style elements end up in
// reverse link order.
func Bundle(g Graph, mp *markup.Parser, cp *css.Parser) ([]*ast.Fragment, error) {
	docs := g.ByMimeType(MimeHTML)
	if len(docs) == 0 {
		return nil, ErrNoEntry
	}

	bundles := make([]*ast.Fragment, 0, len(docs))
	for _, doc := range docs {
		b, err := bundleDocument(g, doc, mp, cp)
		if err != nil {
			return nil, fmt.Errorf("unable to bundle %s: %w", doc.URL, err)
		}
		bundles = append(bundles, b)
	}
	return bundles, nil
}

func bundleDocument(g Graph, doc *Dependency, mp *markup.Parser, cp *css.Parser) (*ast.Fragment, error) {
	root, err := mp.Parse(doc.Content, doc.URL)
	if err != nil {
		return nil, err
	}
	root = ast.Prune(root, func(n ast.Node) bool {
		el, ok := ast.AsElement(n)
		return !ok || !strings.Contains(el.TagName, atom.Script.String())
	})

	body := ast.FindElementByTagName(root, atom.Body.String())
	if body == nil {
		return nil, fmt.Errorf("document has no %s element", atom.Body)
	}

	bundle := ast.NewFragment(body.Children...)
	for _, link := range ast.FilterElementsByTagName(root, atom.Link.String()) {
		if !ast.IsStylesheetLink(link) {
			continue
		}
		href := link.AttributeValue("href")
		target, ok := g.Lookup(doc, href)
		if !ok {
			return nil, fmt.Errorf("stylesheet %q is not in the graph", href)
		}
		sheet, err := cp.Parse(target.Content, target.URL)
		if err != nil {
			return nil, fmt.Errorf("unable to parse stylesheet %s: %w", target.URL, err)
		}
		bundle = ast.PrependChild(bundle, ast.NewStyleElement(sheet)).(*ast.Fragment)
	}
	return bundle, nil
}
