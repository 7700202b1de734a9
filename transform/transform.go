// Package transform is the boundary used by build tools: it turns a markup
// document into framework source and reports stylesheets the result
// depends on.
package transform

import (
	"fmt"

	"golang.org/x/net/html/atom"

	"spritec/ast"
	"spritec/common"
	"spritec/markup"
	"spritec/translate"
)

// Result of a single source transformation.
type Result struct {
	Code string
	// Dependencies lists href of every stylesheet link in document order,
	// build tools should watch them.
	Dependencies []string
	Warnings     []error
}

// Source parses raw markup and translates it into code for fw.
func Source(raw []byte, fw common.Framework, p *markup.Parser, opts ...translate.Option) (*Result, error) {
	if p == nil {
		p = markup.NewParser(nil)
	}

	root, err := p.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("unable to parse source: %w", err)
	}

	c, err := translate.Code(root, fw, opts...)
	if err != nil {
		return nil, err
	}

	res := &Result{Code: c.Buffer, Warnings: c.Warnings}
	for _, link := range ast.FilterElementsByTagName(root, atom.Link.String()) {
		if ast.IsStylesheetLink(link) {
			if href := link.AttributeValue("href"); href != "" {
				res.Dependencies = append(res.Dependencies, href)
			}
		}
	}
	return res, nil
}
