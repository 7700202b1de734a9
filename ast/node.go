// Package ast defines the immutable markup tree produced by the markup
// parser and the helpers used to query and derive trees.
//
// Nodes are never modified after construction. Edits (AppendChild,
// PrependChild, Prune) return new parents and share every untouched
// subtree with the original.
package ast

import (
	"spritec/css"
)

// Node is one of *Element, *Text, *Fragment or *StyleElement.
type Node interface {
	node()
}

// Attribute is a single element attribute. HasValue is false for valueless
// attributes such as <input disabled>.
type Attribute struct {
	Key      string
	Value    string
	HasValue bool
}

// Element is a markup element. Attributes keep source order, duplicated
// keys are not rejected.
type Element struct {
	TagName    string
	Attributes []Attribute
	Children   []Node
}

// Text is a run of character data.
type Text struct {
	Value string
}

// Fragment is an anonymous list of nodes.
type Fragment struct {
	Children []Node
}

// StyleElement is a <style> element carrying its parsed stylesheet. It is
// synthesized when stylesheets are inlined into a document.
type StyleElement struct {
	Element
	Sheet *css.StyleSheet
}

func (*Element) node()      {}
func (*Text) node()         {}
func (*Fragment) node()     {}
func (*StyleElement) node() {}

// NewFragment creates fragment with given children.
func NewFragment(children ...Node) *Fragment {
	return &Fragment{Children: children}
}

// NewStyleElement creates style element for stylesheet.
func NewStyleElement(sheet *css.StyleSheet) *StyleElement {
	return &StyleElement{Element: Element{TagName: "style"}, Sheet: sheet}
}

// AsElement returns element part of n when n is *Element or *StyleElement.
func AsElement(n Node) (*Element, bool) {
	switch v := n.(type) {
	case *Element:
		return v, true
	case *StyleElement:
		return &v.Element, true
	}
	return nil, false
}

// IsElement reports whether n is an element of any kind.
func IsElement(n Node) bool {
	_, ok := AsElement(n)
	return ok
}

// Children returns child list of n, nil for text nodes.
func Children(n Node) []Node {
	switch v := n.(type) {
	case *Element:
		return v.Children
	case *StyleElement:
		return v.Children
	case *Fragment:
		return v.Children
	}
	return nil
}

// Attribute returns first attribute with given key.
func (e *Element) Attribute(key string) (Attribute, bool) {
	for _, a := range e.Attributes {
		if a.Key == key {
			return a, true
		}
	}
	return Attribute{}, false
}

// AttributeValue returns value of the first attribute with given key or empty
// string.
func (e *Element) AttributeValue(key string) string {
	a, _ := e.Attribute(key)
	return a.Value
}

// HasAttribute reports whether element has an attribute with given key.
func (e *Element) HasAttribute(key string) bool {
	_, ok := e.Attribute(key)
	return ok
}

// IsStylesheetLink reports whether n is a <link> to a stylesheet.
func IsStylesheetLink(n Node) bool {
	el, ok := n.(*Element)
	if !ok || el.TagName != "link" {
		return false
	}
	return el.AttributeValue("rel") == "stylesheet" || el.AttributeValue("type") == "text/css"
}
