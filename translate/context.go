// Package translate compiles marked up components of a document tree into
// UI framework source code and typed prop declarations.
//
// All emitters thread a Context value through every call. Context methods
// never modify the receiver, they return an updated copy.
package translate

import (
	"maps"
	"slices"
	"strings"

	"spritec/ast"
)

const indent = "  "

// Context is translation state: output buffer with indentation tracking,
// component scope used for prop name uniquification and accumulated
// warnings.
type Context struct {
	Buffer       string
	Depth        int
	NewLine      bool
	CurrentScope string
	// ScopedLabelRefs maps scope to lower cased label to distinct nodes
	// seen with that label in order of appearance.
	ScopedLabelRefs map[string]map[string][]ast.Node
	Warnings        []error
}

// NewContext returns empty context positioned at the start of a line.
func NewContext() Context {
	return Context{NewLine: true, ScopedLabelRefs: map[string]map[string][]ast.Node{}}
}

// AddBuffer appends s verbatim.
func (c Context) AddBuffer(s string) Context {
	c.Buffer += s
	c.NewLine = strings.HasSuffix(c.Buffer, "\n")
	return c
}

// AddLineItem appends s, indenting it first when output is at the start of
// a line.
func (c Context) AddLineItem(s string) Context {
	if c.NewLine {
		s = strings.Repeat(indent, c.Depth) + s
	}
	return c.AddBuffer(s)
}

// AddLine appends s terminated with newline.
func (c Context) AddLine(s string) Context {
	return c.AddLineItem(s + "\n")
}

// AddOpenTag appends s and increases depth for the lines that follow.
func (c Context) AddOpenTag(s string) Context {
	c = c.AddLineItem(s)
	c.Depth++
	return c
}

// AddCloseTag decreases depth and appends s at the new depth.
func (c Context) AddCloseTag(s string) Context {
	c.Depth = max(c.Depth-1, 0)
	return c.AddLineItem(s)
}

// SetCurrentScope switches scope used for label uniquification.
func (c Context) SetCurrentScope(scope string) Context {
	c.CurrentScope = scope
	return c
}

// AddScopedLabel records node under label in the current scope. Recording
// the same node twice has no effect.
func (c Context) AddScopedLabel(label string, n ast.Node) Context {
	label = strings.ToLower(label)
	labels := c.ScopedLabelRefs[c.CurrentScope]
	if slices.Contains(labels[label], n) {
		return c
	}

	labels = maps.Clone(labels)
	if labels == nil {
		labels = map[string][]ast.Node{}
	}
	labels[label] = append(slices.Clip(labels[label]), n)

	refs := maps.Clone(c.ScopedLabelRefs)
	if refs == nil {
		refs = map[string]map[string][]ast.Node{}
	}
	refs[c.CurrentScope] = labels
	c.ScopedLabelRefs = refs
	return c
}

// ScopedLabelIndex returns position of node among distinct nodes recorded
// with label in the current scope, -1 when node was never recorded.
func (c Context) ScopedLabelIndex(label string, n ast.Node) int {
	return slices.Index(c.ScopedLabelRefs[c.CurrentScope][strings.ToLower(label)], n)
}

// AddWarning records non fatal diagnostic.
func (c Context) AddWarning(err error) Context {
	c.Warnings = append(slices.Clip(c.Warnings), err)
	return c
}
