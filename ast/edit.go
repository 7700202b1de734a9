package ast

import (
	"slices"
)

// WithChildren returns shallow copy of n with children replaced. Text nodes
// cannot have children and are returned as is.
func WithChildren(n Node, children []Node) Node {
	switch v := n.(type) {
	case *Element:
		c := *v
		c.Children = children
		return &c
	case *StyleElement:
		c := *v
		c.Children = children
		return &c
	case *Fragment:
		return &Fragment{Children: children}
	}
	return n
}

// AppendChild returns copy of parent with child added after existing children.
func AppendChild(parent, child Node) Node {
	existing := Children(parent)
	children := make([]Node, 0, len(existing)+1)
	children = append(children, existing...)
	return WithChildren(parent, append(children, child))
}

// PrependChild returns copy of parent with child added before existing
// children.
func PrependChild(parent, child Node) Node {
	existing := Children(parent)
	children := make([]Node, 0, len(existing)+1)
	children = append(children, child)
	return WithChildren(parent, append(children, existing...))
}

// Prune removes every descendant of n for which keep returns false, together
// with its subtree. n itself is always kept. Subtrees that do not change are
// shared with the original tree, when nothing is removed n is returned.
func Prune(n Node, keep func(Node) bool) Node {
	children := Children(n)
	if len(children) == 0 {
		return n
	}

	var (
		pruned  []Node
		changed bool
	)
	for i, child := range children {
		if !keep(child) {
			if !changed {
				pruned = slices.Clone(children[:i])
				changed = true
			}
			continue
		}
		next := Prune(child, keep)
		if next != child && !changed {
			pruned = slices.Clone(children[:i])
			changed = true
		}
		if changed {
			pruned = append(pruned, next)
		}
	}
	if !changed {
		return n
	}
	return WithChildren(n, pruned)
}
