package ast

// Traverse calls fn for n and all of its descendants in pre-order. The walk
// stops as soon as fn returns false, in which case Traverse returns false.
func Traverse(n Node, fn func(Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, child := range Children(n) {
		if !Traverse(child, fn) {
			return false
		}
	}
	return true
}

// Inspect calls fn for n and its descendants in pre-order. When fn returns
// false children of the current node are skipped, siblings are still visited.
func Inspect(n Node, fn func(Node) bool) {
	if !fn(n) {
		return
	}
	for _, child := range Children(n) {
		Inspect(child, fn)
	}
}

// Find returns the first node in pre-order for which match is true.
func Find(n Node, match func(Node) bool) Node {
	var found Node
	Traverse(n, func(cur Node) bool {
		if match(cur) {
			found = cur
			return false
		}
		return true
	})
	return found
}

// Filter returns all nodes for which match is true in pre-order.
func Filter(n Node, match func(Node) bool) []Node {
	var found []Node
	Traverse(n, func(cur Node) bool {
		if match(cur) {
			found = append(found, cur)
		}
		return true
	})
	return found
}

// FindElementByTagName returns the first element with given tag name.
func FindElementByTagName(n Node, tag string) *Element {
	found := Find(n, tagMatcher(tag))
	if found == nil {
		return nil
	}
	el, _ := AsElement(found)
	return el
}

// FilterElementsByTagName returns all elements with given tag name.
func FilterElementsByTagName(n Node, tag string) []*Element {
	nodes := Filter(n, tagMatcher(tag))
	els := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		el, _ := AsElement(n)
		els = append(els, el)
	}
	return els
}

func tagMatcher(tag string) func(Node) bool {
	return func(n Node) bool {
		el, ok := AsElement(n)
		return ok && el.TagName == tag
	}
}
