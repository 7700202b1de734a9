package translate

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"spritec/ast"
)

// Marker attributes recognized in documents.
const (
	ComponentAttr = "data-component"
	LayerAttr     = "data-layer"
	SlotAttr      = "data-slot"
)

// words splits label into words on any non alphanumeric character and on
// lower to upper case transitions ("heroImage", "HTMLTitle").
func words(label string) []string {
	var (
		result []string
		cur    []rune
	)
	flush := func() {
		if len(cur) > 0 {
			result = append(result, string(cur))
			cur = cur[:0]
		}
	}

	runes := []rune(label)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if len(cur) > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			acronymEnd := unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || acronymEnd {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return result
}

func capitalize(upper cases.Caser, w string) string {
	r, size := utf8.DecodeRuneInString(w)
	return upper.String(string(r)) + w[size:]
}

// camel converts label to lowerCamelCase.
func camel(label string) string {
	lower, upper := cases.Lower(language.Und), cases.Upper(language.Und)

	var b strings.Builder
	for i, w := range words(label) {
		w = lower.String(w)
		if i > 0 {
			w = capitalize(upper, w)
		}
		b.WriteString(w)
	}
	return b.String()
}

// pascal converts label to UpperCamelCase.
func pascal(label string) string {
	c := camel(label)
	if c == "" {
		return c
	}
	return capitalize(cases.Upper(language.Und), c)
}

// makeSafe prefixes identifiers which would start with a digit.
func makeSafe(name string) string {
	if r, _ := utf8.DecodeRuneInString(name); unicode.IsDigit(r) {
		return "$" + name
	}
	return name
}

// ComponentClassName returns identifier of the unit compiled from component
// element.
func ComponentClassName(el *ast.Element) string {
	return "Base" + pascal(el.AttributeValue(ComponentAttr))
}

// isComponent reports whether n is an element with non empty component
// marker.
func isComponent(n ast.Node) bool {
	el, ok := n.(*ast.Element)
	return ok && el.AttributeValue(ComponentAttr) != ""
}

func isLayer(el *ast.Element) bool {
	return el.AttributeValue(LayerAttr) != ""
}

func isSlot(el *ast.Element) bool {
	return el.AttributeValue(SlotAttr) != ""
}

// scopedName derives unique identifier for node labeled with label within
// the current scope. Node must have been recorded with AddScopedLabel.
func scopedName(c Context, label string, n ast.Node) string {
	name := camel(label)
	if name == "" {
		name = "child"
	}
	if i := c.ScopedLabelIndex(label, n); i > 0 {
		name += strconv.Itoa(i)
	}
	return makeSafe(name)
}

// registerLabels records layer and slot labels of el in the current scope.
func registerLabels(c Context, el *ast.Element) Context {
	if isLayer(el) {
		c = c.AddScopedLabel(el.AttributeValue(LayerAttr), el)
	}
	if isSlot(el) {
		c = c.AddScopedLabel(el.AttributeValue(SlotAttr), el)
	}
	return c
}

// LayerPropName returns name of the prop overriding attributes of layer el.
func LayerPropName(c Context, el *ast.Element) string {
	return scopedName(c, el.AttributeValue(LayerAttr), el) + "Props"
}

// SlotPropName returns name of the prop replacing children of slot el.
func SlotPropName(c Context, el *ast.Element) string {
	return scopedName(c, el.AttributeValue(SlotAttr), el)
}

// Components returns all component elements of the tree in document order,
// duplicates included.
func Components(root ast.Node) []*ast.Element {
	nodes := ast.Filter(root, isComponent)
	els := make([]*ast.Element, len(nodes))
	for i, n := range nodes {
		els[i] = n.(*ast.Element)
	}
	return els
}

// uniqueComponents returns first occurrence of every component class name.
// Names spelled differently may still produce the same class.
func uniqueComponents(root ast.Node) []*ast.Element {
	var (
		result []*ast.Element
		seen   = map[string]bool{}
	)
	for _, el := range Components(root) {
		name := ComponentClassName(el)
		if seen[name] {
			continue
		}
		seen[name] = true
		result = append(result, el)
	}
	return result
}
