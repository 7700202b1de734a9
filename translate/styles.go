package translate

import (
	"spritec/ast"
	"spritec/css"
)

// ComponentStyle lists style rules applying to the root element of a
// component.
type ComponentStyle struct {
	ClassName string
	Rules     []*css.StyleRule
}

// ComponentStyles matches every unique component of a bundled document
// against the stylesheets embedded into it.
func ComponentStyles(root ast.Node) []ComponentStyle {
	components := uniqueComponents(root)
	styles := make([]ComponentStyle, 0, len(components))
	for _, el := range components {
		styles = append(styles, ComponentStyle{
			ClassName: ComponentClassName(el),
			Rules:     ast.MatchingStyleRules(el, root),
		})
	}
	return styles
}

// StyleSheet returns matched rules as a stylesheet.
func (cs ComponentStyle) StyleSheet() *css.StyleSheet {
	rules := make([]css.Rule, len(cs.Rules))
	for i, r := range cs.Rules {
		rules[i] = r
	}
	return &css.StyleSheet{Rules: rules}
}
