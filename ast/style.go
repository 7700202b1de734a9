package ast

import (
	"strings"

	"spritec/css"
)

// StyleRuleMatchesElement reports whether rule selector mentions any of the
// element classes. Only plain style rules are considered.
func StyleRuleMatchesElement(rule css.Rule, el *Element) bool {
	sr, ok := rule.(*css.StyleRule)
	if !ok {
		return false
	}
	for _, class := range strings.Fields(el.AttributeValue("class")) {
		if strings.Contains(sr.Selector, "."+class) {
			return true
		}
	}
	return false
}

// MatchingStyleRules collects rules from every style element under root which
// match el. Rules inside @media blocks are not examined.
func MatchingStyleRules(el *Element, root Node) []*css.StyleRule {
	var rules []*css.StyleRule
	Traverse(root, func(n Node) bool {
		style, ok := n.(*StyleElement)
		if !ok || style.Sheet == nil {
			return true
		}
		for _, r := range style.Sheet.Rules {
			if StyleRuleMatchesElement(r, el) {
				rules = append(rules, r.(*css.StyleRule))
			}
		}
		return true
	})
	return rules
}
