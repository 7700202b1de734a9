package css

import (
	"fmt"
	"io"
	"strings"
)

// Rule is one of *StyleRule, *MediaRule, *FontFaceRule or *KeyFramesRule.
type Rule interface {
	isRule()
}

// Declaration is a single "name: value" pair. Value is kept verbatim.
type Declaration struct {
	Name  string
	Value string
}

// StyleRule is a plain "selector { declarations }" rule. Selector is not
// split any further.
type StyleRule struct {
	Selector     string
	Declarations []Declaration
}

// MediaRule is an @media block. Rules may contain further media rules.
type MediaRule struct {
	ConditionText string
	Rules         []Rule
}

// FontFaceRule is a @font-face block.
type FontFaceRule struct {
	Declarations []Declaration
}

// KeyFramesRule is a @keyframes block. Only the name is retained, frames are
// validated during parsing and dropped.
type KeyFramesRule struct {
	Name string
}

func (*StyleRule) isRule()     {}
func (*MediaRule) isRule()     {}
func (*FontFaceRule) isRule()  {}
func (*KeyFramesRule) isRule() {}

// Declaration returns value of the last declaration with given name.
func (r *StyleRule) Declaration(name string) (string, bool) {
	for i := len(r.Declarations) - 1; i >= 0; i-- {
		if r.Declarations[i].Name == name {
			return r.Declarations[i].Value, true
		}
	}
	return "", false
}

// StyleSheet is a parsed stylesheet, rules are kept in source order.
type StyleSheet struct {
	Rules []Rule
}

// StyleRules returns top level style rules, rules nested in @media blocks are
// not included.
func (s *StyleSheet) StyleRules() []*StyleRule {
	var rules []*StyleRule
	for _, r := range s.Rules {
		if sr, ok := r.(*StyleRule); ok {
			rules = append(rules, sr)
		}
	}
	return rules
}

// RulesBySelector returns all top-level style rules with exactly this selector.
func (s *StyleSheet) RulesBySelector(selector string) []*StyleRule {
	var matches []*StyleRule
	for _, r := range s.StyleRules() {
		if r.Selector == selector {
			matches = append(matches, r)
		}
	}
	return matches
}

// WriteTo writes the stylesheet to w in source order, implementing io.WriterTo.
func (s *StyleSheet) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	for i, r := range s.Rules {
		if i > 0 {
			cw.printf("\n")
		}
		writeRule(cw, r, "")
	}
	return cw.n, cw.err
}

// String returns the CSS text of the stylesheet.
func (s *StyleSheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

func writeRule(w *countingWriter, rule Rule, indent string) {
	switch r := rule.(type) {
	case *StyleRule:
		w.printf("%s%s {\n", indent, r.Selector)
		writeDeclarations(w, r.Declarations, indent+"  ")
		w.printf("%s}\n", indent)
	case *FontFaceRule:
		w.printf("%s@font-face {\n", indent)
		writeDeclarations(w, r.Declarations, indent+"  ")
		w.printf("%s}\n", indent)
	case *KeyFramesRule:
		w.printf("%s@keyframes %s {\n%s}\n", indent, r.Name, indent)
	case *MediaRule:
		w.printf("%s@media %s {\n", indent, r.ConditionText)
		for _, nested := range r.Rules {
			writeRule(w, nested, indent+"  ")
		}
		w.printf("%s}\n", indent)
	}
}

func writeDeclarations(w *countingWriter, decls []Declaration, indent string) {
	for _, d := range decls {
		w.printf("%s%s: %s;\n", indent, d.Name, d.Value)
	}
}

// countingWriter remembers first error and stops writing after it.
type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (cw *countingWriter) printf(format string, args ...any) {
	if cw.err != nil {
		return
	}
	n, err := fmt.Fprintf(cw.w, format, args...)
	cw.n += int64(n)
	cw.err = err
}
