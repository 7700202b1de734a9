package css_test

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"spritec/css"
	"spritec/scan"
)

func parse(t *testing.T, src string) *css.StyleSheet {
	t.Helper()
	sheet, err := css.NewParser(zap.NewNop()).Parse([]byte(src))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return sheet
}

func TestParser_MinimalRule(t *testing.T) {
	for _, src := range []string{`a{color:red;}`, `a{color:red}`, "  a {\n  color : red ;\n}\n"} {
		sheet := parse(t, src)
		if len(sheet.Rules) != 1 {
			t.Fatalf("%q: expected 1 rule, got %d", src, len(sheet.Rules))
		}
		rule, ok := sheet.Rules[0].(*css.StyleRule)
		if !ok {
			t.Fatalf("%q: expected StyleRule, got %T", src, sheet.Rules[0])
		}
		if rule.Selector != "a" {
			t.Errorf("%q: expected selector 'a', got '%s'", src, rule.Selector)
		}
		if len(rule.Declarations) != 1 || rule.Declarations[0] != (css.Declaration{Name: "color", Value: "red"}) {
			t.Errorf("%q: unexpected declarations %+v", src, rule.Declarations)
		}
	}
}

func TestParser_SelectorAndValueKeepPunctuation(t *testing.T) {
	sheet := parse(t, `a.link:hover > span { background: url(http://x.test/a.png) no-repeat; margin:0 }`)

	rule := sheet.Rules[0].(*css.StyleRule)
	if rule.Selector != "a.link:hover > span" {
		t.Errorf("unexpected selector %q", rule.Selector)
	}
	if v, _ := rule.Declaration("background"); v != "url(http://x.test/a.png) no-repeat" {
		t.Errorf("unexpected background %q", v)
	}
	if v, _ := rule.Declaration("margin"); v != "0" {
		t.Errorf("unexpected margin %q", v)
	}
}

func TestParser_InvalidUTF8IsKept(t *testing.T) {
	rule := parse(t, ".\xff {content: \xfex}").Rules[0].(*css.StyleRule)
	if rule.Selector != ".\xff" {
		t.Errorf("selector changed: %q", rule.Selector)
	}
	if v, _ := rule.Declaration("content"); v != "\xfex" {
		t.Errorf("value changed: %q", v)
	}
}

func TestParser_MediaRule(t *testing.T) {
	sheet := parse(t, `@media (min-width: 1px){a{color:red;}}`)

	if len(sheet.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(sheet.Rules))
	}
	media, ok := sheet.Rules[0].(*css.MediaRule)
	if !ok {
		t.Fatalf("expected MediaRule, got %T", sheet.Rules[0])
	}
	if media.ConditionText != "(min-width: 1px)" {
		t.Errorf("unexpected condition %q", media.ConditionText)
	}
	if len(media.Rules) != 1 {
		t.Fatalf("expected 1 nested rule, got %d", len(media.Rules))
	}
	if r, ok := media.Rules[0].(*css.StyleRule); !ok || r.Selector != "a" {
		t.Errorf("unexpected nested rule %+v", media.Rules[0])
	}
	if got := sheet.StyleRules(); len(got) != 0 {
		t.Errorf("nested rules must not be reported as top level, got %d", len(got))
	}
}

func TestParser_NestedMedia(t *testing.T) {
	sheet := parse(t, `@media screen { @media (max-width: 10px) { b { x: y } } c { z: w } }`)

	outer := sheet.Rules[0].(*css.MediaRule)
	if len(outer.Rules) != 2 {
		t.Fatalf("expected 2 nested rules, got %d", len(outer.Rules))
	}
	inner, ok := outer.Rules[0].(*css.MediaRule)
	if !ok || inner.ConditionText != "(max-width: 10px)" {
		t.Errorf("unexpected inner rule %+v", outer.Rules[0])
	}
}

func TestParser_FontFace(t *testing.T) {
	sheet := parse(t, `@font-face { font-family: "Inter"; src: url("https://x.test/inter.woff2") format("woff2"); }`)

	ff, ok := sheet.Rules[0].(*css.FontFaceRule)
	if !ok {
		t.Fatalf("expected FontFaceRule, got %T", sheet.Rules[0])
	}
	if len(ff.Declarations) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(ff.Declarations))
	}
	if ff.Declarations[0].Value != `"Inter"` {
		t.Errorf("unexpected font-family %q", ff.Declarations[0].Value)
	}
}

func TestParser_KeyframesKeepsNameOnly(t *testing.T) {
	sheet := parse(t, `@keyframes spin { from { transform: rotate(0deg); } 50% { opacity: .5 } to { transform: rotate(360deg) } } a { b: c }`)

	if len(sheet.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(sheet.Rules))
	}
	kf, ok := sheet.Rules[0].(*css.KeyFramesRule)
	if !ok || kf.Name != "spin" {
		t.Errorf("unexpected keyframes rule %+v", sheet.Rules[0])
	}
}

func TestParser_KeyframesBodyIsValidated(t *testing.T) {
	_, err := css.NewParser(nil).Parse([]byte(`@keyframes spin { from { transform rotate(0deg) } }`))
	var se *scan.SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("expected syntax error, got %v", err)
	}
}

func TestParser_UnknownAtRule(t *testing.T) {
	_, err := css.NewParser(nil).Parse([]byte(`a{b:c} @import url("x.css");`))

	var ue *css.UnknownAtRuleError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnknownAtRuleError, got %v", err)
	}
	if ue.Name != "@import" {
		t.Errorf("unexpected name %q", ue.Name)
	}
}

func TestParser_Comments(t *testing.T) {
	sheet := parse(t, "/* header */ a { /* inline */ color: red; } /* multi\nline */")

	if len(sheet.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(sheet.Rules))
	}
	if v, _ := sheet.Rules[0].(*css.StyleRule).Declaration("color"); v != "red" {
		t.Errorf("unexpected color %q", v)
	}
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		eof  bool
	}{
		{name: "unclosed block", src: `a { color: red;`, eof: true},
		{name: "missing block", src: `a`, eof: true},
		{name: "missing colon", src: `a { color red; }`},
		{name: "stray close", src: `}`},
		{name: "brace inside value", src: `a { b: c { }`},
		{name: "unclosed media", src: `@media print { a { b: c }`, eof: true},
	}

	p := css.NewParser(zap.NewNop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet, err := p.Parse([]byte(tt.src))
			if err == nil {
				t.Fatalf("expected error, got %d rules", len(sheet.Rules))
			}
			if sheet != nil {
				t.Error("partial result returned with error")
			}
			if got := errors.Is(err, scan.ErrUnexpectedEOF); got != tt.eof {
				t.Errorf("unexpected end of input = %v, want %v (%v)", got, tt.eof, err)
			}
		})
	}
}

func TestParser_EmptyInput(t *testing.T) {
	sheet := parse(t, "  \n ")
	if len(sheet.Rules) != 0 {
		t.Errorf("expected no rules, got %d", len(sheet.Rules))
	}
}

func TestStyleSheet_String(t *testing.T) {
	sheet := parse(t, `a{color:red;margin:0} @media print{b{c:d}} @keyframes k{from{x:y}} @font-face{font-family:F}`)

	want := strings.Join([]string{
		"a {\n  color: red;\n  margin: 0;\n}\n",
		"@media print {\n  b {\n    c: d;\n  }\n}\n",
		"@keyframes k {\n}\n",
		"@font-face {\n  font-family: F;\n}\n",
	}, "\n")
	if got := sheet.String(); got != want {
		t.Errorf("unexpected output:\n%s\nwant:\n%s", got, want)
	}

	// serialized output must parse back to the same text
	again := parse(t, sheet.String())
	if again.String() != want {
		t.Errorf("round trip changed output:\n%s", again.String())
	}
}

func TestStyleSheet_RulesBySelector(t *testing.T) {
	sheet := parse(t, `.a{x:1} .b{x:2} .a{x:3}`)

	rules := sheet.RulesBySelector(".a")
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if v, _ := rules[1].Declaration("x"); v != "3" {
		t.Errorf("expected source order, got %q", v)
	}
}
