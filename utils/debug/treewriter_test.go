package debug

import (
	"testing"
)

func TestTreeWriter_Line(t *testing.T) {
	tests := []struct {
		name   string
		depth  int
		format string
		args   []any
		want   string
	}{
		{name: "no depth", depth: 0, format: "element", want: "element\n"},
		{name: "nested", depth: 2, format: "<%s>", args: []any{"div"}, want: "    <div>\n"},
		{name: "multiple args", depth: 1, format: "%s (%d)", args: []any{"fragment", 3}, want: "  fragment (3)\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tw.Line(tt.depth, tt.format, tt.args...)
			if got := tw.String(); got != tt.want {
				t.Errorf("Line() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTreeWriter_TextBlock(t *testing.T) {
	tests := []struct {
		name  string
		depth int
		label string
		value string
		want  string
	}{
		{name: "empty value", label: "@hidden", want: "@hidden: \n"},
		{name: "whitespace is visible", depth: 1, label: "text", value: " a\n", want: "  text: \" a\\n\"\n"},
		{name: "quotes", label: "@title", value: `say "hi"`, want: "@title: \"say \\\"hi\\\"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tw.TextBlock(tt.depth, tt.label, tt.value)
			if got := tw.String(); got != tt.want {
				t.Errorf("TextBlock() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTreeWriter_Block(t *testing.T) {
	tw := NewTreeWriter()
	tw.Block(1, "a {\n  color: red;\n}\n\nb {\n}\n")

	want := "  a {\n    color: red;\n  }\n\n  b {\n  }\n"
	if got := tw.String(); got != want {
		t.Errorf("Block() = %q, want %q", got, want)
	}

	tw = NewTreeWriter()
	tw.Block(3, "")
	if tw.String() != "" {
		t.Errorf("empty block produced %q", tw.String())
	}
}

func TestTreeWriter_WithIndent(t *testing.T) {
	tw := NewTreeWriter().WithIndent("\t")
	tw.Line(0, "root")
	tw.Line(1, "child")
	tw.TextBlock(2, "text", "x")

	want := "root\n\tchild\n\t\ttext: \"x\"\n"
	if got := tw.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
