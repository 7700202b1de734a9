package ast

import (
	"strings"

	"spritec/utils/debug"
)

// Render serializes tree back to markup. Elements are always written with
// explicit closing tags and attribute values are double quoted.
func Render(n Node) string {
	var b strings.Builder
	render(&b, n)
	return b.String()
}

func render(b *strings.Builder, n Node) {
	switch v := n.(type) {
	case *Text:
		b.WriteString(v.Value)
	case *Fragment:
		for _, c := range v.Children {
			render(b, c)
		}
	case *StyleElement:
		renderOpenTag(b, &v.Element)
		if v.Sheet != nil {
			b.WriteString(v.Sheet.String())
		}
		for _, c := range v.Children {
			render(b, c)
		}
		b.WriteString("</" + v.TagName + ">")
	case *Element:
		renderOpenTag(b, v)
		for _, c := range v.Children {
			render(b, c)
		}
		b.WriteString("</" + v.TagName + ">")
	}
}

func renderOpenTag(b *strings.Builder, el *Element) {
	b.WriteString("<" + el.TagName)
	for _, a := range el.Attributes {
		b.WriteString(" " + a.Key)
		if a.HasValue {
			b.WriteString(`="` + a.Value + `"`)
		}
	}
	b.WriteString(">")
}

// Dump returns indented debug representation of the tree.
func Dump(n Node) string {
	tw := debug.NewTreeWriter()
	dump(tw, 0, n)
	return tw.String()
}

func dump(tw *debug.TreeWriter, depth int, n Node) {
	switch v := n.(type) {
	case *Text:
		tw.TextBlock(depth, "text", v.Value)
	case *Fragment:
		tw.Line(depth, "fragment (%d)", len(v.Children))
		for _, c := range v.Children {
			dump(tw, depth+1, c)
		}
	case *StyleElement:
		tw.Line(depth, "style")
		dumpAttributes(tw, depth+1, v.Attributes)
		if v.Sheet != nil {
			tw.Block(depth+1, v.Sheet.String())
		}
	case *Element:
		tw.Line(depth, "<%s>", v.TagName)
		dumpAttributes(tw, depth+1, v.Attributes)
		for _, c := range v.Children {
			dump(tw, depth+1, c)
		}
	}
}

func dumpAttributes(tw *debug.TreeWriter, depth int, attrs []Attribute) {
	for _, a := range attrs {
		if a.HasValue {
			tw.TextBlock(depth, "@"+a.Key, a.Value)
		} else {
			tw.Line(depth, "@%s", a.Key)
		}
	}
}
