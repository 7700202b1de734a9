package translate

import (
	"strings"

	"spritec/ast"
)

// attribute keys renamed for react
var reactAttrAliases = map[string]string{
	"class": "className",
}

var jsEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\r", `\n`, `"`, `\"`)

func jsString(s string) string {
	return `"` + jsEscaper.Replace(s) + `"`
}

func reactCode(root ast.Node, c Context) Context {
	for _, link := range ast.FilterElementsByTagName(root, "link") {
		if ast.IsStylesheetLink(link) {
			c = c.AddLine("import " + jsString(link.AttributeValue("href")) + ";")
		}
	}
	c = c.AddLine(`import * as React from "react";`)
	c = c.AddLine("")

	for _, component := range uniqueComponents(root) {
		c = reactComponent(component, c)
	}
	return c
}

func reactComponent(component *ast.Element, c Context) Context {
	className := ComponentClassName(component)

	c = c.SetCurrentScope(className)
	c = c.AddOpenTag("export class " + className + " extends React.Component {\n")
	c = c.AddOpenTag("render() {\n")
	c = c.AddLineItem("return ")
	c = reactNode(component, component, c)
	c = c.AddLine(";")
	c = c.AddCloseTag("}\n")
	c = c.AddCloseTag("}\n")
	return c.AddLine("")
}

func reactNode(n ast.Node, component *ast.Element, c Context) Context {
	switch v := n.(type) {
	case *ast.Text:
		return c.AddLineItem(jsString(v.Value))
	case *ast.StyleElement:
		var children []ast.Node
		if v.Sheet != nil {
			children = []ast.Node{&ast.Text{Value: v.Sheet.String()}}
		}
		styled := &ast.Element{TagName: v.TagName, Attributes: v.Attributes, Children: append(children, v.Children...)}
		return reactElement(styled, component, c)
	case *ast.Element:
		if v != component && isComponent(v) {
			// nested components are compiled on their own
			return c.AddLineItem("React.createElement(" + ComponentClassName(v) + ", null)")
		}
		return reactElement(v, component, c)
	case *ast.Fragment:
		c = c.AddOpenTag("React.createElement(\n")
		c = c.AddLineItem("React.Fragment, null")
		c = reactChildren(v.Children, component, c)
		return c.AddCloseTag(")")
	}
	return c
}

func reactElement(el *ast.Element, component *ast.Element, c Context) Context {
	c = registerLabels(c, el)

	c = c.AddOpenTag("React.createElement(\n")
	c = c.AddLine(jsString(el.TagName) + ",")
	c = c.AddOpenTag("{\n")
	for _, a := range el.Attributes {
		key := a.Key
		if alias, ok := reactAttrAliases[key]; ok {
			key = alias
		}
		value := "true"
		if a.HasValue {
			value = jsString(a.Value)
		}
		c = c.AddLine(jsString(key) + ": " + value + ",")
	}
	if isLayer(el) {
		c = c.AddLine("...(this.props." + LayerPropName(c, el) + " || {}),")
	}
	c = c.AddCloseTag("}")

	if isSlot(el) {
		ref := "this.props." + SlotPropName(c, el)
		if len(el.Children) == 0 {
			c = c.AddBuffer(", " + ref)
		} else {
			c = c.AddOpenTag(", " + ref + " != null ? " + ref + " : [\n")
			c = reactChildList(el.Children, component, c)
		}
	} else {
		c = reactChildren(el.Children, component, c)
	}
	return c.AddCloseTag(")")
}

// reactChildren writes children array argument, nothing when there are no
// children.
func reactChildren(children []ast.Node, component *ast.Element, c Context) Context {
	if len(children) == 0 {
		return c
	}
	c = c.AddOpenTag(", [\n")
	return reactChildList(children, component, c)
}

// reactChildList writes array items and closes the array opened by caller.
func reactChildList(children []ast.Node, component *ast.Element, c Context) Context {
	for _, child := range children {
		c = reactNode(child, component, c)
		c = c.AddLine(",")
	}
	return c.AddCloseTag("]")
}
