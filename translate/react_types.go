package translate

import (
	"slices"

	"spritec/ast"
)

func reactTypedDefinition(root ast.Node, c Context) Context {
	c = c.AddLine(`import * as React from "react";`)
	c = c.AddLine("")

	for _, component := range uniqueComponents(root) {
		c = reactComponentType(component, c)
	}
	return c
}

func reactComponentType(component *ast.Element, c Context) Context {
	className := ComponentClassName(component)
	propsType := className + "Props"

	c = c.SetCurrentScope(className)

	var layers, slots []*ast.Element
	ast.Inspect(component, func(n ast.Node) bool {
		el, ok := n.(*ast.Element)
		if !ok {
			return true
		}
		if el != component && isComponent(el) {
			return false
		}
		c = registerLabels(c, el)
		if isLayer(el) {
			layers = append(layers, el)
		}
		if isSlot(el) {
			slots = append(slots, el)
		}
		return true
	})

	var fields []string
	addField := func(field string) {
		if !slices.Contains(fields, field) {
			fields = append(fields, field)
		}
	}
	for _, el := range layers {
		addField(LayerPropName(c, el) + ": React.HTMLAttributes<any>;")
	}
	for _, el := range slots {
		addField(SlotPropName(c, el) + ": any;")
	}

	c = c.AddOpenTag("type " + propsType + " = {\n")
	for _, f := range fields {
		c = c.AddLine(f)
	}
	c = c.AddCloseTag("};\n")
	c = c.AddLine("")
	c = c.AddLine("export class " + className + " extends React.Component<" + propsType + "> { }")
	return c.AddLine("")
}
