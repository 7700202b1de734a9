package translate

import (
	"fmt"

	"spritec/ast"
)

// DuplicateComponentError is a warning: component name is used by more than
// one element. Only the first element is compiled. Conflict is set when the
// names differ but produce the same class.
type DuplicateComponentError struct {
	Name     string
	Conflict string
}

func (e *DuplicateComponentError) Error() string {
	if e.Conflict != "" {
		return fmt.Sprintf("component %q conflicts with %q, both compile to the same class", e.Conflict, e.Name)
	}
	return fmt.Sprintf("multiple instances of %q exist in document", e.Name)
}

// Lint adds warnings for problems which do not prevent translation.
func Lint(root ast.Node, c Context) Context {
	return lintComponents(root, c)
}

func lintComponents(root ast.Node, c Context) Context {
	var (
		first  = map[string]string{}
		warned = map[string]bool{}
	)
	for _, el := range Components(root) {
		name, class := el.AttributeValue(ComponentAttr), ComponentClassName(el)
		prev, used := first[class]
		if !used {
			first[class] = name
			continue
		}
		if prev != name {
			key := class + "\x00" + name
			if !warned[key] {
				c = c.AddWarning(&DuplicateComponentError{Name: prev, Conflict: name})
				warned[key] = true
			}
			continue
		}
		if !warned[class] {
			c = c.AddWarning(&DuplicateComponentError{Name: name})
			warned[class] = true
		}
	}
	return c
}
