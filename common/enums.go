// Package common keeps small enumerations shared by configuration, command
// line and translation code without making them depend on each other.
package common

import (
	"fmt"
	"strings"
)

// Target UI framework for generated code. The set is closed, adding a value
// requires a matching translator.
type Framework string

const (
	FrameworkReact Framework = "react"
)

var frameworkNames = []string{
	string(FrameworkReact),
}

// FrameworkNames returns list of supported framework names.
func FrameworkNames() []string {
	names := make([]string, len(frameworkNames))
	copy(names, frameworkNames)
	return names
}

func (f Framework) String() string {
	return string(f)
}

// IsValid reports whether f is one of the supported frameworks.
func (f Framework) IsValid() bool {
	for _, n := range frameworkNames {
		if string(f) == n {
			return true
		}
	}
	return false
}

// ParseFramework attempts to convert a string to a Framework.
func ParseFramework(name string) (Framework, error) {
	f := Framework(strings.ToLower(strings.TrimSpace(name)))
	if !f.IsValid() {
		return "", fmt.Errorf("%s is not a valid Framework, try [%s]", name, strings.Join(frameworkNames, ", "))
	}
	return f, nil
}
