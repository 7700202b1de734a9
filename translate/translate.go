package translate

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"spritec/ast"
	"spritec/common"
	"spritec/misc"
)

// Translator emits output for the whole tree into context.
type Translator func(root ast.Node, c Context) Context

// Group is set of emitters for a single framework.
type Group struct {
	Code            Translator
	TypedDefinition Translator
}

var translators = map[common.Framework]Group{
	common.FrameworkReact: {Code: reactCode, TypedDefinition: reactTypedDefinition},
}

// Option modifies translation.
type Option func(*options)

type options struct {
	banner string
	source string
}

// WithBanner adds header to the output. Header is a text/template expanded
// with BannerValues.
func WithBanner(tmpl string) Option {
	return func(o *options) { o.banner = tmpl }
}

// WithSource names the document being translated, it is available to banner
// template.
func WithSource(name string) Option {
	return func(o *options) { o.source = name }
}

// BannerValues holds variables available for banner template expansion.
type BannerValues struct {
	Context    string
	App        string
	Version    string
	Framework  string
	Source     string
	Components []string
}

// Code lints root and emits framework source for every component.
func Code(root ast.Node, fw common.Framework, opts ...Option) (Context, error) {
	g, err := group(fw)
	if err != nil {
		return Context{}, err
	}
	return run(root, fw, "code", g.Code, opts)
}

// TypedDefinition lints root and emits typed prop declarations for every
// component.
func TypedDefinition(root ast.Node, fw common.Framework, opts ...Option) (Context, error) {
	g, err := group(fw)
	if err != nil {
		return Context{}, err
	}
	if g.TypedDefinition == nil {
		return Context{}, fmt.Errorf("framework %s does not support typed definitions", fw)
	}
	return run(root, fw, "typed-definition", g.TypedDefinition, opts)
}

func group(fw common.Framework) (Group, error) {
	g, ok := translators[fw]
	if !ok {
		return Group{}, fmt.Errorf("unsupported framework %q", fw)
	}
	return g, nil
}

func run(root ast.Node, fw common.Framework, kind string, tr Translator, opts []Option) (Context, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c := Lint(root, NewContext())
	if o.banner != "" {
		banner, err := expandBanner(o.banner, BannerValues{
			Context:    kind,
			App:        misc.GetAppName(),
			Version:    misc.GetVersion(),
			Framework:  fw.String(),
			Source:     o.source,
			Components: componentNames(root),
		})
		if err != nil {
			return Context{}, err
		}
		c = c.AddBuffer(banner)
	}
	return tr(root, c), nil
}

func componentNames(root ast.Node) []string {
	components := uniqueComponents(root)
	names := make([]string, 0, len(components))
	for _, el := range components {
		names = append(names, el.AttributeValue(ComponentAttr))
	}
	return names
}

func expandBanner(field string, values BannerValues) (string, error) {
	tmpl, err := template.New("banner").Funcs(sprig.FuncMap()).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse banner template: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", fmt.Errorf("unable to expand banner template: %w", err)
	}
	banner := buf.String()
	if banner != "" && !strings.HasSuffix(banner, "\n") {
		banner += "\n"
	}
	return banner, nil
}
