// Package graph fetches a published site together with everything it links
// to and turns the result into self contained document trees.
package graph

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

const (
	MimeHTML = "text/html"
	MimeCSS  = "text/css"
)

// ErrNoEntry is returned when graph does not contain any markup resource.
var ErrNoEntry = errors.New("graph has no markup entry")

// Dependency is a single fetched resource. Dependencies maps every reference
// found in the content, as written, to its resolved absolute URL.
type Dependency struct {
	URL          string
	MimeType     string
	Dependencies map[string]string
	Content      []byte
}

// Graph maps absolute URL to fetched resource. Entries are never modified
// after they are added.
type Graph map[string]*Dependency

// ByMimeType returns entries of given type sorted by URL.
func (g Graph) ByMimeType(mime string) []*Dependency {
	var deps []*Dependency
	for _, u := range slices.Sorted(maps.Keys(g)) {
		if g[u].MimeType == mime {
			deps = append(deps, g[u])
		}
	}
	return deps
}

// Entry returns markup resource for url or, when url is empty, the first
// markup resource in URL order.
func (g Graph) Entry(url string) (*Dependency, error) {
	if url != "" {
		dep, ok := g[url]
		if !ok || dep.MimeType != MimeHTML {
			return nil, fmt.Errorf("entry %q: %w", url, ErrNoEntry)
		}
		return dep, nil
	}
	docs := g.ByMimeType(MimeHTML)
	if len(docs) == 0 {
		return nil, ErrNoEntry
	}
	return docs[0], nil
}

// Lookup finds the resource a reference made from dep points to.
func (g Graph) Lookup(dep *Dependency, ref string) (*Dependency, bool) {
	if resolved, ok := dep.Dependencies[ref]; ok {
		if target, ok := g[resolved]; ok {
			return target, true
		}
	}
	target, ok := g[ref]
	return target, ok
}

// merge returns new graph with entries of both, entries of g win.
func (g Graph) merge(other Graph) Graph {
	out := make(Graph, len(g)+len(other))
	maps.Copy(out, other)
	maps.Copy(out, g)
	return out
}
