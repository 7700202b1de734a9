package graph

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html/atom"
)

var (
	// published sites are generated, so only a handful of reference shapes
	// need to be recognized
	referenceTag = regexp.MustCompile(`(?i)<(link|img)\b[^>]*>`)
	hrefAttr     = regexp.MustCompile(`(?i)\shref\s*=\s*["']([^"']+)["']`)
	srcAttr      = regexp.MustCompile(`(?i)\ssrc\s*=\s*["']([^"']+)["']`)
	urlAttr      = regexp.MustCompile(`(?i)\surl\s*=\s*["']([^"']+)["']`)
	cssURL       = regexp.MustCompile(`url\(\s*["']?(https?://[^"')\s]+)["']?\s*\)`)
)

// UnrecognizedReferenceError is returned when a scanned tag does not carry a
// reference in any of the known forms.
type UnrecognizedReferenceError struct {
	Document string
	Tag      string
}

func (e *UnrecognizedReferenceError) Error() string {
	return fmt.Sprintf("unrecognized dependency reference %s in %s", e.Tag, e.Document)
}

// markupReferences returns references made by <link> and <img> tags.
func markupReferences(doc string, content []byte) ([]string, error) {
	var refs []string
	for _, m := range referenceTag.FindAllSubmatch(content, -1) {
		tag := m[0]

		var found [][]byte
		switch atom.Lookup(bytesToLower(m[1])) {
		case atom.Link:
			found = hrefAttr.FindSubmatch(tag)
		case atom.Img:
			if found = srcAttr.FindSubmatch(tag); found == nil {
				found = urlAttr.FindSubmatch(tag)
			}
		}
		if found == nil {
			return nil, &UnrecognizedReferenceError{Document: doc, Tag: string(tag)}
		}
		refs = append(refs, string(found[1]))
	}
	return refs, nil
}

// cssReferences returns absolute network locations referenced with url().
func cssReferences(content []byte) []string {
	var refs []string
	for _, m := range cssURL.FindAllSubmatch(content, -1) {
		refs = append(refs, string(m[1]))
	}
	return refs
}

// resolveReferences maps references to absolute URLs relative to base. Inline
// data and non network references are not dependencies.
func resolveReferences(base string, refs []string) (map[string]string, error) {
	bu, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("unable to parse url %q: %w", base, err)
	}
	deps := make(map[string]string, len(refs))
	for _, ref := range refs {
		ru, err := url.Parse(strings.TrimSpace(ref))
		if err != nil {
			return nil, fmt.Errorf("unable to parse reference %q in %s: %w", ref, base, err)
		}
		resolved := bu.ResolveReference(ru)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			continue
		}
		resolved.Fragment = ""
		deps[ref] = resolved.String()
	}
	return deps, nil
}

func bytesToLower(b []byte) []byte {
	return []byte(strings.ToLower(string(b)))
}
