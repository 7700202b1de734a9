// Package snapshot keeps versioned local copies of a resolved site.
//
// Every version lives in its own directory named after the data-version
// attribute of the entry document body. Resources are stored under names
// derived from their URLs, the entry document is always stored as
// MainSprite. Symlinks Latest and Stable point to version directories.
package snapshot

import (
	"bytes"
	"cmp"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/maruel/natural"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/net/html/atom"

	"spritec/ast"
	"spritec/common"
	"spritec/graph"
	"spritec/markup"
	"spritec/misc"
	"spritec/translate"
)

const (
	MainSprite     = "sprite.html"
	TypedDefExt    = ".d.ts"
	Latest         = "latest"
	Stable         = "stable"
	DefaultVersion = "trunk"
	VersionAttr    = "data-version"
)

// SaveOptions controls Save.
type SaveOptions struct {
	// EntryURL selects markup resource saved as MainSprite, first markup
	// resource in URL order is used when empty.
	EntryURL string
	// StableVersion names version Stable symlink should point to, symlink
	// is left alone when empty.
	StableVersion string
}

// LocalName returns file name resource with absolute URL u is stored under.
func LocalName(u string) string {
	ext := path.Ext(u)
	if pu, err := url.Parse(u); err == nil {
		ext = path.Ext(pu.Path)
	}
	sum := md5.Sum([]byte(u))
	return hex.EncodeToString(sum[:]) + ext
}

// Localize returns copy of g with every URL replaced by "./" + LocalName and
// every reference in content rewritten to match.
func Localize(g graph.Graph) graph.Graph {
	out := make(graph.Graph, len(g))
	for _, dep := range g {
		// longer references first so a reference never clobbers another one
		// it is a prefix of
		refs := slices.SortedFunc(maps.Keys(dep.Dependencies), func(a, b string) int {
			return cmp.Or(cmp.Compare(len(b), len(a)), strings.Compare(a, b))
		})

		content := dep.Content
		deps := make(map[string]string, len(refs))
		for _, ref := range refs {
			local := "./" + LocalName(dep.Dependencies[ref])
			deps[local] = local
			content = bytes.ReplaceAll(content, []byte(ref), []byte(local))
		}

		local := &graph.Dependency{
			URL:          "./" + LocalName(dep.URL),
			MimeType:     dep.MimeType,
			Dependencies: deps,
			Content:      content,
		}
		out[local.URL] = local
	}
	return out
}

// VersionOf returns directory name of the version entry document belongs to.
func VersionOf(entry *graph.Dependency, p *markup.Parser) (string, error) {
	root, err := p.Parse(entry.Content, entry.URL)
	if err != nil {
		return "", fmt.Errorf("unable to parse entry document: %w", err)
	}
	version := DefaultVersion
	if body := ast.FindElementByTagName(root, atom.Body.String()); body != nil {
		if v := body.AttributeValue(VersionAttr); v != "" {
			version = v
		}
	}
	return VersionName(version), nil
}

// VersionName turns version label into safe directory name. Names of the
// symlinks are never used for directories.
func VersionName(label string) string {
	switch name := slug.Make(label); name {
	case "":
		return DefaultVersion
	case Latest, Stable:
		return "version-" + name
	default:
		return name
	}
}

// Save localizes g and writes it into a new version directory under dir,
// then points Latest (and Stable when requested) to it. Name of the version
// directory is returned.
func Save(dir string, g graph.Graph, opts SaveOptions, p *markup.Parser, log *zap.Logger) (string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("snapshot")

	entry, err := g.Entry(opts.EntryURL)
	if err != nil {
		return "", err
	}
	version, err := VersionOf(entry, p)
	if err != nil {
		return "", err
	}

	versionDir := filepath.Join(dir, version)
	if err := os.MkdirAll(versionDir, 0755); err != nil {
		return "", fmt.Errorf("unable to create version directory: %w", err)
	}

	entryURL := "./" + LocalName(entry.URL)
	local := Localize(g)
	for _, u := range slices.Sorted(maps.Keys(local)) {
		name := strings.TrimPrefix(u, "./")
		if u == entryURL {
			name = MainSprite
		}
		fname := filepath.Join(versionDir, name)
		log.Info("Writing", zap.String("file", fname))
		if err := os.WriteFile(fname, local[u].Content, 0644); err != nil {
			return "", fmt.Errorf("unable to write resource: %w", err)
		}
	}

	if err := replaceSymlink(dir, Latest, version, log); err != nil {
		return "", err
	}
	if opts.StableVersion != "" {
		stable := VersionName(opts.StableVersion)
		if info, err := os.Stat(filepath.Join(dir, stable)); err != nil || !info.IsDir() {
			log.Warn("Stable version does not exist, symlink is not changed", zap.String("version", stable))
		} else if err := replaceSymlink(dir, Stable, stable, log); err != nil {
			return "", err
		}
	}
	return version, nil
}

// replaceSymlink atomically points dir/name to dir/target. New link is
// created under temporary name and renamed over the old one.
func replaceSymlink(dir, name, target string, log *zap.Logger) error {
	tmp := filepath.Join(dir, "."+uuid.NewString())
	if err := os.Symlink(target, tmp); err != nil {
		return fmt.Errorf("unable to create symlink: %w", err)
	}
	link := filepath.Join(dir, name)
	if err := os.Rename(tmp, link); err != nil {
		return multierr.Append(
			fmt.Errorf("unable to replace symlink %s: %w", link, err),
			os.Remove(tmp))
	}
	log.Info("Symlink", zap.String("link", link), zap.String("target", target))
	return nil
}

// LinkTarget returns version symlink name (Latest or Stable) points to or
// empty string when there is no such link.
func LinkTarget(dir, name string) (string, error) {
	target, err := os.Readlink(filepath.Join(dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("unable to read %s symlink: %w", name, err)
	}
	return filepath.Base(target), nil
}

// Versions returns names of version directories under dir in natural order.
// Hidden entries and symlinks are skipped.
func Versions(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("unable to read snapshot directory: %w", err)
	}

	var versions []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") || e.Type()&fs.ModeSymlink != 0 || !e.IsDir() {
			continue
		}
		versions = append(versions, e.Name())
	}
	sort.Sort(natural.StringSlice(versions))
	return versions, nil
}

// BuildTypedDefinitions writes typed declarations next to MainSprite of
// every version under dir. Failure of one version does not stop the others,
// all failures are returned together.
func BuildTypedDefinitions(dir string, fw common.Framework, p *markup.Parser, log *zap.Logger, opts ...translate.Option) error {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("snapshot")

	versions, err := Versions(dir)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		return fmt.Errorf("no versions found in %s, you need to call \"%s pull\" before building typed definitions", dir, misc.GetAppName())
	}

	for _, version := range versions {
		sprite := filepath.Join(dir, version, MainSprite)
		if _, e := os.Stat(sprite); e != nil {
			log.Warn("Sprite not found, skipping", zap.String("file", sprite))
			continue
		}
		if e := buildTypedDefinition(sprite, fw, p, log, opts); e != nil {
			err = multierr.Append(err, fmt.Errorf("version %s: %w", version, e))
		}
	}
	return err
}

func buildTypedDefinition(sprite string, fw common.Framework, p *markup.Parser, log *zap.Logger, opts []translate.Option) error {
	data, err := os.ReadFile(sprite)
	if err != nil {
		return err
	}
	root, err := p.Parse(data, sprite)
	if err != nil {
		return err
	}

	c, err := translate.TypedDefinition(root, fw, append(slices.Clip(opts), translate.WithSource(filepath.Base(sprite)))...)
	if err != nil {
		return err
	}
	for _, w := range c.Warnings {
		log.Warn("Translation warning", zap.String("file", sprite), zap.Error(w))
	}

	fname := sprite + TypedDefExt
	log.Info("Writing", zap.String("file", fname))
	return os.WriteFile(fname, []byte(c.Buffer), 0644)
}
