package graph

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Resolver fetches resources and everything they reference.
type Resolver struct {
	fetcher  Fetcher
	log      *zap.Logger
	parallel int
}

// NewResolver creates resolver. When parallel is greater than one sibling
// references are resolved concurrently with at most parallel fetches in
// flight, otherwise resolution is strictly sequential and depth first.
func NewResolver(fetcher Fetcher, log *zap.Logger, parallel int) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		fetcher:  fetcher,
		log:      log.Named("resolver"),
		parallel: max(parallel, 1),
	}
}

// Resolve returns graph containing everything in visited plus u and all
// resources reachable from it. Resources already present in visited are
// never fetched again and visited itself is never modified. Any failure
// aborts the whole resolution.
func (r *Resolver) Resolve(ctx context.Context, u string, visited Graph) (Graph, error) {
	if _, ok := visited[u]; ok {
		return visited, nil
	}

	w := &walk{
		Resolver: r,
		claimed:  make(map[string]struct{}, len(visited)),
		sem:      semaphore.NewWeighted(int64(r.parallel)),
	}
	for k := range visited {
		w.claimed[k] = struct{}{}
	}

	found, err := w.resolve(ctx, u)
	if err != nil {
		return nil, err
	}
	r.log.Debug("Resolved", zap.String("url", u), zap.Int("fetched", len(found)))
	return visited.merge(found), nil
}

// walk is state of a single Resolve call. Every URL is claimed before it is
// fetched, so cycles terminate and nothing is fetched twice.
type walk struct {
	*Resolver

	mu      sync.Mutex
	claimed map[string]struct{}
	sem     *semaphore.Weighted
}

func (w *walk) claim(u string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.claimed[u]; ok {
		return false
	}
	w.claimed[u] = struct{}{}
	return true
}

func (w *walk) resolve(ctx context.Context, u string) (Graph, error) {
	if !w.claim(u) {
		return Graph{}, nil
	}

	dep, err := w.fetch(ctx, u)
	if err != nil {
		return nil, err
	}

	targets := slices.Sorted(maps.Values(dep.Dependencies))
	targets = slices.Compact(targets)

	var acc Graph
	if w.parallel > 1 && len(targets) > 1 {
		acc, err = w.resolveConcurrently(ctx, targets)
	} else {
		acc = Graph{}
		for _, t := range targets {
			var sub Graph
			if sub, err = w.resolve(ctx, t); err != nil {
				break
			}
			acc = acc.merge(sub)
		}
	}
	if err != nil {
		return nil, err
	}

	acc = acc.merge(Graph{u: dep})
	return acc, nil
}

func (w *walk) resolveConcurrently(ctx context.Context, targets []string) (Graph, error) {
	results := make([]Graph, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		g.Go(func() error {
			sub, err := w.resolve(gctx, t)
			results[i] = sub
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	acc := Graph{}
	for _, sub := range results {
		acc = acc.merge(sub)
	}
	return acc, nil
}

func (w *walk) fetch(ctx context.Context, u string) (*Dependency, error) {
	if err := w.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	w.log.Info("Fetching", zap.String("url", u))
	resp, err := w.fetcher.Fetch(ctx, u)
	w.sem.Release(1)
	if err != nil {
		return nil, err
	}

	var refs []string
	switch resp.MimeType {
	case MimeHTML:
		if refs, err = markupReferences(u, resp.Content); err != nil {
			return nil, err
		}
	case MimeCSS:
		refs = cssReferences(resp.Content)
	default:
		w.log.Debug("Cannot scan dependencies", zap.String("url", u), zap.String("type", resp.MimeType))
	}

	deps, err := resolveReferences(u, refs)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve references: %w", err)
	}
	return &Dependency{
		URL:          u,
		MimeType:     resp.MimeType,
		Dependencies: deps,
		Content:      resp.Content,
	}, nil
}
