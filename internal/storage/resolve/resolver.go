// Package resolve turns page references into decoded pages.
package resolve

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/KilimcininKorOglu/revtree/internal/logging"
	"github.com/KilimcininKorOglu/revtree/internal/storage"
)

// DefaultPrefetchWorkers bounds concurrent loads issued by Prefetch.
const DefaultPrefetchWorkers = 8

// Cache is the page cache consulted before the store. Implementations must
// be safe for concurrent use and may evict at any time.
type Cache interface {
	Get(ref storage.PageRef) (storage.Page, bool)
	Put(ref storage.PageRef, page storage.Page)
}

// Options configures a Resolver.
type Options struct {
	// PrefetchWorkers limits concurrent loads in Prefetch.
	PrefetchWorkers int

	// Logger receives page load events. Defaults to a no-op logger.
	Logger logging.Logger
}

// Stats is a snapshot of resolver counters.
type Stats struct {
	Hits      uint64 // served from cache without entering a load flight
	Misses    uint64 // cache misses that entered a load flight
	Loads     uint64 // physical loads from the store
	Coalesced uint64 // callers that shared another caller's flight
	Failures  uint64 // loads that failed or produced a corrupt page
}

// Resolver resolves page references through a shared cache, falling back to
// the page store. Concurrent misses for one reference share a single load.
type Resolver struct {
	store   storage.PageStore
	cache   Cache
	flights singleflight.Group
	workers int
	logger  logging.Logger

	hits      atomic.Uint64
	misses    atomic.Uint64
	loads     atomic.Uint64
	coalesced atomic.Uint64
	failures  atomic.Uint64
}

// New creates a Resolver over store and cache.
func New(store storage.PageStore, cache Cache, opts Options) *Resolver {
	if opts.PrefetchWorkers <= 0 {
		opts.PrefetchWorkers = DefaultPrefetchWorkers
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	return &Resolver{
		store:   store,
		cache:   cache,
		workers: opts.PrefetchWorkers,
		logger:  opts.Logger.Named("resolver"),
	}
}

// Resolve returns the page for ref. Store errors and pages whose bytes do
// not hash to ref are reported as ErrStorageFailure.
func (r *Resolver) Resolve(ref storage.PageRef) (storage.Page, error) {
	if ref.IsZero() {
		return nil, storage.StorageFailure("resolve", storage.ErrPageNotFound)
	}
	if p, ok := r.cache.Get(ref); ok {
		r.hits.Add(1)
		return p, nil
	}
	r.misses.Add(1)

	v, err, shared := r.flights.Do(string(ref[:]), func() (interface{}, error) {
		// A flight that finished between our miss and Do already filled the cache.
		if p, ok := r.cache.Get(ref); ok {
			return p, nil
		}
		return r.load(ref)
	})
	if shared {
		r.coalesced.Add(1)
	}
	if err != nil {
		return nil, err
	}
	return v.(storage.Page), nil
}

func (r *Resolver) load(ref storage.PageRef) (storage.Page, error) {
	r.loads.Add(1)

	data, err := r.store.Load(ref)
	if err != nil {
		r.failures.Add(1)
		r.logger.Warn("page load failed", "ref", ref.Short(), "error", err)
		return nil, storage.StorageFailure("load page "+ref.Short(), err)
	}
	if storage.RefOf(data) != ref {
		r.failures.Add(1)
		r.logger.Warn("page digest mismatch", "ref", ref.Short(), "bytes", len(data))
		return nil, storage.StorageFailure("verify page "+ref.Short(), storage.ErrCorruptPage)
	}

	p, err := storage.DecodePage(data)
	if err != nil {
		r.failures.Add(1)
		r.logger.Warn("page decode failed", "ref", ref.Short(), "error", err)
		return nil, storage.StorageFailure("decode page "+ref.Short(), err)
	}

	r.cache.Put(ref, p)
	r.logger.Debug("page loaded", "ref", ref.Short(), "kind", p.Kind(), "bytes", len(data))
	return p, nil
}

// ResolveRoot resolves ref and asserts it is a revision root page.
func (r *Resolver) ResolveRoot(ref storage.PageRef) (*storage.RevisionRootPage, error) {
	p, err := r.Resolve(ref)
	if err != nil {
		return nil, err
	}
	root, ok := p.(*storage.RevisionRootPage)
	if !ok {
		return nil, storage.StorageFailure("resolve root", fmt.Errorf("%w: %s page at %s", storage.ErrInvalidPageKind, p.Kind(), ref.Short()))
	}
	return root, nil
}

// Prefetch resolves refs concurrently, warming the cache. Zero references
// are skipped. The first failure cancels outstanding work and is returned.
func (r *Resolver) Prefetch(ctx context.Context, refs []storage.PageRef) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, ref := range refs {
		if ref.IsZero() {
			continue
		}
		if gctx.Err() != nil {
			break
		}
		ref := ref
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, err := r.Resolve(ref)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Stats returns a snapshot of the resolver counters.
func (r *Resolver) Stats() Stats {
	return Stats{
		Hits:      r.hits.Load(),
		Misses:    r.misses.Load(),
		Loads:     r.loads.Load(),
		Coalesced: r.coalesced.Load(),
		Failures:  r.failures.Load(),
	}
}
