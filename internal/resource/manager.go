// Package resource ties the store, page cache, resolver, revision index and
// commit path of one document together.
package resource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/bwmarrin/snowflake"

	"github.com/KilimcininKorOglu/revtree/internal/cursor"
	"github.com/KilimcininKorOglu/revtree/internal/logging"
	"github.com/KilimcininKorOglu/revtree/internal/shred"
	"github.com/KilimcininKorOglu/revtree/internal/storage"
	"github.com/KilimcininKorOglu/revtree/internal/storage/cache"
	"github.com/KilimcininKorOglu/revtree/internal/storage/cow"
	"github.com/KilimcininKorOglu/revtree/internal/storage/resolve"
	"github.com/KilimcininKorOglu/revtree/internal/storage/revision"
	"github.com/KilimcininKorOglu/revtree/internal/storage/tx"
)

// Manager errors.
var (
	ErrManagerClosed = fmt.Errorf("%w: resource manager closed", storage.ErrIllegalState)
	ErrNoRevisions   = errors.New("no revision committed")
)

// Stats is a snapshot of the manager's counters.
type Stats struct {
	Revisions int
	Cache     cache.Stats
	Resolver  resolve.Stats
}

// Manager gives access to the revisions of one document.
type Manager struct {
	store    storage.PageStore
	owned    io.Closer
	cache    *cache.PageCache
	resolver *resolve.Resolver
	index    *revision.Index
	writer   *cow.Writer
	ids      *snowflake.Node
	logger   logging.Logger

	mu     sync.RWMutex
	closed bool
}

// Open creates a Manager over store. The revision index is rebuilt from the
// store's revision log.
func Open(store storage.PageStore, opts Options) (*Manager, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	ids, err := snowflake.NewNode(opts.NodeNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNodeNumber, err)
	}
	index, err := revision.Load(store)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger.Named("resource")
	pages := cache.New(opts.CacheSize)
	resolver := resolve.New(store, pages, resolve.Options{
		PrefetchWorkers: opts.PrefetchWorkers,
		Logger:          logger,
	})

	m := &Manager{
		store:    store,
		cache:    pages,
		resolver: resolver,
		index:    index,
		writer:   cow.NewWriter(store, index, resolver, cow.Options{Logger: logger, Now: opts.Now}),
		ids:      ids,
		logger:   logger,
	}
	logger.Info("opened", "latest", index.Latest(), "cache", opts.CacheSize)
	return m, nil
}

// OpenDir opens a file store in dir and a Manager over it. Close closes the
// store.
func OpenDir(dir string, opts Options) (*Manager, error) {
	store, err := storage.OpenFileStore(dir)
	if err != nil {
		return nil, err
	}
	m, err := Open(store, opts)
	if err != nil {
		store.Close()
		return nil, err
	}
	m.owned = store
	return m, nil
}

func (m *Manager) check() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrManagerClosed
	}
	return nil
}

// Bootstrap commits revision 0, an empty document holding only its root,
// if the store has no revisions yet. It returns the latest revision.
func (m *Manager) Bootstrap() (int, error) {
	if err := m.check(); err != nil {
		return 0, err
	}
	if latest := m.index.Latest(); latest >= 0 {
		return latest, nil
	}

	txn, err := m.writer.Begin()
	if err != nil {
		return 0, err
	}
	if txn.BaseRevision() >= 0 {
		// Another writer got there first.
		txn.Abort()
		return m.index.Latest(), nil
	}

	id, err := shred.New(txn).InitDocument()
	if err != nil {
		txn.Abort()
		return 0, err
	}
	rev, err := txn.Commit()
	if err != nil {
		return 0, err
	}
	m.logger.Info("bootstrapped", "revision", rev, "root", id)
	return rev, nil
}

// LatestRevision returns the latest committed revision.
func (m *Manager) LatestRevision() (int, error) {
	if err := m.check(); err != nil {
		return 0, err
	}
	latest := m.index.Latest()
	if latest < 0 {
		return 0, ErrNoRevisions
	}
	return latest, nil
}

// BeginPageReadTrx starts a page read transaction on rev.
func (m *Manager) BeginPageReadTrx(rev int) (*tx.PageReadTrx, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	return tx.Begin(m.resolver, m.index, rev, tx.Options{IDs: m.ids, Logger: m.logger})
}

// BeginNodeReadTrx opens a cursor on rev positioned at the document root.
func (m *Manager) BeginNodeReadTrx(rev int) (*cursor.Cursor, error) {
	trx, err := m.BeginPageReadTrx(rev)
	if err != nil {
		return nil, err
	}
	c, err := cursor.Open(trx)
	if err != nil {
		trx.Close()
		return nil, err
	}
	return c, nil
}

// BeginWrite opens the write transaction. Only one may be open at a time.
func (m *Manager) BeginWrite() (*cow.Txn, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	return m.writer.Begin()
}

// Warm loads every page of rev into the cache, one trie level at a time.
func (m *Manager) Warm(ctx context.Context, rev int) error {
	if err := m.check(); err != nil {
		return err
	}
	ref, err := m.index.RootRef(rev)
	if err != nil {
		return err
	}
	root, err := m.resolver.ResolveRoot(ref)
	if err != nil {
		return err
	}

	level := []storage.PageRef{root.TrieRef}
	for h := root.Height; h >= 0; h-- {
		if err := m.resolver.Prefetch(ctx, level); err != nil {
			return err
		}
		if h == 0 {
			break
		}
		var next []storage.PageRef
		for _, r := range level {
			if r.IsZero() {
				continue
			}
			p, err := m.resolver.Resolve(r)
			if err != nil {
				return err
			}
			ind, ok := p.(*storage.IndirectPage)
			if !ok {
				return storage.StorageFailure("warm", fmt.Errorf("%w: %s page at %s", storage.ErrInvalidPageKind, p.Kind(), r.Short()))
			}
			for _, child := range ind.Refs {
				if !child.IsZero() {
					next = append(next, child)
				}
			}
		}
		level = next
	}
	return nil
}

// Stats returns a snapshot of the manager's counters.
func (m *Manager) Stats() Stats {
	return Stats{
		Revisions: m.index.Latest() + 1,
		Cache:     m.cache.Stats(),
		Resolver:  m.resolver.Stats(),
	}
}

// Close releases the manager and refuses new transactions. Closing twice is
// a no-op.
//
// Transactions and cursors already handed out are not invalidated. Over a
// caller-owned store they keep working until closed by their owners. A
// manager from OpenDir also closes its FileStore, so any page they still
// have to load fails with storage.ErrStorageFailure wrapping
// storage.ErrStoreClosed. Close them first.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.logger.Info("closed", "latest", m.index.Latest())
	if m.owned != nil {
		return m.owned.Close()
	}
	return nil
}
