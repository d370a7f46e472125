package tx

import (
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/KilimcininKorOglu/revtree/internal/logging"
	"github.com/KilimcininKorOglu/revtree/internal/node"
	"github.com/KilimcininKorOglu/revtree/internal/storage"
)

// PageResolver resolves page references to decoded pages.
type PageResolver interface {
	Resolve(ref storage.PageRef) (storage.Page, error)
	ResolveRoot(ref storage.PageRef) (*storage.RevisionRootPage, error)
}

// RevisionIndex maps revisions to root page references.
type RevisionIndex interface {
	RootRef(rev int) (storage.PageRef, error)
}

// Options configures a PageReadTrx.
type Options struct {
	// IDs generates transaction IDs. Defaults to a shared node 0 generator.
	IDs *snowflake.Node

	// Logger receives bind and rebind events. Defaults to a no-op logger.
	Logger logging.Logger
}

var (
	defaultIDsOnce sync.Once
	defaultIDs     *snowflake.Node
)

func defaultIDNode() *snowflake.Node {
	defaultIDsOnce.Do(func() {
		// Node 0 is always in range.
		defaultIDs, _ = snowflake.NewNode(0)
	})
	return defaultIDs
}

// binding is the immutable state of one bind.
type binding struct {
	rootRef storage.PageRef
	root    *storage.RevisionRootPage
}

// PageReadTrx is a read transaction bound to one revision. GetRecord and
// the metadata accessors are safe for concurrent use.
type PageReadTrx struct {
	resolver PageResolver
	index    RevisionIndex
	id       snowflake.ID
	logger   logging.Logger

	mu        sync.Mutex
	bound     *binding
	epoch     uint64
	active    int
	rebinding bool
	closed    bool
}

// Begin creates a transaction bound to rev.
func Begin(resolver PageResolver, index RevisionIndex, rev int, opts Options) (*PageReadTrx, error) {
	if opts.IDs == nil {
		opts.IDs = defaultIDNode()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	t := &PageReadTrx{
		resolver: resolver,
		index:    index,
		id:       opts.IDs.Generate(),
	}
	t.logger = opts.Logger.Named("trx").WithFields("trx", t.id.String())

	b, err := t.bind(rev)
	if err != nil {
		return nil, err
	}
	t.bound = b
	t.logger.Debug("bound", "revision", rev, "items", b.root.ItemCount)
	return t, nil
}

func (t *PageReadTrx) bind(rev int) (*binding, error) {
	ref, err := t.index.RootRef(rev)
	if err != nil {
		return nil, err
	}
	root, err := t.resolver.ResolveRoot(ref)
	if err != nil {
		return nil, err
	}
	if root.Revision != rev {
		return nil, storage.StorageFailure("bind", fmt.Errorf("%w: root page of revision %d claims revision %d",
			storage.ErrCorruptPage, rev, root.Revision))
	}
	return &binding{rootRef: ref, root: root}, nil
}

// enter registers a navigation call and returns the binding it must use.
func (t *PageReadTrx) enter() (*binding, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, storage.ErrClosed
	}
	if t.rebinding {
		return nil, storage.ErrRebindInProgress
	}
	t.active++
	return t.bound, nil
}

func (t *PageReadTrx) leave() {
	t.mu.Lock()
	t.active--
	t.mu.Unlock()
}

// GetRecord returns the record of id in the bound revision.
func (t *PageReadTrx) GetRecord(id storage.NodeID) (node.Record, error) {
	b, err := t.enter()
	if err != nil {
		return node.Record{}, err
	}
	defer t.leave()

	return t.lookup(b, id)
}

func (t *PageReadTrx) lookup(b *binding, id storage.NodeID) (node.Record, error) {
	root := b.root
	if id.IsNull() || id > root.MaxNodeID || root.TrieRef.IsZero() {
		return node.Record{}, notFound(id, root.Revision)
	}

	pageIndex := storage.RecordPageIndex(id)
	if pageIndex>>(storage.IndirectShift*uint(root.Height)) != 0 {
		return node.Record{}, notFound(id, root.Revision)
	}

	ref := root.TrieRef
	for level := root.Height; level >= 1; level-- {
		p, err := t.resolver.Resolve(ref)
		if err != nil {
			return node.Record{}, err
		}
		ind, ok := p.(*storage.IndirectPage)
		if !ok {
			return node.Record{}, wrongKind(p, ref, storage.PageKindIndirect)
		}
		ref = ind.Refs[storage.IndirectSlot(pageIndex, level)]
		if ref.IsZero() {
			return node.Record{}, notFound(id, root.Revision)
		}
	}

	p, err := t.resolver.Resolve(ref)
	if err != nil {
		return node.Record{}, err
	}
	page, ok := p.(*storage.RecordPage)
	if !ok {
		return node.Record{}, wrongKind(p, ref, storage.PageKindRecord)
	}
	if page.Index != pageIndex {
		return node.Record{}, storage.StorageFailure("get record", fmt.Errorf("%w: record page %s has index %d, want %d",
			storage.ErrCorruptPage, ref.Short(), page.Index, pageIndex))
	}

	data := page.Record(id)
	if data == nil {
		return node.Record{}, notFound(id, root.Revision)
	}
	rec, err := node.Decode(id, data)
	if err != nil {
		return node.Record{}, storage.StorageFailure("decode record", fmt.Errorf("%w: %w", storage.ErrCorruptPage, err))
	}
	return rec, nil
}

func notFound(id storage.NodeID, rev int) error {
	return fmt.Errorf("%w: %d in revision %d", storage.ErrNodeNotFound, id, rev)
}

func wrongKind(p storage.Page, ref storage.PageRef, want storage.PageKind) error {
	return storage.StorageFailure("get record", fmt.Errorf("%w: %s page at %s, want %s",
		storage.ErrInvalidPageKind, p.Kind(), ref.Short(), want))
}

// Rebind moves the transaction to rev. The old binding stays in place if
// rev cannot be bound.
func (t *PageReadTrx) Rebind(rev int) error {
	t.mu.Lock()
	switch {
	case t.closed:
		t.mu.Unlock()
		return storage.ErrClosed
	case t.rebinding:
		t.mu.Unlock()
		return storage.ErrRebindInProgress
	case t.active > 0:
		t.mu.Unlock()
		return storage.ErrNavigationPending
	}
	t.rebinding = true
	from := t.bound.root.Revision
	t.mu.Unlock()

	b, err := t.bind(rev)

	t.mu.Lock()
	t.rebinding = false
	if err == nil {
		t.bound = b
		t.epoch++
	}
	t.mu.Unlock()

	if err != nil {
		t.logger.Debug("rebind failed", "from", from, "to", rev, "error", err)
		return err
	}
	t.logger.Debug("rebound", "from", from, "to", rev)
	return nil
}

// Close releases the transaction. Closing twice is a no-op.
func (t *PageReadTrx) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.closed {
		t.closed = true
		t.logger.Debug("closed")
	}
	return nil
}

// IsClosed reports whether Close has been called.
func (t *PageReadTrx) IsClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *PageReadTrx) current() *binding {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bound
}

// Epoch counts successful rebinds. Records read under one epoch are stale
// once it changes.
func (t *PageReadTrx) Epoch() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.epoch
}

// ID returns the transaction identifier.
func (t *PageReadTrx) ID() snowflake.ID {
	return t.id
}

// RevisionNumber returns the bound revision.
func (t *PageReadTrx) RevisionNumber() int {
	return t.current().root.Revision
}

// ItemCount returns the number of nodes in the bound revision.
func (t *PageReadTrx) ItemCount() uint64 {
	return t.current().root.ItemCount
}

// MaxNodeID returns the largest node ID ever assigned up to the bound revision.
func (t *PageReadTrx) MaxNodeID() storage.NodeID {
	return t.current().root.MaxNodeID
}

// RootNodeID returns the document root node of the bound revision.
func (t *PageReadTrx) RootNodeID() storage.NodeID {
	return t.current().root.RootNodeID
}

// CommitTime returns when the bound revision was committed.
func (t *PageReadTrx) CommitTime() time.Time {
	return t.current().root.CommittedAt
}

// RootRef returns the revision root page reference of the bound revision.
func (t *PageReadTrx) RootRef() storage.PageRef {
	return t.current().rootRef
}
