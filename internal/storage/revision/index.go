// Package revision maps committed revision numbers to the reference of
// their revision root page.
//
// The table is a persistent 32-way trie keyed by revision number. Publishing
// revision R+1 copies only the path from the top node to the new leaf slot;
// every other node is shared with the table that served revision R. Readers
// load the current table through an atomic pointer, so a reader sees either
// the table before a publish or the one after it, never a partial update.
package revision

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/KilimcininKorOglu/revtree/internal/storage"
)

const (
	bits  = 5
	width = 1 << bits
	mask  = width - 1
)

// node is either an inner node (kids set) or a leaf (refs set), depending on
// its depth in the trie.
type node struct {
	kids *[width]*node
	refs *[width]storage.PageRef
}

// table is an immutable snapshot of the mapping.
type table struct {
	root  *node
	shift uint
	count int
}

func (t *table) capacity() int {
	return 1 << (t.shift + bits)
}

func (t *table) lookup(rev int) storage.PageRef {
	n := t.root
	for shift := t.shift; shift > 0; shift -= bits {
		n = n.kids[(rev>>shift)&mask]
	}
	return n.refs[rev&mask]
}

// appendRef returns a new table with ref stored at revision t.count.
func (t *table) appendRef(ref storage.PageRef) *table {
	next := &table{root: t.root, shift: t.shift, count: t.count + 1}
	if t.root == nil {
		next.root = &node{refs: new([width]storage.PageRef)}
	} else if t.count == t.capacity() {
		top := &node{kids: new([width]*node)}
		top.kids[0] = t.root
		next.root = top
		next.shift = t.shift + bits
	}
	next.root = pushPath(next.root, next.shift, t.count, ref)
	return next
}

func pushPath(n *node, shift uint, rev int, ref storage.PageRef) *node {
	if shift == 0 {
		leaf := &node{refs: new([width]storage.PageRef)}
		if n != nil {
			*leaf.refs = *n.refs
		}
		leaf.refs[rev&mask] = ref
		return leaf
	}

	inner := &node{kids: new([width]*node)}
	if n != nil {
		*inner.kids = *n.kids
	}
	slot := (rev >> shift) & mask
	inner.kids[slot] = pushPath(inner.kids[slot], shift-bits, rev, ref)
	return inner
}

// Index is the revision number to root page reference table. It is safe
// for any number of concurrent readers and one publisher.
type Index struct {
	current atomic.Pointer[table]
	commit  sync.Mutex
}

// New returns an empty index.
func New() *Index {
	x := &Index{}
	x.current.Store(&table{})
	return x
}

// Load rebuilds an index from the revision log of store.
func Load(store storage.PageStore) (*Index, error) {
	refs, err := store.Revisions()
	if err != nil {
		return nil, storage.StorageFailure("read revisions", err)
	}

	t := &table{}
	for _, ref := range refs {
		t = t.appendRef(ref)
	}

	x := &Index{}
	x.current.Store(t)
	return x, nil
}

// Latest returns the latest committed revision, or -1 if there is none.
func (x *Index) Latest() int {
	return x.current.Load().count - 1
}

// RootRef returns the root page reference of rev. The result for a
// committed revision never changes.
func (x *Index) RootRef(rev int) (storage.PageRef, error) {
	t := x.current.Load()
	if rev < 0 || rev >= t.count {
		return storage.ZeroRef, fmt.Errorf("%w: %d (latest %d)", storage.ErrUnknownRevision, rev, t.count-1)
	}
	return t.lookup(rev), nil
}

// Publish makes rev visible with the given root reference. rev must be
// exactly Latest()+1; a concurrent publisher that loses the race gets
// ErrRevisionConflict.
func (x *Index) Publish(rev int, root storage.PageRef) error {
	if root.IsZero() {
		return fmt.Errorf("%w: zero root reference", storage.ErrCorruptPage)
	}

	old := x.current.Load()
	if rev != old.count {
		return fmt.Errorf("%w: publish %d, latest %d", storage.ErrRevisionConflict, rev, old.count-1)
	}
	if !x.current.CompareAndSwap(old, old.appendRef(root)) {
		return fmt.Errorf("%w: publish %d raced", storage.ErrRevisionConflict, rev)
	}
	return nil
}

// Commit records rev in store and then publishes it. Readers never see a
// revision that the store has not durably accepted.
func (x *Index) Commit(store storage.PageStore, rev int, root storage.PageRef) error {
	x.commit.Lock()
	defer x.commit.Unlock()

	if latest := x.Latest(); rev != latest+1 {
		return fmt.Errorf("%w: commit %d, latest %d", storage.ErrRevisionConflict, rev, latest)
	}
	if err := store.Commit(rev, root); err != nil {
		return storage.StorageFailure("commit revision", err)
	}
	return x.Publish(rev, root)
}

// Revisions returns all committed root references in revision order.
func (x *Index) Revisions() []storage.PageRef {
	t := x.current.Load()
	refs := make([]storage.PageRef, t.count)
	for i := range refs {
		refs[i] = t.lookup(i)
	}
	return refs
}
