package cow

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/KilimcininKorOglu/revtree/internal/logging"
	"github.com/KilimcininKorOglu/revtree/internal/node"
	"github.com/KilimcininKorOglu/revtree/internal/storage"
	"github.com/KilimcininKorOglu/revtree/internal/storage/revision"
)

// Write path errors.
var (
	ErrWriterBusy    = errors.New("another write transaction is active")
	ErrTxnDone       = errors.New("write transaction already finished")
	ErrInvalidNodeID = errors.New("node ID not allocated")
)

// PageResolver resolves page references of the base revision.
type PageResolver interface {
	Resolve(ref storage.PageRef) (storage.Page, error)
	ResolveRoot(ref storage.PageRef) (*storage.RevisionRootPage, error)
}

// Options configures a Writer.
type Options struct {
	// Logger receives commit events. Defaults to a no-op logger.
	Logger logging.Logger

	// Now stamps revision root pages. Defaults to time.Now.
	Now func() time.Time
}

// Writer creates write transactions against one store and revision index.
type Writer struct {
	store    storage.PageStore
	index    *revision.Index
	resolver PageResolver
	logger   logging.Logger
	now      func() time.Time

	mu   sync.Mutex
	busy bool
}

// NewWriter creates a Writer.
func NewWriter(store storage.PageStore, index *revision.Index, resolver PageResolver, opts Options) *Writer {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Writer{
		store:    store,
		index:    index,
		resolver: resolver,
		logger:   opts.Logger.Named("cow"),
		now:      opts.Now,
	}
}

// Begin opens a write transaction on the latest revision.
func (w *Writer) Begin() (*Txn, error) {
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return nil, ErrWriterBusy
	}
	w.busy = true
	w.mu.Unlock()

	txn := &Txn{
		w:       w,
		baseRev: w.index.Latest(),
		dirty:   make(map[storage.NodeID][]byte),
	}
	if txn.baseRev >= 0 {
		ref, err := w.index.RootRef(txn.baseRev)
		if err == nil {
			txn.base, err = w.resolver.ResolveRoot(ref)
		}
		if err != nil {
			w.release()
			return nil, err
		}
		txn.rootID = txn.base.RootNodeID
		txn.maxID = txn.base.MaxNodeID
	}
	return txn, nil
}

func (w *Writer) release() {
	w.mu.Lock()
	w.busy = false
	w.mu.Unlock()
}

// recordPage walks the trie under root down to record page pageIndex. It
// returns nil if the page does not exist.
func (w *Writer) recordPage(root *storage.RevisionRootPage, pageIndex uint64) (*storage.RecordPage, error) {
	if root == nil || root.TrieRef.IsZero() {
		return nil, nil
	}
	if pageIndex>>(storage.IndirectShift*uint(root.Height)) != 0 {
		return nil, nil
	}

	ref := root.TrieRef
	for level := root.Height; level >= 1; level-- {
		ind, err := w.indirect(ref)
		if err != nil {
			return nil, err
		}
		ref = ind.Refs[storage.IndirectSlot(pageIndex, level)]
		if ref.IsZero() {
			return nil, nil
		}
	}

	p, err := w.resolver.Resolve(ref)
	if err != nil {
		return nil, err
	}
	page, ok := p.(*storage.RecordPage)
	if !ok {
		return nil, storage.StorageFailure("read base", fmt.Errorf("%w: %s page at %s", storage.ErrInvalidPageKind, p.Kind(), ref.Short()))
	}
	return page, nil
}

func (w *Writer) indirect(ref storage.PageRef) (*storage.IndirectPage, error) {
	p, err := w.resolver.Resolve(ref)
	if err != nil {
		return nil, err
	}
	ind, ok := p.(*storage.IndirectPage)
	if !ok {
		return nil, storage.StorageFailure("read base", fmt.Errorf("%w: %s page at %s", storage.ErrInvalidPageKind, p.Kind(), ref.Short()))
	}
	return ind, nil
}

func (w *Writer) storePage(p storage.Page) (storage.PageRef, error) {
	data, err := storage.EncodePage(p)
	if err != nil {
		return storage.ZeroRef, err
	}
	ref, err := w.store.Store(data)
	if err != nil {
		return storage.ZeroRef, storage.StorageFailure("store page", err)
	}
	return ref, nil
}

// Txn is a write transaction. It is not safe for concurrent use.
type Txn struct {
	w       *Writer
	base    *storage.RevisionRootPage
	baseRev int

	rootID storage.NodeID
	maxID  storage.NodeID

	// dirty maps changed IDs to their new encoded record; nil means deleted.
	dirty map[storage.NodeID][]byte
	done  bool
}

// BaseRevision returns the revision the transaction started from, or -1.
func (x *Txn) BaseRevision() int {
	return x.baseRev
}

// NextNodeID allocates a new node ID.
func (x *Txn) NextNodeID() storage.NodeID {
	x.maxID++
	return x.maxID
}

// MaxNodeID returns the largest allocated node ID.
func (x *Txn) MaxNodeID() storage.NodeID {
	return x.maxID
}

// RootNodeID returns the document root node ID.
func (x *Txn) RootNodeID() storage.NodeID {
	return x.rootID
}

// SetRootNodeID sets the document root node ID.
func (x *Txn) SetRootNodeID(id storage.NodeID) {
	x.rootID = id
}

func (x *Txn) check(id storage.NodeID) error {
	if x.done {
		return ErrTxnDone
	}
	if id.IsNull() || id > x.maxID {
		return fmt.Errorf("%w: %d (max %d)", ErrInvalidNodeID, id, x.maxID)
	}
	return nil
}

// Put stores encoded record bytes for id.
func (x *Txn) Put(id storage.NodeID, data []byte) error {
	if err := x.check(id); err != nil {
		return err
	}
	x.dirty[id] = append([]byte{}, data...)
	return nil
}

// PutRecord encodes and stores rec.
func (x *Txn) PutRecord(rec node.Record) error {
	data, err := node.Encode(rec)
	if err != nil {
		return err
	}
	return x.Put(rec.ID, data)
}

// Delete removes id from the new revision. Older revisions keep it.
func (x *Txn) Delete(id storage.NodeID) error {
	if err := x.check(id); err != nil {
		return err
	}
	x.dirty[id] = nil
	return nil
}

// Record returns the record for id as this transaction sees it.
func (x *Txn) Record(id storage.NodeID) (node.Record, error) {
	if err := x.check(id); err != nil {
		return node.Record{}, err
	}
	data, ok := x.dirty[id]
	if !ok {
		page, err := x.w.recordPage(x.base, storage.RecordPageIndex(id))
		if err != nil {
			return node.Record{}, err
		}
		if page != nil {
			data = page.Record(id)
		}
	}
	if data == nil {
		return node.Record{}, fmt.Errorf("%w: %d", storage.ErrNodeNotFound, id)
	}
	return node.Decode(id, data)
}

// Abort discards the transaction.
func (x *Txn) Abort() {
	if !x.done {
		x.done = true
		x.w.release()
	}
}

// Commit writes the new revision and publishes it.
func (x *Txn) Commit() (int, error) {
	if x.done {
		return 0, ErrTxnDone
	}
	defer x.Abort()

	c := &committer{w: x.w}
	if x.base != nil {
		c.baseHeight = x.base.Height
		c.baseTop = x.base.TrieRef
		c.items = x.base.ItemCount
	}

	height, err := storage.HeightFor(x.maxID)
	if err != nil {
		return 0, err
	}

	trie := c.baseTop
	if len(x.dirty) > 0 || height != c.baseHeight {
		pages, err := c.recordPages(x.base, x.dirty)
		if err != nil {
			return 0, err
		}
		if len(pages) == 0 {
			trie, err = c.wrap(c.baseTop, height-c.baseHeight)
		} else {
			trie, err = c.rewrite(c.baseTop, height, pages, true)
		}
		if err != nil {
			return 0, err
		}
	}

	rev := x.baseRev + 1
	root := &storage.RevisionRootPage{
		Revision:    rev,
		RootNodeID:  x.rootID,
		MaxNodeID:   x.maxID,
		ItemCount:   c.items,
		Height:      height,
		TrieRef:     trie,
		CommittedAt: x.w.now().UTC(),
	}
	ref, err := x.w.storePage(root)
	if err != nil {
		return 0, err
	}
	if err := x.w.index.Commit(x.w.store, rev, ref); err != nil {
		return 0, err
	}

	x.w.logger.Debug("committed",
		"revision", rev,
		"changed", len(x.dirty),
		"pages", c.written,
		"items", c.items,
		"height", height,
		"root", ref.Short(),
	)
	return rev, nil
}

// pageChange is the new reference of one record page.
type pageChange struct {
	index uint64
	ref   storage.PageRef
}

type committer struct {
	w          *Writer
	baseHeight int
	baseTop    storage.PageRef
	items      uint64
	written    int
}

func (c *committer) store(p storage.Page) (storage.PageRef, error) {
	c.written++
	return c.w.storePage(p)
}

// recordPages patches every record page touched by dirty and returns their
// new references sorted by page index. Emptied pages get the zero reference.
func (c *committer) recordPages(base *storage.RevisionRootPage, dirty map[storage.NodeID][]byte) ([]pageChange, error) {
	byPage := make(map[uint64][]storage.NodeID)
	for id := range dirty {
		idx := storage.RecordPageIndex(id)
		byPage[idx] = append(byPage[idx], id)
	}

	indexes := make([]uint64, 0, len(byPage))
	for idx := range byPage {
		indexes = append(indexes, idx)
	}
	sort.Slice(indexes, func(i, j int) bool { return indexes[i] < indexes[j] })

	changes := make([]pageChange, 0, len(indexes))
	for _, idx := range indexes {
		old, err := c.w.recordPage(base, idx)
		if err != nil {
			return nil, err
		}
		page := &storage.RecordPage{Index: idx}
		if old != nil {
			page = old.Clone()
		}

		for _, id := range byPage[idx] {
			slot := storage.RecordSlot(id)
			had := page.Slots[slot] != nil
			page.Slots[slot] = dirty[id]
			has := page.Slots[slot] != nil
			switch {
			case has && !had:
				c.items++
			case had && !has:
				c.items--
			}
		}

		ref := storage.ZeroRef
		if page.Count() > 0 {
			if ref, err = c.store(page); err != nil {
				return nil, err
			}
		}
		changes = append(changes, pageChange{index: idx, ref: ref})
	}
	return changes, nil
}

// rewrite returns the new reference of the subtree at level after applying
// pages, which must be sorted and all fall under this subtree. spine marks
// the slot 0 path from the top; spine levels above the base height are new
// pages whose slot 0 leads down to the old trie.
func (c *committer) rewrite(ref storage.PageRef, level int, pages []pageChange, spine bool) (storage.PageRef, error) {
	if level == 0 {
		return pages[0].ref, nil
	}

	grown := spine && level > c.baseHeight
	ind := &storage.IndirectPage{}
	if !grown && !ref.IsZero() {
		old, err := c.w.indirect(ref)
		if err != nil {
			return storage.ZeroRef, err
		}
		ind = old.Clone()
	}

	slot0 := false
	for i := 0; i < len(pages); {
		slot := storage.IndirectSlot(pages[i].index, level)
		j := i + 1
		for j < len(pages) && storage.IndirectSlot(pages[j].index, level) == slot {
			j++
		}

		child := ind.Refs[slot]
		if grown && slot == 0 {
			slot0 = true
			child = storage.ZeroRef
			if level-1 == c.baseHeight {
				child = c.baseTop
			}
		}
		next, err := c.rewrite(child, level-1, pages[i:j], grown && slot == 0)
		if err != nil {
			return storage.ZeroRef, err
		}
		ind.Refs[slot] = next
		i = j
	}

	if grown && !slot0 {
		old, err := c.wrap(c.baseTop, level-1-c.baseHeight)
		if err != nil {
			return storage.ZeroRef, err
		}
		ind.Refs[0] = old
	}

	for _, r := range ind.Refs {
		if !r.IsZero() {
			return c.store(ind)
		}
	}
	return storage.ZeroRef, nil
}

// wrap stacks levels indirect pages on top of ref, each holding the one
// below in slot 0.
func (c *committer) wrap(ref storage.PageRef, levels int) (storage.PageRef, error) {
	if ref.IsZero() {
		return ref, nil
	}
	for i := 0; i < levels; i++ {
		ind := &storage.IndirectPage{}
		ind.Refs[0] = ref
		next, err := c.store(ind)
		if err != nil {
			return storage.ZeroRef, err
		}
		ref = next
	}
	return ref, nil
}
