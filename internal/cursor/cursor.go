package cursor

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/KilimcininKorOglu/revtree/internal/node"
	"github.com/KilimcininKorOglu/revtree/internal/storage"
)

// PageReader is the page read transaction a cursor navigates.
type PageReader interface {
	GetRecord(id storage.NodeID) (node.Record, error)
	RevisionNumber() int
	ItemCount() uint64
	RootNodeID() storage.NodeID
	Close() error

	// Epoch changes whenever the transaction is rebound to another
	// revision.
	Epoch() uint64
}

// state is the cursor position. rec is only meaningful while valid and
// read under the transaction's current epoch; otherwise id is kept and rec
// is re-read on demand.
type state struct {
	id     storage.NodeID
	rec    node.Record
	epoch  uint64
	valid  bool
	closed bool
}

func (s *state) moveTo(rec node.Record, epoch uint64) {
	s.id = rec.ID
	s.rec = rec
	s.epoch = epoch
	s.valid = true
}

// Cursor is a current-node pointer bound to one page read transaction.
type Cursor struct {
	trx PageReader
	st  state
}

// Open creates a cursor on trx positioned at the document root. The
// cursor takes ownership of trx.
func Open(trx PageReader) (*Cursor, error) {
	if trx == nil {
		return nil, fmt.Errorf("%w: nil page read transaction", storage.ErrIllegalState)
	}
	c := &Cursor{trx: trx}
	rec, epoch, err := c.read(trx.RootNodeID())
	if err != nil {
		return nil, fmt.Errorf("open cursor at document root: %w", err)
	}
	c.st.moveTo(rec, epoch)
	return c, nil
}

func (c *Cursor) assertNotClosed() error {
	if c.st.closed {
		return storage.ErrClosed
	}
	return nil
}

// guarded is the entry point of every accessor.
func guarded[T any](c *Cursor, fn func() (T, error)) (T, error) {
	if err := c.assertNotClosed(); err != nil {
		var zero T
		return zero, err
	}
	return fn()
}

// read fetches id together with the epoch it was read under. The epoch is
// taken first so a rebind racing the read leaves the record stale.
func (c *Cursor) read(id storage.NodeID) (node.Record, uint64, error) {
	epoch := c.trx.Epoch()
	rec, err := c.trx.GetRecord(id)
	return rec, epoch, err
}

// current returns the record at the cursor, re-reading it if the
// transaction was replaced or rebound since it was last resolved.
func (c *Cursor) current() (node.Record, error) {
	if !c.st.valid || c.st.epoch != c.trx.Epoch() {
		rec, epoch, err := c.read(c.st.id)
		if err != nil {
			return node.Record{}, err
		}
		c.st.moveTo(rec, epoch)
	}
	return c.st.rec, nil
}

// CurrentNode returns a copy of the record at the cursor.
func (c *Cursor) CurrentNode() (node.Record, error) {
	return guarded(c, func() (node.Record, error) {
		rec, err := c.current()
		if err != nil {
			return node.Record{}, err
		}
		rec.Value = bytes.Clone(rec.Value)
		return rec, nil
	})
}

// StructuralView returns the structural view of the current node. Leaf
// kinds report no children.
func (c *Cursor) StructuralView() (node.StructNode, error) {
	return guarded(c, func() (node.StructNode, error) {
		rec, err := c.current()
		if err != nil {
			return node.StructNode{}, err
		}
		return rec.Struct(), nil
	})
}

// NodeID returns the ID at the cursor. It does not re-read the node.
func (c *Cursor) NodeID() (storage.NodeID, error) {
	return guarded(c, func() (storage.NodeID, error) {
		return c.st.id, nil
	})
}

// Kind returns the kind of the current node.
func (c *Cursor) Kind() (node.Kind, error) {
	return guarded(c, func() (node.Kind, error) {
		rec, err := c.current()
		if err != nil {
			return node.KindUnknown, err
		}
		return rec.Kind, nil
	})
}

// SetCurrentNode moves the cursor to id. The cursor stays in place if id
// does not resolve.
func (c *Cursor) SetCurrentNode(id storage.NodeID) error {
	_, err := guarded(c, func() (struct{}, error) {
		rec, epoch, err := c.read(id)
		if err != nil {
			return struct{}{}, err
		}
		c.st.moveTo(rec, epoch)
		return struct{}{}, nil
	})
	return err
}

// MoveTo moves the cursor to id and reports whether it exists in the bound
// revision. Storage failures are returned as errors.
func (c *Cursor) MoveTo(id storage.NodeID) (bool, error) {
	return guarded(c, func() (bool, error) {
		if id.IsNull() {
			return false, nil
		}
		rec, epoch, err := c.read(id)
		if errors.Is(err, storage.ErrNodeNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		c.st.moveTo(rec, epoch)
		return true, nil
	})
}

// MoveToDocumentRoot moves the cursor to the document root.
func (c *Cursor) MoveToDocumentRoot() (bool, error) {
	return guarded(c, func() (bool, error) {
		return c.MoveTo(c.trx.RootNodeID())
	})
}

// follow moves along one structural link of the current node.
func (c *Cursor) follow(link func(node.StructNode) storage.NodeID) (bool, error) {
	return guarded(c, func() (bool, error) {
		rec, err := c.current()
		if err != nil {
			return false, err
		}
		target := link(rec.Struct())
		if target.IsNull() {
			return false, nil
		}
		next, epoch, err := c.read(target)
		if err != nil {
			return false, fmt.Errorf("follow link %d -> %d: %w", rec.ID, target, err)
		}
		if epoch != c.st.epoch {
			return false, fmt.Errorf("follow link %d -> %d: %w", rec.ID, target, storage.ErrRebindInProgress)
		}
		c.st.moveTo(next, epoch)
		return true, nil
	})
}

// MoveToParent moves to the parent node.
func (c *Cursor) MoveToParent() (bool, error) {
	return c.follow(func(s node.StructNode) storage.NodeID { return s.ParentID })
}

// MoveToFirstChild moves to the first child.
func (c *Cursor) MoveToFirstChild() (bool, error) {
	return c.follow(func(s node.StructNode) storage.NodeID { return s.FirstChildID })
}

// MoveToLastChild moves to the last child.
func (c *Cursor) MoveToLastChild() (bool, error) {
	return c.follow(func(s node.StructNode) storage.NodeID { return s.LastChildID })
}

// MoveToLeftSibling moves to the left sibling.
func (c *Cursor) MoveToLeftSibling() (bool, error) {
	return c.follow(func(s node.StructNode) storage.NodeID { return s.LeftSiblingID })
}

// MoveToRightSibling moves to the right sibling.
func (c *Cursor) MoveToRightSibling() (bool, error) {
	return c.follow(func(s node.StructNode) storage.NodeID { return s.RightSiblingID })
}

// RevisionNumber returns the revision of the bound transaction.
func (c *Cursor) RevisionNumber() (int, error) {
	return guarded(c, func() (int, error) {
		return c.trx.RevisionNumber(), nil
	})
}

// ItemCount returns the number of nodes in the bound revision.
func (c *Cursor) ItemCount() (uint64, error) {
	return guarded(c, func() (uint64, error) {
		return c.trx.ItemCount(), nil
	})
}

// PageReadTrx returns the bound transaction.
func (c *Cursor) PageReadTrx() (PageReader, error) {
	return guarded(c, func() (PageReader, error) {
		return c.trx, nil
	})
}

// SetPageReadTrx binds the cursor to trx and closes the transaction it
// replaces. The position is kept; if the current node does not exist in
// the new revision, reads fail with storage.ErrNodeNotFound until the
// cursor is moved to a node that does.
func (c *Cursor) SetPageReadTrx(trx PageReader) error {
	_, err := guarded(c, func() (struct{}, error) {
		if trx == nil {
			return struct{}{}, fmt.Errorf("%w: nil page read transaction", storage.ErrIllegalState)
		}
		if trx == c.trx {
			return struct{}{}, nil
		}
		old := c.trx
		c.trx = trx
		c.st.valid = false
		return struct{}{}, old.Close()
	})
	return err
}

// Close closes the cursor and its transaction. Closing twice is a no-op.
func (c *Cursor) Close() error {
	if c.st.closed {
		return nil
	}
	c.st.closed = true
	c.st.valid = false
	trx := c.trx
	c.trx = nil
	return trx.Close()
}

// IsClosed reports whether the cursor is closed.
func (c *Cursor) IsClosed() bool {
	return c.st.closed
}
