// Package axis provides traversal iterators built on the cursor navigation
// contract.
//
// Iterators move the cursor they are given. When an iterator is exhausted
// it puts the cursor back on the node it started from.
//
//	it := axis.Descendant(cur, true)
//	for it.Next() {
//	    fmt.Println(it.Record().ID)
//	}
//	if err := it.Err(); err != nil {
//	    return err
//	}
package axis

import (
	"github.com/KilimcininKorOglu/revtree/internal/node"
	"github.com/KilimcininKorOglu/revtree/internal/storage"
)

// Navigator is the subset of the cursor used by the axes.
type Navigator interface {
	NodeID() (storage.NodeID, error)
	CurrentNode() (node.Record, error)
	SetCurrentNode(id storage.NodeID) error
	MoveToParent() (bool, error)
	MoveToFirstChild() (bool, error)
	MoveToRightSibling() (bool, error)
}

// Iterator walks an axis.
type Iterator interface {
	// Next advances to the next node and reports whether there is one.
	Next() bool
	// Record returns the node at the current position.
	Record() node.Record
	// Err returns the first error met, if any.
	Err() error
}

type base struct {
	nav   Navigator
	start storage.NodeID
	rec   node.Record
	err   error
	done  bool
}

func (b *base) init(nav Navigator) {
	b.nav = nav
	b.start, b.err = nav.NodeID()
	if b.err != nil {
		b.done = true
	}
}

func (b *base) Record() node.Record { return b.rec }
func (b *base) Err() error          { return b.err }

// emit records the cursor position as the current item.
func (b *base) emit() bool {
	rec, err := b.nav.CurrentNode()
	if err != nil {
		return b.fail(err)
	}
	b.rec = rec
	return true
}

func (b *base) fail(err error) bool {
	b.err = err
	b.done = true
	return false
}

// finish restores the start position and ends the iteration.
func (b *base) finish() bool {
	b.done = true
	if err := b.nav.SetCurrentNode(b.start); err != nil && b.err == nil {
		b.err = err
	}
	return false
}

// descendant walks the subtree of the start node in pre-order.
type descendant struct {
	base
	includeSelf bool
	started     bool
}

// Descendant returns a pre-order iterator over the subtree of the current
// node, starting with the node itself when includeSelf is set.
func Descendant(nav Navigator, includeSelf bool) Iterator {
	it := &descendant{includeSelf: includeSelf}
	it.init(nav)
	return it
}

func (it *descendant) Next() bool {
	if it.done {
		return false
	}
	if !it.started {
		it.started = true
		if it.includeSelf {
			return it.emit()
		}
	}

	ok, err := it.nav.MoveToFirstChild()
	if err != nil {
		return it.fail(err)
	}
	if ok {
		return it.emit()
	}

	// Climb until a right sibling exists, never leaving the subtree.
	for {
		id, err := it.nav.NodeID()
		if err != nil {
			return it.fail(err)
		}
		if id == it.start {
			return it.finish()
		}
		ok, err := it.nav.MoveToRightSibling()
		if err != nil {
			return it.fail(err)
		}
		if ok {
			return it.emit()
		}
		if ok, err = it.nav.MoveToParent(); err != nil {
			return it.fail(err)
		} else if !ok {
			return it.finish()
		}
	}
}

// children walks the direct children of the start node.
type children struct {
	base
	started bool
}

// Children returns an iterator over the children of the current node.
func Children(nav Navigator) Iterator {
	it := &children{}
	it.init(nav)
	return it
}

func (it *children) Next() bool {
	if it.done {
		return false
	}

	var ok bool
	var err error
	if !it.started {
		it.started = true
		ok, err = it.nav.MoveToFirstChild()
	} else {
		ok, err = it.nav.MoveToRightSibling()
	}
	if err != nil {
		return it.fail(err)
	}
	if !ok {
		return it.finish()
	}
	return it.emit()
}

// Collect drains it and returns the node IDs it produced.
func Collect(it Iterator) ([]storage.NodeID, error) {
	var ids []storage.NodeID
	for it.Next() {
		ids = append(ids, it.Record().ID)
	}
	return ids, it.Err()
}
