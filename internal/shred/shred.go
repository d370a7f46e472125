// Package shred turns document trees into node records inside a write
// transaction.
package shred

import (
	"errors"
	"fmt"

	"github.com/KilimcininKorOglu/revtree/internal/node"
	"github.com/KilimcininKorOglu/revtree/internal/storage"
	"github.com/KilimcininKorOglu/revtree/internal/storage/cow"
)

// Shredder errors.
var (
	ErrNotContainer     = errors.New("parent node cannot have children")
	ErrLeafWithChildren = errors.New("leaf node kind cannot have children")
	ErrInvalidKind      = errors.New("invalid node kind")
	ErrNoDocument       = errors.New("transaction has no document root")
)

// Node is a document tree to be shredded.
type Node struct {
	Kind     node.Kind
	Name     string
	Value    []byte
	Children []*Node
}

// Size returns the number of nodes in the tree.
func (n *Node) Size() int {
	size := 1
	for _, c := range n.Children {
		size += c.Size()
	}
	return size
}

// Shredder writes document trees into a write transaction. IDs are assigned
// in pre-order, so a shredded subtree occupies a contiguous ID range.
type Shredder struct {
	txn      *cow.Txn
	inserted int
}

// New creates a Shredder writing into txn.
func New(txn *cow.Txn) *Shredder {
	return &Shredder{txn: txn}
}

// Inserted returns the number of records created so far.
func (s *Shredder) Inserted() int {
	return s.inserted
}

// InitDocument returns the document root of the transaction, creating it if
// the transaction starts from an empty store.
func (s *Shredder) InitDocument() (storage.NodeID, error) {
	if id := s.txn.RootNodeID(); !id.IsNull() {
		return id, nil
	}
	id := s.txn.NextNodeID()
	if err := s.txn.PutRecord(node.Record{ID: id, Kind: node.KindDocument}); err != nil {
		return storage.NullNodeID, err
	}
	s.txn.SetRootNodeID(id)
	s.inserted++
	return id, nil
}

// AppendToDocument appends n as the last child of the document root.
func (s *Shredder) AppendToDocument(n *Node) (storage.NodeID, error) {
	root := s.txn.RootNodeID()
	if root.IsNull() {
		return storage.NullNodeID, ErrNoDocument
	}
	return s.AppendChild(root, n)
}

// AppendChild shreds n as the last child of parent and fixes the links and
// descendant counts of its new siblings and ancestors.
func (s *Shredder) AppendChild(parent storage.NodeID, n *Node) (storage.NodeID, error) {
	p, err := s.txn.Record(parent)
	if err != nil {
		return storage.NullNodeID, err
	}
	if !p.Kind.HasStructure() {
		return storage.NullNodeID, fmt.Errorf("%w: %d is %s", ErrNotContainer, parent, p.Kind)
	}

	rec, err := s.build(n, parent, p.LastChild)
	if err != nil {
		return storage.NullNodeID, err
	}
	if err := s.put(rec); err != nil {
		return storage.NullNodeID, err
	}

	if p.LastChild.IsNull() {
		p.FirstChild = rec.ID
	} else {
		last, err := s.txn.Record(p.LastChild)
		if err != nil {
			return storage.NullNodeID, err
		}
		last.RightSibling = rec.ID
		if err := s.txn.PutRecord(last); err != nil {
			return storage.NullNodeID, err
		}
	}

	added := 1 + rec.DescendantCount
	p.LastChild = rec.ID
	p.ChildCount++
	p.DescendantCount += added
	if err := s.txn.PutRecord(p); err != nil {
		return storage.NullNodeID, err
	}

	for anc := p.Parent; !anc.IsNull(); {
		a, err := s.txn.Record(anc)
		if err != nil {
			return storage.NullNodeID, err
		}
		a.DescendantCount += added
		if err := s.txn.PutRecord(a); err != nil {
			return storage.NullNodeID, err
		}
		anc = a.Parent
	}
	return rec.ID, nil
}

// build allocates IDs for n and its subtree and stores every record of the
// subtree except n's own, which is returned so the caller can link it.
func (s *Shredder) build(n *Node, parent, left storage.NodeID) (node.Record, error) {
	if !n.Kind.Valid() || n.Kind == node.KindDocument {
		return node.Record{}, fmt.Errorf("%w: %s", ErrInvalidKind, n.Kind)
	}
	if len(n.Children) > 0 && !n.Kind.HasStructure() {
		return node.Record{}, fmt.Errorf("%w: %s", ErrLeafWithChildren, n.Kind)
	}

	rec := node.Record{
		ID:          s.txn.NextNodeID(),
		Kind:        n.Kind,
		Parent:      parent,
		LeftSibling: left,
		Name:        n.Name,
		Value:       n.Value,
	}

	var prev *node.Record
	for _, c := range n.Children {
		var leftID storage.NodeID
		if prev != nil {
			leftID = prev.ID
		}
		child, err := s.build(c, rec.ID, leftID)
		if err != nil {
			return node.Record{}, err
		}
		if prev == nil {
			rec.FirstChild = child.ID
		} else {
			prev.RightSibling = child.ID
			if err := s.put(*prev); err != nil {
				return node.Record{}, err
			}
		}
		rec.ChildCount++
		rec.DescendantCount += 1 + child.DescendantCount
		prev = &child
	}
	if prev != nil {
		rec.LastChild = prev.ID
		if err := s.put(*prev); err != nil {
			return node.Record{}, err
		}
	}
	return rec, nil
}

func (s *Shredder) put(rec node.Record) error {
	if err := s.txn.PutRecord(rec); err != nil {
		return err
	}
	s.inserted++
	return nil
}
