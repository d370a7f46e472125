package node

import (
	"errors"
	"strconv"

	"github.com/KilimcininKorOglu/revtree/internal/storage"
)

// Payload errors.
var (
	ErrWrongKind = errors.New("payload not available for node kind")
)

// Record is an immutable node record. A change to a node is stored as a new
// Record with the same ID in a later revision.
type Record struct {
	ID   storage.NodeID
	Kind Kind

	Parent       storage.NodeID
	FirstChild   storage.NodeID
	LastChild    storage.NodeID
	LeftSibling  storage.NodeID
	RightSibling storage.NodeID

	ChildCount      uint64
	DescendantCount uint64

	Name  string
	Value []byte
}

// Struct returns the structural view of the record. Kinds without structure
// report no children regardless of the stored links.
func (r Record) Struct() StructNode {
	s := StructNode{
		ParentID:       r.Parent,
		LeftSiblingID:  r.LeftSibling,
		RightSiblingID: r.RightSibling,
	}
	if r.Kind.HasStructure() {
		s.FirstChildID = r.FirstChild
		s.LastChildID = r.LastChild
		s.ChildCount = r.ChildCount
		s.DescendantCount = r.DescendantCount
	}
	return s
}

// StringValue returns the value of a string, number, attribute, text or
// comment node.
func (r Record) StringValue() (string, error) {
	switch r.Kind {
	case KindString, KindNumber, KindAttribute, KindText, KindComment:
		return string(r.Value), nil
	default:
		return "", ErrWrongKind
	}
}

// NumberValue parses the value of a number node.
func (r Record) NumberValue() (float64, error) {
	if r.Kind != KindNumber {
		return 0, ErrWrongKind
	}
	return strconv.ParseFloat(string(r.Value), 64)
}

// BoolValue returns the value of a boolean node.
func (r Record) BoolValue() (bool, error) {
	if r.Kind != KindBoolean {
		return false, ErrWrongKind
	}
	return len(r.Value) == 1 && r.Value[0] == 1, nil
}

// StructNode is the structural view of a record: its place in the tree,
// independent of the payload kind.
type StructNode struct {
	ParentID       storage.NodeID
	FirstChildID   storage.NodeID
	LastChildID    storage.NodeID
	LeftSiblingID  storage.NodeID
	RightSiblingID storage.NodeID

	ChildCount      uint64
	DescendantCount uint64
}

// HasParent returns true unless the node is a root.
func (s StructNode) HasParent() bool {
	return !s.ParentID.IsNull()
}

// HasChildren returns true if the node has at least one child.
func (s StructNode) HasChildren() bool {
	return !s.FirstChildID.IsNull()
}

// HasFirstChild is an alias of HasChildren.
func (s StructNode) HasFirstChild() bool {
	return !s.FirstChildID.IsNull()
}

// HasLastChild returns true if the node has a last child.
func (s StructNode) HasLastChild() bool {
	return !s.LastChildID.IsNull()
}

// HasLeftSibling returns true if the node has a left sibling.
func (s StructNode) HasLeftSibling() bool {
	return !s.LeftSiblingID.IsNull()
}

// HasRightSibling returns true if the node has a right sibling.
func (s StructNode) HasRightSibling() bool {
	return !s.RightSiblingID.IsNull()
}
