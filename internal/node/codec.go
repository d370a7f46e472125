package node

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/KilimcininKorOglu/revtree/internal/storage"
)

// Codec errors.
var (
	ErrInvalidRecord = errors.New("invalid node record")
	ErrIDMismatch    = errors.New("record ID does not match slot")
)

// Encode serializes a record for a record page slot.
//
// Layout: kind byte, then uvarints for ID, parent, first child, last child,
// left sibling, right sibling, child count, descendant count, then the name
// and the value, each prefixed with its uvarint length.
func Encode(r Record) ([]byte, error) {
	if !r.Kind.Valid() {
		return nil, fmt.Errorf("%w: kind %d", ErrInvalidRecord, r.Kind)
	}
	if r.ID.IsNull() {
		return nil, fmt.Errorf("%w: null ID", ErrInvalidRecord)
	}

	buf := make([]byte, 0, 32+len(r.Name)+len(r.Value))
	buf = append(buf, byte(r.Kind))
	for _, v := range [...]uint64{
		uint64(r.ID),
		uint64(r.Parent),
		uint64(r.FirstChild),
		uint64(r.LastChild),
		uint64(r.LeftSibling),
		uint64(r.RightSibling),
		r.ChildCount,
		r.DescendantCount,
	} {
		buf = binary.AppendUvarint(buf, v)
	}
	buf = binary.AppendUvarint(buf, uint64(len(r.Name)))
	buf = append(buf, r.Name...)
	buf = binary.AppendUvarint(buf, uint64(len(r.Value)))
	buf = append(buf, r.Value...)
	return buf, nil
}

// Decode parses a record stored for id. The record does not alias buf.
func Decode(id storage.NodeID, buf []byte) (Record, error) {
	var r Record
	if len(buf) < 1 {
		return r, ErrInvalidRecord
	}

	r.Kind = Kind(buf[0])
	if !r.Kind.Valid() {
		return r, fmt.Errorf("%w: kind %d", ErrInvalidRecord, buf[0])
	}
	buf = buf[1:]

	var fields [8]uint64
	for i := range fields {
		v, n := binary.Uvarint(buf)
		if n <= 0 {
			return r, fmt.Errorf("%w: truncated header", ErrInvalidRecord)
		}
		fields[i] = v
		buf = buf[n:]
	}

	r.ID = storage.NodeID(fields[0])
	r.Parent = storage.NodeID(fields[1])
	r.FirstChild = storage.NodeID(fields[2])
	r.LastChild = storage.NodeID(fields[3])
	r.LeftSibling = storage.NodeID(fields[4])
	r.RightSibling = storage.NodeID(fields[5])
	r.ChildCount = fields[6]
	r.DescendantCount = fields[7]

	if r.ID != id {
		return r, fmt.Errorf("%w: slot %d holds %d", ErrIDMismatch, id, r.ID)
	}

	name, rest, err := readBytes(buf)
	if err != nil {
		return r, err
	}
	value, rest, err := readBytes(rest)
	if err != nil {
		return r, err
	}
	if len(rest) != 0 {
		return r, fmt.Errorf("%w: %d trailing bytes", ErrInvalidRecord, len(rest))
	}

	r.Name = string(name)
	if len(value) > 0 {
		r.Value = append([]byte(nil), value...)
	}
	return r, nil
}

func readBytes(buf []byte) ([]byte, []byte, error) {
	n, size := binary.Uvarint(buf)
	if size <= 0 {
		return nil, nil, fmt.Errorf("%w: truncated length", ErrInvalidRecord)
	}
	buf = buf[size:]
	if uint64(len(buf)) < n {
		return nil, nil, fmt.Errorf("%w: truncated payload", ErrInvalidRecord)
	}
	return buf[:n], buf[n:], nil
}
