package storage

import (
	"encoding/hex"

	"lukechampine.com/blake3"
)

// NodeID identifies a node for the whole lifetime of a document.
type NodeID uint64

// NullNodeID marks an absent structural link.
const NullNodeID NodeID = 0

// IsNull returns true if the ID is the "none" sentinel.
func (id NodeID) IsNull() bool {
	return id == NullNodeID
}

// Trie geometry.
const (
	// RecordPageShift is log2 of the number of record slots per record page.
	RecordPageShift = 7
	// RecordsPerPage is the number of record slots in a record page.
	RecordsPerPage = 1 << RecordPageShift

	// IndirectShift is log2 of the indirect page fan-out.
	IndirectShift = 6
	// IndirectFanout is the number of child references in an indirect page.
	IndirectFanout = 1 << IndirectShift

	// MaxTrieHeight is the tallest trie whose capacity fits in a NodeID.
	MaxTrieHeight = (64 - RecordPageShift) / IndirectShift
)

// RecordPageIndex returns the index of the record page holding id.
func RecordPageIndex(id NodeID) uint64 {
	return uint64(id) >> RecordPageShift
}

// RecordSlot returns the slot of id inside its record page.
func RecordSlot(id NodeID) int {
	return int(uint64(id) & (RecordsPerPage - 1))
}

// IndirectSlot returns the child slot taken at the given indirect level when
// descending towards record page pageIndex. Level 1 is the level directly
// above the record pages.
func IndirectSlot(pageIndex uint64, level int) int {
	return int((pageIndex >> (IndirectShift * uint(level-1))) & (IndirectFanout - 1))
}

// HeightFor returns the smallest trie height able to address maxID.
func HeightFor(maxID NodeID) (int, error) {
	pageIndex := RecordPageIndex(maxID)
	height := 0
	for pageIndex != 0 {
		pageIndex >>= IndirectShift
		height++
	}
	if height > MaxTrieHeight {
		return 0, ErrTrieFull
	}
	return height, nil
}

// PageRefSize is the size of a page reference in bytes.
const PageRefSize = 32

// PageRef is the content address of an encoded page.
type PageRef [PageRefSize]byte

// ZeroRef is the reference of no page.
var ZeroRef PageRef

// RefOf computes the reference of encoded page bytes.
func RefOf(data []byte) PageRef {
	return PageRef(blake3.Sum256(data))
}

// IsZero returns true if the reference points at no page.
func (r PageRef) IsZero() bool {
	return r == ZeroRef
}

// String returns the full hex form of the reference.
func (r PageRef) String() string {
	return hex.EncodeToString(r[:])
}

// Short returns an abbreviated hex form for logs.
func (r PageRef) Short() string {
	return hex.EncodeToString(r[:6])
}

// ParsePageRef parses the hex form produced by String.
func ParsePageRef(s string) (PageRef, error) {
	var ref PageRef
	b, err := hex.DecodeString(s)
	if err != nil {
		return ref, err
	}
	if len(b) != PageRefSize {
		return ref, ErrCorruptPage
	}
	copy(ref[:], b)
	return ref, nil
}
