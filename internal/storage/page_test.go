package storage

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

// =============================================================================
// PageKind Tests
// =============================================================================

func TestPageKindString(t *testing.T) {
	tests := []struct {
		kind     PageKind
		expected string
	}{
		{PageKindRevisionRoot, "RevisionRoot"},
		{PageKindIndirect, "Indirect"},
		{PageKindRecord, "Record"},
		{PageKind(0), "Unknown"},
		{PageKind(255), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.expected {
				t.Errorf("PageKind.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// =============================================================================
// Addressing Tests
// =============================================================================

func TestRecordAddressing(t *testing.T) {
	tests := []struct {
		id        NodeID
		pageIndex uint64
		slot      int
	}{
		{1, 0, 1},
		{127, 0, 127},
		{128, 1, 0},
		{129, 1, 1},
		{128*64 + 5, 64, 5},
	}

	for _, tt := range tests {
		if got := RecordPageIndex(tt.id); got != tt.pageIndex {
			t.Errorf("RecordPageIndex(%d) = %d, want %d", tt.id, got, tt.pageIndex)
		}
		if got := RecordSlot(tt.id); got != tt.slot {
			t.Errorf("RecordSlot(%d) = %d, want %d", tt.id, got, tt.slot)
		}
	}
}

func TestIndirectSlot(t *testing.T) {
	// Page index 64*3 + 7 sits in slot 7 at level 1 and slot 3 at level 2.
	pageIndex := uint64(64*3 + 7)

	if got := IndirectSlot(pageIndex, 1); got != 7 {
		t.Errorf("level 1 slot = %d, want 7", got)
	}
	if got := IndirectSlot(pageIndex, 2); got != 3 {
		t.Errorf("level 2 slot = %d, want 3", got)
	}
	if got := IndirectSlot(pageIndex, 3); got != 0 {
		t.Errorf("level 3 slot = %d, want 0", got)
	}
}

func TestHeightFor(t *testing.T) {
	tests := []struct {
		maxID  NodeID
		height int
	}{
		{0, 0},
		{1, 0},
		{RecordsPerPage - 1, 0},
		{RecordsPerPage, 1},
		{RecordsPerPage*IndirectFanout - 1, 1},
		{RecordsPerPage * IndirectFanout, 2},
	}

	for _, tt := range tests {
		got, err := HeightFor(tt.maxID)
		if err != nil {
			t.Fatalf("HeightFor(%d) failed: %v", tt.maxID, err)
		}
		if got != tt.height {
			t.Errorf("HeightFor(%d) = %d, want %d", tt.maxID, got, tt.height)
		}
	}

	if _, err := HeightFor(^NodeID(0)); !errors.Is(err, ErrTrieFull) {
		t.Errorf("expected ErrTrieFull for max ID, got %v", err)
	}
}

// =============================================================================
// PageRef Tests
// =============================================================================

func TestRefOfIsContentAddress(t *testing.T) {
	a := RefOf([]byte("page one"))
	b := RefOf([]byte("page one"))
	c := RefOf([]byte("page two"))

	if a != b {
		t.Error("equal content should give equal references")
	}
	if a == c {
		t.Error("different content should give different references")
	}
	if a.IsZero() {
		t.Error("content reference should not be zero")
	}
	if !ZeroRef.IsZero() {
		t.Error("ZeroRef should be zero")
	}
}

func TestParsePageRef(t *testing.T) {
	ref := RefOf([]byte("x"))

	parsed, err := ParsePageRef(ref.String())
	if err != nil {
		t.Fatalf("ParsePageRef failed: %v", err)
	}
	if parsed != ref {
		t.Errorf("expected %s, got %s", ref, parsed)
	}
	if len(ref.Short()) != 12 {
		t.Errorf("expected 12 hex chars, got %q", ref.Short())
	}

	if _, err := ParsePageRef("abcd"); !errors.Is(err, ErrCorruptPage) {
		t.Errorf("expected ErrCorruptPage for short ref, got %v", err)
	}
	if _, err := ParsePageRef("zz"); err == nil {
		t.Error("expected error for invalid hex")
	}
}

// =============================================================================
// Page Codec Tests
// =============================================================================

func TestRevisionRootPageCodec(t *testing.T) {
	original := &RevisionRootPage{
		Revision:    7,
		RootNodeID:  1,
		MaxNodeID:   9000,
		ItemCount:   8123,
		Height:      2,
		TrieRef:     RefOf([]byte("trie")),
		CommittedAt: time.Unix(1700000000, 42).UTC(),
	}

	buf, err := EncodePage(original)
	if err != nil {
		t.Fatalf("EncodePage failed: %v", err)
	}

	p, err := DecodePage(buf)
	if err != nil {
		t.Fatalf("DecodePage failed: %v", err)
	}

	got, ok := p.(*RevisionRootPage)
	if !ok {
		t.Fatalf("expected *RevisionRootPage, got %T", p)
	}
	if *got != *original {
		t.Errorf("expected %+v, got %+v", original, got)
	}
}

func TestRevisionRootPageZeroTime(t *testing.T) {
	buf, err := EncodePage(&RevisionRootPage{Revision: 0})
	if err != nil {
		t.Fatalf("EncodePage failed: %v", err)
	}

	p, err := DecodePage(buf)
	if err != nil {
		t.Fatalf("DecodePage failed: %v", err)
	}
	if !p.(*RevisionRootPage).CommittedAt.IsZero() {
		t.Error("zero commit time should survive encoding")
	}
}

func TestIndirectPageCodec(t *testing.T) {
	original := &IndirectPage{}
	original.Refs[0] = RefOf([]byte("a"))
	original.Refs[17] = RefOf([]byte("b"))
	original.Refs[IndirectFanout-1] = RefOf([]byte("c"))

	buf, err := EncodePage(original)
	if err != nil {
		t.Fatalf("EncodePage failed: %v", err)
	}

	// Only present references are written.
	if want := PageHeaderSize + 8 + 3*PageRefSize; len(buf) != want {
		t.Errorf("expected %d bytes, got %d", want, len(buf))
	}

	p, err := DecodePage(buf)
	if err != nil {
		t.Fatalf("DecodePage failed: %v", err)
	}
	if *p.(*IndirectPage) != *original {
		t.Error("decoded indirect page differs")
	}
}

func TestRecordPageCodec(t *testing.T) {
	original := &RecordPage{Index: 3}
	original.Slots[0] = []byte("first")
	original.Slots[64] = []byte{}
	original.Slots[RecordsPerPage-1] = []byte("last")

	buf, err := EncodePage(original)
	if err != nil {
		t.Fatalf("EncodePage failed: %v", err)
	}

	p, err := DecodePage(buf)
	if err != nil {
		t.Fatalf("DecodePage failed: %v", err)
	}

	got := p.(*RecordPage)
	if got.Index != 3 {
		t.Errorf("expected index 3, got %d", got.Index)
	}
	if got.Count() != 3 {
		t.Errorf("expected 3 occupied slots, got %d", got.Count())
	}
	if !bytes.Equal(got.Slots[0], []byte("first")) || !bytes.Equal(got.Slots[RecordsPerPage-1], []byte("last")) {
		t.Error("slot contents differ")
	}
	if got.Slots[64] == nil {
		t.Error("empty record should still occupy its slot")
	}
	if got.Slots[1] != nil {
		t.Error("unoccupied slot should be nil")
	}

	id := NodeID(3*RecordsPerPage + RecordsPerPage - 1)
	if !bytes.Equal(got.Record(id), []byte("last")) {
		t.Errorf("Record(%d) returned %q", id, got.Record(id))
	}
	if got.Record(5) != nil {
		t.Error("Record for an ID outside the page should be nil")
	}
}

func TestRecordPageClone(t *testing.T) {
	original := &RecordPage{Index: 1}
	original.Slots[2] = []byte("x")

	clone := original.Clone()
	clone.Slots[3] = []byte("y")

	if original.Slots[3] != nil {
		t.Error("modifying the clone should not touch the original")
	}
	if !bytes.Equal(clone.Slots[2], []byte("x")) {
		t.Error("clone should keep existing slots")
	}
}

func TestDecodePageErrors(t *testing.T) {
	good, _ := EncodePage(&IndirectPage{})

	corrupt := append([]byte(nil), good...)
	corrupt[len(corrupt)-1] ^= 0xFF

	badVersion := append([]byte(nil), good...)
	badVersion[1] = 99

	badKind := append([]byte(nil), good...)
	badKind[0] = 99

	tests := []struct {
		name string
		buf  []byte
		want error
	}{
		{"short", []byte{1, 2, 3}, ErrPageTooShort},
		{"checksum", corrupt, ErrCorruptPage},
		{"version", badVersion, ErrCorruptPage},
		{"kind", badKind, ErrInvalidPageKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodePage(tt.buf); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestEncodePageDeterministic(t *testing.T) {
	p := &RecordPage{Index: 0}
	p.Slots[1] = []byte("one")

	a, _ := EncodePage(p)
	b, _ := EncodePage(p.Clone())
	if RefOf(a) != RefOf(b) {
		t.Error("equal pages should encode to the same reference")
	}
}

// =============================================================================
// Error Tests
// =============================================================================

func TestIllegalStateVariants(t *testing.T) {
	for _, err := range []error{ErrClosed, ErrRebindInProgress, ErrNavigationPending} {
		if !errors.Is(err, ErrIllegalState) {
			t.Errorf("%v should match ErrIllegalState", err)
		}
	}
}

func TestStorageFailureWrapping(t *testing.T) {
	err := StorageFailure("load", ErrPageNotFound)

	if !errors.Is(err, ErrStorageFailure) {
		t.Error("expected ErrStorageFailure")
	}
	if !errors.Is(err, ErrPageNotFound) {
		t.Error("expected cause to be preserved")
	}
}
