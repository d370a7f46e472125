package storage

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math/bits"
	"time"
)

// PageHeaderSize is the size of the encoded page header in bytes.
// Layout:
//   - Byte 0:     PageKind (uint8)
//   - Byte 1:     Format version (uint8)
//   - Bytes 2-3:  Reserved
//   - Bytes 4-7:  CRC32 of the body (uint32)
const PageHeaderSize = 8

// PageFormatVersion is the current page encoding version.
const PageFormatVersion = 1

// PageKind identifies the variant of a page.
type PageKind uint8

const (
	// PageKindRevisionRoot is the root page of one revision.
	PageKindRevisionRoot PageKind = iota + 1
	// PageKindIndirect is an inner trie page holding child references.
	PageKindIndirect
	// PageKindRecord is a trie leaf holding encoded node records.
	PageKindRecord
)

// String returns the string representation of a PageKind.
func (k PageKind) String() string {
	switch k {
	case PageKindRevisionRoot:
		return "RevisionRoot"
	case PageKindIndirect:
		return "Indirect"
	case PageKindRecord:
		return "Record"
	default:
		return "Unknown"
	}
}

// Page is one of *RevisionRootPage, *IndirectPage or *RecordPage.
// Pages handed out by a resolver are shared and must not be modified.
type Page interface {
	Kind() PageKind
}

// RevisionRootPage describes one committed revision.
type RevisionRootPage struct {
	Revision    int
	RootNodeID  NodeID    // document root node
	MaxNodeID   NodeID    // highest node ID ever assigned
	ItemCount   uint64    // records present in this revision
	Height      int       // indirect levels between this page and the record pages
	TrieRef     PageRef   // top of the trie, zero for an empty document
	CommittedAt time.Time // commit timestamp
}

// Kind implements Page.
func (p *RevisionRootPage) Kind() PageKind { return PageKindRevisionRoot }

// IndirectPage is an inner node of the page trie.
type IndirectPage struct {
	Refs [IndirectFanout]PageRef
}

// Kind implements Page.
func (p *IndirectPage) Kind() PageKind { return PageKindIndirect }

// Clone returns a copy that can be modified by a writer.
func (p *IndirectPage) Clone() *IndirectPage {
	c := *p
	return &c
}

// RecordPage holds the encoded records of RecordsPerPage consecutive node IDs.
type RecordPage struct {
	Index uint64 // record page index, node IDs Index<<RecordPageShift onwards
	Slots [RecordsPerPage][]byte
}

// Kind implements Page.
func (p *RecordPage) Kind() PageKind { return PageKindRecord }

// Record returns the encoded record for id, or nil if the slot is empty.
func (p *RecordPage) Record(id NodeID) []byte {
	if RecordPageIndex(id) != p.Index {
		return nil
	}
	return p.Slots[RecordSlot(id)]
}

// Count returns the number of occupied slots.
func (p *RecordPage) Count() int {
	n := 0
	for _, s := range p.Slots {
		if s != nil {
			n++
		}
	}
	return n
}

// Clone returns a copy whose slot table can be modified by a writer.
// Slot contents are immutable and shared.
func (p *RecordPage) Clone() *RecordPage {
	c := *p
	return &c
}

// EncodePage serializes a page including its header.
func EncodePage(p Page) ([]byte, error) {
	body := make([]byte, 0, 256)

	switch pg := p.(type) {
	case *RevisionRootPage:
		body = binary.AppendUvarint(body, uint64(pg.Revision))
		body = binary.AppendUvarint(body, uint64(pg.RootNodeID))
		body = binary.AppendUvarint(body, uint64(pg.MaxNodeID))
		body = binary.AppendUvarint(body, pg.ItemCount)
		body = append(body, byte(pg.Height))
		body = append(body, pg.TrieRef[:]...)
		var ns int64
		if !pg.CommittedAt.IsZero() {
			ns = pg.CommittedAt.UnixNano()
		}
		body = binary.AppendVarint(body, ns)
	case *IndirectPage:
		var mask uint64
		for i, ref := range pg.Refs {
			if !ref.IsZero() {
				mask |= 1 << uint(i)
			}
		}
		body = binary.LittleEndian.AppendUint64(body, mask)
		for _, ref := range pg.Refs {
			if !ref.IsZero() {
				body = append(body, ref[:]...)
			}
		}
	case *RecordPage:
		body = binary.AppendUvarint(body, pg.Index)
		var mask [RecordsPerPage / 64]uint64
		for i, s := range pg.Slots {
			if s != nil {
				mask[i/64] |= 1 << uint(i%64)
			}
		}
		for _, m := range mask {
			body = binary.LittleEndian.AppendUint64(body, m)
		}
		for _, s := range pg.Slots {
			if s != nil {
				body = binary.AppendUvarint(body, uint64(len(s)))
				body = append(body, s...)
			}
		}
	default:
		return nil, ErrInvalidPageKind
	}

	buf := make([]byte, PageHeaderSize, PageHeaderSize+len(body))
	buf[0] = byte(p.Kind())
	buf[1] = PageFormatVersion
	binary.LittleEndian.PutUint32(buf[4:8], crc32.ChecksumIEEE(body))
	return append(buf, body...), nil
}

// DecodePage parses bytes produced by EncodePage. The returned page does not
// alias buf.
func DecodePage(buf []byte) (Page, error) {
	if len(buf) < PageHeaderSize {
		return nil, ErrPageTooShort
	}
	if buf[1] != PageFormatVersion {
		return nil, fmt.Errorf("%w: format version %d", ErrCorruptPage, buf[1])
	}
	body := buf[PageHeaderSize:]
	if crc32.ChecksumIEEE(body) != binary.LittleEndian.Uint32(buf[4:8]) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorruptPage)
	}

	r := &pageReader{buf: body}
	var p Page

	switch PageKind(buf[0]) {
	case PageKindRevisionRoot:
		pg := &RevisionRootPage{
			Revision:   int(r.uvarint()),
			RootNodeID: NodeID(r.uvarint()),
			MaxNodeID:  NodeID(r.uvarint()),
			ItemCount:  r.uvarint(),
			Height:     int(r.u8()),
		}
		r.ref(&pg.TrieRef)
		if ns := r.varint(); ns != 0 {
			pg.CommittedAt = time.Unix(0, ns).UTC()
		}
		if pg.Height > MaxTrieHeight {
			return nil, fmt.Errorf("%w: trie height %d", ErrCorruptPage, pg.Height)
		}
		p = pg
	case PageKindIndirect:
		pg := &IndirectPage{}
		mask := r.u64()
		for mask != 0 {
			i := bits.TrailingZeros64(mask)
			r.ref(&pg.Refs[i])
			mask &^= 1 << uint(i)
		}
		p = pg
	case PageKindRecord:
		pg := &RecordPage{Index: r.uvarint()}
		var mask [RecordsPerPage / 64]uint64
		for i := range mask {
			mask[i] = r.u64()
		}
		for w, m := range mask {
			for m != 0 {
				i := bits.TrailingZeros64(m)
				pg.Slots[w*64+i] = r.bytes(int(r.uvarint()))
				m &^= 1 << uint(i)
			}
		}
		p = pg
	default:
		return nil, ErrInvalidPageKind
	}

	if r.err != nil {
		return nil, fmt.Errorf("%w: %s page: %v", ErrCorruptPage, PageKind(buf[0]), r.err)
	}
	return p, nil
}

// pageReader reads page bodies and remembers the first error.
type pageReader struct {
	buf []byte
	err error
}

func (r *pageReader) fail() {
	if r.err == nil {
		r.err = ErrPageTooShort
	}
	r.buf = nil
}

func (r *pageReader) uvarint() uint64 {
	v, n := binary.Uvarint(r.buf)
	if n <= 0 {
		r.fail()
		return 0
	}
	r.buf = r.buf[n:]
	return v
}

func (r *pageReader) varint() int64 {
	v, n := binary.Varint(r.buf)
	if n <= 0 {
		r.fail()
		return 0
	}
	r.buf = r.buf[n:]
	return v
}

func (r *pageReader) u8() byte {
	if len(r.buf) < 1 {
		r.fail()
		return 0
	}
	b := r.buf[0]
	r.buf = r.buf[1:]
	return b
}

func (r *pageReader) u64() uint64 {
	if len(r.buf) < 8 {
		r.fail()
		return 0
	}
	v := binary.LittleEndian.Uint64(r.buf)
	r.buf = r.buf[8:]
	return v
}

func (r *pageReader) ref(dst *PageRef) {
	if len(r.buf) < PageRefSize {
		r.fail()
		return
	}
	copy(dst[:], r.buf[:PageRefSize])
	r.buf = r.buf[PageRefSize:]
}

func (r *pageReader) bytes(n int) []byte {
	if n < 0 || len(r.buf) < n {
		r.fail()
		return nil
	}
	b := make([]byte, n)
	copy(b, r.buf[:n])
	r.buf = r.buf[n:]
	return b
}
