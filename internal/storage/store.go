package storage

import (
	"sync"
	"sync/atomic"
)

// PageStore is the backing store for encoded pages and the revision log.
//
// Stored pages are immutable: Store is idempotent for equal bytes and Load
// always returns the bytes that hash to ref. Commit is the single mutation
// point that makes a new revision visible.
type PageStore interface {
	// Load returns the encoded page for ref.
	Load(ref PageRef) ([]byte, error)

	// Store saves an encoded page and returns its reference.
	Store(data []byte) (PageRef, error)

	// LatestRevision returns the newest committed revision, or -1 if none.
	LatestRevision() (int, error)

	// Commit appends the revision root reference for revision, which must be
	// LatestRevision()+1.
	Commit(revision int, root PageRef) error

	// Revisions returns the revision root references indexed by revision.
	Revisions() ([]PageRef, error)
}

// MemStore is an in-memory PageStore. It counts physical loads so callers
// can observe caching and coalescing behaviour.
type MemStore struct {
	pages     map[PageRef][]byte
	revisions []PageRef
	mu        sync.RWMutex

	loads  atomic.Uint64
	stores atomic.Uint64
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		pages: make(map[PageRef][]byte),
	}
}

// Load returns a copy of the stored page bytes.
func (s *MemStore) Load(ref PageRef) ([]byte, error) {
	s.loads.Add(1)

	s.mu.RLock()
	data, ok := s.pages[ref]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrPageNotFound
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Store saves a copy of data under its content reference.
func (s *MemStore) Store(data []byte) (PageRef, error) {
	ref := RefOf(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pages[ref]; !exists {
		stored := make([]byte, len(data))
		copy(stored, data)
		s.pages[ref] = stored
		s.stores.Add(1)
	}
	return ref, nil
}

// LatestRevision returns the newest committed revision, or -1 if none.
func (s *MemStore) LatestRevision() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.revisions) - 1, nil
}

// Commit appends root as the reference of revision.
func (s *MemStore) Commit(revision int, root PageRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if revision != len(s.revisions) {
		return ErrRevisionConflict
	}
	if _, exists := s.pages[root]; !exists {
		return ErrPageNotFound
	}

	s.revisions = append(s.revisions, root)
	return nil
}

// Revisions returns a copy of the revision log.
func (s *MemStore) Revisions() ([]PageRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]PageRef, len(s.revisions))
	copy(out, s.revisions)
	return out, nil
}

// Loads returns the number of Load calls served so far.
func (s *MemStore) Loads() uint64 {
	return s.loads.Load()
}

// PageCount returns the number of distinct pages stored.
func (s *MemStore) PageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pages)
}

// Stores returns the number of distinct pages written so far.
func (s *MemStore) Stores() uint64 {
	return s.stores.Load()
}
