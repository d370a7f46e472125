// Package storage provides the page layer of the revtree document store.
//
// # Overview
//
// A document is a forest of immutable node records. Records are grouped into
// record pages, record pages are reached through a trie of indirect pages, and
// every revision has one revision root page pointing at the top of its trie:
//
//	RevisionRootPage
//	    └── IndirectPage (height levels, 64-way fan-out)
//	            └── RecordPage (128 record slots)
//
// Pages are immutable once stored. They are addressed by PageRef, the BLAKE3
// digest of their encoded bytes, so a page written for revision R is shared by
// every later revision that did not change it.
//
// # Node IDs
//
// A NodeID is assigned once and never reused. NullNodeID (0) marks an absent
// structural link. The record for an ID lives in record page id>>7, slot id&127.
//
// # Page Stores
//
// PageStore is the backing store contract used by the resolver and the commit
// path:
//
//	store := storage.NewMemStore()
//	ref, err := store.Store(data)
//	if err != nil {
//	    return err
//	}
//	err = store.Commit(0, ref)
//
// FileStore keeps one file per page plus an append-only revision log:
//
//	store, err := storage.OpenFileStore("/var/lib/revtree")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
// # Errors
//
// The error taxonomy shared by all layers lives here: ErrUnknownRevision,
// ErrNodeNotFound, ErrIllegalState and ErrStorageFailure. Use errors.Is to
// classify wrapped errors.
package storage
