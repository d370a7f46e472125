// Package cow implements the copy-on-write commit path that produces new
// revisions.
//
// # Overview
//
// A write transaction starts from the latest committed revision (or from
// nothing, for the seed revision) and collects record changes in memory:
//
//	txn, err := writer.Begin()
//	if err != nil {
//	    return err
//	}
//	id := txn.NextNodeID()
//	txn.PutRecord(node.Record{ID: id, Kind: node.KindString, Parent: 1, Value: []byte("x")})
//	rev, err := txn.Commit()
//
// # Commit
//
// Commit writes a new revision without touching any existing page:
//
//  1. Each record page holding a changed record is copied and patched.
//  2. Each indirect page on the path from the trie top to a patched record
//     page is copied and repointed.
//  3. When the new max node ID needs a taller trie, new indirect pages are
//     stacked on top with the old top in slot 0.
//  4. A new revision root page is stored and published through the
//     revision index.
//
// Pages that no change reaches are shared with the previous revision. A
// commit without changes reuses the previous trie reference as is.
//
// Only one write transaction may be open per Writer at a time.
package cow
