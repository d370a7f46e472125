// Package tx implements page read transactions.
//
// A PageReadTrx is bound to one committed revision and maps node IDs to
// records through that revision's page trie:
//
//	trx, err := tx.Begin(resolver, index, 3, tx.Options{})
//	if err != nil {
//	    return err // storage.ErrUnknownRevision if revision 3 is not committed
//	}
//	defer trx.Close()
//
//	rec, err := trx.GetRecord(42)
//
// Lookups resolve the revision root page, Height indirect pages and one
// record page, each through the shared resolver. Records that did not
// change between revisions live in shared pages, so two transactions bound
// to different revisions return byte-identical records for them.
//
// # Rebinding
//
// Rebind moves a transaction to another revision in place. It fails with
// storage.ErrNavigationPending while any GetRecord is running, and
// GetRecord calls that arrive while a rebind is in progress fail with
// storage.ErrRebindInProgress. A rebind to an unknown revision keeps the
// previous binding.
//
// # Identifiers
//
// Every transaction carries a snowflake ID for log correlation.
package tx
