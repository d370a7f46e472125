// Package cursor implements the node cursor: a current-node pointer over
// one revision of a document with structural navigation.
//
// # Usage
//
//	cur, err := cursor.Open(trx)
//	if err != nil {
//	    return err
//	}
//	defer cur.Close()
//
//	if ok, err := cur.MoveToFirstChild(); err != nil {
//	    return err
//	} else if ok {
//	    rec, _ := cur.CurrentNode()
//	    fmt.Println(rec.ID)
//	}
//
// # Navigation
//
// Move methods return false and leave the cursor in place when the link
// they follow is absent. A link that is present but does not resolve in the
// bound revision is an error (storage.ErrNodeNotFound), as is any storage
// failure while resolving it.
//
// MoveToParent followed by MoveToFirstChild lands on the first child of the
// parent, which is not the start node unless the start node was the first
// child.
//
// # Lifecycle
//
// A cursor owns its page read transaction. SetPageReadTrx closes the
// transaction it replaces, and Close closes the current one. Every accessor
// of a closed cursor fails with storage.ErrClosed, which matches
// storage.ErrIllegalState. Closing twice is a no-op.
//
// Rebinding the cursor's transaction in place keeps the cursor on the same
// node ID and re-reads it from the new revision on the next access. If the
// node does not exist there, reads fail with storage.ErrNodeNotFound until
// the cursor is moved. Records returned by CurrentNode are copies.
//
// A cursor is not safe for concurrent use.
package cursor
