package storage

import (
	"errors"
	"fmt"
)

// Read path errors.
var (
	// ErrUnknownRevision indicates the requested revision is negative or newer
	// than the latest committed revision.
	ErrUnknownRevision = errors.New("unknown revision")

	// ErrNodeNotFound indicates the node ID does not resolve in the bound revision.
	ErrNodeNotFound = errors.New("node not found")

	// ErrIllegalState indicates an operation on a closed handle or on a
	// transaction that is being rebound.
	ErrIllegalState = errors.New("illegal state")

	// ErrStorageFailure indicates the backing store could not produce a page.
	ErrStorageFailure = errors.New("storage failure")
)

// Illegal state variants. Each one matches ErrIllegalState with errors.Is.
var (
	ErrClosed            = fmt.Errorf("%w: closed", ErrIllegalState)
	ErrRebindInProgress  = fmt.Errorf("%w: rebind in progress", ErrIllegalState)
	ErrNavigationPending = fmt.Errorf("%w: navigation in progress", ErrIllegalState)
)

// Page and store errors.
var (
	ErrPageNotFound     = errors.New("page not found")
	ErrCorruptPage      = errors.New("page corrupted")
	ErrInvalidPageKind  = errors.New("invalid page kind")
	ErrPageTooShort     = errors.New("page buffer too short")
	ErrRevisionConflict = errors.New("revision conflict")
	ErrTrieFull         = errors.New("node ID exceeds trie capacity")
)

// StorageFailure wraps cause so that it matches both ErrStorageFailure and cause.
func StorageFailure(op string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageFailure, op, cause)
}
