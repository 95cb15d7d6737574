package journal

import "errors"

// Error kinds surfaced by the engine. Callers match with errors.Is;
// every failure from the core wraps exactly one of these.
var (
	// ErrNotFound means an entity id did not resolve.
	ErrNotFound = errors.New("not found")

	// ErrAccountNotFound means a referenced account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrDuplicateSnapshot means a snapshot already exists for the
	// (account, day) pair.
	ErrDuplicateSnapshot = errors.New("snapshot already exists for this date")

	// ErrInvalidInput means a constraint violation reached the core.
	// The transport layer validates first; this is the defensive net.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict means a concurrent-mutation race was detected at the
	// storage layer, e.g. a state transition raced with another writer.
	ErrConflict = errors.New("conflict")
)
