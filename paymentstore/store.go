// Package paymentstore defines the record-store seam the payment
// processor persists through. The processor is the store's only
// writer (spec §5); the store itself — the durable database, its
// schema migrations, its backup strategy — is an external collaborator
// per spec §1. This package specifies the record shape and the Store
// contract, and ships two concrete implementations: MemStore for
// tests, and LevelDBStore as a reference on-disk adapter.
package paymentstore

import "errors"

// ErrNotFound is returned by Get when no record exists for a subtask.
var ErrNotFound = errors.New("paymentstore: record not found")

// ErrDuplicateSubtask is returned by Create when a caller attempts to
// create a second record under an already-used SubtaskID (spec §3
// invariant: "a subtask_id is enqueued at most once").
var ErrDuplicateSubtask = errors.New("paymentstore: duplicate subtask id")

// Store is the typed CRUD contract the processor composes its queue
// semantics over. Implementations must make UpdateBatch atomic with
// respect to concurrent Get/ByStatus callers: either every named
// record is mutated and persisted, or none are (spec §4.3 step 7,
// §9 "Partial failure atomicity").
type Store interface {
	// Create persists a brand-new record. It must fail with
	// ErrDuplicateSubtask if SubtaskID already exists.
	Create(p *Payment) error

	// Get returns the record for subtaskID, or ErrNotFound.
	Get(subtaskID string) (*Payment, error)

	// ByStatus returns every record currently in one of the given
	// statuses, in unspecified order.
	ByStatus(statuses ...Status) ([]*Payment, error)

	// UpdateBatch atomically applies mutate to every named record and
	// persists the result. mutate must not change SubtaskID.
	UpdateBatch(subtaskIDs []string, mutate func(*Payment)) error

	// Close releases any resources held by the store.
	Close() error
}
