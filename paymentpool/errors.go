package paymentpool

import "errors"

// Sentinel errors surfaced to callers, per spec §7's propagation
// policy: the core recovers locally from receipt failures and
// resource shortages, but surfaces programming errors and SCI
// rejections.
var (
	// ErrDuplicateSubtask is returned by Add when subtaskID was
	// already enqueued (spec §4.1, §7).
	ErrDuplicateSubtask = errors.New("paymentpool: duplicate subtask id")

	// ErrInvalidValue is returned by Add for a non-positive value.
	ErrInvalidValue = errors.New("paymentpool: value must be positive")
)
