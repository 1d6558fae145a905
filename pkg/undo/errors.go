package undo

import "errors"

// Sentinel error kinds from the error-handling design. Wrap these with
// %w and additional context; callers match with errors.Is.
var (
	// ErrPolicyDenied is returned when the host's modifiability or
	// restricted-mode gate refuses a mutation. No state changes.
	ErrPolicyDenied = errors.New("undo: policy denied")

	// ErrRangeInvalid is returned when top/bot fall outside the buffer's
	// current bounds, either at capture time or discovered mid-replay.
	ErrRangeInvalid = errors.New("undo: range invalid")

	// ErrMemoryExhausted marks an allocation failure while building an
	// entry or header. The partial structure is discarded before this
	// is returned.
	ErrMemoryExhausted = errors.New("undo: memory exhausted")

	// ErrCorruption marks structural damage discovered while decoding
	// a persisted DAG.
	ErrCorruption = errors.New("undo: corruption")

	// ErrIOFailure wraps an underlying filesystem error during a read
	// or write of the undo file.
	ErrIOFailure = errors.New("undo: io failure")

	// ErrInternal marks a violated internal invariant (line-number
	// mismatch, list corruption) that is not caused by bad input.
	ErrInternal = errors.New("undo: internal error")

	// ErrInterrupted is returned when a long record_change copy loop
	// observes the host's cooperative interrupt flag.
	ErrInterrupted = errors.New("undo: interrupted")

	// ErrNothingToUndo is returned by Navigate when there is no header
	// in the requested direction to move to.
	ErrNothingToUndo = errors.New("undo: nothing to undo")
)
