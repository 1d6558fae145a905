package undofile

import (
	"errors"
	"fmt"
)

var (
	// ErrCorruption marks structural damage found while decoding a file:
	// bad magic, an unresolvable sequence number, a duplicate seq, or a
	// field outside its valid range.
	ErrCorruption = errors.New("undofile: corruption")

	// ErrHashMismatch is a specialization of ErrCorruption: the file's
	// recorded buffer hash or line count doesn't match the buffer it is
	// being loaded against. errors.Is(err, ErrCorruption) still matches.
	ErrHashMismatch = fmt.Errorf("undofile: buffer hash mismatch: %w", ErrCorruption)

	// ErrIOFailure wraps an underlying filesystem error during read or
	// write.
	ErrIOFailure = errors.New("undofile: io failure")

	// ErrNothingToPersist is returned by Writer.Write when the buffer
	// has no undoable changes recorded, mirroring the source's refusal
	// to write an undo file for an unmodified buffer.
	ErrNothingToPersist = errors.New("undofile: nothing to persist")

	// ErrUnsupportedVersion is returned when a file's version field
	// doesn't match the one version this package understands.
	ErrUnsupportedVersion = errors.New("undofile: unsupported version")
)
