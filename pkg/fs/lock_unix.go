//go:build unix

package fs

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Flock takes an exclusive advisory lock on f for the lifetime of the
// caller's critical section, blocking until it is available. The
// returned unlock function releases it; callers must call it exactly
// once, typically via defer.
//
// This is the single-writer-at-a-time guarantee [pkg/undofile.Writer]
// relies on: two processes serializing the same undo file concurrently
// would otherwise interleave writes to the same temp-then-rename
// target path.
func Flock(f File) (unlock func() error, err error) {
	fd := int(f.Fd())

	if err := unix.Flock(fd, unix.LOCK_EX); err != nil {
		return nil, fmt.Errorf("flock: %w", err)
	}

	return func() error {
		if err := unix.Flock(fd, unix.LOCK_UN); err != nil {
			return fmt.Errorf("funlock: %w", err)
		}

		return nil
	}, nil
}
