package undo

import (
	"crypto/sha256"

	"undofile/pkg/undohost"
)

// BufferHash computes the SHA-256 hash the serializer stores in the
// undo file header and checks on load (spec §6.1: "SHA-256 over
// concatenation of each line + 0x00"). It reads the buffer through the
// LineStore interface so it never needs direct access to buffer
// internals.
func BufferHash(lines undohost.LineStore) ([32]byte, error) {
	h := sha256.New()

	n := lines.LineCount()
	for lnum := 1; lnum <= n; lnum++ {
		text, err := lines.GetLine(lnum)
		if err != nil {
			return [32]byte{}, err
		}

		h.Write(text)
		h.Write([]byte{0})
	}

	var sum [32]byte

	copy(sum[:], h.Sum(nil))

	return sum, nil
}
