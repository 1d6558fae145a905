package undofile

import (
	"encoding/binary"
	"fmt"
	"io"
)

// encoder wraps a writer with a sticky error: once any write fails,
// every subsequent method becomes a no-op, so callers can chain a long
// run of field writes and check err once at the end. Mirrors the shape
// of bufio.Writer's own sticky-error convention.
type encoder struct {
	w   io.Writer
	err error
}

func newEncoder(w io.Writer) *encoder {
	return &encoder{w: w}
}

func (e *encoder) u16(v uint16) {
	if e.err != nil {
		return
	}

	e.err = binary.Write(e.w, binary.BigEndian, v)
}

func (e *encoder) u32(v uint32) {
	if e.err != nil {
		return
	}

	e.err = binary.Write(e.w, binary.BigEndian, v)
}

func (e *encoder) i32(v int) {
	e.u32(uint32(int32(v)))
}

func (e *encoder) i64(v int64) {
	if e.err != nil {
		return
	}

	e.err = binary.Write(e.w, binary.BigEndian, v)
}

func (e *encoder) raw(b []byte) {
	if e.err != nil {
		return
	}

	_, e.err = e.w.Write(b)
}

// str writes a length-prefixed byte string: a 4-byte big-endian count
// followed by that many raw bytes, no terminator.
func (e *encoder) str(b []byte) {
	e.u32(uint32(len(b)))
	e.raw(b)
}

// optionalField writes one (len, tag, payload) triple of an
// OptionalFields block. payload must be shorter than 256 bytes.
func (e *encoder) optionalField(tag byte, payload []byte) {
	if e.err != nil {
		return
	}

	if len(payload) > 255 {
		e.err = fmt.Errorf("undofile: optional field payload too large: %d bytes", len(payload))

		return
	}

	e.raw([]byte{byte(len(payload)), tag})
	e.raw(payload)
}

// endOptionalFields writes the zero-length terminator of an
// OptionalFields block.
func (e *encoder) endOptionalFields() {
	e.raw([]byte{0})
}
