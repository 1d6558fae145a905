package undofile

import (
	"encoding/binary"
	"fmt"
	"io"
)

// decoder is the counterpart to [encoder]: a sticky-error reader
// so a long run of field reads can be checked once at the end.
type decoder struct {
	r   io.Reader
	err error
}

func newDecoder(r io.Reader) *decoder {
	return &decoder{r: r}
}

func (d *decoder) u16() uint16 {
	if d.err != nil {
		return 0
	}

	var v uint16

	d.err = binary.Read(d.r, binary.BigEndian, &v)

	return v
}

func (d *decoder) u32() uint32 {
	if d.err != nil {
		return 0
	}

	var v uint32

	d.err = binary.Read(d.r, binary.BigEndian, &v)

	return v
}

func (d *decoder) i32() int {
	return int(int32(d.u32()))
}

func (d *decoder) i64() int64 {
	if d.err != nil {
		return 0
	}

	var v int64

	d.err = binary.Read(d.r, binary.BigEndian, &v)

	return v
}

func (d *decoder) raw(n int) []byte {
	if d.err != nil {
		return nil
	}

	buf := make([]byte, n)

	_, d.err = io.ReadFull(d.r, buf)
	if d.err != nil {
		return nil
	}

	return buf
}

func (d *decoder) byte() byte {
	b := d.raw(1)
	if len(b) == 0 {
		return 0
	}

	return b[0]
}

// str reads a length-prefixed byte string.
func (d *decoder) str() []byte {
	n := d.u32()
	if d.err != nil {
		return nil
	}

	if n > maxStringLen {
		d.err = fmt.Errorf("%w: string length %d exceeds sanity bound", ErrCorruption, n)

		return nil
	}

	return d.raw(int(n))
}

// maxStringLen bounds a single length-prefixed string so a corrupted
// or truncated length field can't drive an enormous allocation.
const maxStringLen = 256 << 20

// expectMagic reads a uint16 and fails with ErrCorruption if it
// doesn't match want.
func (d *decoder) expectMagic(want uint16, what string) {
	if d.err != nil {
		return
	}

	got := d.u16()
	if d.err != nil {
		return
	}

	if got != want {
		d.err = fmt.Errorf("%w: bad %s magic: got %#04x, want %#04x", ErrCorruption, what, got, want)
	}
}

// optionalFields reads an OptionalFields block, calling handle once
// per (tag, payload) pair until the terminating zero length byte.
// Unknown tags are skipped rather than rejected, so a future writer
// can add fields an older reader tolerates.
func (d *decoder) optionalFields(handle func(tag byte, payload []byte)) {
	for d.err == nil {
		length := d.byte()
		if d.err != nil || length == 0 {
			return
		}

		tag := d.byte()
		payload := d.raw(int(length))

		if d.err != nil {
			return
		}

		handle(tag, payload)
	}
}
