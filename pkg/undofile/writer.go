package undofile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"undofile/pkg/fs"
	"undofile/pkg/undo"
	"undofile/pkg/undohost"
)

// Writer serializes a [undo.State] to the bit-exact binary format of
// spec §6.1, using an injected [fs.FS] so tests can substitute
// [fs.Chaos] and prove the "no partial file under the final name"
// guarantee from spec §7's IOFailure handling.
type Writer struct {
	fsys   fs.FS
	atomic *fs.AtomicWriter
}

// NewWriter returns a Writer that writes through fsys. Panics if fsys
// is nil.
func NewWriter(fsys fs.FS) *Writer {
	if fsys == nil {
		panic("undofile.NewWriter: fsys is nil")
	}

	return &Writer{fsys: fsys, atomic: fs.NewAtomicWriter(fsys)}
}

// Write persists s to path. It refuses to write a file for a buffer
// with no undoable changes ever recorded, returning
// [ErrNothingToPersist], mirroring the source's bufIsChanged guard
// before u_write_undo (spec §13's supplemented feature).
//
// The whole encoded file is built in memory before anything touches
// disk; an encoding failure (an oversized optional-field payload, a
// LineStore read error while hashing) never reaches the filesystem at
// all. The on-disk write itself is atomic (temp file, fsync, rename)
// via [fs.AtomicWriter], and guarded by an exclusive [fs.Flock] on a
// sibling lock file for the duration, so two writers targeting the
// same path never interleave (spec §5).
func (w *Writer) Write(path string, s *undo.State) error {
	if s.NumHeads == 0 {
		return ErrNothingToPersist
	}

	hash, err := undo.BufferHash(s.Lines)
	if err != nil {
		return fmt.Errorf("undofile: hash buffer: %w", err)
	}

	var buf bytes.Buffer

	if err := encodeFile(&buf, s, hash); err != nil {
		return err
	}

	unlock, err := w.lock(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	defer unlock()

	opts := w.atomic.DefaultOptions()

	if err := w.atomic.Write(path, &buf, opts); err != nil {
		return fmt.Errorf("%w: write %q: %w", ErrIOFailure, path, err)
	}

	return nil
}

// lock takes an exclusive advisory lock on path+".lock", creating it if
// necessary, and returns a function that releases it.
func (w *Writer) lock(path string) (unlock func() error, err error) {
	lockPath := path + ".lock"

	f, err := w.fsys.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file %q: %w", lockPath, err)
	}

	release, err := fs.Flock(f)
	if err != nil {
		_ = f.Close()

		return nil, err
	}

	return func() error {
		relErr := release()
		closeErr := f.Close()

		if relErr != nil {
			return relErr
		}

		return closeErr
	}, nil
}

// encodeFile writes the whole file format: the top-level header,
// followed by every DAG header in [undo.State.WalkHeaders] order, and
// the terminating magic.
func encodeFile(dst *bytes.Buffer, s *undo.State, hash [32]byte) error {
	e := newEncoder(dst)

	e.raw(startMagic[:])
	e.u16(formatVersion)
	e.raw(hash[:])
	e.i32(s.Lines.LineCount())

	encodeULine(e, s)

	e.i32(seqOrZero(s.OldHead))
	e.i32(seqOrZero(s.NewHead))
	e.i32(seqOrZero(s.CurHead))
	e.i32(s.NumHeads)
	e.i32(s.SeqLast)
	e.i32(s.SeqCur)
	e.i64(s.TimeCur)

	if s.SaveNrLast != 0 {
		var payload [4]byte
		binary.BigEndian.PutUint32(payload[:], uint32(int32(s.SaveNrLast)))
		e.optionalField(optTagLastSaveNr, payload[:])
	}

	e.endOptionalFields()

	var walkErr error

	s.WalkHeaders(func(h *undo.Header) {
		if walkErr != nil {
			return
		}

		walkErr = encodeHeader(e, h)
	})

	if walkErr != nil {
		return walkErr
	}

	e.u16(endOfHeaders)

	if e.err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, e.err)
	}

	return nil
}

func encodeULine(e *encoder, s *undo.State) {
	text, lnum, col, ok := s.ULineSnapshot()
	if !ok {
		e.u32(0)
		e.i32(0)
		e.i32(0)

		return
	}

	e.str(text)
	e.i32(lnum)
	e.i32(col)
}

func encodeHeader(e *encoder, h *undo.Header) error {
	e.u16(headerMagic)
	e.i32(seqOrZero(h.Next))
	e.i32(seqOrZero(h.Prev))
	e.i32(seqOrZero(h.AltNext))
	e.i32(seqOrZero(h.AltPrev))
	e.i32(h.Seq)
	e.i32(h.Cursor.Line)
	e.i32(h.Cursor.Col)
	e.i32(h.Cursor.ColAdd)
	e.i32(h.CursorVcol)
	e.u16(uint16(h.Flags))

	for _, m := range h.NamedMarks {
		e.i32(m.Line)
		e.i32(m.Col)
		e.i32(m.ColAdd)
	}

	encodeVisual(e, h.Visual)

	e.i64(h.Time.Unix())

	if h.SaveNr != 0 {
		var payload [4]byte
		binary.BigEndian.PutUint32(payload[:], uint32(int32(h.SaveNr)))
		e.optionalField(optTagSaveNr, payload[:])
	}

	e.endOptionalFields()

	for _, entry := range h.Entries {
		encodeEntry(e, entry)
	}

	e.u16(entryEndMagic)

	for _, delta := range h.ExtmarkDeltas {
		e.u16(entryMagic)
		e.str(delta)
	}

	e.u16(entryEndMagic)

	if e.err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, e.err)
	}

	return nil
}

func encodeVisual(e *encoder, v undohost.Visual) {
	e.i32(v.Start.Line)
	e.i32(v.Start.Col)
	e.i32(v.Start.ColAdd)
	e.i32(v.End.Line)
	e.i32(v.End.Col)
	e.i32(v.End.ColAdd)
	e.i32(int(v.Mode))
	e.i32(v.Curswant)
}

func encodeEntry(e *encoder, entry *undo.Entry) {
	e.u16(entryMagic)
	e.i32(entry.Top)
	e.i32(entry.Bot)
	e.i32(entry.LCount)
	e.i32(entry.Size)

	for _, line := range entry.Lines {
		e.str(line)
	}
}

func seqOrZero(h *undo.Header) int {
	if h == nil {
		return 0
	}

	return h.Seq
}
