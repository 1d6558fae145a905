package undofile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"undofile/pkg/fs"
	"undofile/pkg/undo"
	"undofile/pkg/undohost"
)

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0)
}

// Reader deserializes the binary format of spec §6.1 and installs it
// into an [undo.State], through an injected [fs.FS] for the same
// chaos-testing reasons as [Writer].
type Reader struct {
	fsys fs.FS
}

// NewReader returns a Reader that reads through fsys. Panics if fsys
// is nil.
func NewReader(fsys fs.FS) *Reader {
	if fsys == nil {
		panic("undofile.NewReader: fsys is nil")
	}

	return &Reader{fsys: fsys}
}

// rawHeader holds one decoded Header record before its seq-number
// links have been resolved to pointers.
type rawHeader struct {
	h                                    *undo.Header
	nextSeq, prevSeq, altNextSeq, altPrevSeq int
}

// Read loads path and, on success, atomically replaces s's DAG and
// positional bookkeeping (OldHead, NewHead, CurHead, NumHeads,
// SeqLast, SeqCur, TimeCur, SaveNrLast, SaveNrCur), sets Synced, and
// restores the single-line undo slot when the file recorded one —
// nothing else on s is touched. The whole file is decoded and validated into local
// structures first; on any error s is left completely untouched, per
// spec §7's Corruption contract ("leave the existing in-memory DAG
// untouched").
//
// The file's recorded buffer hash and line count are checked against
// s.Lines's current content; a mismatch is [ErrHashMismatch].
func (r *Reader) Read(path string, s *undo.State) error {
	f, err := r.fsys.Open(path)
	if err != nil {
		return fmt.Errorf("%w: open %q: %w", ErrIOFailure, path, err)
	}

	defer f.Close()

	loaded, err := decodeFile(f, s.Lines)
	if err != nil {
		return err
	}

	s.OldHead = loaded.oldHead
	s.NewHead = loaded.newHead
	s.CurHead = loaded.curHead
	s.NumHeads = loaded.numHeads
	s.SeqLast = loaded.seqLast
	s.SeqCur = loaded.seqCur
	s.TimeCur = loaded.timeCur
	s.SaveNrLast = loaded.saveNrLast
	s.SaveNrCur = curHeadSaveNr(loaded.curHead, loaded.newHead)
	s.Synced = true

	if loaded.uLineLnum != 0 {
		s.RestoreULineSnapshot(loaded.uLineText, loaded.uLineLnum, loaded.uLineCol)
	}

	return nil
}

// curHeadSaveNr recomputes save_nr_cur the same way apply_header would
// have left it: the save ordinal of the header the buffer currently
// sits at (curhead.next when undone at least once, else newhead), or 0
// if that header never coincided with a save.
func curHeadSaveNr(curHead, newHead *undo.Header) int {
	h := newHead

	if curHead != nil {
		h = curHead.Next
	}

	if h == nil {
		return 0
	}

	return h.SaveNr
}

type loadedFile struct {
	oldHead, newHead, curHead *undo.Header
	numHeads                  int
	seqLast, seqCur           int
	timeCur                   int64
	saveNrLast                int
	uLineText                 []byte
	uLineLnum, uLineCol       int
}

func decodeFile(r io.Reader, lines undohost.LineStore) (*loadedFile, error) {
	d := newDecoder(r)

	got := d.raw(len(startMagic))
	if d.err == nil && !bytes.Equal(got, startMagic[:]) {
		d.err = fmt.Errorf("%w: bad start magic", ErrCorruption)
	}

	version := d.u16()
	if d.err == nil && version != formatVersion {
		return nil, fmt.Errorf("%w: file version %#04x", ErrUnsupportedVersion, version)
	}

	hash := d.raw(32)
	lineCount := d.i32()

	uLineText := d.str()
	uLineLnum := d.i32()
	uLineCol := d.i32()

	oldHeadSeq := d.i32()
	newHeadSeq := d.i32()
	curHeadSeq := d.i32()
	numHeads := d.i32()
	seqLast := d.i32()
	seqCur := d.i32()
	timeCur := d.i64()

	var saveNrLast int

	d.optionalFields(func(tag byte, payload []byte) {
		if tag == optTagLastSaveNr && len(payload) == 4 {
			saveNrLast = int(int32(binary.BigEndian.Uint32(payload)))
		}
	})

	if d.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruption, d.err)
	}

	if err := verifyHash(hash, lineCount, lines); err != nil {
		return nil, err
	}

	byBySeq, err := decodeHeaders(d)
	if err != nil {
		return nil, err
	}

	resolve := func(seq int) (*undo.Header, error) {
		if seq == 0 {
			return nil, nil
		}

		h, ok := byBySeq[seq]
		if !ok {
			return nil, fmt.Errorf("%w: dangling reference to seq %d", ErrCorruption, seq)
		}

		return h, nil
	}

	for _, raw := range byBySeq {
		var err error

		if raw.h.Next, err = resolve(raw.nextSeq); err != nil {
			return nil, err
		}

		if raw.h.Prev, err = resolve(raw.prevSeq); err != nil {
			return nil, err
		}

		if raw.h.AltNext, err = resolve(raw.altNextSeq); err != nil {
			return nil, err
		}

		if raw.h.AltPrev, err = resolve(raw.altPrevSeq); err != nil {
			return nil, err
		}
	}

	oldHead, err := resolve(oldHeadSeq)
	if err != nil {
		return nil, err
	}

	newHead, err := resolve(newHeadSeq)
	if err != nil {
		return nil, err
	}

	curHead, err := resolve(curHeadSeq)
	if err != nil {
		return nil, err
	}

	return &loadedFile{
		oldHead:    oldHead,
		newHead:    newHead,
		curHead:    curHead,
		numHeads:   numHeads,
		seqLast:    seqLast,
		seqCur:     seqCur,
		timeCur:    timeCur,
		saveNrLast: saveNrLast,
		uLineText:  uLineText,
		uLineLnum:  uLineLnum,
		uLineCol:   uLineCol,
	}, nil
}

// decodeHeaders reads the Header* run up to EndOfHeadersMagic,
// returning every header keyed by its own sequence number. Pointer
// fields are left as the raw sequence numbers read from disk; the
// caller resolves them once every header exists.
func decodeHeaders(d *decoder) (map[int]*rawHeader, error) {
	bySeq := make(map[int]*rawHeader)

	for {
		tag := d.u16()
		if d.err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruption, d.err)
		}

		if tag == endOfHeaders {
			return bySeq, nil
		}

		if tag != headerMagic {
			return nil, fmt.Errorf("%w: unexpected header tag %#04x", ErrCorruption, tag)
		}

		raw, err := decodeHeader(d)
		if err != nil {
			return nil, err
		}

		if _, dup := bySeq[raw.h.Seq]; dup {
			return nil, fmt.Errorf("%w: duplicate seq %d", ErrCorruption, raw.h.Seq)
		}

		bySeq[raw.h.Seq] = raw
	}
}

func decodeHeader(d *decoder) (*rawHeader, error) {
	h := &undo.Header{}

	raw := &rawHeader{h: h}

	raw.nextSeq = d.i32()
	raw.prevSeq = d.i32()
	raw.altNextSeq = d.i32()
	raw.altPrevSeq = d.i32()

	h.Seq = d.i32()
	h.Cursor.Line = d.i32()
	h.Cursor.Col = d.i32()
	h.Cursor.ColAdd = d.i32()
	h.CursorVcol = d.i32()
	h.Flags = undo.HeaderFlags(d.u16())

	for i := range h.NamedMarks {
		h.NamedMarks[i].Line = d.i32()
		h.NamedMarks[i].Col = d.i32()
		h.NamedMarks[i].ColAdd = d.i32()
	}

	h.Visual = decodeVisual(d)

	h.Time = unixTime(d.i64())

	d.optionalFields(func(tag byte, payload []byte) {
		if tag == optTagSaveNr && len(payload) == 4 {
			h.SaveNr = int(int32(binary.BigEndian.Uint32(payload)))
		}
	})

	for {
		tag := d.u16()
		if d.err != nil {
			break
		}

		if tag == entryEndMagic {
			break
		}

		if tag != entryMagic {
			d.err = fmt.Errorf("%w: unexpected entry tag %#04x", ErrCorruption, tag)

			break
		}

		h.Entries = append(h.Entries, decodeEntry(d))
	}

	for {
		tag := d.u16()
		if d.err != nil {
			break
		}

		if tag == entryEndMagic {
			break
		}

		if tag != entryMagic {
			d.err = fmt.Errorf("%w: unexpected extmark tag %#04x", ErrCorruption, tag)

			break
		}

		h.ExtmarkDeltas = append(h.ExtmarkDeltas, d.str())
	}

	if d.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruption, d.err)
	}

	return raw, nil
}

func decodeEntry(d *decoder) *undo.Entry {
	e := &undo.Entry{}

	e.Top = d.i32()
	e.Bot = d.i32()
	e.LCount = d.i32()
	e.Size = d.i32()

	e.Lines = make([][]byte, e.Size)
	for i := range e.Lines {
		e.Lines[i] = d.str()
	}

	return e
}

func decodeVisual(d *decoder) undohost.Visual {
	var v undohost.Visual

	v.Start.Line = d.i32()
	v.Start.Col = d.i32()
	v.Start.ColAdd = d.i32()
	v.End.Line = d.i32()
	v.End.Col = d.i32()
	v.End.ColAdd = d.i32()
	v.Mode = rune(d.i32())
	v.Curswant = d.i32()
	v.Active = v.Mode != 0

	return v
}

func verifyHash(hash []byte, lineCount int, lines undohost.LineStore) error {
	if lineCount != lines.LineCount() {
		return fmt.Errorf("%w: line count %d, buffer has %d", ErrHashMismatch, lineCount, lines.LineCount())
	}

	want, err := undo.BufferHash(lines)
	if err != nil {
		return fmt.Errorf("undofile: hash buffer: %w", err)
	}

	if !bytes.Equal(hash, want[:]) {
		return ErrHashMismatch
	}

	return nil
}
