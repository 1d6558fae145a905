package undotrace_test

import (
	"fmt"

	"undofile/pkg/undohost"
)

// fakeBuffer is a minimal in-memory LineStore, mirroring pkg/undo's own
// test double of the same name.
type fakeBuffer struct {
	lines    [][]byte
	modified bool
}

func newFakeBuffer(lines ...string) *fakeBuffer {
	b := &fakeBuffer{}
	for _, l := range lines {
		b.lines = append(b.lines, []byte(l))
	}

	return b
}

func (b *fakeBuffer) GetLine(lnum int) ([]byte, error) {
	if lnum < 1 || lnum > len(b.lines) {
		return nil, fmt.Errorf("fakeBuffer: line %d out of range (%d lines)", lnum, len(b.lines))
	}

	return b.lines[lnum-1], nil
}

func (b *fakeBuffer) ReplaceLine(lnum int, text []byte) error {
	if lnum < 1 || lnum > len(b.lines) {
		return fmt.Errorf("fakeBuffer: line %d out of range", lnum)
	}

	b.lines[lnum-1] = text
	b.modified = true

	return nil
}

func (b *fakeBuffer) AppendLine(after int, text []byte) error {
	if after < 0 || after > len(b.lines) {
		return fmt.Errorf("fakeBuffer: after %d out of range", after)
	}

	b.lines = append(b.lines, nil)
	copy(b.lines[after+1:], b.lines[after:])
	b.lines[after] = text
	b.modified = true

	return nil
}

func (b *fakeBuffer) DeleteLine(lnum int) error {
	if lnum < 1 || lnum > len(b.lines) {
		return fmt.Errorf("fakeBuffer: line %d out of range", lnum)
	}

	b.lines = append(b.lines[:lnum-1], b.lines[lnum:]...)
	b.modified = true

	return nil
}

func (b *fakeBuffer) LineCount() int { return len(b.lines) }

func (b *fakeBuffer) AdjustMarks(top, oldSize, newSize int) {}

func (b *fakeBuffer) Modified() bool { return b.modified }

func (b *fakeBuffer) Empty() bool { return len(b.lines) == 1 && len(b.lines[0]) == 0 }

type fakeCursor struct {
	pos    undohost.Position
	marks  [undohost.NMarks]undohost.Position
	visual undohost.Visual
}

func (c *fakeCursor) Cursor() undohost.Position                          { return c.pos }
func (c *fakeCursor) CaptureVcol() int                                   { return -1 }
func (c *fakeCursor) VirtualEditActive() bool                            { return false }
func (c *fakeCursor) NamedMarks() [undohost.NMarks]undohost.Position     { return c.marks }
func (c *fakeCursor) SetNamedMarks(m [undohost.NMarks]undohost.Position) { c.marks = m }
func (c *fakeCursor) Visual() undohost.Visual                            { return c.visual }
func (c *fakeCursor) SetVisual(v undohost.Visual)                        { c.visual = v }

func (c *fakeCursor) SetCursor(p undohost.Position, vcol int, virtualEdit bool) {
	c.pos = p
}

type fakeExtmarks struct{}

func (e *fakeExtmarks) ApplyExtmarkDelta(delta []byte, dir undohost.Direction) error {
	return nil
}

type fakePolicy struct{}

func (p *fakePolicy) Modifiable() bool     { return true }
func (p *fakePolicy) RestrictedMode() bool { return false }
func (p *fakePolicy) HistoryDepth() int    { return 1000 }
func (p *fakePolicy) ViCompatible() bool   { return false }
func (p *fakePolicy) UndoDirs() string     { return "" }
