// Package undohost defines the capabilities the undo engine consumes from
// its surrounding editor: the line store, the cursor/window, the extmark
// subsystem, and the host's policy layer. The engine in [pkg/undo] never
// touches a text buffer or a window directly; it is generic over these
// interfaces so it can be driven by tests without a real editor attached.
package undohost

import "fmt"

// Position is a cursor or mark location. Line is 1-indexed to match the
// line numbering used throughout the engine; Col is 0-indexed byte offset.
type Position struct {
	Line   int
	Col    int
	ColAdd int // virtual column past end of line, for virtual-edit mode
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d+%d", p.Line, p.Col, p.ColAdd)
}

// Direction is the replay direction passed to [undohost.ExtmarkHost] and
// used throughout pkg/undo to select undo-vs-redo behavior.
type Direction int

const (
	// Backward replays a header in the undo direction (toward the root).
	Backward Direction = iota
	// Forward replays a header in the redo direction (toward the leaf).
	Forward
)

func (d Direction) String() string {
	if d == Forward {
		return "redo"
	}

	return "undo"
}

// LineStore is the line-oriented text buffer the engine mutates and
// captures pre-images from. Line numbers are 1-indexed.
type LineStore interface {
	// GetLine returns the text of line lnum. lnum must satisfy
	// 1 <= lnum <= LineCount().
	GetLine(lnum int) ([]byte, error)

	// ReplaceLine overwrites the text of an existing line.
	ReplaceLine(lnum int, text []byte) error

	// AppendLine inserts a new line directly after line "after".
	// after == 0 inserts before the first line.
	AppendLine(after int, text []byte) error

	// DeleteLine removes a line, shifting subsequent lines up.
	DeleteLine(lnum int) error

	// LineCount returns the current number of lines in the buffer.
	LineCount() int

	// AdjustMarks is informed of a splice at line top+1 that replaced
	// oldSize lines with newSize lines, so the host can shift its own
	// line-based bookkeeping (folds, matches, and so on) accordingly.
	AdjustMarks(top, oldSize, newSize int)

	// Modified reports the buffer's "changed since last write" flag.
	Modified() bool

	// Empty reports whether the buffer is the special single-empty-line
	// state a freshly created buffer starts in.
	Empty() bool
}

// NMarks is the number of named marks a [CursorHost] snapshots per
// header, mirroring [undofile/pkg/undo.NMarks].
const NMarks = 26

// CursorHost reads and writes the window's cursor, its named marks, and
// the visual selection.
type CursorHost interface {
	Cursor() Position

	// CaptureVcol returns the virtual column to snapshot alongside the
	// cursor, or -1 when virtual editing is not active. Only meaningful
	// immediately after reading Cursor.
	CaptureVcol() int

	// SetCursor restores a previously snapshotted position. vcol is the
	// value returned by CaptureVcol at snapshot time; virtualEdit tells
	// the host whether virtual editing is currently active, which
	// decides whether vcol should be honored.
	SetCursor(p Position, vcol int, virtualEdit bool)

	// VirtualEditActive reports whether virtual editing is on right now.
	VirtualEditActive() bool

	// NamedMarks returns the current snapshot of all named marks.
	NamedMarks() [NMarks]Position

	// SetNamedMarks restores a previously snapshotted set of marks.
	SetNamedMarks(marks [NMarks]Position)

	// Visual returns the current visual-selection state.
	Visual() Visual

	// SetVisual restores a previously snapshotted visual selection.
	SetVisual(v Visual)
}

// Visual is a visual-selection snapshot, mirroring vim's uh_visual.
type Visual struct {
	Start    Position
	End      Position
	Mode     rune
	Curswant int
	Active   bool
}

// ExtmarkHost replays opaque extmark undo deltas. The engine stores the
// deltas verbatim (as returned from the host at capture time) and hands
// them back unmodified; it never interprets their contents.
type ExtmarkHost interface {
	ApplyExtmarkDelta(delta []byte, dir Direction) error
}

// NoLocal is the sentinel history-depth value meaning "defer to the
// host's global default" (spec's NO_LOCAL).
const NoLocal = -2

// PolicyHost exposes the host's read-only gates and configuration knobs.
// A HistoryDepth of -1 disables undo entirely; [NoLocal] defers to a
// host-wide default the engine does not know about.
type PolicyHost interface {
	Modifiable() bool
	RestrictedMode() bool
	HistoryDepth() int
	ViCompatible() bool
	UndoDirs() string
}
