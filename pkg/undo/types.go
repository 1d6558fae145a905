// Package undo implements a multi-level, branching undo engine for a
// line-oriented text buffer, and the algorithms that walk and mutate it:
// change capture ([State.RecordChange]), replay ([State.ApplyHeader]),
// and navigation ([State.Navigate]). The buffer itself, the cursor, the
// extmark subsystem, and host policy are external collaborators reached
// through the interfaces in [undofile/pkg/undohost].
//
// The on-disk representation of everything in this package lives in
// [undofile/pkg/undofile].
package undo

import (
	"time"

	"undofile/pkg/undohost"
)

// NMarks is the number of named marks snapshotted per header.
const NMarks = undohost.NMarks

// HeaderFlags is a bitset of per-header state.
type HeaderFlags uint8

const (
	// FlagChanged records that the buffer was marked modified when this
	// header was captured.
	FlagChanged HeaderFlags = 1 << iota
	// FlagEmptyBuf records that the buffer was empty when this header
	// was captured.
	FlagEmptyBuf
	// FlagReload records that at least one entry in this header came
	// from a full buffer reload rather than an ordinary edit.
	FlagReload
)

// Has reports whether all bits in mask are set.
func (f HeaderFlags) Has(mask HeaderFlags) bool { return f&mask == mask }

// Entry is one contiguous range replacement within a [Header]. It stores
// the pre-image of the line range [Top+1, Bot-1] as it existed just
// before the mutation that owns this entry was applied.
//
// Bot == 0 is a sentinel meaning "resolve later": the true value depends
// on how many lines the still-in-flight mutation adds or removes, and is
// filled in by [State.resolveBot] before the header can be closed.
type Entry struct {
	Top    int // line index immediately above the first replaced line
	Bot    int // line index immediately below the last replaced line, or 0 if deferred
	LCount int // buffer line count when this entry was captured, used to resolve Bot
	Size   int // number of pre-image lines recorded (== len(Lines))
	Lines  [][]byte
}

// Header is one atomic change step: a node in the undo DAG. Four
// pointers give it two independent axes of linkage:
//
//   - Prev/Next walk the branch this header sits on, from leaf (Prev)
//     toward root (Next).
//   - AltNext/AltPrev walk sideways to a branch that diverged from this
//     point in history.
//
// A Header's zero value is not meaningful; construct one with newHeader.
type Header struct {
	Prev, Next         *Header
	AltNext, AltPrev   *Header

	Seq    int
	Time   time.Time
	SaveNr int // 0, or the save ordinal at which this change coincided with a write

	Cursor     undohost.Position
	CursorVcol int
	Flags      HeaderFlags

	NamedMarks [NMarks]undohost.Position
	Visual     undohost.Visual

	// Entries is newest-first, mirroring the source's singly linked list
	// with insertion at the head.
	Entries []*Entry

	ExtmarkDeltas [][]byte

	// getBotEntry is the entry (if any) whose Bot is still deferred.
	// Transient: meaningless once resolveBot has run.
	getBotEntry *Entry

	// walk is a scratch field stamped by tree walks (Navigate, the
	// serializer, leaf enumeration) to mark visitation without any
	// persistent side effect. See walkToken.
	walk uint64
}

// State is the complete undo history for one buffer: the DAG of
// [Header] nodes plus the bookkeeping needed to know where "now" sits
// within it.
type State struct {
	OldHead *Header // root: oldest header on the primary branch
	NewHead *Header // leaf: most recent change on the primary branch
	CurHead *Header // header above the current buffer state; nil means "at the leaf"

	NumHeads int

	SeqLast int // highest sequence number ever assigned
	SeqCur  int // sequence number matching the buffer's current state

	TimeCur int64 // Time (unix seconds) of the header matching current state

	SaveNrLast int // last-ever file-write ordinal
	SaveNrCur  int // save ordinal matching current state

	// Synced, when true, means the next RecordChange opens a new
	// header; when false, it appends an Entry to NewHead.
	Synced bool

	uLine uLineSlot

	Lines    undohost.LineStore
	Cursor   undohost.CursorHost
	Extmarks undohost.ExtmarkHost
	Policy   undohost.PolicyHost

	// Interrupt is polled between lines during a long RecordChange copy
	// loop. A nil Interrupt means "never interrupted".
	Interrupt func() bool

	// Now supplies the timestamp for newly opened headers. A nil Now
	// means time.Now; tests substitute a deterministic clock.
	Now func() time.Time
}

func (s *State) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}

	return time.Now()
}

// uLineSlot is the independent single-line "restore this line" slot
// used by the line-level undo command (spec §4.2). It has no
// relationship to the header DAG.
type uLineSlot struct {
	valid bool
	text  []byte
	lnum  int
	col   int
}

// New constructs an empty undo history bound to the given host
// collaborators. All four hosts must be non-nil.
func New(lines undohost.LineStore, cursor undohost.CursorHost, extmarks undohost.ExtmarkHost, policy undohost.PolicyHost) *State {
	if lines == nil || cursor == nil || extmarks == nil || policy == nil {
		panic("undo.New: all host collaborators must be non-nil")
	}

	return &State{
		Lines:    lines,
		Cursor:   cursor,
		Extmarks: extmarks,
		Policy:   policy,
		Synced:   true,
	}
}

func newHeader() *Header {
	return &Header{}
}
