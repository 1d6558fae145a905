package undo

import (
	"fmt"

	"undofile/pkg/undohost"
)

// coalesceScanLimit bounds how many trailing entries of the open header
// RecordChange scans for a coalescing candidate before giving up and
// appending a new entry (spec §4.4). Mirrors the source's fixed limit
// of 10, chosen there to bound the cost of what is otherwise an O(n)
// scan on every single-character insert.
const coalesceScanLimit = 10

// RecordChange captures the pre-image of the line range (top, bot)
// before it is replaced by newbot-top-1 new lines, per spec §4.3. It
// must be called before the mutation is applied to Lines: it reads the
// live buffer to build the pre-image.
//
// newbot is the line number the range's bottom will occupy after the
// mutation; pass 0 if that is not yet known (an insert or delete whose
// final line count depends on further processing) and call resolveBot
// once it is, before the header is next read from.
//
// reload marks the entry as coming from a full buffer reload rather
// than an ordinary edit (spec's UndoSaved), and bypasses the
// modifiable/restricted-mode policy gate and the bot range check,
// since a reload is not a user edit.
func (s *State) RecordChange(top, bot, newbot int, reload bool) error {
	if !reload {
		if !s.Policy.Modifiable() || s.Policy.RestrictedMode() {
			return ErrPolicyDenied
		}

		if bot > s.Lines.LineCount()+1 {
			return fmt.Errorf("%w: bot %d exceeds buffer of %d lines", ErrRangeInvalid, bot, s.Lines.LineCount())
		}
	}

	if top >= bot && bot != 0 {
		return fmt.Errorf("%w: top %d not below bot %d", ErrRangeInvalid, top, bot)
	}

	size := bot - top - 1
	if bot == 0 {
		size = 0
	}

	depth := s.effectiveHistoryDepth()
	if depth < 0 {
		// Undo is disabled outright. The mutation still proceeds; it
		// simply leaves no trace, mirroring the source's u_savecommon
		// returning OK when get_undolevel is negative.
		s.Synced = false

		return nil
	}

	if s.Synced {
		return s.openHeader(top, bot, newbot, size, reload)
	}

	return s.extendHeader(top, bot, newbot, size, reload)
}

// openHeader starts a new Header on top of NewHead, splicing any
// existing alternate-branch history sideways, then records the first
// entry into it. It implements the synced==true half of u_savecommon.
func (s *State) openHeader(top, bot, newbot, size int, reload bool) error {
	uhp := newHeader()

	// If we undid more than we redid, the entry lists from here down to
	// and including CurHead become an alternate branch hanging off the
	// new header, per spec §4.1 step 1.
	oldCurHead := s.CurHead
	if oldCurHead != nil {
		s.NewHead = oldCurHead.Next
		s.CurHead = nil
	}

	protected := oldCurHead
	depth := s.effectiveHistoryDepth()
	s.trim(depth, &protected)

	uhp.Prev = nil
	uhp.Next = s.NewHead
	uhp.AltNext = protected

	if protected != nil {
		uhp.AltPrev = protected.AltPrev
		if uhp.AltPrev != nil {
			uhp.AltPrev.AltNext = uhp
		}

		protected.AltPrev = uhp

		if s.OldHead == protected {
			s.OldHead = uhp
		}
	} else {
		uhp.AltPrev = nil
	}

	if s.NewHead != nil {
		s.NewHead.Prev = uhp
	}

	s.NewHead = uhp

	if s.OldHead == nil {
		s.OldHead = uhp
	}

	s.NumHeads++

	s.SeqLast++
	uhp.Seq = s.SeqLast
	s.SeqCur = uhp.Seq
	uhp.Time = s.now()
	s.TimeCur = uhp.Time.Unix() + 1

	uhp.Cursor = s.Cursor.Cursor()
	uhp.CursorVcol = s.Cursor.CaptureVcol()
	uhp.NamedMarks = s.Cursor.NamedMarks()
	uhp.Visual = s.Cursor.Visual()

	if s.Lines.Modified() {
		uhp.Flags |= FlagChanged
	}

	if s.Lines.Empty() {
		uhp.Flags |= FlagEmptyBuf
	}

	s.CurHead = nil
	s.Synced = true

	return s.addEntry(uhp, top, bot, newbot, size, reload)
}

// extendHeader appends an entry to the currently open header, first
// trying to reuse one of the last coalesceScanLimit existing entries so
// a run of single-character edits into the same line doesn't grow the
// entry list unboundedly (spec §4.4). It implements the synced==false
// half of u_savecommon.
func (s *State) extendHeader(top, bot, newbot, size int, reload bool) error {
	uhp := s.NewHead
	if uhp == nil {
		// Nothing open to extend into; fall back to opening one.
		return s.openHeader(top, bot, newbot, size, reload)
	}

	// Reuse is only possible when the previous change didn't insert or
	// delete lines, which the source restricts to single-line changes.
	// Scan at most the last coalesceScanLimit entries; more doesn't pay
	// for itself and takes too long on a long entry list.
	if size == 1 {
		for i := 0; i < coalesceScanLimit && i < len(uhp.Entries); i++ {
			uep := uhp.Entries[i]

			var consistent bool
			if uhp.getBotEntry == uep {
				consistent = uep.LCount == s.Lines.LineCount()
			} else {
				wantBot := uep.Bot
				if wantBot == 0 {
					wantBot = s.Lines.LineCount() + 1
				}

				consistent = uep.Top+uep.Size+1 == wantBot
			}

			// Lines were inserted or deleted since uep was captured, or
			// the new single-line edit falls inside a multi-line
			// entry's range: reuse is unsafe here and would stay unsafe
			// further down the list too, so give up entirely and fall
			// through to a fresh entry.
			if !consistent || (uep.Size > 1 && top >= uep.Top && top+2 <= uep.Top+uep.Size+1) {
				break
			}

			if uep.Size != 1 || uep.Top != top {
				continue
			}

			if i > 0 {
				// Not the last entry: resolve the current head entry's
				// deferred bot now, since following inserted/deleted
				// lines go to the entry we're about to promote instead.
				if err := s.resolveBot(uhp); err != nil {
					return err
				}

				s.Synced = false

				uhp.Entries = append(uhp.Entries[:i], uhp.Entries[i+1:]...)
				uhp.Entries = append([]*Entry{uep}, uhp.Entries...)
			}

			switch {
			case newbot != 0:
				uep.Bot = newbot
			case bot > s.Lines.LineCount():
				uep.Bot = 0
			default:
				uep.LCount = s.Lines.LineCount()
				uhp.getBotEntry = uep
			}

			return nil
		}
	}

	if err := s.resolveBot(uhp); err != nil {
		return err
	}

	return s.addEntry(uhp, top, bot, newbot, size, reload)
}

// addEntry captures the pre-image of [top, bot) and pushes it onto
// uhp's entry list, newest first.
func (s *State) addEntry(uhp *Header, top, bot, newbot, size int, reload bool) error {
	lines := make([][]byte, 0, size)

	for lnum := top + 1; bot == 0 || lnum < bot; lnum++ {
		if bot == 0 && lnum > s.Lines.LineCount() {
			break
		}

		if s.Interrupt != nil && s.Interrupt() {
			return ErrInterrupted
		}

		text, err := s.Lines.GetLine(lnum)
		if err != nil {
			return err
		}

		lines = append(lines, cloneLine(text))
	}

	uep := &Entry{
		Top:    top,
		Bot:    newbot,
		LCount: s.Lines.LineCount(),
		Size:   len(lines),
		Lines:  lines,
	}

	if reload {
		uhp.Flags |= FlagReload
	}

	if uep.Bot == 0 {
		uhp.getBotEntry = uep
	}

	uhp.Entries = append([]*Entry{uep}, uhp.Entries...)
	s.Synced = false

	return nil
}

// resolveBot fills in the deferred Bot of uhp's still-open entry, now
// that the mutation that opened it has finished and the buffer's line
// count reflects the result. It is a no-op if there is nothing
// deferred, and idempotent otherwise.
func (s *State) resolveBot(uhp *Header) error {
	uep := uhp.getBotEntry
	if uep == nil {
		return nil
	}

	uhp.getBotEntry = nil

	if uep.Bot != 0 {
		return nil
	}

	extra := s.Lines.LineCount() - uep.LCount
	uep.Bot = uep.Top + uep.Size + 1 + extra

	if uep.Bot < uep.Top+1 {
		return fmt.Errorf("%w: resolved bot %d below top %d", ErrInternal, uep.Bot, uep.Top)
	}

	return nil
}

// effectiveHistoryDepth resolves the policy's configured depth,
// treating undohost.NoLocal as "no local override" by falling back to
// a generous default rather than a host-wide value the engine cannot
// see; hosts that want a genuine shared default should not return
// NoLocal from HistoryDepth in the first place.
func (s *State) effectiveHistoryDepth() int {
	depth := s.Policy.HistoryDepth()
	if depth == undohost.NoLocal {
		return 1000
	}

	return depth
}

func cloneLine(text []byte) []byte {
	cp := make([]byte, len(text))
	copy(cp, text)

	return cp
}
