package undo

import (
	"fmt"

	"undofile/pkg/undohost"
)

// ApplyHeader replays s.CurHead in the given direction, per spec §4.5.
// Because every recorded entry is stored as a pre-image swap, the same
// algorithm serves both undo and redo: each call swaps the header's
// recorded lines with whatever the buffer currently holds, so a second
// call in the opposite direction is a perfect inverse.
//
// Callers are responsible for having positioned CurHead correctly
// before calling; ApplyHeader only performs the swap and the
// bookkeeping that follows it. Navigate is the usual caller.
func (s *State) ApplyHeader(dir undohost.Direction) error {
	uhp := s.CurHead
	if uhp == nil {
		return fmt.Errorf("%w: no current header to replay", ErrInternal)
	}

	for _, uep := range uhp.Entries {
		if err := s.applyEntry(uep); err != nil {
			return err
		}
	}

	if err := s.replayExtmarks(uhp, dir); err != nil {
		return err
	}

	s.swapAuxState(uhp)
	s.restoreCursor(uhp)
	s.updateCoordinates(uhp, dir)

	return nil
}

// applyEntry performs the live/recorded swap for one entry, per spec
// §4.5 steps 1-7.
func (s *State) applyEntry(uep *Entry) error {
	bot := uep.Bot
	if bot == 0 {
		bot = s.Lines.LineCount() + 1
	}

	if uep.Top < 0 || bot < uep.Top+1 || bot > s.Lines.LineCount()+1 {
		return fmt.Errorf("%w: entry range [%d,%d) out of bounds for %d lines", ErrCorruption, uep.Top, bot, s.Lines.LineCount())
	}

	oldsize := bot - uep.Top - 1
	newsize := uep.Size

	saved := make([][]byte, 0, oldsize)

	for lnum := uep.Top + 1; lnum < bot; lnum++ {
		text, err := s.Lines.GetLine(lnum)
		if err != nil {
			return err
		}

		saved = append(saved, cloneLine(text))
	}

	wasEmpty := s.Lines.Empty() && oldsize == 1

	for i := 0; i < oldsize; i++ {
		if err := s.Lines.DeleteLine(uep.Top + 1); err != nil {
			return err
		}
	}

	after := uep.Top

	for i, line := range uep.Lines {
		if wasEmpty && i == 0 {
			if err := s.Lines.ReplaceLine(1, line); err != nil {
				return err
			}
		} else {
			if err := s.Lines.AppendLine(after, line); err != nil {
				return err
			}
		}

		after++
	}

	uep.Lines = saved
	uep.Size = oldsize
	uep.Bot = uep.Top + newsize + 1

	s.Lines.AdjustMarks(uep.Top, oldsize, newsize)

	return nil
}

// replayExtmarks replays a header's extmark deltas in the direction
// matching dir: reverse order for undo (unwinding the deltas as they
// were originally applied), forward order for redo.
func (s *State) replayExtmarks(uhp *Header, dir undohost.Direction) error {
	if dir == undohost.Backward {
		for i := len(uhp.ExtmarkDeltas) - 1; i >= 0; i-- {
			if err := s.Extmarks.ApplyExtmarkDelta(uhp.ExtmarkDeltas[i], dir); err != nil {
				return err
			}
		}

		return nil
	}

	for _, delta := range uhp.ExtmarkDeltas {
		if err := s.Extmarks.ApplyExtmarkDelta(delta, dir); err != nil {
			return err
		}
	}

	return nil
}

// swapAuxState records the buffer's live CHANGED/EMPTYBUF state into
// the header's flags, replacing the earlier snapshot; the header's
// previous flags are not applied back to the buffer, since LineStore
// has no setter for them. Named marks and the visual selection are
// exchanged, so a second replay in the opposite direction restores
// the marks and selection that were there before this one ran.
func (s *State) swapAuxState(uhp *Header) {
	var live HeaderFlags

	if s.Lines.Modified() {
		live |= FlagChanged
	}

	if s.Lines.Empty() {
		live |= FlagEmptyBuf
	}

	uhp.Flags = uhp.Flags&^(FlagChanged|FlagEmptyBuf) | live

	marks := s.Cursor.NamedMarks()
	s.Cursor.SetNamedMarks(uhp.NamedMarks)
	uhp.NamedMarks = marks

	visual := s.Cursor.Visual()
	s.Cursor.SetVisual(uhp.Visual)
	uhp.Visual = visual
}

// restoreCursor implements the "o-command friendliness" rule: if the
// buffer's cursor sits exactly one line below the recorded position,
// it is left alone rather than snapped back, since the user most
// likely just typed "o" to open a line below and undo shouldn't yank
// the cursor away from where they're typing.
func (s *State) restoreCursor(uhp *Header) {
	live := s.Cursor.Cursor()
	if live.Line == uhp.Cursor.Line+1 {
		return
	}

	s.Cursor.SetCursor(uhp.Cursor, uhp.CursorVcol, s.Cursor.VirtualEditActive())
}

// updateCoordinates advances seq_cur, time_cur, and save_nr_cur to
// match the header just replayed, per spec §4.5's post-conditions.
func (s *State) updateCoordinates(uhp *Header, dir undohost.Direction) {
	if dir == undohost.Backward {
		if uhp.Next != nil {
			s.SeqCur = uhp.Next.Seq
			s.TimeCur = uhp.Next.Time.Unix() + 1
		} else {
			s.SeqCur = 0
		}

		if uhp.SaveNr != 0 {
			s.SaveNrCur = uhp.SaveNr - 1
		}

		return
	}

	s.SeqCur = uhp.Seq
	s.TimeCur = uhp.Time.Unix() + 1

	if uhp.SaveNr != 0 {
		s.SaveNrCur = uhp.SaveNr
	}
}
