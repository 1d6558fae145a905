package undo

import "bytes"

// CaptureLine stores a copy of the current text of lnum into the
// single-line "restore this line" slot (spec §4.2). It is independent
// of the header DAG: the line-level undo command uses it to toggle a
// single line's contents without opening or extending a Header.
func (s *State) CaptureLine(lnum int) error {
	text, err := s.Lines.GetLine(lnum)
	if err != nil {
		return err
	}

	cp := make([]byte, len(text))
	copy(cp, text)

	s.uLine = uLineSlot{
		valid: true,
		text:  cp,
		lnum:  lnum,
		col:   s.Cursor.Cursor().Col,
	}

	return nil
}

// ULineSnapshot exposes the current single-line slot for persistence
// (spec §6.1's ULine record). ok is false when nothing is captured, in
// which case text/lnum/col are meaningless.
func (s *State) ULineSnapshot() (text []byte, lnum, col int, ok bool) {
	if !s.uLine.valid {
		return nil, 0, 0, false
	}

	return s.uLine.text, s.uLine.lnum, s.uLine.col, true
}

// RestoreULineSnapshot installs a single-line slot loaded from disk.
func (s *State) RestoreULineSnapshot(text []byte, lnum, col int) {
	s.uLine = uLineSlot{
		valid: true,
		text:  text,
		lnum:  lnum,
		col:   col,
	}
}

// LineUndo swaps the captured line back into the buffer, and stores
// whatever was there instead so a second call toggles back. Reports
// false if no line is currently captured.
func (s *State) LineUndo() (bool, error) {
	if !s.uLine.valid {
		return false, nil
	}

	current, err := s.Lines.GetLine(s.uLine.lnum)
	if err != nil {
		return false, err
	}

	if bytes.Equal(current, s.uLine.text) {
		return true, nil
	}

	swap := make([]byte, len(current))
	copy(swap, current)

	if err := s.Lines.ReplaceLine(s.uLine.lnum, s.uLine.text); err != nil {
		return false, err
	}

	s.uLine.text = swap

	return true, nil
}
