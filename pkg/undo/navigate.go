package undo

import (
	"fmt"

	"undofile/pkg/undohost"
)

// NavigateMode selects which coordinate Navigate's step argument is
// measured in.
type NavigateMode int

const (
	// ModeCount steps by sequence number: step is relative to seq_cur.
	ModeCount NavigateMode = iota
	// ModeSeconds steps by wall-clock time: step is relative to time_cur.
	ModeSeconds
	// ModeSaves steps by file-write ordinal: step is relative to
	// save_nr_cur, folding unsaved changes since the last write into a
	// single step.
	ModeSaves
	// ModeAbsolute targets a specific sequence number directly.
	ModeAbsolute
)

// Navigate moves the buffer to the header nearest the target implied
// by (step, mode), per spec §4.6. On success it reports the sequence
// number the buffer now sits at. It is a direct translation of the
// source's undo_time: a two-round tree walk to locate a target
// coordinate, followed by an undo-then-redo walk of the path to it.
func (s *State) Navigate(step int, mode NavigateMode) (int, error) {
	target, closest, dosec, dofile := s.seedTarget(step, mode)

	if target == 0 {
		return s.runPath(0, false)
	}

	above := false
	closestStart := closest
	closestSeq := s.SeqCur

	var landed *Header

	for round := 1; round <= 2; round++ {
		mark := nextWalkToken()
		nomark := nextWalkToken()

		landed = s.searchRound(&target, &closest, &closestSeq, closestStart, mark, nomark, step, dosec, dofile)
		if landed != nil {
			return s.runPath(target, above, mark)
		}

		if mode == ModeAbsolute {
			return s.SeqCur, fmt.Errorf("%w: undo number %d not found", ErrRangeInvalid, step)
		}

		if closest == closestStart {
			return s.SeqCur, ErrNothingToUndo
		}

		target = closestSeq
		dosec = false
		dofile = false

		if step < 0 {
			above = true
		}
	}

	return s.SeqCur, ErrNothingToUndo
}

// seedTarget computes the initial target coordinate and the "closest"
// sentinel round 1 will refine, per undo_time's target/closest setup.
func (s *State) seedTarget(step int, mode NavigateMode) (target, closest int, dosec, dofile bool) {
	switch mode {
	case ModeAbsolute:
		return step, -1, false, false
	case ModeSeconds:
		dosec = true
		target = int(s.TimeCur) + step
	case ModeSaves:
		dofile = true
		target = s.saveTarget(step, &dofile)
	default:
		target = s.SeqCur + step
	}

	if step < 0 {
		if target < 0 {
			target = 0
		}

		closest = -1

		return target, closest, dosec, dofile
	}

	switch {
	case dosec:
		closest = int(s.now().Unix()) + 1
	case dofile:
		closest = s.SaveNrLast + 2
	default:
		closest = s.SeqLast + 2
	}

	if target >= closest {
		target = closest - 1
	}

	return target, closest, dosec, dofile
}

// saveTarget implements the file-step target computation of spec
// §4.6, clearing *dofile (falling back to sequence-number targeting)
// when the requested file-step clamps outside [0, save_nr_last+1].
func (s *State) saveTarget(step int, dofile *bool) int {
	if step < 0 {
		above := s.nextToUndo()
		target := s.SaveNrCur + step

		if above == nil || above.SaveNr == 0 {
			target = s.SaveNrCur + step + 1
		}

		if target <= 0 {
			*dofile = false

			return 0
		}

		return target
	}

	target := s.SaveNrCur + step
	if target > s.SaveNrLast {
		*dofile = false

		return s.SeqLast + 1
	}

	return target
}

// headerAboveCur returns the header that a walk starting "at the
// current position" begins from: NewHead when nothing is undone yet,
// CurHead otherwise.
func (s *State) headerAboveCur() *Header {
	if s.CurHead == nil {
		return s.NewHead
	}

	return s.CurHead
}

// nextToUndo returns the next header a plain undo step would apply:
// NewHead when nothing has been undone yet, or CurHead.Next (one
// further toward the root) once CurHead already marks a prior undo.
func (s *State) nextToUndo() *Header {
	if s.CurHead == nil {
		return s.NewHead
	}

	return s.CurHead.Next
}

// searchRound performs one walk of the whole reachable DAG starting
// from headerAboveCur, updating *target (to the exact seq once found),
// tracking *closest/*closestSeq, and returning the header that matched
// target exactly, or nil if the walk exhausted itself without one.
func (s *State) searchRound(target, closest, closestSeq *int, closestStart int, mark, nomark uint64, step int, dosec, dofile bool) *Header {
	uhp := s.headerAboveCur()

	for uhp != nil {
		uhp.walk = mark

		val := uhp.Seq
		switch {
		case dosec:
			val = int(uhp.Time.Unix())
		case dofile:
			val = uhp.SaveNr
		}

		if !(dofile && val == 0) {
			onSide := false
			if step < 0 {
				onSide = uhp.Seq <= s.SeqCur
			} else {
				onSide = uhp.Seq > s.SeqCur
			}

			if onSide {
				var better bool

				switch {
				case dosec && val == *closest:
					if step < 0 {
						better = uhp.Seq < *closestSeq
					} else {
						better = uhp.Seq > *closestSeq
					}
				case *closest == closestStart:
					better = true
				case val > *target:
					if *closest > *target {
						better = val-*target <= *closest-*target
					} else {
						better = val-*target <= *target-*closest
					}
				default:
					if *closest > *target {
						better = *target-val <= *closest-*target
					} else {
						better = *target-val <= *target-*closest
					}
				}

				if better {
					*closest = val
					*closestSeq = uhp.Seq
				}
			}
		}

		if *target == val && !dosec {
			*target = uhp.Seq

			return uhp
		}

		switch {
		case uhp.Prev != nil && uhp.Prev.walk != nomark && uhp.Prev.walk != mark:
			uhp = uhp.Prev
		case uhp.AltNext != nil && uhp.AltNext.walk != nomark && uhp.AltNext.walk != mark:
			uhp = uhp.AltNext
		case uhp.Next != nil && uhp.AltPrev == nil && uhp.Next.walk != nomark && uhp.Next.walk != mark:
			if s.CurHead != nil && uhp == s.CurHead {
				uhp.walk = nomark
			}

			uhp = uhp.Next
		default:
			uhp.walk = nomark
			if uhp.AltPrev != nil {
				uhp = uhp.AltPrev
			} else {
				uhp = uhp.Next
			}
		}
	}

	return nil
}

// runPath executes the undo-then-redo walk to target, following the
// walk-token markings searchRound left behind (mark == the token of
// the winning round). above suppresses the final redo step when
// target itself was never actually reached, landing one header short
// of it instead.
func (s *State) runPath(target int, above bool, mark ...uint64) (int, error) {
	var tok uint64
	if len(mark) > 0 {
		tok = mark[0]
	}

	for {
		var uhp *Header
		if s.CurHead == nil {
			uhp = s.NewHead
		} else {
			uhp = s.CurHead.Next
		}

		if uhp == nil || (target > 0 && uhp.walk != tok) || (uhp.Seq == target && !above) {
			break
		}

		s.CurHead = uhp

		if err := s.ApplyHeader(undohost.Backward); err != nil {
			return s.SeqCur, err
		}

		if target > 0 {
			uhp.walk = 0 // don't go back down here during the redo pass
		}
	}

	if target == 0 {
		return s.SeqCur, nil
	}

	for {
		uhp := s.CurHead
		if uhp == nil {
			break
		}

		for uhp.AltPrev != nil && uhp.AltPrev.walk == tok {
			uhp = uhp.AltPrev
		}

		last := uhp
		for last.AltNext != nil && last.AltNext.walk == tok {
			last = last.AltNext
		}

		if last != uhp {
			s.rotateBranchToFront(uhp, last)
			uhp = last
		}

		s.CurHead = uhp

		if uhp.walk != tok {
			break
		}

		if uhp.Seq == target && above {
			s.SeqCur = target - 1

			break
		}

		if err := s.ApplyHeader(undohost.Forward); err != nil {
			return s.SeqCur, err
		}

		if uhp.Prev == nil {
			s.NewHead = uhp
		}

		s.CurHead = uhp.Prev

		if uhp.Seq == target {
			break
		}
	}

	return s.SeqCur, nil
}

// rotateBranchToFront makes last's whole run of alternates, from uhp
// to last, the front of the alt-sibling list it belongs to, so a
// future plain undo/redo without an explicit target follows the
// branch just taken (spec §4.6's "future plain-undo follows this
// path" rule).
func (s *State) rotateBranchToFront(uhp, last *Header) {
	for uhp.AltPrev != nil {
		uhp = uhp.AltPrev
	}

	if last.AltNext != nil {
		last.AltNext.AltPrev = last.AltPrev
	}

	last.AltPrev.AltNext = last.AltNext
	last.AltPrev = nil
	last.AltNext = uhp
	uhp.AltPrev = last

	if s.OldHead == uhp {
		s.OldHead = last
	}

	if last.Next != nil {
		last.Next.Prev = last
	}
}
