package undo

import (
	"undofile/pkg/undohost"
)

// Forget undoes once, then removes the just-undone header from the
// DAG entirely, per spec §4.7: its first alternate is promoted into
// its slot, the alt chain is spliced around the gap, and its own
// sub-DAG is dropped. Unlike Navigate, which merely repositions
// CurHead, Forget destroys history — it is the primitive behind a
// "delete this undo branch" command.
func (s *State) Forget() error {
	uhp := s.nextToUndo()
	if uhp == nil {
		return ErrNothingToUndo
	}

	s.CurHead = uhp

	if err := s.ApplyHeader(undohost.Backward); err != nil {
		return err
	}

	s.unlink(uhp)

	return nil
}

// unlink removes uhp from the DAG, promoting its first alternate (if
// any) into the slot uhp occupied, and frees uhp's own sub-DAG (its
// Prev chain and any further alternates on it). It does not touch
// uhp.AltNext's descendants beyond re-parenting the promoted header.
func (s *State) unlink(uhp *Header) {
	promoted := uhp.AltNext
	uhp.AltNext = nil // detach so freeing uhp's own subtree spares it

	if uhp.Next != nil {
		uhp.Next.Prev = promoted
	} else {
		s.OldHead = promoted
		if promoted == nil {
			// The whole tree emptied out; nothing left below.
			s.OldHead = nil
		}
	}

	if promoted != nil {
		promoted.AltPrev = uhp.AltPrev
		promoted.Next = uhp.Next
	}

	if uhp.AltPrev != nil {
		uhp.AltPrev.AltNext = promoted
	}

	s.NewHead = uhp.Next

	if s.SeqLast == uhp.Seq {
		s.SeqLast--
	}

	protected := (*Header)(nil)

	for cur := uhp; cur != nil; {
		toFree := cur
		if toFree.AltNext != nil {
			s.freeBranch(toFree.AltNext, &protected)
		}

		cur = toFree.Prev

		s.freeEntries(toFree, &protected)
	}

	s.CurHead = promoted
}
