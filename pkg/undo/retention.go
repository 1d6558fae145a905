package undo

// trim enforces the bounded-history policy: while NumHeads exceeds
// limit and there is an oldest header to drop, it drops one node,
// preferring a complete alternate branch (the oldest one, if several
// hang off the same header) over a header that still has descendants
// on the active branch. protected, if non-nil, points at the caller's
// reference to the just-displaced curhead that must survive as an
// alternate; if it would be dropped, its whole branch is dropped
// instead and *protected is set to nil so the caller knows.
//
// limit < 0 disables undo outright; callers achieve that by never
// calling trim with anything left to protect (see RecordChange), since
// trim's job here is purely mechanical bookkeeping over the DAG.
func (s *State) trim(limit int, protected **Header) {
	for s.NumHeads > limit && s.OldHead != nil {
		uhfree := s.OldHead

		switch {
		case protected != nil && uhfree == *protected:
			// Can't reconnect the branch, delete all of it.
			s.freeBranch(uhfree, protected)
		case uhfree.AltNext == nil:
			// There is no branch, only free one header.
			s.freeHeader(uhfree, protected)
		default:
			// Free the oldest alternate branch as a whole.
			for uhfree.AltNext != nil {
				uhfree = uhfree.AltNext
			}

			s.freeBranch(uhfree, protected)
		}
	}
}

// freeHeader detaches uhp from the DAG and frees it and its own alt
// branch, relinking Prev/Next across the gap it leaves.
func (s *State) freeHeader(uhp *Header, protected **Header) {
	// An alternate redo list hanging off this header can never be
	// reached once uhp is gone; free it too.
	if uhp.AltNext != nil {
		s.freeBranch(uhp.AltNext, protected)
	}

	if uhp.AltPrev != nil {
		uhp.AltPrev.AltNext = nil
	}

	if uhp.Next == nil {
		s.OldHead = uhp.Prev
	} else {
		uhp.Next.Prev = uhp.Prev
	}

	if uhp.Prev == nil {
		s.NewHead = uhp.Next
	} else {
		for uhap := uhp.Prev; uhap != nil; uhap = uhap.AltNext {
			uhap.Next = uhp.Next
		}
	}

	s.freeEntries(uhp, protected)
}

// freeBranch frees uhp and every header reachable from it via Prev,
// along with any alternate branches hanging off any of them.
func (s *State) freeBranch(uhp *Header, protected **Header) {
	if uhp == s.OldHead {
		for s.OldHead != nil {
			s.freeHeader(s.OldHead, protected)
		}

		return
	}

	if uhp.AltPrev != nil {
		uhp.AltPrev.AltNext = nil
	}

	for next := uhp; next != nil; {
		toFree := next
		if toFree.AltNext != nil {
			s.freeBranch(toFree.AltNext, protected)
		}

		next = toFree.Prev

		s.freeEntries(toFree, protected)
	}
}

// freeEntries drops uhp's reference-carrying pointers and decrements
// NumHeads. Go's garbage collector reclaims uhp and its entries once
// nothing else in the DAG points at them; there is no manual free.
func (s *State) freeEntries(uhp *Header, protected **Header) {
	if s.CurHead == uhp {
		s.CurHead = nil
	}

	if s.NewHead == uhp {
		s.NewHead = nil
	}

	if protected != nil && *protected == uhp {
		*protected = nil
	}

	s.NumHeads--
}
