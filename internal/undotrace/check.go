// Package undotrace is the runtime-debug consistency checker mirroring
// the source's optional tree-consistency checker (spec §9, "Debug
// self-check"): it enforces invariants 1-4 from spec §8 against a
// live [undo.State] without mutating it.
//
// [Check] is meant to be called unconditionally from tests, and only
// conditionally from library code — [Enabled] gates that decision on
// an env var, the way vim's own checker is gated on a compile-time
// U_DEBUG flag.
package undotrace

import (
	"errors"
	"fmt"
	"os"

	"undofile/pkg/undo"
)

// Enabled reports whether the undotrace=1 env var is set, mirroring
// vim's U_DEBUG compile flag as a runtime toggle instead. Library code
// should call [Check] only when this is true; tests should call
// [Check] regardless.
func Enabled() bool {
	return os.Getenv("undotrace") == "1"
}

// CheckIfEnabled calls [Check] only when [Enabled] is true, so
// production call sites can call it unconditionally without paying
// for tree walks when the checker is off.
func CheckIfEnabled(s *undo.State) error {
	if !Enabled() {
		return nil
	}

	return Check(s)
}

// Check walks the whole DAG reachable from s.OldHead and verifies:
//
//  1. every header's Seq is unique and within [1, s.SeqLast]
//  2. s.NumHeads equals the number of headers reachable from OldHead
//  3. Prev/Next and AltNext/AltPrev links are symmetric
//  4. CurHead is nil or reachable; NewHead has Prev == nil; OldHead has
//     Next == nil and AltPrev == nil
//
// It returns a joined error naming every violation found, or nil if
// the DAG is consistent. Check never mutates s.
func Check(s *undo.State) error {
	var errs []error

	seen := map[int]*undo.Header{}
	reachable := map[*undo.Header]bool{}

	s.WalkHeaders(func(h *undo.Header) {
		reachable[h] = true

		if h.Seq < 1 || h.Seq > s.SeqLast {
			errs = append(errs, fmt.Errorf("seq %d out of range [1, %d]", h.Seq, s.SeqLast))
		}

		if prior, dup := seen[h.Seq]; dup && prior != h {
			errs = append(errs, fmt.Errorf("duplicate seq %d", h.Seq))
		}

		seen[h.Seq] = h

		if h.Prev != nil && h.Prev.Next != h {
			errs = append(errs, fmt.Errorf("seq %d: prev.next != self", h.Seq))
		}

		if h.Next != nil && h.Next.Prev != h {
			errs = append(errs, fmt.Errorf("seq %d: next.prev != self", h.Seq))
		}

		if h.AltNext != nil && h.AltNext.AltPrev != h {
			errs = append(errs, fmt.Errorf("seq %d: alt_next.alt_prev != self", h.Seq))
		}

		if h.AltPrev != nil && h.AltPrev.AltNext != h {
			errs = append(errs, fmt.Errorf("seq %d: alt_prev.alt_next != self", h.Seq))
		}
	})

	if got := len(seen); got != s.NumHeads {
		errs = append(errs, fmt.Errorf("num_heads=%d but %d headers reachable from oldhead", s.NumHeads, got))
	}

	if s.CurHead != nil && !reachable[s.CurHead] {
		errs = append(errs, errors.New("curhead is set but not reachable from oldhead"))
	}

	if s.NewHead != nil && s.NewHead.Prev != nil {
		errs = append(errs, fmt.Errorf("newhead (seq %d) has a non-nil prev", s.NewHead.Seq))
	}

	if s.OldHead != nil {
		if s.OldHead.Next != nil {
			errs = append(errs, fmt.Errorf("oldhead (seq %d) has a non-nil next", s.OldHead.Seq))
		}

		if s.OldHead.AltPrev != nil {
			errs = append(errs, fmt.Errorf("oldhead (seq %d) has a non-nil alt_prev", s.OldHead.Seq))
		}
	}

	return errors.Join(errs...)
}
