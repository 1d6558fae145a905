package undo

import "sync/atomic"

// walkCounter is process-wide monotonic state, per the design note
// "Transient walk tokens": every token-stamped tree walk (Navigate,
// WalkHeaders and so the serializer) needs a token no earlier walk
// could have used, so
// header.walk == token unambiguously means "visited by this walk".
// Tokens are never cleared; they simply keep counting up.
var walkCounter atomic.Uint64

// nextWalkToken returns a token guaranteed unused by any prior walk in
// this process.
func nextWalkToken() uint64 {
	return walkCounter.Add(1)
}

// WalkHeaders visits every header reachable from OldHead exactly once,
// in the same order [pkg/undofile]'s writer emits them on disk (spec
// §6.2): the walk order is a property of the DAG's shape, not of what
// a caller happens to do with each header.
func (s *State) WalkHeaders(visit func(h *Header)) {
	walkAll(s.OldHead, visit)
}

// walkAll visits every header reachable from oldHead exactly once. The
// traversal order is fixed by spec §6.2 and mirrors the source's write
// loop: from the current header, prefer going down (Prev), then
// sideways to an undiscovered alternate branch (AltNext), then up the
// primary chain (Next) if there is no alternate to backtrack through,
// then back up an alt chain (AltPrev); Next is the fallback of last
// resort. visit is called once per header, the first time it is
// reached.
func walkAll(oldHead *Header, visit func(h *Header)) {
	token := nextWalkToken()

	uhp := oldHead
	for uhp != nil {
		if uhp.walk != token {
			uhp.walk = token
			visit(uhp)
		}

		switch {
		case uhp.Prev != nil && uhp.Prev.walk != token:
			uhp = uhp.Prev
		case uhp.AltNext != nil && uhp.AltNext.walk != token:
			uhp = uhp.AltNext
		case uhp.Next != nil && uhp.AltPrev == nil && uhp.Next.walk != token:
			uhp = uhp.Next
		case uhp.AltPrev != nil:
			uhp = uhp.AltPrev
		default:
			uhp = uhp.Next
		}
	}
}
