package undo

// LeafInfo summarizes one leaf header for the navigator surface (spec
// §6.3's list_leaves).
type LeafInfo struct {
	Seq     int
	Time    int64
	Changes int
	SaveNr  int
}

// ListLeaves returns every leaf header in the DAG — one whose Prev is
// nil, meaning no further undo exists past it on its own branch —
// ordered by a single deterministic walk so callers get a stable
// listing across calls on an unmodified tree. Changes is the header's
// depth from OldHead along the path that reaches it (mirroring
// ex_undolist's running changes counter: it increases by one on every
// step down a Prev chain and is shared by every branch hanging off the
// same AltNext point), not the count of entries within the header.
func (s *State) ListLeaves() []LeafInfo {
	var leaves []LeafInfo

	s.walkLeaves(s.OldHead, 1, &leaves)

	return leaves
}

func (s *State) walkLeaves(h *Header, depth int, leaves *[]LeafInfo) {
	for cur := h; cur != nil; cur = cur.Prev {
		if cur.Prev == nil {
			*leaves = append(*leaves, LeafInfo{
				Seq:     cur.Seq,
				Time:    cur.Time.Unix(),
				Changes: depth,
				SaveNr:  cur.SaveNr,
			})
		}

		if cur.AltNext != nil {
			s.walkLeaves(cur.AltNext, depth, leaves)
		}

		depth++
	}
}

// TreeNode is one node of the nested representation EvalTree produces
// for scripting hosts (spec §6.3's eval_tree), mirroring the shape a
// YAML or JSON encoder can walk directly.
type TreeNode struct {
	Seq     int        `yaml:"seq"`
	Time    int64      `yaml:"time"`
	Changes int        `yaml:"changes"`
	SaveNr  int        `yaml:"save_nr,omitempty"`
	Curhead bool       `yaml:"curhead,omitempty"`
	Alt     []TreeNode `yaml:"alt,omitempty"`
}

// EvalTree renders the DAG rooted at OldHead as a nested dict/list
// structure: each node's primary child (the header directly below it
// via Prev) continues the same list entry's implicit chain, while
// every AltNext sibling starts its own nested chain in Alt, walking
// that branch's own Prev links in turn (u_eval_tree's recursion into
// each alternate branch) so interior headers of a diverged branch are
// represented, not just its entry point.
func (s *State) EvalTree() []TreeNode {
	return s.evalChain(s.OldHead, 1)
}

// evalChain renders the branch chain starting at h (walking Prev) at
// the given depth, with each node's alternates nested under it.
func (s *State) evalChain(h *Header, depth int) []TreeNode {
	var nodes []TreeNode

	for cur := h; cur != nil; cur = cur.Prev {
		nodes = append(nodes, s.evalNode(cur, depth))
		depth++
	}

	return nodes
}

// evalNode renders a single header plus its alternate branches. depth
// is this header's changes count (see ListLeaves); an alt branch
// starts at the same depth as its entry point, since diverging
// sideways doesn't itself count as a change.
func (s *State) evalNode(h *Header, depth int) TreeNode {
	node := TreeNode{
		Seq:     h.Seq,
		Time:    h.Time.Unix(),
		Changes: depth,
		SaveNr:  h.SaveNr,
		Curhead: s.CurHead == h,
	}

	if h.AltNext != nil {
		node.Alt = s.evalChain(h.AltNext, depth)
	}

	return node
}
