package undofile_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"undofile/pkg/fs"
	"undofile/pkg/undo"
	"undofile/pkg/undofile"
)

// buildBranchingHistory reproduces spec §8's S2 scenario: two linear
// edits, undo both, then a fresh edit from the root that turns the
// undone chain into an alternate branch.
func buildBranchingHistory(t *testing.T) (*undo.State, *fakeBuffer) {
	t.Helper()

	s, buf := newTestState("a", "b", "c")

	require.NoError(t, s.RecordChange(0, 2, 2, false))
	buf.lines[0] = []byte("A1")
	s.Synced = true

	require.NoError(t, s.RecordChange(1, 3, 3, false))
	buf.lines[1] = []byte("B1")
	s.Synced = true

	_, err := s.Navigate(-2, undo.ModeCount)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, buf.snapshot())

	require.NoError(t, s.RecordChange(0, 2, 2, false))
	buf.lines[0] = []byte("A2")
	s.Synced = true

	return s, buf
}

func (b *fakeBuffer) snapshot() []string {
	out := make([]string, len(b.lines))
	for i, l := range b.lines {
		out[i] = string(l)
	}

	return out
}

func TestWriteRead_RoundTripRestoresIsomorphicDAG(t *testing.T) {
	t.Parallel()

	s, buf := buildBranchingHistory(t)

	dir := t.TempDir()
	path := dir + "/buf.undo"

	real := fs.NewReal()

	require.NoError(t, undofile.NewWriter(real).Write(path, s))

	loaded, _ := newTestState(buf.snapshot()...)

	require.NoError(t, undofile.NewReader(real).Read(path, loaded))

	require.Equal(t, s.NumHeads, loaded.NumHeads)
	require.Equal(t, s.SeqLast, loaded.SeqLast)
	require.Equal(t, s.SeqCur, loaded.SeqCur)
	require.Equal(t, s.TimeCur, loaded.TimeCur)

	require.Equal(t, walkSeqShape(s), walkSeqShape(loaded))
}

// walkSeqShape renders the DAG as a comparable value: for every header,
// its own seq plus the seqs its four links point at (0 for nil). Two
// DAGs with identical shapes produce identical slices regardless of
// pointer identity or walk order, since the slice is sorted by seq.
type headerShape struct {
	Seq, NextSeq, PrevSeq, AltNextSeq, AltPrevSeq, EntryCount int
}

func walkSeqShape(s *undo.State) []headerShape {
	var shapes []headerShape

	s.WalkHeaders(func(h *undo.Header) {
		shape := headerShape{Seq: h.Seq, EntryCount: len(h.Entries)}
		if h.Next != nil {
			shape.NextSeq = h.Next.Seq
		}

		if h.Prev != nil {
			shape.PrevSeq = h.Prev.Seq
		}

		if h.AltNext != nil {
			shape.AltNextSeq = h.AltNext.Seq
		}

		if h.AltPrev != nil {
			shape.AltPrevSeq = h.AltPrev.Seq
		}

		shapes = append(shapes, shape)
	})

	for i := 0; i < len(shapes); i++ {
		for j := i + 1; j < len(shapes); j++ {
			if shapes[j].Seq < shapes[i].Seq {
				shapes[i], shapes[j] = shapes[j], shapes[i]
			}
		}
	}

	return shapes
}

func TestWriteRead_EntryTextSurvivesRoundTrip(t *testing.T) {
	t.Parallel()

	s, buf := newTestState("one", "two", "three")
	require.NoError(t, s.RecordChange(1, 3, 3, false))
	buf.lines[1] = []byte("TWO")

	dir := t.TempDir()
	path := dir + "/buf.undo"
	real := fs.NewReal()

	require.NoError(t, undofile.NewWriter(real).Write(path, s))

	loaded, _ := newTestState(buf.snapshot()...)
	require.NoError(t, undofile.NewReader(real).Read(path, loaded))

	require.Equal(t, 1, loaded.NewHead.Seq)
	require.Len(t, loaded.NewHead.Entries, 1)
	require.Equal(t, [][]byte{[]byte("two")}, loaded.NewHead.Entries[0].Lines)
}

func TestRead_HashMismatchRejectsAndLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	s, buf := newTestState("one", "two", "three")
	require.NoError(t, s.RecordChange(1, 3, 3, false))
	buf.lines[1] = []byte("TWO")

	dir := t.TempDir()
	path := dir + "/buf.undo"
	real := fs.NewReal()

	require.NoError(t, undofile.NewWriter(real).Write(path, s))

	target, targetBuf := newTestState("one", "two", "three")
	require.NoError(t, target.RecordChange(1, 2, 2, false))

	targetBuf.lines[0] = []byte("ONE-MUTATED")

	err := undofile.NewReader(real).Read(path, target)
	require.ErrorIs(t, err, undofile.ErrHashMismatch)

	// The failed read must not have touched target's existing DAG.
	require.Equal(t, 1, target.NumHeads)
}
