package undo_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"undofile/pkg/undo"
)

func TestNavigate_SecondsMode(t *testing.T) {
	t.Parallel()

	s, buf := newTestState("a")

	base := time.Unix(1_700_000_000, 0)
	s.Now = func() time.Time { return base }
	applyEdit(t, s, buf, 0, 2, 2, "b")

	s.Synced = true
	s.Now = func() time.Time { return base.Add(10 * time.Second) }
	applyEdit(t, s, buf, 0, 2, 2, "c")

	// -5s from time_cur lands between the two edits, closer to the more
	// recent one: the walk undoes exactly that one change and stops,
	// mirroring the source's "stop above the header" rule when a time
	// target doesn't align exactly with any recorded timestamp.
	_, err := s.Navigate(-5, undo.ModeSeconds)
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, buf.snapshot())
	require.Equal(t, 1, s.SeqCur)
}

func TestNavigate_SaveCountStepsBackThroughEachSave(t *testing.T) {
	t.Parallel()

	s, buf := newTestState("a")

	for i := 0; i < 9; i++ {
		applyEdit(t, s, buf, 0, 2, 2, fmt.Sprintf("v%d", i+1))
		s.Synced = true
	}

	require.Equal(t, 9, s.SeqCur)

	var seq3, seq7 *undo.Header

	s.WalkHeaders(func(h *undo.Header) {
		switch h.Seq {
		case 3:
			seq3 = h
		case 7:
			seq7 = h
		}
	})

	require.NotNil(t, seq3)
	require.NotNil(t, seq7)

	// Simulate two file writes, at seq 3 and seq 7, as buf_write would
	// mark them: the header current at write time gets the next save
	// ordinal, and save_nr_cur tracks it until further navigation moves
	// past another save-marked header.
	seq3.SaveNr = 1
	seq7.SaveNr = 2
	s.SaveNrLast = 2
	s.SaveNrCur = 2

	got, err := s.Navigate(-1, undo.ModeSaves)
	require.NoError(t, err)
	require.Equal(t, 7, got)

	got, err = s.Navigate(-1, undo.ModeSaves)
	require.NoError(t, err)
	require.Equal(t, 3, got)
}

func TestListLeaves_ReportsEachLeafOnce(t *testing.T) {
	t.Parallel()

	s, buf := newTestState("a")
	applyEdit(t, s, buf, 0, 2, 2, "b")

	leaves := s.ListLeaves()
	require.Len(t, leaves, 1)
	require.Equal(t, 1, leaves[0].Seq)
}

func TestEvalTree_RendersPrimaryChain(t *testing.T) {
	t.Parallel()

	s, buf := newTestState("a")
	applyEdit(t, s, buf, 0, 2, 2, "b")

	tree := s.EvalTree()
	require.Len(t, tree, 1)
	require.Equal(t, 1, tree[0].Seq)
}
