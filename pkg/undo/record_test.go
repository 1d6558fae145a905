package undo_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"undofile/pkg/undo"
)

func newTestState(lines ...string) (*undo.State, *fakeBuffer) {
	buf := newFakeBuffer(lines...)
	s := undo.New(buf, newFakeCursor(), &fakeExtmarks{}, newFakePolicy())

	return s, buf
}

func TestRecordChange_OpensHeaderOnFirstEdit(t *testing.T) {
	t.Parallel()

	s, buf := newTestState("one", "two", "three")

	require.NoError(t, s.RecordChange(1, 3, 2, false))
	buf.lines[1] = []byte("TWO")

	require.Equal(t, 1, s.NumHeads)
	require.Equal(t, 1, s.SeqLast)
	require.Equal(t, 1, s.SeqCur)
	require.False(t, s.Synced)
}

func TestRecordChange_PolicyDeniedWhenNotModifiable(t *testing.T) {
	t.Parallel()

	s, _ := newTestState("one")
	s.Policy.(*fakePolicy).modifiable = false

	err := s.RecordChange(0, 2, 1, false)
	require.ErrorIs(t, err, undo.ErrPolicyDenied)
}

func TestRecordChange_UndoDisabledStillSucceeds(t *testing.T) {
	t.Parallel()

	s, buf := newTestState("one", "two")
	s.Policy.(*fakePolicy).depth = -1

	require.NoError(t, s.RecordChange(0, 2, 1, false))
	buf.lines[0] = []byte("ONE")

	require.Equal(t, 0, s.NumHeads)
}

func TestRecordChange_CoalescesRepeatedSingleLineEdits(t *testing.T) {
	t.Parallel()

	s, buf := newTestState("hello")

	// Simulate three successive single-character inserts into the same
	// line, as a user typing would generate: each RecordChange call
	// captures the line's pre-image before the caller mutates it.
	for i := 0; i < 3; i++ {
		require.NoError(t, s.RecordChange(0, 2, 2, false))
		buf.lines[0] = append(buf.lines[0], byte('a'+i))
	}

	require.Equal(t, 1, s.NumHeads, "all three edits should coalesce into one header")

	uhp := s.NewHead
	require.NotNil(t, uhp)
	require.Len(t, uhp.Entries, 1, "coalescing should keep a single entry")
}

func TestRecordChange_RangeInvalidRejected(t *testing.T) {
	t.Parallel()

	s, _ := newTestState("one", "two")

	err := s.RecordChange(5, 2, 2, false)
	require.ErrorIs(t, err, undo.ErrRangeInvalid)
}
