package undotrace_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"undofile/internal/undotrace"
	"undofile/pkg/undo"
)

func newTestState(lines ...string) (*undo.State, *fakeBuffer) {
	buf := newFakeBuffer(lines...)
	s := undo.New(buf, &fakeCursor{}, &fakeExtmarks{}, &fakePolicy{})

	return s, buf
}

func TestCheck_ValidAfterLinearEdits(t *testing.T) {
	t.Parallel()

	s, buf := newTestState("a", "b", "c")

	require.NoError(t, s.RecordChange(0, 2, 2, false))
	buf.lines[0] = []byte("A")
	s.Synced = true

	require.NoError(t, s.RecordChange(1, 3, 3, false))
	buf.lines[1] = []byte("B")
	s.Synced = true

	require.NoError(t, undotrace.Check(s))
}

func TestCheck_ValidAfterBranching(t *testing.T) {
	t.Parallel()

	s, buf := newTestState("a", "b", "c")

	require.NoError(t, s.RecordChange(0, 2, 2, false))
	buf.lines[0] = []byte("A1")
	s.Synced = true

	require.NoError(t, s.RecordChange(1, 3, 3, false))
	buf.lines[1] = []byte("B1")
	s.Synced = true

	_, err := s.Navigate(-2, undo.ModeCount)
	require.NoError(t, err)

	require.NoError(t, s.RecordChange(0, 2, 2, false))
	buf.lines[0] = []byte("A2")
	s.Synced = true

	require.NoError(t, undotrace.Check(s))
}

func TestCheck_DetectsAsymmetricLink(t *testing.T) {
	t.Parallel()

	s, buf := newTestState("a", "b")

	require.NoError(t, s.RecordChange(0, 2, 2, false))
	buf.lines[0] = []byte("A")
	s.Synced = true

	require.NoError(t, s.RecordChange(1, 3, 3, false))
	buf.lines[1] = []byte("B")
	s.Synced = true

	// Break symmetry: NewHead.Prev should be nil, force it to point at
	// its own predecessor without the reverse link agreeing.
	s.NewHead.Prev = s.OldHead

	err := undotrace.Check(s)
	require.Error(t, err)
}

func TestCheck_DetectsWrongNumHeads(t *testing.T) {
	t.Parallel()

	s, buf := newTestState("a")

	require.NoError(t, s.RecordChange(0, 2, 2, false))
	buf.lines[0] = []byte("A")
	s.Synced = true

	s.NumHeads = 99

	err := undotrace.Check(s)
	require.Error(t, err)
}

func TestCheck_DetectsOldHeadWithNonNilNext(t *testing.T) {
	t.Parallel()

	s, buf := newTestState("a", "b")

	require.NoError(t, s.RecordChange(0, 2, 2, false))
	buf.lines[0] = []byte("A")
	s.Synced = true

	require.NoError(t, s.RecordChange(1, 3, 3, false))
	buf.lines[1] = []byte("B")
	s.Synced = true

	s.OldHead.Next = s.OldHead

	err := undotrace.Check(s)
	require.Error(t, err)
}

func TestCheck_NilDAGIsConsistent(t *testing.T) {
	t.Parallel()

	s, _ := newTestState("a")
	require.NoError(t, undotrace.Check(s))
}

func TestEnabled_ReflectsEnvVar(t *testing.T) {
	t.Setenv("undotrace", "1")
	require.True(t, undotrace.Enabled())

	t.Setenv("undotrace", "")
	require.False(t, undotrace.Enabled())
}

func TestCheckIfEnabled_SkipsWorkWhenDisabled(t *testing.T) {
	t.Setenv("undotrace", "")

	s, buf := newTestState("a", "b")
	require.NoError(t, s.RecordChange(0, 2, 2, false))
	buf.lines[0] = []byte("A")
	s.Synced = true

	s.NumHeads = 99 // would fail Check, but CheckIfEnabled is a no-op here

	require.NoError(t, undotrace.CheckIfEnabled(s))
}
