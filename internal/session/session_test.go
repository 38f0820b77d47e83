package session

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"keypad-calc/internal/calc"
	"keypad-calc/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("session-%d", n)
	}
}

func newTestManager(t *testing.T, st *store.Store, opts ...Option) *Manager {
	t.Helper()
	base := []Option{
		WithIDGenerator(sequentialIDs()),
		WithClock(func() time.Time { return time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC) }),
	}
	return NewManager(st, append(base, opts...)...)
}

func keys(t *testing.T, line string) []calc.Action {
	t.Helper()
	actions, err := calc.ParseKeys(line)
	require.NoError(t, err)
	return actions
}

func TestCreateAndPress(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, newTestStore(t))

	v, err := m.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, "session-1", v.ID)
	assert.Equal(t, "0", v.Snapshot.Display)
	assert.Equal(t, "initial", v.Snapshot.Phase)

	res, err := m.Press(ctx, v.ID, keys(t, "2 + 4 * 5 ="))
	require.NoError(t, err)
	assert.Equal(t, "22", res.Snapshot.Display)
	assert.Equal(t, 6, res.Keys)
	assert.Zero(t, res.Rejected)
	require.Len(t, res.Steps, 6)
	assert.Equal(t, "+", res.Steps[1].Snapshot.ActiveOperator)
	assert.Equal(t, "4", res.Steps[3].Snapshot.Display)
	assert.Equal(t, "*", res.Steps[3].Snapshot.ActiveOperator)

	got, err := m.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, res.View, got)
}

func TestPressRejectedKeysAreNotJournaled(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	m := newTestManager(t, st, WithMaxDigits(3))

	v, err := m.Create(ctx)
	require.NoError(t, err)

	res, err := m.Press(ctx, v.ID, keys(t, "1 2 3 4"))
	require.NoError(t, err)
	assert.Equal(t, "123", res.Snapshot.Display)
	assert.Equal(t, 1, res.Rejected)
	assert.False(t, res.Steps[3].Accepted)

	tokens, err := st.Keys(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, tokens)
}

func TestSessionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	first := newTestManager(t, st)
	v, err := first.Create(ctx)
	require.NoError(t, err)
	_, err = first.Press(ctx, v.ID, keys(t, "1 + 3 = ="))
	require.NoError(t, err)

	second := newTestManager(t, st)
	got, err := second.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "7", got.Snapshot.Display)
	assert.Equal(t, 5, got.Keys)

	res, err := second.Press(ctx, v.ID, keys(t, "="))
	require.NoError(t, err)
	assert.Equal(t, "10", res.Snapshot.Display)
}

func TestUndo(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, newTestStore(t))

	v, err := m.Create(ctx)
	require.NoError(t, err)

	_, err = m.Undo(ctx, v.ID)
	assert.ErrorIs(t, err, ErrNothingToUndo)

	_, err = m.Press(ctx, v.ID, keys(t, "4 * 5 %"))
	require.NoError(t, err)

	got, err := m.Undo(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "5", got.Snapshot.Display)
	assert.Equal(t, 3, got.Keys)

	got, err = m.Undo(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "4", got.Snapshot.Display)
	assert.Equal(t, "*", got.Snapshot.ActiveOperator)
}

func TestUnknownSession(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, newTestStore(t))

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.Press(ctx, "missing", keys(t, "1"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.Undo(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, m.Delete(ctx, "missing"), ErrNotFound)
}

func TestDeleteAndList(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, newTestStore(t))

	a, err := m.Create(ctx)
	require.NoError(t, err)
	b, err := m.Create(ctx)
	require.NoError(t, err)

	ids, err := m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID}, ids)

	require.NoError(t, m.Delete(ctx, a.ID))
	_, err = m.Get(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	ids, err = m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids)
}

func TestReplayMatchesLiveState(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, newTestStore(t))

	v, err := m.Create(ctx)
	require.NoError(t, err)
	res, err := m.Press(ctx, v.ID, keys(t, "2 + 3 +/- % = C 8 . 5 * 2 ="))
	require.NoError(t, err)

	replayed, err := m.Replay(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Snapshot, calc.Snap(replayed.State))
	assert.Equal(t, res.Digits, replayed.Digits)
}

func TestManagerLogsLifecycle(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := context.Background()
	m := newTestManager(t, newTestStore(t), WithLogger(zap.New(core)))

	v, err := m.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, m.Delete(ctx, v.ID))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "session created", entries[0].Message)
	assert.Equal(t, v.ID, entries[0].ContextMap()["session_id"])
	assert.Equal(t, "session deleted", entries[1].Message)
}
