package main

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keypad-calc/internal/calc"
	"keypad-calc/internal/session"
	"keypad-calc/internal/store"
)

func seedSession(t *testing.T, dbPath, line string) string {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	m := session.NewManager(st)
	v, err := m.Create(ctx)
	require.NoError(t, err)

	actions, err := calc.ParseKeys(line)
	require.NoError(t, err)
	_, err = m.Press(ctx, v.ID, actions)
	require.NoError(t, err)
	return v.ID
}

func TestReplayEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "calc.db")

	out, err := runCommand(t, "", "replay", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions found")
}

func TestReplayStoredSession(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "calc.db")
	id := seedSession(t, dbPath, "1 + 3 = =")

	out, err := runCommand(t, "", "replay", "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, id+"\t7\tevaluated\tdeterministic\n", out)
}

func TestReplayJSONSingleSession(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "calc.db")
	seedSession(t, dbPath, "9 9")
	id := seedSession(t, dbPath, "2 * 3 +")

	out, err := runCommand(t, "", "--format", "json", "replay", "--db", dbPath, "--session", id)
	require.NoError(t, err)

	var got ReplayResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Sessions, 1)
	assert.True(t, got.AllDeterministic)
	assert.Equal(t, id, got.Sessions[0].SessionID)
	assert.Equal(t, "6", got.Sessions[0].Snapshot.Display)
	assert.Equal(t, "+", got.Sessions[0].Snapshot.ActiveOperator)
}

func TestReplayUnknownSession(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "calc.db")

	_, err := runCommand(t, "", "replay", "--db", dbPath, "--session", "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrNotFound)
}
