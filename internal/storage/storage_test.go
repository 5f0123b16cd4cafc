package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/janpfeifer/qtictactoe/internal/qlearning"
	"github.com/janpfeifer/qtictactoe/internal/state"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCheckpoint() *qlearning.Checkpoint {
	return &qlearning.Checkpoint{
		LearningRate: 0.19999,
		Exploration:  0.001,
		Table: qlearning.QTable{
			{State: "000000000", Action: state.Action{Row: 1, Col: 1}}: 1.0 / 3.0,
			{State: "100000000", Action: state.Action{Row: 0, Col: 2}}: -9.5,
			{State: "120120000", Action: state.Action{Row: 2, Col: 0}}: -7.25e-9,
		},
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := Open(ctx, filepath.Join(dir, "q.txt"))
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)
	require.NoError(t, store.Close())

	store, err = Open(ctx, filepath.Join(dir, "q.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)
	require.NoError(t, store.Close())
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "q.txt")
	store := NewFileStore(path)

	// Missing file: no prior learning.
	cp, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, cp)

	want := testCheckpoint()
	require.NoError(t, store.Save(ctx, want))
	cp, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, cp)

	// Saving again keeps a backup of the previous version.
	want.Exploration = 0.5
	require.NoError(t, store.Save(ctx, want))
	_, err = os.Stat(path + "~")
	require.NoError(t, err)
	cp, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cp.Exploration)
}

func TestFileStoreEmptyAndMalformed(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	cp, err := NewFileStore(empty).Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, cp)

	malformed := filepath.Join(dir, "malformed.txt")
	require.NoError(t, os.WriteFile(malformed, []byte("0.2\n0.3\nnot an entry\n"), 0o644))
	_, err = NewFileStore(malformed).Load(ctx)
	assert.True(t, errors.Is(err, qlearning.ErrMalformedTable), "got %v", err)
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "q.db")
	store, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cp, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, cp)

	want := testCheckpoint()
	require.NoError(t, store.Save(ctx, want))
	cp, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, cp)

	// Save replaces all previous entries.
	smaller := &qlearning.Checkpoint{
		LearningRate: 0.1,
		Exploration:  0.2,
		Table:        qlearning.QTable{{State: "000000000", Action: state.Action{Row: 2, Col: 2}}: 4},
	}
	require.NoError(t, store.Save(ctx, smaller))
	require.NoError(t, store.Close())

	// Reopen to make sure it was persisted.
	store, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	cp, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, smaller, cp)
}

func TestSQLiteStoreMalformed(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "q.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	for _, corruption := range []string{
		`INSERT INTO qvalues (key, value) VALUES ('bogus', 1)`,
		`UPDATE params SET value = 5 WHERE name = 'learning_rate'`,
		`UPDATE params SET value = 0 WHERE name = 'learning_rate'`,
		`UPDATE params SET value = -2 WHERE name = 'exploration'`,
		`DELETE FROM params WHERE name = 'exploration'`,
		`UPDATE qvalues SET value = 9e999`,
	} {
		require.NoError(t, store.Save(ctx, testCheckpoint()))
		_, err = store.db.ExecContext(ctx, corruption)
		require.NoError(t, err)
		_, err = store.Load(ctx)
		assert.Truef(t, errors.Is(err, qlearning.ErrMalformedTable), "after %q: got %v", corruption, err)
	}
}

func TestLoadInto(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "q.txt"))
	agent, err := qlearning.New(qlearning.DefaultParams, nil)
	require.NoError(t, err)

	loaded, err := LoadInto(ctx, store, agent)
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Equal(t, qlearning.DefaultParams.LearningRate, agent.LearningRate())

	require.NoError(t, store.Save(ctx, testCheckpoint()))
	loaded, err = LoadInto(ctx, store, agent)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, 0.19999, agent.LearningRate())
	assert.Len(t, agent.Table(), 3)
}
