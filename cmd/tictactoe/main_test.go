package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/janpfeifer/qtictactoe/internal/qlearning"
	"github.com/janpfeifer/qtictactoe/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) {
	root := newRootCmd()
	root.SetArgs(args)
	require.NoError(t, root.ExecuteContext(context.Background()))
}

func load(t *testing.T, fileName string) *qlearning.Checkpoint {
	ctx := context.Background()
	store, err := storage.Open(ctx, fileName)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	cp, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, cp)
	return cp
}

func TestTrainCommands(t *testing.T) {
	dir := t.TempDir()
	q1, q2 := filepath.Join(dir, "q1.txt"), filepath.Join(dir, "q2.db")
	chart := filepath.Join(dir, "chart.html")

	execute(t, "train", q1, q2, "--episodes=300", "--progress_every=100", "--seed=7", "--chart="+chart)
	for _, fileName := range []string{q1, q2} {
		cp := load(t, fileName)
		assert.NotEmpty(t, cp.Table)
		assert.Less(t, cp.LearningRate, qlearning.DefaultParams.LearningRate, "rates decay when training both players")
	}
	info, err := os.Stat(chart)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	// Training only player 1 resumes from the saved table, without decay.
	before := load(t, q1)
	execute(t, "train1", q1, "--episodes=100", "--progress_every=0")
	after := load(t, q1)
	assert.Equal(t, before.LearningRate, after.LearningRate)
	assert.GreaterOrEqual(t, len(after.Table), len(before.Table))

	q3 := filepath.Join(dir, "q3.txt")
	execute(t, "train2", q3, "--episodes=100", "--alpha=0.5")
	assert.Equal(t, 0.5, load(t, q3).LearningRate)

	// Runs shorter than --progress_every still chart their episodes.
	shortChart := filepath.Join(dir, "short.html")
	execute(t, "train", q1, q2, "--episodes=200", "--chart="+shortChart)
	info, err = os.Stat(shortChart)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	execute(t, "evaluate", q1, "random", "--matches=20", "--parallelism=2")
}

func TestTrainPrintsStatsOnce(t *testing.T) {
	dir := t.TempDir()
	out, err := os.Create(filepath.Join(dir, "stdout.txt"))
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = out
	defer func() { os.Stdout = stdout }()

	execute(t, "train1", filepath.Join(dir, "q1.txt"), "--episodes=50")
	os.Stdout = stdout
	require.NoError(t, out.Close())
	printed, err := os.ReadFile(out.Name())
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(printed), "Games played:"), "output:\n%s", printed)
}

func TestPlayerConfig(t *testing.T) {
	assert.Equal(t, "random", playerConfig("random"))
	assert.Equal(t, "qlearn:file=p1.txt", playerConfig("qlearn:file=p1.txt"))
	assert.Equal(t, "qlearn:file=p1.txt", playerConfig("p1.txt"))
}
