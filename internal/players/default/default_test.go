package _default

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/janpfeifer/qtictactoe/internal/players"
	"github.com/janpfeifer/qtictactoe/internal/qlearning"
	"github.com/janpfeifer/qtictactoe/internal/state"
	"github.com/janpfeifer/qtictactoe/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQLearnPlayer(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "q.txt")
	empty := state.NewBoard().Encode()
	best := state.Action{Row: 1, Col: 1}
	cp := &qlearning.Checkpoint{
		LearningRate: 0.2,
		Exploration:  0.3,
		Table: qlearning.QTable{
			{State: empty, Action: best}:                          3,
			{State: empty, Action: state.Action{Row: 0, Col: 0}}: 1,
		},
	}
	require.NoError(t, storage.NewFileStore(fileName).Save(context.Background(), cp))

	player, err := players.New(1, state.PlayerOne, "qlearn:file="+fileName)
	require.NoError(t, err)
	for range 10 {
		action, err := player.Play(state.NewBoard())
		require.NoError(t, err)
		assert.Equal(t, best, action)
	}

	_, err = players.New(1, state.PlayerOne, "qlearn")
	assert.Error(t, err)
	_, err = players.New(1, state.PlayerOne, "qlearn:file="+fileName+",bogus=1")
	assert.ErrorContains(t, err, "bogus")
}

func TestRandomVsRandom(t *testing.T) {
	counts := make(map[state.Outcome]int)
	for matchID := range uint64(200) {
		p1, err := players.New(matchID, state.PlayerOne, "random")
		require.NoError(t, err)
		p2, err := players.New(matchID, state.PlayerTwo, "")
		require.NoError(t, err)
		outcome, err := players.PlayMatch([2]players.Player{p1, p2}, nil)
		require.NoError(t, err)
		require.True(t, outcome.IsFinal())
		counts[outcome]++
	}
	// First player has the advantage when playing at random.
	assert.Greater(t, counts[state.PlayerOneWin], counts[state.PlayerTwoWin])
	assert.Contains(t, players.RegisteredModules(), "qlearn")
	_, err := players.New(0, state.PlayerOne, "minimax")
	assert.Error(t, err)
}
