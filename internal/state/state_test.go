package state_test

import (
	"math/rand/v2"
	"slices"
	"testing"

	. "github.com/janpfeifer/qtictactoe/internal/state"
	. "github.com/janpfeifer/qtictactoe/internal/state/statetest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	b := NewBoard()
	assert.Equal(t, "000000000", b.Encode())

	require.NoError(t, b.Act(Action{Row: 1, Col: 1}, PlayerOne))
	require.NoError(t, b.Act(Action{Row: 0, Col: 2}, PlayerTwo))
	assert.Equal(t, "002010000", b.Encode())

	// Encoding is a pure function of the grid.
	b2 := BuildBoard(`
		. . O
		. X .
		. . .`)
	assert.Equal(t, b.Encode(), b2.Encode())
	assert.Equal(t, *b, *b2)

	b.Reset()
	assert.Equal(t, "000000000", b.Encode())
}

func TestParseState(t *testing.T) {
	b, err := ParseState("120000021")
	require.NoError(t, err)
	assert.Equal(t, PlayerOne, b.At(0, 0))
	assert.Equal(t, PlayerTwo, b.At(0, 1))
	assert.Equal(t, Empty, b.At(1, 1))
	assert.Equal(t, PlayerTwo, b.At(2, 1))
	assert.Equal(t, PlayerOne, b.At(2, 2))

	for _, bad := range []string{"", "00000000", "0000000000", "00000000x", "-10000000"} {
		_, err = ParseState(bad)
		assert.Truef(t, errors.Is(err, ErrInvalidState), "state %q should fail with ErrInvalidState, got %v", bad, err)
	}
}

func TestLegalActions(t *testing.T) {
	actions, err := LegalActions("000000000")
	require.NoError(t, err)
	require.Len(t, actions, 9)
	for ii, a := range actions {
		assert.Equal(t, Action{Row: ii / 3, Col: ii % 3}, a)
	}

	actions, err = LegalActions(Encoded(`
		X O .
		. X .
		O . .`))
	require.NoError(t, err)
	assert.Equal(t, []Action{{0, 2}, {1, 0}, {1, 2}, {2, 1}, {2, 2}}, actions)

	actions, err = LegalActions(Encoded(`
		X O X
		X O O
		O X X`))
	require.NoError(t, err)
	assert.Empty(t, actions)

	_, err = LegalActions("0000")
	assert.True(t, errors.Is(err, ErrInvalidState))
}

// TestLegalActionsRandomBoards checks that the legal actions are exactly the empty cells, in row-major order.
func TestLegalActionsRandomBoards(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	for range 1000 {
		b := NewBoard()
		for ii := range b.Cells {
			b.Cells[ii] = Cell(rng.IntN(3))
		}
		actions := b.LegalActions()
		var want []Action
		for row := range NumRows {
			for col := range NumCols {
				if b.At(row, col) == Empty {
					want = append(want, Action{Row: row, Col: col})
				}
			}
		}
		if len(want) == 0 {
			assert.Empty(t, actions)
			continue
		}
		assert.Equal(t, want, actions)
		assert.True(t, slices.IsSortedFunc(actions, func(a, b Action) int { return a.Index() - b.Index() }))
	}
}

func TestAct(t *testing.T) {
	b := NewBoard()
	require.NoError(t, b.Act(Action{Row: 2, Col: 0}, PlayerOne))

	err := b.Act(Action{Row: 2, Col: 0}, PlayerTwo)
	assert.True(t, errors.Is(err, ErrIllegalMove), "occupied cell: got %v", err)

	for _, a := range []Action{{-1, 0}, {0, -1}, {3, 0}, {0, 3}} {
		err = b.Act(a, PlayerTwo)
		assert.Truef(t, errors.Is(err, ErrIllegalMove), "action %v: got %v", a, err)
	}
	err = b.Act(Action{Row: 0, Col: 0}, Empty)
	assert.True(t, errors.Is(err, ErrIllegalMove))

	// Failed actions don't change the board.
	assert.Equal(t, "000000100", b.Encode())
}

func TestApply(t *testing.T) {
	before := "000010000"
	after, err := Apply(before, Action{Row: 0, Col: 0}, PlayerTwo)
	require.NoError(t, err)
	assert.Equal(t, "200010000", after)
	assert.Equal(t, "000010000", before)

	_, err = Apply(before, Action{Row: 1, Col: 1}, PlayerTwo)
	assert.True(t, errors.Is(err, ErrIllegalMove))
	_, err = Apply("bad", Action{Row: 1, Col: 1}, PlayerTwo)
	assert.True(t, errors.Is(err, ErrInvalidState))
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("2,1")
	require.NoError(t, err)
	assert.Equal(t, Action{Row: 2, Col: 1}, a)
	assert.Equal(t, "2,1", a.String())

	for _, bad := range []string{"", "1", "1;1", "a,1", "1,b", "3,0", "0,-1"} {
		_, err = ParseAction(bad)
		assert.Truef(t, errors.Is(err, ErrIllegalMove), "action %q: got %v", bad, err)
	}
}

func TestOutcome(t *testing.T) {
	for _, test := range []struct {
		layout string
		want   Outcome
	}{
		{". . . / . . . / . . .", Ongoing},
		{"X X X / O O . / . . .", PlayerOneWin},
		{"X X . / O O O / X . .", PlayerTwoWin},
		{"X O . / X O . / X . .", PlayerOneWin},
		{"X . O / X . O / . X O", PlayerTwoWin},
		{"X O . / O X . / . . X", PlayerOneWin},
		{"X . O / X O . / O . X", PlayerTwoWin},
		{"X O X / X O O / O X X", Tie},
		{"X O X / X O O / O X .", Ongoing},
		// Win on the last cell is a win, not a tie.
		{"X O X / O X O / O X X", PlayerOneWin},
		// Not reachable in a game, but must not crash.
		{"X X X / X X X / X X X", PlayerOneWin},
		{"O O O / X X X / . . .", PlayerTwoWin},
	} {
		b := BuildBoard(test.layout)
		assert.Equalf(t, test.want, b.Outcome(), "layout %q", test.layout)
		got, err := EvaluateOutcome(b.Encode())
		require.NoError(t, err)
		assert.Equal(t, test.want, got)
	}
}

// TestOutcomeRandomBoards checks Ongoing/Tie against an independent count of empty cells and lines.
func TestOutcomeRandomBoards(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 0))
	for range 5000 {
		b := NewBoard()
		for ii := range b.Cells {
			b.Cells[ii] = Cell(rng.IntN(3))
		}
		hasWinningLine := false
		for _, line := range [][3]int{{0, 1, 2}, {3, 4, 5}, {6, 7, 8}, {0, 3, 6}, {1, 4, 7}, {2, 5, 8}, {0, 4, 8}, {2, 4, 6}} {
			c := b.Cells[line[0]]
			if c != Empty && c == b.Cells[line[1]] && c == b.Cells[line[2]] {
				hasWinningLine = true
			}
		}
		outcome := b.Outcome()
		if hasWinningLine {
			assert.Contains(t, []Outcome{PlayerOneWin, PlayerTwoWin}, outcome)
			continue
		}
		if b.NumEmpty() > 0 {
			assert.Equal(t, Ongoing, outcome, b.Encode())
		} else {
			assert.Equal(t, Tie, outcome, b.Encode())
		}
	}
}

func TestOutcomeText(t *testing.T) {
	assert.Equal(t, "PlayerOneWin", PlayerOneWin.String())
	var o Outcome
	require.NoError(t, o.UnmarshalText([]byte("tie")))
	assert.Equal(t, Tie, o)
	assert.True(t, Tie.IsFinal())
	assert.False(t, Ongoing.IsFinal())
	assert.Equal(t, PlayerTwo, PlayerTwoWin.Winner())
	assert.Equal(t, Empty, Tie.Winner())
}
