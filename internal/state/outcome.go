package state

// Outcome of a board position.
type Outcome uint8

const (
	Ongoing Outcome = iota
	PlayerOneWin
	PlayerTwoWin
	Tie
)

//go:generate go tool enumer -type=Outcome -text outcome.go

// IsFinal returns whether the outcome ends the game.
func (o Outcome) IsFinal() bool {
	return o != Ongoing
}

// Winner returns the winning player's Cell, or Empty for a tie or an ongoing game.
func (o Outcome) Winner() Cell {
	switch o {
	case PlayerOneWin:
		return PlayerOne
	case PlayerTwoWin:
		return PlayerTwo
	}
	return Empty
}

// lines lists the cell indices of the 3 rows, 3 columns and 2 diagonals.
var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Outcome sums the cell weights of every line: +3 is a win for PlayerOne, -3 for PlayerTwo.
// Wins are checked before ties. If more than one line wins, the first one found is used.
func (b *Board) Outcome() Outcome {
	for _, line := range lines {
		sum := 0
		for _, idx := range line {
			sum += b.Cells[idx].Weight()
		}
		switch sum {
		case 3:
			return PlayerOneWin
		case -3:
			return PlayerTwoWin
		}
	}
	if b.NumEmpty() == 0 {
		return Tie
	}
	return Ongoing
}

// EvaluateOutcome of an encoded state.
func EvaluateOutcome(encoding string) (Outcome, error) {
	b, err := ParseState(encoding)
	if err != nil {
		return Ongoing, err
	}
	return b.Outcome(), nil
}
