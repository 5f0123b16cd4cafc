// Package state holds the tic-tac-toe board: its cells, its canonical string encoding (used as
// the key of the Q-tables), the legal actions and the outcome of a position.
//
// The canonical encoding is a 9 characters string, one marker per cell in row-major order:
// '0' for an empty cell, '1' for the first player and '2' for the second player.
package state

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

const (
	// NumRows and NumCols of the board.
	NumRows = 3
	NumCols = 3

	// NumCells is also the length of the encoded state.
	NumCells = NumRows * NumCols
)

var (
	// ErrInvalidState is returned when an encoded state doesn't have NumCells valid markers.
	ErrInvalidState = errors.New("invalid board state")

	// ErrIllegalMove is returned when an action points outside the board or to an occupied cell.
	ErrIllegalMove = errors.New("illegal move")
)

// Cell holds the content of one position of the board.
type Cell uint8

const (
	Empty Cell = iota
	PlayerOne
	PlayerTwo
)

// cellMarkers are the encoding of each Cell value.
var cellMarkers = [3]byte{'0', '1', '2'}

// Marker returns the byte used to encode the cell.
func (c Cell) Marker() byte {
	if int(c) >= len(cellMarkers) {
		exceptions.Panicf("invalid Cell value %d", c)
	}
	return cellMarkers[c]
}

// Weight used when summing lines: +1 for PlayerOne, -1 for PlayerTwo.
func (c Cell) Weight() int {
	switch c {
	case PlayerOne:
		return 1
	case PlayerTwo:
		return -1
	}
	return 0
}

// Opponent returns the other player. It returns Empty for Empty.
func (c Cell) Opponent() Cell {
	switch c {
	case PlayerOne:
		return PlayerTwo
	case PlayerTwo:
		return PlayerOne
	}
	return Empty
}

// String implements fmt.Stringer.
func (c Cell) String() string {
	switch c {
	case Empty:
		return "Empty"
	case PlayerOne:
		return "Player 1"
	case PlayerTwo:
		return "Player 2"
	}
	return fmt.Sprintf("Cell(%d)", c)
}

func cellFromMarker(marker byte) (Cell, bool) {
	for ii, m := range cellMarkers {
		if m == marker {
			return Cell(ii), true
		}
	}
	return Empty, false
}

// Action is a placement in the (Row, Col) position, both 0-based.
type Action struct {
	Row, Col int
}

// InRange returns whether the action points inside the board.
func (a Action) InRange() bool {
	return a.Row >= 0 && a.Row < NumRows && a.Col >= 0 && a.Col < NumCols
}

// Index of the action in the row-major cells.
func (a Action) Index() int {
	return a.Row*NumCols + a.Col
}

// String returns the action in its table-key form "<row>,<col>".
func (a Action) String() string {
	return strconv.Itoa(a.Row) + "," + strconv.Itoa(a.Col)
}

// ParseAction converts "<row>,<col>" back to an Action.
func ParseAction(s string) (Action, error) {
	rowStr, colStr, found := strings.Cut(s, ",")
	if !found {
		return Action{}, errors.Wrapf(ErrIllegalMove, "action %q is not in the \"<row>,<col>\" format", s)
	}
	row, err := strconv.Atoi(strings.TrimSpace(rowStr))
	if err != nil {
		return Action{}, errors.Wrapf(ErrIllegalMove, "failed to parse row in action %q", s)
	}
	col, err := strconv.Atoi(strings.TrimSpace(colStr))
	if err != nil {
		return Action{}, errors.Wrapf(ErrIllegalMove, "failed to parse col in action %q", s)
	}
	a := Action{Row: row, Col: col}
	if !a.InRange() {
		return Action{}, errors.Wrapf(ErrIllegalMove, "action %q out of the %dx%d board", s, NumRows, NumCols)
	}
	return a, nil
}

// Board is a 3x3 grid stored row-major. The zero value is an empty board.
//
// A Board is mutated in place by Act and is not safe for concurrent use.
type Board struct {
	Cells [NumCells]Cell
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{}
}

// ParseState decodes an encoded state into a Board.
func ParseState(encoding string) (*Board, error) {
	if len(encoding) != NumCells {
		return nil, errors.Wrapf(ErrInvalidState, "encoded state %q has length %d, wanted %d",
			encoding, len(encoding), NumCells)
	}
	b := &Board{}
	for ii := range NumCells {
		cell, ok := cellFromMarker(encoding[ii])
		if !ok {
			return nil, errors.Wrapf(ErrInvalidState, "invalid marker %q at position %d of state %q",
				encoding[ii], ii, encoding)
		}
		b.Cells[ii] = cell
	}
	return b, nil
}

// Reset all cells to Empty.
func (b *Board) Reset() {
	b.Cells = [NumCells]Cell{}
}

// Clone returns an independent copy of the board.
func (b *Board) Clone() *Board {
	newB := *b
	return &newB
}

// At returns the cell at the given row and column.
func (b *Board) At(row, col int) Cell {
	return b.Cells[row*NumCols+col]
}

// Encode returns the canonical encoding of the board, used as Q-table key.
func (b *Board) Encode() string {
	var buf [NumCells]byte
	for ii, cell := range b.Cells {
		buf[ii] = cell.Marker()
	}
	return string(buf[:])
}

// String implements fmt.Stringer, and is the same as Encode.
func (b *Board) String() string {
	return b.Encode()
}

// NumEmpty returns the number of empty cells.
func (b *Board) NumEmpty() (count int) {
	for _, cell := range b.Cells {
		if cell == Empty {
			count++
		}
	}
	return
}

// LegalActions returns the empty cells in row-major order.
func (b *Board) LegalActions() []Action {
	actions := make([]Action, 0, NumCells)
	for ii, cell := range b.Cells {
		if cell == Empty {
			actions = append(actions, Action{Row: ii / NumCols, Col: ii % NumCols})
		}
	}
	return actions
}

// Act places the cell (a player marker) at the action position, in place.
func (b *Board) Act(action Action, player Cell) error {
	if !action.InRange() {
		return errors.Wrapf(ErrIllegalMove, "action %s is out of the %dx%d board", action, NumRows, NumCols)
	}
	if player == Empty {
		return errors.Wrapf(ErrIllegalMove, "action %s placing an empty marker", action)
	}
	idx := action.Index()
	if b.Cells[idx] != Empty {
		return errors.Wrapf(ErrIllegalMove, "cell %s is already taken by %s", action, b.Cells[idx])
	}
	b.Cells[idx] = player
	return nil
}

// LegalActions of the encoded state, in row-major order.
func LegalActions(encoding string) ([]Action, error) {
	b, err := ParseState(encoding)
	if err != nil {
		return nil, err
	}
	return b.LegalActions(), nil
}

// Apply returns the encoded state after the player places its marker at the action position.
// The given encoding is not changed.
func Apply(encoding string, action Action, player Cell) (string, error) {
	b, err := ParseState(encoding)
	if err != nil {
		return "", err
	}
	if err = b.Act(action, player); err != nil {
		return "", err
	}
	return b.Encode(), nil
}
