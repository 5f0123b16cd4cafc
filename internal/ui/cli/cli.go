// Package cli implements a command-line UI for the game.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/janpfeifer/qtictactoe/internal/players"
	"github.com/janpfeifer/qtictactoe/internal/state"
	"github.com/janpfeifer/qtictactoe/internal/trainer"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

var ansiFilter = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// displayWidth of s removes its color/control sequences and returns the length of what is left.
func displayWidth(s string) int {
	return len([]rune(ansiFilter.ReplaceAllString(s, "")))
}

// UI reads the human input and prints the board, the result of matches and training statistics.
type UI struct {
	w                  io.Writer
	reader             *bufio.Reader
	color, clearScreen bool
}

// New creates a UI on the standard input and output.
func New(color, clearScreen bool) *UI {
	return NewWithIO(os.Stdin, os.Stdout, color, clearScreen)
}

// NewWithIO creates a UI reading from r and writing to w.
func NewWithIO(r io.Reader, w io.Writer, color, clearScreen bool) *UI {
	return &UI{
		w:           w,
		reader:      bufio.NewReader(r),
		color:       color,
		clearScreen: clearScreen,
	}
}

// terminalWidth returns the width of the output if it is a terminal, or 0 otherwise.
func (ui *UI) terminalWidth() int {
	f, ok := ui.w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

func (ui *UI) printCentered(block string) {
	lines := strings.Split(block, "\n")
	blockWidth := 0
	for _, line := range lines {
		blockWidth = max(blockWidth, displayWidth(line))
	}
	indent := max(0, (ui.terminalWidth()-blockWidth)/2)
	for _, line := range lines {
		if len(line) == 0 {
			_, _ = fmt.Fprintln(ui.w)
			continue
		}
		_, _ = fmt.Fprintf(ui.w, "%s%s\n", strings.Repeat(" ", indent), line)
	}
}

var (
	playerColors = map[state.Cell]lipgloss.Color{
		state.PlayerOne: lipgloss.Color("9"),
		state.PlayerTwo: lipgloss.Color("12"),
	}
	emptyColor = lipgloss.Color("8")
)

// CellSymbol returns the symbol used to display a cell: "X" for the first player, "O" for the second.
func CellSymbol(cell state.Cell) string {
	switch cell {
	case state.PlayerOne:
		return "X"
	case state.PlayerTwo:
		return "O"
	}
	return " "
}

func (ui *UI) renderCell(board *state.Board, row, col int) string {
	cell := board.At(row, col)
	style := lipgloss.NewStyle().Width(5).Align(lipgloss.Center)
	if cell == state.Empty {
		// Empty cells show their coordinates, to help the human input.
		text := state.Action{Row: row, Col: col}.String()
		if ui.color {
			style = style.Foreground(emptyColor).Faint(true)
		}
		return style.Render(text)
	}
	if ui.color {
		style = style.Foreground(playerColors[cell]).Bold(true)
	}
	return style.Render(CellSymbol(cell))
}

// RenderBoard returns the board as a multi-line string.
func (ui *UI) RenderBoard(board *state.Board) string {
	rows := make([]string, 0, 2*state.NumRows-1)
	for row := range state.NumRows {
		if row > 0 {
			rows = append(rows, strings.Repeat("─", 5)+"┼"+strings.Repeat("─", 5)+"┼"+strings.Repeat("─", 5))
		}
		cells := make([]string, state.NumCols)
		for col := range state.NumCols {
			cells[col] = ui.renderCell(board, row, col)
		}
		rows = append(rows, strings.Join(cells, "│"))
	}
	style := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	return style.Render(strings.Join(rows, "\n"))
}

// PrintBoard centered in the terminal.
func (ui *UI) PrintBoard(board *state.Board) {
	if ui.clearScreen {
		_, _ = fmt.Fprint(ui.w, "\033c")
	}
	_, _ = fmt.Fprintln(ui.w)
	ui.printCentered(ui.RenderBoard(board))
	_, _ = fmt.Fprintln(ui.w)
}

// PrintWinner of a finished match.
func (ui *UI) PrintWinner(outcome state.Outcome) {
	var msg string
	style := lipgloss.NewStyle().Padding(1, 2)
	switch outcome {
	case state.Tie:
		msg = "*** DRAW! ***"
		if ui.color {
			style = style.Background(lipgloss.Color("13")).Foreground(lipgloss.Color("0"))
		}
	case state.PlayerOneWin, state.PlayerTwoWin:
		winner := outcome.Winner()
		msg = fmt.Sprintf("*** %s (%s) WINS!! Congratulations! ***",
			strings.ToUpper(players.SeatName(winner)), CellSymbol(winner))
		if ui.color {
			style = style.Background(playerColors[winner]).Foreground(lipgloss.Color("0")).Bold(true)
		}
	default:
		msg = "Match not finished."
	}
	_, _ = fmt.Fprintln(ui.w)
	ui.printCentered(style.Render(msg))
	_, _ = fmt.Fprintln(ui.w)
}

// PrintStats of a training run.
func (ui *UI) PrintStats(stats trainer.Stats) {
	style := lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
	var sb strings.Builder
	_, _ = stats.WriteTo(&sb)
	_, _ = fmt.Fprintln(ui.w, style.Render(strings.TrimRight(sb.String(), "\n")))
}

// readLine prints the prompt and reads a trimmed line of input.
func (ui *UI) readLine(prompt string) (string, error) {
	_, _ = fmt.Fprint(ui.w, prompt)
	text, err := ui.reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", errors.Wrap(err, "failed to read input")
	}
	return strings.TrimSpace(text), nil
}

// ReadSeat asks the human which seat to take: 1 to play first, 2 to play second.
// It asks again until the answer is valid, or the input fails.
func (ui *UI) ReadSeat() (state.Cell, error) {
	prompt := "Play as player 1 (X, first) or 2 (O, second)? "
	for {
		text, err := ui.readLine(prompt)
		if err != nil {
			return state.Empty, err
		}
		switch text {
		case "1":
			return state.PlayerOne, nil
		case "2":
			return state.PlayerTwo, nil
		}
		prompt = "Please enter 1 or 2: "
	}
}

var moveParser = regexp.MustCompile(`^\s*(-?\d+)[\s,]+(-?\d+)\s*$`)

// ReadAction reads a "row col" (or "row,col") action for the board.
// Unparseable, out of range or occupied positions return an error wrapping state.ErrIllegalMove.
func (ui *UI) ReadAction(board *state.Board, seat state.Cell) (state.Action, error) {
	text, err := ui.readLine(fmt.Sprintf("    %s (%s) action [row col] > ", players.SeatName(seat), CellSymbol(seat)))
	if err != nil {
		return state.Action{}, err
	}
	matches := moveParser.FindStringSubmatch(text)
	if len(matches) != 3 {
		return state.Action{}, errors.Wrapf(state.ErrIllegalMove, "failed to parse %q, expected \"<row> <col>\"", text)
	}
	var coords [2]int
	for ii := range coords {
		if coords[ii], err = strconv.Atoi(matches[1+ii]); err != nil {
			return state.Action{}, errors.Wrapf(state.ErrIllegalMove, "failed to parse %q: %v", matches[1+ii], err)
		}
	}
	action := state.Action{Row: coords[0], Col: coords[1]}
	if !action.InRange() {
		return state.Action{}, errors.Wrapf(state.ErrIllegalMove, "position %s is outside the board", action)
	}
	if board.At(action.Row, action.Col) != state.Empty {
		return state.Action{}, errors.Wrapf(state.ErrIllegalMove, "position %s is already taken", action)
	}
	return action, nil
}

// HumanPlayer is a players.Player driven by the UI input.
type HumanPlayer struct {
	UI   *UI
	Seat state.Cell
}

var _ players.Player = (*HumanPlayer)(nil)

// Play implements players.Player: it prints the board and reads the action from the input.
func (h *HumanPlayer) Play(board *state.Board) (state.Action, error) {
	h.UI.PrintBoard(board)
	return h.UI.ReadAction(board, h.Seat)
}

// String implements players.Player.
func (h *HumanPlayer) String() string {
	return "Human"
}

// Run a match between the players, printing the moves of non-human players, the final board
// and the winner.
func (ui *UI) Run(matchPlayers [2]players.Player) (state.Outcome, error) {
	var board *state.Board
	outcome, err := players.PlayMatch(matchPlayers, func(b *state.Board, seat state.Cell, action state.Action) {
		board = b
		if _, isHuman := matchPlayers[seat-1].(*HumanPlayer); !isHuman {
			_, _ = fmt.Fprintf(ui.w, "    %s (%s) plays %s\n", players.SeatName(seat), CellSymbol(seat), action)
		}
	})
	if err != nil {
		return state.Ongoing, err
	}
	ui.PrintBoard(board)
	ui.PrintWinner(outcome)
	return outcome, nil
}
