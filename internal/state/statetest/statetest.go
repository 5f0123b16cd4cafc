// Package statetest provides helper functions to create tests using tic-tac-toe boards.
package statetest

import (
	"strings"

	. "github.com/janpfeifer/qtictactoe/internal/state"
	"github.com/janpfeifer/must"
)

// BuildBoard from a human-friendly layout: one row per line, 'X' for PlayerOne, 'O' for PlayerTwo
// and any of '.', '_' or '-' for an empty cell. Spaces and blank lines are ignored.
//
// It panics if the layout doesn't describe exactly 9 cells.
func BuildBoard(layout string) *Board {
	var sb strings.Builder
	for _, r := range layout {
		switch r {
		case 'X', 'x':
			sb.WriteByte(PlayerOne.Marker())
		case 'O', 'o':
			sb.WriteByte(PlayerTwo.Marker())
		case '.', '_', '-':
			sb.WriteByte(Empty.Marker())
		}
	}
	return must.M1(ParseState(sb.String()))
}

// Encoded is like BuildBoard, but returns the encoded state.
func Encoded(layout string) string {
	return BuildBoard(layout).Encode()
}
