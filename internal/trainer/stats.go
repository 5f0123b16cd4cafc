package trainer

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/janpfeifer/qtictactoe/internal/state"
)

// Stats accumulates the outcomes of episodes. Counters are only incremented.
type Stats struct {
	GamesPlayed   int64
	PlayerOneWins int64
	PlayerTwoWins int64
	Ties          int64
}

// Record a final outcome. Non-final outcomes are ignored.
func (s *Stats) Record(outcome state.Outcome) {
	switch outcome {
	case state.PlayerOneWin:
		s.PlayerOneWins++
	case state.PlayerTwoWin:
		s.PlayerTwoWins++
	case state.Tie:
		s.Ties++
	default:
		return
	}
	s.GamesPlayed++
}

// Add returns the sum of both stats.
func (s Stats) Add(other Stats) Stats {
	return Stats{
		GamesPlayed:   s.GamesPlayed + other.GamesPlayed,
		PlayerOneWins: s.PlayerOneWins + other.PlayerOneWins,
		PlayerTwoWins: s.PlayerTwoWins + other.PlayerTwoWins,
		Ties:          s.Ties + other.Ties,
	}
}

// Rates returns the fraction of games won by player one, won by player two and tied.
// They are all 0 if no games were played.
func (s Stats) Rates() (p1, p2, ties float64) {
	if s.GamesPlayed == 0 {
		return
	}
	total := float64(s.GamesPlayed)
	return float64(s.PlayerOneWins) / total, float64(s.PlayerTwoWins) / total, float64(s.Ties) / total
}

// String implements fmt.Stringer.
func (s Stats) String() string {
	p1, p2, ties := s.Rates()
	return fmt.Sprintf("%s games: player 1 won %s (%.1f%%), player 2 won %s (%.1f%%), %s ties (%.1f%%)",
		humanize.Comma(s.GamesPlayed),
		humanize.Comma(s.PlayerOneWins), 100*p1,
		humanize.Comma(s.PlayerTwoWins), 100*p2,
		humanize.Comma(s.Ties), 100*ties)
}

// WriteTo writes a multi-line report of the stats.
func (s Stats) WriteTo(w io.Writer) (int64, error) {
	p1, p2, ties := s.Rates()
	n, err := fmt.Fprintf(w, "Games played:   %s\nPlayer 1 wins:  %s (%.2f%%)\nPlayer 2 wins:  %s (%.2f%%)\nTies:           %s (%.2f%%)\n",
		humanize.Comma(s.GamesPlayed),
		humanize.Comma(s.PlayerOneWins), 100*p1,
		humanize.Comma(s.PlayerTwoWins), 100*p2,
		humanize.Comma(s.Ties), 100*ties)
	return int64(n), err
}
