package trainer

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/janpfeifer/qtictactoe/internal/players"
	"github.com/janpfeifer/qtictactoe/internal/state"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// PlayersFactory creates the two competitors for a match: contestant 0 and contestant 1.
// It must return new players (or players safe for concurrent use) for each call, since matches
// are played in parallel.
type PlayersFactory func(matchID uint64) ([2]players.Player, error)

// EvalConfig configures Evaluate.
type EvalConfig struct {
	// NumMatches to play.
	NumMatches int

	// Parallelism is the maximum number of matches played at the same time.
	// If <= 0, runtime.NumCPU() is used.
	Parallelism int

	// AlternateSeats makes contestant 1 play first in odd matches. Otherwise, contestant 0 always
	// plays first, which is what Q-tables trained for one seat need.
	AlternateSeats bool

	// OnMatch, if not nil, is called after each match with the results so far. Calls are serialized.
	OnMatch func(Results)
}

// Results of an evaluation between two contestants.
type Results struct {
	Played    int64
	WinsAs1st [2]int64
	WinsAs2nd [2]int64
	Draws     int64
}

// Wins returns the total wins of the contestant.
func (r Results) Wins(contestant int) int64 {
	return r.WinsAs1st[contestant] + r.WinsAs2nd[contestant]
}

// SeatStats returns the results from the point of view of the seats, regardless of the contestants.
func (r Results) SeatStats() Stats {
	return Stats{
		GamesPlayed:   r.Played,
		PlayerOneWins: r.WinsAs1st[0] + r.WinsAs1st[1],
		PlayerTwoWins: r.WinsAs2nd[0] + r.WinsAs2nd[1],
		Ties:          r.Draws,
	}
}

// String implements fmt.Stringer.
func (r Results) String() string {
	return fmt.Sprintf("%d matches: contestant 1 won %d (1st: %d, 2nd: %d), contestant 2 won %d (1st: %d, 2nd: %d), %d draws",
		r.Played, r.Wins(0), r.WinsAs1st[0], r.WinsAs2nd[0], r.Wins(1), r.WinsAs1st[1], r.WinsAs2nd[1], r.Draws)
}

// Evaluate plays matches between the contestants created by newPlayers.
//
// If ctx is cancelled, the remaining matches are skipped and the partial results returned.
func Evaluate(ctx context.Context, newPlayers PlayersFactory, config EvalConfig) (Results, error) {
	parallelism := config.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	var (
		mu      sync.Mutex
		results Results
	)
	wg, ctx := errgroup.WithContext(ctx)
	wg.SetLimit(parallelism)
	klog.V(1).Infof("Evaluating %d matches, parallelism=%d", config.NumMatches, parallelism)
	for matchIdx := range config.NumMatches {
		if ctx.Err() != nil {
			break
		}
		wg.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			contestants, err := newPlayers(uint64(matchIdx))
			if err != nil {
				return errors.WithMessagef(err, "match %d", matchIdx)
			}
			first := 0
			if config.AlternateSeats {
				first = matchIdx % 2
			}
			seats := [2]players.Player{contestants[first], contestants[1-first]}
			outcome, err := players.PlayMatch(seats, nil)
			if err != nil {
				return errors.WithMessagef(err, "match %d", matchIdx)
			}

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case state.Tie:
				results.Draws++
			case state.PlayerOneWin:
				results.WinsAs1st[first]++
			case state.PlayerTwoWin:
				results.WinsAs2nd[1-first]++
			}
			results.Played++
			if config.OnMatch != nil {
				config.OnMatch(results)
			}
			return nil
		})
	}
	err := wg.Wait()
	mu.Lock()
	defer mu.Unlock()
	return results, err
}
