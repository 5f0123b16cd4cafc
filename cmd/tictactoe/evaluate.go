package main

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/janpfeifer/qtictactoe/internal/players"
	"github.com/janpfeifer/qtictactoe/internal/state"
	"github.com/janpfeifer/qtictactoe/internal/trainer"
	"github.com/janpfeifer/qtictactoe/internal/ui/cli"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"k8s.io/klog/v2"
)

var (
	flagMatches     int
	flagParallelism int
	flagAlternate   bool
)

func newEvaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate <player1> <player2>",
		Short: "Plays matches between two players and reports the results.",
		Long: `Plays matches between two players and reports the results.

Each player is either a Q-table file, played greedily, or a player configuration
such as "random" or "qlearn:file=p1.txt".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configs := [2]string{playerConfig(args[0]), playerConfig(args[1])}
			base := seed()
			newPlayers := func(matchID uint64) (contestants [2]players.Player, err error) {
				for ii, config := range configs {
					seat := state.PlayerOne
					if ii == 1 {
						seat = state.PlayerTwo
					}
					contestants[ii], err = players.New(base+matchID, seat, config)
					if err != nil {
						return
					}
				}
				return
			}

			evalConfig := trainer.EvalConfig{
				NumMatches:     flagMatches,
				Parallelism:    flagParallelism,
				AlternateSeats: flagAlternate,
			}
			if term.IsTerminal(int(os.Stdout.Fd())) {
				bar := progressbar.Default(int64(flagMatches), "evaluating")
				evalConfig.OnMatch = func(r trainer.Results) { _ = bar.Set64(r.Played) }
				defer func() { _ = bar.Finish() }()
			}
			results, err := trainer.Evaluate(cmd.Context(), newPlayers, evalConfig)
			if err != nil {
				return err
			}
			klog.V(1).Infof("Evaluation of %q vs %q: %s", configs[0], configs[1], results)
			fmt.Println()
			fmt.Println(results)
			cli.New(flagColor, false).PrintStats(results.SeatStats())
			return nil
		},
	}
	fs := cmd.Flags()
	fs.IntVar(&flagMatches, "matches", 1000, "Number of matches to play.")
	fs.IntVar(&flagParallelism, "parallelism", 0, "Number of matches played in parallel. If 0, the number of CPUs.")
	fs.BoolVar(&flagAlternate, "alternate", false,
		"Alternate the seats of the players at each match. Q-tables are trained for one seat, so this is only "+
			"useful for players that can play both, e.g. \"random\".")
	return cmd
}

// playerConfig converts a Q-table file name to a "qlearn" player configuration.
// Registered module names and configurations with parameters are returned unchanged.
func playerConfig(arg string) string {
	name, _, hasParams := strings.Cut(arg, ":")
	if hasParams || slices.Contains(players.RegisteredModules(), name) {
		return arg
	}
	return "qlearn:file=" + arg
}
