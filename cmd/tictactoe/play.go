package main

import (
	"github.com/janpfeifer/qtictactoe/internal/players"
	_ "github.com/janpfeifer/qtictactoe/internal/players/default"
	"github.com/janpfeifer/qtictactoe/internal/ui/cli"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play <qfile1> <qfile2>",
		Short: "Plays against the trained agent: it prompts for the seat, and the agent plays the other one greedily.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ui := cli.New(flagColor, false)
			seat, err := ui.ReadSeat()
			if err != nil {
				return err
			}
			agentSeat := seat.Opponent()
			// qfile1 holds the player 1 table, qfile2 the player 2 table.
			fileName := args[int(agentSeat)-1]
			agent, err := players.New(seed(), agentSeat, "qlearn:file="+fileName)
			if err != nil {
				return err
			}
			matchPlayers := [2]players.Player{}
			matchPlayers[int(seat)-1] = &cli.HumanPlayer{UI: ui, Seat: seat}
			matchPlayers[int(agentSeat)-1] = agent
			klog.V(1).Infof("Human plays as %s against %s", players.SeatName(seat), agent)
			_, err = ui.Run(matchPlayers)
			return err
		},
	}
}
