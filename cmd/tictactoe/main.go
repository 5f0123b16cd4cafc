// tictactoe trains Q-learning agents for tic-tac-toe through self-play, and lets humans play
// against them.
//
// Usage:
//
//	tictactoe train1 <qfile>          # Trains player 1 against a random player 2.
//	tictactoe train2 <qfile>          # Trains player 2 against a random player 1.
//	tictactoe train <qfile1> <qfile2> # Trains both players against each other.
//	tictactoe play <qfile1> <qfile2>  # Human plays against the trained agent.
//	tictactoe evaluate <p1> <p2>      # Plays matches between two players, reports results.
//
// Q-table files ending in ".db" or ".sqlite" are stored in SQLite, otherwise in a flat text file.
// Training runs until --episodes are played or it is interrupted with Ctrl+C, after which the
// Q-tables are saved.
package main

import (
	"context"
	"flag"
	"math/rand/v2"
	"time"

	"github.com/janpfeifer/qtictactoe/internal/profilers"
	"github.com/janpfeifer/qtictactoe/internal/qlearning"
	"github.com/janpfeifer/qtictactoe/internal/ui/spinning"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var (
	flagSeed        uint64
	flagGracePeriod time.Duration
	flagColor       bool

	// Learner parameters.
	flagAlpha, flagGamma, flagEpsilon float64

	// cancelMain cancels the context of the command being executed.
	cancelMain  context.CancelFunc
	stopSignals = func() {}
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tictactoe",
		Short:         "Tabular Q-learning for tic-tac-toe.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Capture Control+C.
			stopSignals = spinning.SafeInterrupt(cancelMain, flagGracePeriod)
			return profilers.Setup(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			profilers.OnQuit()
			stopSignals()
		},
	}
	fs := root.PersistentFlags()
	fs.Uint64Var(&flagSeed, "seed", 0, "Seed for the random number generators. If 0, a random seed is used.")
	fs.DurationVar(&flagGracePeriod, "grace_period", 30*time.Second,
		"After Ctrl+C, time given to save the Q-tables before forcing the exit.")
	fs.BoolVar(&flagColor, "color", true, "Use colors in the console.")
	fs.Float64Var(&flagAlpha, "alpha", qlearning.DefaultParams.LearningRate, "Learning rate of the trained agents.")
	fs.Float64Var(&flagGamma, "gamma", qlearning.DefaultParams.Discount, "Discount factor of the trained agents.")
	fs.Float64Var(&flagEpsilon, "epsilon", qlearning.DefaultParams.Exploration, "Exploration rate of the trained agents.")
	profilers.RegisterFlags(fs)

	// Include Go flags, e.g. klog's -v and --logtostderr.
	fs.AddGoFlagSet(flag.CommandLine)

	root.AddCommand(newTrainCmds()...)
	root.AddCommand(newPlayCmd(), newEvaluateCmd())
	return root
}

// learnerParams returns the parameters of the trained agents, from the flags.
func learnerParams(decay bool) qlearning.Params {
	return qlearning.Params{
		LearningRate: flagAlpha,
		Discount:     flagGamma,
		Exploration:  flagEpsilon,
		Decay:        decay,
	}
}

// seed returns the --seed flag, or a random one if not set.
func seed() uint64 {
	if flagSeed == 0 {
		flagSeed = rand.Uint64()
		klog.V(1).Infof("Using random seed %d", flagSeed)
	}
	return flagSeed
}

// newRNG returns a random number generator for the given stream, seeded from --seed.
func newRNG(stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed(), stream))
}

func main() {
	klog.InitFlags(nil)
	defer klog.Flush()
	var ctx context.Context
	ctx, cancelMain = context.WithCancel(context.Background())
	defer cancelMain()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		klog.Exitf("Failed: %+v", err)
	}
}
