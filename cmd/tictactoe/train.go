package main

import (
	"bytes"
	"context"
	"os"

	"github.com/janpfeifer/must"
	"github.com/janpfeifer/qtictactoe/internal/qlearning"
	"github.com/janpfeifer/qtictactoe/internal/storage"
	"github.com/janpfeifer/qtictactoe/internal/trainer"
	"github.com/janpfeifer/qtictactoe/internal/ui/spinning"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"k8s.io/klog/v2"
)

var (
	flagEpisodes      int64
	flagProgressEvery int64
	flagChart         string
)

func newTrainCmds() []*cobra.Command {
	train1 := &cobra.Command{
		Use:   "train1 <qfile>",
		Short: "Trains player 1 against a random player 2, without decay.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraining(cmd.Context(), [2]string{args[0], ""}, false)
		},
	}
	train2 := &cobra.Command{
		Use:   "train2 <qfile>",
		Short: "Trains player 2 against a random player 1, without decay.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraining(cmd.Context(), [2]string{"", args[0]}, false)
		},
	}
	train := &cobra.Command{
		Use:   "train <qfile1> <qfile2>",
		Short: "Trains both players against each other, decaying the learning and exploration rates.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraining(cmd.Context(), [2]string{args[0], args[1]}, true)
		},
	}
	cmds := []*cobra.Command{train1, train2, train}
	for _, cmd := range cmds {
		fs := cmd.Flags()
		fs.Int64Var(&flagEpisodes, "episodes", 0, "Number of episodes to train. If 0, it trains until interrupted (Ctrl+C).")
		fs.Int64Var(&flagProgressEvery, "progress_every", trainer.DefaultProgressEvery,
			"Number of episodes between progress reports.")
		fs.StringVar(&flagChart, "chart", "", "If set, saves an HTML chart of the training progress to the given file.")
	}
	return cmds
}

// learner is an agent being trained, and where it is stored.
type learner struct {
	agent *qlearning.Agent
	store storage.Store
}

// runTraining trains the agents of the seats with a Q-table file, while seats without a file
// play at random.
func runTraining(ctx context.Context, files [2]string, decay bool) error {
	var agents [2]*qlearning.Agent
	var learners []learner
	defer func() {
		for _, l := range learners {
			if err := l.store.Close(); err != nil {
				klog.Errorf("Failed to close %s: %+v", l.store, err)
			}
		}
	}()
	for ii, fileName := range files {
		rng := newRNG(uint64(ii))
		if fileName == "" {
			agents[ii] = must.M1(qlearning.New(qlearning.RandomParams, rng))
			continue
		}
		agent, err := qlearning.New(learnerParams(decay), rng)
		if err != nil {
			return err
		}
		store, err := storage.Open(ctx, fileName)
		if err != nil {
			return err
		}
		learners = append(learners, learner{agent: agent, store: store})
		if _, err = storage.LoadInto(ctx, store, agent); err != nil {
			return err
		}
		agents[ii] = agent
	}

	opts := []trainer.Option{trainer.WithProgressEvery(flagProgressEvery)}
	var bar *progressbar.ProgressBar
	if flagEpisodes > 0 && term.IsTerminal(int(os.Stdout.Fd())) {
		bar = progressbar.Default(flagEpisodes, "training")
		opts = append(opts, trainer.WithProgressCallback(func(s trainer.Snapshot) {
			_ = bar.Set64(s.Episodes)
		}))
	}
	tr, err := trainer.New(agents, opts...)
	if err != nil {
		return err
	}
	err = tr.Run(ctx, flagEpisodes)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		// Tables are not saved if training failed.
		return err
	}

	// The training loop returned: tables are no longer being updated.
	if err = tr.Report(os.Stdout); err != nil {
		return err
	}
	// Use a fresh context: ctx is likely cancelled by now.
	saveCtx := context.Background()
	for _, l := range learners {
		s := spinning.New(saveCtx, os.Stdout, "Saving Q-table to "+l.store.String())
		err = l.store.Save(saveCtx, l.agent.Checkpoint())
		s.Done()
		if err != nil {
			return err
		}
	}
	if flagChart != "" {
		return saveChart(flagChart, tr)
	}
	return nil
}

func saveChart(fileName string, tr *trainer.Trainer) error {
	history := tr.History()
	if len(history) == 0 {
		klog.Warningf("No episodes played, chart %q not saved", fileName)
		return nil
	}
	var buf bytes.Buffer
	if err := trainer.WriteChart(&buf, tr.RunID().String(), history); err != nil {
		return err
	}
	if err := os.WriteFile(fileName, buf.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write chart file %q", fileName)
	}
	klog.Infof("Training chart saved to %q", fileName)
	return nil
}
