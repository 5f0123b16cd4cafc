// Package trainer runs self-play training episodes between two Q-learning agents, and evaluates
// trained players against each other.
package trainer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/janpfeifer/qtictactoe/internal/qlearning"
	"github.com/janpfeifer/qtictactoe/internal/state"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

const (
	// DefaultProgressEvery is the default number of episodes between progress reports.
	DefaultProgressEvery = 1_000_000

	// WinReward is given to the winner, and its negative to the loser.
	WinReward = 10.0

	// TieReward is given to both players on a tie.
	TieReward = 5.0
)

// Snapshot of the training, taken at each progress report.
type Snapshot struct {
	// Episodes completed so far.
	Episodes int64

	// Window holds the outcomes since the previous snapshot, Total since the start of the run.
	Window, Total Stats

	// LearningRates, Explorations and TableSizes of each agent.
	LearningRates, Explorations [2]float64
	TableSizes                  [2]int

	Elapsed time.Duration
}

// String implements fmt.Stringer.
func (s Snapshot) String() string {
	p1, p2, ties := s.Window.Rates()
	return fmt.Sprintf("episode %s: last %s games p1=%.1f%% p2=%.1f%% ties=%.1f%%, alpha=[%.4g %.4g], epsilon=[%.4g %.4g], table sizes=[%s %s], elapsed %s",
		humanize.Comma(s.Episodes), humanize.Comma(s.Window.GamesPlayed), 100*p1, 100*p2, 100*ties,
		s.LearningRates[0], s.LearningRates[1], s.Explorations[0], s.Explorations[1],
		humanize.Comma(int64(s.TableSizes[0])), humanize.Comma(int64(s.TableSizes[1])),
		s.Elapsed.Round(time.Second))
}

// Trainer drives episodes of self-play between two agents: agents[0] plays as state.PlayerOne,
// agents[1] as state.PlayerTwo. The same agent may be used in both seats.
//
// It is not safe for concurrent use, and the agents must not be updated elsewhere while training.
type Trainer struct {
	agents [2]*qlearning.Agent
	board  *state.Board

	stats, window Stats
	history       []Snapshot

	progressEvery int64
	onProgress    func(Snapshot)
	runID         uuid.UUID
	start         time.Time
}

// Option configures a Trainer.
type Option func(t *Trainer)

// WithProgressEvery sets the number of episodes between progress reports. Values <= 0 disable them.
func WithProgressEvery(episodes int64) Option {
	return func(t *Trainer) { t.progressEvery = episodes }
}

// WithProgressCallback is called, in the training goroutine, at each progress report.
func WithProgressCallback(fn func(Snapshot)) Option {
	return func(t *Trainer) { t.onProgress = fn }
}

// WithRunID sets the id used to tag the logs of the run. By default, a random one is generated.
func WithRunID(id uuid.UUID) Option {
	return func(t *Trainer) { t.runID = id }
}

// New creates a Trainer for the two agents.
func New(agents [2]*qlearning.Agent, opts ...Option) (*Trainer, error) {
	for ii, agent := range agents {
		if agent == nil {
			return nil, errors.Errorf("trainer: agent for player %d is nil", ii+1)
		}
	}
	t := &Trainer{
		agents:        agents,
		board:         state.NewBoard(),
		progressEvery: DefaultProgressEvery,
		runID:         uuid.New(),
		start:         time.Now(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// RunID returns the id of the training run.
func (t *Trainer) RunID() uuid.UUID { return t.runID }

// Stats returns the accumulated statistics.
func (t *Trainer) Stats() Stats { return t.stats }

// History returns the snapshots taken at each progress report.
func (t *Trainer) History() []Snapshot { return t.history }

// Agents returns the agents being trained.
func (t *Trainer) Agents() [2]*qlearning.Agent { return t.agents }

var seatCells = [2]state.Cell{state.PlayerOne, state.PlayerTwo}

// PlayEpisode plays one full match, updating both agents, and records its outcome in the stats.
//
// The value of an agent's action is only updated when it sees the state that resulted after the
// opponent replied, with reward 0. When the match ends both agents receive a terminal update:
// WinReward/-WinReward for the winner/loser or TieReward for both.
//
// Decay is not applied here, see Run.
func (t *Trainer) PlayEpisode() (state.Outcome, error) {
	t.board.Reset()
	var turns [2]qlearning.Turn
	idx := 0
	for turnCount := 0; ; turnCount++ {
		agent := t.agents[idx]
		encoded := t.board.Encode()
		if turnCount > 1 {
			if err := agent.UpdateIntermediate(turns[idx], encoded, 0); err != nil {
				return state.Ongoing, errors.WithMessagef(err, "player %d update at turn %d", idx+1, turnCount)
			}
		}
		action, err := agent.SelectAction(encoded)
		if err != nil {
			return state.Ongoing, errors.WithMessagef(err, "player %d at turn %d", idx+1, turnCount)
		}
		turns[idx] = qlearning.Turn{State: encoded, Action: action}
		if err = t.board.Act(action, seatCells[idx]); err != nil {
			return state.Ongoing, errors.WithMessagef(err, "player %d at turn %d", idx+1, turnCount)
		}

		outcome := t.board.Outcome()
		if outcome.IsFinal() {
			t.dispatchRewards(outcome, turns)
			t.stats.Record(outcome)
			t.window.Record(outcome)
			if klog.V(2).Enabled() {
				klog.Infof("[%s] episode %d: %s after %d turns\n%s", t.runID, t.stats.GamesPlayed, outcome, turnCount+1, t.board)
			}
			return outcome, nil
		}
		idx ^= 1
	}
}

func (t *Trainer) dispatchRewards(outcome state.Outcome, turns [2]qlearning.Turn) {
	var rewards [2]float64
	switch outcome {
	case state.PlayerOneWin:
		rewards = [2]float64{WinReward, -WinReward}
	case state.PlayerTwoWin:
		rewards = [2]float64{-WinReward, WinReward}
	case state.Tie:
		rewards = [2]float64{TieReward, TieReward}
	}
	for ii, agent := range t.agents {
		agent.UpdateTerminal(turns[ii], rewards[ii])
	}
}

// Decay the agents that have the decay flag set. An agent in both seats is decayed once.
func (t *Trainer) Decay() {
	t.agents[0].Decay()
	if t.agents[1] != t.agents[0] {
		t.agents[1].Decay()
	}
}

// Run plays episodes, decaying the agents after each one, until maxEpisodes are played
// (if maxEpisodes <= 0 it runs until ctx is cancelled).
//
// Cancellation is only checked between episodes, and it is not an error: Run returns nil, and
// the agents can then be safely saved by the caller.
//
// Episodes played after the last progress report are reported in a final snapshot when Run
// returns, so History covers the whole run.
func (t *Trainer) Run(ctx context.Context, maxEpisodes int64) error {
	klog.Infof("[%s] training: player 1 %s, player 2 %s", t.runID, t.agents[0], t.agents[1])
	for played := int64(0); maxEpisodes <= 0 || played < maxEpisodes; played++ {
		if ctx.Err() != nil {
			klog.Infof("[%s] training interrupted after %s episodes", t.runID, humanize.Comma(t.stats.GamesPlayed))
			t.flushProgress()
			return nil
		}
		if _, err := t.PlayEpisode(); err != nil {
			return errors.WithMessagef(err, "episode %d", t.stats.GamesPlayed+1)
		}
		t.Decay()
		if t.progressEvery > 0 && t.stats.GamesPlayed%t.progressEvery == 0 {
			t.progress()
		}
	}
	t.flushProgress()
	return nil
}

// flushProgress takes a snapshot of the episodes not yet reported, if any.
func (t *Trainer) flushProgress() {
	if t.window.GamesPlayed > 0 {
		t.progress()
	}
}

func (t *Trainer) progress() {
	snapshot := Snapshot{
		Episodes: t.stats.GamesPlayed,
		Window:   t.window,
		Total:    t.stats,
		Elapsed:  time.Since(t.start),
	}
	for ii, agent := range t.agents {
		snapshot.LearningRates[ii] = agent.LearningRate()
		snapshot.Explorations[ii] = agent.Exploration()
		snapshot.TableSizes[ii] = len(agent.Table())
	}
	t.history = append(t.history, snapshot)
	t.window = Stats{}
	klog.Infof("[%s] %s", t.runID, snapshot)
	if t.onProgress != nil {
		t.onProgress(snapshot)
	}
}

// Report writes the accumulated statistics and the state of the agents to w.
func (t *Trainer) Report(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Training run %s (%s)\n", t.runID, time.Since(t.start).Round(time.Millisecond)); err != nil {
		return errors.Wrap(err, "failed to write report")
	}
	if _, err := t.stats.WriteTo(w); err != nil {
		return errors.Wrap(err, "failed to write report")
	}
	for ii, agent := range t.agents {
		if _, err := fmt.Fprintf(w, "Player %d: %s\n", ii+1, agent); err != nil {
			return errors.Wrap(err, "failed to write report")
		}
	}
	return nil
}
