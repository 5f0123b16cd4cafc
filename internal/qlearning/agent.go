// Package qlearning implements a tabular Q-learning agent for tic-tac-toe, with an epsilon-greedy
// policy and the Bellman update rule:
//
//	Q(s,a) <- α·(r + γ·max_a' Q(s',a')) + (1-α)·Q(s,a)
//
// Rewards are given only at the end of the match, so intermediate updates use r=0 and the final
// update (UpdateTerminal) has no lookahead term.
package qlearning

import (
	"fmt"
	"math/rand/v2"

	"github.com/gomlx/exceptions"
	"github.com/janpfeifer/qtictactoe/internal/state"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

const (
	// DecayRate multiplies the learning rate and the exploration rate at each Decay call.
	DecayRate = 0.999999

	// DecayFloor below which the learning rate and exploration rate are no longer decayed.
	DecayFloor = 0.001
)

// ErrNoLegalAction is returned by SelectAction when called on a board without empty cells.
// It means the caller asked for an action on a finished match.
var ErrNoLegalAction = errors.New("no legal action available")

// Params of an Agent.
type Params struct {
	// LearningRate (α) in (0, 1].
	LearningRate float64

	// Discount (γ) factor of future rewards in [0, 1].
	Discount float64

	// Exploration (ε) is the probability of choosing a random action, in [0, 1].
	Exploration float64

	// Decay enables Agent.Decay. Agents used as random opponents are created without it.
	Decay bool
}

// DefaultParams used when training.
var DefaultParams = Params{LearningRate: 0.2, Discount: 0.95, Exploration: 0.3}

// RandomParams makes an agent that always plays at random: used as the opponent when training a single seat.
var RandomParams = Params{LearningRate: 1.0, Discount: 0.95, Exploration: 1.0}

// Validate returns an error if any of the parameters is out of range.
func (p Params) Validate() error {
	if !(p.LearningRate > 0 && p.LearningRate <= 1) {
		return errors.Errorf("learning rate (alpha) must be in (0, 1], got %g", p.LearningRate)
	}
	if !(p.Discount >= 0 && p.Discount <= 1) {
		return errors.Errorf("discount (gamma) must be in [0, 1], got %g", p.Discount)
	}
	if !(p.Exploration >= 0 && p.Exploration <= 1) {
		return errors.Errorf("exploration (epsilon) must be in [0, 1], got %g", p.Exploration)
	}
	return nil
}

// String implements fmt.Stringer.
func (p Params) String() string {
	return fmt.Sprintf("alpha=%g, gamma=%g, epsilon=%g, decay=%v", p.LearningRate, p.Discount, p.Exploration, p.Decay)
}

// Turn records the state an agent saw and the action it took from it. It is kept by the caller
// until the outcome of the action is known, and then passed to one of the update methods.
type Turn struct {
	State  string
	Action state.Action
}

// Key returns the QTable key for the turn.
func (t Turn) Key() Key {
	return Key{State: t.State, Action: t.Action}
}

// Agent owns a QTable and its learning parameters.
//
// It is not safe for concurrent use. See Greedy to create read-only views that can be used
// concurrently, as long as the original agent is not being updated.
type Agent struct {
	params   Params
	table    QTable
	rng      *rand.Rand
	readOnly bool
}

// New creates an agent with an empty table. The rng is used for exploration and tie-breaking;
// pass a seeded one for reproducible matches. If rng is nil, a randomly seeded one is created.
func New(params Params, rng *rand.Rand) (*Agent, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Agent{
		params: params,
		table:  make(QTable),
		rng:    rng,
	}, nil
}

// Greedy returns a read-only view of the agent that shares its table, never explores and never decays.
// Its rng is independent from the original agent's.
func (a *Agent) Greedy(rng *rand.Rand) *Agent {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	params := a.params
	params.Exploration = 0
	params.Decay = false
	return &Agent{
		params:   params,
		table:    a.table,
		rng:      rng,
		readOnly: true,
	}
}

// Params returns the current parameters, including the decayed learning and exploration rates.
func (a *Agent) Params() Params { return a.params }

// LearningRate (α) currently in use.
func (a *Agent) LearningRate() float64 { return a.params.LearningRate }

// Exploration (ε) rate currently in use.
func (a *Agent) Exploration() float64 { return a.params.Exploration }

// Table returns the agent's QTable. It is not a copy.
func (a *Agent) Table() QTable { return a.table }

// String implements fmt.Stringer.
func (a *Agent) String() string {
	return fmt.Sprintf("QAgent(%s, %d entries)", a.params, len(a.table))
}

// SelectAction for the encoded state, following the epsilon-greedy policy.
//
// With probability ε a uniformly random legal action is returned. Otherwise, among the legal
// actions with the highest value (unseen actions are worth exactly 0) one is picked uniformly.
func (a *Agent) SelectAction(encodedState string) (state.Action, error) {
	actions, err := state.LegalActions(encodedState)
	if err != nil {
		return state.Action{}, err
	}
	if len(actions) == 0 {
		return state.Action{}, errors.Wrapf(ErrNoLegalAction, "state %q", encodedState)
	}

	if a.rng.Float64() < a.params.Exploration {
		action := actions[a.rng.IntN(len(actions))]
		if klog.V(3).Enabled() {
			klog.Infof("state %s: exploring action %s", encodedState, action)
		}
		return action, nil
	}

	values := make([]float64, len(actions))
	for ii, action := range actions {
		values[ii] = a.table.Get(Key{encodedState, action})
	}
	maxQ := values[0]
	for _, v := range values[1:] {
		maxQ = max(maxQ, v)
	}
	tied := make([]state.Action, 0, len(actions))
	for ii, v := range values {
		if v == maxQ {
			tied = append(tied, actions[ii])
		}
	}
	if len(tied) == 0 {
		// Only reachable with NaN values.
		return actions[a.rng.IntN(len(actions))], nil
	}
	action := tied[a.rng.IntN(len(tied))]
	if klog.V(3).Enabled() {
		klog.Infof("state %s: best action %s (q=%g, %d tied)", encodedState, action, maxQ, len(tied))
	}
	return action, nil
}

// UpdateIntermediate applies the Bellman update to the turn, given the state observed after the
// opponent replied:
//
//	Q(s,a) <- α·(reward + γ·maxNext) + (1-α)·Q(s,a)
//
// maxNext is the largest value of the legal actions in nextState, and 0 if there are none.
func (a *Agent) UpdateIntermediate(turn Turn, nextState string, reward float64) error {
	a.checkWritable()
	nextActions, err := state.LegalActions(nextState)
	if err != nil {
		return err
	}
	maxNext := a.table.MaxValue(nextState, nextActions)
	key := turn.Key()
	prevQ := a.table.Get(key)
	alpha := a.params.LearningRate
	a.table.Set(key, alpha*(reward+a.params.Discount*maxNext)+(1-alpha)*prevQ)
	return nil
}

// UpdateTerminal applies the final update of a match, when there is no successor state:
//
//	Q(s,a) <- α·reward + (1-α)·Q(s,a)
func (a *Agent) UpdateTerminal(turn Turn, reward float64) {
	a.checkWritable()
	key := turn.Key()
	prevQ := a.table.Get(key)
	alpha := a.params.LearningRate
	a.table.Set(key, alpha*reward+(1-alpha)*prevQ)
}

// Decay the learning rate and the exploration rate by DecayRate, if Params.Decay is set.
// Each one stops decaying once it reaches DecayFloor, and never goes below it.
func (a *Agent) Decay() {
	if !a.params.Decay {
		return
	}
	if a.params.LearningRate > DecayFloor {
		a.params.LearningRate = max(DecayFloor, a.params.LearningRate*DecayRate)
	}
	if a.params.Exploration > DecayFloor {
		a.params.Exploration = max(DecayFloor, a.params.Exploration*DecayRate)
	}
}

func (a *Agent) checkWritable() {
	if a.readOnly {
		exceptions.Panicf("QAgent: update called on a read-only (greedy) view")
	}
}
