// Package players provides a factory of players from configuration strings.
// It also allows player providers to register themselves.
//
// Modules are registered by importing their packages, see subpackage default.
package players

import (
	"fmt"
	"math/rand/v2"

	"github.com/janpfeifer/qtictactoe/internal/generics"
	"github.com/janpfeifer/qtictactoe/internal/parameters"
	"github.com/janpfeifer/qtictactoe/internal/qlearning"
	"github.com/janpfeifer/qtictactoe/internal/state"
	"github.com/pkg/errors"
)

// Player is anything that is able to play the game: an agent or a human.
type Player interface {
	// Play returns the action chosen for the given board. It must not modify the board.
	Play(board *state.Board) (state.Action, error)

	// String describes the player, for logging.
	String() string
}

// Module must implement NewPlayer, called at the start of a match.
// matchID is unique among matches, and it can be used to seed the player's random number generator.
type Module interface {
	NewPlayer(matchID uint64, seat state.Cell, params parameters.Params) (Player, error)
}

var (
	// Registered modules.
	keywordToModules = make(map[string]Module)
)

// RegisterModule so it can be used by any of the front-ends.
func RegisterModule(name string, module Module) {
	keywordToModules[name] = module
}

// DefaultPlayerConfig is used if no configuration was given.
var DefaultPlayerConfig = "random"

// New creates a new player given the configuration string.
//
// Args:
//
//	config: the module name followed by a colon (":"), followed by a comma-separated list of optional
//		parameters with optional values associated. E.g.: "qlearn:file=p1.txt".
//		If empty, DefaultPlayerConfig is used.
//
// Parameters not used by the module are reported as errors.
func New(matchID uint64, seat state.Cell, config string) (Player, error) {
	if config == "" {
		config = DefaultPlayerConfig
	}
	moduleName, params := parameters.Split(config)
	module, ok := keywordToModules[moduleName]
	if !ok {
		return nil, errors.Errorf("unknown player module %q (registered: %v)", moduleName, RegisteredModules())
	}
	player, err := module.NewPlayer(matchID, seat, params)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to create player %q", moduleName)
	}
	if err = parameters.CheckAllUsed(params); err != nil {
		return nil, errors.WithMessagef(err, "player %q", moduleName)
	}
	return player, nil
}

// RegisteredModules returns the sorted names of the registered modules.
func RegisteredModules() []string {
	return generics.SortedKeys(keywordToModules)
}

// NewRNG returns a random number generator seeded deterministically from the match and seat.
func NewRNG(matchID uint64, seat state.Cell) *rand.Rand {
	return rand.New(rand.NewPCG(matchID, uint64(seat)))
}

// AgentPlayer plays following a Q-learning agent's policy.
type AgentPlayer struct {
	Agent *qlearning.Agent
}

var _ Player = (*AgentPlayer)(nil)

// Play implements Player.
func (p *AgentPlayer) Play(board *state.Board) (state.Action, error) {
	return p.Agent.SelectAction(board.Encode())
}

// String implements Player.
func (p *AgentPlayer) String() string {
	return p.Agent.String()
}

// RandomPlayer plays a uniformly random legal action.
type RandomPlayer struct {
	rng *rand.Rand
}

var _ Player = (*RandomPlayer)(nil)

// NewRandomPlayer creates a RandomPlayer. If rng is nil, a randomly seeded one is used.
func NewRandomPlayer(rng *rand.Rand) *RandomPlayer {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &RandomPlayer{rng: rng}
}

// Play implements Player.
func (p *RandomPlayer) Play(board *state.Board) (state.Action, error) {
	actions := board.LegalActions()
	if len(actions) == 0 {
		return state.Action{}, errors.Wrapf(qlearning.ErrNoLegalAction, "board %q", board.Encode())
	}
	return actions[p.rng.IntN(len(actions))], nil
}

// String implements Player.
func (p *RandomPlayer) String() string {
	return "Random"
}

// MoveFunc is called by PlayMatch after each action is applied to the board.
type MoveFunc func(board *state.Board, seat state.Cell, action state.Action)

// PlayMatch between two players, starting from an empty board, and returns the outcome.
// players[0] plays as state.PlayerOne. onMove can be nil.
func PlayMatch(players [2]Player, onMove MoveFunc) (state.Outcome, error) {
	board := state.NewBoard()
	cell := state.PlayerOne
	for idx := 0; ; idx ^= 1 {
		action, err := players[idx].Play(board)
		if err != nil {
			return state.Ongoing, errors.WithMessagef(err, "player %s failed to play", players[idx])
		}
		if err = board.Act(action, cell); err != nil {
			return state.Ongoing, errors.WithMessagef(err, "player %s chose %s", players[idx], action)
		}
		if onMove != nil {
			onMove(board, cell, action)
		}
		if outcome := board.Outcome(); outcome.IsFinal() {
			return outcome, nil
		}
		cell = cell.Opponent()
	}
}

// SeatName returns a human-readable name of the seat, e.g. "Player 1".
func SeatName(seat state.Cell) string {
	return fmt.Sprintf("Player %d", int(seat))
}
