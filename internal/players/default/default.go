// Package _default registers the default players that can be included in any
// front-end for tic-tac-toe.
//
// Currently, it includes "qlearn", a greedy player following a Q-table loaded from a file,
// and "random".
package _default

import (
	"context"
	"sync"

	"github.com/janpfeifer/qtictactoe/internal/parameters"
	"github.com/janpfeifer/qtictactoe/internal/players"
	"github.com/janpfeifer/qtictactoe/internal/qlearning"
	"github.com/janpfeifer/qtictactoe/internal/state"
	"github.com/janpfeifer/qtictactoe/internal/storage"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

func init() {
	players.RegisterModule("qlearn", &QLearn{})
	players.RegisterModule("random", &Random{})
}

// QLearn creates greedy players from a Q-table file, given by the "file" parameter.
// Tables are loaded only once per file, and shared (read-only) among players.
type QLearn struct {
	mu    sync.Mutex
	cache map[string]*qlearning.Agent
}

var _ players.Module = (*QLearn)(nil)

// NewPlayer implements players.Module.
func (q *QLearn) NewPlayer(matchID uint64, seat state.Cell, params parameters.Params) (players.Player, error) {
	fileName, err := parameters.PopParamOr(params, "file", "")
	if err != nil {
		return nil, err
	}
	if fileName == "" {
		return nil, errors.New("qlearn player requires the parameter \"file\" with the Q-table to use")
	}
	agent, err := q.load(fileName)
	if err != nil {
		return nil, err
	}
	return &players.AgentPlayer{Agent: agent.Greedy(players.NewRNG(matchID, seat))}, nil
}

func (q *QLearn) load(fileName string) (*qlearning.Agent, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if agent, found := q.cache[fileName]; found {
		klog.V(1).Infof("Using cache for Q-table %q", fileName)
		return agent, nil
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, fileName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()
	agent, err := qlearning.New(qlearning.DefaultParams, nil)
	if err != nil {
		return nil, err
	}
	loaded, err := storage.LoadInto(ctx, store, agent)
	if err != nil {
		return nil, err
	}
	if !loaded {
		klog.Warningf("No Q-table found in %s, player will choose its actions at random", store)
	}
	if q.cache == nil {
		q.cache = make(map[string]*qlearning.Agent)
	}
	q.cache[fileName] = agent
	return agent, nil
}

// Random creates players that choose uniformly among the legal actions.
type Random struct{}

var _ players.Module = (*Random)(nil)

// NewPlayer implements players.Module.
func (r *Random) NewPlayer(matchID uint64, seat state.Cell, _ parameters.Params) (players.Player, error) {
	return players.NewRandomPlayer(players.NewRNG(matchID, seat)), nil
}
