// Package storage persists Q-learning checkpoints (learning rate, exploration rate and Q-table).
//
// Two backends are provided: FileStore, the line-oriented text format, and SQLiteStore.
// Use Open to select one from a path.
package storage

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/janpfeifer/qtictactoe/internal/qlearning"
)

// Store loads and saves one agent's checkpoint.
type Store interface {
	// Load returns the stored checkpoint, or nil (and no error) if nothing was stored yet.
	// A corrupt store returns an error wrapping qlearning.ErrMalformedTable.
	Load(ctx context.Context) (*qlearning.Checkpoint, error)

	// Save overwrites the stored checkpoint.
	Save(ctx context.Context, cp *qlearning.Checkpoint) error

	// Close releases any resources held by the Store.
	Close() error

	// String describes the store, for logging.
	String() string
}

// SQLiteExtensions are the path extensions that Open maps to a SQLiteStore.
var SQLiteExtensions = []string{".db", ".sqlite", ".sqlite3"}

// Open returns a SQLiteStore if the path has one of the SQLiteExtensions, and a FileStore otherwise.
func Open(ctx context.Context, path string) (Store, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, sqliteExt := range SQLiteExtensions {
		if ext == sqliteExt {
			return OpenSQLite(ctx, path)
		}
	}
	return NewFileStore(path), nil
}

// LoadInto loads the checkpoint of store into agent, if there is one.
// It returns whether something was loaded.
func LoadInto(ctx context.Context, store Store, agent *qlearning.Agent) (bool, error) {
	cp, err := store.Load(ctx)
	if err != nil || cp == nil {
		return false, err
	}
	agent.Restore(cp)
	return true, nil
}
