package storage

import (
	"context"
	"database/sql"

	"github.com/janpfeifer/qtictactoe/internal/qlearning"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
	_ "modernc.org/sqlite"
)

const (
	paramLearningRate = "learning_rate"
	paramExploration  = "exploration"
)

// SQLiteStore keeps the checkpoint in a SQLite database, with two tables:
// "params" (name, value) holds the learning and exploration rates, and
// "qvalues" (key, value) holds the Q-table, keyed by qlearning.Key.String.
type SQLiteStore struct {
	path string
	db   *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the database at path and makes sure the tables exist.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sqlite database %q", path)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "failed to connect to sqlite database %q", path)
	}
	s := &SQLiteStore{path: path, db: db}
	if err = s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS params (name TEXT PRIMARY KEY, value REAL NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS qvalues (key TEXT PRIMARY KEY, value REAL NOT NULL)`,
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to create tables in %q", s.path)
		}
	}
	return nil
}

// String implements Store.
func (s *SQLiteStore) String() string {
	return "sqlite:" + s.path
}

// Load implements Store. It returns nil if no checkpoint was saved yet.
func (s *SQLiteStore) Load(ctx context.Context) (*qlearning.Checkpoint, error) {
	params := make(map[string]float64, 2)
	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM params`)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query params in %q", s.path)
	}
	for rows.Next() {
		var name string
		var value float64
		if err = rows.Scan(&name, &value); err != nil {
			_ = rows.Close()
			return nil, errors.Wrapf(err, "failed to scan params in %q", s.path)
		}
		params[name] = value
	}
	if err = closeRows(rows); err != nil {
		return nil, errors.Wrapf(err, "failed to read params in %q", s.path)
	}
	if len(params) == 0 {
		klog.Infof("No Q-table saved in %q, starting with no prior learning", s.path)
		return nil, nil
	}

	cp := &qlearning.Checkpoint{Table: make(qlearning.QTable)}
	var found bool
	if cp.LearningRate, found = params[paramLearningRate]; !found {
		return nil, errors.Wrapf(qlearning.ErrMalformedTable, "%q: missing parameter %q", s.path, paramLearningRate)
	}
	if cp.Exploration, found = params[paramExploration]; !found {
		return nil, errors.Wrapf(qlearning.ErrMalformedTable, "%q: missing parameter %q", s.path, paramExploration)
	}

	rows, err = s.db.QueryContext(ctx, `SELECT key, value FROM qvalues`)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query Q-values in %q", s.path)
	}
	for rows.Next() {
		var keyStr string
		var value float64
		if err = rows.Scan(&keyStr, &value); err != nil {
			_ = rows.Close()
			return nil, errors.Wrapf(err, "failed to scan Q-values in %q", s.path)
		}
		key, err := qlearning.ParseKey(keyStr)
		if err != nil {
			_ = rows.Close()
			return nil, errors.Wrapf(qlearning.ErrMalformedTable, "%q: %v", s.path, err)
		}
		cp.Table[key] = value
	}
	if err = closeRows(rows); err != nil {
		return nil, errors.Wrapf(err, "failed to read Q-values in %q", s.path)
	}
	if err = cp.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "invalid Q-table in %q", s.path)
	}
	klog.V(1).Infof("Loaded %d Q-values from %s", len(cp.Table), s)
	return cp, nil
}

func closeRows(rows *sql.Rows) error {
	err := rows.Err()
	if closeErr := rows.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Save implements Store. The previous content is replaced in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, cp *qlearning.Checkpoint) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to start transaction in %q", s.path)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range []string{`DELETE FROM params`, `DELETE FROM qvalues`} {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to clear %q", s.path)
		}
	}
	for name, value := range map[string]float64{
		paramLearningRate: cp.LearningRate,
		paramExploration:  cp.Exploration,
	} {
		if _, err = tx.ExecContext(ctx, `INSERT INTO params (name, value) VALUES (?, ?)`, name, value); err != nil {
			return errors.Wrapf(err, "failed to save parameter %q to %q", name, s.path)
		}
	}

	insert, err := tx.PrepareContext(ctx, `INSERT INTO qvalues (key, value) VALUES (?, ?)`)
	if err != nil {
		return errors.Wrapf(err, "failed to prepare insert in %q", s.path)
	}
	defer func() { _ = insert.Close() }()
	for key, value := range cp.Table {
		if _, err = insert.ExecContext(ctx, key.String(), value); err != nil {
			return errors.Wrapf(err, "failed to save Q-value %q to %q", key, s.path)
		}
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrapf(err, "failed to commit Q-table to %q", s.path)
	}
	klog.V(1).Infof("Saved %d Q-values to %s", len(cp.Table), s)
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return errors.Wrapf(err, "failed to close %s", s)
	}
	return nil
}
