package storage

import (
	"context"
	"os"

	"github.com/janpfeifer/qtictactoe/internal/qlearning"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// FileStore keeps the checkpoint in a text file, see qlearning.WriteCheckpoint for the format.
type FileStore struct {
	Path string
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a FileStore for path. The file doesn't need to exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// String implements Store.
func (s *FileStore) String() string {
	return "file:" + s.Path
}

// Load implements Store. A missing or empty file is not an error: it returns nil, meaning no prior learning.
func (s *FileStore) Load(_ context.Context) (*qlearning.Checkpoint, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			klog.Infof("Q-table file %q not found, starting with no prior learning", s.Path)
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to open Q-table file %q", s.Path)
	}
	defer func() { _ = f.Close() }()

	cp, err := qlearning.ReadCheckpoint(f)
	if errors.Is(err, qlearning.ErrEmptyTable) {
		klog.Infof("Q-table file %q is empty, starting with no prior learning", s.Path)
		return nil, nil
	}
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to load Q-table from %q", s.Path)
	}
	klog.V(1).Infof("Loaded %d Q-values from %q", len(cp.Table), s.Path)
	return cp, nil
}

// Save implements Store. An existing file is first renamed with a "~" suffix, and then fully rewritten.
func (s *FileStore) Save(_ context.Context, cp *qlearning.Checkpoint) error {
	if _, err := os.Stat(s.Path); err == nil {
		if err = os.Rename(s.Path, s.Path+"~"); err != nil {
			return errors.Wrapf(err, "failed to rename %q to %q", s.Path, s.Path+"~")
		}
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to stat %q", s.Path)
	}

	f, err := os.Create(s.Path)
	if err != nil {
		return errors.Wrapf(err, "failed to create Q-table file %q", s.Path)
	}
	if err = qlearning.WriteCheckpoint(f, cp); err != nil {
		_ = f.Close()
		return errors.WithMessagef(err, "failed to save Q-table to %q", s.Path)
	}
	if err = f.Close(); err != nil {
		return errors.Wrapf(err, "failed to close Q-table file %q", s.Path)
	}
	klog.V(1).Infof("Saved %d Q-values to %q", len(cp.Table), s.Path)
	return nil
}

// Close implements Store. It is a no-op.
func (s *FileStore) Close() error {
	return nil
}
