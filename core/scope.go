package core

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// RunScope owns the temporary staging directory of a single run. The directory
// is created on first use and removed by Close.
type RunScope struct {
	parent string

	once   sync.Once
	mu     sync.Mutex
	dir    string
	err    error
	closed bool
}

// NewRunScope creates a scope whose directory will live under parent
// (the system temp dir when empty).
func NewRunScope(parent string) *RunScope {
	return &RunScope{parent: parent}
}

// Dir returns the staging directory, creating it on first call.
func (s *RunScope) Dir() (string, error) {
	s.once.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			s.err = fmt.Errorf("run scope is closed")
			return
		}
		s.dir, s.err = os.MkdirTemp(s.parent, "riskgate-")
		if s.err != nil {
			s.err = fmt.Errorf("failed to create staging directory: %w", s.err)
		}
	})
	return s.dir, s.err
}

// Path returns the path of name inside the staging directory.
func (s *RunScope) Path(name string) (string, error) {
	dir, err := s.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.Base(name)), nil
}

// Close removes the staging directory and everything in it. It is safe to call
// more than once and on a scope that never created its directory.
func (s *RunScope) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.dir == "" {
		return nil
	}
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("failed to remove staging directory %s: %w", s.dir, err)
	}
	return nil
}
