// Package memory provides an in-memory entry writer for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"financas/internal/core"
)

type Store struct {
	mu    sync.Mutex
	items []core.Entry

	// FailNext makes the next Append return an error, for failure-path tests.
	FailNext error
}

func New() *Store {
	return &Store{}
}

// Append stores the entry and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, e core.Entry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailNext != nil {
		err := s.FailNext
		s.FailNext = nil
		return "", err
	}
	s.items = append(s.items, e)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Items returns a copy of everything appended so far.
func (s *Store) Items() []core.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Entry(nil), s.items...)
}
