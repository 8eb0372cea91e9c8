// Package memory provides an in-memory Store used in tests and local
// experiments.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"financas/internal/core"
	"financas/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type Store struct {
	mu          sync.Mutex
	users       map[int64]core.User
	entries     map[int64]core.Entry
	exported    map[int64]bool
	nextUserID  int64
	nextEntryID int64

	// call counters, for asserting that a service never reached storage
	SaveEntryCalls   int
	DeleteEntryCalls int
}

func New() *Store {
	return &Store{
		users:    make(map[int64]core.User),
		entries:  make(map[int64]core.Entry),
		exported: make(map[int64]bool),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateUser(_ context.Context, user *core.User) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextUserID++
	stored := *user
	stored.ID = s.nextUserID
	s.users[stored.ID] = stored
	return &stored, nil
}

func (s *Store) FindUserByID(_ context.Context, id int64) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (s *Store) UserEmailExists(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) SaveEntry(_ context.Context, entry *core.Entry) (*core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.SaveEntryCalls++
	stored := *entry
	if stored.ID == 0 {
		s.nextEntryID++
		stored.ID = s.nextEntryID
	}
	s.entries[stored.ID] = stored
	s.exported[stored.ID] = false
	return &stored, nil
}

func (s *Store) DeleteEntry(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.DeleteEntryCalls++
	delete(s.entries, id)
	delete(s.exported, id)
	return nil
}

func (s *Store) FindEntryByID(_ context.Context, id int64) (*core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[id]; ok {
		return &e, nil
	}
	return nil, nil
}

func (s *Store) FindEntries(_ context.Context, filter core.EntryFilter) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Entry
	for _, e := range s.entries {
		if matches(e, filter) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func matches(e core.Entry, f core.EntryFilter) bool {
	if f.Description != "" &&
		!strings.Contains(strings.ToLower(e.Description), strings.ToLower(f.Description)) {
		return false
	}
	if f.Month != 0 && e.Month != f.Month {
		return false
	}
	if f.Year != 0 && e.Year != f.Year {
		return false
	}
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.UserID != 0 && (e.User == nil || e.User.ID != f.UserID) {
		return false
	}
	return true
}

func (s *Store) SumEntries(_ context.Context, userID int64, entryType core.EntryType, status core.EntryStatus) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, e := range s.entries {
		if e.User != nil && e.User.ID == userID && e.Type == entryType && e.Status == status {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

func (s *Store) ListPendingExport(_ context.Context, limit int) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Entry
	for id, e := range s.entries {
		if !s.exported[id] && e.Status == core.StatusSettled {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkExported(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.exported[id] = true
	return nil
}
