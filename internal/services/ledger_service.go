// Package services orchestrates the ledger and user operations between
// storage and the event publisher.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"financas/internal/core"
	"financas/internal/events"
	"financas/internal/metrics"
	"financas/internal/storage"
)

// LedgerService handles the lifecycle of ledger entries. The publisher is
// optional; without one, mutations simply skip event publishing.
type LedgerService struct {
	store     storage.Store
	publisher events.Publisher
}

func NewLedgerService(store storage.Store, publisher events.Publisher) *LedgerService {
	return &LedgerService{
		store:     store,
		publisher: publisher,
	}
}

// Create validates the entry, forces it into PENDENTE regardless of what
// the caller set, stamps the registration date and persists it. The
// returned entry carries the storage-assigned id.
func (s *LedgerService) Create(ctx context.Context, entry *core.Entry) (*core.Entry, error) {
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	entry.Status = core.StatusPending
	if entry.RegisteredAt.IsZero() {
		entry.RegisteredAt = time.Now()
	}

	stored, err := s.store.SaveEntry(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("save entry: %w", err)
	}

	metrics.EntriesCreated.Inc()
	s.publish(ctx, events.EventCreated, stored.ID)

	return stored, nil
}

// Update persists a full replacement of an already-stored entry. Unlike
// Create it never touches the status. A zero id is a caller bug and
// surfaces as ErrEntryIDRequired, not as a validation failure.
func (s *LedgerService) Update(ctx context.Context, entry *core.Entry) (*core.Entry, error) {
	return s.update(ctx, entry, events.EventUpdated)
}

// UpdateStatus flips the status and delegates to Update, which means the
// whole entry is re-validated: a stored entry with a broken field blocks
// even a pure status transition. Transitions themselves are unconstrained,
// any status can move to any other.
func (s *LedgerService) UpdateStatus(ctx context.Context, entry *core.Entry, status core.EntryStatus) (*core.Entry, error) {
	entry.Status = status
	updated, err := s.update(ctx, entry, events.EventStatusChanged)
	if err != nil {
		return nil, err
	}
	metrics.StatusUpdates.WithLabelValues(string(status)).Inc()
	return updated, nil
}

func (s *LedgerService) update(ctx context.Context, entry *core.Entry, event string) (*core.Entry, error) {
	if entry.ID == 0 {
		return nil, core.ErrEntryIDRequired
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	stored, err := s.store.SaveEntry(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("save entry: %w", err)
	}

	s.publish(ctx, event, stored.ID)
	return stored, nil
}

// Delete removes a stored entry. Business fields are not validated here,
// only the id precondition applies.
func (s *LedgerService) Delete(ctx context.Context, entry *core.Entry) error {
	if entry.ID == 0 {
		return core.ErrEntryIDRequired
	}

	if err := s.store.DeleteEntry(ctx, entry.ID); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	metrics.EntriesDeleted.Inc()
	s.publish(ctx, events.EventDeleted, entry.ID)
	return nil
}

// Find returns the entries matching every set field of the filter.
func (s *LedgerService) Find(ctx context.Context, filter core.EntryFilter) ([]core.Entry, error) {
	entries, err := s.store.FindEntries(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find entries: %w", err)
	}
	return entries, nil
}

// FindByID returns nil without error when no entry has the given id.
func (s *LedgerService) FindByID(ctx context.Context, id int64) (*core.Entry, error) {
	entry, err := s.store.FindEntryByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find entry: %w", err)
	}
	return entry, nil
}

// Balance is settled income minus settled expense for one user. PENDENTE
// and CANCELADO entries never count, whatever their type.
func (s *LedgerService) Balance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	income, err := s.store.SumEntries(ctx, userID, core.TypeIncome, core.StatusSettled)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum income: %w", err)
	}

	expense, err := s.store.SumEntries(ctx, userID, core.TypeExpense, core.StatusSettled)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum expense: %w", err)
	}

	return income.Sub(expense), nil
}

// publish is best effort: the entry is already persisted, so a broker
// failure must not fail the request. The worker re-drives missed entries.
func (s *LedgerService) publish(ctx context.Context, event string, entryID int64) {
	if s.publisher == nil {
		return
	}
	msg := events.NewEntryEventMessage(event, entryID)
	if err := s.publisher.PublishEntryEvent(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish entry event",
			"event", event,
			"entry_id", entryID,
			"error", err)
	}
}
