package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"financas/internal/core"
	"financas/internal/events"
	"financas/internal/storage/memory"
)

// capturePublisher records published events in order.
type capturePublisher struct {
	published []*events.EntryEventMessage
}

func (p *capturePublisher) PublishEntryEvent(_ context.Context, msg *events.EntryEventMessage) error {
	p.published = append(p.published, msg)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func newTestLedger(t *testing.T) (*LedgerService, *memory.Store, *capturePublisher, *core.User) {
	t.Helper()
	store := memory.New()
	pub := &capturePublisher{}
	users := NewUserService(store)
	user, err := users.Register(context.Background(), &core.User{
		Name:     "Fulano",
		Email:    "fulano@email.com",
		Password: "senha",
	})
	if err != nil {
		t.Fatalf("register user: %v", err)
	}
	return NewLedgerService(store, pub), store, pub, user
}

func testEntry(user *core.User) *core.Entry {
	return &core.Entry{
		Description: "teste",
		Month:       1,
		Year:        2019,
		Amount:      decimal.NewFromInt(10),
		Type:        core.TypeIncome,
		User:        user,
	}
}

func TestCreateForcesPendingStatus(t *testing.T) {
	svc, _, pub, user := newTestLedger(t)

	entry := testEntry(user)
	entry.Status = core.StatusSettled // caller-supplied status must be ignored

	stored, err := svc.Create(context.Background(), entry)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if stored.ID == 0 {
		t.Error("expected a storage-assigned id")
	}
	if stored.Status != core.StatusPending {
		t.Errorf("status = %s, want %s", stored.Status, core.StatusPending)
	}
	if stored.RegisteredAt.IsZero() {
		t.Error("expected registration date to be stamped")
	}
	if len(pub.published) != 1 || pub.published[0].Event != events.EventCreated {
		t.Errorf("expected one created event, got %v", pub.published)
	}
}

func TestCreateInvalidEntryNeverReachesStorage(t *testing.T) {
	svc, store, _, user := newTestLedger(t)

	entry := testEntry(user)
	entry.Description = ""

	_, err := svc.Create(context.Background(), entry)
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Reason != "Informe uma Descrição válida." {
		t.Errorf("reason = %q", verr.Reason)
	}
	if store.SaveEntryCalls != 0 {
		t.Errorf("storage save was invoked %d times", store.SaveEntryCalls)
	}
}

func TestUpdateRequiresID(t *testing.T) {
	svc, store, _, user := newTestLedger(t)

	_, err := svc.Update(context.Background(), testEntry(user))
	if !errors.Is(err, core.ErrEntryIDRequired) {
		t.Fatalf("expected ErrEntryIDRequired, got %v", err)
	}
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		t.Error("missing id must not surface as a ValidationError")
	}
	if store.SaveEntryCalls != 0 {
		t.Errorf("storage save was invoked %d times", store.SaveEntryCalls)
	}
}

func TestUpdateKeepsCallerStatus(t *testing.T) {
	svc, _, _, user := newTestLedger(t)

	stored, err := svc.Create(context.Background(), testEntry(user))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stored.Status = core.StatusCancelled
	stored.Description = "ajustado"
	updated, err := svc.Update(context.Background(), stored)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != core.StatusCancelled {
		t.Errorf("update must not reset status, got %s", updated.Status)
	}

	found, err := svc.FindByID(context.Background(), stored.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.Description != "ajustado" || found.Status != core.StatusCancelled {
		t.Errorf("persisted entry = %+v", found)
	}
}

func TestDeleteRequiresID(t *testing.T) {
	svc, store, _, user := newTestLedger(t)

	err := svc.Delete(context.Background(), testEntry(user))
	if !errors.Is(err, core.ErrEntryIDRequired) {
		t.Fatalf("expected ErrEntryIDRequired, got %v", err)
	}
	if store.DeleteEntryCalls != 0 {
		t.Errorf("storage delete was invoked %d times", store.DeleteEntryCalls)
	}
}

func TestDeleteRemovesEntry(t *testing.T) {
	svc, _, _, user := newTestLedger(t)

	stored, err := svc.Create(context.Background(), testEntry(user))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(context.Background(), stored); err != nil {
		t.Fatalf("delete: %v", err)
	}
	found, err := svc.FindByID(context.Background(), stored.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found != nil {
		t.Errorf("entry still present after delete: %+v", found)
	}
}

func TestUpdateStatusPersistsNewStatus(t *testing.T) {
	svc, _, pub, user := newTestLedger(t)

	stored, err := svc.Create(context.Background(), testEntry(user))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.UpdateStatus(context.Background(), stored, core.StatusSettled)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != core.StatusSettled {
		t.Errorf("status = %s, want %s", updated.Status, core.StatusSettled)
	}

	found, _ := svc.FindByID(context.Background(), stored.ID)
	if found.Status != core.StatusSettled {
		t.Errorf("persisted status = %s", found.Status)
	}
	last := pub.published[len(pub.published)-1]
	if last.Event != events.EventStatusChanged {
		t.Errorf("last event = %s, want %s", last.Event, events.EventStatusChanged)
	}
}

// Status updates go through the full validator, so a stored entry with a
// broken field blocks even a pure status transition.
func TestUpdateStatusRevalidatesWholeEntry(t *testing.T) {
	svc, _, _, user := newTestLedger(t)

	stored, err := svc.Create(context.Background(), testEntry(user))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stored.Description = "   "
	_, err = svc.UpdateStatus(context.Background(), stored, core.StatusSettled)
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Reason != "Informe uma Descrição válida." {
		t.Errorf("reason = %q", verr.Reason)
	}
}

// Any status is reachable from any other; nothing guards transitions.
func TestUpdateStatusTransitionsAreUnconstrained(t *testing.T) {
	svc, _, _, user := newTestLedger(t)

	stored, err := svc.Create(context.Background(), testEntry(user))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, status := range []core.EntryStatus{
		core.StatusCancelled,
		core.StatusPending, // back out of CANCELADO
		core.StatusSettled,
	} {
		if stored, err = svc.UpdateStatus(context.Background(), stored, status); err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}
}

func TestFindFilters(t *testing.T) {
	svc, store, _, user := newTestLedger(t)
	ctx := context.Background()

	users := NewUserService(store)
	other, err := users.Register(ctx, &core.User{Name: "Outro", Email: "outro@email.com", Password: "x"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	seed := []*core.Entry{
		{Description: "Salário Mensal", Month: 1, Year: 2019, Amount: decimal.NewFromInt(100), Type: core.TypeIncome, User: user},
		{Description: "Aluguel", Month: 1, Year: 2019, Amount: decimal.NewFromInt(30), Type: core.TypeExpense, User: user},
		{Description: "salario extra", Month: 2, Year: 2020, Amount: decimal.NewFromInt(50), Type: core.TypeIncome, User: user},
		{Description: "Salário", Month: 1, Year: 2019, Amount: decimal.NewFromInt(70), Type: core.TypeIncome, User: other},
	}
	for _, e := range seed {
		if _, err := svc.Create(ctx, e); err != nil {
			t.Fatalf("seed create: %v", err)
		}
	}

	cases := []struct {
		name   string
		filter core.EntryFilter
		want   int
	}{
		{"description substring ignores case", core.EntryFilter{Description: "SALARIO EXTRA", UserID: user.ID}, 1},
		{"user scope", core.EntryFilter{UserID: user.ID}, 3},
		{"month and year", core.EntryFilter{Month: 1, Year: 2019, UserID: user.ID}, 2},
		{"type", core.EntryFilter{Type: core.TypeExpense, UserID: user.ID}, 1},
		{"no match", core.EntryFilter{Description: "inexistente", UserID: user.ID}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.Find(ctx, tc.filter)
			if err != nil {
				t.Fatalf("find: %v", err)
			}
			if len(got) != tc.want {
				t.Fatalf("got %d entries, want %d", len(got), tc.want)
			}
		})
	}
}

func TestBalance(t *testing.T) {
	svc, _, _, user := newTestLedger(t)
	ctx := context.Background()

	if balance, err := svc.Balance(ctx, user.ID); err != nil || !balance.IsZero() {
		t.Fatalf("empty ledger balance = %v, %v; want 0, nil", balance, err)
	}

	income := testEntry(user)
	income.Amount = decimal.NewFromInt(100)
	storedIncome, err := svc.Create(ctx, income)
	if err != nil {
		t.Fatalf("create income: %v", err)
	}

	expense := testEntry(user)
	expense.Type = core.TypeExpense
	expense.Amount = decimal.NewFromInt(30)
	storedExpense, err := svc.Create(ctx, expense)
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	// Still pending: nothing counts yet.
	balance, err := svc.Balance(ctx, user.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.IsZero() {
		t.Errorf("pending entries must not count, balance = %s", balance)
	}

	if _, err := svc.UpdateStatus(ctx, storedIncome, core.StatusSettled); err != nil {
		t.Fatalf("settle income: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, storedExpense, core.StatusSettled); err != nil {
		t.Fatalf("settle expense: %v", err)
	}

	balance, err = svc.Balance(ctx, user.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.String() != "70" {
		t.Errorf("balance = %s, want 70", balance)
	}

	// Cancelled entries drop out again.
	if _, err := svc.UpdateStatus(ctx, storedExpense, core.StatusCancelled); err != nil {
		t.Fatalf("cancel expense: %v", err)
	}
	balance, err = svc.Balance(ctx, user.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.String() != "100" {
		t.Errorf("balance = %s, want 100", balance)
	}
}
