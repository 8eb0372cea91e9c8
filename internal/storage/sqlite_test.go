package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"financas/internal/core"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "financas_test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func createTestUser(t *testing.T, store *SQLiteStore) *core.User {
	t.Helper()
	user, err := store.CreateUser(context.Background(), &core.User{
		Name:     "Maria",
		Email:    "maria@example.com",
		Password: "segredo",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("NewFromString(%q): %v", s, err)
	}
	return d
}

func TestSQLiteUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created := createTestUser(t, store)
	if created.ID == 0 {
		t.Fatal("no id assigned")
	}

	byID, err := store.FindUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindUserByID: %v", err)
	}
	if byID == nil || byID.Email != "maria@example.com" {
		t.Errorf("FindUserByID = %+v", byID)
	}

	byEmail, err := store.FindUserByEmail(ctx, "maria@example.com")
	if err != nil {
		t.Fatalf("FindUserByEmail: %v", err)
	}
	if byEmail == nil || byEmail.ID != created.ID {
		t.Errorf("FindUserByEmail = %+v", byEmail)
	}

	missing, err := store.FindUserByEmail(ctx, "ninguem@example.com")
	if err != nil {
		t.Fatalf("FindUserByEmail missing: %v", err)
	}
	if missing != nil {
		t.Errorf("missing user = %+v, want nil", missing)
	}

	exists, err := store.UserEmailExists(ctx, "maria@example.com")
	if err != nil {
		t.Fatalf("UserEmailExists: %v", err)
	}
	if !exists {
		t.Error("UserEmailExists = false for existing email")
	}
	exists, err = store.UserEmailExists(ctx, "ninguem@example.com")
	if err != nil {
		t.Fatalf("UserEmailExists missing: %v", err)
	}
	if exists {
		t.Error("UserEmailExists = true for unknown email")
	}
}

func TestSQLiteSaveAndFindEntry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, store)

	registered := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	saved, err := store.SaveEntry(ctx, &core.Entry{
		Description:  "Salário",
		Month:        3,
		Year:         2026,
		Amount:       mustDecimal(t, "2500.50"),
		Type:         core.TypeIncome,
		Status:       core.StatusPending,
		RegisteredAt: registered,
		User:         user,
	})
	if err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}
	if saved.ID == 0 {
		t.Fatal("no id assigned")
	}

	found, err := store.FindEntryByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("FindEntryByID: %v", err)
	}
	if found == nil {
		t.Fatal("entry not found after save")
	}
	if found.Description != "Salário" || found.Month != 3 || found.Year != 2026 {
		t.Errorf("unexpected entry: %+v", found)
	}
	if !found.Amount.Equal(mustDecimal(t, "2500.50")) {
		t.Errorf("amount = %s, want 2500.50", found.Amount)
	}
	if !found.RegisteredAt.Equal(registered) {
		t.Errorf("registered at = %v, want %v", found.RegisteredAt, registered)
	}
	if found.User == nil || found.User.ID != user.ID {
		t.Errorf("owner = %+v, want id %d", found.User, user.ID)
	}

	missing, err := store.FindEntryByID(ctx, 999)
	if err != nil {
		t.Fatalf("FindEntryByID missing: %v", err)
	}
	if missing != nil {
		t.Errorf("missing entry = %+v, want nil", missing)
	}
}

func TestSQLiteUpdateEntryResetsExport(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, store)

	saved, err := store.SaveEntry(ctx, &core.Entry{
		Description: "Aluguel", Month: 1, Year: 2026,
		Amount: mustDecimal(t, "1200"), Type: core.TypeExpense,
		Status: core.StatusSettled, User: user,
	})
	if err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}

	if err := store.MarkExported(ctx, saved.ID); err != nil {
		t.Fatalf("MarkExported: %v", err)
	}
	pending, err := store.ListPendingExport(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingExport: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending after export = %d, want 0", len(pending))
	}

	saved.Amount = mustDecimal(t, "1300")
	if _, err := store.SaveEntry(ctx, saved); err != nil {
		t.Fatalf("update entry: %v", err)
	}

	// an updated row must be exported again
	pending, err = store.ListPendingExport(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingExport after update: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending after update = %d, want 1", len(pending))
	}
	if !pending[0].Amount.Equal(mustDecimal(t, "1300")) {
		t.Errorf("pending amount = %s, want 1300", pending[0].Amount)
	}
}

func TestSQLiteFindEntriesFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, store)

	seed := func(desc string, month int, typ core.EntryType, status core.EntryStatus) {
		t.Helper()
		_, err := store.SaveEntry(ctx, &core.Entry{
			Description: desc, Month: month, Year: 2026,
			Amount: mustDecimal(t, "10"), Type: typ, Status: status, User: user,
		})
		if err != nil {
			t.Fatalf("SaveEntry: %v", err)
		}
	}
	seed("Salário", 1, core.TypeIncome, core.StatusSettled)
	seed("Aluguel", 1, core.TypeExpense, core.StatusPending)
	seed("Aluguel atrasado", 2, core.TypeExpense, core.StatusPending)

	tests := []struct {
		name   string
		filter core.EntryFilter
		want   int
	}{
		{"owner only", core.EntryFilter{UserID: user.ID}, 3},
		{"month", core.EntryFilter{UserID: user.ID, Month: 1}, 2},
		{"description substring", core.EntryFilter{UserID: user.ID, Description: "alu"}, 2},
		{"type", core.EntryFilter{UserID: user.ID, Type: core.TypeIncome}, 1},
		{"status", core.EntryFilter{UserID: user.ID, Status: core.StatusPending}, 2},
		{"combined", core.EntryFilter{UserID: user.ID, Description: "ALUGUEL", Month: 2}, 1},
		{"no match", core.EntryFilter{UserID: user.ID, Month: 12}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.FindEntries(ctx, tt.filter)
			if err != nil {
				t.Fatalf("FindEntries: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("found %d entries, want %d", len(got), tt.want)
			}
		})
	}
}

func TestSQLiteSumEntries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, store)

	seed := func(amount string, typ core.EntryType, status core.EntryStatus) {
		t.Helper()
		_, err := store.SaveEntry(ctx, &core.Entry{
			Description: "mov", Month: 1, Year: 2026,
			Amount: mustDecimal(t, amount), Type: typ, Status: status, User: user,
		})
		if err != nil {
			t.Fatalf("SaveEntry: %v", err)
		}
	}
	seed("0.10", core.TypeIncome, core.StatusSettled)
	seed("0.20", core.TypeIncome, core.StatusSettled)
	seed("99", core.TypeIncome, core.StatusPending)
	seed("5", core.TypeExpense, core.StatusSettled)

	sum, err := store.SumEntries(ctx, user.ID, core.TypeIncome, core.StatusSettled)
	if err != nil {
		t.Fatalf("SumEntries: %v", err)
	}
	// 0.1+0.2 must be exact, not 0.30000000000000004
	if !sum.Equal(mustDecimal(t, "0.3")) {
		t.Errorf("settled income = %s, want 0.3", sum)
	}

	sum, err = store.SumEntries(ctx, user.ID, core.TypeExpense, core.StatusCancelled)
	if err != nil {
		t.Fatalf("SumEntries empty: %v", err)
	}
	if !sum.IsZero() {
		t.Errorf("empty aggregate = %s, want 0", sum)
	}
}

func TestSQLiteDeleteEntry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, store)

	saved, err := store.SaveEntry(ctx, &core.Entry{
		Description: "Aluguel", Month: 1, Year: 2026,
		Amount: mustDecimal(t, "1200"), Type: core.TypeExpense,
		Status: core.StatusPending, User: user,
	})
	if err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}

	if err := store.DeleteEntry(ctx, saved.ID); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	found, err := store.FindEntryByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("FindEntryByID: %v", err)
	}
	if found != nil {
		t.Errorf("entry still present after delete: %+v", found)
	}
}
