// Package storage provides persistence for users and ledger entries.
package storage

import (
	"context"

	"github.com/shopspring/decimal"

	"financas/internal/core"
)

// Store is the persistence boundary of the ledger and user services.
// Lookups for absent rows return (nil, nil); only real failures return
// an error.
type Store interface {
	// users
	CreateUser(ctx context.Context, user *core.User) (*core.User, error)
	FindUserByID(ctx context.Context, id int64) (*core.User, error)
	FindUserByEmail(ctx context.Context, email string) (*core.User, error)
	UserEmailExists(ctx context.Context, email string) (bool, error)

	// ledger entries
	SaveEntry(ctx context.Context, entry *core.Entry) (*core.Entry, error)
	DeleteEntry(ctx context.Context, id int64) error
	FindEntryByID(ctx context.Context, id int64) (*core.Entry, error)
	FindEntries(ctx context.Context, filter core.EntryFilter) ([]core.Entry, error)
	SumEntries(ctx context.Context, userID int64, entryType core.EntryType, status core.EntryStatus) (decimal.Decimal, error)

	// export bookkeeping for the sheets worker
	ListPendingExport(ctx context.Context, limit int) ([]core.Entry, error)
	MarkExported(ctx context.Context, id int64) error

	Close() error
}
