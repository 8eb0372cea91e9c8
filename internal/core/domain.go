package core

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeIncome  EntryType = "RECEITA"
	TypeExpense EntryType = "DESPESA"
)

const (
	StatusPending   EntryStatus = "PENDENTE"
	StatusSettled   EntryStatus = "EFETIVADO"
	StatusCancelled EntryStatus = "CANCELADO"
)

type (
	EntryType   string
	EntryStatus string

	User struct {
		ID       int64
		Name     string
		Email    string
		Password string
	}

	// Entry is a single ledger record (a "lançamento"): one income or
	// expense line owned by a user. ID is zero until persisted.
	Entry struct {
		ID           int64
		Description  string
		Month        int
		Year         int
		Amount       decimal.Decimal
		Type         EntryType
		Status       EntryStatus
		RegisteredAt time.Time
		User         *User
	}

	// EntryFilter names each optional search criterion explicitly.
	// Zero values mean "not set". Description matches as a
	// case-insensitive substring; the rest match exactly. UserID scopes
	// the search to one owner.
	EntryFilter struct {
		Description string
		Month       int
		Year        int
		Type        EntryType
		Status      EntryStatus
		UserID      int64
	}
)

// ValidationError reports a violated business rule. Reason is part of the
// observable contract: callers and tests match on the exact text.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// AuthError reports a failed credential check. Kept distinct from
// ValidationError so the transport layer can map them separately.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return e.Reason }

// ErrEntryIDRequired is a caller bug, not user input: update and delete
// demand an already-persisted entry.
var ErrEntryIDRequired = errors.New("entry id is required")

// ParseEntryType returns the entry type matching s, or an error for any
// other text.
func ParseEntryType(s string) (EntryType, error) {
	switch EntryType(s) {
	case TypeIncome, TypeExpense:
		return EntryType(s), nil
	}
	return "", &ValidationError{Reason: "Tipo inválido."}
}

// ParseEntryStatus returns the entry status matching s, or an error for
// any other text.
func ParseEntryStatus(s string) (EntryStatus, error) {
	switch EntryStatus(s) {
	case StatusPending, StatusSettled, StatusCancelled:
		return EntryStatus(s), nil
	}
	return "", &ValidationError{Reason: "Status inválido."}
}

// entryChecks run in a fixed order and short-circuit on the first failure,
// so multi-violation entries always report the earliest message. The order
// and the texts are load-bearing: clients match on them.
var entryChecks = []struct {
	ok  func(e Entry) bool
	msg string
}{
	{
		ok:  func(e Entry) bool { return strings.TrimSpace(e.Description) != "" },
		msg: "Informe uma Descrição válida.",
	},
	{
		ok:  func(e Entry) bool { return e.Month >= 1 && e.Month <= 12 },
		msg: "Informe um Mês válido de 1 a 12.",
	},
	{
		// four digits in decimal form, same rule the year has always had
		ok:  func(e Entry) bool { return len(strconv.Itoa(e.Year)) == 4 },
		msg: "Informe um Ano válido.",
	},
	{
		ok:  func(e Entry) bool { return e.User != nil && e.User.ID != 0 },
		msg: "Informe um Usuário para registro do lançamento.",
	},
	{
		ok:  func(e Entry) bool { return e.Amount.Cmp(decimal.Zero) >= 1 },
		msg: "Informe um Valor válido.",
	},
	{
		ok:  func(e Entry) bool { return e.Type != "" },
		msg: "Informe um Tipo de lançamento.",
	},
}

func (e Entry) Validate() error {
	for _, c := range entryChecks {
		if !c.ok(e) {
			return &ValidationError{Reason: c.msg}
		}
	}
	return nil
}
