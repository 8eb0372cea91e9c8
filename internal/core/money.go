// Package core holds the domain model: ledger entries, users, validation
// and amount parsing.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount rejects amounts that fail to parse.
var ErrInvalidAmount = &ValidationError{Reason: "Informe um Valor válido."}

// ParseAmount converts a decimal string to an amount.
//
// It accepts both dot (12.34) and comma (12,34) separators. Only syntax is
// checked here; zero and negative values parse fine so Entry.Validate can
// report rule violations in its fixed order.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("abc")   -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
