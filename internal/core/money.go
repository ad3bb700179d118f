// Package core holds the budget domain: accounts, envelope groups, envelopes
// and transactions, along with money parsing and derived-summary types.
package core

import (
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money is a signed currency amount in integer cents. All arithmetic on the
// ledger happens in cents; floats never enter the data path.
type Money struct {
	Cents int64
}

// ParseMoney converts a signed decimal string to Money with half-up rounding
// past the second decimal place. Both dot (12.34) and comma (12,34) decimal
// separators are accepted.
//
// Examples:
//
//	ParseMoney("12.34")  -> 1234 cents
//	ParseMoney("-12,34") -> -1234 cents
//	ParseMoney("12.345") -> 1235 cents (rounds half up)
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0).BigInt()
	if !cents.IsInt64() {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.Int64()}, nil
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Neg returns the amount with its sign flipped.
func (m Money) Neg() Money {
	return Money{Cents: -m.Cents}
}

func (m Money) IsZero() bool     { return m.Cents == 0 }
func (m Money) IsNegative() bool { return m.Cents < 0 }
func (m Money) IsPositive() bool { return m.Cents > 0 }

// Display renders the amount for presentation, e.g. "-$12.34". The ledger is
// single-currency; USD formatting matches the source of record.
func (m Money) Display() string {
	return gomoney.New(m.Cents, gomoney.USD).Display()
}

// String renders the amount as a plain decimal, e.g. "-12.34".
func (m Money) String() string {
	return decimal.New(m.Cents, -2).StringFixed(2)
}
