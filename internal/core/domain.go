package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Checking AccountType = "checking"
	Savings  AccountType = "savings"
	Cash     AccountType = "cash"
)

const (
	Expense  TransactionType = "expense"
	Income   TransactionType = "income"
	Transfer TransactionType = "transfer"
)

type (
	AccountType     string
	TransactionType string

	// Account is a pool of real money. Balance is maintained by the ledger
	// service and always equals the sum of the account's transaction amounts.
	Account struct {
		ID        int64
		Name      string
		Type      AccountType
		Balance   Money
		CreatedAt time.Time
	}

	// EnvelopeGroup is a purely organizational bucket of envelopes.
	EnvelopeGroup struct {
		ID        int64
		Name      string
		CreatedAt time.Time
	}

	// Envelope is a spending bucket. Budgeted is the cumulative amount ever
	// assigned into it; Available is the current spendable balance and may go
	// negative (overspending is a tracked state, not an error). Target is
	// zero when no target has been set.
	Envelope struct {
		ID        int64
		GroupID   int64
		Name      string
		Budgeted  Money
		Available Money
		Target    Money
		CreatedAt time.Time
	}

	// Transaction is an atomic ledger entry. Amount is signed: negative is
	// an outflow from the account, positive an inflow. CategoryID is zero
	// for income and for both legs of a transfer. TransferID is the opaque
	// group id shared by the two legs of a transfer, empty otherwise.
	Transaction struct {
		ID         int64
		AccountID  int64
		CategoryID int64
		Type       TransactionType
		TransferID string
		Amount     Money
		Payee      string
		Date       time.Time
		Notes      string
		CreatedAt  time.Time
	}

	// NewTransaction carries the caller-supplied mutable fields of a ledger
	// entry, used both for creation and for full-replacement updates.
	NewTransaction struct {
		AccountID  int64
		CategoryID int64
		Type       TransactionType
		Amount     Money
		Payee      string
		Date       time.Time
		Notes      string
	}
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConstraint      = errors.New("constraint violation")

	ErrEmptyName              = errors.New("empty name")
	ErrEmptyPayee             = errors.New("empty payee")
	ErrInvalidAccountType     = errors.New("invalid account type")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrZeroDate               = errors.New("date cannot be zero")
)

func (t AccountType) Valid() bool {
	switch t {
	case Checking, Savings, Cash:
		return true
	}
	return false
}

func (t TransactionType) Valid() bool {
	switch t {
	case Expense, Income, Transfer:
		return true
	}
	return false
}

func (tx NewTransaction) Validate() error {
	if tx.AccountID <= 0 {
		return errors.New("missing account")
	}
	if !tx.Type.Valid() {
		return ErrInvalidTransactionType
	}
	if len(strings.TrimSpace(tx.Payee)) == 0 {
		return ErrEmptyPayee
	}
	if len(tx.Payee) > 200 {
		return errors.New("payee too long (max 200 characters)")
	}
	if tx.Date.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// TransferPayees derives the display payees for the two legs of a transfer
// between the named accounts.
func TransferPayees(fromName, toName string) (outflow, inflow string) {
	return "Transfer to " + toName, "Transfer from " + fromName
}
