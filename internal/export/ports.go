// Package export defines the boundary for shipping committed ledger rows to
// an external journal.
package export

import (
	"context"
	"time"
)

// LedgerRow is a flattened, display-ready ledger entry.
type LedgerRow struct {
	TransactionID int64
	Date          time.Time
	Payee         string
	Account       string
	Envelope      string
	Type          string
	AmountCents   int64
}

// RowAppender appends a row to the external journal and returns an opaque
// reference to where it landed.
type RowAppender interface {
	AppendRow(ctx context.Context, row LedgerRow) (string, error)
}
