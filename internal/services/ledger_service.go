// Package services implements the ledger consistency engine: every effect a
// transaction has on account balances and envelope availability is applied
// or reversed here, inside one store transaction per operation.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"buste/internal/amqp"
	"buste/internal/core"
	applog "buste/internal/log"
	"buste/internal/storage"
)

// LedgerService is the single authority for transaction mutations. Every
// write propagates to the owning account's balance and, for categorized
// non-transfers, to the envelope's available, inside one store transaction.
type LedgerService struct {
	repo   *storage.Repository
	events *amqp.Client // nil when eventing is disabled
	logger *applog.Logger

	// transferFault, when set, runs between the two legs of a transfer;
	// tests use it to force a mid-operation failure.
	transferFault func() error
}

func NewLedgerService(repo *storage.Repository, events *amqp.Client) *LedgerService {
	return &LedgerService{
		repo:   repo,
		events: events,
		logger: applog.Component(applog.ComponentLedger),
	}
}

// CreateTransaction persists a ledger entry and propagates its amount into
// the account balance and, for a categorized non-transfer, the envelope's
// available. Negative resulting balances are valid steady states.
func (s *LedgerService) CreateTransaction(ctx context.Context, draft core.NewTransaction) (int64, error) {
	if err := draft.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrInvalidArgument, err)
	}

	var id int64
	err := s.repo.Transact(ctx, func(q *storage.Queries) error {
		var err error
		id, err = createTransactionInTx(ctx, q, draft, "")
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction created",
		applog.FieldTransactionID, id,
		applog.FieldAccountID, draft.AccountID,
		applog.FieldAmountCents, draft.Amount.Cents,
		"type", string(draft.Type))
	s.publishEvent(ctx, amqp.EventTransactionCreated, id, "")
	return id, nil
}

// UpdateTransaction replaces the mutable fields of an existing entry. The
// old row's effect is reversed and the new fields applied fresh, against a
// single snapshot of the old values, so any combination of changed fields
// (amount, account, envelope, type) nets out correctly. Transfer legs are
// immutable: delete and recreate instead.
func (s *LedgerService) UpdateTransaction(ctx context.Context, id int64, draft core.NewTransaction) error {
	if err := draft.Validate(); err != nil {
		return fmt.Errorf("%w: %w", core.ErrInvalidArgument, err)
	}
	if draft.Type == core.Transfer {
		return fmt.Errorf("cannot change a transaction into a transfer: %w", core.ErrConstraint)
	}

	err := s.repo.Transact(ctx, func(q *storage.Queries) error {
		old, err := q.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if old.Type == core.Transfer || old.TransferID != "" {
			return fmt.Errorf("transfer legs are immutable: %w", core.ErrConstraint)
		}

		if err := revertTransactionInTx(ctx, q, old); err != nil {
			return err
		}

		if _, err := q.GetAccount(ctx, draft.AccountID); err != nil {
			return err
		}
		if draft.CategoryID > 0 {
			if _, err := q.GetEnvelope(ctx, draft.CategoryID); err != nil {
				return err
			}
		}

		if err := q.UpdateTransactionRow(ctx, storage.UpdateTransactionParams{
			ID:         id,
			AccountID:  draft.AccountID,
			CategoryID: draft.CategoryID,
			Type:       draft.Type,
			Amount:     draft.Amount,
			Payee:      draft.Payee,
			Date:       draft.Date,
			Notes:      draft.Notes,
		}); err != nil {
			return err
		}

		return applyAmountInTx(ctx, q, draft.AccountID, draft.CategoryID, draft.Type, draft.Amount)
	})
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction updated", applog.FieldTransactionID, id)
	s.publishEvent(ctx, amqp.EventTransactionUpdated, id, "")
	return nil
}

// DeleteTransaction reverses the entry's effect and removes the row. When
// the row is a transfer leg, the linked counterpart is removed the same way
// in the same store transaction.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	var transferID string
	err := s.repo.Transact(ctx, func(q *storage.Queries) error {
		row, err := q.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		transferID = row.TransferID

		if err := deleteTransactionInTx(ctx, q, row); err != nil {
			return err
		}

		if row.TransferID == "" {
			return nil
		}
		counterpart, err := q.GetTransferCounterpart(ctx, row.TransferID, row.ID)
		if errors.Is(err, core.ErrNotFound) {
			// Tolerate a single-sided pair left behind by imported data.
			return nil
		}
		if err != nil {
			return err
		}
		return deleteTransactionInTx(ctx, q, counterpart)
	})
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction deleted",
		applog.FieldTransactionID, id,
		applog.FieldTransferID, transferID)
	s.publishEvent(ctx, amqp.EventTransactionDeleted, id, transferID)
	return nil
}

// createTransactionInTx inserts the row and applies its amount to the
// maintained aggregates. Referenced rows are checked first so a dangling id
// surfaces as NotFound rather than a driver constraint error.
func createTransactionInTx(ctx context.Context, q *storage.Queries, draft core.NewTransaction, transferID string) (int64, error) {
	if _, err := q.GetAccount(ctx, draft.AccountID); err != nil {
		return 0, err
	}
	if draft.CategoryID > 0 {
		if _, err := q.GetEnvelope(ctx, draft.CategoryID); err != nil {
			return 0, err
		}
	}

	id, err := q.CreateTransaction(ctx, storage.CreateTransactionParams{
		AccountID:  draft.AccountID,
		CategoryID: draft.CategoryID,
		Type:       draft.Type,
		TransferID: transferID,
		Amount:     draft.Amount,
		Payee:      draft.Payee,
		Date:       draft.Date,
		Notes:      draft.Notes,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return 0, err
	}

	if err := applyAmountInTx(ctx, q, draft.AccountID, draft.CategoryID, draft.Type, draft.Amount); err != nil {
		return 0, err
	}
	return id, nil
}

// applyAmountInTx adds a signed amount to the account balance and, for a
// categorized non-transfer, the envelope's available. Budgeted is never
// touched here; only assignment moves it.
func applyAmountInTx(ctx context.Context, q *storage.Queries, accountID, categoryID int64, typ core.TransactionType, amount core.Money) error {
	if err := q.AddToAccountBalance(ctx, accountID, amount.Cents); err != nil {
		return err
	}
	if typ != core.Transfer && categoryID > 0 {
		if err := q.AddToEnvelopeAvailable(ctx, categoryID, amount.Cents); err != nil {
			return err
		}
	}
	return nil
}

// revertTransactionInTx subtracts a persisted row's effect, the exact
// inverse of applyAmountInTx.
func revertTransactionInTx(ctx context.Context, q *storage.Queries, row core.Transaction) error {
	return applyAmountInTx(ctx, q, row.AccountID, row.CategoryID, row.Type, row.Amount.Neg())
}

func deleteTransactionInTx(ctx context.Context, q *storage.Queries, row core.Transaction) error {
	if err := revertTransactionInTx(ctx, q, row); err != nil {
		return err
	}
	return q.DeleteTransactionRow(ctx, row.ID)
}

// publishEvent notifies downstream consumers after a successful commit.
// Publish failures are logged, never surfaced: the ledger is the source of
// truth and the export pipeline catches up on its own.
func (s *LedgerService) publishEvent(ctx context.Context, event string, txID int64, transferID string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLedgerEvent(ctx, event, txID, transferID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger event",
			"event", event,
			applog.FieldTransactionID, txID,
			applog.FieldError, err)
	}
}
