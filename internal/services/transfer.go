package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"buste/internal/amqp"
	"buste/internal/core"
	applog "buste/internal/log"
	"buste/internal/storage"
)

// CreateTransfer moves amount from one account to another as two linked
// ledger entries with opposite signs and no envelope impact. Both legs share
// a transfer group id assigned before either insert, and both are written in
// one store transaction: a failure after the first leg leaves nothing behind.
func (s *LedgerService) CreateTransfer(ctx context.Context, fromAccountID, toAccountID int64, amount core.Money, date time.Time) (string, error) {
	if fromAccountID == toAccountID {
		return "", fmt.Errorf("transfer source and destination must differ: %w", core.ErrInvalidArgument)
	}
	if !amount.IsPositive() {
		return "", fmt.Errorf("transfer amount must be positive: %w", core.ErrInvalidArgument)
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}

	transferID := uuid.NewString()
	err := s.repo.Transact(ctx, func(q *storage.Queries) error {
		from, err := q.GetAccount(ctx, fromAccountID)
		if err != nil {
			return err
		}
		to, err := q.GetAccount(ctx, toAccountID)
		if err != nil {
			return err
		}
		outPayee, inPayee := core.TransferPayees(from.Name, to.Name)

		if _, err := createTransactionInTx(ctx, q, core.NewTransaction{
			AccountID: from.ID,
			Type:      core.Transfer,
			Amount:    amount.Neg(),
			Payee:     outPayee,
			Date:      date,
		}, transferID); err != nil {
			return err
		}

		if s.transferFault != nil {
			if err := s.transferFault(); err != nil {
				return err
			}
		}

		if _, err := createTransactionInTx(ctx, q, core.NewTransaction{
			AccountID: to.ID,
			Type:      core.Transfer,
			Amount:    amount,
			Payee:     inPayee,
			Date:      date,
		}, transferID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("create transfer: %w", err)
	}

	s.logger.InfoContext(ctx, "Transfer created",
		applog.FieldTransferID, transferID,
		"from_account_id", fromAccountID,
		"to_account_id", toAccountID,
		applog.FieldAmountCents, amount.Cents)
	s.publishEvent(ctx, amqp.EventTransferCreated, 0, transferID)
	return transferID, nil
}

// DeleteTransfer removes both legs of a transfer pair atomically, given
// either side's transaction id. A row without a transfer link is NotFound
// here; callers fall back to a plain delete for those.
func (s *LedgerService) DeleteTransfer(ctx context.Context, transactionID int64) error {
	var transferID string
	err := s.repo.Transact(ctx, func(q *storage.Queries) error {
		row, err := q.GetTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		if row.TransferID == "" {
			return fmt.Errorf("transaction %d has no transfer link: %w", transactionID, core.ErrNotFound)
		}
		transferID = row.TransferID

		counterpart, err := q.GetTransferCounterpart(ctx, row.TransferID, row.ID)
		if err != nil {
			return err
		}
		if err := deleteTransactionInTx(ctx, q, row); err != nil {
			return err
		}
		return deleteTransactionInTx(ctx, q, counterpart)
	})
	if err != nil {
		return fmt.Errorf("delete transfer: %w", err)
	}

	s.logger.InfoContext(ctx, "Transfer deleted",
		applog.FieldTransferID, transferID,
		applog.FieldTransactionID, transactionID)
	s.publishEvent(ctx, amqp.EventTransferDeleted, transactionID, transferID)
	return nil
}
