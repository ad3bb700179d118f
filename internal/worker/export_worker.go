// Package worker ships committed ledger entries to the external journal,
// driven by post-commit events from the API server.
package worker

import (
	"context"
	"errors"
	"fmt"

	"buste/internal/amqp"
	"buste/internal/core"
	"buste/internal/export"
	applog "buste/internal/log"
	"buste/internal/storage"
)

// ExportWorker consumes ledger events and appends the referenced rows to
// the journal. The journal is best-effort and append-only: deletions in the
// ledger are logged, not propagated.
type ExportWorker struct {
	repo     *storage.Repository
	appender export.RowAppender
	client   *amqp.Client
	logger   *applog.Logger
}

func NewExportWorker(repo *storage.Repository, appender export.RowAppender, client *amqp.Client) *ExportWorker {
	return &ExportWorker{
		repo:     repo,
		appender: appender,
		client:   client,
		logger:   applog.Component(applog.ComponentWorker),
	}
}

// Run consumes events until the context is canceled.
func (w *ExportWorker) Run(ctx context.Context) error {
	deliveries, err := w.client.Consume()
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	w.logger.InfoContext(ctx, "Export worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Export worker stopping")
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			if err := w.handleDelivery(ctx, d.Body); err != nil {
				w.logger.ErrorContext(ctx, "Failed to handle ledger event", applog.FieldError, err)
				if nackErr := d.Nack(false, false); nackErr != nil {
					w.logger.ErrorContext(ctx, "Failed to nack delivery", applog.FieldError, nackErr)
				}
				continue
			}
			if err := d.Ack(false); err != nil {
				w.logger.ErrorContext(ctx, "Failed to ack delivery", applog.FieldError, err)
			}
		}
	}
}

func (w *ExportWorker) handleDelivery(ctx context.Context, body []byte) error {
	msg, err := amqp.LedgerEventMessageFromJSON(body)
	if err != nil {
		return fmt.Errorf("parse ledger event: %w", err)
	}

	switch msg.Event {
	case amqp.EventTransactionCreated, amqp.EventTransactionUpdated:
		return w.exportTransaction(ctx, msg.TransactionID)
	case amqp.EventTransferCreated:
		return w.exportTransfer(ctx, msg.TransferID)
	case amqp.EventTransactionDeleted, amqp.EventTransferDeleted:
		// Append-only journal: deletions stay in the ledger only.
		w.logger.InfoContext(ctx, "Skipping deletion event",
			"event", msg.Event,
			applog.FieldTransactionID, msg.TransactionID)
		return nil
	default:
		w.logger.WarnContext(ctx, "Unknown ledger event", "event", msg.Event)
		return nil
	}
}

func (w *ExportWorker) exportTransaction(ctx context.Context, id int64) error {
	q := w.repo.Queries()
	tx, err := q.GetTransaction(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		// Row already deleted again; nothing to journal.
		w.logger.InfoContext(ctx, "Transaction gone before export", applog.FieldTransactionID, id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}
	return w.appendRow(ctx, q, tx)
}

// exportTransfer journals both legs of a transfer pair.
func (w *ExportWorker) exportTransfer(ctx context.Context, transferID string) error {
	q := w.repo.Queries()
	legs, err := q.ListTransactionsByTransferID(ctx, transferID)
	if err != nil {
		return fmt.Errorf("load transfer legs: %w", err)
	}
	for _, leg := range legs {
		if err := w.appendRow(ctx, q, leg); err != nil {
			return err
		}
	}
	return nil
}

func (w *ExportWorker) appendRow(ctx context.Context, q *storage.Queries, tx core.Transaction) error {
	account, err := q.GetAccount(ctx, tx.AccountID)
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}
	envelopeName := ""
	if tx.CategoryID > 0 {
		envelope, err := q.GetEnvelope(ctx, tx.CategoryID)
		if err == nil {
			envelopeName = envelope.Name
		} else if !errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("load envelope: %w", err)
		}
	}

	ref, err := w.appender.AppendRow(ctx, export.LedgerRow{
		TransactionID: tx.ID,
		Date:          tx.Date,
		Payee:         tx.Payee,
		Account:       account.Name,
		Envelope:      envelopeName,
		Type:          string(tx.Type),
		AmountCents:   tx.Amount.Cents,
	})
	if err != nil {
		return fmt.Errorf("append to journal: %w", err)
	}

	w.logger.InfoContext(ctx, "Transaction exported",
		applog.FieldTransactionID, tx.ID,
		applog.FieldJournalRef, ref,
		applog.FieldAmountCents, tx.Amount.Cents)
	return nil
}
