package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"buste/internal/core"
	applog "buste/internal/log"
	"buste/internal/storage"
)

// BudgetService covers the boundary operations around the mutation engine:
// accounts, envelope groups and envelopes, assignment of funds, and the
// derived summary. Anything that touches transaction amounts goes through
// the LedgerService so the propagation algebra lives in exactly one place.
type BudgetService struct {
	repo   *storage.Repository
	ledger *LedgerService
	logger *applog.Logger
}

func NewBudgetService(repo *storage.Repository, ledger *LedgerService) *BudgetService {
	return &BudgetService{
		repo:   repo,
		ledger: ledger,
		logger: applog.Component(applog.ComponentBudget),
	}
}

// EnvelopeGroupView is a group joined with its envelopes for display.
type EnvelopeGroupView struct {
	core.EnvelopeGroup
	Envelopes []core.Envelope
}

// CreateAccount creates an account and, when the opening balance is not
// zero, a "Starting Balance" transaction in the same store transaction, so
// the balance always equals the sum of the account's transactions.
func (s *BudgetService) CreateAccount(ctx context.Context, name string, typ core.AccountType, opening core.Money) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: %w", core.ErrInvalidArgument, core.ErrEmptyName)
	}
	if !typ.Valid() {
		return 0, fmt.Errorf("%w: %w %q", core.ErrInvalidArgument, core.ErrInvalidAccountType, typ)
	}

	var id int64
	err := s.repo.Transact(ctx, func(q *storage.Queries) error {
		var err error
		id, err = q.CreateAccount(ctx, storage.CreateAccountParams{
			Name:      name,
			Type:      typ,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		if opening.IsZero() {
			return nil
		}
		_, err = createTransactionInTx(ctx, q, core.NewTransaction{
			AccountID: id,
			Type:      typeForSign(opening),
			Amount:    opening,
			Payee:     "Starting Balance",
			Date:      time.Now().UTC(),
		}, "")
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("create account: %w", err)
	}

	s.logger.InfoContext(ctx, "Account created",
		applog.FieldAccountID, id,
		"name", name,
		"type", string(typ),
		"opening_cents", opening.Cents)
	return id, nil
}

func (s *BudgetService) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	return s.repo.Queries().GetAccount(ctx, id)
}

func (s *BudgetService) ListAccounts(ctx context.Context) ([]core.Account, error) {
	return s.repo.Queries().ListAccounts(ctx)
}

// Reconcile adjusts an account to match an external balance by creating a
// "Balance Adjustment" transaction of the difference. Returns the created
// transaction id, or zero when the account already matched.
func (s *BudgetService) Reconcile(ctx context.Context, accountID int64, target core.Money) (int64, error) {
	var id int64
	err := s.repo.Transact(ctx, func(q *storage.Queries) error {
		account, err := q.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		diff := target.Add(account.Balance.Neg())
		if diff.IsZero() {
			return nil
		}
		id, err = createTransactionInTx(ctx, q, core.NewTransaction{
			AccountID: accountID,
			Type:      typeForSign(diff),
			Amount:    diff,
			Payee:     "Balance Adjustment",
			Date:      time.Now().UTC(),
		}, "")
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("reconcile account: %w", err)
	}

	if id != 0 {
		s.logger.InfoContext(ctx, "Account reconciled",
			applog.FieldAccountID, accountID,
			"target_cents", target.Cents,
			applog.FieldTransactionID, id)
	}
	return id, nil
}

// CreateEnvelope creates an envelope in the given group. The group is
// resolved by id when groupID is set, otherwise by name, creating the group
// when no group with that name exists yet.
func (s *BudgetService) CreateEnvelope(ctx context.Context, groupID int64, groupName, name string, target core.Money) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: %w", core.ErrInvalidArgument, core.ErrEmptyName)
	}

	var id int64
	err := s.repo.Transact(ctx, func(q *storage.Queries) error {
		gid := groupID
		if gid > 0 {
			if _, err := q.GetEnvelopeGroup(ctx, gid); err != nil {
				return err
			}
		} else {
			groupName = strings.TrimSpace(groupName)
			if groupName == "" {
				return fmt.Errorf("%w: group %w", core.ErrInvalidArgument, core.ErrEmptyName)
			}
			group, err := q.GetEnvelopeGroupByName(ctx, groupName)
			switch {
			case err == nil:
				gid = group.ID
			case errors.Is(err, core.ErrNotFound):
				gid, err = q.CreateEnvelopeGroup(ctx, groupName, time.Now().UTC())
				if err != nil {
					return err
				}
			default:
				return err
			}
		}

		var err error
		id, err = q.CreateEnvelope(ctx, storage.CreateEnvelopeParams{
			GroupID:   gid,
			Name:      name,
			Target:    target,
			CreatedAt: time.Now().UTC(),
		})
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("create envelope: %w", err)
	}

	s.logger.InfoContext(ctx, "Envelope created", applog.FieldEnvelopeID, id, "name", name)
	return id, nil
}

func (s *BudgetService) UpdateEnvelope(ctx context.Context, id int64, name string, target core.Money) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: %w", core.ErrInvalidArgument, core.ErrEmptyName)
	}
	if err := s.repo.Queries().UpdateEnvelopeMeta(ctx, id, name, target); err != nil {
		return fmt.Errorf("update envelope: %w", err)
	}
	return nil
}

// DeleteEnvelope removes the envelope. Transactions that referenced it keep
// their rows with the category cleared, so account balances are untouched;
// the envelope's available simply leaves the budget.
func (s *BudgetService) DeleteEnvelope(ctx context.Context, id int64) error {
	if err := s.repo.Queries().DeleteEnvelope(ctx, id); err != nil {
		return fmt.Errorf("delete envelope: %w", err)
	}
	s.logger.InfoContext(ctx, "Envelope deleted", applog.FieldEnvelopeID, id)
	return nil
}

// ListGrouped returns every group with its envelopes, the shape the budget
// screen renders. Both lists are read inside one transaction so an envelope
// committed together with its group is never seen without it.
func (s *BudgetService) ListGrouped(ctx context.Context) ([]EnvelopeGroupView, error) {
	var groups []core.EnvelopeGroup
	var envelopes []core.Envelope
	err := s.repo.Transact(ctx, func(q *storage.Queries) error {
		var err error
		if groups, err = q.ListEnvelopeGroups(ctx); err != nil {
			return err
		}
		envelopes, err = q.ListEnvelopes(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list grouped envelopes: %w", err)
	}

	views := make([]EnvelopeGroupView, len(groups))
	byGroup := make(map[int64]int, len(groups))
	for i, g := range groups {
		views[i] = EnvelopeGroupView{EnvelopeGroup: g}
		byGroup[g.ID] = i
	}
	for _, e := range envelopes {
		if i, ok := byGroup[e.GroupID]; ok {
			views[i].Envelopes = append(views[i].Envelopes, e)
		}
	}
	return views, nil
}

// Assign moves delta between the unassigned pool and an envelope: both
// budgeted and available change by delta. No bound against ready-to-assign
// is enforced; an overcommitted budget is a visible state, not an error.
func (s *BudgetService) Assign(ctx context.Context, envelopeID int64, delta core.Money) error {
	err := s.repo.Transact(ctx, func(q *storage.Queries) error {
		if _, err := q.GetEnvelope(ctx, envelopeID); err != nil {
			return err
		}
		return q.AssignToEnvelope(ctx, envelopeID, delta.Cents)
	})
	if err != nil {
		return fmt.Errorf("assign to envelope: %w", err)
	}

	s.logger.InfoContext(ctx, "Money assigned", applog.FieldEnvelopeID, envelopeID, "delta_cents", delta.Cents)
	return nil
}

// ReleaseToRTA returns an envelope's entire available balance to the
// unassigned pool. A no-op when available is zero or negative; the released
// amount is reported either way.
func (s *BudgetService) ReleaseToRTA(ctx context.Context, envelopeID int64) (core.Money, error) {
	var released core.Money
	err := s.repo.Transact(ctx, func(q *storage.Queries) error {
		envelope, err := q.GetEnvelope(ctx, envelopeID)
		if err != nil {
			return err
		}
		if !envelope.Available.IsPositive() {
			return nil
		}
		released = envelope.Available
		return q.AssignToEnvelope(ctx, envelopeID, -envelope.Available.Cents)
	})
	if err != nil {
		return core.Money{}, fmt.Errorf("release envelope: %w", err)
	}

	if !released.IsZero() {
		s.logger.InfoContext(ctx, "Envelope released", applog.FieldEnvelopeID, envelopeID, "released_cents", released.Cents)
	}
	return released, nil
}

// MoveBetweenEnvelopes shifts amount from one envelope to another as two
// assignments in a single store transaction.
func (s *BudgetService) MoveBetweenEnvelopes(ctx context.Context, fromID, toID int64, amount core.Money) error {
	if fromID == toID {
		return fmt.Errorf("source and destination envelope must differ: %w", core.ErrInvalidArgument)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("move amount must be positive: %w", core.ErrInvalidArgument)
	}

	err := s.repo.Transact(ctx, func(q *storage.Queries) error {
		if _, err := q.GetEnvelope(ctx, fromID); err != nil {
			return err
		}
		if _, err := q.GetEnvelope(ctx, toID); err != nil {
			return err
		}
		if err := q.AssignToEnvelope(ctx, fromID, -amount.Cents); err != nil {
			return err
		}
		return q.AssignToEnvelope(ctx, toID, amount.Cents)
	})
	if err != nil {
		return fmt.Errorf("move between envelopes: %w", err)
	}

	s.logger.InfoContext(ctx, "Money moved between envelopes",
		"from_envelope_id", fromID,
		"to_envelope_id", toID,
		applog.FieldAmountCents, amount.Cents)
	return nil
}

// GetSummary recomputes the derived totals from the current store contents.
func (s *BudgetService) GetSummary(ctx context.Context) (core.Summary, error) {
	return s.repo.Queries().GetSummary(ctx)
}

// ListTransactions returns transactions joined with account and envelope
// names, newest first, optionally filtered.
func (s *BudgetService) ListTransactions(ctx context.Context, filter storage.TransactionFilter) ([]core.TransactionView, error) {
	return s.repo.Queries().ListTransactionViews(ctx, filter)
}

// typeForSign picks the conventional transaction type for a signed amount,
// used for synthetic entries (opening balances, reconciliation adjustments).
func typeForSign(amount core.Money) core.TransactionType {
	if amount.IsNegative() {
		return core.Expense
	}
	return core.Income
}
