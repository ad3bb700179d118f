package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"buste/internal/core"
	"buste/internal/storage"
)

// testBudget wires the full service stack over a throwaway database, with
// eventing disabled.
type testBudget struct {
	repo   *storage.Repository
	ledger *LedgerService
	budget *BudgetService
}

func newTestBudget(t *testing.T) *testBudget {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "buste.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	ledger := NewLedgerService(repo, nil)
	return &testBudget{
		repo:   repo,
		ledger: ledger,
		budget: NewBudgetService(repo, ledger),
	}
}

func (b *testBudget) account(t *testing.T, name string, openingCents int64) int64 {
	t.Helper()
	id, err := b.budget.CreateAccount(context.Background(), name, core.Checking, core.Money{Cents: openingCents})
	if err != nil {
		t.Fatalf("CreateAccount(%s): %v", name, err)
	}
	return id
}

func (b *testBudget) envelope(t *testing.T, group, name string) int64 {
	t.Helper()
	id, err := b.budget.CreateEnvelope(context.Background(), 0, group, name, core.Money{})
	if err != nil {
		t.Fatalf("CreateEnvelope(%s): %v", name, err)
	}
	return id
}

func (b *testBudget) expense(t *testing.T, accountID, envelopeID, cents int64, payee string) int64 {
	t.Helper()
	id, err := b.ledger.CreateTransaction(context.Background(), core.NewTransaction{
		AccountID:  accountID,
		CategoryID: envelopeID,
		Type:       core.Expense,
		Amount:     core.Money{Cents: cents},
		Payee:      payee,
		Date:       time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateTransaction(%s): %v", payee, err)
	}
	return id
}

func (b *testBudget) balance(t *testing.T, accountID int64) int64 {
	t.Helper()
	account, err := b.repo.Queries().GetAccount(context.Background(), accountID)
	if err != nil {
		t.Fatalf("GetAccount(%d): %v", accountID, err)
	}
	return account.Balance.Cents
}

func (b *testBudget) env(t *testing.T, envelopeID int64) core.Envelope {
	t.Helper()
	envelope, err := b.repo.Queries().GetEnvelope(context.Background(), envelopeID)
	if err != nil {
		t.Fatalf("GetEnvelope(%d): %v", envelopeID, err)
	}
	return envelope
}

func (b *testBudget) summary(t *testing.T) core.Summary {
	t.Helper()
	s, err := b.budget.GetSummary(context.Background())
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	return s
}

// checkInvariants recomputes every maintained aggregate from the raw rows
// and fails on any disagreement.
func (b *testBudget) checkInvariants(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	q := b.repo.Queries()

	accounts, err := q.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	for _, a := range accounts {
		sum, err := q.SumTransactionsByAccount(ctx, a.ID)
		if err != nil {
			t.Fatalf("SumTransactionsByAccount(%d): %v", a.ID, err)
		}
		if a.Balance.Cents != sum {
			t.Errorf("account %q balance %d != transaction sum %d", a.Name, a.Balance.Cents, sum)
		}
	}

	envelopes, err := q.ListEnvelopes(ctx)
	if err != nil {
		t.Fatalf("ListEnvelopes: %v", err)
	}
	for _, e := range envelopes {
		sum, err := q.SumNonTransferByEnvelope(ctx, e.ID)
		if err != nil {
			t.Fatalf("SumNonTransferByEnvelope(%d): %v", e.ID, err)
		}
		if e.Available.Cents != e.Budgeted.Cents+sum {
			t.Errorf("envelope %q available %d != budgeted %d + spent %d",
				e.Name, e.Available.Cents, e.Budgeted.Cents, sum)
		}
	}
}
