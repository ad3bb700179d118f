package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"buste/internal/core"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so the same query set serves
// plain reads and the ledger's atomic read-modify-write transactions.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx binds the query set to an open transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// ---- accounts ----

type CreateAccountParams struct {
	Name      string
	Type      core.AccountType
	CreatedAt time.Time
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO accounts (name, type, balance_cents, created_at) VALUES (?, ?, 0, ?)`,
		arg.Name, string(arg.Type), arg.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert account: %w", err)
	}
	return res.LastInsertId()
}

const accountColumns = `id, name, type, balance_cents, created_at`

func scanAccount(row *sql.Row) (core.Account, error) {
	var a core.Account
	var typ string
	err := row.Scan(&a.ID, &a.Name, &typ, &a.Balance.Cents, &a.CreatedAt)
	if err != nil {
		return core.Account{}, err
	}
	a.Type = core.AccountType(typ)
	return a, nil
}

func (q *Queries) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	a, err := scanAccount(q.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("account %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (q *Queries) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		var typ string
		if err := rows.Scan(&a.ID, &a.Name, &typ, &a.Balance.Cents, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.Type = core.AccountType(typ)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// AddToAccountBalance applies a signed delta to the maintained balance.
func (q *Queries) AddToAccountBalance(ctx context.Context, id int64, deltaCents int64) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = balance_cents + ? WHERE id = ?`, deltaCents, id)
	if err != nil {
		return fmt.Errorf("update account balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account balance: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("account %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// ---- envelope groups ----

func (q *Queries) CreateEnvelopeGroup(ctx context.Context, name string, createdAt time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO envelope_groups (name, created_at) VALUES (?, ?)`, name, createdAt)
	if err != nil {
		return 0, fmt.Errorf("insert envelope group: %w", err)
	}
	return res.LastInsertId()
}

func (q *Queries) GetEnvelopeGroup(ctx context.Context, id int64) (core.EnvelopeGroup, error) {
	var g core.EnvelopeGroup
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM envelope_groups WHERE id = ?`, id).
		Scan(&g.ID, &g.Name, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.EnvelopeGroup{}, fmt.Errorf("envelope group %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.EnvelopeGroup{}, fmt.Errorf("get envelope group: %w", err)
	}
	return g, nil
}

// GetEnvelopeGroupByName returns the first group with the given name.
// Group names are a convenience, not a uniqueness constraint.
func (q *Queries) GetEnvelopeGroupByName(ctx context.Context, name string) (core.EnvelopeGroup, error) {
	var g core.EnvelopeGroup
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM envelope_groups WHERE name = ? ORDER BY id LIMIT 1`, name).
		Scan(&g.ID, &g.Name, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.EnvelopeGroup{}, fmt.Errorf("envelope group %q: %w", name, core.ErrNotFound)
	}
	if err != nil {
		return core.EnvelopeGroup{}, fmt.Errorf("get envelope group by name: %w", err)
	}
	return g, nil
}

func (q *Queries) ListEnvelopeGroups(ctx context.Context) ([]core.EnvelopeGroup, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM envelope_groups ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list envelope groups: %w", err)
	}
	defer rows.Close()

	var groups []core.EnvelopeGroup
	for rows.Next() {
		var g core.EnvelopeGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan envelope group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// ---- envelopes ----

type CreateEnvelopeParams struct {
	GroupID   int64
	Name      string
	Target    core.Money
	CreatedAt time.Time
}

func (q *Queries) CreateEnvelope(ctx context.Context, arg CreateEnvelopeParams) (int64, error) {
	var target sql.NullInt64
	if !arg.Target.IsZero() {
		target = sql.NullInt64{Int64: arg.Target.Cents, Valid: true}
	}
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO envelopes (group_id, name, budgeted_cents, available_cents, target_cents, created_at)
		 VALUES (?, ?, 0, 0, ?, ?)`,
		arg.GroupID, arg.Name, target, arg.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert envelope: %w", err)
	}
	return res.LastInsertId()
}

const envelopeColumns = `id, group_id, name, budgeted_cents, available_cents, target_cents, created_at`

func (q *Queries) GetEnvelope(ctx context.Context, id int64) (core.Envelope, error) {
	var e core.Envelope
	var target sql.NullInt64
	err := q.db.QueryRowContext(ctx,
		`SELECT `+envelopeColumns+` FROM envelopes WHERE id = ?`, id).
		Scan(&e.ID, &e.GroupID, &e.Name, &e.Budgeted.Cents, &e.Available.Cents, &target, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Envelope{}, fmt.Errorf("envelope %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Envelope{}, fmt.Errorf("get envelope: %w", err)
	}
	e.Target = core.Money{Cents: target.Int64}
	return e, nil
}

func (q *Queries) ListEnvelopes(ctx context.Context) ([]core.Envelope, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+envelopeColumns+` FROM envelopes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list envelopes: %w", err)
	}
	defer rows.Close()

	var envelopes []core.Envelope
	for rows.Next() {
		var e core.Envelope
		var target sql.NullInt64
		if err := rows.Scan(&e.ID, &e.GroupID, &e.Name, &e.Budgeted.Cents, &e.Available.Cents, &target, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan envelope: %w", err)
		}
		e.Target = core.Money{Cents: target.Int64}
		envelopes = append(envelopes, e)
	}
	return envelopes, rows.Err()
}

// UpdateEnvelopeMeta renames an envelope and sets its target. Budgeted and
// available are only ever touched by the assignment and mutation paths.
func (q *Queries) UpdateEnvelopeMeta(ctx context.Context, id int64, name string, target core.Money) error {
	var t sql.NullInt64
	if !target.IsZero() {
		t = sql.NullInt64{Int64: target.Cents, Valid: true}
	}
	res, err := q.db.ExecContext(ctx,
		`UPDATE envelopes SET name = ?, target_cents = ? WHERE id = ?`, name, t, id)
	if err != nil {
		return fmt.Errorf("update envelope: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update envelope: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("envelope %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// DeleteEnvelope removes the envelope; referencing transactions keep their
// rows with category cleared by the schema's ON DELETE SET NULL.
func (q *Queries) DeleteEnvelope(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM envelopes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete envelope: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete envelope: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("envelope %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// AddToEnvelopeAvailable applies a signed delta to available only, the
// spending side of the envelope invariant.
func (q *Queries) AddToEnvelopeAvailable(ctx context.Context, id int64, deltaCents int64) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE envelopes SET available_cents = available_cents + ? WHERE id = ?`, deltaCents, id)
	if err != nil {
		return fmt.Errorf("update envelope available: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update envelope available: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("envelope %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// AssignToEnvelope applies a signed delta to both budgeted and available,
// the assignment side of the envelope invariant.
func (q *Queries) AssignToEnvelope(ctx context.Context, id int64, deltaCents int64) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE envelopes SET budgeted_cents = budgeted_cents + ?, available_cents = available_cents + ? WHERE id = ?`,
		deltaCents, deltaCents, id)
	if err != nil {
		return fmt.Errorf("assign to envelope: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("assign to envelope: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("envelope %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// ---- transactions ----

type CreateTransactionParams struct {
	AccountID  int64
	CategoryID int64
	Type       core.TransactionType
	TransferID string
	Amount     core.Money
	Payee      string
	Date       time.Time
	Notes      string
	CreatedAt  time.Time
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO transactions (account_id, category_id, type, transfer_id, amount_cents, payee, date, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.AccountID, nullID(arg.CategoryID), string(arg.Type), nullString(arg.TransferID),
		arg.Amount.Cents, arg.Payee, arg.Date, nullString(arg.Notes), arg.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	return res.LastInsertId()
}

const transactionColumns = `id, account_id, category_id, type, transfer_id, amount_cents, payee, date, notes, created_at`

func scanTransaction(scan func(dest ...any) error) (core.Transaction, error) {
	var t core.Transaction
	var categoryID sql.NullInt64
	var transferID, notes sql.NullString
	var typ string
	err := scan(&t.ID, &t.AccountID, &categoryID, &typ, &transferID,
		&t.Amount.Cents, &t.Payee, &t.Date, &notes, &t.CreatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	t.CategoryID = categoryID.Int64
	t.TransferID = transferID.String
	t.Notes = notes.String
	t.Type = core.TransactionType(typ)
	return t, nil
}

func (q *Queries) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// GetTransferCounterpart finds the other leg of a transfer pair.
func (q *Queries) GetTransferCounterpart(ctx context.Context, transferID string, excludeID int64) (core.Transaction, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE transfer_id = ? AND id != ?`, transferID, excludeID)
	t, err := scanTransaction(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transfer counterpart of %d: %w", excludeID, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transfer counterpart: %w", err)
	}
	return t, nil
}

// ListTransactionsByTransferID returns the legs of a transfer pair.
func (q *Queries) ListTransactionsByTransferID(ctx context.Context, transferID string) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE transfer_id = ? ORDER BY id`, transferID)
	if err != nil {
		return nil, fmt.Errorf("list transfer legs: %w", err)
	}
	defer rows.Close()

	var legs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan transfer leg: %w", err)
		}
		legs = append(legs, t)
	}
	return legs, rows.Err()
}

type UpdateTransactionParams struct {
	ID         int64
	AccountID  int64
	CategoryID int64
	Type       core.TransactionType
	Amount     core.Money
	Payee      string
	Date       time.Time
	Notes      string
}

func (q *Queries) UpdateTransactionRow(ctx context.Context, arg UpdateTransactionParams) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE transactions SET account_id = ?, category_id = ?, type = ?, amount_cents = ?, payee = ?, date = ?, notes = ?
		 WHERE id = ?`,
		arg.AccountID, nullID(arg.CategoryID), string(arg.Type), arg.Amount.Cents,
		arg.Payee, arg.Date, nullString(arg.Notes), arg.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %d: %w", arg.ID, core.ErrNotFound)
	}
	return nil
}

func (q *Queries) DeleteTransactionRow(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// TransactionFilter narrows ListTransactionViews. Zero values mean "no
// filter"; Search matches payee or envelope name, case-insensitive.
type TransactionFilter struct {
	AccountID  int64
	CategoryID int64
	Search     string
}

func (q *Queries) ListTransactionViews(ctx context.Context, filter TransactionFilter) ([]core.TransactionView, error) {
	query := `SELECT t.id, t.account_id, t.category_id, t.type, t.transfer_id, t.amount_cents,
	       t.payee, t.date, t.notes, t.created_at, a.name, COALESCE(e.name, '')
	FROM transactions t
	JOIN accounts a ON a.id = t.account_id
	LEFT JOIN envelopes e ON e.id = t.category_id`

	var where []string
	var args []any
	if filter.AccountID > 0 {
		where = append(where, "t.account_id = ?")
		args = append(args, filter.AccountID)
	}
	if filter.CategoryID > 0 {
		where = append(where, "t.category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		where = append(where, "(t.payee LIKE ? COLLATE NOCASE OR e.name LIKE ? COLLATE NOCASE)")
		pattern := "%" + s + "%"
		args = append(args, pattern, pattern)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY t.date DESC, t.id DESC"

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var views []core.TransactionView
	for rows.Next() {
		var v core.TransactionView
		var categoryID sql.NullInt64
		var transferID, notes sql.NullString
		var typ string
		if err := rows.Scan(&v.ID, &v.AccountID, &categoryID, &typ, &transferID, &v.Amount.Cents,
			&v.Payee, &v.Date, &notes, &v.CreatedAt, &v.AccountName, &v.EnvelopeName); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		v.CategoryID = categoryID.Int64
		v.TransferID = transferID.String
		v.Notes = notes.String
		v.Type = core.TransactionType(typ)
		views = append(views, v)
	}
	return views, rows.Err()
}

// ---- derived aggregates ----

// GetSummary folds the two tables into the derived snapshot. Overspent
// envelopes are excluded from the ready-to-assign subtraction so an
// envelope's negative available never inflates the pool. Both tables are
// aggregated in a single statement so concurrent writers can never tear
// the snapshot apart.
func (q *Queries) GetSummary(ctx context.Context) (core.Summary, error) {
	var s core.Summary
	var positiveAvailable int64
	err := q.db.QueryRowContext(ctx,
		`SELECT (SELECT COALESCE(SUM(balance_cents), 0) FROM accounts),
		        COALESCE(SUM(budgeted_cents), 0),
		        COALESCE(SUM(MAX(available_cents, 0)), 0),
		        COALESCE(SUM(MIN(available_cents, 0)), 0)
		 FROM envelopes`).
		Scan(&s.TotalBalance.Cents, &s.TotalBudgeted.Cents, &positiveAvailable, &s.TotalOverspent.Cents)
	if err != nil {
		return core.Summary{}, fmt.Errorf("sum ledger aggregates: %w", err)
	}

	s.ReadyToAssign = core.Money{Cents: s.TotalBalance.Cents - positiveAvailable}
	return s, nil
}

// SumTransactionsByAccount recomputes an account's balance from first
// principles; the maintained balance_cents must always agree with it.
func (q *Queries) SumTransactionsByAccount(ctx context.Context, accountID int64) (int64, error) {
	var sum int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE account_id = ?`, accountID).
		Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum transactions by account: %w", err)
	}
	return sum, nil
}

// SumNonTransferByEnvelope recomputes the spending side of the envelope
// invariant: available must equal budgeted plus this sum.
func (q *Queries) SumNonTransferByEnvelope(ctx context.Context, envelopeID int64) (int64, error) {
	var sum int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE category_id = ? AND type != 'transfer'`,
		envelopeID).
		Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum transactions by envelope: %w", err)
	}
	return sum, nil
}

func (q *Queries) CountTransactions(ctx context.Context) (int64, error) {
	var n int64
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func nullID(id int64) sql.NullInt64 {
	if id <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
