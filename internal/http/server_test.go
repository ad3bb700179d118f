package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"buste/internal/services"
	"buste/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "buste.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	ledger := services.NewLedgerService(repo, nil)
	budget := services.NewBudgetService(repo, ledger)
	srv := NewServer(":0", budget, ledger)

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, ts *httptest.Server, method, path string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := ts.Client().Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestAccountEndpoints(t *testing.T) {
	ts := newTestServer(t)

	var created accountDTO
	status := doJSON(t, ts, http.MethodPost, "/api/accounts", createAccountRequest{
		Name:           "Checking",
		Type:           "checking",
		OpeningBalance: "1000.00",
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("create account status = %d", status)
	}
	if created.Balance != "1000.00" || created.Name != "Checking" {
		t.Errorf("created account = %+v", created)
	}

	var fetched accountDTO
	if status := doJSON(t, ts, http.MethodGet, fmt.Sprintf("/api/accounts/%d", created.ID), nil, &fetched); status != http.StatusOK {
		t.Fatalf("get account status = %d", status)
	}
	if fetched != created {
		t.Errorf("get = %+v, created = %+v", fetched, created)
	}

	var list []accountDTO
	if status := doJSON(t, ts, http.MethodGet, "/api/accounts", nil, &list); status != http.StatusOK || len(list) != 1 {
		t.Errorf("list status = %d, len = %d", status, len(list))
	}

	if status := doJSON(t, ts, http.MethodGet, "/api/accounts/999", nil, nil); status != http.StatusNotFound {
		t.Errorf("missing account status = %d, want 404", status)
	}
	if status := doJSON(t, ts, http.MethodPost, "/api/accounts", createAccountRequest{Name: "", Type: "checking"}, nil); status != http.StatusUnprocessableEntity {
		t.Errorf("invalid account status = %d, want 422", status)
	}
	if status := doJSON(t, ts, http.MethodPost, "/api/accounts", map[string]string{"unknown_field": "x"}, nil); status != http.StatusBadRequest {
		t.Errorf("unknown field status = %d, want 400", status)
	}
}

func TestReconcileEndpoint(t *testing.T) {
	ts := newTestServer(t)

	var account accountDTO
	doJSON(t, ts, http.MethodPost, "/api/accounts", createAccountRequest{Name: "Checking", Type: "checking", OpeningBalance: "500.00"}, &account)

	var rec reconcileResponse
	status := doJSON(t, ts, http.MethodPost, fmt.Sprintf("/api/accounts/%d/reconcile", account.ID), reconcileRequest{Balance: "480.25"}, &rec)
	if status != http.StatusOK || !rec.Adjusted || rec.AdjustmentID == 0 {
		t.Fatalf("reconcile = %d, %+v", status, rec)
	}

	var fetched accountDTO
	doJSON(t, ts, http.MethodGet, fmt.Sprintf("/api/accounts/%d", account.ID), nil, &fetched)
	if fetched.Balance != "480.25" {
		t.Errorf("balance after reconcile = %s", fetched.Balance)
	}

	// Matching balance: no adjustment entry.
	doJSON(t, ts, http.MethodPost, fmt.Sprintf("/api/accounts/%d/reconcile", account.ID), reconcileRequest{Balance: "480.25"}, &rec)
	if rec.Adjusted {
		t.Errorf("matched reconcile reported an adjustment: %+v", rec)
	}
}

func TestEnvelopeAndSummaryEndpoints(t *testing.T) {
	ts := newTestServer(t)

	var account accountDTO
	doJSON(t, ts, http.MethodPost, "/api/accounts", createAccountRequest{Name: "Checking", Type: "checking", OpeningBalance: "1000.00"}, &account)

	var created map[string]int64
	status := doJSON(t, ts, http.MethodPost, "/api/envelopes", createEnvelopeRequest{GroupName: "Daily", Name: "Groceries", Target: "300.00"}, &created)
	if status != http.StatusCreated || created["id"] == 0 {
		t.Fatalf("create envelope = %d, %v", status, created)
	}
	envID := created["id"]

	if status := doJSON(t, ts, http.MethodPost, fmt.Sprintf("/api/envelopes/%d/assign", envID), assignRequest{Amount: "200.00"}, nil); status != http.StatusNoContent {
		t.Fatalf("assign status = %d", status)
	}

	var groups []groupDTO
	doJSON(t, ts, http.MethodGet, "/api/envelopes", nil, &groups)
	if len(groups) != 1 || len(groups[0].Envelopes) != 1 {
		t.Fatalf("groups = %+v", groups)
	}
	env := groups[0].Envelopes[0]
	if env.Available != "200.00" || env.Budgeted != "200.00" || env.Target != "300.00" {
		t.Errorf("envelope = %+v", env)
	}

	var summary summaryDTO
	doJSON(t, ts, http.MethodGet, "/api/summary", nil, &summary)
	if summary.ReadyToAssign != "800.00" || summary.TotalBalance != "1000.00" {
		t.Errorf("summary = %+v", summary)
	}

	var released map[string]string
	if status := doJSON(t, ts, http.MethodPost, fmt.Sprintf("/api/envelopes/%d/release", envID), nil, &released); status != http.StatusOK {
		t.Fatalf("release status = %d", status)
	}
	if released["released"] != "200.00" {
		t.Errorf("released = %v", released)
	}
}

func TestTransactionEndpoints(t *testing.T) {
	ts := newTestServer(t)

	var account accountDTO
	doJSON(t, ts, http.MethodPost, "/api/accounts", createAccountRequest{Name: "Checking", Type: "checking", OpeningBalance: "100.00"}, &account)

	var created map[string]int64
	status := doJSON(t, ts, http.MethodPost, "/api/transactions", transactionRequest{
		AccountID: account.ID,
		Type:      "expense",
		Amount:    "-12.50",
		Payee:     "Market",
		Date:      "2026-08-15",
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("create transaction status = %d", status)
	}

	var list []transactionDTO
	doJSON(t, ts, http.MethodGet, fmt.Sprintf("/api/transactions?account_id=%d&search=market", account.ID), nil, &list)
	if len(list) != 1 || list[0].Amount != "-12.50" || list[0].Date != "2026-08-15" {
		t.Fatalf("filtered list = %+v", list)
	}

	var days []dayGroupDTO
	doJSON(t, ts, http.MethodGet, "/api/transactions?group=day", nil, &days)
	if len(days) == 0 {
		t.Fatal("day grouping returned nothing")
	}

	if status := doJSON(t, ts, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", created["id"]), nil, nil); status != http.StatusNoContent {
		t.Errorf("delete status = %d", status)
	}

	var fetched accountDTO
	doJSON(t, ts, http.MethodGet, fmt.Sprintf("/api/accounts/%d", account.ID), nil, &fetched)
	if fetched.Balance != "100.00" {
		t.Errorf("balance after delete = %s", fetched.Balance)
	}

	if status := doJSON(t, ts, http.MethodPost, "/api/transactions", transactionRequest{
		AccountID: account.ID,
		Type:      "expense",
		Amount:    "not-money",
		Payee:     "Market",
	}, nil); status != http.StatusUnprocessableEntity {
		t.Errorf("bad amount status = %d, want 422", status)
	}
}

func TestTransferEndpoints(t *testing.T) {
	ts := newTestServer(t)

	var checking, savings accountDTO
	doJSON(t, ts, http.MethodPost, "/api/accounts", createAccountRequest{Name: "Checking", Type: "checking", OpeningBalance: "500.00"}, &checking)
	doJSON(t, ts, http.MethodPost, "/api/accounts", createAccountRequest{Name: "Savings", Type: "savings"}, &savings)

	var created map[string]string
	status := doJSON(t, ts, http.MethodPost, "/api/transfers", createTransferRequest{
		FromAccountID: checking.ID,
		ToAccountID:   savings.ID,
		Amount:        "150.00",
	}, &created)
	if status != http.StatusCreated || created["transfer_id"] == "" {
		t.Fatalf("create transfer = %d, %v", status, created)
	}

	var list []transactionDTO
	doJSON(t, ts, http.MethodGet, fmt.Sprintf("/api/transactions?account_id=%d", savings.ID), nil, &list)
	if len(list) != 1 || list[0].TransferID != created["transfer_id"] {
		t.Fatalf("savings transactions = %+v", list)
	}
	legID := list[0].ID

	if status := doJSON(t, ts, http.MethodDelete, fmt.Sprintf("/api/transfers/%d", legID), nil, nil); status != http.StatusNoContent {
		t.Fatalf("delete transfer status = %d", status)
	}

	var fetched accountDTO
	doJSON(t, ts, http.MethodGet, fmt.Sprintf("/api/accounts/%d", checking.ID), nil, &fetched)
	if fetched.Balance != "500.00" {
		t.Errorf("checking after transfer delete = %s", fetched.Balance)
	}

	if status := doJSON(t, ts, http.MethodPost, "/api/transfers", createTransferRequest{
		FromAccountID: checking.ID,
		ToAccountID:   checking.ID,
		Amount:        "10.00",
	}, nil); status != http.StatusUnprocessableEntity {
		t.Errorf("same-account transfer status = %d, want 422", status)
	}
}

// The transfer delete endpoint accepts any transaction id and falls back to
// a plain delete when the row has no transfer link.
func TestDeleteTransferFallsBackToPlainDelete(t *testing.T) {
	ts := newTestServer(t)

	var account accountDTO
	doJSON(t, ts, http.MethodPost, "/api/accounts", createAccountRequest{Name: "Checking", Type: "checking"}, &account)

	var created map[string]int64
	doJSON(t, ts, http.MethodPost, "/api/transactions", transactionRequest{
		AccountID: account.ID,
		Type:      "expense",
		Amount:    "-5.00",
		Payee:     "Kiosk",
		Date:      "2026-08-20",
	}, &created)

	if status := doJSON(t, ts, http.MethodDelete, fmt.Sprintf("/api/transfers/%d", created["id"]), nil, nil); status != http.StatusNoContent {
		t.Errorf("fallback delete status = %d, want 204", status)
	}
	if status := doJSON(t, ts, http.MethodDelete, fmt.Sprintf("/api/transfers/%d", created["id"]), nil, nil); status != http.StatusNotFound {
		t.Errorf("double delete status = %d, want 404", status)
	}
}

func TestUpdateTransferLegConflicts(t *testing.T) {
	ts := newTestServer(t)

	var checking, savings accountDTO
	doJSON(t, ts, http.MethodPost, "/api/accounts", createAccountRequest{Name: "Checking", Type: "checking", OpeningBalance: "100.00"}, &checking)
	doJSON(t, ts, http.MethodPost, "/api/accounts", createAccountRequest{Name: "Savings", Type: "savings"}, &savings)
	doJSON(t, ts, http.MethodPost, "/api/transfers", createTransferRequest{FromAccountID: checking.ID, ToAccountID: savings.ID, Amount: "20.00"}, nil)

	var list []transactionDTO
	doJSON(t, ts, http.MethodGet, fmt.Sprintf("/api/transactions?account_id=%d", savings.ID), nil, &list)
	if len(list) != 1 {
		t.Fatalf("savings transactions = %+v", list)
	}

	status := doJSON(t, ts, http.MethodPut, fmt.Sprintf("/api/transactions/%d", list[0].ID), transactionRequest{
		AccountID: savings.ID,
		Type:      "income",
		Amount:    "20.00",
		Payee:     "Edited",
		Date:      "2026-08-21",
	}, nil)
	if status != http.StatusConflict {
		t.Errorf("editing a transfer leg status = %d, want 409", status)
	}
}
