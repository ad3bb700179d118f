// Package http is the JSON boundary over the ledger engine. Handlers parse,
// delegate, and render; no invariant logic lives here.
package http

import (
	"net/http"

	applog "buste/internal/log"
	"buste/internal/middleware/trace"
	"buste/internal/services"
)

type Server struct {
	http.Server
	budget *services.BudgetService
	ledger *services.LedgerService
}

func NewServer(addr string, budget *services.BudgetService, ledger *services.LedgerService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		budget: budget,
		ledger: ledger,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("GET /api/accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("POST /api/accounts/{id}/reconcile", s.handleReconcileAccount)

	mux.HandleFunc("POST /api/envelopes", s.handleCreateEnvelope)
	mux.HandleFunc("GET /api/envelopes", s.handleListEnvelopes)
	mux.HandleFunc("PUT /api/envelopes/{id}", s.handleUpdateEnvelope)
	mux.HandleFunc("DELETE /api/envelopes/{id}", s.handleDeleteEnvelope)
	mux.HandleFunc("POST /api/envelopes/{id}/assign", s.handleAssign)
	mux.HandleFunc("POST /api/envelopes/{id}/release", s.handleRelease)
	mux.HandleFunc("POST /api/envelopes/move", s.handleMoveBetweenEnvelopes)

	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("POST /api/transfers", s.handleCreateTransfer)
	mux.HandleFunc("DELETE /api/transfers/{id}", s.handleDeleteTransfer)

	mux.HandleFunc("GET /api/summary", s.handleGetSummary)

	traceMW := trace.NewMiddleware(extractClientIP)
	logMW := applog.Middleware(applog.Component(applog.ComponentHTTP))
	s.Server = http.Server{
		Addr:    addr,
		Handler: traceMW.Middleware(logMW(mux)),
	}
	return s
}

func extractClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
