package http

import (
	"net/http"

	"buste/internal/core"
)

type createAccountRequest struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	OpeningBalance string `json:"opening_balance,omitempty"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var opening core.Money
	if req.OpeningBalance != "" {
		var err error
		opening, err = parseAmount(req.OpeningBalance)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}

	id, err := s.budget.CreateAccount(r.Context(), req.Name, core.AccountType(req.Type), opening)
	if err != nil {
		writeError(w, r, err)
		return
	}

	account, err := s.budget.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, renderAccount(account))
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.budget.ListAccounts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]accountDTO, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, renderAccount(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	account, err := s.budget.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, renderAccount(account))
}

type reconcileRequest struct {
	Balance string `json:"balance"`
}

type reconcileResponse struct {
	AdjustmentID int64 `json:"adjustment_id,omitempty"`
	Adjusted     bool  `json:"adjusted"`
}

func (s *Server) handleReconcileAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req reconcileRequest
	if !decodeBody(w, r, &req) {
		return
	}
	target, err := parseAmount(req.Balance)
	if err != nil {
		writeError(w, r, err)
		return
	}

	adjustmentID, err := s.budget.Reconcile(r.Context(), id, target)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reconcileResponse{
		AdjustmentID: adjustmentID,
		Adjusted:     adjustmentID != 0,
	})
}
