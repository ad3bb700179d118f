package http

import (
	"net/http"
	"strconv"

	"buste/internal/core"
	"buste/internal/storage"
)

type transactionRequest struct {
	AccountID  int64  `json:"account_id"`
	CategoryID int64  `json:"category_id,omitempty"`
	Type       string `json:"type"`
	Amount     string `json:"amount"`
	Payee      string `json:"payee"`
	Date       string `json:"date,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

func (s *Server) decodeTransaction(w http.ResponseWriter, r *http.Request) (core.NewTransaction, bool) {
	var req transactionRequest
	if !decodeBody(w, r, &req) {
		return core.NewTransaction{}, false
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return core.NewTransaction{}, false
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return core.NewTransaction{}, false
	}
	return core.NewTransaction{
		AccountID:  req.AccountID,
		CategoryID: req.CategoryID,
		Type:       core.TransactionType(req.Type),
		Amount:     amount,
		Payee:      req.Payee,
		Date:       date,
		Notes:      req.Notes,
	}, true
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	draft, ok := s.decodeTransaction(w, r)
	if !ok {
		return
	}
	id, err := s.ledger.CreateTransaction(r.Context(), draft)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	var filter storage.TransactionFilter
	if v := r.URL.Query().Get("account_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid account_id"})
			return
		}
		filter.AccountID = id
	}
	if v := r.URL.Query().Get("envelope_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid envelope_id"})
			return
		}
		filter.CategoryID = id
	}
	filter.Search = r.URL.Query().Get("search")

	views, err := s.budget.ListTransactions(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if r.URL.Query().Get("group") == "day" {
		writeJSON(w, http.StatusOK, renderDayGroups(core.GroupByDay(views)))
		return
	}
	out := make([]transactionDTO, 0, len(views))
	for _, v := range views {
		out = append(out, renderTransactionView(v))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	draft, ok := s.decodeTransaction(w, r)
	if !ok {
		return
	}
	if err := s.ledger.UpdateTransaction(r.Context(), id, draft); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
