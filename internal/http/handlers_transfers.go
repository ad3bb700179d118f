package http

import (
	"errors"
	"net/http"

	"buste/internal/core"
)

type createTransferRequest struct {
	FromAccountID int64  `json:"from_account_id"`
	ToAccountID   int64  `json:"to_account_id"`
	Amount        string `json:"amount"`
	Date          string `json:"date,omitempty"`
}

func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req createTransferRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	transferID, err := s.ledger.CreateTransfer(r.Context(), req.FromAccountID, req.ToAccountID, amount, date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"transfer_id": transferID})
}

// handleDeleteTransfer removes both legs given the id of either leg. When the
// transaction turns out not to be part of a transfer it falls back to a plain
// delete, so clients can point this endpoint at any transaction id.
func (s *Server) handleDeleteTransfer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	err := s.ledger.DeleteTransfer(r.Context(), id)
	if errors.Is(err, core.ErrNotFound) {
		err = s.ledger.DeleteTransaction(r.Context(), id)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
