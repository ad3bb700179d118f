package http

import (
	"net/http"

	"buste/internal/core"
)

type createEnvelopeRequest struct {
	GroupID   int64  `json:"group_id,omitempty"`
	GroupName string `json:"group_name,omitempty"`
	Name      string `json:"name"`
	Target    string `json:"target,omitempty"`
}

func (s *Server) handleCreateEnvelope(w http.ResponseWriter, r *http.Request) {
	var req createEnvelopeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var target core.Money
	if req.Target != "" {
		var err error
		target, err = parseAmount(req.Target)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}

	id, err := s.budget.CreateEnvelope(r.Context(), req.GroupID, req.GroupName, req.Name, target)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleListEnvelopes(w http.ResponseWriter, r *http.Request) {
	groups, err := s.budget.ListGrouped(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, renderGroups(groups))
}

type updateEnvelopeRequest struct {
	Name   string `json:"name"`
	Target string `json:"target,omitempty"`
}

func (s *Server) handleUpdateEnvelope(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateEnvelopeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var target core.Money
	if req.Target != "" {
		var err error
		target, err = parseAmount(req.Target)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}

	if err := s.budget.UpdateEnvelope(r.Context(), id, req.Name, target); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteEnvelope(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.budget.DeleteEnvelope(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type assignRequest struct {
	Amount string `json:"amount"`
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req assignRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.budget.Assign(r.Context(), id, amount); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	released, err := s.budget.ReleaseToRTA(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"released": released.String()})
}

type moveRequest struct {
	FromID int64  `json:"from_id"`
	ToID   int64  `json:"to_id"`
	Amount string `json:"amount"`
}

func (s *Server) handleMoveBetweenEnvelopes(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.budget.MoveBetweenEnvelopes(r.Context(), req.FromID, req.ToID, amount); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
