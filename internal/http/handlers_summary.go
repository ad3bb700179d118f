package http

import "net/http"

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.budget.GetSummary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, renderSummary(summary))
}
