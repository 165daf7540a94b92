package http

import (
	"net/http"

	"github.com/samhithabhogadi/budget-manager/internal/reports"
)

// handleReportSummary recomputes the report from the current snapshot of the
// user's transactions on every call; nothing is cached or persisted.
func (s *Server) handleReportSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sess := sessionFromContext(r.Context())

	txs, err := s.store.ListTransactions(r.Context(), sess.UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, reports.Build(txs))
}
