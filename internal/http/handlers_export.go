package http

import (
	"log/slog"
	"net/http"

	"github.com/samhithabhogadi/budget-manager/internal/export"
)

func (s *Server) handleExportTransactions(w http.ResponseWriter, r *http.Request) {
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

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	if err := export.WriteTransactionsCSV(w, txs); err != nil {
		// Headers are already gone; the most we can do is log it.
		slog.ErrorContext(r.Context(), "Failed streaming transactions CSV", "error", err, "user_id", sess.UserID)
	}
}

func (s *Server) handleExportGoals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sess := sessionFromContext(r.Context())

	goals, err := s.store.ListGoals(r.Context(), sess.UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="goals.csv"`)
	if err := export.WriteGoalsCSV(w, goals); err != nil {
		slog.ErrorContext(r.Context(), "Failed streaming goals CSV", "error", err, "user_id", sess.UserID)
	}
}
