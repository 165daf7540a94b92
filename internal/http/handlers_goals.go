package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/samhithabhogadi/budget-manager/internal/amqp"
	"github.com/samhithabhogadi/budget-manager/internal/core"
	"github.com/samhithabhogadi/budget-manager/internal/reports"
)

type (
	goalRequest struct {
		Goal     string `json:"goal"`
		Target   string `json:"target_amount"`
		Saved    string `json:"saved_amount"`
		Deadline string `json:"deadline"`
	}

	goalResponse struct {
		ID       int64  `json:"id"`
		Goal     string `json:"goal"`
		Target   string `json:"target_amount"`
		Saved    string `json:"saved_amount"`
		Deadline string `json:"deadline"`
		Progress string `json:"progress"`
	}

	goalListResponse struct {
		Goals []goalResponse `json:"goals"`
	}
)

func toGoalResponse(g core.Goal) goalResponse {
	return goalResponse{
		ID:       g.ID,
		Goal:     g.Name,
		Target:   g.Target.String(),
		Saved:    g.Saved.String(),
		Deadline: g.Deadline.String(),
		Progress: reports.GoalProgress(g).StringFixed(4),
	}
}

// handleGoals covers create and list. Goals have no update or delete path.
func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listGoals(w, r)
	case http.MethodPost:
		s.createGoal(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) listGoals(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	goals, err := s.store.ListGoals(r.Context(), sess.UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := goalListResponse{Goals: make([]goalResponse, 0, len(goals))}
	for _, g := range goals {
		resp.Goals = append(resp.Goals, toGoalResponse(g))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) createGoal(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	target, err := core.ParseAmount(req.Target)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	saved, err := core.ParseNonNegativeAmount(req.Saved)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	deadline, err := core.ParseDate(req.Deadline)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	g := core.Goal{
		UserID:   sess.UserID,
		Name:     strings.TrimSpace(req.Goal),
		Target:   target,
		Saved:    saved,
		Deadline: deadline,
	}
	// Rejected goals never reach the store.
	if err := g.Validate(); err != nil {
		writeDomainError(w, r, err)
		return
	}

	savedGoal, err := s.store.AppendGoal(r.Context(), g)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if err := s.events.PublishLedgerEvent(r.Context(), amqp.EventGoalCreated, savedGoal.UserID, savedGoal.ID); err != nil {
		slog.ErrorContext(r.Context(), "Failed to publish ledger event", "error", err, "record_id", savedGoal.ID)
	}

	writeJSON(w, http.StatusCreated, toGoalResponse(savedGoal))
}
