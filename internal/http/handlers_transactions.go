package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/samhithabhogadi/budget-manager/internal/amqp"
	"github.com/samhithabhogadi/budget-manager/internal/core"
)

type (
	transactionRequest struct {
		Date     string `json:"date"`
		Type     string `json:"type"`
		Category string `json:"category"`
		Amount   string `json:"amount"`
		Notes    string `json:"notes"`
	}

	transactionResponse struct {
		ID       int64  `json:"id"`
		Date     string `json:"date"`
		Type     string `json:"type"`
		Category string `json:"category"`
		Amount   string `json:"amount"`
		Notes    string `json:"notes"`
	}

	transactionListResponse struct {
		Transactions []transactionResponse `json:"transactions"`
	}
)

func toTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:       tx.ID,
		Date:     tx.Date.String(),
		Type:     string(tx.Type),
		Category: tx.Category,
		Amount:   tx.Amount.String(),
		Notes:    tx.Notes,
	}
}

// parseTransaction validates the form fields before anything touches the
// store, so a rejected request leaves no partial write behind.
func parseTransaction(req transactionRequest, userID int64) (core.Transaction, error) {
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	txType, err := core.ParseTransactionType(req.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}

	tx := core.Transaction{
		UserID:   userID,
		Date:     date,
		Type:     txType,
		Category: strings.TrimSpace(req.Category),
		Amount:   amount,
		Notes:    strings.TrimSpace(req.Notes),
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r)
	case http.MethodPost:
		s.createTransaction(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	txs, err := s.store.ListTransactions(r.Context(), sess.UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := transactionListResponse{Transactions: make([]transactionResponse, 0, len(txs))}
	for _, tx := range txs {
		resp.Transactions = append(resp.Transactions, toTransactionResponse(tx))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := parseTransaction(req, sess.UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	saved, err := s.store.AppendTransaction(r.Context(), tx)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if err := s.events.PublishLedgerEvent(r.Context(), amqp.EventTransactionCreated, saved.UserID, saved.ID); err != nil {
		// The row is saved; a broker hiccup must not fail the request.
		slog.ErrorContext(r.Context(), "Failed to publish ledger event", "error", err, "record_id", saved.ID)
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(saved))
}

// handleTransactionByID covers update and delete of a single row addressed by
// its stable id. Ids never shift when neighbours are deleted, so a stale
// listing can at worst hit a row that is already gone.
func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	idStr := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req transactionRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		tx, err := parseTransaction(req, sess.UserID)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		tx.ID = id

		if err := s.store.UpdateTransaction(r.Context(), tx); err != nil {
			writeDomainError(w, r, err)
			return
		}

		if err := s.events.PublishLedgerEvent(r.Context(), amqp.EventTransactionUpdated, sess.UserID, id); err != nil {
			slog.ErrorContext(r.Context(), "Failed to publish ledger event", "error", err, "record_id", id)
		}

		writeJSON(w, http.StatusOK, toTransactionResponse(tx))

	case http.MethodDelete:
		if err := s.store.DeleteTransaction(r.Context(), sess.UserID, id); err != nil {
			writeDomainError(w, r, err)
			return
		}

		if err := s.events.PublishLedgerEvent(r.Context(), amqp.EventTransactionDeleted, sess.UserID, id); err != nil {
			slog.ErrorContext(r.Context(), "Failed to publish ledger event", "error", err, "record_id", id)
		}

		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "PUT, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
