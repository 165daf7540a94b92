package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/samhithabhogadi/budget-manager/internal/market"
)

type (
	quoteResult struct {
		Symbol  string          `json:"symbol"`
		Candles []market.Candle `json:"candles,omitempty"`
		Warning string          `json:"warning,omitempty"`
	}

	quotesResponse struct {
		Quotes []quoteResult `json:"quotes"`
	}
)

// handleQuotes serves one month of daily history for a comma-separated symbol
// list. A symbol without data becomes a warning entry; it never suppresses
// the other symbols in the batch.
func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	raw := r.URL.Query().Get("symbols")
	var symbols []string
	for _, part := range strings.Split(raw, ",") {
		if symbol := strings.ToUpper(strings.TrimSpace(part)); symbol != "" {
			symbols = append(symbols, symbol)
		}
	}
	if len(symbols) == 0 {
		writeError(w, http.StatusBadRequest, "symbols query parameter is required")
		return
	}

	results := s.quotes.HistoryBatch(r.Context(), symbols)

	resp := quotesResponse{Quotes: make([]quoteResult, 0, len(results))}
	for _, res := range results {
		entry := quoteResult{Symbol: res.Symbol, Candles: res.Candles}
		switch {
		case errors.Is(res.Err, market.ErrNoData):
			entry.Warning = "no data available"
		case res.Err != nil:
			entry.Warning = "quote fetch failed"
		}
		resp.Quotes = append(resp.Quotes, entry)
	}

	writeJSON(w, http.StatusOK, resp)
}
