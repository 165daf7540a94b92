package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/samhithabhogadi/budget-manager/internal/core"
)

// ErrNoData means the symbol has no quote history in the window, typically
// because it is unknown. Transient transport failures are reported as plain
// errors so callers can tell the two apart.
var ErrNoData = errors.New("no market data for symbol")

// historyWindow is the fixed lookback for quote history.
const historyWindow = 30 * 24 * time.Hour

// batchConcurrency bounds parallel upstream calls in a batch fetch.
const batchConcurrency = 4

type (
	// Candle is one day of OHLCV data.
	Candle struct {
		Date   core.Date       `json:"date"`
		Open   decimal.Decimal `json:"open"`
		High   decimal.Decimal `json:"high"`
		Low    decimal.Decimal `json:"low"`
		Close  decimal.Decimal `json:"close"`
		Volume int64           `json:"volume"`
	}

	// SymbolHistory is one entry of a batch result. A failed symbol carries
	// its error and never aborts the other symbols in the batch.
	SymbolHistory struct {
		Symbol  string
		Candles []Candle
		Err     error
	}

	// Client fetches end-of-day quote history over HTTP. Every request runs
	// under the client timeout so a slow upstream fails closed instead of
	// blocking the caller.
	Client struct {
		baseURL    string
		apiToken   string
		httpClient *http.Client
		now        func() time.Time
	}
)

func NewClient(baseURL, apiToken string, timeout time.Duration) *Client {
	return &Client{
		baseURL:  baseURL,
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}
}

// History returns the symbol's daily candles for the most recent month,
// oldest first. An unknown symbol yields ErrNoData.
func (c *Client) History(ctx context.Context, symbol string) ([]Candle, error) {
	to := c.now()
	from := to.Add(-historyWindow)

	addr := fmt.Sprintf("%s/api/eod/%s?fmt=json&api_token=%s&from=%s&to=%s",
		c.baseURL,
		url.PathEscape(symbol),
		url.QueryEscape(c.apiToken),
		from.Format("2006-01-02"),
		to.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("build quote request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch quotes for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoData
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch quotes for %s: unexpected status %d", symbol, resp.StatusCode)
	}

	var candles []Candle
	if err := json.NewDecoder(resp.Body).Decode(&candles); err != nil {
		return nil, fmt.Errorf("decode quotes for %s: %w", symbol, err)
	}
	if len(candles) == 0 {
		return nil, ErrNoData
	}

	return candles, nil
}

// HistoryBatch fetches several symbols concurrently. The result preserves the
// order of the input; each symbol carries its own candles or error.
func (c *Client) HistoryBatch(ctx context.Context, symbols []string) []SymbolHistory {
	results := make([]SymbolHistory, len(symbols))

	var g errgroup.Group
	g.SetLimit(batchConcurrency)

	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			candles, err := c.History(ctx, symbol)
			results[i] = SymbolHistory{Symbol: symbol, Candles: candles, Err: err}
			if err != nil && !errors.Is(err, ErrNoData) {
				slog.WarnContext(ctx, "Quote fetch failed", "symbol", symbol, "error", err)
			}
			return nil
		})
	}
	// Errors are collected per symbol, so Wait never reports one.
	_ = g.Wait()

	return results
}
