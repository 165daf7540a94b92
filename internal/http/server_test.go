package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/samhithabhogadi/budget-manager/internal/auth"
	applog "github.com/samhithabhogadi/budget-manager/internal/log"
	"github.com/samhithabhogadi/budget-manager/internal/market"
	"github.com/samhithabhogadi/budget-manager/internal/session"
	"github.com/samhithabhogadi/budget-manager/internal/storage"
)

type testEnv struct {
	srv      *httptest.Server
	sessions *session.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "server.db"))
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	sessions := session.NewStore(time.Hour)
	t.Cleanup(sessions.Close)

	upstream := newFakeQuoteUpstream(t)
	quotes := market.NewClient(upstream.URL, "demo", 5*time.Second)

	server := NewServer(":0",
		auth.NewService(repo, bcrypt.MinCost),
		repo,
		sessions,
		quotes,
		nil, // no AMQP in tests
		applog.New(applog.DefaultConfig()))

	srv := httptest.NewServer(server.Handler)
	t.Cleanup(srv.Close)
	t.Cleanup(server.rateLimiter.stop)

	return &testEnv{srv: srv, sessions: sessions}
}

func newFakeQuoteUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/eod/AAPL", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"date": "2025-08-01", "open": "210", "high": "214", "low": "209", "close": "212", "volume": 1000}]`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()

	resp, _ := e.request(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": username, "password": password,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status %d", username, resp.StatusCode)
	}

	resp, body := e.request(t, http.MethodPost, "/api/login", "", map[string]string{
		"username": username, "password": password,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d: %s", username, resp.StatusCode, body)
	}

	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if login.Token == "" {
		t.Fatal("expected session token")
	}
	return login.Token
}

func TestRegisterDuplicate(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.request(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": "sam", "password": "hunter2",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first register: status %d", resp.StatusCode)
	}

	resp, body := env.request(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": "sam", "password": "other",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register: status %d: %s", resp.StatusCode, body)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "sam", "hunter2")

	resp1, body1 := env.request(t, http.MethodPost, "/api/login", "", map[string]string{
		"username": "sam", "password": "wrong",
	})
	resp2, body2 := env.request(t, http.MethodPost, "/api/login", "", map[string]string{
		"username": "ghost", "password": "hunter2",
	})
	if resp1.StatusCode != http.StatusUnauthorized || resp2.StatusCode != http.StatusUnauthorized {
		t.Fatalf("statuses: %d, %d", resp1.StatusCode, resp2.StatusCode)
	}
	if string(body1) != string(body2) {
		t.Fatalf("failure responses must be indistinguishable: %s vs %s", body1, body2)
	}
}

func TestSessionGating(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{
		"/api/transactions",
		"/api/goals",
		"/api/reports/summary",
		"/api/quotes?symbols=AAPL",
		"/api/export/transactions.csv",
		"/api/export/goals.csv",
	} {
		resp, _ := env.request(t, http.MethodGet, path, "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s without session: status %d", path, resp.StatusCode)
		}
	}

	resp, _ := env.request(t, http.MethodGet, "/api/transactions", "bogus-token", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bogus token: status %d", resp.StatusCode)
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "sam", "hunter2")

	resp, _ := env.request(t, http.MethodPost, "/api/logout", token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout: status %d", resp.StatusCode)
	}

	resp, _ = env.request(t, http.MethodGet, "/api/transactions", token, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("after logout: status %d", resp.StatusCode)
	}
	if env.sessions.Len() != 0 {
		t.Fatalf("session should be gone, have %d", env.sessions.Len())
	}
}

func TestTransactionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "sam", "hunter2")

	// Create
	resp, body := env.request(t, http.MethodPost, "/api/transactions", token, map[string]string{
		"date": "2025-03-09", "type": "Expense", "category": "Food", "amount": "42.50", "notes": "groceries",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d: %s", resp.StatusCode, body)
	}
	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil || created.ID == 0 {
		t.Fatalf("create response: %s (%v)", body, err)
	}

	// Update
	resp, body = env.request(t, http.MethodPut, fmt.Sprintf("/api/transactions/%d", created.ID), token, map[string]string{
		"date": "2025-03-10", "type": "Expense", "category": "Transport", "amount": "17.25", "notes": "bus",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: status %d: %s", resp.StatusCode, body)
	}

	// List reflects the update
	resp, body = env.request(t, http.MethodGet, "/api/transactions", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status %d", resp.StatusCode)
	}
	var list struct {
		Transactions []struct {
			ID       int64  `json:"id"`
			Category string `json:"category"`
			Amount   string `json:"amount"`
		} `json:"transactions"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Transactions) != 1 || list.Transactions[0].Category != "Transport" || list.Transactions[0].Amount != "17.25" {
		t.Fatalf("list mismatch: %s", body)
	}

	// Delete
	resp, _ = env.request(t, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", created.ID), token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: status %d", resp.StatusCode)
	}
	resp, _ = env.request(t, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", created.ID), token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("double delete: status %d", resp.StatusCode)
	}
}

func TestTransactionValidationRejected(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "sam", "hunter2")

	cases := []map[string]string{
		{"date": "2025-03-09", "type": "Expense", "category": "Food", "amount": "0"},
		{"date": "2025-03-09", "type": "Expense", "category": "Food", "amount": "-5"},
		{"date": "2025-03-09", "type": "Transfer", "category": "Food", "amount": "5"},
		{"date": "2025-03-09", "type": "Expense", "category": "Groceries", "amount": "5"},
		{"date": "not-a-date", "type": "Expense", "category": "Food", "amount": "5"},
	}
	for i, payload := range cases {
		resp, _ := env.request(t, http.MethodPost, "/api/transactions", token, payload)
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Fatalf("case %d: status %d", i, resp.StatusCode)
		}
	}

	// Nothing was written.
	resp, body := env.request(t, http.MethodGet, "/api/transactions", token, nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"transactions":[]`) {
		t.Fatalf("expected empty ledger, got %s", body)
	}
}

func TestUsersCannotTouchEachOthersRows(t *testing.T) {
	env := newTestEnv(t)
	samToken := env.login(t, "sam", "hunter2")
	priyaToken := env.login(t, "priya", "hunter2")

	resp, body := env.request(t, http.MethodPost, "/api/transactions", samToken, map[string]string{
		"date": "2025-03-09", "type": "Income", "category": "Salary", "amount": "1000",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d", resp.StatusCode)
	}
	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	resp, _ = env.request(t, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", created.ID), priyaToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("cross-user delete: status %d", resp.StatusCode)
	}

	resp, body = env.request(t, http.MethodGet, "/api/transactions", priyaToken, nil)
	if !strings.Contains(string(body), `"transactions":[]`) {
		t.Fatalf("priya should see no rows: %s", body)
	}
	_ = resp
}

func TestGoalLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "sam", "hunter2")

	// target <= saved is rejected before any write
	resp, _ := env.request(t, http.MethodPost, "/api/goals", token, map[string]string{
		"goal": "car", "target_amount": "100", "saved_amount": "100", "deadline": "2026-01-01",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("invalid goal: status %d", resp.StatusCode)
	}
	resp, body := env.request(t, http.MethodGet, "/api/goals", token, nil)
	if !strings.Contains(string(body), `"goals":[]`) {
		t.Fatalf("store should be empty after rejection: %s", body)
	}

	resp, body = env.request(t, http.MethodPost, "/api/goals", token, map[string]string{
		"goal": "Emergency fund", "target_amount": "1000", "saved_amount": "250", "deadline": "2026-06-01",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create goal: status %d: %s", resp.StatusCode, body)
	}

	resp, body = env.request(t, http.MethodGet, "/api/goals", token, nil)
	var list struct {
		Goals []struct {
			Goal     string `json:"goal"`
			Progress string `json:"progress"`
		} `json:"goals"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatalf("decode goals: %v", err)
	}
	if len(list.Goals) != 1 || list.Goals[0].Goal != "Emergency fund" || list.Goals[0].Progress != "0.2500" {
		t.Fatalf("goals mismatch: %s", body)
	}
	_ = resp
}

func TestReportSummary(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "sam", "hunter2")

	seed := []map[string]string{
		{"date": "2025-01-05", "type": "Income", "category": "Salary", "amount": "1000"},
		{"date": "2025-01-12", "type": "Expense", "category": "Food", "amount": "400"},
		{"date": "2025-01-20", "type": "Expense", "category": "Transport", "amount": "100"},
	}
	for _, payload := range seed {
		resp, _ := env.request(t, http.MethodPost, "/api/transactions", token, payload)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("seed: status %d", resp.StatusCode)
		}
	}

	resp, body := env.request(t, http.MethodGet, "/api/reports/summary", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary: status %d", resp.StatusCode)
	}

	var summary struct {
		TotalIncome  string `json:"total_income"`
		TotalExpense string `json:"total_expense"`
		NetSavings   string `json:"net_savings"`
	}
	if err := json.Unmarshal(body, &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.TotalIncome != "1000" || summary.TotalExpense != "500" || summary.NetSavings != "500" {
		t.Fatalf("summary mismatch: %s", body)
	}
}

func TestReportSummaryEmpty(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "sam", "hunter2")

	resp, body := env.request(t, http.MethodGet, "/api/reports/summary", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary: status %d", resp.StatusCode)
	}
	var summary struct {
		TotalIncome string `json:"total_income"`
	}
	if err := json.Unmarshal(body, &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.TotalIncome != "0" {
		t.Fatalf("empty ledger should report zero totals: %s", body)
	}
}

func TestQuotesBatchIsolation(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "sam", "hunter2")

	resp, body := env.request(t, http.MethodGet, "/api/quotes?symbols=AAPL,NOPE", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("quotes: status %d: %s", resp.StatusCode, body)
	}

	var quotes struct {
		Quotes []struct {
			Symbol  string `json:"symbol"`
			Candles []any  `json:"candles"`
			Warning string `json:"warning"`
		} `json:"quotes"`
	}
	if err := json.Unmarshal(body, &quotes); err != nil {
		t.Fatalf("decode quotes: %v", err)
	}
	if len(quotes.Quotes) != 2 {
		t.Fatalf("got %d quote entries: %s", len(quotes.Quotes), body)
	}
	if quotes.Quotes[0].Symbol != "AAPL" || len(quotes.Quotes[0].Candles) != 1 || quotes.Quotes[0].Warning != "" {
		t.Fatalf("AAPL entry: %s", body)
	}
	if quotes.Quotes[1].Symbol != "NOPE" || quotes.Quotes[1].Warning == "" {
		t.Fatalf("NOPE should carry a warning: %s", body)
	}
}

func TestExportTransactionsCSV(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "sam", "hunter2")

	resp, _ := env.request(t, http.MethodPost, "/api/transactions", token, map[string]string{
		"date": "2025-03-09", "type": "Expense", "category": "Food", "amount": "42.50", "notes": "a, b",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("seed: status %d", resp.StatusCode)
	}

	resp, body := env.request(t, http.MethodGet, "/api/export/transactions.csv", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export: status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("content type: %s", ct)
	}
	text := string(body)
	if !strings.HasPrefix(text, "id,date,type,category,amount,notes") {
		t.Fatalf("missing header row: %s", text)
	}
	if !strings.Contains(text, `"a, b"`) {
		t.Fatalf("notes quoting broken: %s", text)
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, _ := env.request(t, http.MethodGet, path, "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: status %d", path, resp.StatusCode)
		}
	}
}
