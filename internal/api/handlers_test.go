package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ledgerdesk/ledger-service/internal/app"
	"github.com/ledgerdesk/ledger-service/internal/auth"
	"github.com/ledgerdesk/ledger-service/internal/domain"
	"github.com/ledgerdesk/ledger-service/internal/store"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	tokens, err := auth.NewTokenManager("test-secret", auth.DefaultTokenTTL)
	if err != nil {
		t.Fatalf("NewTokenManager returned error: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := app.NewService(st, tokens, nil, "ledger.events", logger)
	handlers := NewHandlers(service, logger, false)
	return &testServer{t: t, handler: LedgerRoutes(handlers, service, []string{"http://localhost:3000"})}
}

// do sends a request with an optional JSON body and session token.
func (s *testServer) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			if err != nil {
				s.t.Fatalf("marshal request body: %v", err)
			}
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d, got %d (%s)", status, rec.Code, rec.Body.String())
	}
	body := decode[map[string]string](t, rec)
	if body["error"] != message {
		t.Fatalf("expected error %q, got %q", message, body["error"])
	}
}

func (s *testServer) register(email string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/auth/register", map[string]string{"email": email, "password": "pw", "name": "Owner"}, "")
	if rec.Code != http.StatusCreated {
		s.t.Fatalf("register: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	return decode[app.Session](s.t, rec).Token
}

func (s *testServer) createBusiness(token, name string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/businesses", map[string]string{"name": name, "type": "retail"}, token)
	if rec.Code != http.StatusCreated {
		s.t.Fatalf("create business: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	return decode[domain.Business](s.t, rec).ID
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(http.MethodGet, "/health", nil, "")
	if rec.Code != http.StatusOK || rec.Body.String() != "healthy" {
		t.Fatalf("expected 200 healthy, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestRegisterSetsSessionCookie(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(http.MethodPost, "/auth/register", map[string]string{"email": "a@x.com", "password": "pw", "name": "Alice"}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	session := decode[app.Session](t, rec)
	if session.User.Email != "a@x.com" || session.Token == "" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("response leaks the password field: %s", rec.Body.String())
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != SessionCookieName || c.Value != session.Token {
		t.Fatalf("unexpected cookie %s=%s", c.Name, c.Value)
	}
	if !c.HttpOnly || c.SameSite != http.SameSiteStrictMode || c.Path != "/" {
		t.Fatalf("cookie attributes not set: %+v", c)
	}
	if c.MaxAge != 7*24*60*60 {
		t.Fatalf("expected 7 day max age, got %d", c.MaxAge)
	}
	if c.Secure {
		t.Fatal("expected non-secure cookie outside production")
	}
}

func TestRegisterErrors(t *testing.T) {
	srv := newTestServer(t)
	srv.register("a@x.com")

	tests := []struct {
		name    string
		body    interface{}
		status  int
		message string
	}{
		{"duplicate", map[string]string{"email": "a@x.com", "password": "pw", "name": "A"}, http.StatusConflict, "User already exists"},
		{"missing name", map[string]string{"email": "b@x.com", "password": "pw"}, http.StatusBadRequest, "All fields required"},
		{"bad email", map[string]string{"email": "nope", "password": "pw", "name": "B"}, http.StatusBadRequest, "Invalid email address"},
		{"malformed body", "{", http.StatusBadRequest, "Invalid request body"},
		{"password too long", map[string]string{"email": "c@x.com", "password": strings.Repeat("p", 80), "name": "C"}, http.StatusBadRequest, "Password too long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(http.MethodPost, "/auth/register", tt.body, "")
			expectError(t, rec, tt.status, tt.message)
		})
	}
}

func TestLogin(t *testing.T) {
	srv := newTestServer(t)
	srv.register("a@x.com")

	rec := srv.do(http.MethodPost, "/auth/login", map[string]string{"email": "a@x.com", "password": "pw"}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(rec.Result().Cookies()) != 1 {
		t.Fatal("expected login to set the session cookie")
	}

	rec = srv.do(http.MethodPost, "/auth/login", map[string]string{"email": "a@x.com", "password": "bad"}, "")
	expectError(t, rec, http.StatusUnauthorized, "Invalid credentials")

	rec = srv.do(http.MethodPost, "/auth/login", map[string]string{"email": "a@x.com"}, "")
	expectError(t, rec, http.StatusBadRequest, "Email and password required")
}

func TestMe(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register("a@x.com")

	expectError(t, srv.do(http.MethodGet, "/auth/me", nil, ""), http.StatusUnauthorized, "No token provided")
	expectError(t, srv.do(http.MethodGet, "/auth/me", nil, "garbage"), http.StatusUnauthorized, "Invalid token")

	rec := srv.do(http.MethodGet, "/auth/me", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	body := decode[struct {
		User domain.PublicUser `json:"user"`
	}](t, rec)
	if body.User.Email != "a@x.com" {
		t.Fatalf("unexpected user: %+v", body.User)
	}

	// Bearer header is accepted as a fallback.
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	bearer := httptest.NewRecorder()
	srv.handler.ServeHTTP(bearer, req)
	if bearer.Code != http.StatusOK {
		t.Fatalf("expected bearer token to be accepted, got %d", bearer.Code)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(http.MethodPost, "/auth/logout", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookieName || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected an expired session cookie, got %+v", cookies)
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	srv := newTestServer(t)
	expectError(t, srv.do(http.MethodGet, "/businesses", nil, ""), http.StatusUnauthorized, "Unauthorized")
	expectError(t, srv.do(http.MethodGet, "/businesses", nil, "forged"), http.StatusUnauthorized, "Unauthorized")
}

func TestListsRequireBusinessID(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register("a@x.com")

	for _, path := range []string{
		"/bank-accounts", "/cheques", "/cheques/export", "/customers", "/invoices",
		"/suppliers", "/purchase-orders", "/credit-accounts", "/credit-transactions",
	} {
		t.Run(path, func(t *testing.T) {
			expectError(t, srv.do(http.MethodGet, path, nil, token), http.StatusBadRequest, "Business ID required")
		})
	}
}

func TestEmptyListsAreArrays(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register("a@x.com")
	businessID := srv.createBusiness(token, "Shop")

	rec := srv.do(http.MethodGet, "/cheques?businessId="+businessID, nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("expected empty array, got %s", got)
	}
}

func TestChequeFlow(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register("a@x.com")
	businessID := srv.createBusiness(token, "Shop")

	rec := srv.do(http.MethodPost, "/bank-accounts", map[string]interface{}{
		"businessId": businessID, "bankName": "First", "accountNumber": "001", "accountType": "checking", "balance": 100,
	}, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create bank account: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	account := decode[domain.BankAccount](t, rec)

	rec = srv.do(http.MethodPost, "/cheques", map[string]interface{}{
		"bankAccountId": account.ID, "chequeNumber": "001", "payee": "Rent", "amount": 40, "date": "2024-03-15",
	}, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("issue cheque: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	cheque := decode[domain.Cheque](t, rec)

	balance := func() string {
		rec := srv.do(http.MethodGet, "/bank-accounts?businessId="+businessID, nil, token)
		accounts := decode[[]domain.BankAccount](t, rec)
		if len(accounts) != 1 {
			t.Fatalf("expected one account, got %d", len(accounts))
		}
		return accounts[0].Balance.String()
	}
	if got := balance(); got != "60" {
		t.Fatalf("expected balance 60, got %s", got)
	}

	rec = srv.do(http.MethodPost, "/cheques", map[string]interface{}{
		"bankAccountId": account.ID, "chequeNumber": "002", "payee": "Big", "amount": 61, "date": "2024-03-15",
	}, token)
	expectError(t, rec, http.StatusBadRequest, "Insufficient balance")

	rec = srv.do(http.MethodPatch, "/cheques/"+cheque.ID, map[string]string{"status": "cancelled"}, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel cheque: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if got := balance(); got != "100" {
		t.Fatalf("expected balance 100 after cancel, got %s", got)
	}

	expectError(t, srv.do(http.MethodPatch, "/cheques/"+cheque.ID, map[string]string{"status": "cleared"}, token),
		http.StatusBadRequest, "Cheque status is final")
	expectError(t, srv.do(http.MethodPatch, "/cheques/"+cheque.ID, map[string]string{"status": "lost"}, token),
		http.StatusBadRequest, "Invalid status")
	expectError(t, srv.do(http.MethodPatch, "/cheques/missing", map[string]string{"status": "cleared"}, token),
		http.StatusNotFound, "Cheque not found")

	rec = srv.do(http.MethodGet, "/cheques/export?businessId="+businessID, nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("expected xlsx content type, got %q", ct)
	}
}

func TestInvoiceFlow(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register("a@x.com")
	businessID := srv.createBusiness(token, "Shop")

	rec := srv.do(http.MethodPost, "/customers", map[string]string{"businessId": businessID, "name": "Bob"}, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create customer: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	customer := decode[domain.Customer](t, rec)

	rec = srv.do(http.MethodPost, "/invoices", map[string]interface{}{
		"businessId": businessID, "customerId": customer.ID, "invoiceNumber": "INV-001",
		"date": "2024-03-01", "dueDate": "2024-03-31", "tax": 2.5,
		"items": []map[string]interface{}{
			{"description": "Widget", "quantity": 2, "rate": 10, "amount": 20},
			{"description": "Gadget", "quantity": 1, "rate": 5, "amount": 5},
		},
	}, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create invoice: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	raw := decode[map[string]interface{}](t, rec)
	if raw["subtotal"] != float64(25) || raw["total"] != 27.5 {
		t.Fatalf("expected numeric subtotal 25 and total 27.5, got %v and %v", raw["subtotal"], raw["total"])
	}
	invoiceID, _ := raw["id"].(string)

	rec = srv.do(http.MethodPost, "/invoices", map[string]interface{}{
		"businessId": businessID, "customerId": customer.ID, "invoiceNumber": "INV-002",
		"date": "2024-03-01", "dueDate": "2024-03-31", "items": []interface{}{},
	}, token)
	expectError(t, rec, http.StatusBadRequest, "Required fields missing")

	rec = srv.do(http.MethodPatch, "/invoices/"+invoiceID, map[string]string{"status": "sent"}, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("update invoice: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = srv.do(http.MethodGet, "/invoices?businessId="+businessID+"&status=sent&q=bob", nil, token)
	if invoices := decode[[]domain.Invoice](t, rec); len(invoices) != 1 {
		t.Fatalf("expected filtered list to contain the invoice, got %d", len(invoices))
	}

	rec = srv.do(http.MethodGet, "/invoices/"+invoiceID+"/pdf", nil, token)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("expected PDF download, got %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("expected PDF body")
	}

	rec = srv.do(http.MethodGet, "/businesses/"+businessID+"/summary", nil, token)
	summary := decode[domain.BusinessSummary](t, rec)
	if summary.Sales.Outstanding.String() != "27.5" {
		t.Fatalf("expected outstanding 27.5 in summary, got %s", summary.Sales.Outstanding)
	}
}

func TestCreditFlow(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register("a@x.com")
	businessID := srv.createBusiness(token, "Shop")

	rec := srv.do(http.MethodPost, "/credit-accounts", map[string]interface{}{
		"businessId": businessID, "accountName": "Line", "creditLimit": 500,
	}, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create credit account: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	account := decode[domain.CreditAccount](t, rec)

	post := func(kind string, amount float64) *httptest.ResponseRecorder {
		return srv.do(http.MethodPost, "/credit-transactions", map[string]interface{}{
			"creditAccountId": account.ID, "type": kind, "amount": amount, "description": kind, "date": "2024-03-15",
		}, token)
	}

	if rec := post("charge", 500); rec.Code != http.StatusCreated {
		t.Fatalf("charge: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	expectError(t, post("charge", 1), http.StatusBadRequest, "Transaction exceeds credit limit")
	if rec := post("payment", 500); rec.Code != http.StatusCreated {
		t.Fatalf("payment: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	expectError(t, post("payment", 1), http.StatusBadRequest, "Payment exceeds current balance")
	expectError(t, post("interest", 1), http.StatusBadRequest, "Invalid transaction type")

	rec = srv.do(http.MethodGet, "/credit-transactions?businessId="+businessID+"&type=payment", nil, token)
	if txns := decode[[]domain.CreditTransaction](t, rec); len(txns) != 1 {
		t.Fatalf("expected one payment, got %d", len(txns))
	}
}

func TestCrossTenantRequestsAreNotFound(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.register("alice@x.com")
	bob := srv.register("bob@x.com")
	businessID := srv.createBusiness(alice, "Alice Shop")

	expectError(t, srv.do(http.MethodGet, "/bank-accounts?businessId="+businessID, nil, bob),
		http.StatusNotFound, "Business not found")
	expectError(t, srv.do(http.MethodGet, "/businesses/"+businessID+"/summary", nil, bob),
		http.StatusNotFound, "Business not found")

	rec := srv.do(http.MethodGet, "/businesses", nil, bob)
	if businesses := decode[[]domain.Business](t, rec); len(businesses) != 0 {
		t.Fatalf("expected bob to see no businesses, got %d", len(businesses))
	}
}

func TestWriteServiceError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	rec := httptest.NewRecorder()
	writeServiceError(rec, logger, "login", &app.RateLimitError{RetryAfterSeconds: 30})
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") != "30" {
		t.Fatalf("expected 429 with Retry-After 30, got %d %q", rec.Code, rec.Header().Get("Retry-After"))
	}

	rec = httptest.NewRecorder()
	writeServiceError(rec, logger, "test", errors.New("disk on fire"))
	expectError(t, rec, http.StatusInternalServerError, "Internal server error")
}
