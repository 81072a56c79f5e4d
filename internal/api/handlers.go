/**
 * @description
 * This file contains the HTTP handlers for the ledger-service API. Handlers decode and
 * validate the request, call the service layer, and map its sentinel errors to the
 * `{"error": "..."}` responses the web client expects.
 *
 * @dependencies
 * - internal/app: The service layer that holds all ledger rules.
 * - internal/domain: Request DTOs and records.
 * - internal/export: PDF and XLSX rendering for downloads.
 */

package api

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ledgerdesk/ledger-service/internal/app"
	"github.com/ledgerdesk/ledger-service/internal/domain"
	"github.com/ledgerdesk/ledger-service/internal/export"
)

// Handlers holds the dependencies of the HTTP handlers.
type Handlers struct {
	service      *app.Service
	logger       *slog.Logger
	secureCookie bool
}

// NewHandlers creates the handler set. secureCookie marks the session cookie Secure and
// should be set in production.
func NewHandlers(service *app.Service, logger *slog.Logger, secureCookie bool) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{service: service, logger: logger, secureCookie: secureCookie}
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, token string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

// userID reads the authenticated user from the context set by AuthMiddleware.
func (h *Handlers) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := GetUserID(r.Context())
	if !ok || userID == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}
	return userID, true
}

// businessScope returns the caller and the required businessId query parameter.
func (h *Handlers) businessScope(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	userID, ok := h.userID(w, r)
	if !ok {
		return "", "", false
	}
	businessID := strings.TrimSpace(r.URL.Query().Get("businessId"))
	if businessID == "" {
		writeError(w, http.StatusBadRequest, "Business ID required")
		return "", "", false
	}
	return userID, businessID, true
}

func listFilter(r *http.Request) domain.ListFilter {
	q := r.URL.Query()
	return domain.ListFilter{
		Query:  q.Get("q"),
		Status: q.Get("status"),
		Type:   q.Get("type"),
	}
}

// --- Auth ---

// RegisterHandler creates an account and starts a session.
func (h *Handlers) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decodeAndValidate(w, r, &req, "All fields required") {
		return
	}
	session, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, "register", err)
		return
	}
	h.setSessionCookie(w, session.Token, h.service.TokenTTL())
	writeJSON(w, http.StatusCreated, session)
}

// LoginHandler checks credentials and starts a session.
func (h *Handlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeAndValidate(w, r, &req, "Email and password required") {
		return
	}
	session, err := h.service.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, "login", err)
		return
	}
	h.setSessionCookie(w, session.Token, h.service.TokenTTL())
	writeJSON(w, http.StatusOK, session)
}

// LogoutHandler clears the session cookie.
func (h *Handlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// MeHandler returns the user behind the session token.
func (h *Handlers) MeHandler(w http.ResponseWriter, r *http.Request) {
	token := tokenFromRequest(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "No token provided")
		return
	}
	userID, err := h.service.Authenticate(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	user, err := h.service.CurrentUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, "me", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

// --- Businesses ---

func (h *Handlers) ListBusinessesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	businesses, err := h.service.ListBusinesses(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, "list_businesses", err)
		return
	}
	writeJSON(w, http.StatusOK, businesses)
}

func (h *Handlers) CreateBusinessHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req domain.CreateBusinessRequest
	if !decodeAndValidate(w, r, &req, "Name and type required") {
		return
	}
	business, err := h.service.CreateBusiness(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, h.logger, "create_business", err)
		return
	}
	writeJSON(w, http.StatusCreated, business)
}

// BusinessSummaryHandler returns the dashboard totals of one business.
func (h *Handlers) BusinessSummaryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	summary, err := h.service.BusinessSummary(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, "business_summary", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// --- Banking ---

func (h *Handlers) ListBankAccountsHandler(w http.ResponseWriter, r *http.Request) {
	userID, businessID, ok := h.businessScope(w, r)
	if !ok {
		return
	}
	accounts, err := h.service.ListBankAccounts(r.Context(), userID, businessID)
	if err != nil {
		writeServiceError(w, h.logger, "list_bank_accounts", err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (h *Handlers) CreateBankAccountHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req domain.CreateBankAccountRequest
	if !decodeAndValidate(w, r, &req, "Required fields missing") {
		return
	}
	account, err := h.service.CreateBankAccount(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, h.logger, "create_bank_account", err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (h *Handlers) ListChequesHandler(w http.ResponseWriter, r *http.Request) {
	userID, businessID, ok := h.businessScope(w, r)
	if !ok {
		return
	}
	cheques, err := h.service.ListCheques(r.Context(), userID, businessID, listFilter(r))
	if err != nil {
		writeServiceError(w, h.logger, "list_cheques", err)
		return
	}
	writeJSON(w, http.StatusOK, cheques)
}

func (h *Handlers) IssueChequeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req domain.IssueChequeRequest
	if !decodeAndValidate(w, r, &req, "Required fields missing") {
		return
	}
	cheque, err := h.service.IssueCheque(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, h.logger, "issue_cheque", err)
		return
	}
	writeJSON(w, http.StatusCreated, cheque)
}

func (h *Handlers) UpdateChequeStatusHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req domain.StatusUpdateRequest
	if !decodeAndValidate(w, r, &req, "Invalid status") {
		return
	}
	cheque, err := h.service.UpdateChequeStatus(r.Context(), userID, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeServiceError(w, h.logger, "update_cheque_status", err)
		return
	}
	writeJSON(w, http.StatusOK, cheque)
}

// ExportChequesHandler downloads the cheque register of a business as XLSX.
func (h *Handlers) ExportChequesHandler(w http.ResponseWriter, r *http.Request) {
	userID, businessID, ok := h.businessScope(w, r)
	if !ok {
		return
	}
	name, rows, err := h.service.ChequeRegister(r.Context(), userID, businessID)
	if err != nil {
		writeServiceError(w, h.logger, "export_cheques", err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteChequeRegister(&buf, name, rows); err != nil {
		writeServiceError(w, h.logger, "export_cheques", err)
		return
	}
	writeDownload(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "cheques.xlsx", buf.Bytes())
}

// --- Sales ---

func (h *Handlers) ListCustomersHandler(w http.ResponseWriter, r *http.Request) {
	userID, businessID, ok := h.businessScope(w, r)
	if !ok {
		return
	}
	customers, err := h.service.ListCustomers(r.Context(), userID, businessID, listFilter(r))
	if err != nil {
		writeServiceError(w, h.logger, "list_customers", err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

func (h *Handlers) CreateCustomerHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req domain.CounterpartyRequest
	if !decodeAndValidate(w, r, &req, "Business ID and name required") {
		return
	}
	customer, err := h.service.CreateCustomer(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, h.logger, "create_customer", err)
		return
	}
	writeJSON(w, http.StatusCreated, customer)
}

func (h *Handlers) ListInvoicesHandler(w http.ResponseWriter, r *http.Request) {
	userID, businessID, ok := h.businessScope(w, r)
	if !ok {
		return
	}
	invoices, err := h.service.ListInvoices(r.Context(), userID, businessID, listFilter(r))
	if err != nil {
		writeServiceError(w, h.logger, "list_invoices", err)
		return
	}
	writeJSON(w, http.StatusOK, invoices)
}

func (h *Handlers) CreateInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req domain.CreateInvoiceRequest
	if !decodeAndValidate(w, r, &req, "Required fields missing") {
		return
	}
	invoice, err := h.service.CreateInvoice(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, h.logger, "create_invoice", err)
		return
	}
	writeJSON(w, http.StatusCreated, invoice)
}

func (h *Handlers) GetInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	invoice, err := h.service.GetInvoice(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, "get_invoice", err)
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

func (h *Handlers) UpdateInvoiceStatusHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req domain.StatusUpdateRequest
	if !decodeAndValidate(w, r, &req, "Invalid status") {
		return
	}
	invoice, err := h.service.UpdateInvoiceStatus(r.Context(), userID, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeServiceError(w, h.logger, "update_invoice_status", err)
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

func (h *Handlers) InvoicePDFHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	doc, err := h.service.InvoiceDocument(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, "invoice_pdf", err)
		return
	}
	h.writePDF(w, "invoice_pdf", fmt.Sprintf("invoice-%s.pdf", doc.Number), doc)
}

// --- Purchases ---

func (h *Handlers) ListSuppliersHandler(w http.ResponseWriter, r *http.Request) {
	userID, businessID, ok := h.businessScope(w, r)
	if !ok {
		return
	}
	suppliers, err := h.service.ListSuppliers(r.Context(), userID, businessID, listFilter(r))
	if err != nil {
		writeServiceError(w, h.logger, "list_suppliers", err)
		return
	}
	writeJSON(w, http.StatusOK, suppliers)
}

func (h *Handlers) CreateSupplierHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req domain.CounterpartyRequest
	if !decodeAndValidate(w, r, &req, "Business ID and name required") {
		return
	}
	supplier, err := h.service.CreateSupplier(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, h.logger, "create_supplier", err)
		return
	}
	writeJSON(w, http.StatusCreated, supplier)
}

func (h *Handlers) ListPurchaseOrdersHandler(w http.ResponseWriter, r *http.Request) {
	userID, businessID, ok := h.businessScope(w, r)
	if !ok {
		return
	}
	orders, err := h.service.ListPurchaseOrders(r.Context(), userID, businessID, listFilter(r))
	if err != nil {
		writeServiceError(w, h.logger, "list_purchase_orders", err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handlers) CreatePurchaseOrderHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req domain.CreatePurchaseOrderRequest
	if !decodeAndValidate(w, r, &req, "Required fields missing") {
		return
	}
	order, err := h.service.CreatePurchaseOrder(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, h.logger, "create_purchase_order", err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *Handlers) GetPurchaseOrderHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	order, err := h.service.GetPurchaseOrder(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, "get_purchase_order", err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handlers) UpdatePurchaseOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req domain.StatusUpdateRequest
	if !decodeAndValidate(w, r, &req, "Invalid status") {
		return
	}
	order, err := h.service.UpdatePurchaseOrderStatus(r.Context(), userID, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeServiceError(w, h.logger, "update_purchase_order_status", err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handlers) PurchaseOrderPDFHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	doc, err := h.service.PurchaseOrderDocument(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, "purchase_order_pdf", err)
		return
	}
	h.writePDF(w, "purchase_order_pdf", fmt.Sprintf("purchase-order-%s.pdf", doc.Number), doc)
}

// --- Credit ---

func (h *Handlers) ListCreditAccountsHandler(w http.ResponseWriter, r *http.Request) {
	userID, businessID, ok := h.businessScope(w, r)
	if !ok {
		return
	}
	accounts, err := h.service.ListCreditAccounts(r.Context(), userID, businessID)
	if err != nil {
		writeServiceError(w, h.logger, "list_credit_accounts", err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (h *Handlers) CreateCreditAccountHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req domain.CreateCreditAccountRequest
	if !decodeAndValidate(w, r, &req, "Required fields missing") {
		return
	}
	account, err := h.service.CreateCreditAccount(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, h.logger, "create_credit_account", err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (h *Handlers) ListCreditTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, businessID, ok := h.businessScope(w, r)
	if !ok {
		return
	}
	txns, err := h.service.ListCreditTransactions(r.Context(), userID, businessID, listFilter(r))
	if err != nil {
		writeServiceError(w, h.logger, "list_credit_transactions", err)
		return
	}
	writeJSON(w, http.StatusOK, txns)
}

func (h *Handlers) CreateCreditTransactionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req domain.CreateCreditTransactionRequest
	if !decodeAndValidate(w, r, &req, "Required fields missing") {
		return
	}
	txn, err := h.service.CreateCreditTransaction(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, h.logger, "create_credit_transaction", err)
		return
	}
	writeJSON(w, http.StatusCreated, txn)
}

// --- Downloads ---

func (h *Handlers) writePDF(w http.ResponseWriter, endpoint, filename string, doc *export.Document) {
	var buf bytes.Buffer
	if err := export.WriteDocumentPDF(&buf, *doc); err != nil {
		writeServiceError(w, h.logger, endpoint, err)
		return
	}
	writeDownload(w, "application/pdf", filename, buf.Bytes())
}

func writeDownload(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
