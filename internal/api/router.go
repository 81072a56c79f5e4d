/**
 * @description
 * This file sets up the HTTP router for the ledger-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies the
 * middleware stack: request logging, panic recovery, timeouts, CORS and session auth.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS for the browser client, which sends the session cookie.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// LedgerRoutes creates and returns the router for the ledger service.
func LedgerRoutes(h *Handlers, verifier TokenVerifier, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.RegisterHandler)
		r.Post("/login", h.LoginHandler)
		r.Post("/logout", h.LogoutHandler)
		r.Get("/me", h.MeHandler)
	})

	// Group routes that require a session.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(verifier))

		r.Get("/businesses", h.ListBusinessesHandler)
		r.Post("/businesses", h.CreateBusinessHandler)
		r.Get("/businesses/{id}/summary", h.BusinessSummaryHandler)

		r.Get("/bank-accounts", h.ListBankAccountsHandler)
		r.Post("/bank-accounts", h.CreateBankAccountHandler)

		r.Get("/cheques", h.ListChequesHandler)
		r.Post("/cheques", h.IssueChequeHandler)
		r.Get("/cheques/export", h.ExportChequesHandler)
		r.Patch("/cheques/{id}", h.UpdateChequeStatusHandler)

		r.Get("/customers", h.ListCustomersHandler)
		r.Post("/customers", h.CreateCustomerHandler)

		r.Get("/invoices", h.ListInvoicesHandler)
		r.Post("/invoices", h.CreateInvoiceHandler)
		r.Get("/invoices/{id}", h.GetInvoiceHandler)
		r.Patch("/invoices/{id}", h.UpdateInvoiceStatusHandler)
		r.Get("/invoices/{id}/pdf", h.InvoicePDFHandler)

		r.Get("/suppliers", h.ListSuppliersHandler)
		r.Post("/suppliers", h.CreateSupplierHandler)

		r.Get("/purchase-orders", h.ListPurchaseOrdersHandler)
		r.Post("/purchase-orders", h.CreatePurchaseOrderHandler)
		r.Get("/purchase-orders/{id}", h.GetPurchaseOrderHandler)
		r.Patch("/purchase-orders/{id}", h.UpdatePurchaseOrderStatusHandler)
		r.Get("/purchase-orders/{id}/pdf", h.PurchaseOrderPDFHandler)

		r.Get("/credit-accounts", h.ListCreditAccountsHandler)
		r.Post("/credit-accounts", h.CreateCreditAccountHandler)

		r.Get("/credit-transactions", h.ListCreditTransactionsHandler)
		r.Post("/credit-transactions", h.CreateCreditTransactionHandler)
	})

	return r
}
