package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/ledgerdesk/ledger-service/internal/app"
)

var validate = validator.New()

// writeJSON is a helper for writing JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags. Any failure is
// reported to the client as a 400 with invalidMessage.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}, invalidMessage string) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				if fe.Tag() == "email" {
					writeError(w, http.StatusBadRequest, "Invalid email address")
					return false
				}
			}
		}
		writeError(w, http.StatusBadRequest, invalidMessage)
		return false
	}
	return true
}

type errorMapping struct {
	target  error
	status  int
	message string
}

var serviceErrors = []errorMapping{
	{app.ErrUserExists, http.StatusConflict, "User already exists"},
	{app.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{app.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{app.ErrBusinessNotFound, http.StatusNotFound, "Business not found"},
	{app.ErrBankAccountNotFound, http.StatusNotFound, "Bank account not found"},
	{app.ErrChequeNotFound, http.StatusNotFound, "Cheque not found"},
	{app.ErrCustomerNotFound, http.StatusNotFound, "Customer not found"},
	{app.ErrSupplierNotFound, http.StatusNotFound, "Supplier not found"},
	{app.ErrInvoiceNotFound, http.StatusNotFound, "Invoice not found"},
	{app.ErrPurchaseOrderNotFound, http.StatusNotFound, "Purchase order not found"},
	{app.ErrCreditAccountNotFound, http.StatusNotFound, "Credit account not found"},
	{app.ErrInsufficientBalance, http.StatusBadRequest, "Insufficient balance"},
	{app.ErrInvalidStatus, http.StatusBadRequest, "Invalid status"},
	{app.ErrChequeStatusFinal, http.StatusBadRequest, "Cheque status is final"},
	{app.ErrInvalidTransactionType, http.StatusBadRequest, "Invalid transaction type"},
	{app.ErrCreditLimitExceeded, http.StatusBadRequest, "Transaction exceeds credit limit"},
	{app.ErrPaymentExceedsBalance, http.StatusBadRequest, "Payment exceeds current balance"},
}

// writeServiceError maps a service error to its HTTP status and client message.
// Unmapped errors are logged and reported as 500.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, endpoint string, err error) {
	var verr *app.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Message)
		return
	}

	var rlErr *app.RateLimitError
	if errors.As(err, &rlErr) {
		w.Header().Set("Retry-After", strconv.Itoa(rlErr.RetryAfterSeconds))
		writeError(w, http.StatusTooManyRequests, "Too many login attempts, try again later")
		return
	}

	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			writeError(w, m.status, m.message)
			return
		}
	}

	logger.Error("request failed", "endpoint", endpoint, "error", err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}
