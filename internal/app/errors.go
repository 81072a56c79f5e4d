package app

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrUserExists             = errors.New("user already exists")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrUserNotFound           = errors.New("user not found")
	ErrBusinessNotFound       = errors.New("business not found")
	ErrBankAccountNotFound    = errors.New("bank account not found")
	ErrChequeNotFound         = errors.New("cheque not found")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrInvalidStatus          = errors.New("invalid status")
	ErrChequeStatusFinal      = errors.New("cheque status is final")
	ErrCustomerNotFound       = errors.New("customer not found")
	ErrSupplierNotFound       = errors.New("supplier not found")
	ErrInvoiceNotFound        = errors.New("invoice not found")
	ErrPurchaseOrderNotFound  = errors.New("purchase order not found")
	ErrCreditAccountNotFound  = errors.New("credit account not found")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrCreditLimitExceeded    = errors.New("transaction exceeds credit limit")
	ErrPaymentExceedsBalance  = errors.New("payment exceeds current balance")
	ErrRateLimited            = errors.New("too many attempts")
)

// ValidationError carries a client-facing message for a rejected request.
// It matches ErrInvalidInput under errors.Is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalidInput(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// RateLimitError reports a throttled login and when the caller may retry.
type RateLimitError struct {
	RetryAfterSeconds int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many attempts; retry after %ds", e.RetryAfterSeconds)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}
