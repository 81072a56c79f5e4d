package domain

import "github.com/shopspring/decimal"

// Request DTOs. Struct tags drive go-playground/validator; money rules that
// validator cannot express on decimal.Decimal are enforced by the services.

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CreateBusinessRequest struct {
	Name    string `json:"name" validate:"required"`
	Type    string `json:"type" validate:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

type CreateBankAccountRequest struct {
	BusinessID    string           `json:"businessId" validate:"required"`
	BankName      string           `json:"bankName" validate:"required"`
	AccountNumber string           `json:"accountNumber" validate:"required"`
	AccountType   string           `json:"accountType" validate:"required"`
	Balance       *decimal.Decimal `json:"balance" validate:"required"`
}

type IssueChequeRequest struct {
	BankAccountID string          `json:"bankAccountId" validate:"required"`
	ChequeNumber  string          `json:"chequeNumber" validate:"required"`
	Payee         string          `json:"payee" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Date          string          `json:"date" validate:"required"`
	Memo          string          `json:"memo"`
}

// StatusUpdateRequest is the PATCH body shared by cheques, invoices and purchase orders.
type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

// CounterpartyRequest creates a customer or a supplier.
type CounterpartyRequest struct {
	BusinessID string `json:"businessId" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
}

type LineItemInput struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
}

type CreateInvoiceRequest struct {
	BusinessID    string          `json:"businessId" validate:"required"`
	CustomerID    string          `json:"customerId" validate:"required"`
	InvoiceNumber string          `json:"invoiceNumber" validate:"required"`
	Date          string          `json:"date" validate:"required"`
	DueDate       string          `json:"dueDate" validate:"required"`
	Items         []LineItemInput `json:"items" validate:"required,min=1"`
	Tax           decimal.Decimal `json:"tax"`
}

type CreatePurchaseOrderRequest struct {
	BusinessID   string          `json:"businessId" validate:"required"`
	SupplierID   string          `json:"supplierId" validate:"required"`
	OrderNumber  string          `json:"orderNumber" validate:"required"`
	Date         string          `json:"date" validate:"required"`
	ExpectedDate string          `json:"expectedDate" validate:"required"`
	Items        []LineItemInput `json:"items" validate:"required,min=1"`
	Tax          decimal.Decimal `json:"tax"`
}

type CreateCreditAccountRequest struct {
	BusinessID   string           `json:"businessId" validate:"required"`
	AccountName  string           `json:"accountName" validate:"required"`
	CreditLimit  *decimal.Decimal `json:"creditLimit" validate:"required"`
	InterestRate decimal.Decimal  `json:"interestRate"`
}

type CreateCreditTransactionRequest struct {
	CreditAccountID string          `json:"creditAccountId" validate:"required"`
	Type            string          `json:"type" validate:"required"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description" validate:"required"`
	Date            string          `json:"date" validate:"required"`
}

// ListFilter carries the optional list query parameters.
type ListFilter struct {
	Query  string
	Status string
	Type   string
}
