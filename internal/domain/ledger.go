/**
 * @description
 * This file defines the core domain models for the ledger-service. Every record is
 * persisted as one JSON object in its collection, so the JSON tags below are also the
 * on-disk field names.
 *
 * @notes
 * - Money is carried as decimal.Decimal and encoded as a JSON number.
 * - User-entered dates (date, dueDate, expectedDate) stay YYYY-MM-DD strings.
 */

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Keep money as JSON numbers on the wire and on disk.
	decimal.MarshalJSONWithoutQuotes = true
}

// DateLayout is the layout of user-entered calendar dates.
const DateLayout = "2006-01-02"

// User is an account holder. Password holds a bcrypt hash and is never serialised
// back to clients; see PublicUser.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// PublicUser is the client-facing projection of a User.
type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Public strips credentials from the user.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Name: u.Name}
}

// Business is the tenant scope; every ledger record hangs off one.
type Business struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type BankAccount struct {
	ID            string          `json:"id"`
	BusinessID    string          `json:"businessId"`
	BankName      string          `json:"bankName"`
	AccountNumber string          `json:"accountNumber"`
	AccountType   string          `json:"accountType"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type Cheque struct {
	ID            string          `json:"id"`
	BankAccountID string          `json:"bankAccountId"`
	ChequeNumber  string          `json:"chequeNumber"`
	Payee         string          `json:"payee"`
	Amount        decimal.Decimal `json:"amount"`
	Date          string          `json:"date"`
	Memo          string          `json:"memo"`
	Status        ChequeStatus    `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type Customer struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"businessId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Address    string    `json:"address"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Supplier struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"businessId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Address    string    `json:"address"`
	CreatedAt  time.Time `json:"createdAt"`
}

// LineItem is an invoice or purchase-order line. Items are immutable once the
// parent document is created.
type LineItem struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
}

type Invoice struct {
	ID            string          `json:"id"`
	BusinessID    string          `json:"businessId"`
	CustomerID    string          `json:"customerId"`
	InvoiceNumber string          `json:"invoiceNumber"`
	Date          string          `json:"date"`
	DueDate       string          `json:"dueDate"`
	Items         []LineItem      `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	Status        InvoiceStatus   `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type PurchaseOrder struct {
	ID           string              `json:"id"`
	BusinessID   string              `json:"businessId"`
	SupplierID   string              `json:"supplierId"`
	OrderNumber  string              `json:"orderNumber"`
	Date         string              `json:"date"`
	ExpectedDate string              `json:"expectedDate"`
	Items        []LineItem          `json:"items"`
	Subtotal     decimal.Decimal     `json:"subtotal"`
	Tax          decimal.Decimal     `json:"tax"`
	Total        decimal.Decimal     `json:"total"`
	Status       PurchaseOrderStatus `json:"status"`
	CreatedAt    time.Time           `json:"createdAt"`
}

// CreditAccount is a revolving line. CurrentBalance is what the business owes and
// stays within [0, CreditLimit].
type CreditAccount struct {
	ID             string          `json:"id"`
	BusinessID     string          `json:"businessId"`
	AccountName    string          `json:"accountName"`
	CreditLimit    decimal.Decimal `json:"creditLimit"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	InterestRate   decimal.Decimal `json:"interestRate"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// AvailableCredit is the headroom left under the limit.
func (a CreditAccount) AvailableCredit() decimal.Decimal {
	return a.CreditLimit.Sub(a.CurrentBalance)
}

type CreditTransaction struct {
	ID              string                `json:"id"`
	CreditAccountID string                `json:"creditAccountId"`
	Type            CreditTransactionType `json:"type"`
	Amount          decimal.Decimal       `json:"amount"`
	Description     string                `json:"description"`
	Date            string                `json:"date"`
	CreatedAt       time.Time             `json:"createdAt"`
}
