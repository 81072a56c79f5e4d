package domain

import "github.com/shopspring/decimal"

// BusinessSummary aggregates the dashboard figures for one business.
type BusinessSummary struct {
	BusinessID string           `json:"businessId"`
	Bank       BankSummary      `json:"bank"`
	Cheques    ChequeSummary    `json:"cheques"`
	Sales      SalesSummary     `json:"sales"`
	Purchases  PurchasesSummary `json:"purchases"`
	Credit     CreditSummary    `json:"credit"`
}

type BankSummary struct {
	Accounts     int             `json:"accounts"`
	TotalBalance decimal.Decimal `json:"totalBalance"`
}

type ChequeSummary struct {
	Pending       int             `json:"pending"`
	PendingAmount decimal.Decimal `json:"pendingAmount"`
}

type SalesSummary struct {
	Invoices    int             `json:"invoices"`
	Paid        decimal.Decimal `json:"paid"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Overdue     decimal.Decimal `json:"overdue"`
}

type PurchasesSummary struct {
	Orders   int             `json:"orders"`
	Paid     decimal.Decimal `json:"paid"`
	Ordered  decimal.Decimal `json:"ordered"`
	Received decimal.Decimal `json:"received"`
}

type CreditSummary struct {
	TotalLimit    decimal.Decimal `json:"totalLimit"`
	TotalBalance  decimal.Decimal `json:"totalBalance"`
	Available     decimal.Decimal `json:"available"`
	TotalCharges  decimal.Decimal `json:"totalCharges"`
	TotalPayments decimal.Decimal `json:"totalPayments"`
}

// LedgerEvent is the payload published for every committed ledger mutation.
type LedgerEvent struct {
	Type       string      `json:"type"`
	BusinessID string      `json:"businessId"`
	EntityID   string      `json:"entityId"`
	OccurredAt string      `json:"occurredAt"`
	Data       interface{} `json:"data"`
}
