package app

import (
	"strings"

	"github.com/ledgerdesk/ledger-service/internal/domain"
	"github.com/shopspring/decimal"
)

// documentTotals holds the computed money fields of an invoice or purchase order.
type documentTotals struct {
	items    []domain.LineItem
	subtotal decimal.Decimal
	tax      decimal.Decimal
	total    decimal.Decimal
}

// buildLineItems assigns item ids and computes subtotal = Σ amount and total = subtotal + tax.
// An item's amount is taken as given; when it is zero it is derived from quantity × rate.
func buildLineItems(inputs []domain.LineItemInput, tax decimal.Decimal, newID func() string) (documentTotals, error) {
	if len(inputs) == 0 {
		return documentTotals{}, invalidInput("Required fields missing")
	}
	if tax.IsNegative() {
		return documentTotals{}, invalidInput("Tax must not be negative")
	}

	items := make([]domain.LineItem, 0, len(inputs))
	subtotal := decimal.Zero
	for i, in := range inputs {
		if in.Quantity.IsNegative() || in.Rate.IsNegative() || in.Amount.IsNegative() {
			return documentTotals{}, invalidInput("Item %d has a negative value", i+1)
		}
		amount := in.Amount
		if amount.IsZero() {
			amount = in.Quantity.Mul(in.Rate)
		}
		items = append(items, domain.LineItem{
			ID:          newID(),
			Description: strings.TrimSpace(in.Description),
			Quantity:    in.Quantity,
			Rate:        in.Rate,
			Amount:      amount,
		})
		subtotal = subtotal.Add(amount)
	}

	return documentTotals{
		items:    items,
		subtotal: subtotal,
		tax:      tax,
		total:    subtotal.Add(tax),
	}, nil
}
