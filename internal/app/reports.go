package app

import (
	"context"

	"github.com/ledgerdesk/ledger-service/internal/domain"
	"github.com/ledgerdesk/ledger-service/internal/export"
	"github.com/ledgerdesk/ledger-service/internal/store"
	"github.com/shopspring/decimal"
)

// BusinessSummary computes the dashboard totals for one business in a single read.
func (s *Service) BusinessSummary(ctx context.Context, userID, businessID string) (*domain.BusinessSummary, error) {
	summary := &domain.BusinessSummary{BusinessID: businessID}

	err := s.store.View(ctx, func(tx store.Tx) error {
		if _, err := ownedBusiness(tx, userID, businessID); err != nil {
			return err
		}

		accounts, err := store.Filter(tx, store.BankAccounts, func(a domain.BankAccount) bool {
			return a.BusinessID == businessID
		})
		if err != nil {
			return err
		}
		summary.Bank = summarizeBank(accounts)

		cheques, err := businessCheques(tx, userID, businessID)
		if err != nil {
			return err
		}
		summary.Cheques.Pending, summary.Cheques.PendingAmount = pendingChequeTotal(cheques)

		invoices, err := store.Filter(tx, store.Invoices, func(inv domain.Invoice) bool {
			return inv.BusinessID == businessID
		})
		if err != nil {
			return err
		}
		summary.Sales = summarizeSales(invoices)

		orders, err := store.Filter(tx, store.PurchaseOrders, func(o domain.PurchaseOrder) bool {
			return o.BusinessID == businessID
		})
		if err != nil {
			return err
		}
		summary.Purchases = summarizePurchases(orders)

		credits, err := store.Filter(tx, store.CreditAccounts, func(a domain.CreditAccount) bool {
			return a.BusinessID == businessID
		})
		if err != nil {
			return err
		}
		txns, err := businessCreditTransactions(tx, userID, businessID)
		if err != nil {
			return err
		}
		summary.Credit = summarizeCredit(credits, txns)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func summarizeBank(accounts []domain.BankAccount) domain.BankSummary {
	out := domain.BankSummary{Accounts: len(accounts), TotalBalance: decimal.Zero}
	for _, a := range accounts {
		out.TotalBalance = out.TotalBalance.Add(a.Balance)
	}
	return out
}

func summarizeSales(invoices []domain.Invoice) domain.SalesSummary {
	out := domain.SalesSummary{
		Invoices:    len(invoices),
		Paid:        decimal.Zero,
		Outstanding: decimal.Zero,
		Overdue:     decimal.Zero,
	}
	for _, inv := range invoices {
		switch inv.Status {
		case domain.InvoicePaid:
			out.Paid = out.Paid.Add(inv.Total)
		case domain.InvoiceSent:
			out.Outstanding = out.Outstanding.Add(inv.Total)
		case domain.InvoiceOverdue:
			out.Overdue = out.Overdue.Add(inv.Total)
		}
	}
	return out
}

func summarizePurchases(orders []domain.PurchaseOrder) domain.PurchasesSummary {
	out := domain.PurchasesSummary{
		Orders:   len(orders),
		Paid:     decimal.Zero,
		Ordered:  decimal.Zero,
		Received: decimal.Zero,
	}
	for _, o := range orders {
		switch o.Status {
		case domain.PurchaseOrderPaid:
			out.Paid = out.Paid.Add(o.Total)
		case domain.PurchaseOrderOrdered:
			out.Ordered = out.Ordered.Add(o.Total)
		case domain.PurchaseOrderReceived:
			out.Received = out.Received.Add(o.Total)
		}
	}
	return out
}

func summarizeCredit(accounts []domain.CreditAccount, txns []domain.CreditTransaction) domain.CreditSummary {
	out := domain.CreditSummary{
		TotalLimit:    decimal.Zero,
		TotalBalance:  decimal.Zero,
		Available:     decimal.Zero,
		TotalCharges:  decimal.Zero,
		TotalPayments: decimal.Zero,
	}
	for _, a := range accounts {
		out.TotalLimit = out.TotalLimit.Add(a.CreditLimit)
		out.TotalBalance = out.TotalBalance.Add(a.CurrentBalance)
		out.Available = out.Available.Add(a.AvailableCredit())
	}
	for _, t := range txns {
		switch t.Type {
		case domain.CreditCharge:
			out.TotalCharges = out.TotalCharges.Add(t.Amount)
		case domain.CreditPayment:
			out.TotalPayments = out.TotalPayments.Add(t.Amount)
		}
	}
	return out
}

// InvoiceDocument assembles the printable form of an invoice.
func (s *Service) InvoiceDocument(ctx context.Context, userID, invoiceID string) (*export.Document, error) {
	var doc *export.Document
	err := s.store.View(ctx, func(tx store.Tx) error {
		invoice, err := ownedInvoice(tx, userID, invoiceID)
		if err != nil {
			return err
		}
		business, err := ownedBusiness(tx, userID, invoice.BusinessID)
		if err != nil {
			return err
		}
		var counterparty export.Party
		if customer, err := store.FindByID[domain.Customer](tx, store.Customers, invoice.CustomerID); err == nil {
			counterparty = export.Party{Name: customer.Name, Address: customer.Address, Phone: customer.Phone, Email: customer.Email}
		}

		doc = &export.Document{
			Title:             "INVOICE",
			Number:            invoice.InvoiceNumber,
			Status:            string(invoice.Status),
			Issuer:            businessParty(business),
			CounterpartyLabel: "Bill To",
			Counterparty:      counterparty,
			Date:              invoice.Date,
			SecondDateLabel:   "Due Date",
			SecondDate:        invoice.DueDate,
			Lines:             documentLines(invoice.Items),
			Subtotal:          invoice.Subtotal,
			Tax:               invoice.Tax,
			Total:             invoice.Total,
		}
		return nil
	})
	return doc, err
}

// PurchaseOrderDocument assembles the printable form of a purchase order.
func (s *Service) PurchaseOrderDocument(ctx context.Context, userID, orderID string) (*export.Document, error) {
	var doc *export.Document
	err := s.store.View(ctx, func(tx store.Tx) error {
		order, err := ownedPurchaseOrder(tx, userID, orderID)
		if err != nil {
			return err
		}
		business, err := ownedBusiness(tx, userID, order.BusinessID)
		if err != nil {
			return err
		}
		var counterparty export.Party
		if supplier, err := store.FindByID[domain.Supplier](tx, store.Suppliers, order.SupplierID); err == nil {
			counterparty = export.Party{Name: supplier.Name, Address: supplier.Address, Phone: supplier.Phone, Email: supplier.Email}
		}

		doc = &export.Document{
			Title:             "PURCHASE ORDER",
			Number:            order.OrderNumber,
			Status:            string(order.Status),
			Issuer:            businessParty(business),
			CounterpartyLabel: "Supplier",
			Counterparty:      counterparty,
			Date:              order.Date,
			SecondDateLabel:   "Expected Date",
			SecondDate:        order.ExpectedDate,
			Lines:             documentLines(order.Items),
			Subtotal:          order.Subtotal,
			Tax:               order.Tax,
			Total:             order.Total,
		}
		return nil
	})
	return doc, err
}

// ChequeRegister returns the business name and one row per cheque.
func (s *Service) ChequeRegister(ctx context.Context, userID, businessID string) (string, []export.ChequeRow, error) {
	var (
		name string
		rows []export.ChequeRow
	)
	err := s.store.View(ctx, func(tx store.Tx) error {
		business, err := ownedBusiness(tx, userID, businessID)
		if err != nil {
			return err
		}
		name = business.Name

		accounts, err := store.Filter(tx, store.BankAccounts, func(a domain.BankAccount) bool {
			return a.BusinessID == businessID
		})
		if err != nil {
			return err
		}
		byID := make(map[string]domain.BankAccount, len(accounts))
		for _, a := range accounts {
			byID[a.ID] = a
		}

		cheques, err := store.Filter(tx, store.Cheques, func(c domain.Cheque) bool {
			_, ok := byID[c.BankAccountID]
			return ok
		})
		if err != nil {
			return err
		}
		rows = make([]export.ChequeRow, 0, len(cheques))
		for _, c := range cheques {
			account := byID[c.BankAccountID]
			rows = append(rows, export.ChequeRow{
				ChequeNumber: c.ChequeNumber,
				Date:         c.Date,
				Payee:        c.Payee,
				Memo:         c.Memo,
				BankName:     account.BankName,
				AccountNo:    account.AccountNumber,
				Amount:       c.Amount,
				Status:       string(c.Status),
			})
		}
		return nil
	})
	return name, rows, err
}

func businessParty(b *domain.Business) export.Party {
	return export.Party{Name: b.Name, Address: b.Address, Phone: b.Phone, Email: b.Email}
}

func documentLines(items []domain.LineItem) []export.Line {
	lines := make([]export.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, export.Line{
			Description: item.Description,
			Quantity:    item.Quantity,
			Rate:        item.Rate,
			Amount:      item.Amount,
		})
	}
	return lines
}
