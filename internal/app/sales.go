package app

import (
	"context"
	"strings"

	"github.com/ledgerdesk/ledger-service/internal/domain"
	"github.com/ledgerdesk/ledger-service/internal/store"
)

// ListCustomers returns the business's customers matching filter.Query.
func (s *Service) ListCustomers(ctx context.Context, userID, businessID string, filter domain.ListFilter) ([]domain.Customer, error) {
	var customers []domain.Customer
	err := s.store.View(ctx, func(tx store.Tx) error {
		if _, err := ownedBusiness(tx, userID, businessID); err != nil {
			return err
		}
		var err error
		customers, err = store.Filter(tx, store.Customers, func(c domain.Customer) bool {
			return c.BusinessID == businessID && matchesQuery(filter.Query, c.Name, c.Email, c.Phone)
		})
		return err
	})
	return customers, err
}

func (s *Service) CreateCustomer(ctx context.Context, userID string, req domain.CounterpartyRequest) (*domain.Customer, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalidInput("Business ID and name required")
	}
	customer := domain.Customer{
		ID:         s.newID(),
		BusinessID: req.BusinessID,
		Name:       strings.TrimSpace(req.Name),
		Email:      req.Email,
		Phone:      req.Phone,
		Address:    req.Address,
		CreatedAt:  s.timestamp(),
	}
	err := s.store.Update(ctx, func(tx store.Tx) error {
		if _, err := ownedBusiness(tx, userID, req.BusinessID); err != nil {
			return err
		}
		return store.Append(tx, store.Customers, customer)
	})
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// ListInvoices returns the business's invoices, filtered by status and by a search over
// the invoice number and customer name.
func (s *Service) ListInvoices(ctx context.Context, userID, businessID string, filter domain.ListFilter) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	err := s.store.View(ctx, func(tx store.Tx) error {
		if _, err := ownedBusiness(tx, userID, businessID); err != nil {
			return err
		}
		customers, err := store.Filter(tx, store.Customers, func(c domain.Customer) bool {
			return c.BusinessID == businessID
		})
		if err != nil {
			return err
		}
		names := make(map[string]string, len(customers))
		for _, c := range customers {
			names[c.ID] = c.Name
		}

		invoices, err = store.Filter(tx, store.Invoices, func(inv domain.Invoice) bool {
			return inv.BusinessID == businessID &&
				matchesStatus(filter.Status, string(inv.Status)) &&
				matchesQuery(filter.Query, inv.InvoiceNumber, names[inv.CustomerID])
		})
		return err
	})
	return invoices, err
}

// GetInvoice returns one invoice of a business owned by the caller.
func (s *Service) GetInvoice(ctx context.Context, userID, invoiceID string) (*domain.Invoice, error) {
	var invoice *domain.Invoice
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		invoice, err = ownedInvoice(tx, userID, invoiceID)
		return err
	})
	return invoice, err
}

func ownedInvoice(tx store.Tx, userID, invoiceID string) (*domain.Invoice, error) {
	invoice, err := store.FindByID[domain.Invoice](tx, store.Invoices, invoiceID)
	if err != nil {
		return nil, notFoundAs(err, ErrInvoiceNotFound)
	}
	if err := checkOwner(tx, userID, invoice.BusinessID, ErrInvoiceNotFound); err != nil {
		return nil, err
	}
	return invoice, nil
}

// CreateInvoice records a draft invoice with totals computed from its items.
func (s *Service) CreateInvoice(ctx context.Context, userID string, req domain.CreateInvoiceRequest) (*domain.Invoice, error) {
	totals, err := buildLineItems(req.Items, req.Tax, s.newID)
	if err != nil {
		return nil, err
	}

	invoice := domain.Invoice{
		ID:            s.newID(),
		BusinessID:    req.BusinessID,
		CustomerID:    req.CustomerID,
		InvoiceNumber: strings.TrimSpace(req.InvoiceNumber),
		Date:          req.Date,
		DueDate:       req.DueDate,
		Items:         totals.items,
		Subtotal:      totals.subtotal,
		Tax:           totals.tax,
		Total:         totals.total,
		Status:        domain.InvoiceDraft,
		CreatedAt:     s.timestamp(),
	}
	err = s.store.Update(ctx, func(tx store.Tx) error {
		if _, err := ownedBusiness(tx, userID, req.BusinessID); err != nil {
			return err
		}
		customer, err := store.FindByID[domain.Customer](tx, store.Customers, req.CustomerID)
		if err != nil {
			return notFoundAs(err, ErrCustomerNotFound)
		}
		if customer.BusinessID != req.BusinessID {
			return ErrCustomerNotFound
		}
		return store.Append(tx, store.Invoices, invoice)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "invoice.created", invoice.BusinessID, invoice.ID, invoice)
	return &invoice, nil
}

// UpdateInvoiceStatus sets any valid status; transitions are not ordered.
func (s *Service) UpdateInvoiceStatus(ctx context.Context, userID, invoiceID, status string) (*domain.Invoice, error) {
	next := domain.InvoiceStatus(status)
	if !next.Valid() {
		return nil, ErrInvalidStatus
	}

	var updated *domain.Invoice
	err := s.store.Update(ctx, func(tx store.Tx) error {
		invoice, err := ownedInvoice(tx, userID, invoiceID)
		if err != nil {
			return err
		}
		updated, err = store.UpdateByID[domain.Invoice](tx, store.Invoices, invoice.ID, map[string]interface{}{
			"status": next,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "invoice.status_changed", updated.BusinessID, updated.ID, updated)
	return updated, nil
}
