package app

import (
	"context"
	"strings"

	"github.com/ledgerdesk/ledger-service/internal/domain"
	"github.com/ledgerdesk/ledger-service/internal/store"
)

// ListBusinesses returns the caller's businesses in creation order.
func (s *Service) ListBusinesses(ctx context.Context, userID string) ([]domain.Business, error) {
	var businesses []domain.Business
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		businesses, err = store.Filter(tx, store.Businesses, func(b domain.Business) bool {
			return b.UserID == userID
		})
		return err
	})
	return businesses, err
}

// CreateBusiness registers a new business for the caller.
func (s *Service) CreateBusiness(ctx context.Context, userID string, req domain.CreateBusinessRequest) (*domain.Business, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Type) == "" {
		return nil, invalidInput("Name and type required")
	}
	business := domain.Business{
		ID:        s.newID(),
		UserID:    userID,
		Name:      strings.TrimSpace(req.Name),
		Type:      strings.TrimSpace(req.Type),
		Address:   req.Address,
		Phone:     req.Phone,
		Email:     req.Email,
		CreatedAt: s.timestamp(),
	}
	err := s.store.Update(ctx, func(tx store.Tx) error {
		return store.Append(tx, store.Businesses, business)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "business.created", business.ID, business.ID, business)
	return &business, nil
}

// PurgeReport counts what PurgeBusiness removed, per collection.
type PurgeReport struct {
	BusinessID string                   `json:"businessId"`
	Removed    map[store.Collection]int `json:"removed"`
}

// PurgeBusiness deletes a business and every record beneath it in one transaction.
// It is an operator action and performs no ownership check.
func (s *Service) PurgeBusiness(ctx context.Context, businessID string) (*PurgeReport, error) {
	report := &PurgeReport{BusinessID: businessID, Removed: make(map[store.Collection]int)}

	err := s.store.Update(ctx, func(tx store.Tx) error {
		if _, err := store.FindByID[domain.Business](tx, store.Businesses, businessID); err != nil {
			return notFoundAs(err, ErrBusinessNotFound)
		}

		bankIDs, err := store.DeleteWhere(tx, store.BankAccounts,
			func(a domain.BankAccount) string { return a.ID },
			func(a domain.BankAccount) bool { return a.BusinessID == businessID })
		if err != nil {
			return err
		}
		report.Removed[store.BankAccounts] = len(bankIDs)
		banks := toSet(bankIDs)

		cheques, err := store.DeleteWhere(tx, store.Cheques,
			func(c domain.Cheque) string { return c.ID },
			func(c domain.Cheque) bool { return banks[c.BankAccountID] })
		if err != nil {
			return err
		}
		report.Removed[store.Cheques] = len(cheques)

		creditIDs, err := store.DeleteWhere(tx, store.CreditAccounts,
			func(a domain.CreditAccount) string { return a.ID },
			func(a domain.CreditAccount) bool { return a.BusinessID == businessID })
		if err != nil {
			return err
		}
		report.Removed[store.CreditAccounts] = len(creditIDs)
		credits := toSet(creditIDs)

		creditTxns, err := store.DeleteWhere(tx, store.CreditTransactions,
			func(t domain.CreditTransaction) string { return t.ID },
			func(t domain.CreditTransaction) bool { return credits[t.CreditAccountID] })
		if err != nil {
			return err
		}
		report.Removed[store.CreditTransactions] = len(creditTxns)

		customers, err := store.DeleteWhere(tx, store.Customers,
			func(c domain.Customer) string { return c.ID },
			func(c domain.Customer) bool { return c.BusinessID == businessID })
		if err != nil {
			return err
		}
		report.Removed[store.Customers] = len(customers)

		invoices, err := store.DeleteWhere(tx, store.Invoices,
			func(i domain.Invoice) string { return i.ID },
			func(i domain.Invoice) bool { return i.BusinessID == businessID })
		if err != nil {
			return err
		}
		report.Removed[store.Invoices] = len(invoices)

		suppliers, err := store.DeleteWhere(tx, store.Suppliers,
			func(sp domain.Supplier) string { return sp.ID },
			func(sp domain.Supplier) bool { return sp.BusinessID == businessID })
		if err != nil {
			return err
		}
		report.Removed[store.Suppliers] = len(suppliers)

		orders, err := store.DeleteWhere(tx, store.PurchaseOrders,
			func(o domain.PurchaseOrder) string { return o.ID },
			func(o domain.PurchaseOrder) bool { return o.BusinessID == businessID })
		if err != nil {
			return err
		}
		report.Removed[store.PurchaseOrders] = len(orders)

		removed, err := tx.DeleteByID(store.Businesses, businessID)
		if err != nil {
			return err
		}
		if removed {
			report.Removed[store.Businesses] = 1
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("business purged", "business_id", businessID, "removed", report.Removed)
	return report, nil
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
