package app

import (
	"context"
	"strings"

	"github.com/ledgerdesk/ledger-service/internal/domain"
	"github.com/ledgerdesk/ledger-service/internal/store"
)

func (s *Service) ListSuppliers(ctx context.Context, userID, businessID string, filter domain.ListFilter) ([]domain.Supplier, error) {
	var suppliers []domain.Supplier
	err := s.store.View(ctx, func(tx store.Tx) error {
		if _, err := ownedBusiness(tx, userID, businessID); err != nil {
			return err
		}
		var err error
		suppliers, err = store.Filter(tx, store.Suppliers, func(sp domain.Supplier) bool {
			return sp.BusinessID == businessID && matchesQuery(filter.Query, sp.Name, sp.Email, sp.Phone)
		})
		return err
	})
	return suppliers, err
}

func (s *Service) CreateSupplier(ctx context.Context, userID string, req domain.CounterpartyRequest) (*domain.Supplier, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalidInput("Business ID and name required")
	}
	supplier := domain.Supplier{
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
		return store.Append(tx, store.Suppliers, supplier)
	})
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

// ListPurchaseOrders returns the business's orders, filtered by status and by a search
// over the order number and supplier name.
func (s *Service) ListPurchaseOrders(ctx context.Context, userID, businessID string, filter domain.ListFilter) ([]domain.PurchaseOrder, error) {
	var orders []domain.PurchaseOrder
	err := s.store.View(ctx, func(tx store.Tx) error {
		if _, err := ownedBusiness(tx, userID, businessID); err != nil {
			return err
		}
		suppliers, err := store.Filter(tx, store.Suppliers, func(sp domain.Supplier) bool {
			return sp.BusinessID == businessID
		})
		if err != nil {
			return err
		}
		names := make(map[string]string, len(suppliers))
		for _, sp := range suppliers {
			names[sp.ID] = sp.Name
		}

		orders, err = store.Filter(tx, store.PurchaseOrders, func(o domain.PurchaseOrder) bool {
			return o.BusinessID == businessID &&
				matchesStatus(filter.Status, string(o.Status)) &&
				matchesQuery(filter.Query, o.OrderNumber, names[o.SupplierID])
		})
		return err
	})
	return orders, err
}

func (s *Service) GetPurchaseOrder(ctx context.Context, userID, orderID string) (*domain.PurchaseOrder, error) {
	var order *domain.PurchaseOrder
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		order, err = ownedPurchaseOrder(tx, userID, orderID)
		return err
	})
	return order, err
}

func ownedPurchaseOrder(tx store.Tx, userID, orderID string) (*domain.PurchaseOrder, error) {
	order, err := store.FindByID[domain.PurchaseOrder](tx, store.PurchaseOrders, orderID)
	if err != nil {
		return nil, notFoundAs(err, ErrPurchaseOrderNotFound)
	}
	if err := checkOwner(tx, userID, order.BusinessID, ErrPurchaseOrderNotFound); err != nil {
		return nil, err
	}
	return order, nil
}

// CreatePurchaseOrder records a draft order with totals computed from its items.
func (s *Service) CreatePurchaseOrder(ctx context.Context, userID string, req domain.CreatePurchaseOrderRequest) (*domain.PurchaseOrder, error) {
	totals, err := buildLineItems(req.Items, req.Tax, s.newID)
	if err != nil {
		return nil, err
	}

	order := domain.PurchaseOrder{
		ID:           s.newID(),
		BusinessID:   req.BusinessID,
		SupplierID:   req.SupplierID,
		OrderNumber:  strings.TrimSpace(req.OrderNumber),
		Date:         req.Date,
		ExpectedDate: req.ExpectedDate,
		Items:        totals.items,
		Subtotal:     totals.subtotal,
		Tax:          totals.tax,
		Total:        totals.total,
		Status:       domain.PurchaseOrderDraft,
		CreatedAt:    s.timestamp(),
	}
	err = s.store.Update(ctx, func(tx store.Tx) error {
		if _, err := ownedBusiness(tx, userID, req.BusinessID); err != nil {
			return err
		}
		supplier, err := store.FindByID[domain.Supplier](tx, store.Suppliers, req.SupplierID)
		if err != nil {
			return notFoundAs(err, ErrSupplierNotFound)
		}
		if supplier.BusinessID != req.BusinessID {
			return ErrSupplierNotFound
		}
		return store.Append(tx, store.PurchaseOrders, order)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "purchase_order.created", order.BusinessID, order.ID, order)
	return &order, nil
}

// UpdatePurchaseOrderStatus sets any valid status; transitions are not ordered.
func (s *Service) UpdatePurchaseOrderStatus(ctx context.Context, userID, orderID, status string) (*domain.PurchaseOrder, error) {
	next := domain.PurchaseOrderStatus(status)
	if !next.Valid() {
		return nil, ErrInvalidStatus
	}

	var updated *domain.PurchaseOrder
	err := s.store.Update(ctx, func(tx store.Tx) error {
		order, err := ownedPurchaseOrder(tx, userID, orderID)
		if err != nil {
			return err
		}
		updated, err = store.UpdateByID[domain.PurchaseOrder](tx, store.PurchaseOrders, order.ID, map[string]interface{}{
			"status": next,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "purchase_order.status_changed", updated.BusinessID, updated.ID, updated)
	return updated, nil
}
