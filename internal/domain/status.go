package domain

// ChequeStatus is the lifecycle of a cheque. Only pending cheques may change status.
type ChequeStatus string

const (
	ChequePending   ChequeStatus = "pending"
	ChequeCleared   ChequeStatus = "cleared"
	ChequeCancelled ChequeStatus = "cancelled"
)

func (s ChequeStatus) Valid() bool {
	switch s {
	case ChequePending, ChequeCleared, ChequeCancelled:
		return true
	}
	return false
}

// Final reports whether no further transition is allowed out of s.
func (s ChequeStatus) Final() bool {
	return s == ChequeCleared || s == ChequeCancelled
}

type InvoiceStatus string

const (
	InvoiceDraft   InvoiceStatus = "draft"
	InvoiceSent    InvoiceStatus = "sent"
	InvoicePaid    InvoiceStatus = "paid"
	InvoiceOverdue InvoiceStatus = "overdue"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceDraft, InvoiceSent, InvoicePaid, InvoiceOverdue:
		return true
	}
	return false
}

type PurchaseOrderStatus string

const (
	PurchaseOrderDraft    PurchaseOrderStatus = "draft"
	PurchaseOrderOrdered  PurchaseOrderStatus = "ordered"
	PurchaseOrderReceived PurchaseOrderStatus = "received"
	PurchaseOrderPaid     PurchaseOrderStatus = "paid"
)

func (s PurchaseOrderStatus) Valid() bool {
	switch s {
	case PurchaseOrderDraft, PurchaseOrderOrdered, PurchaseOrderReceived, PurchaseOrderPaid:
		return true
	}
	return false
}

type CreditTransactionType string

const (
	CreditCharge  CreditTransactionType = "charge"
	CreditPayment CreditTransactionType = "payment"
)

func (t CreditTransactionType) Valid() bool {
	return t == CreditCharge || t == CreditPayment
}
