package app

import (
	"context"
	"errors"
	"testing"

	"github.com/ledgerdesk/ledger-service/internal/domain"
)

func mustCreditAccount(t *testing.T, svc *Service, userID, businessID, limit string) string {
	t.Helper()
	account, err := svc.CreateCreditAccount(context.Background(), userID, domain.CreateCreditAccountRequest{
		BusinessID:   businessID,
		AccountName:  "Supplier line",
		CreditLimit:  decPtr(limit),
		InterestRate: dec("12.5"),
	})
	if err != nil {
		t.Fatalf("CreateCreditAccount returned error: %v", err)
	}
	if !account.CurrentBalance.IsZero() {
		t.Fatalf("expected new credit account to start at zero, got %s", account.CurrentBalance)
	}
	return account.ID
}

func post(svc *Service, userID, accountID, kind, amount string) (*domain.CreditTransaction, error) {
	return svc.CreateCreditTransaction(context.Background(), userID, domain.CreateCreditTransactionRequest{
		CreditAccountID: accountID,
		Type:            kind,
		Amount:          dec(amount),
		Description:     kind + " " + amount,
		Date:            "2024-03-15",
	})
}

func creditBalance(t *testing.T, svc *Service, userID, businessID, accountID string) string {
	t.Helper()
	accounts, err := svc.ListCreditAccounts(context.Background(), userID, businessID)
	if err != nil {
		t.Fatalf("ListCreditAccounts returned error: %v", err)
	}
	for _, a := range accounts {
		if a.ID == accountID {
			return a.CurrentBalance.String()
		}
	}
	t.Fatalf("credit account %s not found", accountID)
	return ""
}

func TestCreditLimitSequence(t *testing.T) {
	svc, _, _ := newTestService(t)
	userID := mustRegister(t, svc, "a@x.com")
	businessID := mustBusiness(t, svc, userID, "Shop")
	accountID := mustCreditAccount(t, svc, userID, businessID, "500")

	if _, err := post(svc, userID, accountID, "charge", "500"); err != nil {
		t.Fatalf("charge up to the limit returned error: %v", err)
	}
	if got := creditBalance(t, svc, userID, businessID, accountID); got != "500" {
		t.Fatalf("expected balance 500, got %s", got)
	}

	if _, err := post(svc, userID, accountID, "charge", "1"); !errors.Is(err, ErrCreditLimitExceeded) {
		t.Fatalf("expected ErrCreditLimitExceeded, got %v", err)
	}
	if got := creditBalance(t, svc, userID, businessID, accountID); got != "500" {
		t.Fatalf("expected balance to stay 500, got %s", got)
	}

	if _, err := post(svc, userID, accountID, "payment", "500"); err != nil {
		t.Fatalf("payment of full balance returned error: %v", err)
	}
	if got := creditBalance(t, svc, userID, businessID, accountID); got != "0" {
		t.Fatalf("expected balance 0, got %s", got)
	}

	if _, err := post(svc, userID, accountID, "payment", "1"); !errors.Is(err, ErrPaymentExceedsBalance) {
		t.Fatalf("expected ErrPaymentExceedsBalance, got %v", err)
	}
	if got := creditBalance(t, svc, userID, businessID, accountID); got != "0" {
		t.Fatalf("expected balance to stay 0, got %s", got)
	}

	txns, err := svc.ListCreditTransactions(context.Background(), userID, businessID, domain.ListFilter{})
	if err != nil {
		t.Fatalf("ListCreditTransactions returned error: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("expected only the two accepted transactions to be recorded, got %d", len(txns))
	}
}

func TestCreateCreditTransaction_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	userID := mustRegister(t, svc, "a@x.com")
	other := mustRegister(t, svc, "b@x.com")
	businessID := mustBusiness(t, svc, userID, "Shop")
	accountID := mustCreditAccount(t, svc, userID, businessID, "100")

	if _, err := post(svc, userID, accountID, "refund", "10"); !errors.Is(err, ErrInvalidTransactionType) {
		t.Fatalf("expected ErrInvalidTransactionType, got %v", err)
	}
	if _, err := post(svc, userID, accountID, "charge", "0"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero amount, got %v", err)
	}
	if _, err := post(svc, userID, "missing", "charge", "10"); !errors.Is(err, ErrCreditAccountNotFound) {
		t.Fatalf("expected ErrCreditAccountNotFound, got %v", err)
	}
	if _, err := post(svc, other, accountID, "charge", "10"); !errors.Is(err, ErrCreditAccountNotFound) {
		t.Fatalf("expected ErrCreditAccountNotFound for foreign account, got %v", err)
	}
}

func TestCreateCreditAccount_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	userID := mustRegister(t, svc, "a@x.com")
	businessID := mustBusiness(t, svc, userID, "Shop")

	_, err := svc.CreateCreditAccount(context.Background(), userID, domain.CreateCreditAccountRequest{
		BusinessID: businessID, AccountName: "Line", CreditLimit: decPtr("-10"),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative limit, got %v", err)
	}
}

func TestListCreditTransactions_TypeFilter(t *testing.T) {
	svc, _, _ := newTestService(t)
	userID := mustRegister(t, svc, "a@x.com")
	businessID := mustBusiness(t, svc, userID, "Shop")
	accountID := mustCreditAccount(t, svc, userID, businessID, "1000")

	for _, step := range []struct{ kind, amount string }{
		{"charge", "200"}, {"charge", "50"}, {"payment", "100"},
	} {
		if _, err := post(svc, userID, accountID, step.kind, step.amount); err != nil {
			t.Fatalf("%s %s returned error: %v", step.kind, step.amount, err)
		}
	}

	charges, err := svc.ListCreditTransactions(context.Background(), userID, businessID, domain.ListFilter{Type: "charge"})
	if err != nil {
		t.Fatalf("ListCreditTransactions returned error: %v", err)
	}
	if len(charges) != 2 {
		t.Fatalf("expected 2 charges, got %d", len(charges))
	}
	if got := creditBalance(t, svc, userID, businessID, accountID); got != "150" {
		t.Fatalf("expected balance 150, got %s", got)
	}
}
