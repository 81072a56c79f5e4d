package app

import (
	"context"
	"errors"
	"strings"

	"github.com/ledgerdesk/ledger-service/internal/domain"
	"github.com/ledgerdesk/ledger-service/internal/store"
	"github.com/shopspring/decimal"
)

// ListBankAccounts returns the bank accounts of one of the caller's businesses.
func (s *Service) ListBankAccounts(ctx context.Context, userID, businessID string) ([]domain.BankAccount, error) {
	var accounts []domain.BankAccount
	err := s.store.View(ctx, func(tx store.Tx) error {
		if _, err := ownedBusiness(tx, userID, businessID); err != nil {
			return err
		}
		var err error
		accounts, err = store.Filter(tx, store.BankAccounts, func(a domain.BankAccount) bool {
			return a.BusinessID == businessID
		})
		return err
	})
	return accounts, err
}

// CreateBankAccount opens a bank account with its initial balance.
func (s *Service) CreateBankAccount(ctx context.Context, userID string, req domain.CreateBankAccountRequest) (*domain.BankAccount, error) {
	if req.Balance == nil {
		return nil, invalidInput("Required fields missing")
	}
	if req.Balance.IsNegative() {
		return nil, invalidInput("Balance must not be negative")
	}

	account := domain.BankAccount{
		ID:            s.newID(),
		BusinessID:    req.BusinessID,
		BankName:      strings.TrimSpace(req.BankName),
		AccountNumber: strings.TrimSpace(req.AccountNumber),
		AccountType:   strings.TrimSpace(req.AccountType),
		Balance:       *req.Balance,
		CreatedAt:     s.timestamp(),
	}
	err := s.store.Update(ctx, func(tx store.Tx) error {
		if _, err := ownedBusiness(tx, userID, req.BusinessID); err != nil {
			return err
		}
		return store.Append(tx, store.BankAccounts, account)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "bank_account.created", account.BusinessID, account.ID, account)
	return &account, nil
}

// ListCheques returns the cheques drawn on any bank account of the business.
func (s *Service) ListCheques(ctx context.Context, userID, businessID string, filter domain.ListFilter) ([]domain.Cheque, error) {
	var cheques []domain.Cheque
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		cheques, err = businessCheques(tx, userID, businessID)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.Cheque, 0, len(cheques))
	for _, c := range cheques {
		if !matchesStatus(filter.Status, string(c.Status)) {
			continue
		}
		if !matchesQuery(filter.Query, c.ChequeNumber, c.Payee, c.Memo) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// businessCheques loads the cheques of every bank account under the business.
func businessCheques(tx store.Tx, userID, businessID string) ([]domain.Cheque, error) {
	if _, err := ownedBusiness(tx, userID, businessID); err != nil {
		return nil, err
	}
	accounts, err := store.Filter(tx, store.BankAccounts, func(a domain.BankAccount) bool {
		return a.BusinessID == businessID
	})
	if err != nil {
		return nil, err
	}
	accountIDs := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		accountIDs[a.ID] = true
	}
	return store.Filter(tx, store.Cheques, func(c domain.Cheque) bool {
		return accountIDs[c.BankAccountID]
	})
}

// IssueCheque draws a cheque on a bank account. The balance debit and the cheque
// record commit together.
func (s *Service) IssueCheque(ctx context.Context, userID string, req domain.IssueChequeRequest) (*domain.Cheque, error) {
	if !req.Amount.IsPositive() {
		return nil, invalidInput("Amount must be greater than zero")
	}

	cheque := domain.Cheque{
		ID:            s.newID(),
		BankAccountID: req.BankAccountID,
		ChequeNumber:  strings.TrimSpace(req.ChequeNumber),
		Payee:         strings.TrimSpace(req.Payee),
		Amount:        req.Amount,
		Date:          req.Date,
		Memo:          req.Memo,
		Status:        domain.ChequePending,
		CreatedAt:     s.timestamp(),
	}

	var businessID string
	err := s.store.Update(ctx, func(tx store.Tx) error {
		account, err := ownedBankAccount(tx, userID, req.BankAccountID)
		if err != nil {
			return err
		}
		if req.Amount.GreaterThan(account.Balance) {
			return ErrInsufficientBalance
		}
		businessID = account.BusinessID

		if _, err := tx.UpdateByID(store.BankAccounts, account.ID, map[string]interface{}{
			"balance": account.Balance.Sub(req.Amount),
		}); err != nil {
			return err
		}
		return store.Append(tx, store.Cheques, cheque)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "cheque.issued", businessID, cheque.ID, cheque)
	return &cheque, nil
}

// UpdateChequeStatus moves a pending cheque to cleared or cancelled. Cancelling restores
// the amount to the bank account exactly once; cleared and cancelled are final.
func (s *Service) UpdateChequeStatus(ctx context.Context, userID, chequeID, status string) (*domain.Cheque, error) {
	next := domain.ChequeStatus(status)
	if !next.Valid() {
		return nil, ErrInvalidStatus
	}

	var (
		updated    *domain.Cheque
		businessID string
		changed    bool
	)
	err := s.store.Update(ctx, func(tx store.Tx) error {
		cheque, err := store.FindByID[domain.Cheque](tx, store.Cheques, chequeID)
		if err != nil {
			return notFoundAs(err, ErrChequeNotFound)
		}
		account, err := ownedBankAccount(tx, userID, cheque.BankAccountID)
		if errors.Is(err, ErrBankAccountNotFound) {
			return ErrChequeNotFound
		}
		if err != nil {
			return err
		}
		businessID = account.BusinessID

		if cheque.Status == next {
			updated = cheque
			return nil
		}
		if cheque.Status.Final() {
			return ErrChequeStatusFinal
		}

		if next == domain.ChequeCancelled {
			if _, err := tx.UpdateByID(store.BankAccounts, account.ID, map[string]interface{}{
				"balance": account.Balance.Add(cheque.Amount),
			}); err != nil {
				return err
			}
		}
		updated, err = store.UpdateByID[domain.Cheque](tx, store.Cheques, cheque.ID, map[string]interface{}{
			"status": next,
		})
		changed = err == nil
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.publish(ctx, "cheque.status_changed", businessID, updated.ID, updated)
	}
	return updated, nil
}

// pendingChequeTotal sums the amounts of pending cheques.
func pendingChequeTotal(cheques []domain.Cheque) (int, decimal.Decimal) {
	count := 0
	total := decimal.Zero
	for _, c := range cheques {
		if c.Status == domain.ChequePending {
			count++
			total = total.Add(c.Amount)
		}
	}
	return count, total
}
