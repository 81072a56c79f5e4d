package app

import (
	"context"
	"strings"

	"github.com/ledgerdesk/ledger-service/internal/domain"
	"github.com/ledgerdesk/ledger-service/internal/store"
	"github.com/shopspring/decimal"
)

func (s *Service) ListCreditAccounts(ctx context.Context, userID, businessID string) ([]domain.CreditAccount, error) {
	var accounts []domain.CreditAccount
	err := s.store.View(ctx, func(tx store.Tx) error {
		if _, err := ownedBusiness(tx, userID, businessID); err != nil {
			return err
		}
		var err error
		accounts, err = store.Filter(tx, store.CreditAccounts, func(a domain.CreditAccount) bool {
			return a.BusinessID == businessID
		})
		return err
	})
	return accounts, err
}

// CreateCreditAccount opens a credit line with a zero balance.
func (s *Service) CreateCreditAccount(ctx context.Context, userID string, req domain.CreateCreditAccountRequest) (*domain.CreditAccount, error) {
	if req.CreditLimit == nil {
		return nil, invalidInput("Required fields missing")
	}
	if req.CreditLimit.IsNegative() || req.InterestRate.IsNegative() {
		return nil, invalidInput("Credit limit and interest rate must not be negative")
	}

	account := domain.CreditAccount{
		ID:             s.newID(),
		BusinessID:     req.BusinessID,
		AccountName:    strings.TrimSpace(req.AccountName),
		CreditLimit:    *req.CreditLimit,
		CurrentBalance: decimal.Zero,
		InterestRate:   req.InterestRate,
		CreatedAt:      s.timestamp(),
	}
	err := s.store.Update(ctx, func(tx store.Tx) error {
		if _, err := ownedBusiness(tx, userID, req.BusinessID); err != nil {
			return err
		}
		return store.Append(tx, store.CreditAccounts, account)
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// ListCreditTransactions returns the transactions of every credit account of the business.
func (s *Service) ListCreditTransactions(ctx context.Context, userID, businessID string, filter domain.ListFilter) ([]domain.CreditTransaction, error) {
	var txns []domain.CreditTransaction
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		txns, err = businessCreditTransactions(tx, userID, businessID)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.CreditTransaction, 0, len(txns))
	for _, t := range txns {
		if matchesStatus(filter.Type, string(t.Type)) && matchesQuery(filter.Query, t.Description) {
			out = append(out, t)
		}
	}
	return out, nil
}

func businessCreditTransactions(tx store.Tx, userID, businessID string) ([]domain.CreditTransaction, error) {
	if _, err := ownedBusiness(tx, userID, businessID); err != nil {
		return nil, err
	}
	accounts, err := store.Filter(tx, store.CreditAccounts, func(a domain.CreditAccount) bool {
		return a.BusinessID == businessID
	})
	if err != nil {
		return nil, err
	}
	accountIDs := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		accountIDs[a.ID] = true
	}
	return store.Filter(tx, store.CreditTransactions, func(t domain.CreditTransaction) bool {
		return accountIDs[t.CreditAccountID]
	})
}

// CreateCreditTransaction posts a charge or payment. A charge may not push the balance
// above the limit and a payment may not take it below zero; rejected transactions
// change nothing.
func (s *Service) CreateCreditTransaction(ctx context.Context, userID string, req domain.CreateCreditTransactionRequest) (*domain.CreditTransaction, error) {
	kind := domain.CreditTransactionType(req.Type)
	if !kind.Valid() {
		return nil, ErrInvalidTransactionType
	}
	if !req.Amount.IsPositive() {
		return nil, invalidInput("Amount must be greater than zero")
	}

	txn := domain.CreditTransaction{
		ID:              s.newID(),
		CreditAccountID: req.CreditAccountID,
		Type:            kind,
		Amount:          req.Amount,
		Description:     strings.TrimSpace(req.Description),
		Date:            req.Date,
		CreatedAt:       s.timestamp(),
	}

	var businessID string
	err := s.store.Update(ctx, func(tx store.Tx) error {
		account, err := ownedCreditAccount(tx, userID, req.CreditAccountID)
		if err != nil {
			return err
		}
		businessID = account.BusinessID

		var next decimal.Decimal
		switch kind {
		case domain.CreditCharge:
			next = account.CurrentBalance.Add(req.Amount)
			if next.GreaterThan(account.CreditLimit) {
				return ErrCreditLimitExceeded
			}
		case domain.CreditPayment:
			next = account.CurrentBalance.Sub(req.Amount)
			if next.IsNegative() {
				return ErrPaymentExceedsBalance
			}
		}

		if _, err := tx.UpdateByID(store.CreditAccounts, account.ID, map[string]interface{}{
			"currentBalance": next,
		}); err != nil {
			return err
		}
		return store.Append(tx, store.CreditTransactions, txn)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "credit_transaction.posted", businessID, txn.ID, txn)
	return &txn, nil
}
