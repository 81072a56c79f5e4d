/**
 * @description
 * This file contains the core business logic for the ledger-service. The `Service`
 * struct owns every mutation rule: cheque issue and cancellation against bank balances,
 * credit-limit enforcement, invoice and purchase-order totals, and tenant ownership.
 *
 * Key features:
 * - Each use case runs inside one record-store transaction, so balance changes and the
 *   records that cause them commit together or not at all.
 * - Every business id, bank account id and credit account id is resolved to a business
 *   owned by the calling user before anything is read or written.
 * - Publishes ledger events to RabbitMQ after commit; publish failures are only logged.
 *
 * @dependencies
 * - github.com/google/uuid: For record id generation.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/rabbitmq: For event publishing.
 */

package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerdesk/ledger-service/internal/auth"
	"github.com/ledgerdesk/ledger-service/internal/domain"
	"github.com/ledgerdesk/ledger-service/internal/store"
	"github.com/ledgerdesk/ledger-service/pkg/rabbitmq"
)

const eventPublishTimeout = 5 * time.Second

// Service provides the core business logic for the ledger.
type Service struct {
	store    store.Store
	tokens   *auth.TokenManager
	events   rabbitmq.Publisher
	exchange string
	logger   *slog.Logger

	loginLimiter LoginLimiter

	now   func() time.Time
	newID func() string
}

// NewService creates a new ledger service instance. A nil publisher is replaced with
// the no-op fallback producer.
func NewService(st store.Store, tokens *auth.TokenManager, events rabbitmq.Publisher, exchange string, logger *slog.Logger) *Service {
	if events == nil {
		events = &rabbitmq.EventProducerFallback{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    st,
		tokens:   tokens,
		events:   events,
		exchange: exchange,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// SetLoginLimiter enables login throttling.
func (s *Service) SetLoginLimiter(limiter LoginLimiter) {
	s.loginLimiter = limiter
}

// TokenTTL is the lifetime of issued session tokens.
func (s *Service) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC()
}

// publish sends a ledger event after a successful commit. It never fails the caller.
func (s *Service) publish(ctx context.Context, routingKey, businessID, entityID string, data interface{}) {
	event := domain.LedgerEvent{
		Type:       routingKey,
		BusinessID: businessID,
		EntityID:   entityID,
		OccurredAt: s.timestamp().Format(time.RFC3339),
		Data:       data,
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventPublishTimeout)
	defer cancel()
	if err := s.events.Publish(pubCtx, s.exchange, routingKey, event); err != nil {
		s.logger.Warn("ledger event publish failed", "routing_key", routingKey, "entity_id", entityID, "error", err)
	}
}

// ownedBusiness loads a business and checks it belongs to userID. Foreign and missing
// businesses are indistinguishable to the caller.
func ownedBusiness(tx store.Tx, userID, businessID string) (*domain.Business, error) {
	business, err := store.FindByID[domain.Business](tx, store.Businesses, businessID)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, ErrBusinessNotFound
	}
	if err != nil {
		return nil, err
	}
	if business.UserID != userID {
		return nil, ErrBusinessNotFound
	}
	return business, nil
}

// checkOwner verifies that businessID belongs to userID, reporting a missing or foreign
// business as notFound.
func checkOwner(tx store.Tx, userID, businessID string, notFound error) error {
	if _, err := ownedBusiness(tx, userID, businessID); err != nil {
		if errors.Is(err, ErrBusinessNotFound) {
			return notFound
		}
		return err
	}
	return nil
}

func ownedBankAccount(tx store.Tx, userID, accountID string) (*domain.BankAccount, error) {
	account, err := store.FindByID[domain.BankAccount](tx, store.BankAccounts, accountID)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, ErrBankAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := checkOwner(tx, userID, account.BusinessID, ErrBankAccountNotFound); err != nil {
		return nil, err
	}
	return account, nil
}

func ownedCreditAccount(tx store.Tx, userID, accountID string) (*domain.CreditAccount, error) {
	account, err := store.FindByID[domain.CreditAccount](tx, store.CreditAccounts, accountID)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, ErrCreditAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := checkOwner(tx, userID, account.BusinessID, ErrCreditAccountNotFound); err != nil {
		return nil, err
	}
	return account, nil
}

// notFoundAs maps the store's not-found sentinel to a domain error.
func notFoundAs(err, domainErr error) error {
	if errors.Is(err, store.ErrRecordNotFound) {
		return domainErr
	}
	return err
}
