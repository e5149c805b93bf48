/**
 * @description
 * This file defines the `Repository` interface, the contract for all data
 * access the payment-service needs. The application layer depends only on this
 * interface, keeping the business logic decoupled from PostgreSQL and easy to
 * exercise with stubs in tests.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/google/uuid: Identity handling.
 * - github.com/shopspring/decimal: Amount-band matching.
 * - internal/domain: Domain models.
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuno/payment-service/internal/domain"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrConfigNotFound  = errors.New("exchange configuration not found")
)

// Repository defines the set of methods for interacting with the database.
// Soft-deleted records are excluded from every read.
type Repository interface {
	// Payment methods
	CreatePayment(ctx context.Context, payment *domain.Payment) error
	FindPaymentByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	FindPaymentByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error)
	// UpdatePayment replaces the full mutable state of the payment row.
	// There is deliberately no optimistic concurrency control; see the
	// lifecycle engine's reconciliation contract.
	UpdatePayment(ctx context.Context, payment *domain.Payment) error
	ListPayments(ctx context.Context, opts domain.PaymentListOptions) ([]domain.Payment, int64, error)
	// ListUnverifiedPayments returns payments still awaiting system
	// verification that were created before the cutoff, oldest first.
	ListUnverifiedPayments(ctx context.Context, createdBefore time.Time, limit int) ([]domain.Payment, error)

	// Exchange configuration methods
	CreateExchangeConfig(ctx context.Context, config *domain.ExchangeRateConfiguration) error
	FindExchangeConfigByID(ctx context.Context, id uuid.UUID) (*domain.ExchangeRateConfiguration, error)
	ListExchangeConfigs(ctx context.Context) ([]domain.ExchangeRateConfiguration, error)
	UpdateExchangeConfig(ctx context.Context, config *domain.ExchangeRateConfiguration) error
	SoftDeleteExchangeConfig(ctx context.Context, id uuid.UUID, deletedAt time.Time) error
	// FindMatchingConfigs returns the active configurations for the currency
	// pair whose [min, max] band contains the amount, newest first.
	FindMatchingConfigs(ctx context.Context, sourceCurrency, targetCurrency string, amount decimal.Decimal) ([]domain.ExchangeRateConfiguration, error)
}
