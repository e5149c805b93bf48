/**
 * @description
 * This file contains the business logic for managing exchange rate
 * configurations: the currency-pair and amount-band rules that payment
 * creation resolves against. Configurations are soft-deleted so that payments
 * holding a snapshot of one keep a resolvable audit trail.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/xuno/payment-service/internal/domain"
)

var (
	ErrCurrencyPairRequired = errors.New("source and target currencies are required")
	ErrInvalidAmountBand    = errors.New("min amount must not exceed max amount")
	ErrNonPositiveFxRate    = errors.New("fx rate must be positive")
)

func validateExchangeConfigRequest(req *domain.ExchangeConfigRequest) error {
	req.SourceCurrency = strings.ToUpper(strings.TrimSpace(req.SourceCurrency))
	req.TargetCurrency = strings.ToUpper(strings.TrimSpace(req.TargetCurrency))
	if req.SourceCurrency == "" || req.TargetCurrency == "" {
		return ErrCurrencyPairRequired
	}
	if req.MinAmount.GreaterThan(req.MaxAmount) {
		return ErrInvalidAmountBand
	}
	if !req.FxRate.IsPositive() {
		return ErrNonPositiveFxRate
	}
	return nil
}

// CreateExchangeConfig registers a new rate configuration.
func (s *Service) CreateExchangeConfig(ctx context.Context, req domain.ExchangeConfigRequest) (*domain.ExchangeRateConfiguration, error) {
	if err := validateExchangeConfigRequest(&req); err != nil {
		return nil, err
	}

	now := s.now()
	config := &domain.ExchangeRateConfiguration{
		ID:             uuid.New(),
		SourceCurrency: req.SourceCurrency,
		TargetCurrency: req.TargetCurrency,
		MinAmount:      req.MinAmount,
		MaxAmount:      req.MaxAmount,
		FxRate:         req.FxRate,
		FeeFlat:        req.FeeFlat,
		FeePercent:     req.FeePercent,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.CreateExchangeConfig(ctx, config); err != nil {
		return nil, fmt.Errorf("persist exchange config: %w", err)
	}
	log.Printf("level=info component=payment_service op=create_exchange_config config_id=%s pair=%s/%s", config.ID, config.SourceCurrency, config.TargetCurrency)
	return config, nil
}

// GetExchangeConfig returns one configuration by id.
func (s *Service) GetExchangeConfig(ctx context.Context, id uuid.UUID) (*domain.ExchangeRateConfiguration, error) {
	return s.repo.FindExchangeConfigByID(ctx, id)
}

// ListExchangeConfigs returns all active configurations, newest first.
func (s *Service) ListExchangeConfigs(ctx context.Context) ([]domain.ExchangeRateConfiguration, error) {
	return s.repo.ListExchangeConfigs(ctx)
}

// UpdateExchangeConfig replaces the parameters of an existing configuration.
// Payments created before the change keep their own snapshot.
func (s *Service) UpdateExchangeConfig(ctx context.Context, id uuid.UUID, req domain.ExchangeConfigRequest) (*domain.ExchangeRateConfiguration, error) {
	if err := validateExchangeConfigRequest(&req); err != nil {
		return nil, err
	}

	config, err := s.repo.FindExchangeConfigByID(ctx, id)
	if err != nil {
		return nil, err
	}

	config.SourceCurrency = req.SourceCurrency
	config.TargetCurrency = req.TargetCurrency
	config.MinAmount = req.MinAmount
	config.MaxAmount = req.MaxAmount
	config.FxRate = req.FxRate
	config.FeeFlat = req.FeeFlat
	config.FeePercent = req.FeePercent
	config.UpdatedAt = s.now()

	if err := s.repo.UpdateExchangeConfig(ctx, config); err != nil {
		return nil, fmt.Errorf("persist exchange config update: %w", err)
	}
	log.Printf("level=info component=payment_service op=update_exchange_config config_id=%s", config.ID)
	return config, nil
}

// DeleteExchangeConfig soft-deletes a configuration so new payments stop
// matching it.
func (s *Service) DeleteExchangeConfig(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDeleteExchangeConfig(ctx, id, s.now()); err != nil {
		return err
	}
	log.Printf("level=info component=payment_service op=delete_exchange_config config_id=%s", id)
	return nil
}
