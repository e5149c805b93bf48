/**
 * @description
 * Exchange-rate resolution and fee calculation for the payment lifecycle
 * engine. The resolver picks the applicable configuration for a currency pair
 * and amount; the fee calculator is a pure function of its inputs and the
 * supplied timestamp.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuno/payment-service/internal/domain"
)

// ErrNoMatchingConfig is returned when no active exchange configuration covers
// the requested currency pair and amount.
var ErrNoMatchingConfig = errors.New("no exchange configuration matches the currency pair and amount")

var oneHundred = decimal.NewFromInt(100)

// resolveExchangeRate selects the applicable configuration and snapshots the
// rate applied to the payment. The store returns candidates newest first, so
// overlapping bands resolve to the most recently created configuration.
func (s *Service) resolveExchangeRate(ctx context.Context, sourceCurrency, targetCurrency string, amount decimal.Decimal) (*domain.ExchangeRateConfiguration, *domain.ExchangeRateCalculationResult, error) {
	configs, err := s.repo.FindMatchingConfigs(ctx, sourceCurrency, targetCurrency, amount)
	if err != nil {
		return nil, nil, fmt.Errorf("find matching exchange configs: %w", err)
	}
	if len(configs) == 0 {
		return nil, nil, ErrNoMatchingConfig
	}

	config := configs[0]
	result := &domain.ExchangeRateCalculationResult{
		ExchangeConfigID: config.ID,
		ExchangeRate:     config.FxRate,
		SourceCurrency:   config.SourceCurrency,
		TargetCurrency:   config.TargetCurrency,
		AppliedAt:        s.now(),
	}
	return &config, result, nil
}

// calculateFees derives the fee breakdown for a source amount from a resolved
// configuration. Missing flat or percent fees are treated as zero. The percent
// fee amount is rounded half up to two decimal places.
func calculateFees(sourceAmount decimal.Decimal, config *domain.ExchangeRateConfiguration, calculatedAt time.Time) domain.FeeCalculationResult {
	flatFee := decimal.Zero
	if config.FeeFlat != nil {
		flatFee = *config.FeeFlat
	}
	percentFee := decimal.Zero
	if config.FeePercent != nil {
		percentFee = *config.FeePercent
	}

	percentFeeAmount := sourceAmount.Mul(percentFee).Div(oneHundred).Round(2)

	return domain.FeeCalculationResult{
		FeeFlat:          flatFee,
		FeePercent:       percentFee,
		FlatFeeAmount:    flatFee,
		PercentFeeAmount: percentFeeAmount,
		TotalFee:         flatFee.Add(percentFeeAmount),
		CalculatedAt:     calculatedAt,
	}
}

// calculateTargetAmount converts the source amount at the resolved rate and
// deducts the total fee.
func calculateTargetAmount(sourceAmount decimal.Decimal, rate *domain.ExchangeRateCalculationResult, fees domain.FeeCalculationResult) decimal.Decimal {
	return sourceAmount.Mul(rate.ExchangeRate).Sub(fees.TotalFee)
}
