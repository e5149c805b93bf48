package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuno/payment-service/internal/domain"
)

func TestCalculateFees(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	decPtr := func(value string) *decimal.Decimal {
		d := decimal.RequireFromString(value)
		return &d
	}

	tests := []struct {
		name        string
		amount      string
		feeFlat     *decimal.Decimal
		feePercent  *decimal.Decimal
		wantPercent string
		wantTotal   string
	}{
		{
			name:        "flat plus percent",
			amount:      "1000.00",
			feeFlat:     decPtr("10.00"),
			feePercent:  decPtr("0.04"),
			wantPercent: "0.40",
			wantTotal:   "10.40",
		},
		{
			name:        "percent rounds half up",
			amount:      "1250.00",
			feeFlat:     decPtr("0.00"),
			feePercent:  decPtr("0.03"),
			wantPercent: "0.38",
			wantTotal:   "0.38",
		},
		{
			name:        "nil fees default to zero",
			amount:      "1000.00",
			feeFlat:     nil,
			feePercent:  nil,
			wantPercent: "0.00",
			wantTotal:   "0.00",
		},
		{
			name:        "flat only",
			amount:      "500.00",
			feeFlat:     decPtr("25.00"),
			feePercent:  nil,
			wantPercent: "0.00",
			wantTotal:   "25.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &domain.ExchangeRateConfiguration{
				FeeFlat:    tt.feeFlat,
				FeePercent: tt.feePercent,
			}
			amount := decimal.RequireFromString(tt.amount)

			result := calculateFees(amount, config, now)
			if !result.PercentFeeAmount.Equal(decimal.RequireFromString(tt.wantPercent)) {
				t.Fatalf("expected percent fee %s, got %s", tt.wantPercent, result.PercentFeeAmount)
			}
			if !result.TotalFee.Equal(decimal.RequireFromString(tt.wantTotal)) {
				t.Fatalf("expected total fee %s, got %s", tt.wantTotal, result.TotalFee)
			}
			if !result.CalculatedAt.Equal(now) {
				t.Fatalf("expected calculation timestamp %s, got %s", now, result.CalculatedAt)
			}
		})
	}
}

func TestCalculateTargetAmount(t *testing.T) {
	amount := decimal.RequireFromString("1000.00")
	rate := &domain.ExchangeRateCalculationResult{
		ExchangeRate: decimal.RequireFromString("0.95"),
	}
	fees := domain.FeeCalculationResult{
		TotalFee: decimal.RequireFromString("50.00"),
	}

	got := calculateTargetAmount(amount, rate, fees)
	if !got.Equal(decimal.RequireFromString("900.00")) {
		t.Fatalf("expected 900.00, got %s", got)
	}
}

func TestResolveExchangeRatePrefersNewestConfig(t *testing.T) {
	repo := newRepoStub()
	service, _ := newTestService(t, repo)

	older := domain.ExchangeRateConfiguration{
		ID:             uuid.New(),
		SourceCurrency: "USD",
		TargetCurrency: "GHS",
		MinAmount:      decimal.RequireFromString("1.00"),
		MaxAmount:      decimal.RequireFromString("10000.00"),
		FxRate:         decimal.RequireFromString("15.00"),
	}
	newer := older
	newer.ID = uuid.New()
	newer.FxRate = decimal.RequireFromString("15.50")
	repo.configs = append(repo.configs, older, newer)

	config, result, err := service.resolveExchangeRate(context.Background(), "USD", "GHS", decimal.RequireFromString("500.00"))
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if config.ID != newer.ID {
		t.Fatal("expected the newest overlapping config to win")
	}
	if !result.ExchangeRate.Equal(newer.FxRate) {
		t.Fatalf("expected rate %s, got %s", newer.FxRate, result.ExchangeRate)
	}
}

func TestResolveExchangeRateRespectsAmountBand(t *testing.T) {
	repo := newRepoStub()
	service, _ := newTestService(t, repo)

	repo.configs = append(repo.configs, domain.ExchangeRateConfiguration{
		ID:             uuid.New(),
		SourceCurrency: "USD",
		TargetCurrency: "GHS",
		MinAmount:      decimal.RequireFromString("100.00"),
		MaxAmount:      decimal.RequireFromString("1000.00"),
		FxRate:         decimal.RequireFromString("15.50"),
	})

	// Band bounds are inclusive.
	if _, _, err := service.resolveExchangeRate(context.Background(), "USD", "GHS", decimal.RequireFromString("100.00")); err != nil {
		t.Fatalf("expected min bound to match: %v", err)
	}
	if _, _, err := service.resolveExchangeRate(context.Background(), "USD", "GHS", decimal.RequireFromString("1000.00")); err != nil {
		t.Fatalf("expected max bound to match: %v", err)
	}

	_, _, err := service.resolveExchangeRate(context.Background(), "USD", "GHS", decimal.RequireFromString("1000.01"))
	if !errors.Is(err, ErrNoMatchingConfig) {
		t.Fatalf("expected no match above the band, got %v", err)
	}
	_, _, err = service.resolveExchangeRate(context.Background(), "USD", "EUR", decimal.RequireFromString("500.00"))
	if !errors.Is(err, ErrNoMatchingConfig) {
		t.Fatalf("expected no match for a different pair, got %v", err)
	}
}
