package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuno/payment-service/internal/domain"
	"github.com/xuno/payment-service/internal/store"
)

func validConfigRequest() domain.ExchangeConfigRequest {
	return domain.ExchangeConfigRequest{
		SourceCurrency: "usd",
		TargetCurrency: "ghs",
		MinAmount:      decimal.RequireFromString("1.00"),
		MaxAmount:      decimal.RequireFromString("10000.00"),
		FxRate:         decimal.RequireFromString("15.50"),
	}
}

func TestCreateExchangeConfigNormalizesCurrencies(t *testing.T) {
	repo := newRepoStub()
	service, _ := newTestService(t, repo)

	config, err := service.CreateExchangeConfig(context.Background(), validConfigRequest())
	if err != nil {
		t.Fatalf("create config failed: %v", err)
	}
	if config.SourceCurrency != "USD" || config.TargetCurrency != "GHS" {
		t.Fatalf("expected upper-cased currencies, got %s/%s", config.SourceCurrency, config.TargetCurrency)
	}
	if config.ID == uuid.Nil {
		t.Fatal("expected generated config id")
	}
}

func TestCreateExchangeConfigValidation(t *testing.T) {
	repo := newRepoStub()
	service, _ := newTestService(t, repo)

	tests := []struct {
		name    string
		mutate  func(req *domain.ExchangeConfigRequest)
		wantErr error
	}{
		{
			name:    "missing source currency",
			mutate:  func(req *domain.ExchangeConfigRequest) { req.SourceCurrency = " " },
			wantErr: ErrCurrencyPairRequired,
		},
		{
			name: "inverted amount band",
			mutate: func(req *domain.ExchangeConfigRequest) {
				req.MinAmount = decimal.RequireFromString("500.00")
				req.MaxAmount = decimal.RequireFromString("100.00")
			},
			wantErr: ErrInvalidAmountBand,
		},
		{
			name:    "zero fx rate",
			mutate:  func(req *domain.ExchangeConfigRequest) { req.FxRate = decimal.Zero },
			wantErr: ErrNonPositiveFxRate,
		},
		{
			name:    "negative fx rate",
			mutate:  func(req *domain.ExchangeConfigRequest) { req.FxRate = decimal.RequireFromString("-1.00") },
			wantErr: ErrNonPositiveFxRate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validConfigRequest()
			tt.mutate(&req)

			_, err := service.CreateExchangeConfig(context.Background(), req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestUpdateExchangeConfig(t *testing.T) {
	repo := newRepoStub()
	service, _ := newTestService(t, repo)

	created, err := service.CreateExchangeConfig(context.Background(), validConfigRequest())
	if err != nil {
		t.Fatalf("create config failed: %v", err)
	}

	update := validConfigRequest()
	update.FxRate = decimal.RequireFromString("16.00")
	updated, err := service.UpdateExchangeConfig(context.Background(), created.ID, update)
	if err != nil {
		t.Fatalf("update config failed: %v", err)
	}
	if !updated.FxRate.Equal(decimal.RequireFromString("16.00")) {
		t.Fatalf("expected updated rate, got %s", updated.FxRate)
	}
}

func TestDeleteExchangeConfigStopsMatching(t *testing.T) {
	repo := newRepoStub()
	service, _ := newTestService(t, repo)

	created, err := service.CreateExchangeConfig(context.Background(), validConfigRequest())
	if err != nil {
		t.Fatalf("create config failed: %v", err)
	}

	if err := service.DeleteExchangeConfig(context.Background(), created.ID); err != nil {
		t.Fatalf("delete config failed: %v", err)
	}

	if _, err := service.GetExchangeConfig(context.Background(), created.ID); !errors.Is(err, store.ErrConfigNotFound) {
		t.Fatalf("expected deleted config to be gone, got %v", err)
	}

	_, _, err = service.resolveExchangeRate(context.Background(), "USD", "GHS", decimal.RequireFromString("500.00"))
	if !errors.Is(err, ErrNoMatchingConfig) {
		t.Fatalf("expected deleted config to stop matching, got %v", err)
	}

	configs, err := service.ListExchangeConfigs(context.Background())
	if err != nil {
		t.Fatalf("list configs failed: %v", err)
	}
	if len(configs) != 0 {
		t.Fatalf("expected empty listing after delete, got %d", len(configs))
	}
}
