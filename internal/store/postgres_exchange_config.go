/**
 * @description
 * PostgreSQL implementation of the exchange-configuration side of the
 * `Repository` interface. Band matching happens in SQL so the newest-first
 * ordering the rate resolver relies on is enforced in one place.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/xuno/payment-service/internal/domain"
)

const exchangeConfigColumns = `id, source_currency, target_currency, min_amount, max_amount,
	fx_rate, fee_flat, fee_percent, created_at, updated_at`

func scanExchangeConfig(row rowScanner) (*domain.ExchangeRateConfiguration, error) {
	var c domain.ExchangeRateConfiguration
	err := row.Scan(
		&c.ID, &c.SourceCurrency, &c.TargetCurrency, &c.MinAmount, &c.MaxAmount,
		&c.FxRate, &c.FeeFlat, &c.FeePercent, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateExchangeConfig inserts a new configuration row.
func (r *PostgresRepository) CreateExchangeConfig(ctx context.Context, c *domain.ExchangeRateConfiguration) error {
	query := `INSERT INTO exchange_rate_configurations (
		id, source_currency, target_currency, min_amount, max_amount,
		fx_rate, fee_flat, fee_percent, created_at, updated_at, deleted
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, false)`

	_, err := r.db.Exec(ctx, query,
		c.ID, c.SourceCurrency, c.TargetCurrency, c.MinAmount, c.MaxAmount,
		c.FxRate, c.FeeFlat, c.FeePercent, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

// FindExchangeConfigByID retrieves an active configuration by id.
func (r *PostgresRepository) FindExchangeConfigByID(ctx context.Context, id uuid.UUID) (*domain.ExchangeRateConfiguration, error) {
	query := `SELECT ` + exchangeConfigColumns + ` FROM exchange_rate_configurations
		WHERE id = $1 AND deleted = false`
	c, err := scanExchangeConfig(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	return c, nil
}

// ListExchangeConfigs returns every active configuration, newest first.
func (r *PostgresRepository) ListExchangeConfigs(ctx context.Context) ([]domain.ExchangeRateConfiguration, error) {
	query := `SELECT ` + exchangeConfigColumns + ` FROM exchange_rate_configurations
		WHERE deleted = false ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []domain.ExchangeRateConfiguration
	for rows.Next() {
		c, err := scanExchangeConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, *c)
	}
	return configs, rows.Err()
}

// UpdateExchangeConfig replaces the mutable fields of an active configuration.
func (r *PostgresRepository) UpdateExchangeConfig(ctx context.Context, c *domain.ExchangeRateConfiguration) error {
	query := `UPDATE exchange_rate_configurations SET
		source_currency = $2, target_currency = $3, min_amount = $4, max_amount = $5,
		fx_rate = $6, fee_flat = $7, fee_percent = $8, updated_at = $9
	WHERE id = $1 AND deleted = false`

	tag, err := r.db.Exec(ctx, query,
		c.ID, c.SourceCurrency, c.TargetCurrency, c.MinAmount, c.MaxAmount,
		c.FxRate, c.FeeFlat, c.FeePercent, c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConfigNotFound
	}
	return nil
}

// SoftDeleteExchangeConfig marks a configuration deleted; it stops matching
// new payments but stays on disk for audit.
func (r *PostgresRepository) SoftDeleteExchangeConfig(ctx context.Context, id uuid.UUID, deletedAt time.Time) error {
	query := `UPDATE exchange_rate_configurations SET deleted = true, deleted_at = $2, updated_at = $2
		WHERE id = $1 AND deleted = false`

	tag, err := r.db.Exec(ctx, query, id, deletedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConfigNotFound
	}
	return nil
}

// FindMatchingConfigs returns active configurations for the pair whose band
// contains the amount inclusively, ordered newest first. Identical creation
// timestamps fall back to descending id so the ordering is a total order.
func (r *PostgresRepository) FindMatchingConfigs(ctx context.Context, sourceCurrency, targetCurrency string, amount decimal.Decimal) ([]domain.ExchangeRateConfiguration, error) {
	query := `SELECT ` + exchangeConfigColumns + ` FROM exchange_rate_configurations
		WHERE deleted = false
		  AND source_currency = $1 AND target_currency = $2
		  AND min_amount <= $3 AND max_amount >= $3
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, sourceCurrency, targetCurrency, amount)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []domain.ExchangeRateConfiguration
	for rows.Next() {
		c, err := scanExchangeConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, *c)
	}
	return configs, rows.Err()
}
