/**
 * @description
 * This file provides the PostgreSQL implementation of the payment side of the
 * `Repository` interface. Embedded value objects (sender, receiver, status
 * history, rate and fee snapshots) are stored as JSONB columns; scalar fields
 * map to regular columns so the listing filters can use indexes.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: The PostgreSQL driver.
 * - github.com/shopspring/decimal: Monetary columns.
 * - internal/domain: Domain models.
 */

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xuno/payment-service/internal/domain"
)

// PostgresRepository is the concrete Repository backed by a pgx pool.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const paymentColumns = `id, reference_number, idempotency_key, sender, receiver,
	source_currency, target_currency, source_country, destination_country, corridor,
	source_amount, target_amount, purpose, status, status_history,
	exchange_rate_calculation, fee_calculation,
	created_by, created_by_role, validated_by, validated_by_role,
	system_verified, created_at, updated_at, estimated_delivery_date`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var (
		p               domain.Payment
		senderJSON      []byte
		receiverJSON    []byte
		historyJSON     []byte
		rateJSON        []byte
		feeJSON         []byte
		validatedByRole *string
	)

	err := row.Scan(
		&p.ID, &p.ReferenceNumber, &p.IdempotencyKey, &senderJSON, &receiverJSON,
		&p.SourceCurrency, &p.TargetCurrency, &p.SourceCountry, &p.DestinationCountry, &p.Corridor,
		&p.SourceAmount, &p.TargetAmount, &p.Purpose, &p.Status, &historyJSON,
		&rateJSON, &feeJSON,
		&p.CreatedBy, &p.CreatedByRole, &p.ValidatedBy, &validatedByRole,
		&p.SystemVerified, &p.CreatedAt, &p.UpdatedAt, &p.EstimatedDeliveryDate,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(senderJSON, &p.Sender); err != nil {
		return nil, fmt.Errorf("decode sender: %w", err)
	}
	if err := json.Unmarshal(receiverJSON, &p.Receiver); err != nil {
		return nil, fmt.Errorf("decode receiver: %w", err)
	}
	if err := json.Unmarshal(historyJSON, &p.StatusHistory); err != nil {
		return nil, fmt.Errorf("decode status history: %w", err)
	}
	if len(rateJSON) > 0 {
		p.ExchangeRateCalculation = &domain.ExchangeRateCalculationResult{}
		if err := json.Unmarshal(rateJSON, p.ExchangeRateCalculation); err != nil {
			return nil, fmt.Errorf("decode exchange rate calculation: %w", err)
		}
	}
	if len(feeJSON) > 0 {
		p.FeeCalculation = &domain.FeeCalculationResult{}
		if err := json.Unmarshal(feeJSON, p.FeeCalculation); err != nil {
			return nil, fmt.Errorf("decode fee calculation: %w", err)
		}
	}
	if validatedByRole != nil {
		role := domain.ActorRole(*validatedByRole)
		p.ValidatedByRole = &role
	}

	return &p, nil
}

func encodePaymentJSON(p *domain.Payment) (sender, receiver, history, rate, fee []byte, err error) {
	if sender, err = json.Marshal(p.Sender); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("encode sender: %w", err)
	}
	if receiver, err = json.Marshal(p.Receiver); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("encode receiver: %w", err)
	}
	if history, err = json.Marshal(p.StatusHistory); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("encode status history: %w", err)
	}
	if p.ExchangeRateCalculation != nil {
		if rate, err = json.Marshal(p.ExchangeRateCalculation); err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("encode exchange rate calculation: %w", err)
		}
	}
	if p.FeeCalculation != nil {
		if fee, err = json.Marshal(p.FeeCalculation); err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("encode fee calculation: %w", err)
		}
	}
	return sender, receiver, history, rate, fee, nil
}

// CreatePayment inserts a new payment row.
func (r *PostgresRepository) CreatePayment(ctx context.Context, p *domain.Payment) error {
	senderJSON, receiverJSON, historyJSON, rateJSON, feeJSON, err := encodePaymentJSON(p)
	if err != nil {
		return err
	}

	var validatedByRole *string
	if p.ValidatedByRole != nil {
		role := string(*p.ValidatedByRole)
		validatedByRole = &role
	}

	query := `INSERT INTO payments (
		id, reference_number, idempotency_key, sender, receiver,
		source_currency, target_currency, source_country, destination_country, corridor,
		source_amount, target_amount, purpose, status, status_history,
		exchange_rate_calculation, fee_calculation,
		created_by, created_by_role, validated_by, validated_by_role,
		system_verified, created_at, updated_at, estimated_delivery_date, deleted
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, false
	)`

	_, err = r.db.Exec(ctx, query,
		p.ID, p.ReferenceNumber, p.IdempotencyKey, senderJSON, receiverJSON,
		p.SourceCurrency, p.TargetCurrency, p.SourceCountry, p.DestinationCountry, p.Corridor,
		p.SourceAmount, p.TargetAmount, p.Purpose, string(p.Status), historyJSON,
		rateJSON, feeJSON,
		p.CreatedBy, string(p.CreatedByRole), p.ValidatedBy, validatedByRole,
		p.SystemVerified, p.CreatedAt, p.UpdatedAt, p.EstimatedDeliveryDate,
	)
	return err
}

// FindPaymentByID retrieves a payment by id, excluding soft-deleted rows.
func (r *PostgresRepository) FindPaymentByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE id = $1 AND deleted = false`, paymentColumns)
	p, err := scanPayment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return p, nil
}

// FindPaymentByIdempotencyKey retrieves the non-deleted payment bound to the key.
func (r *PostgresRepository) FindPaymentByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE idempotency_key = $1 AND deleted = false`, paymentColumns)
	p, err := scanPayment(r.db.QueryRow(ctx, query, key))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return p, nil
}

// UpdatePayment replaces the mutable state of the payment row.
func (r *PostgresRepository) UpdatePayment(ctx context.Context, p *domain.Payment) error {
	senderJSON, receiverJSON, historyJSON, rateJSON, feeJSON, err := encodePaymentJSON(p)
	if err != nil {
		return err
	}

	var validatedByRole *string
	if p.ValidatedByRole != nil {
		role := string(*p.ValidatedByRole)
		validatedByRole = &role
	}

	query := `UPDATE payments SET
		sender = $2, receiver = $3, status = $4, status_history = $5,
		exchange_rate_calculation = $6, fee_calculation = $7,
		validated_by = $8, validated_by_role = $9,
		system_verified = $10, updated_at = $11, target_amount = $12
	WHERE id = $1 AND deleted = false`

	tag, err := r.db.Exec(ctx, query,
		p.ID, senderJSON, receiverJSON, string(p.Status), historyJSON,
		rateJSON, feeJSON,
		p.ValidatedBy, validatedByRole,
		p.SystemVerified, p.UpdatedAt, p.TargetAmount,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

// ListPayments returns one page of payments matching the filters, newest
// first, along with the total match count.
func (r *PostgresRepository) ListPayments(ctx context.Context, opts domain.PaymentListOptions) ([]domain.Payment, int64, error) {
	where := []string{"deleted = false"}
	args := []any{}

	if opts.Status != nil {
		args = append(args, string(*opts.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if opts.DateFrom != nil {
		args = append(args, *opts.DateFrom)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if opts.DateTo != nil {
		args = append(args, *opts.DateTo)
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if strings.TrimSpace(opts.SenderReference) != "" {
		args = append(args, strings.TrimSpace(opts.SenderReference))
		where = append(where, fmt.Sprintf("sender->>'reference_number' = $%d", len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT count(*) FROM payments WHERE %s", whereClause)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := opts.Page
	if page < 0 {
		page = 0
	}
	size := opts.Size
	if size <= 0 {
		size = 20
	}

	args = append(args, size, page*size)
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		paymentColumns, whereClause, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

// ListUnverifiedPayments returns payments awaiting system verification that
// were created before the cutoff, oldest first. Used by the backstop sweep.
func (r *PostgresRepository) ListUnverifiedPayments(ctx context.Context, createdBefore time.Time, limit int) ([]domain.Payment, error) {
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`SELECT %s FROM payments
		WHERE deleted = false AND system_verified = false AND created_at < $1
		ORDER BY created_at ASC LIMIT $2`, paymentColumns)

	rows, err := r.db.Query(ctx, query, createdBefore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}
