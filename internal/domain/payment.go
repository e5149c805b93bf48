/**
 * @description
 * This file defines the core domain models for the payment-service. These structs
 * represent the payment aggregate, its embedded value objects, and the data transfer
 * objects (DTOs) exchanged with the API layer.
 *
 * @notes
 * - Monetary values use `decimal.Decimal` to avoid floating-point inaccuracies
 *   with financial data; two-decimal rounding is applied at calculation sites.
 * - Account and routing numbers are stored encrypted and only ever leave the
 *   service masked. The DTOs carry the masked form.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ActorRole identifies who performed a payment mutation.
type ActorRole string

const (
	RoleAdmin  ActorRole = "ADMIN"
	RoleSystem ActorRole = "SYSTEM_USER"
)

// SystemActorID is recorded when no explicit actor id is supplied.
const SystemActorID = "system"

// SenderFundingAccountInfo holds the sender's funding account identifiers.
// Both fields are encrypted at rest; nil means not provided.
type SenderFundingAccountInfo struct {
	AccountNumber *string `json:"account_number,omitempty"`
	RoutingNumber *string `json:"routing_number,omitempty"`
}

// SenderInfo describes the paying party.
type SenderInfo struct {
	Name            string                    `json:"name"`
	Address         string                    `json:"address,omitempty"`
	ReferenceNumber string                    `json:"reference_number,omitempty"`
	FundingAccount  *SenderFundingAccountInfo `json:"funding_account,omitempty"`
}

// ReceiverAccountInfo holds the receiving account identifiers. The account
// number is encrypted at rest; bank and swift codes are not sensitive.
type ReceiverAccountInfo struct {
	AccountNumber *string `json:"account_number,omitempty"`
	BankCode      string  `json:"bank_code,omitempty"`
	SwiftCode     string  `json:"swift_code,omitempty"`
}

// ReceiverInfo describes the receiving party.
type ReceiverInfo struct {
	Name            string               `json:"name"`
	Address         string               `json:"address,omitempty"`
	ReferenceNumber string               `json:"reference_number,omitempty"`
	Account         *ReceiverAccountInfo `json:"account,omitempty"`
}

// ExchangeRateCalculationResult snapshots the configuration and rate applied to
// a payment at creation time. It is embedded in Payment and never mutated.
type ExchangeRateCalculationResult struct {
	ExchangeConfigID uuid.UUID       `json:"exchange_config_id"`
	ExchangeRate     decimal.Decimal `json:"exchange_rate"`
	SourceCurrency   string          `json:"source_currency"`
	TargetCurrency   string          `json:"target_currency"`
	AppliedAt        time.Time       `json:"applied_at"`
}

// FeeCalculationResult snapshots the fee breakdown applied to a payment.
type FeeCalculationResult struct {
	FeeFlat          decimal.Decimal `json:"fee_flat"`
	FeePercent       decimal.Decimal `json:"fee_percent"`
	FlatFeeAmount    decimal.Decimal `json:"flat_fee_amount"`
	PercentFeeAmount decimal.Decimal `json:"percent_fee_amount"`
	TotalFee         decimal.Decimal `json:"total_fee"`
	CalculatedAt     time.Time       `json:"calculated_at"`
}

// StatusHistoryEntry records one status mutation. The history list on Payment
// is append-only: it is never reordered or truncated.
type StatusHistoryEntry struct {
	Status        PaymentStatus `json:"status"`
	ChangedBy     string        `json:"changed_by"`
	ChangedByRole ActorRole     `json:"changed_by_role"`
	ChangedAt     time.Time     `json:"changed_at"`
	Note          string        `json:"note,omitempty"`
}

// Payment is the aggregate root for a cross-currency payment. It is created
// once, mutated only through the lifecycle engine's transition and
// reconciliation operations, and soft-deleted rather than removed.
type Payment struct {
	ID              uuid.UUID `json:"id"`
	ReferenceNumber string    `json:"reference_number"`
	IdempotencyKey  *string   `json:"idempotency_key,omitempty"`

	Sender   SenderInfo   `json:"sender"`
	Receiver ReceiverInfo `json:"receiver"`

	SourceCurrency     string `json:"source_currency"`
	TargetCurrency     string `json:"target_currency"`
	SourceCountry      string `json:"source_country"`
	DestinationCountry string `json:"destination_country"`
	Corridor           string `json:"corridor,omitempty"`

	SourceAmount decimal.Decimal `json:"source_amount"`
	TargetAmount decimal.Decimal `json:"target_amount"`

	Purpose string `json:"purpose,omitempty"`

	Status        PaymentStatus        `json:"status"`
	StatusHistory []StatusHistoryEntry `json:"status_history"`

	ExchangeRateCalculation *ExchangeRateCalculationResult `json:"exchange_rate_calculation,omitempty"`
	FeeCalculation          *FeeCalculationResult          `json:"fee_calculation,omitempty"`

	CreatedBy       string     `json:"created_by"`
	CreatedByRole   ActorRole  `json:"created_by_role"`
	ValidatedBy     *string    `json:"validated_by,omitempty"`
	ValidatedByRole *ActorRole `json:"validated_by_role,omitempty"`

	SystemVerified bool `json:"system_verified"`

	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
	EstimatedDeliveryDate time.Time `json:"estimated_delivery_date"`

	Deleted   bool       `json:"-"`
	DeletedAt *time.Time `json:"-"`
}

// AddStatusHistory appends exactly one entry to the payment's history.
func (p *Payment) AddStatusHistory(entry StatusHistoryEntry) {
	p.StatusHistory = append(p.StatusHistory, entry)
}

// CreatePaymentRequest is the DTO for incoming payment creation requests.
type CreatePaymentRequest struct {
	IdempotencyKey     *string         `json:"idempotency_key,omitempty"`
	Sender             *SenderInfo     `json:"sender"`
	Receiver           *ReceiverInfo   `json:"receiver"`
	SourceCurrency     string          `json:"source_currency"`
	TargetCurrency     string          `json:"target_currency"`
	SourceCountry      string          `json:"source_country"`
	DestinationCountry string          `json:"destination_country"`
	SourceAmount       decimal.Decimal `json:"source_amount"`
	Purpose            string          `json:"purpose,omitempty"`
	Corridor           string          `json:"corridor,omitempty"`
}

// StatusUpdateRequest is the DTO for the administrator validation endpoint.
type StatusUpdateRequest struct {
	Status PaymentStatus `json:"status"`
	Note   string        `json:"note,omitempty"`
}

// PaymentResponse is the summary view of a payment returned by create,
// validate, and list operations. Sensitive account fields are masked.
type PaymentResponse struct {
	ID                      uuid.UUID                      `json:"id"`
	ReferenceNumber         string                         `json:"reference_number"`
	Sender                  SenderInfo                     `json:"sender"`
	Receiver                ReceiverInfo                   `json:"receiver"`
	SourceCurrency          string                         `json:"source_currency"`
	TargetCurrency          string                         `json:"target_currency"`
	SourceCountry           string                         `json:"source_country"`
	DestinationCountry      string                         `json:"destination_country"`
	Corridor                string                         `json:"corridor,omitempty"`
	SourceAmount            decimal.Decimal                `json:"source_amount"`
	TargetAmount            decimal.Decimal                `json:"target_amount"`
	Purpose                 string                         `json:"purpose,omitempty"`
	Status                  PaymentStatus                  `json:"status"`
	ExchangeRateCalculation *ExchangeRateCalculationResult `json:"exchange_rate_calculation,omitempty"`
	FeeCalculation          *FeeCalculationResult          `json:"fee_calculation,omitempty"`
	SystemVerified          bool                           `json:"system_verified"`
	CreatedBy               string                         `json:"created_by"`
	ValidatedBy             *string                        `json:"validated_by,omitempty"`
	CreatedAt               time.Time                      `json:"created_at"`
	UpdatedAt               time.Time                      `json:"updated_at"`
	EstimatedDeliveryDate   time.Time                      `json:"estimated_delivery_date"`
}

// PaymentDetailResponse is the detail view: the summary plus the full status
// history. Composition rather than inheritance keeps the two views in sync.
type PaymentDetailResponse struct {
	PaymentResponse
	StatusHistory []StatusHistoryEntry `json:"status_history"`
}

// PaymentListOptions controls filtering and pagination for payment listings.
type PaymentListOptions struct {
	Status          *PaymentStatus
	DateFrom        *time.Time
	DateTo          *time.Time
	SenderReference string
	Page            int
	Size            int
}

// PaymentPage is one page of a filtered payment listing.
type PaymentPage struct {
	Items      []PaymentResponse `json:"items"`
	Page       int               `json:"page"`
	Size       int               `json:"size"`
	TotalItems int64             `json:"total_items"`
	TotalPages int               `json:"total_pages"`
}

// ExchangeRateConfiguration is a currency-pair/amount-band rule bundling an
// exchange rate and fee parameters. Once matched against a payment the payment
// keeps its own snapshot, so later edits never drift historical payments.
type ExchangeRateConfiguration struct {
	ID             uuid.UUID        `json:"id"`
	SourceCurrency string           `json:"source_currency"`
	TargetCurrency string           `json:"target_currency"`
	MinAmount      decimal.Decimal  `json:"min_amount"`
	MaxAmount      decimal.Decimal  `json:"max_amount"`
	FxRate         decimal.Decimal  `json:"fx_rate"`
	FeeFlat        *decimal.Decimal `json:"fee_flat,omitempty"`
	FeePercent     *decimal.Decimal `json:"fee_percent,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	Deleted        bool             `json:"-"`
	DeletedAt      *time.Time       `json:"-"`
}

// ExchangeConfigRequest is the DTO for creating or updating a configuration.
type ExchangeConfigRequest struct {
	SourceCurrency string           `json:"source_currency"`
	TargetCurrency string           `json:"target_currency"`
	MinAmount      decimal.Decimal  `json:"min_amount"`
	MaxAmount      decimal.Decimal  `json:"max_amount"`
	FxRate         decimal.Decimal  `json:"fx_rate"`
	FeeFlat        *decimal.Decimal `json:"fee_flat,omitempty"`
	FeePercent     *decimal.Decimal `json:"fee_percent,omitempty"`
}
