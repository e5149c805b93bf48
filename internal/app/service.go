/**
 * @description
 * This file contains the core business logic for the payment-service. The
 * `Service` struct is the payment lifecycle engine: it owns idempotent
 * creation, the status state machine, the encryption and masking discipline
 * for account identifiers, and the reconciliation of the asynchronous system
 * verification with administrator validation.
 *
 * Key features:
 * - Creation persists the payment as PENDING_ADMIN_REVIEW before the async
 *   classification is scheduled, so the response never waits on it.
 * - Every status mutation appends exactly one status-history entry.
 * - Sensitive fields are encrypted at rest and only ever returned masked.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - github.com/google/uuid: Payment identity.
 * - github.com/shopspring/decimal: Monetary arithmetic.
 * - internal/domain, internal/security, internal/store, pkg/rabbitmq,
 *   pkg/reference: Internal packages.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuno/payment-service/internal/domain"
	"github.com/xuno/payment-service/internal/security"
	"github.com/xuno/payment-service/internal/store"
	"github.com/xuno/payment-service/pkg/rabbitmq"
	"github.com/xuno/payment-service/pkg/reference"
)

const (
	estimatedDeliveryLeadTime = 48 * time.Hour
	asyncVerificationTimeout  = 30 * time.Second
)

var (
	ErrIdempotencyKeyConflict = errors.New("payment with this idempotency key already exists")
	ErrPaymentNotVerified     = errors.New("payment must be verified by the system before admin validation")
	ErrUnknownStatus          = errors.New("unknown payment status")
)

// RateLimitedError is returned when the creation rate limit is exhausted.
type RateLimitedError struct {
	RetryAfterSeconds int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("payment creation rate limit exceeded, retry after %ds", e.RetryAfterSeconds)
}

// RateLimiter consumes one token from a counting window and reports the
// running count plus the retry-after horizon.
type RateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// Service provides the core business logic for payments.
type Service struct {
	repo   store.Repository
	cipher *security.FieldCipher
	events rabbitmq.Publisher

	rules []ClassificationRule

	limiter              RateLimiter
	createLimitPerMinute int

	// Injection points for tests; production wiring uses the defaults.
	now            func() time.Time
	schedule       func(func())
	newPaymentRef  func() string
	newSenderRef   func() string
	newReceiverRef func() string
}

// NewService creates a new payment service instance.
func NewService(repo store.Repository, cipher *security.FieldCipher, events rabbitmq.Publisher) *Service {
	return &Service{
		repo:           repo,
		cipher:         cipher,
		events:         events,
		rules:          DefaultClassificationRules(),
		now:            time.Now,
		schedule:       func(fn func()) { go fn() },
		newPaymentRef:  reference.NewPaymentReference,
		newSenderRef:   reference.NewSenderReference,
		newReceiverRef: reference.NewReceiverReference,
	}
}

// SetClassificationRules replaces the async verification rules. The slice is
// evaluated in order; the first match wins.
func (s *Service) SetClassificationRules(rules []ClassificationRule) {
	s.rules = rules
}

// SetCreateRateLimiter enables distributed rate limiting on payment creation.
func (s *Service) SetCreateRateLimiter(limiter RateLimiter, perMinute int) {
	s.limiter = limiter
	s.createLimitPerMinute = perMinute
}

func normalizeActor(actorID string) string {
	actor := strings.TrimSpace(actorID)
	if actor == "" {
		return domain.SystemActorID
	}
	return actor
}

// Create processes a payment creation request end to end: idempotency check,
// synchronous verification guard, rate and fee resolution, encryption of
// sensitive fields, persistence with the initial history entry, and scheduling
// of the asynchronous classification. The returned response carries masked
// account fields.
func (s *Service) Create(ctx context.Context, req domain.CreatePaymentRequest, actorID string) (*domain.PaymentResponse, error) {
	actor := normalizeActor(actorID)
	log.Printf("level=info component=payment_service op=create source=%s target=%s amount=%s actor=%s",
		req.SourceCurrency, req.TargetCurrency, req.SourceAmount, actor)

	if err := s.checkCreateRateLimit(ctx, actor); err != nil {
		return nil, err
	}

	// Normalize before the duplicate lookup; the same trimmed form is
	// persisted, so a retried key always matches its stored counterpart.
	req.IdempotencyKey = normalizeIdempotencyKey(req.IdempotencyKey)

	if err := s.checkIdempotency(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	}

	if err := performInitialVerification(&req); err != nil {
		return nil, err
	}

	config, rateResult, err := s.resolveExchangeRate(ctx, req.SourceCurrency, req.TargetCurrency, req.SourceAmount)
	if err != nil {
		return nil, err
	}
	feeResult := calculateFees(req.SourceAmount, config, s.now())
	targetAmount := calculateTargetAmount(req.SourceAmount, rateResult, feeResult)

	now := s.now()
	payment := &domain.Payment{
		ID:                      uuid.New(),
		ReferenceNumber:         s.newPaymentRef(),
		IdempotencyKey:          req.IdempotencyKey,
		Sender:                  *req.Sender,
		Receiver:                *req.Receiver,
		SourceCurrency:          req.SourceCurrency,
		TargetCurrency:          req.TargetCurrency,
		SourceCountry:           req.SourceCountry,
		DestinationCountry:      req.DestinationCountry,
		Corridor:                req.Corridor,
		SourceAmount:            req.SourceAmount,
		TargetAmount:            targetAmount,
		Purpose:                 req.Purpose,
		Status:                  domain.StatusPendingAdminReview,
		ExchangeRateCalculation: rateResult,
		FeeCalculation:          &feeResult,
		CreatedBy:               actor,
		CreatedByRole:           domain.RoleAdmin,
		SystemVerified:          false,
		CreatedAt:               now,
		UpdatedAt:               now,
		EstimatedDeliveryDate:   now.Add(estimatedDeliveryLeadTime),
	}
	payment.Sender.ReferenceNumber = s.newSenderRef()
	payment.Receiver.ReferenceNumber = s.newReceiverRef()

	if err := s.encryptSensitive(payment); err != nil {
		return nil, err
	}

	payment.AddStatusHistory(domain.StatusHistoryEntry{
		Status:        domain.StatusPendingAdminReview,
		ChangedBy:     actor,
		ChangedByRole: domain.RoleAdmin,
		ChangedAt:     now,
		Note:          "Payment created",
	})

	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("persist payment: %w", err)
	}
	log.Printf("level=info component=payment_service op=create outcome=created payment_id=%s reference=%s", payment.ID, payment.ReferenceNumber)

	s.publishStatusEvent(ctx, payment, actor, domain.RoleAdmin)

	response, err := s.toMaskedResponse(payment)
	if err != nil {
		return nil, err
	}

	// The creation write happens-before this scheduling; nothing else about
	// the background task's timing is guaranteed.
	request := req
	paymentID := payment.ID
	s.schedule(func() { s.runAsyncVerification(paymentID, request) })

	return response, nil
}

// normalizeIdempotencyKey trims the key; blank keys collapse to nil.
func normalizeIdempotencyKey(key *string) *string {
	if key == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*key)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (s *Service) checkIdempotency(ctx context.Context, key *string) error {
	if key == nil {
		return nil
	}

	_, err := s.repo.FindPaymentByIdempotencyKey(ctx, *key)
	if err == nil {
		return ErrIdempotencyKeyConflict
	}
	if errors.Is(err, store.ErrPaymentNotFound) {
		return nil
	}
	return fmt.Errorf("idempotency lookup: %w", err)
}

func (s *Service) checkCreateRateLimit(ctx context.Context, actor string) error {
	if s.limiter == nil || s.createLimitPerMinute <= 0 {
		return nil
	}

	count, retryAfter, err := s.limiter.ConsumeRateLimit(ctx, "payment_create", actor, s.createLimitPerMinute, time.Minute)
	if err != nil {
		// The limiter is protective, not load-bearing; degrade open.
		log.Printf("level=warn component=payment_service msg=\"rate limiter unavailable\" actor=%s err=%v", actor, err)
		return nil
	}
	if count > s.createLimitPerMinute {
		return &RateLimitedError{RetryAfterSeconds: retryAfter}
	}
	return nil
}

// runAsyncVerification classifies the original request and reconciles the
// result into the stored payment. Failures here are logged and swallowed; the
// creation response has already been returned.
func (s *Service) runAsyncVerification(paymentID uuid.UUID, req domain.CreatePaymentRequest) {
	defer func() {
		// Injected classification rules must not take the process down.
		if r := recover(); r != nil {
			log.Printf("level=error component=payment_service op=async_verification outcome=panic payment_id=%s err=%v", paymentID, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), asyncVerificationTimeout)
	defer cancel()

	classified := classifyPayment(s.rules, &req)
	log.Printf("level=info component=payment_service op=async_verification payment_id=%s classified=%s", paymentID, classified)

	s.reconcileAsyncResult(ctx, paymentID, classified)
}

// reconcileAsyncResult folds a classification result into the stored payment.
// It re-fetches by id rather than closing over the in-memory snapshot, in case
// an administrator raced ahead. There is no ordering guarantee between this
// write and a concurrent Validate on the same payment: both are plain
// read-modify-write, so the later write wins. That race is part of the
// documented contract, not an oversight.
func (s *Service) reconcileAsyncResult(ctx context.Context, paymentID uuid.UUID, classified domain.PaymentStatus) {
	payment, err := s.repo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		log.Printf("level=error component=payment_service op=reconcile outcome=fetch_failed payment_id=%s err=%v", paymentID, err)
		return
	}

	now := s.now()
	if classified != domain.StatusPendingAdminReview {
		payment.Status = classified
		payment.AddStatusHistory(domain.StatusHistoryEntry{
			Status:        classified,
			ChangedBy:     domain.SystemActorID,
			ChangedByRole: domain.RoleSystem,
			ChangedAt:     now,
			Note:          fmt.Sprintf("System verification completed: %s", classified),
		})
	}
	payment.SystemVerified = true
	payment.UpdatedAt = now

	if err := s.repo.UpdatePayment(ctx, payment); err != nil {
		log.Printf("level=error component=payment_service op=reconcile outcome=update_failed payment_id=%s err=%v", paymentID, err)
		return
	}
	log.Printf("level=info component=payment_service op=reconcile outcome=ok payment_id=%s status=%s", paymentID, payment.Status)

	if classified != domain.StatusPendingAdminReview {
		s.publishStatusEvent(ctx, payment, domain.SystemActorID, domain.RoleSystem)
	}
}

// Validate applies an administrator's status decision to a payment.
func (s *Service) Validate(ctx context.Context, id uuid.UUID, req domain.StatusUpdateRequest, actorID string) (*domain.PaymentResponse, error) {
	actor := normalizeActor(actorID)
	log.Printf("level=info component=payment_service op=validate payment_id=%s status=%s actor=%s", id, req.Status, actor)

	if !req.Status.IsValid() {
		return nil, ErrUnknownStatus
	}

	payment, err := s.repo.FindPaymentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !payment.SystemVerified {
		return nil, ErrPaymentNotVerified
	}
	if err := domain.ValidateTransition(payment.Status, req.Status); err != nil {
		return nil, err
	}

	now := s.now()
	role := domain.RoleAdmin
	payment.Status = req.Status
	payment.ValidatedBy = &actor
	payment.ValidatedByRole = &role
	payment.UpdatedAt = now
	payment.AddStatusHistory(domain.StatusHistoryEntry{
		Status:        req.Status,
		ChangedBy:     actor,
		ChangedByRole: domain.RoleAdmin,
		ChangedAt:     now,
		Note:          req.Note,
	})

	if err := s.repo.UpdatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("persist validation: %w", err)
	}
	log.Printf("level=info component=payment_service op=validate outcome=ok payment_id=%s status=%s", payment.ID, payment.Status)

	s.publishStatusEvent(ctx, payment, actor, domain.RoleAdmin)

	return s.toMaskedResponse(payment)
}

// Find returns the detail view of a payment: the masked summary plus the full
// status history.
func (s *Service) Find(ctx context.Context, id uuid.UUID) (*domain.PaymentDetailResponse, error) {
	payment, err := s.repo.FindPaymentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	summary, err := s.toMaskedResponse(payment)
	if err != nil {
		return nil, err
	}

	history := make([]domain.StatusHistoryEntry, len(payment.StatusHistory))
	copy(history, payment.StatusHistory)

	return &domain.PaymentDetailResponse{
		PaymentResponse: *summary,
		StatusHistory:   history,
	}, nil
}

// FindAll returns one page of masked payment summaries matching the filters.
func (s *Service) FindAll(ctx context.Context, opts domain.PaymentListOptions) (*domain.PaymentPage, error) {
	if opts.Size <= 0 {
		opts.Size = 20
	}
	if opts.Page < 0 {
		opts.Page = 0
	}

	payments, total, err := s.repo.ListPayments(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	items := make([]domain.PaymentResponse, 0, len(payments))
	for i := range payments {
		summary, err := s.toMaskedResponse(&payments[i])
		if err != nil {
			return nil, err
		}
		items = append(items, *summary)
	}

	totalPages := int((total + int64(opts.Size) - 1) / int64(opts.Size))
	return &domain.PaymentPage{
		Items:      items,
		Page:       opts.Page,
		Size:       opts.Size,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

// encryptSensitive encrypts the account identifiers in place before the
// payment is persisted. Cipher failures abort creation.
func (s *Service) encryptSensitive(payment *domain.Payment) error {
	if payment.Sender.FundingAccount != nil {
		account := *payment.Sender.FundingAccount
		encryptedNumber, err := s.cipher.Encrypt(account.AccountNumber)
		if err != nil {
			return fmt.Errorf("encrypt sender account number: %w", err)
		}
		encryptedRouting, err := s.cipher.Encrypt(account.RoutingNumber)
		if err != nil {
			return fmt.Errorf("encrypt sender routing number: %w", err)
		}
		account.AccountNumber = encryptedNumber
		account.RoutingNumber = encryptedRouting
		payment.Sender.FundingAccount = &account
	}

	if payment.Receiver.Account != nil {
		account := *payment.Receiver.Account
		encryptedNumber, err := s.cipher.Encrypt(account.AccountNumber)
		if err != nil {
			return fmt.Errorf("encrypt receiver account number: %w", err)
		}
		account.AccountNumber = encryptedNumber
		payment.Receiver.Account = &account
	}

	return nil
}

// toMaskedResponse builds the caller-facing view with account identifiers
// masked, never raw-encrypted and never fully plaintext.
func (s *Service) toMaskedResponse(payment *domain.Payment) (*domain.PaymentResponse, error) {
	sender := payment.Sender
	if sender.FundingAccount != nil {
		account := *sender.FundingAccount
		maskedNumber, err := s.cipher.Mask(account.AccountNumber)
		if err != nil {
			return nil, fmt.Errorf("mask sender account number: %w", err)
		}
		maskedRouting, err := s.cipher.Mask(account.RoutingNumber)
		if err != nil {
			return nil, fmt.Errorf("mask sender routing number: %w", err)
		}
		account.AccountNumber = maskedNumber
		account.RoutingNumber = maskedRouting
		sender.FundingAccount = &account
	}

	receiver := payment.Receiver
	if receiver.Account != nil {
		account := *receiver.Account
		maskedNumber, err := s.cipher.Mask(account.AccountNumber)
		if err != nil {
			return nil, fmt.Errorf("mask receiver account number: %w", err)
		}
		account.AccountNumber = maskedNumber
		receiver.Account = &account
	}

	return &domain.PaymentResponse{
		ID:                      payment.ID,
		ReferenceNumber:         payment.ReferenceNumber,
		Sender:                  sender,
		Receiver:                receiver,
		SourceCurrency:          payment.SourceCurrency,
		TargetCurrency:          payment.TargetCurrency,
		SourceCountry:           payment.SourceCountry,
		DestinationCountry:      payment.DestinationCountry,
		Corridor:                payment.Corridor,
		SourceAmount:            payment.SourceAmount,
		TargetAmount:            payment.TargetAmount,
		Purpose:                 payment.Purpose,
		Status:                  payment.Status,
		ExchangeRateCalculation: payment.ExchangeRateCalculation,
		FeeCalculation:          payment.FeeCalculation,
		SystemVerified:          payment.SystemVerified,
		CreatedBy:               payment.CreatedBy,
		ValidatedBy:             payment.ValidatedBy,
		CreatedAt:               payment.CreatedAt,
		UpdatedAt:               payment.UpdatedAt,
		EstimatedDeliveryDate:   payment.EstimatedDeliveryDate,
	}, nil
}

func (s *Service) publishStatusEvent(ctx context.Context, payment *domain.Payment, actor string, role domain.ActorRole) {
	if s.events == nil {
		return
	}

	event := rabbitmq.PaymentStatusEvent{
		PaymentID:       payment.ID,
		ReferenceNumber: payment.ReferenceNumber,
		Status:          string(payment.Status),
		Actor:           actor,
		ActorRole:       string(role),
		Timestamp:       s.now(),
	}
	if err := s.events.PublishPaymentStatusEvent(ctx, event); err != nil {
		log.Printf("level=warn component=payment_service msg=\"status event publish failed\" payment_id=%s err=%v", payment.ID, err)
	}
}
