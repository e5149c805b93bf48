/**
 * @description
 * This file contains the HTTP handlers for the payment endpoints. Handlers
 * parse incoming requests, call the application service, and map service
 * errors onto HTTP status codes. They act as the bridge between the web layer
 * and the business logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/xuno/payment-service/internal/app"
	"github.com/xuno/payment-service/internal/domain"
	"github.com/xuno/payment-service/internal/store"
)

// PaymentHandlers holds the application service that handlers will use.
type PaymentHandlers struct {
	service *app.Service
}

// NewPaymentHandlers creates a new instance of PaymentHandlers.
func NewPaymentHandlers(service *app.Service) *PaymentHandlers {
	return &PaymentHandlers{service: service}
}

// CreatePaymentHandler handles requests to create a new payment.
func (h *PaymentHandlers) CreatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetAdminID(r.Context())

	var req domain.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// The Idempotency-Key header takes precedence over the body field.
	if headerKey := strings.TrimSpace(r.Header.Get("Idempotency-Key")); headerKey != "" {
		req.IdempotencyKey = &headerKey
	}

	response, err := h.service.Create(r.Context(), req, actor)
	if err != nil {
		h.writeCreateError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, response)
}

func (h *PaymentHandlers) writeCreateError(w http.ResponseWriter, err error) {
	var rateLimited *app.RateLimitedError
	switch {
	case errors.Is(err, app.ErrIdempotencyKeyConflict):
		h.writeError(w, http.StatusConflict, "A payment with this idempotency key already exists")
	case errors.Is(err, app.ErrSenderReceiverRequired),
		errors.Is(err, app.ErrSenderAccountRequired),
		errors.Is(err, app.ErrReceiverAccountRequired),
		errors.Is(err, app.ErrSameCurrencyPair):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrNoMatchingConfig):
		h.writeError(w, http.StatusNotFound, "No exchange rate configuration matches this currency pair and amount")
	case errors.As(err, &rateLimited):
		w.Header().Set("Retry-After", strconv.Itoa(rateLimited.RetryAfterSeconds))
		h.writeError(w, http.StatusTooManyRequests, "Too many payment creation requests, please retry later")
	default:
		log.Printf("level=error component=api msg=\"payment creation failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// ValidatePaymentHandler handles an administrator's status decision on a payment.
func (h *PaymentHandlers) ValidatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := GetAdminID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get admin ID from context")
		return
	}

	id, ok := h.paymentIDFromURL(w, r)
	if !ok {
		return
	}

	var req domain.StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	response, err := h.service.Validate(r.Context(), id, req, actor)
	if err != nil {
		var invalidTransition *domain.InvalidTransitionError
		switch {
		case errors.Is(err, store.ErrPaymentNotFound):
			h.writeError(w, http.StatusNotFound, "Payment not found")
		case errors.Is(err, app.ErrUnknownStatus):
			h.writeError(w, http.StatusBadRequest, "Unknown payment status")
		case errors.Is(err, app.ErrPaymentNotVerified):
			h.writeError(w, http.StatusPreconditionFailed, "Payment has not completed system verification yet")
		case errors.As(err, &invalidTransition):
			h.writeError(w, http.StatusUnprocessableEntity, invalidTransition.Error())
		default:
			log.Printf("level=error component=api msg=\"payment validation failed\" payment_id=%s err=%v", id, err)
			h.writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, response)
}

// GetPaymentHandler returns the detail view of a single payment.
func (h *PaymentHandlers) GetPaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.paymentIDFromURL(w, r)
	if !ok {
		return
	}

	response, err := h.service.Find(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrPaymentNotFound) {
			h.writeError(w, http.StatusNotFound, "Payment not found")
			return
		}
		log.Printf("level=error component=api msg=\"payment lookup failed\" payment_id=%s err=%v", id, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, response)
}

// ListPaymentsHandler returns one page of payments matching the query filters.
func (h *PaymentHandlers) ListPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.service.FindAll(r.Context(), opts)
	if err != nil {
		log.Printf("level=error component=api msg=\"payment listing failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, page)
}

func parseListOptions(r *http.Request) (domain.PaymentListOptions, error) {
	var opts domain.PaymentListOptions
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status := domain.PaymentStatus(raw)
		if !status.IsValid() {
			return opts, fmt.Errorf("invalid status filter: %s", raw)
		}
		opts.Status = &status
	}

	if raw := strings.TrimSpace(query.Get("date_from")); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return opts, fmt.Errorf("invalid date_from, expected RFC3339: %s", raw)
		}
		opts.DateFrom = &from
	}

	if raw := strings.TrimSpace(query.Get("date_to")); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return opts, fmt.Errorf("invalid date_to, expected RFC3339: %s", raw)
		}
		opts.DateTo = &to
	}

	opts.SenderReference = strings.TrimSpace(query.Get("sender_reference"))

	if raw := strings.TrimSpace(query.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 0 {
			return opts, fmt.Errorf("invalid page: %s", raw)
		}
		opts.Page = page
	}

	if raw := strings.TrimSpace(query.Get("size")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 || size > 200 {
			return opts, fmt.Errorf("invalid size: %s", raw)
		}
		opts.Size = size
	}

	return opts, nil
}

func (h *PaymentHandlers) paymentIDFromURL(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "paymentID")
	if raw == "" {
		h.writeError(w, http.StatusBadRequest, "Payment ID is required")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid payment ID format")
		return uuid.Nil, false
	}
	return id, true
}

// writeJSON is a helper for writing JSON responses.
func (h *PaymentHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *PaymentHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
