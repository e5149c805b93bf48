/**
 * @description
 * This file contains the HTTP handlers for exchange rate configuration
 * management. These endpoints let administrators maintain the currency-pair
 * and amount-band rules that payment creation resolves against.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/xuno/payment-service/internal/app"
	"github.com/xuno/payment-service/internal/domain"
	"github.com/xuno/payment-service/internal/store"
)

// CreateExchangeConfigHandler registers a new exchange rate configuration.
func (h *PaymentHandlers) CreateExchangeConfigHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.ExchangeConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	config, err := h.service.CreateExchangeConfig(r.Context(), req)
	if err != nil {
		h.writeConfigError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, config)
}

// GetExchangeConfigHandler returns one configuration by id.
func (h *PaymentHandlers) GetExchangeConfigHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.configIDFromURL(w, r)
	if !ok {
		return
	}

	config, err := h.service.GetExchangeConfig(r.Context(), id)
	if err != nil {
		h.writeConfigError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, config)
}

// ListExchangeConfigsHandler returns all active configurations.
func (h *PaymentHandlers) ListExchangeConfigsHandler(w http.ResponseWriter, r *http.Request) {
	configs, err := h.service.ListExchangeConfigs(r.Context())
	if err != nil {
		log.Printf("level=error component=api msg=\"exchange config listing failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, configs)
}

// UpdateExchangeConfigHandler replaces the parameters of a configuration.
func (h *PaymentHandlers) UpdateExchangeConfigHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.configIDFromURL(w, r)
	if !ok {
		return
	}

	var req domain.ExchangeConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	config, err := h.service.UpdateExchangeConfig(r.Context(), id, req)
	if err != nil {
		h.writeConfigError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, config)
}

// DeleteExchangeConfigHandler soft-deletes a configuration.
func (h *PaymentHandlers) DeleteExchangeConfigHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.configIDFromURL(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteExchangeConfig(r.Context(), id); err != nil {
		h.writeConfigError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PaymentHandlers) writeConfigError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrConfigNotFound):
		h.writeError(w, http.StatusNotFound, "Exchange rate configuration not found")
	case errors.Is(err, app.ErrCurrencyPairRequired),
		errors.Is(err, app.ErrInvalidAmountBand),
		errors.Is(err, app.ErrNonPositiveFxRate):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("level=error component=api msg=\"exchange config operation failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *PaymentHandlers) configIDFromURL(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "configID")
	if raw == "" {
		h.writeError(w, http.StatusBadRequest, "Config ID is required")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid config ID format")
		return uuid.Nil, false
	}
	return id, true
}
