/**
 * @description
 * This file sets up the HTTP router for the payment-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies any
 * necessary middleware, such as for authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for browser-based admin tooling.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// PaymentRoutes creates and returns a new router for the payment service.
func PaymentRoutes(h *PaymentHandlers, jwksURL string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Group routes that require authentication.
	r.Group(func(r chi.Router) {
		r.Use(AdminAuthMiddleware(jwksURL))

		// Payment lifecycle endpoints
		r.Post("/payments", h.CreatePaymentHandler)
		r.Get("/payments", h.ListPaymentsHandler)
		r.Get("/payments/{paymentID}", h.GetPaymentHandler)
		r.Put("/payments/{paymentID}/status", h.ValidatePaymentHandler)

		// Exchange rate configuration endpoints
		r.Post("/exchange-configs", h.CreateExchangeConfigHandler)
		r.Get("/exchange-configs", h.ListExchangeConfigsHandler)
		r.Get("/exchange-configs/{configID}", h.GetExchangeConfigHandler)
		r.Put("/exchange-configs/{configID}", h.UpdateExchangeConfigHandler)
		r.Delete("/exchange-configs/{configID}", h.DeleteExchangeConfigHandler)
	})

	return r
}
