/**
 * @description
 * This file contains the verification backstop sweep. If the process restarts
 * between a payment's creation and its async classification, the payment is
 * left with system_verified=false forever. The sweep, run on a cron schedule
 * from main, finds such payments past a minimum age and re-drives the
 * classification synchronously.
 */

package app

import (
	"context"
	"log"
	"time"

	"github.com/xuno/payment-service/internal/domain"
)

// ReverifyStalePayments classifies and reconciles payments that were created
// before the cutoff age but never verified. It returns the number of payments
// it processed.
func (s *Service) ReverifyStalePayments(ctx context.Context, minAge time.Duration, limit int) (int, error) {
	cutoff := s.now().Add(-minAge)

	payments, err := s.repo.ListUnverifiedPayments(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}
	if len(payments) == 0 {
		return 0, nil
	}
	log.Printf("level=info component=payment_service op=backstop_sweep found=%d cutoff=%s", len(payments), cutoff.Format(time.RFC3339))

	processed := 0
	for i := range payments {
		payment := &payments[i]
		req := requestFromPayment(payment)
		classified := classifyPayment(s.rules, req)
		s.reconcileAsyncResult(ctx, payment.ID, classified)
		processed++

		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
	}
	return processed, nil
}

// requestFromPayment rebuilds the classification input from a stored payment.
// Classification rules only inspect names, amounts, countries, and currencies,
// none of which are encrypted.
func requestFromPayment(payment *domain.Payment) *domain.CreatePaymentRequest {
	sender := payment.Sender
	receiver := payment.Receiver
	return &domain.CreatePaymentRequest{
		Sender:             &sender,
		Receiver:           &receiver,
		SourceCurrency:     payment.SourceCurrency,
		TargetCurrency:     payment.TargetCurrency,
		SourceCountry:      payment.SourceCountry,
		DestinationCountry: payment.DestinationCountry,
		SourceAmount:       payment.SourceAmount,
		Purpose:            payment.Purpose,
		Corridor:           payment.Corridor,
	}
}
