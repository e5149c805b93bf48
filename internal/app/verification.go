/**
 * @description
 * The two-phase verification pipeline. The synchronous guard runs inline
 * during creation and blocks persistence entirely when it fails. The
 * asynchronous classification is an ordered list of pure predicate-to-status
 * rules evaluated after the payment is durably stored; the first matching rule
 * wins. The rule list is injectable so operators can extend or replace the
 * stand-in risk checks without touching the engine.
 */

package app

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuno/payment-service/internal/domain"
)

var (
	ErrSenderReceiverRequired  = errors.New("sender and receiver information are required")
	ErrSenderAccountRequired   = errors.New("sender funding account information is required")
	ErrReceiverAccountRequired = errors.New("receiver account information is required")
	ErrSameCurrencyPair        = errors.New("source and target currencies must be different")
)

var (
	lowBalanceThreshold = decimal.RequireFromString("100.00")
	maxAmountLimit      = decimal.RequireFromString("1000000.00")
)

const (
	misinformationSenderName   = "Test Sender"
	misinformationReceiverName = "Test Receiver"
)

// performInitialVerification is the synchronous creation guard. No payment is
// persisted when it returns an error.
func performInitialVerification(req *domain.CreatePaymentRequest) error {
	if req.Sender == nil || req.Receiver == nil {
		return ErrSenderReceiverRequired
	}
	if req.Sender.FundingAccount == nil || req.Sender.FundingAccount.AccountNumber == nil {
		return ErrSenderAccountRequired
	}
	if req.Receiver.Account == nil || req.Receiver.Account.AccountNumber == nil {
		return ErrReceiverAccountRequired
	}
	if req.SourceCurrency == req.TargetCurrency {
		return ErrSameCurrencyPair
	}
	return nil
}

// ClassificationRule maps a predicate over the original creation request to
// the status a payment should take when the predicate fires.
type ClassificationRule struct {
	Name    string
	Status  domain.PaymentStatus
	Matches func(req *domain.CreatePaymentRequest) bool
}

// DefaultClassificationRules returns the built-in rules in priority order.
func DefaultClassificationRules() []ClassificationRule {
	return []ClassificationRule{
		{
			Name:   "low_balance",
			Status: domain.StatusLowBalance,
			Matches: func(req *domain.CreatePaymentRequest) bool {
				return req.SourceAmount.LessThan(lowBalanceThreshold)
			},
		},
		{
			Name:   "misinformation_sender",
			Status: domain.StatusMisinformationSender,
			Matches: func(req *domain.CreatePaymentRequest) bool {
				return req.Sender != nil && strings.EqualFold(req.Sender.Name, misinformationSenderName)
			},
		},
		{
			Name:   "misinformation_receiver",
			Status: domain.StatusMisinformationReceiver,
			Matches: func(req *domain.CreatePaymentRequest) bool {
				return req.Receiver != nil && strings.EqualFold(req.Receiver.Name, misinformationReceiverName)
			},
		},
		{
			Name:   "amount_limit",
			Status: domain.StatusRejected,
			Matches: func(req *domain.CreatePaymentRequest) bool {
				return req.SourceAmount.GreaterThan(maxAmountLimit)
			},
		},
		{
			// Same-country cross-currency transfers are a known laundering
			// pattern; the guard already rejects equal currency pairs.
			Name:   "same_country_cross_currency",
			Status: domain.StatusRejected,
			Matches: func(req *domain.CreatePaymentRequest) bool {
				return req.SourceCountry != "" && req.DestinationCountry != "" &&
					req.SourceCountry == req.DestinationCountry &&
					req.SourceCurrency != req.TargetCurrency
			},
		},
	}
}

// classifyPayment evaluates the rules in order and returns the status of the
// first match, or PENDING_ADMIN_REVIEW when no rule fires. It never mutates
// stored state; reconciliation is the lifecycle engine's job.
func classifyPayment(rules []ClassificationRule, req *domain.CreatePaymentRequest) domain.PaymentStatus {
	for _, rule := range rules {
		if rule.Matches(req) {
			return rule.Status
		}
	}
	return domain.StatusPendingAdminReview
}
