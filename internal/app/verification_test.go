package app

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuno/payment-service/internal/domain"
)

func validCreateRequest() domain.CreatePaymentRequest {
	accountNumber := "1234567890"
	routingNumber := "021000021"
	receiverAccount := "9876543210"
	return domain.CreatePaymentRequest{
		Sender: &domain.SenderInfo{
			Name: "Ada Obi",
			FundingAccount: &domain.SenderFundingAccountInfo{
				AccountNumber: &accountNumber,
				RoutingNumber: &routingNumber,
			},
		},
		Receiver: &domain.ReceiverInfo{
			Name: "Kofi Mensah",
			Account: &domain.ReceiverAccountInfo{
				AccountNumber: &receiverAccount,
				BankCode:      "058",
			},
		},
		SourceCurrency:     "USD",
		TargetCurrency:     "GHS",
		SourceCountry:      "US",
		DestinationCountry: "GH",
		SourceAmount:       decimal.RequireFromString("1000.00"),
	}
}

func TestPerformInitialVerification(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(req *domain.CreatePaymentRequest)
		wantErr error
	}{
		{
			name:    "valid request passes",
			mutate:  func(req *domain.CreatePaymentRequest) {},
			wantErr: nil,
		},
		{
			name:    "missing sender",
			mutate:  func(req *domain.CreatePaymentRequest) { req.Sender = nil },
			wantErr: ErrSenderReceiverRequired,
		},
		{
			name:    "missing receiver",
			mutate:  func(req *domain.CreatePaymentRequest) { req.Receiver = nil },
			wantErr: ErrSenderReceiverRequired,
		},
		{
			name:    "missing sender funding account",
			mutate:  func(req *domain.CreatePaymentRequest) { req.Sender.FundingAccount = nil },
			wantErr: ErrSenderAccountRequired,
		},
		{
			name:    "missing sender account number",
			mutate:  func(req *domain.CreatePaymentRequest) { req.Sender.FundingAccount.AccountNumber = nil },
			wantErr: ErrSenderAccountRequired,
		},
		{
			name:    "missing receiver account",
			mutate:  func(req *domain.CreatePaymentRequest) { req.Receiver.Account = nil },
			wantErr: ErrReceiverAccountRequired,
		},
		{
			name:    "missing receiver account number",
			mutate:  func(req *domain.CreatePaymentRequest) { req.Receiver.Account.AccountNumber = nil },
			wantErr: ErrReceiverAccountRequired,
		},
		{
			name:    "same currency pair",
			mutate:  func(req *domain.CreatePaymentRequest) { req.TargetCurrency = req.SourceCurrency },
			wantErr: ErrSameCurrencyPair,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(&req)

			err := performInitialVerification(&req)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestClassifyPayment(t *testing.T) {
	rules := DefaultClassificationRules()

	tests := []struct {
		name   string
		mutate func(req *domain.CreatePaymentRequest)
		want   domain.PaymentStatus
	}{
		{
			name:   "clean request stays pending admin review",
			mutate: func(req *domain.CreatePaymentRequest) {},
			want:   domain.StatusPendingAdminReview,
		},
		{
			name: "amount below threshold",
			mutate: func(req *domain.CreatePaymentRequest) {
				req.SourceAmount = decimal.RequireFromString("99.99")
			},
			want: domain.StatusLowBalance,
		},
		{
			name: "amount at threshold is not low balance",
			mutate: func(req *domain.CreatePaymentRequest) {
				req.SourceAmount = decimal.RequireFromString("100.00")
			},
			want: domain.StatusPendingAdminReview,
		},
		{
			name: "flagged sender name",
			mutate: func(req *domain.CreatePaymentRequest) {
				req.Sender.Name = "Test Sender"
			},
			want: domain.StatusMisinformationSender,
		},
		{
			name: "flagged sender name is case insensitive",
			mutate: func(req *domain.CreatePaymentRequest) {
				req.Sender.Name = "test sender"
			},
			want: domain.StatusMisinformationSender,
		},
		{
			name: "flagged receiver name",
			mutate: func(req *domain.CreatePaymentRequest) {
				req.Receiver.Name = "Test Receiver"
			},
			want: domain.StatusMisinformationReceiver,
		},
		{
			name: "amount over limit",
			mutate: func(req *domain.CreatePaymentRequest) {
				req.SourceAmount = decimal.RequireFromString("1000000.01")
			},
			want: domain.StatusRejected,
		},
		{
			name: "amount at limit is not rejected",
			mutate: func(req *domain.CreatePaymentRequest) {
				req.SourceAmount = decimal.RequireFromString("1000000.00")
			},
			want: domain.StatusPendingAdminReview,
		},
		{
			name: "same country with different currencies",
			mutate: func(req *domain.CreatePaymentRequest) {
				req.SourceCountry = "US"
				req.DestinationCountry = "US"
			},
			want: domain.StatusRejected,
		},
		{
			name: "low balance wins over flagged sender",
			mutate: func(req *domain.CreatePaymentRequest) {
				req.SourceAmount = decimal.RequireFromString("50.00")
				req.Sender.Name = "Test Sender"
			},
			want: domain.StatusLowBalance,
		},
		{
			name: "flagged sender wins over flagged receiver",
			mutate: func(req *domain.CreatePaymentRequest) {
				req.Sender.Name = "Test Sender"
				req.Receiver.Name = "Test Receiver"
			},
			want: domain.StatusMisinformationSender,
		},
		{
			name: "flagged receiver wins over amount limit",
			mutate: func(req *domain.CreatePaymentRequest) {
				req.Receiver.Name = "Test Receiver"
				req.SourceAmount = decimal.RequireFromString("2000000.00")
			},
			want: domain.StatusMisinformationReceiver,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(&req)

			got := classifyPayment(rules, &req)
			if got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestClassifyPaymentWithCustomRules(t *testing.T) {
	req := validCreateRequest()

	custom := []ClassificationRule{
		{
			Name:    "always_reject",
			Status:  domain.StatusRejected,
			Matches: func(req *domain.CreatePaymentRequest) bool { return true },
		},
	}

	if got := classifyPayment(custom, &req); got != domain.StatusRejected {
		t.Fatalf("expected custom rule to fire, got %s", got)
	}
	if got := classifyPayment(nil, &req); got != domain.StatusPendingAdminReview {
		t.Fatalf("expected empty rule set to default to pending review, got %s", got)
	}
}
