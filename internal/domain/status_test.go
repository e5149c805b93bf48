package domain

import (
	"errors"
	"testing"
)

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		name    string
		current PaymentStatus
		next    PaymentStatus
		wantErr bool
	}{
		{
			name:    "pending review to approved is allowed",
			current: StatusPendingAdminReview,
			next:    StatusApproved,
			wantErr: false,
		},
		{
			name:    "pending review to rejected is allowed",
			current: StatusPendingAdminReview,
			next:    StatusRejected,
			wantErr: false,
		},
		{
			name:    "approved to rejected is forbidden",
			current: StatusApproved,
			next:    StatusRejected,
			wantErr: true,
		},
		{
			name:    "approved to delivered is allowed",
			current: StatusApproved,
			next:    StatusDelivered,
			wantErr: false,
		},
		{
			name:    "delivered to rejected is forbidden",
			current: StatusDelivered,
			next:    StatusRejected,
			wantErr: true,
		},
		{
			name:    "delivered to approved is forbidden",
			current: StatusDelivered,
			next:    StatusApproved,
			wantErr: true,
		},
		{
			name:    "delivered to delivered is forbidden",
			current: StatusDelivered,
			next:    StatusDelivered,
			wantErr: true,
		},
		{
			name:    "rejected to approved is allowed",
			current: StatusRejected,
			next:    StatusApproved,
			wantErr: false,
		},
		{
			name:    "low balance to approved is allowed",
			current: StatusLowBalance,
			next:    StatusApproved,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransition(tt.current, tt.next)
			if tt.wantErr && err == nil {
				t.Fatalf("expected transition %s -> %s to be rejected", tt.current, tt.next)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("expected transition %s -> %s to be allowed, got %v", tt.current, tt.next, err)
			}
			if tt.wantErr {
				var invalid *InvalidTransitionError
				if !errors.As(err, &invalid) {
					t.Fatalf("expected InvalidTransitionError, got %T", err)
				}
				if invalid.From != tt.current || invalid.To != tt.next {
					t.Fatalf("expected error for %s -> %s, got %s -> %s", tt.current, tt.next, invalid.From, invalid.To)
				}
			}
		})
	}
}

func TestPaymentStatusIsValid(t *testing.T) {
	for status := range knownStatuses {
		if !status.IsValid() {
			t.Fatalf("expected %s to be valid", status)
		}
	}

	if PaymentStatus("SHIPPED").IsValid() {
		t.Fatal("expected unknown status to be invalid")
	}
	if PaymentStatus("").IsValid() {
		t.Fatal("expected empty status to be invalid")
	}
}
