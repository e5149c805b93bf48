package domain

import "fmt"

// PaymentStatus is the lifecycle state of a payment.
type PaymentStatus string

const (
	StatusInitiated              PaymentStatus = "INITIATED"
	StatusCreated                PaymentStatus = "CREATED"
	StatusPendingAdminReview     PaymentStatus = "PENDING_ADMIN_REVIEW"
	StatusApproved               PaymentStatus = "APPROVED"
	StatusDelivered              PaymentStatus = "DELIVERED"
	StatusRejected               PaymentStatus = "REJECTED"
	StatusLowBalance             PaymentStatus = "LOW_BALANCE"
	StatusMisinformationSender   PaymentStatus = "MISINFORMATION_SENDER"
	StatusMisinformationReceiver PaymentStatus = "MISINFORMATION_RECEIVER"
)

var knownStatuses = map[PaymentStatus]struct{}{
	StatusInitiated:              {},
	StatusCreated:                {},
	StatusPendingAdminReview:     {},
	StatusApproved:               {},
	StatusDelivered:              {},
	StatusRejected:               {},
	StatusLowBalance:             {},
	StatusMisinformationSender:   {},
	StatusMisinformationReceiver: {},
}

// IsValid reports whether s is one of the defined payment statuses.
func (s PaymentStatus) IsValid() bool {
	_, ok := knownStatuses[s]
	return ok
}

// InvalidTransitionError is returned when a requested status change violates
// the state machine guards.
type InvalidTransitionError struct {
	From PaymentStatus
	To   PaymentStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

// ValidateTransition applies the transition guards: a DELIVERED payment is
// fully immutable, and an APPROVED payment can never be rejected. APPROVED
// toward DELIVERED stays permitted for a future delivery path even though no
// operation sets it today.
func ValidateTransition(current, next PaymentStatus) error {
	if current == StatusDelivered {
		return &InvalidTransitionError{From: current, To: next}
	}
	if current == StatusApproved && next == StatusRejected {
		return &InvalidTransitionError{From: current, To: next}
	}
	return nil
}
