/**
 * @description
 * This package generates unguessable reference identifiers for payments and
 * their parties. References are a short prefix followed by url-safe base64 of
 * 16 bytes from a cryptographically strong random source.
 */
package reference

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const (
	randomLength   = 16
	paymentPrefix  = "TXN"
	senderPrefix   = "SND"
	receiverPrefix = "RCV"
)

// NewPaymentReference returns a reference number for a payment.
func NewPaymentReference() string {
	return generate(paymentPrefix)
}

// NewSenderReference returns a reference number for a payment's sender.
func NewSenderReference() string {
	return generate(senderPrefix)
}

// NewReceiverReference returns a reference number for a payment's receiver.
func NewReceiverReference() string {
	return generate(receiverPrefix)
}

func generate(prefix string) string {
	buf := make([]byte, randomLength)
	// rand.Read on the crypto source never fails on supported platforms.
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("reference: random source unavailable: %v", err))
	}
	return fmt.Sprintf("%s-%s", prefix, base64.RawURLEncoding.EncodeToString(buf))
}
