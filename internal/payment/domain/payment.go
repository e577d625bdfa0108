package domain

import (
	"errors"
	"fmt"

	orderdom "github.com/yelmuratov/NewEra-Cash-Carry/internal/order/domain"
)

var (
	ErrAlreadyPaid = errors.New("order is already paid")
	ErrNotPaid     = errors.New("order has not been paid")
	ErrConflict    = errors.New("payment status changed concurrently")
)

// GatewayError carries the external processor's message. Transient failures
// (timeouts, 5xx) are retriable; the local payment status is never advanced
// on any gateway failure.
type GatewayError struct {
	Message   string
	Transient bool
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway error: %s", e.Message)
}

type Charge struct {
	Ref string
}

type Refund struct {
	Ref string
}

// CanCharge and CanRefund encode the settlement state machine:
// pending --charge--> paid --refund--> refunded. Nothing leaves refunded.

func CanCharge(st orderdom.PaymentStatus) error {
	if st != orderdom.PaymentPending {
		return ErrAlreadyPaid
	}
	return nil
}

func CanRefund(st orderdom.PaymentStatus) error {
	if st != orderdom.PaymentPaid {
		return ErrNotPaid
	}
	return nil
}
