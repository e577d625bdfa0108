package application

import (
	"context"

	orderdom "github.com/yelmuratov/NewEra-Cash-Carry/internal/order/domain"
	"github.com/yelmuratov/NewEra-Cash-Carry/internal/payment/domain"
)

// OrderStore gives the settlement workflow its two persistence primitives:
// load, and an atomic compare-and-set over the payment status. The CAS and
// the outbox event must commit together; a lost race returns
// domain.ErrConflict and records nothing.
type OrderStore interface {
	Find(ctx context.Context, orderID string) (orderdom.Order, error)
	CompareAndSetPaymentStatus(ctx context.Context, orderID string, expected, next orderdom.PaymentStatus, chargeRef string, eventType string, payload []byte, headers map[string]string, traceparent string) error
}

// Gateway is the external card processor. Amounts are minor units.
type Gateway interface {
	CreateCharge(ctx context.Context, amountCents int64, currency string) (domain.Charge, error)
	CreateRefund(ctx context.Context, chargeRef string) (domain.Refund, error)
}

// Locker serializes settlement attempts per order so two concurrent
// requests cannot both reach the gateway.
type Locker interface {
	Acquire(ctx context.Context, scope, id string) (func(), error)
}
