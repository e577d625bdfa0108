package application

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	orderdom "github.com/yelmuratov/NewEra-Cash-Carry/internal/order/domain"
	"github.com/yelmuratov/NewEra-Cash-Carry/internal/payment/domain"
	"github.com/yelmuratov/NewEra-Cash-Carry/pkg/idempotency"
	"github.com/yelmuratov/NewEra-Cash-Carry/pkg/tracing"
)

const (
	source    = "payment-service"
	lockScope = "settlement"
)

// ErrSettlementInFlight is returned when another charge or refund attempt
// for the same order currently holds the settlement lock.
var ErrSettlementInFlight = errors.New("a settlement attempt for this order is already in progress")

type Service struct {
	store          OrderStore
	gateway        Gateway
	lock           Locker
	currency       string
	gatewayTimeout time.Duration
}

func NewService(store OrderStore, gateway Gateway, lock Locker, currency string, gatewayTimeout time.Duration) *Service {
	return &Service{
		store:          store,
		gateway:        gateway,
		lock:           lock,
		currency:       currency,
		gatewayTimeout: gatewayTimeout,
	}
}

// ProcessPayment charges the order total through the gateway and records the
// pending -> paid transition. The local status is advanced only after the
// gateway confirms the charge, so a gateway failure can never leave a payment
// recorded that did not happen.
func (s *Service) ProcessPayment(ctx context.Context, orderID string) (string, string, error) {
	release, err := s.lock.Acquire(ctx, lockScope, orderID)
	if err != nil {
		if errors.Is(err, idempotency.ErrLocked) {
			return "", "", ErrSettlementInFlight
		}
		return "", "", err
	}
	defer release()

	o, err := s.store.Find(ctx, orderID)
	if err != nil {
		return "", "", err
	}
	if err := domain.CanCharge(o.PaymentStatus); err != nil {
		return "", "", err
	}

	gwCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()
	charge, err := s.gateway.CreateCharge(gwCtx, o.TotalCents, s.currency)
	if err != nil {
		return "", "", err
	}

	payload, err := json.Marshal(domain.PaymentReceived{
		OrderID:     orderID,
		ChargeRef:   charge.Ref,
		AmountCents: o.TotalCents,
		Currency:    s.currency,
	})
	if err != nil {
		return "", "", err
	}
	err = s.store.CompareAndSetPaymentStatus(ctx, orderID,
		orderdom.PaymentPending, orderdom.PaymentPaid, charge.Ref,
		"PaymentReceived", payload,
		map[string]string{"source": source}, tracing.Traceparent(ctx))
	if err != nil {
		return "", "", err
	}

	return charge.Ref, "Payment processed successfully.", nil
}

// RefundPayment refunds the stored charge in full and records the
// paid -> refunded transition. A failed refund leaves the order paid so the
// attempt stays retriable.
func (s *Service) RefundPayment(ctx context.Context, orderID string) (string, string, error) {
	release, err := s.lock.Acquire(ctx, lockScope, orderID)
	if err != nil {
		if errors.Is(err, idempotency.ErrLocked) {
			return "", "", ErrSettlementInFlight
		}
		return "", "", err
	}
	defer release()

	o, err := s.store.Find(ctx, orderID)
	if err != nil {
		return "", "", err
	}
	if err := domain.CanRefund(o.PaymentStatus); err != nil {
		return "", "", err
	}

	gwCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()
	refund, err := s.gateway.CreateRefund(gwCtx, o.ChargeRef)
	if err != nil {
		return "", "", err
	}

	payload, err := json.Marshal(domain.PaymentRefunded{
		OrderID:   orderID,
		RefundRef: refund.Ref,
	})
	if err != nil {
		return "", "", err
	}
	err = s.store.CompareAndSetPaymentStatus(ctx, orderID,
		orderdom.PaymentPaid, orderdom.PaymentRefunded, o.ChargeRef,
		"PaymentRefunded", payload,
		map[string]string{"source": source}, tracing.Traceparent(ctx))
	if err != nil {
		return "", "", err
	}

	return refund.Ref, "Payment refunded successfully.", nil
}
