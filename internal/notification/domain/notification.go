package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"
)

type Notification struct {
	ID        int64
	Channel   string
	Message   string
	CreatedAt time.Time
}

// Render turns a lifecycle event into the user-facing message for that
// event type. Unknown event types are skipped by the caller.
func Render(eventType string, payload []byte) (string, error) {
	var ev struct {
		OrderID string
		Status  string
	}
	if err := json.Unmarshal(payload, &ev); err != nil {
		return "", err
	}

	switch eventType {
	case "OrderCreated":
		return fmt.Sprintf("Your order (ID: %s) has been created successfully.", ev.OrderID), nil
	case "OrderStatusChanged":
		return fmt.Sprintf("Your order (ID: %s) status has been updated to '%s'.", ev.OrderID, ev.Status), nil
	case "OrderCancelled":
		return fmt.Sprintf("Your order (ID: %s) has been canceled.", ev.OrderID), nil
	case "PaymentReceived":
		return fmt.Sprintf("Payment for your order (ID: %s) was processed successfully.", ev.OrderID), nil
	case "PaymentRefunded":
		return fmt.Sprintf("Payment for your order (ID: %s) has been refunded.", ev.OrderID), nil
	}
	return "", fmt.Errorf("unknown event type %q", eventType)
}
