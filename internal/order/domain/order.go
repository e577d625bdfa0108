package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound        = errors.New("order not found")
	ErrEmptyOrder      = errors.New("order must contain at least one item")
	ErrInvalidQuantity = errors.New("item quantity must be greater than zero")
	ErrInvalidTotal    = errors.New("order total amount must be greater than 0")
	ErrInvalidStatus   = errors.New("unknown order status")
	ErrNotDeletable    = errors.New("order with settled payment cannot be deleted")
	ErrConflict        = errors.New("order update lost a concurrent race")
)

// InsufficientStockError reports the shortfall for a single product.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s. available stock: %d", e.ProductName, e.Available)
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusCompleted, StatusCancelled:
		return Status(s), nil
	}
	return "", ErrInvalidStatus
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Order is the aggregate root. Items are fixed at creation; only the two
// status fields and the charge reference change afterwards.
type Order struct {
	ID            string
	UserID        string
	Items         []Item
	TotalCents    int64
	Status        Status
	PaymentStatus PaymentStatus
	ChargeRef     string
	OrderDate     time.Time
	UpdatedAt     time.Time
}

// Item captures the unit price at order time so later catalog price changes
// never alter historical totals.
type Item struct {
	ProductID  string
	Quantity   int
	PriceCents int64
}

func NewOrder(id, userID string, items []Item) (Order, error) {
	if len(items) == 0 {
		return Order{}, ErrEmptyOrder
	}
	var total int64
	for _, item := range items {
		if item.Quantity <= 0 {
			return Order{}, ErrInvalidQuantity
		}
		total += int64(item.Quantity) * item.PriceCents
	}
	if total <= 0 {
		return Order{}, ErrInvalidTotal
	}
	now := time.Now().UTC()
	return Order{
		ID:            id,
		UserID:        userID,
		Items:         items,
		TotalCents:    total,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		OrderDate:     now,
		UpdatedAt:     now,
	}, nil
}

// Deletable guards the data-integrity hazard of removing an order whose
// money has already moved.
func (o Order) Deletable() bool {
	return o.PaymentStatus == PaymentPending
}
