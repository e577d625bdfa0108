package application

import (
	"context"
	"time"

	catalogdom "github.com/yelmuratov/NewEra-Cash-Carry/internal/catalog/domain"
	"github.com/yelmuratov/NewEra-Cash-Carry/internal/order/domain"
	userdom "github.com/yelmuratov/NewEra-Cash-Carry/internal/user/domain"
)

// OrderRepository persists the aggregate. CreateWithStock must apply the
// stock decrements, the order row, its items and the outbox event as one
// atomic unit; a decrement that would drive stock negative fails the whole
// transaction with *domain.InsufficientStockError.
type OrderRepository interface {
	CreateWithStock(ctx context.Context, o domain.Order, eventType string, payload []byte, headers map[string]string, traceparent string) error
	Find(ctx context.Context, id string) (domain.Order, error)
	GetView(ctx context.Context, id string) (OrderView, error)
	ListViews(ctx context.Context) ([]OrderView, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status, eventType string, payload []byte, headers map[string]string, traceparent string) error
	Delete(ctx context.Context, id string, eventType string, payload []byte, headers map[string]string, traceparent string) error
}

type ProductCatalog interface {
	FindByID(ctx context.Context, id string) (catalogdom.Product, error)
}

type UserDirectory interface {
	FindByID(ctx context.Context, id string) (userdom.User, error)
}

// OrderView is the projection returned to callers: flat values with the
// product names and user identity resolved, never a live entity graph.
type OrderView struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	UserPhone     string     `json:"user_phone"`
	OrderDate     time.Time  `json:"order_date"`
	TotalCents    int64      `json:"total_cents"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"payment_status"`
	Items         []ItemView `json:"items"`
}

type ItemView struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	PriceCents  int64  `json:"price_cents"`
}
