package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yelmuratov/NewEra-Cash-Carry/internal/order/domain"
	"github.com/yelmuratov/NewEra-Cash-Carry/pkg/tracing"
)

const source = "order-service"

// conflictRetries bounds how often a lost atomic update is retried before
// the failure surfaces to the caller as transient.
const conflictRetries = 3

type IDGenerator func() string

type Service struct {
	repo  OrderRepository
	cat   ProductCatalog
	users UserDirectory
	newID IDGenerator
}

func NewService(repo OrderRepository, cat ProductCatalog, users UserDirectory, newID IDGenerator) *Service {
	return &Service{repo: repo, cat: cat, users: users, newID: newID}
}

type ItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (s *Service) CreateOrder(ctx context.Context, userID string, items []ItemRequest) (domain.Order, error) {
	if len(items) == 0 {
		return domain.Order{}, domain.ErrEmptyOrder
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return domain.Order{}, domain.ErrInvalidQuantity
		}
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return domain.Order{}, err
	}

	// Snapshot prices from the authoritative catalog; the caller's input
	// never contributes to the total. The stock pre-check here gives an
	// early failure, the repository re-checks atomically on write.
	orderItems := make([]domain.Item, 0, len(items))
	for _, it := range items {
		product, err := s.cat.FindByID(ctx, it.ProductID)
		if err != nil {
			return domain.Order{}, fmt.Errorf("product %s: %w", it.ProductID, err)
		}
		if product.Stock < it.Quantity {
			return domain.Order{}, &domain.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   it.Quantity,
				Available:   product.Stock,
			}
		}
		orderItems = append(orderItems, domain.Item{
			ProductID:  product.ID,
			Quantity:   it.Quantity,
			PriceCents: product.PriceCents,
		})
	}

	o, err := domain.NewOrder(s.newID(), userID, orderItems)
	if err != nil {
		return domain.Order{}, err
	}

	payload, err := json.Marshal(domain.OrderCreated{
		OrderID:    o.ID,
		UserID:     o.UserID,
		TotalCents: o.TotalCents,
		Items:      o.Items,
	})
	if err != nil {
		return domain.Order{}, err
	}

	headers := map[string]string{"source": source}
	traceparent := tracing.Traceparent(ctx)

	for attempt := 0; ; attempt++ {
		err = s.repo.CreateWithStock(ctx, o, "OrderCreated", payload, headers, traceparent)
		if err == nil {
			return o, nil
		}
		if !errors.Is(err, domain.ErrConflict) || attempt+1 >= conflictRetries {
			return domain.Order{}, err
		}
	}
}

func (s *Service) GetOrder(ctx context.Context, id string) (OrderView, error) {
	return s.repo.GetView(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context) ([]OrderView, error) {
	return s.repo.ListViews(ctx)
}

func (s *Service) UpdateOrderStatus(ctx context.Context, id, status string) error {
	st, err := domain.ParseStatus(status)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(domain.OrderStatusChanged{OrderID: id, Status: st})
	if err != nil {
		return err
	}
	return s.repo.UpdateStatus(ctx, id, st, "OrderStatusChanged", payload,
		map[string]string{"source": source}, tracing.Traceparent(ctx))
}

// DeleteOrder removes the record without restocking the reserved items.
// Orders whose payment has settled are refused outright.
func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	o, err := s.repo.Find(ctx, id)
	if err != nil {
		return err
	}
	if !o.Deletable() {
		return domain.ErrNotDeletable
	}

	payload, err := json.Marshal(domain.OrderCancelled{OrderID: id})
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, id, "OrderCancelled", payload,
		map[string]string{"source": source}, tracing.Traceparent(ctx))
}
