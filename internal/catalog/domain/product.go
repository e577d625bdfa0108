package domain

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("product not found")

// Product is owned by the catalog; the order workflow only reads the price
// and decrements stock.
type Product struct {
	ID         string
	Name       string
	PriceCents int64
	Stock      int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
