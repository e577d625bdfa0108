package domain

type OrderCreated struct {
	OrderID    string
	UserID     string
	TotalCents int64
	Items      []Item
}

type OrderStatusChanged struct {
	OrderID string
	Status  Status
}

type OrderCancelled struct {
	OrderID string
}
