package domain

type PaymentReceived struct {
	OrderID     string
	ChargeRef   string
	AmountCents int64
	Currency    string
}

type PaymentRefunded struct {
	OrderID   string
	RefundRef string
}
