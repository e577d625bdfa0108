package domain

import (
	"errors"
	"testing"
)

func TestNewOrderTotal(t *testing.T) {
	items := []Item{
		{ProductID: "p1", Quantity: 2, PriceCents: 1000},
		{ProductID: "p2", Quantity: 1, PriceCents: 500},
	}
	o, err := NewOrder("o1", "u1", items)
	if err != nil {
		t.Fatalf("NewOrder failed: %v", err)
	}
	if o.TotalCents != 2500 {
		t.Fatalf("expected total 2500, got %d", o.TotalCents)
	}
	if o.Status != StatusPending || o.PaymentStatus != PaymentPending {
		t.Fatalf("expected pending/pending, got %s/%s", o.Status, o.PaymentStatus)
	}
	if len(o.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(o.Items))
	}
}

func TestNewOrderValidation(t *testing.T) {
	t.Run("empty items", func(t *testing.T) {
		_, err := NewOrder("o1", "u1", nil)
		if !errors.Is(err, ErrEmptyOrder) {
			t.Fatalf("expected ErrEmptyOrder, got %v", err)
		}
	})

	t.Run("zero quantity", func(t *testing.T) {
		_, err := NewOrder("o1", "u1", []Item{{ProductID: "p1", Quantity: 0, PriceCents: 100}})
		if !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("expected ErrInvalidQuantity, got %v", err)
		}
	})

	t.Run("negative quantity", func(t *testing.T) {
		_, err := NewOrder("o1", "u1", []Item{{ProductID: "p1", Quantity: -2, PriceCents: 100}})
		if !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("expected ErrInvalidQuantity, got %v", err)
		}
	})

	t.Run("zero total", func(t *testing.T) {
		_, err := NewOrder("o1", "u1", []Item{{ProductID: "p1", Quantity: 3, PriceCents: 0}})
		if !errors.Is(err, ErrInvalidTotal) {
			t.Fatalf("expected ErrInvalidTotal, got %v", err)
		}
	})
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"pending", "completed", "cancelled"} {
		if _, err := ParseStatus(s); err != nil {
			t.Fatalf("ParseStatus(%q) failed: %v", s, err)
		}
	}
	if _, err := ParseStatus("shipped"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestDeletable(t *testing.T) {
	o := Order{PaymentStatus: PaymentPending}
	if !o.Deletable() {
		t.Fatal("pending payment order should be deletable")
	}
	for _, st := range []PaymentStatus{PaymentPaid, PaymentRefunded} {
		o.PaymentStatus = st
		if o.Deletable() {
			t.Fatalf("%s order must not be deletable", st)
		}
	}
}

func TestInsufficientStockErrorMessage(t *testing.T) {
	err := &InsufficientStockError{ProductID: "p1", ProductName: "Rice 5kg", Requested: 5, Available: 3}
	want := "insufficient stock for product Rice 5kg. available stock: 3"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}
