package domain

import "testing"

func TestRender(t *testing.T) {
	cases := []struct {
		eventType string
		payload   string
		want      string
	}{
		{"OrderCreated", `{"OrderID":"o1"}`,
			"Your order (ID: o1) has been created successfully."},
		{"OrderStatusChanged", `{"OrderID":"o1","Status":"completed"}`,
			"Your order (ID: o1) status has been updated to 'completed'."},
		{"OrderCancelled", `{"OrderID":"o1"}`,
			"Your order (ID: o1) has been canceled."},
		{"PaymentReceived", `{"OrderID":"o1"}`,
			"Payment for your order (ID: o1) was processed successfully."},
		{"PaymentRefunded", `{"OrderID":"o1"}`,
			"Payment for your order (ID: o1) has been refunded."},
	}
	for _, tc := range cases {
		t.Run(tc.eventType, func(t *testing.T) {
			got, err := Render(tc.eventType, []byte(tc.payload))
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}

	t.Run("unknown event type", func(t *testing.T) {
		if _, err := Render("ProductRestocked", []byte(`{}`)); err == nil {
			t.Fatal("expected an error for an unknown event type")
		}
	})

	t.Run("malformed payload", func(t *testing.T) {
		if _, err := Render("OrderCreated", []byte(`{`)); err == nil {
			t.Fatal("expected an error for a malformed payload")
		}
	})
}
