package domain

import "testing"

func TestParseOrderStatus(t *testing.T) {
	valid := []string{"pending", "confirmed", "processing", "shipped", "delivered", "cancelled"}
	for _, s := range valid {
		if _, ok := ParseOrderStatus(s); !ok {
			t.Errorf("expected %q to be recognized", s)
		}
	}

	invalid := []string{"", "PENDING", "done", "refunded", "shipped "}
	for _, s := range invalid {
		if status, ok := ParseOrderStatus(s); ok {
			t.Errorf("expected %q to be rejected, got %q", s, status)
		}
	}
}

func TestOrderStatusCancellable(t *testing.T) {
	cases := map[OrderStatus]bool{
		OrderStatusPending:    true,
		OrderStatusConfirmed:  true,
		OrderStatusProcessing: false,
		OrderStatusShipped:    false,
		OrderStatusDelivered:  false,
		OrderStatusCancelled:  false,
	}
	for status, want := range cases {
		if got := status.Cancellable(); got != want {
			t.Errorf("Cancellable(%s) = %v, want %v", status, got, want)
		}
	}
}
