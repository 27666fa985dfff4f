package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	tests := []struct {
		in   string
		want OrderStatus
		ok   bool
	}{
		{"pending", OrderStatusPending, true},
		{" Shipped ", OrderStatusShipped, true},
		{"processing", OrderStatusShipped, true},
		{"cancelled", OrderStatusCancelled, true},
		{"done", "", false},
	}
	for _, tt := range tests {
		got, err := ParseOrderStatus(tt.in)
		if tt.ok && (err != nil || got != tt.want) {
			t.Fatalf("ParseOrderStatus(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
		if !tt.ok && err == nil {
			t.Fatalf("ParseOrderStatus(%q) succeeded, want error", tt.in)
		}
	}
}

func TestOrderStatusIsTerminal(t *testing.T) {
	if !OrderStatusCompleted.IsTerminal() {
		t.Fatal("completed must be terminal")
	}
	for _, status := range []OrderStatus{
		OrderStatusPending, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled,
	} {
		if status.IsTerminal() {
			t.Fatalf("%s must not be terminal", status)
		}
	}
}
