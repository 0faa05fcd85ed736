package orders

import (
	"errors"
	"testing"

	"github.com/jogardn/order-dashboard/pkg/models"
)

func TestBuildOrderComputesValue(t *testing.T) {
	for _, product := range models.Products() {
		for _, qty := range []int{1, 2, 7, 100} {
			order, err := BuildOrder("id", models.OrderForm{
				CustomerName:  "Alice Smith",
				CustomerEmail: "alice@example.com",
				Product:       product.Name,
				Quantity:      qty,
			})
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if want := float64(qty) * product.UnitPrice; order.OrderValue != want {
				t.Errorf("%s x%d: expected %v, got %v", product.Name, qty, want, order.OrderValue)
			}
		}
	}
}

func TestBuildOrderRejectsInvalidForm(t *testing.T) {
	_, err := BuildOrder("id", models.OrderForm{
		CustomerName:  "Alice Smith",
		CustomerEmail: "alice@example.com",
		Product:       "Product 1",
		Quantity:      0,
	})
	if !errors.Is(err, models.ErrInvalidOrder) {
		t.Errorf("Expected ErrInvalidOrder, got %v", err)
	}
}

func TestNewOrderIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewOrderID()
		if seen[id] {
			t.Fatalf("Duplicate id %s after %d generations", id, i)
		}
		seen[id] = true
	}
}
