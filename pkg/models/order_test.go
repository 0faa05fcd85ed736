package models

import (
	"errors"
	"testing"
)

func TestOrderFormValidate(t *testing.T) {
	valid := OrderForm{
		CustomerName:  "Alice Smith",
		CustomerEmail: "alice@example.com",
		Product:       "Product 2",
		Quantity:      3,
	}

	tests := []struct {
		name    string
		mutate  func(f *OrderForm)
		wantErr bool
	}{
		{"valid", func(f *OrderForm) {}, false},
		{"empty name", func(f *OrderForm) { f.CustomerName = "" }, true},
		{"short name", func(f *OrderForm) { f.CustomerName = "Al" }, true},
		{"bad email", func(f *OrderForm) { f.CustomerEmail = "not-an-email" }, true},
		{"unknown product", func(f *OrderForm) { f.Product = "Product 9" }, true},
		{"zero quantity", func(f *OrderForm) { f.Quantity = 0 }, true},
		{"negative quantity", func(f *OrderForm) { f.Quantity = -2 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)
			err := f.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidOrder) {
				t.Errorf("Expected ErrInvalidOrder, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestUnitPrice(t *testing.T) {
	expected := map[string]float64{"Product 1": 29, "Product 2": 49, "Product 3": 149}
	for name, price := range expected {
		got, ok := UnitPrice(name)
		if !ok || got != price {
			t.Errorf("UnitPrice(%q) = %v, %v; want %v", name, got, ok, price)
		}
	}

	if _, ok := UnitPrice("Product 4"); ok {
		t.Error("Expected unknown product to have no price")
	}

	if len(Products()) != 3 {
		t.Errorf("Expected 3 products, got %d", len(Products()))
	}
}
