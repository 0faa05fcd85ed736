package models

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var ErrInvalidOrder = errors.New("invalid order")

type Order struct {
	ID            string  `json:"id"`
	CustomerName  string  `json:"customer_name"`
	CustomerEmail string  `json:"customer_email"`
	Product       string  `json:"product"`
	Quantity      int     `json:"quantity"`
	OrderValue    float64 `json:"order_value"`
}

// OrderForm is the editable part of an order. ID and OrderValue are never
// accepted from the caller.
type OrderForm struct {
	CustomerName  string `json:"customer_name" validate:"required,min=3"`
	CustomerEmail string `json:"customer_email" validate:"required,email"`
	Product       string `json:"product" validate:"required,oneof='Product 1' 'Product 2' 'Product 3'"`
	Quantity      int    `json:"quantity" validate:"gte=1"`
}

func (f OrderForm) Validate() error {
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: field %s failed %q", ErrInvalidOrder, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}
	if _, ok := UnitPrice(f.Product); !ok {
		return fmt.Errorf("%w: unknown product %q", ErrInvalidOrder, f.Product)
	}
	return nil
}

type OrderResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Order   *Order `json:"order,omitempty"`
}
