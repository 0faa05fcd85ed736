package orders

import (
	"github.com/google/uuid"
	"github.com/jogardn/order-dashboard/pkg/models"
)

func NewOrderID() string {
	return uuid.NewString()
}

// BuildOrder validates the form and computes order_value from the product's
// unit price. The value is stored as computed here and never refreshed.
func BuildOrder(id string, form models.OrderForm) (models.Order, error) {
	if err := form.Validate(); err != nil {
		return models.Order{}, err
	}

	price, _ := models.UnitPrice(form.Product)
	return models.Order{
		ID:            id,
		CustomerName:  form.CustomerName,
		CustomerEmail: form.CustomerEmail,
		Product:       form.Product,
		Quantity:      form.Quantity,
		OrderValue:    float64(form.Quantity) * price,
	}, nil
}
