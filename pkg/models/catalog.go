package models

type Product struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
}

var products = []Product{
	{Name: "Product 1", UnitPrice: 29},
	{Name: "Product 2", UnitPrice: 49},
	{Name: "Product 3", UnitPrice: 149},
}

// Products returns the closed product catalog in display order.
func Products() []Product {
	out := make([]Product, len(products))
	copy(out, products)
	return out
}

func UnitPrice(name string) (float64, bool) {
	for _, p := range products {
		if p.Name == name {
			return p.UnitPrice, true
		}
	}
	return 0, false
}
