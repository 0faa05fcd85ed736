package orders

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/jogardn/order-dashboard/pkg/models"
)

const DefaultPageSize = 20

type SortField string

const (
	SortByID           SortField = "id"
	SortByCustomerName SortField = "customer_name"
	SortByProduct      SortField = "product"
	SortByQuantity     SortField = "quantity"
	SortByOrderValue   SortField = "order_value"
)

func ParseSortField(s string) (SortField, error) {
	switch f := SortField(s); f {
	case SortByID, SortByCustomerName, SortByProduct, SortByQuantity, SortByOrderValue:
		return f, nil
	}
	return "", fmt.Errorf("unknown sort field %q", s)
}

type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

func ParseSortDirection(s string) (SortDirection, error) {
	switch d := SortDirection(s); d {
	case Ascending, Descending:
		return d, nil
	}
	return "", fmt.Errorf("unknown sort direction %q", s)
}

// Filter keeps orders whose customer name contains term, ignoring case.
func Filter(orders []models.Order, term string) []models.Order {
	out := make([]models.Order, 0, len(orders))
	needle := strings.ToLower(term)
	for _, o := range orders {
		if strings.Contains(strings.ToLower(o.CustomerName), needle) {
			out = append(out, o)
		}
	}
	return out
}

// Sort returns a sorted copy. Ties keep their input order.
func Sort(orders []models.Order, field SortField, dir SortDirection) []models.Order {
	out := make([]models.Order, len(orders))
	copy(out, orders)

	compare := comparator(field)
	slices.SortStableFunc(out, func(a, b models.Order) int {
		if dir == Descending {
			return compare(b, a)
		}
		return compare(a, b)
	})
	return out
}

func comparator(field SortField) func(a, b models.Order) int {
	switch field {
	case SortByCustomerName:
		return func(a, b models.Order) int { return cmp.Compare(a.CustomerName, b.CustomerName) }
	case SortByProduct:
		return func(a, b models.Order) int { return cmp.Compare(a.Product, b.Product) }
	case SortByQuantity:
		return func(a, b models.Order) int { return cmp.Compare(a.Quantity, b.Quantity) }
	case SortByOrderValue:
		return func(a, b models.Order) int { return cmp.Compare(a.OrderValue, b.OrderValue) }
	default:
		return func(a, b models.Order) int { return cmp.Compare(a.ID, b.ID) }
	}
}

type Page struct {
	Items       []models.Order `json:"items"`
	Total       int            `json:"total"`
	Page        int            `json:"page"`
	PageSize    int            `json:"page_size"`
	TotalPages  int            `json:"total_pages"`
	PageNumbers []int          `json:"page_numbers"`
}

// Paginate cuts the 1-based page out of orders. A page past the end has no
// items; it is not clamped.
func Paginate(orders []models.Order, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}

	total := len(orders)
	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}
	numbers := make([]int, totalPages)
	for i := range numbers {
		numbers[i] = i + 1
	}

	// Offsets are only computed for pages that exist, so arbitrarily large
	// page numbers cannot overflow.
	start := total
	if page-1 < totalPages {
		start = (page - 1) * pageSize
	}
	end := start + min(pageSize, total-start)

	items := make([]models.Order, end-start)
	copy(items, orders[start:end])

	return Page{
		Items:       items,
		Total:       total,
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		PageNumbers: numbers,
	}
}

type Query struct {
	SearchTerm    string
	SortField     SortField
	SortDirection SortDirection
	Page          int
	PageSize      int
}

// Run filters, sorts and paginates in that order.
func (q Query) Run(orders []models.Order) Page {
	field := q.SortField
	if field == "" {
		field = SortByID
	}
	dir := q.SortDirection
	if dir == "" {
		dir = Ascending
	}
	return Paginate(Sort(Filter(orders, q.SearchTerm), field, dir), q.Page, q.PageSize)
}
