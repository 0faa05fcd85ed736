package orders

import (
	"math"
	"testing"

	"github.com/jogardn/order-dashboard/pkg/models"
)

func sampleOrders() []models.Order {
	return []models.Order{
		{ID: "3", CustomerName: "alice smith", Product: "Product 2", Quantity: 1, OrderValue: 49},
		{ID: "1", CustomerName: "Bob Jones", Product: "Product 1", Quantity: 2, OrderValue: 58},
		{ID: "2", CustomerName: "Malice Cooper", Product: "Product 3", Quantity: 1, OrderValue: 149},
		{ID: "4", CustomerName: "Dave Brown", Product: "Product 1", Quantity: 5, OrderValue: 145},
	}
}

func TestFilterEmptyTermReturnsAll(t *testing.T) {
	orders := sampleOrders()
	equalIDs(t, Filter(orders, ""), "3", "1", "2", "4")
}

func TestFilterCaseInsensitive(t *testing.T) {
	equalIDs(t, Filter(sampleOrders(), "ALICE"), "3", "2")
	equalIDs(t, Filter(sampleOrders(), "jones"), "1")
	equalIDs(t, Filter(sampleOrders(), "nobody"))
}

func TestFilterMatchesCustomerNameOnly(t *testing.T) {
	equalIDs(t, Filter(sampleOrders(), "Product"))
}

func TestSortFields(t *testing.T) {
	tests := []struct {
		field SortField
		want  []string
	}{
		{SortByID, []string{"1", "2", "3", "4"}},
		// Byte-wise comparison puts upper case before lower case.
		{SortByCustomerName, []string{"1", "4", "2", "3"}},
		{SortByQuantity, []string{"3", "2", "1", "4"}},
		{SortByOrderValue, []string{"3", "1", "4", "2"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			equalIDs(t, Sort(sampleOrders(), tt.field, Ascending), tt.want...)
		})
	}
}

func TestSortTiesKeepInputOrder(t *testing.T) {
	equalIDs(t, Sort(sampleOrders(), SortByProduct, Ascending), "1", "4", "3", "2")
}

func TestSortToggleReverses(t *testing.T) {
	asc := Sort(sampleOrders(), SortByOrderValue, Ascending)
	desc := Sort(sampleOrders(), SortByOrderValue, Descending)

	for i := range asc {
		if asc[i].ID != desc[len(desc)-1-i].ID {
			t.Fatalf("Expected descending to be the exact reverse: asc=%v desc=%v", ids(asc), ids(desc))
		}
	}
}

func TestSortDoesNotMutateInput(t *testing.T) {
	orders := sampleOrders()
	Sort(orders, SortByID, Descending)
	equalIDs(t, orders, "3", "1", "2", "4")
}

func TestParseSort(t *testing.T) {
	if _, err := ParseSortField("order_value"); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if _, err := ParseSortField("customer_email"); err == nil {
		t.Error("Expected customer_email to be rejected")
	}
	if _, err := ParseSortDirection("desc"); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if _, err := ParseSortDirection("sideways"); err == nil {
		t.Error("Expected invalid direction to be rejected")
	}
}

func makeOrders(n int) []models.Order {
	orders := make([]models.Order, n)
	for i := range orders {
		orders[i] = models.Order{ID: string(rune('a' + i%26)), CustomerName: "Customer", Quantity: i + 1}
	}
	return orders
}

func TestPaginate(t *testing.T) {
	orders := makeOrders(45)

	page := Paginate(orders, 1, 20)
	if len(page.Items) != 20 || page.Total != 45 || page.TotalPages != 3 {
		t.Errorf("Unexpected first page %+v", page)
	}
	if len(page.PageNumbers) != 3 || page.PageNumbers[2] != 3 {
		t.Errorf("Expected page numbers [1 2 3], got %v", page.PageNumbers)
	}

	last := Paginate(orders, 3, 20)
	if len(last.Items) != 5 || last.Items[0].Quantity != 41 {
		t.Errorf("Unexpected last page: %d items, first quantity %d", len(last.Items), last.Items[0].Quantity)
	}

	beyond := Paginate(orders, 9, 20)
	if len(beyond.Items) != 0 || beyond.Page != 9 {
		t.Errorf("Expected empty page 9, got %+v", beyond)
	}

	empty := Paginate(nil, 1, 20)
	if empty.TotalPages != 0 || len(empty.Items) != 0 || len(empty.PageNumbers) != 0 {
		t.Errorf("Unexpected empty page %+v", empty)
	}
}

func TestPaginateHugePage(t *testing.T) {
	orders := makeOrders(45)

	for _, page := range []int{46, math.MaxInt, math.MaxInt / 10, math.MaxInt / 20} {
		got := Paginate(orders, page, 20)
		if len(got.Items) != 0 || got.Page != page || got.Total != 45 {
			t.Errorf("page %d: expected empty page, got %d items", page, len(got.Items))
		}
	}

	wide := Paginate(orders, 1, math.MaxInt)
	if len(wide.Items) != 45 || wide.TotalPages != 1 {
		t.Errorf("Expected one page holding everything, got %d items over %d pages", len(wide.Items), wide.TotalPages)
	}
}

func TestQueryRunPaginatesFilteredSorted(t *testing.T) {
	orders := sampleOrders()
	page := Query{SearchTerm: "alice", SortField: SortByOrderValue, SortDirection: Descending, Page: 1, PageSize: 1}.Run(orders)

	if page.Total != 2 || page.TotalPages != 2 {
		t.Errorf("Expected totals over filtered set, got %+v", page)
	}
	equalIDs(t, page.Items, "2")

	second := Query{SearchTerm: "alice", SortField: SortByOrderValue, SortDirection: Descending, Page: 2, PageSize: 1}.Run(orders)
	equalIDs(t, second.Items, "3")
}

func TestViewStateToggleSort(t *testing.T) {
	v := NewViewState(20)
	q := v.Query()
	if q.SortField != SortByID || q.SortDirection != Ascending || q.Page != 1 {
		t.Fatalf("Unexpected defaults %+v", q)
	}

	v.ToggleSort(SortByID)
	if q := v.Query(); q.SortDirection != Descending {
		t.Errorf("Expected toggle on same field to flip to desc, got %s", q.SortDirection)
	}

	v.ToggleSort(SortByOrderValue)
	if q := v.Query(); q.SortField != SortByOrderValue || q.SortDirection != Ascending {
		t.Errorf("Expected new field ascending, got %+v", q)
	}

	v.ToggleSort(SortByOrderValue)
	v.ToggleSort(SortByOrderValue)
	if q := v.Query(); q.SortDirection != Ascending {
		t.Errorf("Expected double toggle to return to asc, got %s", q.SortDirection)
	}
}

func TestViewStateSearchKeepsPage(t *testing.T) {
	v := NewViewState(20)
	v.SetPage(3)
	v.SetSearch("alice")

	q := v.Query()
	if q.Page != 3 {
		t.Errorf("Expected page to stay 3 after search change, got %d", q.Page)
	}
	if q.SearchTerm != "alice" {
		t.Errorf("Expected search term alice, got %q", q.SearchTerm)
	}

	v.SetPage(0)
	if q := v.Query(); q.Page != 1 {
		t.Errorf("Expected page clamped to 1, got %d", q.Page)
	}
}
