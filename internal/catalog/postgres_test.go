package catalog

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jogardn/order-dashboard/pkg/models"
)

var orderColumns = []string{"id", "customer_name", "customer_email", "product", "quantity", "order_value"}

func newMockLoader(t *testing.T) (*PostgresLoader, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresLoader(db, testLogger()), mock
}

func TestPostgresLoaderNewestFirst(t *testing.T) {
	loader, mock := newMockLoader(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders ORDER BY position DESC")).
		WillReturnRows(sqlmock.NewRows(orderColumns).
			AddRow("3", "Carol", "carol@example.com", "Product 3", 1, 149.0).
			AddRow("2", "Bob", "bob@example.com", "Product 2", 2, 98.0).
			AddRow("1", "Alice", "alice@example.com", "Product 1", 1, 29.0))

	orders, err := loader.LoadOrders(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(orders) != 3 || orders[0].ID != "3" || orders[2].ID != "1" {
		t.Errorf("Expected rows in query order 3,2,1, got %+v", orders)
	}
	if orders[1].Quantity != 2 || orders[1].OrderValue != 98 {
		t.Errorf("Unexpected scanned order %+v", orders[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresLoaderEmptyTable(t *testing.T) {
	loader, mock := newMockLoader(t)
	mock.ExpectQuery("SELECT (.+) FROM orders").WillReturnRows(sqlmock.NewRows(orderColumns))

	orders, err := loader.LoadOrders(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if orders == nil || len(orders) != 0 {
		t.Errorf("Expected empty non-nil catalog, got %#v", orders)
	}
}

func TestPostgresLoaderQueryError(t *testing.T) {
	loader, mock := newMockLoader(t)
	mock.ExpectQuery("SELECT (.+) FROM orders").WillReturnError(errors.New("connection reset"))

	if _, err := loader.LoadOrders(context.Background()); err == nil {
		t.Error("Expected query error")
	}
}

func TestSeedInsertsInReverse(t *testing.T) {
	loader, mock := newMockLoader(t)
	dataset := []models.Order{
		{ID: "1", CustomerName: "Alice", CustomerEmail: "alice@example.com", Product: "Product 1", Quantity: 1, OrderValue: 29},
		{ID: "2", CustomerName: "Bob", CustomerEmail: "bob@example.com", Product: "Product 2", Quantity: 2, OrderValue: 98},
		{ID: "3", CustomerName: "Carol", CustomerEmail: "carol@example.com", Product: "Product 3", Quantity: 1, OrderValue: 149},
	}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM orders")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	for _, id := range []string{"3", "2", "1"} {
		mock.ExpectExec("INSERT INTO orders").
			WithArgs(id, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	n, err := loader.Seed(context.Background(), dataset)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3 rows seeded, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSeedSkipsPopulatedTable(t *testing.T) {
	loader, mock := newMockLoader(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM orders")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	n, err := loader.Seed(context.Background(), []models.Order{{ID: "1"}})
	if err != nil || n != 0 {
		t.Errorf("Expected no rows written, got %d, %v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSeedRollsBackOnInsertFailure(t *testing.T) {
	loader, mock := newMockLoader(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM orders")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	if _, err := loader.Seed(context.Background(), []models.Order{{ID: "1", Quantity: 1}}); err == nil {
		t.Error("Expected insert error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestEnsureSchema(t *testing.T) {
	loader, mock := newMockLoader(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS orders")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX IF NOT EXISTS idx_orders_customer_name")).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := loader.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
