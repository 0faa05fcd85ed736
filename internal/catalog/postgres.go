package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jogardn/order-dashboard/pkg/models"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// PostgresLoader reads the catalog from the orders table. Newest rows come
// first, matching the dashboard's most-recent-first ordering.
type PostgresLoader struct {
	db     *sql.DB
	logger *logrus.Logger
}

func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func NewPostgresLoader(db *sql.DB, logger *logrus.Logger) *PostgresLoader {
	return &PostgresLoader{db: db, logger: logger}
}

func (l *PostgresLoader) EnsureSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			position SERIAL PRIMARY KEY,
			id VARCHAR(255) NOT NULL UNIQUE,
			customer_name VARCHAR(255) NOT NULL,
			customer_email VARCHAR(255) NOT NULL,
			product VARCHAR(64) NOT NULL,
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			order_value DECIMAL(12,2) NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_customer_name ON orders(customer_name)`,
	}

	for _, query := range queries {
		if _, err := l.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Seed inserts orders when the table is empty. It reports how many rows were
// written.
func (l *PostgresLoader) Seed(ctx context.Context, orders []models.Order) (int, error) {
	var count int
	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	// Insert in reverse so the first dataset entry ends up newest.
	query := `
		INSERT INTO orders (id, customer_name, customer_email, product, quantity, order_value)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i := len(orders) - 1; i >= 0; i-- {
		o := orders[i]
		if _, err := tx.ExecContext(ctx, query, o.ID, o.CustomerName, o.CustomerEmail,
			o.Product, o.Quantity, o.OrderValue); err != nil {
			return 0, fmt.Errorf("failed to insert order %s: %w", o.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit seed: %w", err)
	}

	l.logger.WithField("count", len(orders)).Info("Seeded orders table")
	return len(orders), nil
}

func (l *PostgresLoader) LoadOrders(ctx context.Context) ([]models.Order, error) {
	query := `
		SELECT id, customer_name, customer_email, product, quantity, order_value
		FROM orders ORDER BY position DESC
	`
	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.CustomerName, &o.CustomerEmail,
			&o.Product, &o.Quantity, &o.OrderValue); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	l.logger.WithField("count", len(orders)).Info("Retrieved orders from database")
	return orders, nil
}

func (l *PostgresLoader) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}
