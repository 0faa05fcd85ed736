package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/jogardn/order-dashboard/pkg/models"
	"github.com/sirupsen/logrus"
)

//go:embed data/orders.json
var bundledOrders []byte

// StaticLoader serves the dataset bundled into the binary.
type StaticLoader struct {
	data   []byte
	logger *logrus.Logger
}

func NewStaticLoader(logger *logrus.Logger) *StaticLoader {
	return &StaticLoader{data: bundledOrders, logger: logger}
}

// NewStaticLoaderFromBytes is used when the dataset comes from somewhere other
// than the embedded file.
func NewStaticLoaderFromBytes(data []byte, logger *logrus.Logger) *StaticLoader {
	return &StaticLoader{data: data, logger: logger}
}

func (l *StaticLoader) LoadOrders(ctx context.Context) ([]models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var orders []models.Order
	if err := json.Unmarshal(l.data, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode bundled orders: %w", err)
	}

	l.logger.WithField("count", len(orders)).Debug("Loaded bundled orders")
	return orders, nil
}

// BundledOrders decodes the embedded dataset. The catalog service seeds its
// table from it.
func BundledOrders() ([]models.Order, error) {
	var orders []models.Order
	if err := json.Unmarshal(bundledOrders, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode bundled orders: %w", err)
	}
	return orders, nil
}
