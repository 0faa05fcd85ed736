package orders

import (
	"context"
	"errors"
	"sync"

	"github.com/jogardn/order-dashboard/pkg/models"
	"github.com/sirupsen/logrus"
)

const LoadErrorMessage = "Failed to fetch orders"

var ErrLoadSuperseded = errors.New("order load superseded")

// Loader produces the complete order catalog in one call.
type Loader interface {
	LoadOrders(ctx context.Context) ([]models.Order, error)
}

type UpdateResult int

const (
	UpdateApplied UpdateResult = iota
	UpdateNotFound
)

func (r UpdateResult) String() string {
	switch r {
	case UpdateApplied:
		return "applied"
	case UpdateNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

type Snapshot struct {
	Orders  []models.Order `json:"orders"`
	Loading bool           `json:"loading"`
	Error   string         `json:"error,omitempty"`
}

// Store holds the in-memory order catalog. Mutations are applied under the
// store's lock and never fail.
type Store struct {
	loader Loader
	logger *logrus.Logger

	mutex      sync.RWMutex
	orders     []models.Order
	loading    bool
	errMsg     string
	generation uint64
}

func NewStore(loader Loader, logger *logrus.Logger) *Store {
	return &Store{
		loader: loader,
		logger: logger,
		orders: []models.Order{},
	}
}

// Load replaces the whole catalog with the loader's result. Locally created
// orders are discarded. A load that was superseded by a newer one, or whose
// context ended, leaves state alone.
func (s *Store) Load(ctx context.Context) error {
	s.mutex.Lock()
	s.generation++
	generation := s.generation
	s.loading = true
	s.errMsg = ""
	s.mutex.Unlock()

	orders, err := s.loader.LoadOrders(ctx)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if generation != s.generation {
		s.logger.WithField("generation", generation).Info("Discarding superseded order load")
		return ErrLoadSuperseded
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		s.loading = false
		s.logger.WithError(ctxErr).Warn("Order load abandoned")
		return ctxErr
	}

	s.loading = false
	if err != nil {
		s.orders = []models.Order{}
		s.errMsg = LoadErrorMessage
		s.logger.WithError(err).Error("Failed to load orders")
		return err
	}

	if orders == nil {
		orders = []models.Order{}
	}
	s.orders = orders
	s.logger.WithField("count", len(orders)).Info("Order catalog loaded")
	return nil
}

// Create prepends the order. Callers are responsible for id uniqueness.
func (s *Store) Create(order models.Order) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.orders = append([]models.Order{order}, s.orders...)
}

// Update replaces the first order with a matching id. Nothing changes when no
// order matches.
func (s *Store) Update(order models.Order) UpdateResult {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for i := range s.orders {
		if s.orders[i].ID == order.ID {
			s.orders[i] = order
			return UpdateApplied
		}
	}
	return UpdateNotFound
}

// Delete removes every order with the id and reports how many went.
func (s *Store) Delete(id string) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	kept := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if o.ID != id {
			kept = append(kept, o)
		}
	}
	removed := len(s.orders) - len(kept)
	s.orders = kept
	return removed
}

func (s *Store) Get(id string) (models.Order, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, o := range s.orders {
		if o.ID == id {
			return o, true
		}
	}
	return models.Order{}, false
}

func (s *Store) Snapshot() Snapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	orders := make([]models.Order, len(s.orders))
	copy(orders, s.orders)
	return Snapshot{
		Orders:  orders,
		Loading: s.loading,
		Error:   s.errMsg,
	}
}

// TotalValue sums order_value over the whole catalog, ignoring any filter.
func (s *Store) TotalValue() float64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var total float64
	for _, o := range s.orders {
		total += o.OrderValue
	}
	return total
}
