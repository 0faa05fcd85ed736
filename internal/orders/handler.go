package orders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/jogardn/order-dashboard/internal/events"
	"github.com/jogardn/order-dashboard/internal/websocket"
	"github.com/jogardn/order-dashboard/pkg/httputil"
	"github.com/jogardn/order-dashboard/pkg/models"
	"github.com/sirupsen/logrus"
)

type EventPublisher interface {
	PublishOrderEvent(event events.OrderEvent) error
}

type WebSocketHub interface {
	Broadcast(messageType string, data interface{}, source string)
}

type actorKey struct{}

// WithActor tags the request context with the subject of the signed-in user
// so published events can name who made the change.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func actorFrom(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}

type Handler struct {
	store     *Store
	view      *ViewState
	logger    *logrus.Logger
	publisher EventPublisher
	wsHub     WebSocketHub
}

func NewHandler(store *Store, view *ViewState, logger *logrus.Logger) *Handler {
	return &Handler{
		store:  store,
		view:   view,
		logger: logger,
	}
}

func (h *Handler) SetEventPublisher(publisher EventPublisher) {
	h.publisher = publisher
}

func (h *Handler) SetWebSocketHub(hub WebSocketHub) {
	h.wsHub = hub
}

// ListOrders runs a stateless query. Parameters that are absent fall back to
// the dashboard's current view state.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := h.view.Query()
	params := r.URL.Query()

	if params.Has("search") {
		q.SearchTerm = params.Get("search")
	}
	if s := params.Get("sort"); s != "" {
		field, err := ParseSortField(s)
		if err != nil {
			httputil.ErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		q.SortField = field
	}
	if d := params.Get("dir"); d != "" {
		dir, err := ParseSortDirection(d)
		if err != nil {
			httputil.ErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		q.SortDirection = dir
	}
	if p := params.Get("page"); p != "" {
		page, err := strconv.Atoi(p)
		if err != nil || page < 1 {
			httputil.ErrorResponse(w, http.StatusBadRequest, "page must be a positive integer")
			return
		}
		q.Page = page
	}

	httputil.JSONResponse(w, http.StatusOK, h.listing(q))
}

// Listing is the order section of the dashboard view.
type Listing struct {
	Success         bool    `json:"success"`
	Page            Page    `json:"page"`
	SearchTerm      string  `json:"search_term"`
	SortField       string  `json:"sort_field"`
	SortDirection   string  `json:"sort_direction"`
	TotalOrderValue float64 `json:"total_order_value"`
	Loading         bool    `json:"loading"`
	Error           string  `json:"error,omitempty"`
}

func (h *Handler) listing(q Query) Listing {
	snap := h.store.Snapshot()
	return Listing{
		Success:         snap.Error == "",
		Page:            q.Run(snap.Orders),
		SearchTerm:      q.SearchTerm,
		SortField:       string(q.SortField),
		SortDirection:   string(q.SortDirection),
		TotalOrderValue: h.store.TotalValue(),
		Loading:         snap.Loading,
		Error:           snap.Error,
	}
}

// CurrentListing renders the dashboard's view state.
func (h *Handler) CurrentListing() Listing {
	return h.listing(h.view.Query())
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var form models.OrderForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		h.logger.WithError(err).Error("Failed to decode order request")
		httputil.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := BuildOrder(NewOrderID(), form)
	if err != nil {
		httputil.ErrorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.store.Create(order)

	h.logger.WithFields(logrus.Fields{
		"order_id":    order.ID,
		"product":     order.Product,
		"quantity":    order.Quantity,
		"order_value": order.OrderValue,
	}).Info("Order created")

	h.publish(r.Context(), events.OrderCreatedTopic, order)

	httputil.JSONResponse(w, http.StatusCreated, models.OrderResponse{
		Success: true,
		Message: "Order created successfully",
		Order:   &order,
	})
}

// UpdateOrder replaces an order with the edited form. A missing id leaves
// the catalog untouched and answers 404.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["id"]

	var form models.OrderForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		h.logger.WithError(err).Error("Failed to decode order update")
		httputil.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := BuildOrder(orderID, form)
	if err != nil {
		httputil.ErrorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	result := h.store.Update(order)
	if result == UpdateNotFound {
		h.logger.WithField("order_id", orderID).Warn("Update for unknown order ignored")
		httputil.JSONResponse(w, http.StatusNotFound, map[string]interface{}{
			"success": false,
			"message": "Order not found",
			"result":  result.String(),
		})
		return
	}

	h.logger.WithField("order_id", orderID).Info("Order updated")
	h.publish(r.Context(), events.OrderUpdatedTopic, order)

	httputil.JSONResponse(w, http.StatusOK, models.OrderResponse{
		Success: true,
		Message: "Order updated successfully",
		Order:   &order,
	})
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["id"]

	removed := h.store.Delete(orderID)
	h.logger.WithFields(logrus.Fields{
		"order_id": orderID,
		"removed":  removed,
	}).Info("Order delete processed")

	if removed > 0 {
		h.publish(r.Context(), events.OrderDeletedTopic, models.Order{ID: orderID})
	}

	httputil.JSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"removed": removed,
	})
}

// ReloadOrders is the manual retry path after a failed load.
func (h *Handler) ReloadOrders(w http.ResponseWriter, r *http.Request) {
	if err := h.Load(r.Context()); err != nil {
		httputil.ErrorResponse(w, http.StatusBadGateway, LoadErrorMessage)
		return
	}

	httputil.JSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(h.store.Snapshot().Orders),
	})
}

// Load runs a catalog load and tells connected views about the outcome.
func (h *Handler) Load(ctx context.Context) error {
	err := h.store.Load(ctx)
	if errors.Is(err, ErrLoadSuperseded) {
		return nil
	}
	h.broadcast("load")
	return err
}

func (h *Handler) SetSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Term string `json:"term"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.view.SetSearch(req.Term)
	httputil.JSONResponse(w, http.StatusOK, h.CurrentListing())
}

func (h *Handler) SetPage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page int `json:"page"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Page < 1 {
		httputil.ErrorResponse(w, http.StatusBadRequest, "page must be a positive integer")
		return
	}

	h.view.SetPage(req.Page)
	httputil.JSONResponse(w, http.StatusOK, h.CurrentListing())
}

func (h *Handler) ToggleSort(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field string `json:"field"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	field, err := ParseSortField(req.Field)
	if err != nil {
		httputil.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	h.view.ToggleSort(field)
	httputil.JSONResponse(w, http.StatusOK, h.CurrentListing())
}

// publish fans a mutation out to Kafka and connected views. Publishing
// failures are logged; the in-memory mutation stands.
func (h *Handler) publish(ctx context.Context, topic string, order models.Order) {
	if h.publisher != nil {
		if err := h.publisher.PublishOrderEvent(events.NewOrderEvent(topic, order, actorFrom(ctx))); err != nil {
			h.logger.WithError(err).WithField("topic", topic).Error("Failed to publish order event")
		}
	}
	h.broadcast(topic)
}

func (h *Handler) broadcast(reason string) {
	if h.wsHub == nil {
		return
	}
	snap := h.store.Snapshot()
	h.wsHub.Broadcast(websocket.MessageOrdersChanged, map[string]interface{}{
		"reason":  reason,
		"count":   len(snap.Orders),
		"loading": snap.Loading,
		"error":   snap.Error,
	}, "orders")
}
