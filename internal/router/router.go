package router

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/mux"
	"github.com/jogardn/order-dashboard/internal/orders"
	"github.com/jogardn/order-dashboard/internal/session"
	"github.com/jogardn/order-dashboard/pkg/httputil"
	"github.com/jogardn/order-dashboard/pkg/models"
	"github.com/sirupsen/logrus"
)

type Dependencies struct {
	Sessions      *session.Store
	SessionRoutes *session.Handler
	Orders        *orders.Handler
	// WebSocket is optional.
	WebSocket     http.HandlerFunc
	AllowedOrigin string
	Logger        *logrus.Logger
}

type views struct {
	deps Dependencies
	// loaded is set once the dashboard has fetched the catalog for the
	// current session.
	loaded atomic.Bool
}

func New(deps Dependencies) *mux.Router {
	v := &views{deps: deps}
	deps.SessionRoutes.OnLogout(func() { v.loaded.Store(false) })

	r := mux.NewRouter()
	r.HandleFunc("/health", healthCheck).Methods("GET", "OPTIONS")
	r.HandleFunc("/login", v.entryView).Methods("GET", "OPTIONS")
	r.HandleFunc("/login", deps.SessionRoutes.Login).Methods("POST", "OPTIONS")
	r.HandleFunc("/logout", deps.SessionRoutes.Logout).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/session", deps.SessionRoutes.Status).Methods("GET", "OPTIONS")
	r.Handle("/", v.requirePage(http.HandlerFunc(v.dashboardView))).Methods("GET", "OPTIONS")

	dash := r.PathPrefix("/dashboard").Subrouter()
	dash.Use(v.requireAPI)
	dash.HandleFunc("/search", deps.Orders.SetSearch).Methods("POST", "OPTIONS")
	dash.HandleFunc("/page", deps.Orders.SetPage).Methods("POST", "OPTIONS")
	dash.HandleFunc("/sort", deps.Orders.ToggleSort).Methods("POST", "OPTIONS")

	api := r.PathPrefix("/api/orders").Subrouter()
	api.Use(v.requireAPI)
	api.HandleFunc("", deps.Orders.ListOrders).Methods("GET", "OPTIONS")
	api.HandleFunc("", deps.Orders.CreateOrder).Methods("POST", "OPTIONS")
	api.HandleFunc("/reload", deps.Orders.ReloadOrders).Methods("POST", "OPTIONS")
	api.HandleFunc("/{id}", deps.Orders.UpdateOrder).Methods("PUT", "OPTIONS")
	api.HandleFunc("/{id}", deps.Orders.DeleteOrder).Methods("DELETE", "OPTIONS")

	if deps.WebSocket != nil {
		r.Handle("/ws", v.requireAPI(deps.WebSocket)).Methods("GET")
	}

	r.Use(corsMiddleware(deps.AllowedOrigin))
	r.Use(loggingMiddleware(deps.Logger))
	return r
}

type loadingView struct {
	View    string `json:"view"`
	Loading bool   `json:"loading"`
}

type loginView struct {
	View  string `json:"view"`
	Error string `json:"error,omitempty"`
}

type dashboardView struct {
	View     string           `json:"view"`
	Greeting string           `json:"greeting"`
	User     *models.User     `json:"user"`
	Products []models.Product `json:"products"`
	Orders   orders.Listing   `json:"orders"`
}

// entryView sends signed-in users to the dashboard.
func (v *views) entryView(w http.ResponseWriter, r *http.Request) {
	snap := v.deps.Sessions.Snapshot()
	switch {
	case snap.Loading:
		httputil.JSONResponse(w, http.StatusOK, loadingView{View: "loading", Loading: true})
	case snap.Authenticated:
		http.Redirect(w, r, "/", http.StatusFound)
	default:
		httputil.JSONResponse(w, http.StatusOK, loginView{View: "login", Error: snap.Error})
	}
}

func (v *views) dashboardView(w http.ResponseWriter, r *http.Request) {
	if v.loaded.CompareAndSwap(false, true) {
		err := v.deps.Orders.Load(r.Context())
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// The request went away before the catalog arrived; the next
			// dashboard view loads again.
			v.loaded.Store(false)
			v.deps.Logger.WithError(err).Info("Dashboard order load abandoned")
		case err != nil:
			v.deps.Logger.WithError(err).Warn("Dashboard opened with a failed order load")
		}
	}

	snap := v.deps.Sessions.Snapshot()
	view := dashboardView{
		View:     "dashboard",
		User:     snap.User,
		Products: models.Products(),
		Orders:   v.deps.Orders.CurrentListing(),
	}
	if snap.User != nil {
		view.Greeting = "Hello, " + snap.User.Name
	}
	httputil.JSONResponse(w, http.StatusOK, view)
}

// requirePage gates browser views: anonymous users go to /login and nothing
// renders while the profile is being resolved.
func (v *views) requirePage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap := v.deps.Sessions.Snapshot()
		if snap.Loading {
			httputil.JSONResponse(w, http.StatusOK, loadingView{View: "loading", Loading: true})
			return
		}
		if !snap.Authenticated {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(orders.WithActor(r.Context(), actor(snap))))
	})
}

// requireAPI gates JSON routes with status codes instead of redirects.
func (v *views) requireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap := v.deps.Sessions.Snapshot()
		if snap.Loading {
			httputil.ErrorResponse(w, http.StatusServiceUnavailable, "Authentication in progress")
			return
		}
		if !snap.Authenticated {
			httputil.ErrorResponse(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		next.ServeHTTP(w, r.WithContext(orders.WithActor(r.Context(), actor(snap))))
	})
}

func actor(snap session.Snapshot) string {
	if snap.User == nil {
		return ""
	}
	return snap.User.Sub
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.JSONResponse(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "order-dashboard",
	})
}
