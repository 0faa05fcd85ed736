package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jogardn/order-dashboard/internal/catalog"
	"github.com/jogardn/order-dashboard/internal/config"
	"github.com/jogardn/order-dashboard/pkg/httputil"
	"github.com/sirupsen/logrus"
)

type CatalogService struct {
	loader *catalog.PostgresLoader
	logger *logrus.Logger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	logger := config.NewLogger(cfg.LogLevel)
	port := config.GetEnv("CATALOG_SERVICE_PORT", "8083")

	db, err := catalog.Open(cfg.Catalog.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// Wait for database to be ready
	for i := 0; i < 30; i++ {
		if err := db.Ping(); err == nil {
			logger.Info("Database connection established")
			break
		}
		logger.Info("Waiting for database...")
		time.Sleep(2 * time.Second)
	}

	loader := catalog.NewPostgresLoader(db, logger)
	ctx := context.Background()

	if err := loader.EnsureSchema(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to create tables")
	}

	bundled, err := catalog.BundledOrders()
	if err != nil {
		logger.WithError(err).Fatal("Failed to read bundled dataset")
	}
	if _, err := loader.Seed(ctx, bundled); err != nil {
		logger.WithError(err).Fatal("Failed to seed orders")
	}

	service := &CatalogService{loader: loader, logger: logger}

	router := mux.NewRouter()
	router.HandleFunc("/health", service.HealthCheck).Methods("GET")
	router.HandleFunc("/orders", service.ListOrders).Methods("GET")

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("port", port).Info("Starting catalog service")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server gracefully stopped")
}

func (s *CatalogService) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.loader.LoadOrders(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("Failed to get orders")
		httputil.ErrorResponse(w, http.StatusInternalServerError, "Failed to get orders")
		return
	}

	httputil.JSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"orders":  orders,
		"count":   len(orders),
	})
}

func (s *CatalogService) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.loader.Ping(r.Context()); err != nil {
		httputil.JSONResponse(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "unhealthy",
			"service": "catalog-service",
			"error":   "database connection failed",
		})
		return
	}

	httputil.JSONResponse(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "catalog-service",
	})
}
