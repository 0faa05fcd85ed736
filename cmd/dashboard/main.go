package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jogardn/order-dashboard/internal/catalog"
	"github.com/jogardn/order-dashboard/internal/config"
	"github.com/jogardn/order-dashboard/internal/events"
	"github.com/jogardn/order-dashboard/internal/identity"
	"github.com/jogardn/order-dashboard/internal/orders"
	"github.com/jogardn/order-dashboard/internal/router"
	"github.com/jogardn/order-dashboard/internal/session"
	"github.com/jogardn/order-dashboard/internal/websocket"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	logger := config.NewLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loader, closeLoader, err := newLoader(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to configure order catalog")
	}
	defer closeLoader()

	wsHub := websocket.NewHub(cfg.Server.AllowedOrigin, logger)
	go wsHub.Run(ctx)

	resolver := identity.NewClient(cfg.Identity.UserinfoURL, cfg.Identity.Timeout, logger)
	sessions := session.NewStore(resolver, session.NewFileStorage(cfg.Session.TokenFile), logger)
	sessions.OnChange(func(s session.Snapshot) {
		wsHub.Broadcast(websocket.MessageSessionChanged, s.Public(), "session")
	})

	orderStore := orders.NewStore(loader, logger)
	orderHandler := orders.NewHandler(orderStore, orders.NewViewState(cfg.Dashboard.PageSize), logger)
	orderHandler.SetWebSocketHub(wsHub)

	if cfg.Kafka.Brokers != "" {
		producer, err := events.NewKafkaProducer(cfg.Kafka.Brokers, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create Kafka producer")
		}
		defer producer.Close()
		orderHandler.SetEventPublisher(producer)
		logger.WithField("brokers", cfg.Kafka.Brokers).Info("Publishing order events to Kafka")
	} else {
		logger.Info("KAFKA_BROKERS not set - order events are not published")
	}

	handler := router.New(router.Dependencies{
		Sessions:      sessions,
		SessionRoutes: session.NewHandler(sessions, logger),
		Orders:        orderHandler,
		WebSocket:     wsHub.HandleWebSocket,
		AllowedOrigin: cfg.Server.AllowedOrigin,
		Logger:        logger,
	})

	// A stored token from an earlier run is resolved in the background; views
	// show the loading state until it settles.
	go func() {
		if err := sessions.Restore(ctx); err != nil && !errors.Is(err, session.ErrSuperseded) {
			logger.WithError(err).Warn("Stored session could not be restored")
		}
	}()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":           cfg.Server.Port,
			"catalog_source": cfg.Catalog.Source,
		}).Info("Starting order dashboard")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server gracefully stopped")
}

func newLoader(cfg *config.Config, logger *logrus.Logger) (orders.Loader, func(), error) {
	switch cfg.Catalog.Source {
	case config.CatalogSourceHTTP:
		logger.WithField("url", cfg.Catalog.ServiceURL).Info("Loading orders from catalog service")
		return catalog.NewHTTPLoader(cfg.Catalog.ServiceURL, cfg.Catalog.Timeout, logger), func() {}, nil

	case config.CatalogSourcePostgres:
		db, err := catalog.Open(cfg.Catalog.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Loading orders from database")
		return catalog.NewPostgresLoader(db, logger), func() { db.Close() }, nil

	default:
		return catalog.NewStaticLoader(logger), func() {}, nil
	}
}
