package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jogardn/order-dashboard/internal/config"
	"github.com/jogardn/order-dashboard/pkg/httputil"
	"github.com/jogardn/order-dashboard/pkg/models"
	"github.com/sirupsen/logrus"
)

// ProfileStore maps bearer tokens to the profile the userinfo endpoint returns.
type ProfileStore struct {
	profiles map[string]models.User
	mutex    sync.RWMutex
}

// NewProfileStore parses MOCK_USERS, a JSON object of token to profile.
func NewProfileStore(raw string) (*ProfileStore, error) {
	store := &ProfileStore{profiles: make(map[string]models.User)}
	if strings.TrimSpace(raw) == "" {
		store.profiles["dev-token"] = models.User{
			Email:         "dev@example.com",
			EmailVerified: true,
			GivenName:     "Dev",
			FamilyName:    "User",
			Name:          "Dev User",
			Sub:           "dev-user-1",
		}
		return store, nil
	}
	if err := json.Unmarshal([]byte(raw), &store.profiles); err != nil {
		return nil, fmt.Errorf("failed to parse MOCK_USERS: %w", err)
	}
	return store, nil
}

func (s *ProfileStore) Lookup(token string) (models.User, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	user, ok := s.profiles[token]
	return user, ok
}

type IdentityService struct {
	store  *ProfileStore
	logger *logrus.Logger
}

func main() {
	logger := config.NewLogger(config.GetEnv("LOG_LEVEL", "info"))
	port := config.GetEnv("IDP_MOCK_PORT", "8084")

	store, err := NewProfileStore(os.Getenv("MOCK_USERS"))
	if err != nil {
		logger.WithError(err).Fatal("Invalid mock user table")
	}

	service := &IdentityService{store: store, logger: logger}

	router := mux.NewRouter()
	router.HandleFunc("/health", service.HealthCheck).Methods("GET")
	router.HandleFunc("/oauth2/v3/userinfo", service.Userinfo).Methods("GET")

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":     port,
			"profiles": len(store.profiles),
		}).Info("Starting identity provider mock")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server gracefully stopped")
}

func (s *IdentityService) Userinfo(w http.ResponseWriter, r *http.Request) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		httputil.ErrorResponse(w, http.StatusUnauthorized, "Missing bearer token")
		return
	}

	user, found := s.store.Lookup(token)
	if !found {
		s.logger.Warn("Userinfo requested with unknown token")
		httputil.ErrorResponse(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	s.logger.WithField("sub", user.Sub).Info("Userinfo served")
	httputil.JSONResponse(w, http.StatusOK, user)
}

func (s *IdentityService) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.JSONResponse(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "idp-mock",
	})
}
