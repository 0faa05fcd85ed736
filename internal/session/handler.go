package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jogardn/order-dashboard/pkg/httputil"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	store  *Store
	logger *logrus.Logger
	// onLogout runs after a logout so dependent views can reset.
	onLogout func()
}

func NewHandler(store *Store, logger *logrus.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

func (h *Handler) OnLogout(fn func()) {
	h.onLogout = fn
}

type loginRequest struct {
	AccessToken string `json:"access_token"`
}

// Login takes the token obtained from the provider's popup flow and resolves
// the profile before answering.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.store.BeginLogin(r.Context(), req.AccessToken)
	switch {
	case err == nil:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	case errors.Is(err, ErrEmptyToken):
		httputil.ErrorResponse(w, http.StatusBadRequest, "access_token is required")
	case errors.Is(err, ErrSuperseded):
		httputil.ErrorResponse(w, http.StatusConflict, "Login superseded by a newer request")
	default:
		h.logger.WithError(err).Warn("Login failed")
		httputil.ErrorResponse(w, http.StatusUnauthorized, h.store.Snapshot().Error)
	}
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.store.Logout()
	if h.onLogout != nil {
		h.onLogout()
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	httputil.JSONResponse(w, http.StatusOK, h.store.Snapshot())
}
