package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jogardn/order-dashboard/pkg/models"
	"github.com/sirupsen/logrus"
)

type State int

const (
	StateAnonymous State = iota
	StateAuthPending
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthPending:
		return "auth_pending"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

const ProfileErrorMessage = "Failed to fetch user data"

var (
	ErrEmptyToken = errors.New("access token is empty")
	// ErrSuperseded is returned to a caller whose resolution attempt was
	// replaced by a newer login or a logout. Its result was not applied.
	ErrSuperseded = errors.New("login attempt superseded")
)

type Resolver interface {
	ResolveProfile(ctx context.Context, token string) (*models.User, error)
}

type Snapshot struct {
	State         string       `json:"state"`
	Authenticated bool         `json:"authenticated"`
	Token         string       `json:"-"`
	User          *models.User `json:"user"`
	Loading       bool         `json:"loading"`
	Error         string       `json:"error,omitempty"`
}

// Public strips the profile from a snapshot so it can be pushed to
// websocket subscribers.
func (s Snapshot) Public() Snapshot {
	s.User = nil
	s.Token = ""
	return s
}

// Store owns the authentication state. Authenticated is true only while a
// profile is resolved or a resolution attempt is in flight.
type Store struct {
	resolver Resolver
	storage  TokenStorage
	logger   *logrus.Logger

	mutex    sync.RWMutex
	state    State
	token    string
	user     *models.User
	errMsg   string
	attempt  uint64
	cancel   context.CancelFunc
	onChange func(Snapshot)
}

func NewStore(resolver Resolver, storage TokenStorage, logger *logrus.Logger) *Store {
	return &Store{
		resolver: resolver,
		storage:  storage,
		logger:   logger,
		state:    StateAnonymous,
	}
}

// OnChange registers a callback invoked after every state transition. The
// callback runs with the store locked and must not call back into it.
func (s *Store) OnChange(fn func(Snapshot)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.onChange = fn
}

// BeginLogin records the token, persists it and resolves the profile before
// returning. A failed resolution tears the session down.
func (s *Store) BeginLogin(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	return s.resolve(ctx, token, resolveLogin)
}

// Restore resumes a session from durable storage. It does nothing when no
// token is stored or a session is already active or pending.
func (s *Store) Restore(ctx context.Context) error {
	token, err := s.storage.Load()
	if err != nil {
		return fmt.Errorf("failed to load stored token: %w", err)
	}
	if token == "" {
		return nil
	}
	return s.resolve(ctx, token, resolveRestore)
}

type resolveMode int

const (
	// resolveLogin persists the token and replaces any attempt in flight.
	resolveLogin resolveMode = iota
	// resolveRestore only starts from the anonymous state.
	resolveRestore
)

func (s *Store) resolve(ctx context.Context, token string, mode resolveMode) error {
	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mutex.Lock()
	if mode == resolveRestore {
		if s.state != StateAnonymous {
			s.mutex.Unlock()
			return nil
		}
		s.logger.Info("Restoring session from stored token")
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.attempt++
	attempt := s.attempt
	s.cancel = cancel
	s.state = StateAuthPending
	s.token = token
	s.user = nil
	s.errMsg = ""
	if mode == resolveLogin {
		if err := s.storage.Save(token); err != nil {
			s.logger.WithError(err).Warn("Failed to persist access token")
		}
	}
	s.notifyLocked()
	s.mutex.Unlock()

	user, err := s.resolver.ResolveProfile(attemptCtx, token)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.attempt != attempt {
		s.logger.WithField("attempt", attempt).Info("Discarding superseded profile resolution")
		return ErrSuperseded
	}
	s.cancel = nil

	if err == nil && user == nil {
		err = errors.New("identity provider returned no profile")
	}
	if err != nil {
		s.logger.WithError(err).Error("Profile resolution failed, ending session")
		s.clearLocked()
		s.errMsg = ProfileErrorMessage
		s.notifyLocked()
		return fmt.Errorf("failed to resolve profile: %w", err)
	}

	s.state = StateAuthenticated
	s.user = user
	s.errMsg = ""
	s.logger.WithField("sub", user.Sub).Info("Session authenticated")
	s.notifyLocked()
	return nil
}

func (s *Store) Logout() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.attempt++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.clearLocked()
	s.logger.Info("Session logged out")
	s.notifyLocked()
}

// clearLocked resets to anonymous and drops the stored token.
func (s *Store) clearLocked() {
	s.state = StateAnonymous
	s.token = ""
	s.user = nil
	if err := s.storage.Clear(); err != nil {
		s.logger.WithError(err).Warn("Failed to remove stored access token")
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	var user *models.User
	if s.user != nil {
		u := *s.user
		user = &u
	}
	return Snapshot{
		State:         s.state.String(),
		Authenticated: s.state != StateAnonymous,
		Token:         s.token,
		User:          user,
		Loading:       s.state == StateAuthPending,
		Error:         s.errMsg,
	}
}

func (s *Store) notifyLocked() {
	if s.onChange == nil {
		return
	}
	s.onChange(s.snapshotLocked())
}
