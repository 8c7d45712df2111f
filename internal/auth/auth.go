// Package auth keeps the API token used by the CLI. Tokens are stored in a
// secrets.Store with an expiry; GIDEVO_API_TOKEN takes precedence over any
// stored token.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os/user"
	"strings"
	"time"

	"github.com/gidevo/gidevo-api-tool/internal/secrets"
)

// TokenTTL is how long a stored token stays valid
const TokenTTL = 30 * 24 * time.Hour

const (
	tokenKey   = "token"
	sessionKey = "session"
)

var (
	// ErrEmptyToken is returned by Login for a blank token
	ErrEmptyToken = errors.New("token must not be empty")

	// ErrNotAuthenticated is returned when no valid token is available
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Source tells where the active token came from
type Source string

const (
	SourceEnv   Source = "environment"
	SourceStore Source = "credential store"
)

// Session is the bookkeeping stored next to a token
type Session struct {
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Status describes the current authentication
type Status struct {
	Source    Source
	UserID    string
	ExpiresAt time.Time
}

// Service manages login state
type Service struct {
	store    secrets.Store
	envToken string
	userID   string
	now      func() time.Time
}

// NewService creates a service over store. envToken is the value of
// GIDEVO_API_TOKEN, if any.
func NewService(store secrets.Store, envToken string) *Service {
	id := "local"
	if u, err := user.Current(); err == nil && u.Username != "" {
		id = u.Username
	}
	return &Service{
		store:    store,
		envToken: envToken,
		userID:   id,
		now:      time.Now,
	}
}

// Login stores token and starts a new session
func (s *Service) Login(token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrEmptyToken
	}

	session := &Session{
		UserID:    s.userID,
		ExpiresAt: s.now().Add(TokenTTL).UTC().Truncate(time.Second),
	}
	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}

	if err := s.store.Set(tokenKey, token); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}
	if err := s.store.Set(sessionKey, string(data)); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return session, nil
}

// Token returns the active token, or "" when none is stored or the stored
// one has expired
func (s *Service) Token() (string, error) {
	_, token, err := s.current()
	if errors.Is(err, ErrNotAuthenticated) {
		return "", nil
	}
	return token, err
}

// WhoAmI describes the active token or returns ErrNotAuthenticated
func (s *Service) WhoAmI() (*Status, error) {
	status, _, err := s.current()
	if err != nil {
		return nil, err
	}
	return status, nil
}

// Logout removes the stored token and session
func (s *Service) Logout() error {
	if err := s.store.Delete(tokenKey); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	if err := s.store.Delete(sessionKey); err != nil {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}

func (s *Service) current() (*Status, string, error) {
	if s.envToken != "" {
		return &Status{Source: SourceEnv}, s.envToken, nil
	}

	token, ok, err := s.store.Get(tokenKey)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read token: %w", err)
	}
	if !ok || token == "" {
		return nil, "", ErrNotAuthenticated
	}

	raw, ok, err := s.store.Get(sessionKey)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read session: %w", err)
	}
	var session Session
	if !ok || json.Unmarshal([]byte(raw), &session) != nil {
		return nil, "", ErrNotAuthenticated
	}
	if !s.now().Before(session.ExpiresAt) {
		return nil, "", ErrNotAuthenticated
	}

	return &Status{Source: SourceStore, UserID: session.UserID, ExpiresAt: session.ExpiresAt}, token, nil
}
