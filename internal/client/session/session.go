// Package session holds the current authentication token and the username
// read from it. The token is persisted as a "token" cookie in a local file
// so a restarted shell stays logged in.
//
// The username claim is decoded without verifying the signature: it is used
// for display only and the backend remains the authority on the token.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/atinyakov/researchhive/internal/client/backend"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// CookieName is the key the token is persisted under.
const CookieName = "token"

// ErrInvalidToken means the backend issued a token whose username claim
// could not be read.
var ErrInvalidToken = errors.New("token has no readable username claim")

// Authenticator is the backend credential exchange.
type Authenticator interface {
	Login(ctx context.Context, creds backend.Credentials) (string, error)
	Register(ctx context.Context, creds backend.Credentials) error
}

// cookie is the on-disk form of the persisted token.
type cookie struct {
	Name  string    `json:"name"`
	Value string    `json:"value"`
	SetAt time.Time `json:"set_at"`
}

// Store is the session controller. Views read through the accessors; only
// Login, Register, Logout and Restore mutate it.
type Store struct {
	mu       sync.RWMutex
	token    string
	username string

	path     string
	auth     Authenticator
	log      *zap.Logger
	onLogout func()
}

// New returns a logged-out Store persisting to path.
func New(auth Authenticator, path string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{auth: auth, path: path, log: log}
}

// OnLogout registers fn to run after every Logout.
func (s *Store) OnLogout(fn func()) {
	s.mu.Lock()
	s.onLogout = fn
	s.mu.Unlock()
}

// Restore loads a persisted token. A missing file, an unreadable file or a
// token without a username claim all leave the store logged out.
func (s *Store) Restore() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("cannot read session cookie", zap.String("path", s.path), zap.Error(err))
		}
		return
	}

	var c cookie
	if err := json.Unmarshal(data, &c); err != nil || c.Name != CookieName || c.Value == "" {
		s.log.Warn("discarding malformed session cookie", zap.String("path", s.path))
		s.clear()
		return
	}

	username, err := decodeUsername(c.Value)
	if err != nil {
		s.log.Info("discarding session cookie", zap.Error(err))
		s.clear()
		return
	}

	s.mu.Lock()
	s.token, s.username = c.Value, username
	s.mu.Unlock()
	s.log.Debug("session restored", zap.String("username", username))
}

// Login exchanges credentials for a token. Any prior session is cleared
// first; on failure the store stays logged out and the error explains why.
func (s *Store) Login(ctx context.Context, username, password string) (bool, error) {
	s.clear()

	token, err := s.auth.Login(ctx, backend.Credentials{Username: username, Password: password})
	if err != nil {
		return false, err
	}

	if err := s.persist(token); err != nil {
		return false, err
	}

	claim, err := decodeUsername(token)
	if err != nil {
		s.log.Warn("login token rejected", zap.Error(err))
		s.clear()
		return false, err
	}

	s.mu.Lock()
	s.token, s.username = token, claim
	s.mu.Unlock()

	s.log.Info("logged in", zap.String("username", claim))
	return true, nil
}

// Register creates an account. It reports true iff the backend accepted it
// and does not log the user in.
func (s *Store) Register(ctx context.Context, username, password string) (bool, error) {
	if err := s.auth.Register(ctx, backend.Credentials{Username: username, Password: password}); err != nil {
		return false, err
	}
	return true, nil
}

// Logout clears the persisted and in-memory session. It always succeeds.
func (s *Store) Logout() {
	s.clear()
	s.mu.RLock()
	fn := s.onLogout
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// Authenticated reports whether a session is active.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Username is the display name of the active session.
func (s *Store) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// Token is the bearer token of the active session.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) persist(token string) error {
	b, err := json.Marshal(cookie{Name: CookieName, Value: token, SetAt: time.Now()})
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, b, 0600); err != nil {
		return fmt.Errorf("save session cookie: %w", err)
	}
	return nil
}

func (s *Store) clear() {
	s.mu.Lock()
	s.token, s.username = "", ""
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.log.Warn("cannot remove session cookie", zap.String("path", s.path), zap.Error(err))
	}
}

func decodeUsername(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return "", ErrInvalidToken
	}
	return username, nil
}
