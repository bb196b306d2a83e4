// Package auth contains hand-written test doubles for the auth ports that
// need scripted, stateful behavior rather than call expectations.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/almacen/almacen-ui/internal/domain/auth"
	apperrors "github.com/almacen/almacen-ui/internal/errors"
	"github.com/almacen/almacen-ui/internal/ports"
)

var (
	_ ports.AuthProvider          = (*MockAuthProvider)(nil)
	_ ports.PasswordAuthenticator = (*StubAuthenticator)(nil)
)

// MockAuthProvider simulates an IdP with deterministic state and nonce values.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	AuthURL     string
	StatePrefix string
	NoncePrefix string
	DefaultUser domainauth.Identity

	mu        sync.Mutex
	callCount int
}

// NewMockAuthProvider returns a provider whose identity belongs to the
// general admin group.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL:     "https://mock-idp/auth",
		StatePrefix: "state",
		NoncePrefix: "nonce",
		DefaultUser: defaultIdentity(),
	}
}

func defaultIdentity() domainauth.Identity {
	return domainauth.Identity{
		UserID: "mock-user-1",
		Name:   "Mock User",
		Email:  "mock.user@almacen.test",
		Groups: []string{"almacen-admins"},
		Token:  "mock-token",
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.mu.Lock()
	m.callCount++
	n := m.callCount
	m.mu.Unlock()

	authURL := orDefault(m.AuthURL, "https://mock-idp/auth")
	state := fmt.Sprintf("%s-%d", orDefault(m.StatePrefix, "state"), n)
	nonce := fmt.Sprintf("%s-%d", orDefault(m.NoncePrefix, "nonce"), n)
	return authURL, state, nonce, nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}
	user := m.DefaultUser
	if user.UserID == "" {
		user = defaultIdentity()
	}
	user.ExpiresAt = time.Now().Add(time.Hour)
	return user, nil
}

// StubAuthenticator accepts a fixed set of username/password pairs.
type StubAuthenticator struct {
	// Users maps username to the password and identity it unlocks.
	Users map[string]StubUser
	// Err, when set, is returned for every call.
	Err error

	mu    sync.Mutex
	calls []ports.Credentials
}

// StubUser is one accepted credential.
type StubUser struct {
	Password string
	Identity domainauth.Identity
}

func (s *StubAuthenticator) Authenticate(_ context.Context, creds ports.Credentials) (domainauth.Identity, error) {
	s.mu.Lock()
	s.calls = append(s.calls, creds)
	s.mu.Unlock()

	if s.Err != nil {
		return domainauth.Identity{}, s.Err
	}
	u, ok := s.Users[creds.Username]
	if !ok || u.Password != creds.Password {
		return domainauth.Identity{}, apperrors.Unauthorized("credenciales inválidas")
	}
	id := u.Identity
	if id.UserID == "" {
		id.UserID = creds.Username
	}
	if id.ExpiresAt.IsZero() {
		id.ExpiresAt = time.Now().Add(time.Hour)
	}
	return id, nil
}

// Calls returns the credentials seen so far.
func (s *StubAuthenticator) Calls() []ports.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Credentials(nil), s.calls...)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
