package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"

	domainauth "github.com/almacen/almacen-ui/internal/domain/auth"
)

// BeginInput carries inputs for initiating a redirect-based auth flow.
type BeginInput struct {
	RedirectURL string
}

// AuthProvider initiates and completes a redirect-based login (OIDC or dev).
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// Credentials are a username and password typed into the login form.
type Credentials struct {
	Username string
	Password string
}

// PasswordAuthenticator checks credentials against the Almacen backend.
type PasswordAuthenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (domainauth.Identity, error)
}

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// SessionLister enumerates live sessions for operator tooling.
type SessionLister interface {
	List(ctx context.Context) ([]domainauth.Session, error)
}

// RoleMapper maps provider groups to application roles.
type RoleMapper interface {
	Map(groups []string) domainauth.Role
}

// ErrSessionNotFound is returned by SessionStore implementations when a
// session is missing or expired.
var ErrSessionNotFound = errors.New("session not found")
