package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/almacen/almacen-ui/internal/domain/auth"
	"github.com/almacen/almacen-ui/internal/ports"
)

// AuthProviders holds the login mechanisms enabled for the current AUTH_MODE.
// At least one must be set.
type AuthProviders struct {
	Redirect ports.AuthProvider          // oauth and mock modes
	Password ports.PasswordAuthenticator // api mode
}

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Providers AuthProviders
	Sessions  ports.SessionStore
	Roles     ports.RoleMapper // Optional: used when the identity carries no role
}

// AuthService owns the session lifecycle: it creates sessions at login,
// resolves them per request and removes them at logout.
type AuthService struct {
	redirect ports.AuthProvider
	password ports.PasswordAuthenticator
	sessions ports.SessionStore
	roles    ports.RoleMapper
	now      func() time.Time
}

// ErrSessionExpired is returned by GetSession for a session past its expiry.
var ErrSessionExpired = errors.New("session expired")

// ErrLoginUnsupported is returned when the requested login flow is not enabled.
var ErrLoginUnsupported = errors.New("login flow not enabled")

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	if opts.Sessions == nil {
		panic("AuthService requires a session store")
	}
	if opts.Providers.Redirect == nil && opts.Providers.Password == nil {
		panic("AuthService requires at least one login provider")
	}
	return &AuthService{
		redirect: opts.Providers.Redirect,
		password: opts.Providers.Password,
		sessions: opts.Sessions,
		roles:    opts.Roles,
		now:      time.Now,
	}
}

// SupportsPassword reports whether the login form posts credentials.
func (s *AuthService) SupportsPassword() bool { return s.password != nil }

// SupportsRedirect reports whether single sign-on is available.
func (s *AuthService) SupportsRedirect() bool { return s.redirect != nil }

// LoginWithPassword verifies credentials with the backend and persists a session.
// Errors from the authenticator are returned unwrapped so callers can read
// their AppError code.
func (s *AuthService) LoginWithPassword(ctx context.Context, username, password string) (*domainauth.Session, error) {
	if s.password == nil {
		return nil, ErrLoginUnsupported
	}
	identity, err := s.password.Authenticate(ctx, ports.Credentials{
		Username: strings.TrimSpace(username),
		Password: password,
	})
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, identity)
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates a redirect flow and returns the provider auth URL with state and nonce.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if s.redirect == nil {
		return nil, ErrLoginUnsupported
	}
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	authURL, state, nonce, err := s.redirect.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}
	return &BeginLoginResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteLogin exchanges the code for an identity and persists a session.
func (s *AuthService) CompleteLogin(ctx context.Context, in CompleteLoginInput) (*domainauth.Session, error) {
	if s.redirect == nil {
		return nil, ErrLoginUnsupported
	}
	switch {
	case in.Code == "":
		return nil, errors.New("authorization code is required")
	case in.State == "":
		return nil, errors.New("state parameter is required")
	case in.Nonce == "":
		return nil, errors.New("nonce parameter is required")
	}

	identity, err := s.redirect.Exchange(ctx, ports.ExchangeInput{Code: in.Code, State: in.State, Nonce: in.Nonce})
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return s.startSession(ctx, identity)
}

func (s *AuthService) startSession(ctx context.Context, identity domainauth.Identity) (*domainauth.Session, error) {
	if identity.Token == "" {
		return nil, errors.New("identity has no token")
	}
	role := identity.Role
	if role == "" && s.roles != nil {
		role = s.roles.Map(identity.Groups)
	}
	sess := domainauth.Session{
		ID:        uuid.NewString(),
		UserID:    identity.UserID,
		Name:      identity.Name,
		Email:     identity.Email,
		Token:     identity.Token,
		Role:      role,
		ExpiresAt: identity.ExpiresAt,
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &sess, nil
}

// GetSession retrieves a live session by ID. Expired sessions are deleted.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, ports.ErrSessionNotFound
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess.Expired(s.now()) {
		if delErr := s.sessions.Delete(ctx, sessionID); delErr != nil {
			return nil, errors.Join(ErrSessionExpired, fmt.Errorf("delete session: %w", delErr))
		}
		return nil, ErrSessionExpired
	}
	return &sess, nil
}

// Logout removes a session. An empty ID is a no-op.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
