// Package apiauth checks login form credentials against the Almacen backend.
package apiauth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/almacen/almacen-ui/internal/apiclient"
	domainauth "github.com/almacen/almacen-ui/internal/domain/auth"
	apperrors "github.com/almacen/almacen-ui/internal/errors"
	"github.com/almacen/almacen-ui/internal/ports"
)

// Config wires the authenticator to a backend client.
type Config struct {
	Client    *apiclient.Client
	LoginPath string
	Extractor apiclient.LoginExtractor
	// TTL is used when the backend token is not a JWT or has no exp claim.
	TTL time.Duration
}

// Authenticator implements ports.PasswordAuthenticator.
type Authenticator struct {
	client    *apiclient.Client
	loginPath string
	extractor apiclient.LoginExtractor
	ttl       time.Duration
	now       func() time.Time
}

var _ ports.PasswordAuthenticator = (*Authenticator)(nil)

func New(cfg Config) (*Authenticator, error) {
	if cfg.Client == nil {
		return nil, errors.New("apiauth: client is required")
	}
	if !strings.HasPrefix(cfg.LoginPath, "/") && !strings.Contains(cfg.LoginPath, "://") {
		return nil, errors.New("apiauth: login path must be absolute")
	}
	if err := cfg.Extractor.Validate(); err != nil {
		return nil, err
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Authenticator{
		client:    cfg.Client,
		loginPath: cfg.LoginPath,
		extractor: cfg.Extractor,
		ttl:       ttl,
		now:       time.Now,
	}, nil
}

// Authenticate posts the credentials and turns the response into an Identity.
// Rejected credentials yield an unauthorized AppError; anything else that goes
// wrong talking to the backend is reported as unavailable.
func (a *Authenticator) Authenticate(ctx context.Context, creds ports.Credentials) (domainauth.Identity, error) {
	username := strings.TrimSpace(creds.Username)
	if username == "" || creds.Password == "" {
		return domainauth.Identity{}, apperrors.Validation("usuario y contraseña son obligatorios")
	}

	res, err := a.client.Login(ctx, a.loginPath, apiclient.LoginRequest{Username: username, Password: creds.Password}, a.extractor)
	if err != nil {
		return domainauth.Identity{}, classify(err)
	}

	name := res.Name
	if name == "" {
		name = username
	}
	return domainauth.Identity{
		UserID:    username,
		Name:      name,
		Role:      domainauth.Role(res.Role),
		Token:     res.Token,
		ExpiresAt: a.expiry(res.Token),
	}, nil
}

func classify(err error) error {
	switch apiclient.StatusCode(err) {
	case http.StatusUnauthorized, http.StatusBadRequest, http.StatusForbidden:
		return &apperrors.AppError{Code: apperrors.ErrCodeUnauthorized, Message: "credenciales inválidas", Cause: err}
	case http.StatusTooManyRequests:
		return &apperrors.AppError{Code: apperrors.ErrCodeRateLimited, Message: "demasiados intentos", Cause: err}
	}
	if errors.Is(err, apiclient.ErrNoToken) {
		return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "respuesta de login sin token")
	}
	return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "servicio de autenticación no disponible")
}

// expiry reads exp from the token without verifying it; the backend is the
// only party that validates signatures.
func (a *Authenticator) expiry(token string) time.Time {
	now := a.now()
	fallback := now.Add(a.ttl)

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return fallback
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil || !exp.After(now) {
		return fallback
	}
	return exp.Time
}
