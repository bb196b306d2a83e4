// Package devauth provides a config-driven AuthProvider for local development.
// It short-circuits SSO by redirecting straight back to our own callback.
package devauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	domainauth "github.com/almacen/almacen-ui/internal/domain/auth"
	"github.com/almacen/almacen-ui/internal/ports"
)

const defaultSessionDuration = 8 * time.Hour

// Config controls the dev identity. UserID and Token are required.
type Config struct {
	UserID          string
	Name            string
	Email           string
	Groups          []string
	Role            domainauth.Role
	Token           string
	SessionDuration time.Duration
}

// Provider implements ports.AuthProvider. Exchange ignores the code and
// returns the configured identity with a fresh expiry.
type Provider struct {
	mu       sync.Mutex
	identity domainauth.Identity
	duration time.Duration
	now      func() time.Time
}

func NewProvider(cfg Config) (*Provider, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	if cfg.Token == "" {
		return nil, errors.New("dev auth: Token is required")
	}
	dur := cfg.SessionDuration
	if dur <= 0 {
		dur = defaultSessionDuration
	}
	name := cfg.Name
	if name == "" {
		name = cfg.UserID
	}
	return &Provider{
		identity: domainauth.Identity{
			UserID: cfg.UserID,
			Name:   name,
			Email:  cfg.Email,
			Groups: append([]string(nil), cfg.Groups...),
			Role:   cfg.Role,
			Token:  cfg.Token,
		},
		duration: dur,
		now:      time.Now,
	}, nil
}

// Begin returns a local callback URL with a random state and nonce.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	q := url.Values{"code": {"dev"}, "state": {state}}
	return "/auth/callback?" + q.Encode(), state, nonce, nil
}

// Exchange returns a copy of the dev identity; state is validated by the handler.
func (p *Provider) Exchange(_ context.Context, _ ports.ExchangeInput) (domainauth.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.identity
	id.Groups = append([]string(nil), p.identity.Groups...)
	id.ExpiresAt = p.now().Add(p.duration)
	return id, nil
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	b := make([]byte, (n*3+3)/4+1)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:n], nil
}
