package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/almacen/almacen-ui/config"
	"github.com/almacen/almacen-ui/internal/adapters/apiauth"
	"github.com/almacen/almacen-ui/internal/adapters/authroles"
	"github.com/almacen/almacen-ui/internal/adapters/devauth"
	"github.com/almacen/almacen-ui/internal/adapters/memory"
	"github.com/almacen/almacen-ui/internal/adapters/oidc"
	redisadapter "github.com/almacen/almacen-ui/internal/adapters/redis"
	"github.com/almacen/almacen-ui/internal/apiclient"
	domainauth "github.com/almacen/almacen-ui/internal/domain/auth"
	"github.com/almacen/almacen-ui/internal/ports"
	"github.com/almacen/almacen-ui/internal/service"
)

// SessionBackend is the store the auth service persists sessions in.
// Both adapters also list sessions for the admin CLI.
type SessionBackend interface {
	ports.SessionStore
	ports.SessionLister
}

// ErrRedisRequired is returned when the redis session store is selected but
// no client was connected.
var ErrRedisRequired = errors.New("SESSION_STORE=redis requires a redis connection")

// BuildSessionStore returns the session store selected by SESSION_STORE.
//
//nolint:ireturn // the concrete store depends on configuration.
func BuildSessionStore(cfg config.SessionConfig, client redis.UniversalClient) (SessionBackend, error) {
	switch cfg.Store {
	case config.SessionStoreMemory:
		return memory.NewSessionStore(), nil
	case config.SessionStoreRedis, "":
		if client == nil {
			return nil, ErrRedisRequired
		}
		return redisadapter.NewSessionStore(client), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}

// AuthConfig contains configuration for the auth service.
type AuthConfig struct {
	Auth     config.AuthConfig
	API      config.APIConfig
	Client   *apiclient.Client
	Sessions ports.SessionStore
	Logger   *slog.Logger
}

// BuildAuthService creates an auth service for the configured AUTH_MODE.
func BuildAuthService(ctx context.Context, cfg AuthConfig) (*service.AuthService, error) {
	if cfg.Sessions == nil {
		return nil, errors.New("auth service requires a session store")
	}

	roleMapper := authroles.StaticRoleMapper{
		GeneralAdminGroup: cfg.Auth.GeneralAdminGroup,
		BranchAdminGroup:  cfg.Auth.BranchAdminGroup,
	}

	var (
		providers service.AuthProviders
		err       error
	)
	switch cfg.Auth.Mode {
	case config.AuthModeAPI, "":
		providers.Password, err = buildPasswordAuthenticator(cfg)
	case config.AuthModeOAuth:
		providers.Redirect, err = buildOIDCProvider(ctx, cfg)
	case config.AuthModeMock:
		providers.Redirect, err = buildDevAuthProvider(cfg)
	default:
		err = fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("auth configured", "mode", string(cfg.Auth.Mode))
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Providers: providers,
		Sessions:  cfg.Sessions,
		Roles:     roleMapper,
	}), nil
}

func buildPasswordAuthenticator(cfg AuthConfig) (*apiauth.Authenticator, error) {
	if cfg.Client == nil {
		return nil, errors.New("api auth requires a backend client")
	}
	authn, err := apiauth.New(apiauth.Config{
		Client:    cfg.Client,
		LoginPath: cfg.API.LoginPath,
		Extractor: apiclient.LoginExtractor{
			TokenExpr: cfg.API.TokenExpr,
			RoleExpr:  cfg.API.RoleExpr,
			NameExpr:  cfg.API.NameExpr,
		},
		TTL: cfg.Auth.SessionTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("create api authenticator: %w", err)
	}
	return authn, nil
}

func buildOIDCProvider(ctx context.Context, cfg AuthConfig) (*oidc.Provider, error) {
	oauth := cfg.Auth.OAuth
	prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		RedirectURL:  oauth.RedirectURL,
		Scope:        oauth.Scope,
		DiscoveryURL: oauth.DiscoveryURL,
		LogoutURL:    oauth.LogoutURL,
	})
	if err != nil {
		return nil, fmt.Errorf("create OIDC provider: %w", err)
	}
	return prov, nil
}

func buildDevAuthProvider(cfg AuthConfig) (*devauth.Provider, error) {
	dev := cfg.Auth.DevAuth
	prov, err := devauth.NewProvider(devauth.Config{
		UserID:          dev.UserID,
		Email:           dev.Email,
		Groups:          dev.Groups,
		Role:            domainauth.Role(dev.Role),
		Token:           dev.Token,
		SessionDuration: cfg.Auth.SessionTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("create dev auth provider: %w", err)
	}
	if cfg.Logger != nil {
		cfg.Logger.Warn("mock authentication enabled; do not use in production", "user_id", dev.UserID)
	}
	return prov, nil
}
