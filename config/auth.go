package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeAPI logs users in with credentials checked by the Almacen backend.
	AuthModeAPI AuthMode = "api"
	// AuthModeOAuth uses OAuth/OIDC for authentication.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "api", "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: api, oauth, mock)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"almacen"`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:"almacen"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
	LogoutURL    string `env:"LOGOUT_URL"`
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID string   `env:"USER_ID" envDefault:"dev-user"`
	Email  string   `env:"EMAIL"   envDefault:"dev@example.com"`
	Groups []string `env:"GROUPS"  envDefault:"almacen-admins" envSeparator:";"`
	// Role, when set, bypasses group mapping.
	Role string `env:"ROLE"`
	// Token is forwarded to the backend as the bearer token.
	Token string `env:"TOKEN" envDefault:"dev-token"`
}

// LoginRateLimitConfig bounds credential login attempts per client IP.
type LoginRateLimitConfig struct {
	Requests int           `env:"REQUESTS" envDefault:"5"`
	Window   time.Duration `env:"WINDOW"   envDefault:"1m"`
	Burst    int           `env:"BURST"    envDefault:"5"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"api"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// GeneralAdminGroup maps to the admin_general role.
	GeneralAdminGroup string `env:"GENERAL_ADMIN_GROUP" envDefault:"almacen-admins"`

	// BranchAdminGroup maps to the admin_sucursal role.
	BranchAdminGroup string `env:"BRANCH_ADMIN_GROUP" envDefault:"almacen-sucursal-admins"`

	// SessionTTL applies when the backend token carries no expiry.
	SessionTTL time.Duration `env:"AUTH_SESSION_TTL" envDefault:"8h"`

	LoginRateLimit LoginRateLimitConfig `envPrefix:"LOGIN_RATE_LIMIT_"`
}

// Sanitize applies defaults to out-of-range values.
func (c *AuthConfig) Sanitize() {
	if c.Mode == "" {
		c.Mode = AuthModeAPI
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 8 * time.Hour
	}
	if c.LoginRateLimit.Requests <= 0 {
		c.LoginRateLimit.Requests = 5
	}
	if c.LoginRateLimit.Window <= 0 {
		c.LoginRateLimit.Window = time.Minute
	}
	if c.LoginRateLimit.Burst <= 0 {
		c.LoginRateLimit.Burst = c.LoginRateLimit.Requests
	}
	c.GeneralAdminGroup = strings.TrimSpace(c.GeneralAdminGroup)
	c.BranchAdminGroup = strings.TrimSpace(c.BranchAdminGroup)
}

// Validate checks mode-specific requirements.
func (c *AuthConfig) Validate() error {
	if c.Mode == AuthModeOAuth && strings.TrimSpace(c.OAuth.DiscoveryURL) == "" {
		return errors.New("OAUTH_DISCOVERY_URL is required when AUTH_MODE=oauth")
	}
	return nil
}
