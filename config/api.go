package config

import (
	"os"
	"strings"
)

// LegacyAPIBaseURLEnv is read when API_BASE_URL is unset, so deployments
// that still export the build-time variable keep working.
const LegacyAPIBaseURLEnv = "VITE_API_BASE_URL"

// APIConfig describes how the server reaches the Almacen backend.
type APIConfig struct {
	// BaseURL is the remote origin that "/api" targets are rebound to.
	// Empty means targets are used unchanged.
	BaseURL string `env:"API_BASE_URL"`

	// LoginPath is the credential login endpoint on the backend.
	LoginPath string `env:"API_LOGIN_PATH" envDefault:"/api/auth/login"`

	// JMESPath expressions evaluated against the login response body.
	TokenExpr string `env:"API_TOKEN_EXPR" envDefault:"access_token || token"`
	RoleExpr  string `env:"API_ROLE_EXPR"  envDefault:"role || user.role || usuario.rol"`
	NameExpr  string `env:"API_NAME_EXPR"  envDefault:"user.name || usuario.nombre || username"`
}

// Sanitize resolves the base URL fallback and strips one trailing slash.
func (c *APIConfig) Sanitize() {
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = os.Getenv(LegacyAPIBaseURLEnv)
	}
	c.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.BaseURL), "/")
	c.LoginPath = strings.TrimSpace(c.LoginPath)
	if c.LoginPath == "" {
		c.LoginPath = "/api/auth/login"
	}
}

// HasBaseURL reports whether a remote origin is configured.
func (c *APIConfig) HasBaseURL() bool {
	return c.BaseURL != ""
}
