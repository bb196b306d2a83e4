package config

import (
	"fmt"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// CookieDomain is the domain for session cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// TrustProxy honours X-Forwarded-* headers when deciding cookie security and client IPs.
	TrustProxy bool `env:"APP_TRUST_PROXY" envDefault:"false"`
}

// Sanitize normalises the cookie domain.
func (h *HTTPConfig) Sanitize() {
	h.CookieDomain = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(h.CookieDomain), "."))
}

// Validate rejects cookie domains that browsers would refuse, such as bare public suffixes.
func (h *HTTPConfig) Validate() error {
	if h.CookieDomain == "" || h.CookieDomain == "localhost" {
		return nil
	}
	if _, err := publicsuffix.EffectiveTLDPlusOne(h.CookieDomain); err != nil {
		return fmt.Errorf("invalid APP_COOKIE_DOMAIN %q: %w", h.CookieDomain, err)
	}
	return nil
}
