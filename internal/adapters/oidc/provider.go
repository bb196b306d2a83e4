// Package oidc implements single sign-on through an OpenID Connect provider.
// The access token it obtains is forwarded to the Almacen backend as the
// session bearer token.
package oidc

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/almacen/almacen-ui/internal/domain/auth"
	"github.com/almacen/almacen-ui/internal/ports"
)

const wellKnownSuffix = "/.well-known/openid-configuration"

// Provider implements ports.AuthProvider using OIDC discovery.
type Provider struct {
	config    *oauth2.Config
	logoutURL string
	client    *http.Client
	op        *gooidc.Provider
	verifier  *gooidc.IDTokenVerifier
	now       func() time.Time
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	DiscoveryURL string
	LogoutURL    string
	HTTPClient   *http.Client
}

// discoveryDocument is the subset of provider metadata go-oidc needs.
type discoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JwksURI               string `json:"jwks_uri"`
}

func (c ProviderConfig) validate() error {
	switch {
	case c.ClientID == "":
		return errors.New("client ID is required")
	case c.ClientSecret == "":
		return errors.New("client secret is required")
	case c.RedirectURL == "":
		return errors.New("redirect URL is required")
	case c.DiscoveryURL == "":
		return errors.New("discovery URL is required")
	}
	return nil
}

// NewProvider fetches the discovery document once and prepares the verifier.
func NewProvider(ctx context.Context, cfg ProviderConfig) (*Provider, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	issuer := strings.TrimSuffix(strings.TrimSuffix(cfg.DiscoveryURL, "/"), wellKnownSuffix)
	op, err := gooidc.NewProvider(gooidc.ClientContext(ctx, client), issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       strings.Fields(cfg.Scope),
			Endpoint:     op.Endpoint(),
		},
		logoutURL: cfg.LogoutURL,
		client:    client,
		op:        op,
		verifier:  op.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
		now:       time.Now,
	}, nil
}

// LogoutURL is the provider's end-session endpoint, empty when not configured.
func (p *Provider) LogoutURL() string { return p.logoutURL }

func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}
	state, err := randomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	// redirect_uri stays the configured one; the post-login target travels in the session cookie
	authURL := p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
	return authURL, state, nonce, nil
}

func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	switch {
	case in.Code == "":
		return domainauth.Identity{}, errors.New("authorization code is required")
	case in.State == "":
		return domainauth.Identity{}, errors.New("state is required")
	case in.Nonce == "":
		return domainauth.Identity{}, errors.New("nonce is required")
	}

	ctx = gooidc.ClientContext(ctx, p.client)
	tok, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("exchange code for token: %w", err)
	}
	if tok.AccessToken == "" {
		return domainauth.Identity{}, errors.New("token response has no access_token")
	}

	var c profileClaims
	if slices.Contains(p.config.Scopes, gooidc.ScopeOpenID) {
		if c, err = p.verifyIDToken(ctx, tok, in.Nonce); err != nil {
			return domainauth.Identity{}, err
		}
	}
	if c.userID() == "" || c.Email == "" {
		ui, uiErr := p.userInfo(ctx, tok)
		if uiErr != nil {
			return domainauth.Identity{}, fmt.Errorf("get user info: %w", uiErr)
		}
		c = c.merge(ui)
	}

	expiresAt := p.now().Add(time.Hour)
	if !tok.Expiry.IsZero() {
		expiresAt = tok.Expiry
	}
	return c.identity(tok.AccessToken, expiresAt), nil
}

func (p *Provider) verifyIDToken(ctx context.Context, tok *oauth2.Token, nonce string) (profileClaims, error) {
	raw, err := idTokenFrom(tok)
	if err != nil {
		return profileClaims{}, err
	}
	idTok, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		return profileClaims{}, fmt.Errorf("verify id_token: %w", err)
	}
	if idTok.Nonce != nonce {
		return profileClaims{}, errors.New("invalid nonce")
	}
	var c profileClaims
	if err := idTok.Claims(&c); err != nil {
		return profileClaims{}, fmt.Errorf("parse id_token claims: %w", err)
	}
	return c, nil
}

func (p *Provider) userInfo(ctx context.Context, tok *oauth2.Token) (profileClaims, error) {
	ui, err := p.op.UserInfo(ctx, oauth2.StaticTokenSource(tok))
	if err != nil {
		return profileClaims{}, err
	}
	var c profileClaims
	if err := ui.Claims(&c); err != nil {
		return profileClaims{}, fmt.Errorf("decode user info: %w", err)
	}
	return c, nil
}

// profileClaims covers both standard OIDC claims and the AD/ADFS shape.
type profileClaims struct {
	Sub               string   `json:"sub"`
	PreferredUsername string   `json:"preferred_username"`
	SamAccountName    string   `json:"samaccountname"`
	Name              string   `json:"name"`
	GivenName         string   `json:"given_name"`
	FamilyName        string   `json:"family_name"`
	Email             string   `json:"email"`
	Mail              string   `json:"mail"`
	Groups            []string `json:"groups"`
	MemberOf          []string `json:"memberof"`
}

func (c profileClaims) userID() string {
	return firstNonEmpty(c.SamAccountName, c.PreferredUsername, c.Sub)
}

func (c profileClaims) email() string { return firstNonEmpty(c.Email, c.Mail) }

func (c profileClaims) groups() []string {
	if len(c.Groups) > 0 {
		return c.Groups
	}
	return c.MemberOf
}

func (c profileClaims) displayName() string {
	if c.Name != "" {
		return c.Name
	}
	return strings.TrimSpace(c.GivenName + " " + c.FamilyName)
}

// merge fills fields that are empty in c from other.
func (c profileClaims) merge(other profileClaims) profileClaims {
	c.Sub = firstNonEmpty(c.Sub, other.Sub)
	c.PreferredUsername = firstNonEmpty(c.PreferredUsername, other.PreferredUsername)
	c.SamAccountName = firstNonEmpty(c.SamAccountName, other.SamAccountName)
	c.Name = firstNonEmpty(c.Name, other.Name)
	c.GivenName = firstNonEmpty(c.GivenName, other.GivenName)
	c.FamilyName = firstNonEmpty(c.FamilyName, other.FamilyName)
	c.Email = firstNonEmpty(c.Email, other.Email)
	c.Mail = firstNonEmpty(c.Mail, other.Mail)
	if len(c.groups()) == 0 {
		c.Groups, c.MemberOf = other.Groups, other.MemberOf
	}
	return c
}

// identity leaves Role empty; the role mapper assigns it from Groups.
func (c profileClaims) identity(token string, expiresAt time.Time) domainauth.Identity {
	return domainauth.Identity{
		UserID:    c.userID(),
		Name:      c.displayName(),
		Email:     c.email(),
		Groups:    append([]string(nil), c.groups()...),
		Token:     token,
		ExpiresAt: expiresAt,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func randomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	b := make([]byte, (length*3+3)/4+1)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:length], nil
}

func idTokenFrom(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	s, ok := tok.Extra("id_token").(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}
