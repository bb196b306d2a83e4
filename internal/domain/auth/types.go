package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import "time"

// Role represents an application's authorization role.
// Any string is accepted from the backend; only RoleGeneralAdmin grants
// access to user administration.
type Role string

const (
	RoleGeneralAdmin Role = "admin_general"
	RoleBranchAdmin  Role = "admin_sucursal"
	RoleEmployee     Role = "empleado"
)

// IsGeneralAdmin reports whether r is exactly the general administrator role.
func (r Role) IsGeneralAdmin() bool { return r == RoleGeneralAdmin }

// State is the snapshot of session data that access checks and outgoing
// API requests depend on. A non-empty token alone means authenticated.
type State struct {
	Token string
	Role  Role
}

// HasToken reports whether a bearer token is present.
func (s State) HasToken() bool { return s.Token != "" }

// Identity represents the authenticated principal returned by a login flow.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID    string
	Name      string
	Email     string
	Groups    []string
	Role      Role   // set when the provider reports a role directly
	Token     string // bearer token forwarded to the Almacen backend
	ExpiresAt time.Time
}

// Session is the server-side record we persist for an authenticated user.
// Token and role keep the auth_token / user_role keys of the persisted contract.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Token     string    `json:"auth_token"`
	Role      Role      `json:"user_role,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// State projects the session onto the values access checks read.
func (s Session) State() State {
	return State{Token: s.Token, Role: s.Role}
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// DisplayName returns the best human-readable label for the session owner.
func (s Session) DisplayName() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.Email != "":
		return s.Email
	default:
		return s.UserID
	}
}
