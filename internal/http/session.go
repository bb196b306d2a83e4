package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/almacen/almacen-ui/internal/domain/auth"
	"github.com/almacen/almacen-ui/internal/ports"
	"github.com/almacen/almacen-ui/internal/service"
)

// AuthServiceInterface defines the auth service operations the HTTP layer uses.
type AuthServiceInterface interface {
	SupportsPassword() bool
	SupportsRedirect() bool
	LoginWithPassword(ctx context.Context, username, password string) (*domainauth.Session, error)
	BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, in service.CompleteLoginInput) (*domainauth.Session, error)
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

var _ AuthServiceInterface = (*service.AuthService)(nil)

// errSessionUnavailable marks a session store failure, as opposed to a
// missing or expired session.
var errSessionUnavailable = errors.New("session store unavailable")

// Cookies sets and clears cookies with the same attributes everywhere.
type Cookies struct {
	Domain     string
	TrustProxy bool
}

// oauthCookieParams groups values needed to set OAuth cookies (≤3 params rule).
type oauthCookieParams struct {
	State       string
	Nonce       string
	RedirectURI string
}

const oauthCookieMaxAge = 600 // 10 minutes

func (c Cookies) set(w http.ResponseWriter, r *http.Request, ck *http.Cookie) {
	ck.Path = "/"
	ck.Domain = c.Domain
	ck.HttpOnly = true
	ck.Secure = isSecureRequest(r, c.TrustProxy)
	ck.SameSite = http.SameSiteLaxMode
	http.SetCookie(w, ck)
}

// clear expires a cookie with the attributes it was set with.
func (c Cookies) clear(w http.ResponseWriter, r *http.Request, name string) {
	c.set(w, r, &http.Cookie{Name: name, MaxAge: -1, Expires: time.Unix(0, 0).UTC()})
}

func (c Cookies) setSession(w http.ResponseWriter, r *http.Request, s *domainauth.Session) {
	maxAge := int(time.Until(s.ExpiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	c.set(w, r, &http.Cookie{Name: SessionCookieName, Value: s.ID, MaxAge: maxAge})
}

func (c Cookies) setOAuth(w http.ResponseWriter, r *http.Request, p oauthCookieParams) {
	c.set(w, r, &http.Cookie{Name: stateCookieName, Value: p.State, MaxAge: oauthCookieMaxAge})
	c.set(w, r, &http.Cookie{Name: nonceCookieName, Value: p.Nonce, MaxAge: oauthCookieMaxAge})
	c.set(w, r, &http.Cookie{Name: postLoginCookieName, Value: p.RedirectURI, MaxAge: oauthCookieMaxAge})
}

// sessionLoader reads the session named by the request cookie.
type sessionLoader struct {
	auth    AuthServiceInterface
	cookies Cookies
	logger  *slog.Logger
}

// load returns the live session for r, or nil when there is none. A stale
// cookie is cleared. Store failures return errSessionUnavailable.
func (l sessionLoader) load(w http.ResponseWriter, r *http.Request) (*domainauth.Session, error) {
	ck, err := r.Cookie(SessionCookieName)
	if err != nil || ck.Value == "" {
		return nil, nil
	}
	sess, err := l.auth.GetSession(r.Context(), ck.Value)
	switch {
	case err == nil:
		return sess, nil
	case errors.Is(err, ports.ErrSessionNotFound), errors.Is(err, service.ErrSessionExpired):
		l.cookies.clear(w, r, SessionCookieName)
		return nil, nil
	default:
		LoggerFromContext(r.Context(), l.logger).ErrorContext(r.Context(), "session lookup failed", slog.Any("error", err))
		return nil, errors.Join(errSessionUnavailable, err)
	}
}

// invalidate deletes the request's session and clears its cookie. Used when
// the backend rejects the session token.
func (l sessionLoader) invalidate(w http.ResponseWriter, r *http.Request) {
	if ck, err := r.Cookie(SessionCookieName); err == nil && ck.Value != "" {
		if err := l.auth.Logout(r.Context(), ck.Value); err != nil {
			LoggerFromContext(r.Context(), l.logger).WarnContext(r.Context(), "session invalidation failed", slog.Any("error", err))
		}
	}
	l.cookies.clear(w, r, SessionCookieName)
}
