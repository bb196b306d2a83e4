package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	domainauth "github.com/almacen/almacen-ui/internal/domain/auth"
	"github.com/almacen/almacen-ui/internal/domain/routing"
	apperrors "github.com/almacen/almacen-ui/internal/errors"
	"github.com/almacen/almacen-ui/internal/service"
)

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc     AuthServiceInterface
	UI      *UIHandlers
	Cookies Cookies
	// Limiter bounds password attempts per client IP; nil disables it.
	Limiter *KeyedLimiter
	Logger  *slog.Logger
}

func (h *AuthHandlers) logger(r *http.Request) *slog.Logger {
	var fallback *slog.Logger
	if h != nil {
		fallback = h.Logger
	}
	return LoggerFromContext(r.Context(), fallback)
}

// loginView is what the login page renders with.
type loginView struct {
	Status      int
	Error       string
	Username    string
	RedirectURI string
}

// LoginPage renders the login form.
// GET /login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, loginView{RedirectURI: safeRedirectPath(r.URL.Query().Get("redirect_uri"))})
}

func (h *AuthHandlers) renderLogin(w http.ResponseWriter, r *http.Request, v loginView) {
	route, _ := h.UI.Guard.Routes().ByName(routing.NameLogin)
	data := h.UI.basePageData(r, metaFor(route))
	data["PasswordEnabled"] = h.Svc.SupportsPassword()
	data["SSOEnabled"] = h.Svc.SupportsRedirect()
	data["Error"] = v.Error
	data["Username"] = v.Username
	data["RedirectURI"] = v.RedirectURI
	data["LoginPath"] = route.Path
	h.UI.render(w, r, view{Status: v.Status, Data: data})
}

const ssoFailedText = "No se pudo completar el inicio de sesión. Intente nuevamente."

// loginRequest is the JSON body accepted by POST /login.
type loginRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	RedirectURI string `json:"redirect_uri,omitempty"`
}

// LoginSubmit checks credentials against the backend and starts a session.
// POST /login (form or JSON).
func (h *AuthHandlers) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	wantsJSON := strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")

	var in loginRequest
	if wantsJSON {
		if !DecodeJSON(w, r, &in) {
			return
		}
	} else {
		in = loginRequest{
			Username:    r.PostFormValue("username"),
			Password:    r.PostFormValue("password"),
			RedirectURI: r.PostFormValue("redirect_uri"),
		}
	}
	in.Username = strings.TrimSpace(in.Username)
	redirectURI := safeRedirectPath(in.RedirectURI)

	fail := func(err error) {
		if wantsJSON {
			WriteAppError(w, err)
			return
		}
		h.renderLogin(w, r, loginView{
			Status:      apperrors.HTTPStatus(err),
			Error:       userMessage(err),
			Username:    in.Username,
			RedirectURI: redirectURI,
		})
	}

	if !h.Svc.SupportsPassword() {
		fail(apperrors.Validation("el inicio de sesión con contraseña no está habilitado"))
		return
	}
	if h.Limiter != nil {
		if ok, delay := h.Limiter.Allow(clientIP(r, h.Cookies.TrustProxy)); !ok {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(delay)))
			h.logger(r).WarnContext(r.Context(), "login rate limit exceeded", slog.String("username", in.Username))
			fail(apperrors.New(apperrors.ErrCodeRateLimited, "demasiados intentos, espere e intente nuevamente"))
			return
		}
	}

	sess, err := h.Svc.LoginWithPassword(r.Context(), in.Username, in.Password)
	if err != nil {
		if !apperrors.IsUnauthorized(err) && !apperrors.IsValidation(err) {
			h.logger(r).ErrorContext(r.Context(), "password login failed", slog.Any("error", err))
		}
		fail(err)
		return
	}

	h.Cookies.setSession(w, r, sess)
	h.logger(r).InfoContext(r.Context(), "login", slog.String("user_id", sess.UserID), slog.String("role", string(sess.Role)))
	if wantsJSON {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "success", "redirect_to": redirectURI})
		return
	}
	Redirect(w, r, redirectURI)
}

// SSOBegin starts the redirect login flow.
// GET /auth/sso?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) SSOBegin(w http.ResponseWriter, r *http.Request) {
	if !h.Svc.SupportsRedirect() {
		h.UI.NotFound(w, r)
		return
	}
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))

	result, err := h.Svc.BeginLogin(r.Context(), redirectURI)
	if err != nil {
		h.logger(r).ErrorContext(r.Context(), "begin login failed", slog.Any("error", err))
		h.renderLogin(w, r, loginView{
			Status:      http.StatusBadGateway,
			Error:       ssoFailedText,
			RedirectURI: redirectURI,
		})
		return
	}

	h.Cookies.setOAuth(w, r, oauthCookieParams{State: result.State, Nonce: result.Nonce, RedirectURI: redirectURI})
	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback completes the redirect login flow.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code, state := q.Get("code"), q.Get("state")

	var err error
	switch {
	case q.Get("error") != "":
		err = errors.New("provider returned error: " + q.Get("error"))
	case code == "":
		err = errors.New("authorization code is required")
	case state == "":
		err = errors.New("state parameter is required")
	}

	var nonce string
	if err == nil {
		stateCookie, cerr := r.Cookie(stateCookieName)
		nonceCookie, nerr := r.Cookie(nonceCookieName)
		switch {
		case cerr != nil || stateCookie.Value != state:
			err = errors.New("invalid or missing state parameter")
		case nerr != nil || nonceCookie.Value == "":
			err = errors.New("missing nonce")
		default:
			nonce = nonceCookie.Value
		}
	}

	var sess *domainauth.Session
	if err == nil {
		sess, err = h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{Code: code, State: state, Nonce: nonce})
	}

	h.Cookies.clear(w, r, stateCookieName)
	h.Cookies.clear(w, r, nonceCookieName)
	redirectURI := h.postLoginRedirect(w, r)

	if err != nil {
		h.logger(r).WarnContext(r.Context(), "login callback failed", slog.Any("error", err))
		h.renderLogin(w, r, loginView{
			Status:      http.StatusBadRequest,
			Error:       ssoFailedText,
			RedirectURI: redirectURI,
		})
		return
	}

	h.Cookies.setSession(w, r, sess)
	h.logger(r).InfoContext(r.Context(), "login", slog.String("user_id", sess.UserID), slog.String("role", string(sess.Role)))
	http.Redirect(w, r, redirectURI, http.StatusFound)
}

// postLoginRedirect returns the stored post-login destination and clears the cookie.
func (h *AuthHandlers) postLoginRedirect(w http.ResponseWriter, r *http.Request) string {
	ck, err := r.Cookie(postLoginCookieName)
	if err != nil {
		return "/"
	}
	h.Cookies.clear(w, r, postLoginCookieName)
	return safeRedirectPath(ck.Value)
}

// Logout ends the session.
// POST /logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if ck, err := r.Cookie(SessionCookieName); err == nil {
		if logoutErr := h.Svc.Logout(r.Context(), ck.Value); logoutErr != nil {
			h.logger(r).WarnContext(r.Context(), "logout failed", slog.Any("error", logoutErr))
		}
	}
	h.Cookies.clear(w, r, SessionCookieName)

	loginPath := h.UI.Guard.Routes().PathOf(routing.NameLogin)
	isAJAX := strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
	if isAJAX && !IsHTMX(r) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "success", "redirect_to": loginPath})
		return
	}
	Redirect(w, r, loginPath)
}

// Session reports the current session without exposing the token.
// GET /auth/session.
func (h *AuthHandlers) Session(w http.ResponseWriter, r *http.Request) {
	loader := sessionLoader{auth: h.Svc, cookies: h.Cookies, logger: h.Logger}
	sess, err := loader.load(w, r)
	if err != nil {
		writeUnavailable(w, r)
		return
	}
	if sess == nil {
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": map[string]any{
			"id":    sess.UserID,
			"name":  sess.DisplayName(),
			"email": sess.Email,
			"role":  sess.Role,
		},
		"is_general_admin": sess.Role.IsGeneralAdmin(),
		"expires_at":       sess.ExpiresAt,
	})
}
