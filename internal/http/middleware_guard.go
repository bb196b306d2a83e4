package httpx

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	domainauth "github.com/almacen/almacen-ui/internal/domain/auth"
	"github.com/almacen/almacen-ui/internal/domain/routing"
	"github.com/almacen/almacen-ui/internal/observability/metrics"
	"github.com/almacen/almacen-ui/internal/observability/statsd"
)

// GuardOptions groups dependencies for Guard.
type GuardOptions struct {
	Routes  *routing.Table       // Required
	Auth    AuthServiceInterface // Required
	Cookies Cookies
	Metrics statsd.Sink
	Logger  *slog.Logger
}

// Guard runs the navigation guard in front of page handlers.
type Guard struct {
	routes   *routing.Table
	sessions sessionLoader
	metrics  statsd.Sink
}

func NewGuard(opts GuardOptions) *Guard {
	if opts.Routes == nil {
		panic("Guard requires a route table")
	}
	if opts.Auth == nil {
		panic("Guard requires an auth service")
	}
	sink := opts.Metrics
	if sink == nil {
		sink = statsd.Noop{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		routes:   opts.Routes,
		sessions: sessionLoader{auth: opts.Auth, cookies: opts.Cookies, logger: logger},
		metrics:  sink,
	}
}

// Protect wraps next with the guard for the named route. The session found
// for the request is placed in its context. Unknown names panic, since they
// are a wiring mistake.
func (g *Guard) Protect(name string, next http.Handler) http.Handler {
	route, ok := g.routes.ByName(name)
	if !ok {
		panic(fmt.Sprintf("guard: unknown route %q", name))
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := g.sessions.load(w, r)
		if err != nil {
			writeUnavailable(w, r)
			return
		}

		var state domainauth.State
		if sess != nil {
			state = sess.State()
		}
		d := routing.Evaluate(route, state)
		metrics.EmitGuardDecision(g.metrics, metrics.GuardMetric{Route: route.Name, Outcome: d.Outcome.String()})

		switch d.Outcome {
		case routing.Proceed:
			next.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), sess)))
		case routing.RedirectLogin:
			if !IsBrowserRequest(r) {
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: "authentication_required",
					Err:     errors.New("authentication required"),
				})
				return
			}
			Redirect(w, r, loginRedirectURL(g.routes.PathOf(routing.NameLogin), r))
		default:
			if !IsBrowserRequest(r) && !route.IsLogin() {
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: "insufficient_permissions",
					Err:     errors.New("insufficient permissions"),
				})
				return
			}
			Redirect(w, r, g.routes.PathOf(d.Target))
		}
	})
}

// Routes exposes the table the guard evaluates against.
func (g *Guard) Routes() *routing.Table { return g.routes }

// Invalidate drops the request's session after the backend rejected its token.
func (g *Guard) Invalidate(w http.ResponseWriter, r *http.Request) {
	g.sessions.invalidate(w, r)
}

func writeUnavailable(w http.ResponseWriter, r *http.Request) {
	if IsBrowserRequest(r) {
		http.Error(w, "Servicio no disponible", http.StatusServiceUnavailable)
		return
	}
	WriteError(w, ErrorParams{
		Code:    http.StatusServiceUnavailable,
		ErrCode: "session_unavailable",
		Err:     errSessionUnavailable,
	})
}
