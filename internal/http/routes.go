package httpx

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"regexp"

	almacen "github.com/almacen/almacen-ui"
	"github.com/almacen/almacen-ui/internal/apiclient"
	"github.com/almacen/almacen-ui/internal/domain/routing"
	"github.com/almacen/almacen-ui/internal/observability/statsd"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth    AuthServiceInterface    // Required
	Catalog CatalogServiceInterface // Required
	// Routes defaults to routing.DefaultTable().
	Routes *routing.Table
	// API enables the /api pass-through when it carries a base origin.
	API            apiclient.Resolver
	CookieDomain   string
	TrustProxy     bool
	LoginRateLimit RateLimitConfig
	Metrics        statsd.Sink
	// Ready checks back /readyz; /healthz never consults them.
	Ready []HealthCheck
	IsDev bool // Development mode flag for hot reloading, etc.
	// TemplateFS overrides the template source (tests).
	TemplateFS fs.FS
	Logger     *slog.Logger // Logger for template and HTTP errors (optional)
}

// NewRouter creates and configures a new HTTP router with browser middleware.
func NewRouter(services RouterServices) (http.Handler, error) {
	if services.Auth == nil {
		return nil, errors.New("router requires an auth service")
	}
	if services.Catalog == nil {
		return nil, errors.New("router requires a catalog service")
	}
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	routes := services.Routes
	if routes == nil {
		routes = routing.DefaultTable()
	}
	cookies := Cookies{Domain: services.CookieDomain, TrustProxy: services.TrustProxy}

	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateSource(services),
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("template renderer: %w", err)
	}

	guard := NewGuard(GuardOptions{
		Routes:  routes,
		Auth:    services.Auth,
		Cookies: cookies,
		Metrics: services.Metrics,
		Logger:  logger,
	})
	ui := &UIHandlers{
		T:       tr,
		Guard:   guard,
		Catalog: services.Catalog,
		IsDev:   services.IsDev,
		Logger:  logger,
	}
	authHandlers := &AuthHandlers{
		Svc:     services.Auth,
		UI:      ui,
		Cookies: cookies,
		Limiter: NewKeyedLimiter(services.LoginRateLimit),
		Logger:  logger,
	}

	mux := http.NewServeMux()
	registerPageRoutes(mux, ui, pageHandlers(ui, authHandlers))
	registerAuthRoutes(mux, guard, authHandlers)
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readyHandler(services.Ready))

	// Static assets at /static
	// Dev mode: serve from disk for hot reloading
	// Prod mode: serve from embedded FS
	mux.Handle("GET /static/", staticHandler(services.IsDev, logger))

	if services.API.Configured() {
		proxy, err := NewAPIProxy(APIProxyOptions{
			Resolver: services.API,
			Auth:     services.Auth,
			Cookies:  cookies,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("api proxy: %w", err)
		}
		mux.Handle("/api/", proxy)
	}

	loader := sessionLoader{auth: services.Auth, cookies: cookies, logger: logger}
	mux.Handle("/", withOptionalSession(loader, http.HandlerFunc(ui.NotFound)))

	var handler http.Handler = mux
	handler = CSRFProtection(CSRFConfig{CookieDomain: services.CookieDomain, TrustProxy: services.TrustProxy})(handler)
	handler = BrowserDetection()(handler)
	handler = Recover(logger)(handler)
	handler = Logging(logger)(handler)
	handler = RequestID(logger)(handler)
	return handler, nil
}

// templateSource picks the template filesystem: an explicit override, the
// working tree in dev mode, or the embedded copy.
func templateSource(services RouterServices) fs.FS {
	if services.TemplateFS != nil {
		return services.TemplateFS
	}
	if services.IsDev {
		return os.DirFS(TemplatePathFromRoot)
	}
	sub, err := fs.Sub(almacen.TemplateFS, TemplatePathFromRoot)
	if err != nil {
		return os.DirFS(TemplatePathFromRoot)
	}
	return sub
}

// pageHandlers maps every route name in the table to its GET handler.
func pageHandlers(ui *UIHandlers, auth *AuthHandlers) map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		routing.NameLogin:             auth.LoginPage,
		routing.NameHome:              ui.Home,
		routing.NamePedidosRealizados: ui.Pedidos(routing.NamePedidosRealizados, apiclient.PedidoRealizado),
		routing.NamePedidosRecibidos:  ui.Pedidos(routing.NamePedidosRecibidos, apiclient.PedidoRecibido),
		routing.NameProductos:         ui.Productos,
		routing.NameProveedores:       ui.Proveedores,
		routing.NameSucursales:        ui.Sucursales,
		routing.NameUsuarios:          ui.Usuarios,
		routing.NameUsuariosGestion:   ui.UsuariosGestion,
		routing.NameUsuariosCrear:     ui.UsuariosCrearForm,
	}
}

// registerPageRoutes mounts one guarded GET per table route. Routes with a
// RedirectTo forward after the guard has run; any other route without a
// handler is a wiring mistake.
func registerPageRoutes(mux *http.ServeMux, ui *UIHandlers, handlers map[string]http.HandlerFunc) {
	guard := ui.Guard
	for _, route := range guard.Routes().Routes() {
		var h http.Handler
		switch {
		case route.RedirectTo != "":
			h = ui.Forward(route.Name)
		case handlers[route.Name] != nil:
			h = handlers[route.Name]
		default:
			panic(fmt.Sprintf("router: no handler for route %q", route.Name))
		}
		mux.Handle("GET "+muxPath(route.Path), guard.Protect(route.Name, h))
		if route.Path != "/" {
			mux.Handle("GET "+route.Path+"/{$}", trimTrailingSlash(route.Path))
		}
	}
}

// trimTrailingSlash sends "<path>/" to path, keeping the query, so the guard
// runs on the canonical route.
func trimTrailingSlash(path string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target := path
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusMovedPermanently)
	})
}

// muxPath anchors "/" so it matches only the root and not every path.
func muxPath(p string) string {
	if p == "/" {
		return "/{$}"
	}
	return p
}

func registerAuthRoutes(mux *http.ServeMux, guard *Guard, h *AuthHandlers) {
	routes := guard.Routes()
	mux.Handle("POST "+routes.PathOf(routing.NameLogin), guard.Protect(routing.NameLogin, http.HandlerFunc(h.LoginSubmit)))
	mux.Handle("POST "+routes.PathOf(routing.NameUsuariosCrear),
		guard.Protect(routing.NameUsuariosCrear, http.HandlerFunc(h.UI.UsuariosCrearSubmit)))
	mux.Handle("GET /auth/sso", http.HandlerFunc(h.SSOBegin))
	mux.Handle("GET /auth/callback", http.HandlerFunc(h.Callback))
	mux.Handle("GET /auth/session", http.HandlerFunc(h.Session))
	mux.Handle("POST /logout", http.HandlerFunc(h.Logout))
}

// withOptionalSession attaches the session when one exists so unguarded
// pages can still render the signed-in layout. Store failures are ignored.
func withOptionalSession(loader sessionLoader, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := loader.load(w, r)
		if err != nil || sess == nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), sess)))
	})
}

// staticHandler serves /static/* assets from disk in dev mode and from the
// embedded FS otherwise.
func staticHandler(isDev bool, logger *slog.Logger) http.Handler {
	if isDev {
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir(StaticPathFromRoot))))
	}
	staticSub, err := fs.Sub(almacen.StaticFS, StaticPathFromRoot)
	if err != nil {
		logger.Error("failed to create sub-filesystem for static assets", slog.Any("error", err))
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir(StaticPathFromRoot))))
	}
	return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))
}

// hashedFilePattern matches content-hashed filenames (app.abc123ef.js, styles.def45678.css.map).
var hashedFilePattern = regexp.MustCompile(`\.[a-f0-9]{8}\.(?:js|css)(?:\.map)?$`)

// staticWithCacheHeaders wraps a static file handler to add appropriate cache headers.
func staticWithCacheHeaders(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hashedFilePattern.MatchString(r.URL.Path) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}
		handler.ServeHTTP(w, r)
	})
}
