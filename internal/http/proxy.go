package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/almacen/almacen-ui/internal/apiclient"
)

// APIProxyOptions groups dependencies for the /api pass-through.
type APIProxyOptions struct {
	Resolver apiclient.Resolver   // Required; must have a base origin
	Auth     AuthServiceInterface // Required
	Cookies  Cookies
	Logger   *slog.Logger
}

// ErrNoAPIBase is returned when the proxy is built without a base origin.
var ErrNoAPIBase = errors.New("api proxy requires a base origin")

// NewAPIProxy forwards /api requests to the backend origin. The browser's
// cookies and Authorization header are dropped; the session's token is
// applied through the request options builder instead.
func NewAPIProxy(opts APIProxyOptions) (http.Handler, error) {
	if !opts.Resolver.Configured() {
		return nil, ErrNoAPIBase
	}
	if opts.Auth == nil {
		panic("API proxy requires an auth service")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loader := sessionLoader{auth: opts.Auth, cookies: opts.Cookies, logger: logger}
	resolver := opts.Resolver

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			target, err := url.Parse(resolver.Resolve(pr.In.URL.EscapedPath()))
			if err != nil {
				return
			}
			pr.Out.URL.Scheme = target.Scheme
			pr.Out.URL.Host = target.Host
			pr.Out.URL.Path = target.Path
			pr.Out.URL.RawPath = target.RawPath
			pr.Out.URL.RawQuery = pr.In.URL.RawQuery
			pr.Out.Host = target.Host

			pr.Out.Header.Del("Cookie")
			pr.Out.Header.Del("Authorization")
			apiclient.BuildRequestOptions(StateFromContext(pr.In.Context())).Apply(pr.Out)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			LoggerFromContext(r.Context(), logger).ErrorContext(r.Context(), "api proxy failed",
				slog.String("path", r.URL.Path),
				slog.Any("error", err),
			)
			WriteError(w, ErrorParams{
				Code:    http.StatusBadGateway,
				ErrCode: "backend_unavailable",
				Err:     errors.New("backend unavailable"),
			})
		},
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := loader.load(w, r)
		if err != nil {
			writeUnavailable(w, r)
			return
		}
		rp.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), sess)))
	}), nil
}
