package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/almacen/almacen-ui/config"
	httpx "github.com/almacen/almacen-ui/internal/http"
)

const shutdownWaitTimeout = 10 * time.Second

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config      *config.AppConfig
	Services    *ServiceContainer
	RedisClient redis.UniversalClient // optional; adds a readiness check
	Logger      *slog.Logger
}

// BuildHTTPHandler assembles the router for the configured services.
func BuildHTTPHandler(cfg *HTTPServerConfig) (http.Handler, error) {
	if cfg == nil || cfg.Services == nil {
		return nil, errors.New("http server requires services")
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var ready []httpx.HealthCheck
	if cfg.RedisClient != nil {
		ready = append(ready, RedisHealthCheck(cfg.RedisClient))
	}

	rl := appCfg.Auth.LoginRateLimit
	return httpx.NewRouter(httpx.RouterServices{
		Auth:         cfg.Services.Auth,
		Catalog:      cfg.Services.Catalog,
		API:          cfg.Services.API.Resolver(),
		CookieDomain: appCfg.HTTP.CookieDomain,
		TrustProxy:   appCfg.HTTP.TrustProxy,
		LoginRateLimit: httpx.RateLimitConfig{
			RequestsPerWindow: rl.Requests,
			Window:            rl.Window,
			Burst:             rl.Burst,
		},
		Metrics: cfg.Services.Metrics,
		Ready:   ready,
		IsDev:   appCfg.IsDev,
		Logger:  logger,
	})
}

// RedisHealthCheck pings Redis for /readyz.
func RedisHealthCheck(client redis.UniversalClient) httpx.HealthCheck {
	return httpx.HealthCheck{
		Name: "redis",
		Check: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}

// NewHTTPServer wraps handler in a server with the standard timeouts.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// ServeWithShutdown runs server until ctx is cancelled or it fails, then
// drains in-flight requests.
func ServeWithShutdown(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownWaitTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		logger.Info("HTTP server stopped")
		return nil
	})

	return g.Wait()
}
