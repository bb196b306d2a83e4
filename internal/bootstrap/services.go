package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/almacen/almacen-ui/config"
	"github.com/almacen/almacen-ui/internal/apiclient"
	"github.com/almacen/almacen-ui/internal/observability/statsd"
	"github.com/almacen/almacen-ui/internal/service"
)

// backendTimeout bounds a single request to the Almacen backend.
const backendTimeout = 15 * time.Second

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth     *service.AuthService
	Catalog  *service.CatalogService
	API      *apiclient.Client
	Sessions SessionBackend
	Metrics  statsd.Sink
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	RedisClient redis.UniversalClient // nil when SESSION_STORE=memory
	Logger      *slog.Logger
}

// NewServices builds the metrics sink, backend client, session store and the
// services on top of them.
func NewServices(ctx context.Context, deps *ServiceDeps) (*ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return nil, errors.New("service dependencies require a config")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sink, err := NewMetricsSink(cfg.Observability.Metrics, logger)
	if err != nil {
		return nil, err
	}

	api := apiclient.New(apiclient.Options{
		BaseURL:    cfg.API.BaseURL,
		HTTPClient: &http.Client{Timeout: backendTimeout},
		Metrics:    sink,
		Logger:     logger,
	})
	if !cfg.API.HasBaseURL() {
		logger.Warn("API_BASE_URL not set; backend calls to /api paths will fail")
	}

	sessions, err := BuildSessionStore(cfg.Session, deps.RedisClient)
	if err != nil {
		return nil, err
	}

	auth, err := BuildAuthService(ctx, AuthConfig{
		Auth:     cfg.Auth,
		API:      cfg.API,
		Client:   api,
		Sessions: sessions,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build auth service: %w", err)
	}

	return &ServiceContainer{
		Auth:     auth,
		Catalog:  service.NewCatalogService(service.CatalogServiceOptions{API: api, Logger: logger}),
		API:      api,
		Sessions: sessions,
		Metrics:  sink,
	}, nil
}

// NewMetricsSink returns a StatsD client when metrics are enabled and a no-op
// sink otherwise.
//
//nolint:ireturn // callers depend on the Sink interface.
func NewMetricsSink(cfg config.ObservabilityMetricsConfig, logger *slog.Logger) (statsd.Sink, error) {
	sink, err := statsd.New(statsd.Config{
		Enabled: cfg.IsEnabled(),
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	if cfg.IsEnabled() {
		logger.Info("statsd metrics enabled", "addr", cfg.StatsdAddress, "prefix", cfg.Prefix)
	}
	return sink, nil
}

// Close releases resources owned by the container.
func (c *ServiceContainer) Close() error {
	if c == nil {
		return nil
	}
	if closer, ok := c.Metrics.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
