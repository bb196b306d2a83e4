package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almacen/almacen-ui/config"
)

func memoryAppConfig() *config.AppConfig {
	cfg := &config.AppConfig{
		API:     defaultAPIConfig(),
		Auth:    defaultAuthConfig(),
		Session: config.SessionConfig{Store: config.SessionStoreMemory},
		HTTP:    config.HTTPConfig{Addr: "127.0.0.1:0"},
	}
	cfg.Sanitize()
	return cfg
}

func TestNewServices_MemoryStore(t *testing.T) {
	services, err := NewServices(context.Background(), &ServiceDeps{Config: memoryAppConfig(), Logger: discardLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = services.Close() })

	assert.NotNil(t, services.Auth)
	assert.NotNil(t, services.Catalog)
	assert.True(t, services.API.Resolver().Configured())
	assert.True(t, services.Auth.SupportsPassword())
}

func TestNewServices_RedisStoreNeedsClient(t *testing.T) {
	cfg := memoryAppConfig()
	cfg.Session.Store = config.SessionStoreRedis

	_, err := NewServices(context.Background(), &ServiceDeps{Config: cfg, Logger: discardLogger()})
	assert.ErrorIs(t, err, ErrRedisRequired)
}

func TestBuildHTTPHandler_ServesHealthAndLogin(t *testing.T) {
	cfg := memoryAppConfig()
	services, err := NewServices(context.Background(), &ServiceDeps{Config: cfg, Logger: discardLogger()})
	require.NoError(t, err)

	h, err := BuildHTTPHandler(&HTTPServerConfig{Config: cfg, Services: services, Logger: discardLogger()})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="password"`)
}

func TestBuildHTTPHandler_ReadinessReportsRedis(t *testing.T) {
	cfg := memoryAppConfig()
	services, err := NewServices(context.Background(), &ServiceDeps{Config: cfg, Logger: discardLogger()})
	require.NoError(t, err)

	// Nothing listens on port 1, so the ping fails fast.
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	h, err := BuildHTTPHandler(&HTTPServerConfig{Config: cfg, Services: services, RedisClient: client, Logger: discardLogger()})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis")
}

func TestBuildHTTPHandler_RequiresServices(t *testing.T) {
	_, err := BuildHTTPHandler(&HTTPServerConfig{})
	assert.Error(t, err)
}

func TestServeWithShutdown_StopsOnCancel(t *testing.T) {
	server := NewHTTPServer("127.0.0.1:0", http.NotFoundHandler())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- ServeWithShutdown(ctx, server, discardLogger()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestNewHTTPServer_DefaultAddr(t *testing.T) {
	assert.Equal(t, ":8080", NewHTTPServer("", http.NotFoundHandler()).Addr)
}
