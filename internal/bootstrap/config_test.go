package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almacen/almacen-ui/config"
)

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("AUTH_MODE", "mock")
	t.Setenv("API_BASE_URL", " https://api.almacen.test/ ")
	t.Setenv("SESSION_STORE", "memory")
	t.Setenv("HTTP_ADDR", ":9090")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.AuthModeMock, cfg.Auth.Mode)
	assert.Equal(t, "https://api.almacen.test", cfg.API.BaseURL)
	assert.Equal(t, config.SessionStoreMemory, cfg.Session.Store)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "/api/auth/login", cfg.API.LoginPath)
}

func TestLoadConfig_InvalidMode(t *testing.T) {
	t.Setenv("AUTH_MODE", "kerberos")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.AppConfig
		wantErr bool
	}{
		{name: "nil", cfg: nil, wantErr: true},
		{
			name: "api mode with base",
			cfg: &config.AppConfig{
				API:  config.APIConfig{BaseURL: "https://api.almacen.test"},
				Auth: config.AuthConfig{Mode: config.AuthModeAPI},
			},
		},
		{
			name:    "api mode without base",
			cfg:     &config.AppConfig{Auth: config.AuthConfig{Mode: config.AuthModeAPI}},
			wantErr: true,
		},
		{
			name:    "oauth without discovery",
			cfg:     &config.AppConfig{Auth: config.AuthConfig{Mode: config.AuthModeOAuth}},
			wantErr: true,
		},
		{
			name: "mock without base",
			cfg:  &config.AppConfig{Auth: config.AuthConfig{Mode: config.AuthModeMock}},
		},
		{
			name: "public suffix cookie domain",
			cfg: &config.AppConfig{
				Auth: config.AuthConfig{Mode: config.AuthModeMock},
				HTTP: config.HTTPConfig{CookieDomain: "co.uk"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
