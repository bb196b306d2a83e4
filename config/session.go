package config

import (
	"fmt"
	"strings"
)

// SessionStoreKind selects the session storage backend.
type SessionStoreKind string

const (
	SessionStoreRedis  SessionStoreKind = "redis"
	SessionStoreMemory SessionStoreKind = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for SessionStoreKind.
func (k *SessionStoreKind) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "redis", "memory":
		*k = SessionStoreKind(v)
		return nil
	default:
		return fmt.Errorf("invalid SessionStoreKind: %q (valid options: redis, memory)", v)
	}
}

// SessionConfig controls where sessions live.
type SessionConfig struct {
	Store SessionStoreKind `env:"SESSION_STORE" envDefault:"redis"`
}

// Sanitize applies the default store.
func (c *SessionConfig) Sanitize() {
	if c.Store == "" {
		c.Store = SessionStoreRedis
	}
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}
