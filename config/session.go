package config

import (
	"fmt"
	"strings"
	"time"
)

// StorageBackend selects where tab sessions are persisted.
type StorageBackend string

const (
	// StorageMemory keeps sessions in process; they are lost on restart.
	StorageMemory StorageBackend = "memory"
	// StorageRedis stores sessions in Redis with a TTL.
	StorageRedis StorageBackend = "redis"
	// StoragePostgres stores sessions in the tab_storage table.
	StoragePostgres StorageBackend = "postgres"
)

// UnmarshalText implements encoding.TextUnmarshaler for StorageBackend.
func (b *StorageBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "memory", "redis", "postgres":
		*b = StorageBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid StorageBackend: %q (valid options: memory, redis, postgres)", v)
	}
}

// SessionConfig controls how long tabs and their sessions live.
type SessionConfig struct {
	Backend StorageBackend `env:"BACKEND" envDefault:"memory"`
	// TTL is how long a persisted session survives without activity.
	// Zero keeps sessions until logout.
	TTL time.Duration `env:"TTL" envDefault:"12h"`
	// TabIdleTTL is how long an unused tab stays in memory before it is
	// evicted; its persisted session is kept.
	TabIdleTTL time.Duration `env:"TAB_IDLE_TTL" envDefault:"30m"`
	// MaxTabs caps the tabs held in memory; the least recently used one is
	// evicted when a new tab would exceed it.
	MaxTabs int `env:"MAX_TABS" envDefault:"10000"`
	// PurgeInterval is how often expired rows are deleted from Postgres.
	PurgeInterval time.Duration `env:"PURGE_INTERVAL" envDefault:"10m"`
}

// Sanitize applies guardrails to session configuration values.
func (c *SessionConfig) Sanitize() {
	if c.Backend == "" {
		c.Backend = StorageMemory
	}
	if c.TTL < 0 {
		c.TTL = 0
	}
	if c.TabIdleTTL <= 0 {
		c.TabIdleTTL = 30 * time.Minute
	}
	if c.MaxTabs <= 0 {
		c.MaxTabs = 10000
	}
	if c.PurgeInterval < time.Minute {
		c.PurgeInterval = time.Minute
	}
}
