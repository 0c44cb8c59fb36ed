package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/botivate/systems-dashboard/config"
	"github.com/botivate/systems-dashboard/internal/adapters/memory"
	"github.com/botivate/systems-dashboard/internal/adapters/redis"
	"github.com/botivate/systems-dashboard/internal/data"
	"github.com/botivate/systems-dashboard/internal/ports"
)

// expiredPurger deletes persisted sessions whose TTL has passed.
type expiredPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Storage is the session store selected by SESSION_BACKEND together with
// the connections it owns.
type Storage struct {
	Backend config.StorageBackend
	Tabs    ports.TabStorage

	purger        expiredPurger
	purgeInterval time.Duration
	closers       []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

// StorageDeps groups inputs for BuildStorage. DB and Redis override the
// connections normally opened from Config, for tests.
type StorageDeps struct {
	Config *config.AppConfig
	DB     *sql.DB
	Redis  goredis.UniversalClient
	Logger *slog.Logger
}

// BuildStorage connects the configured backend, running migrations first
// when Postgres is selected and RunMigrationsOnStart is set.
func BuildStorage(ctx context.Context, deps StorageDeps) (*Storage, error) {
	if deps.Config == nil {
		return nil, errors.New("storage config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config
	st := &Storage{Backend: cfg.Session.Backend, purgeInterval: cfg.Session.PurgeInterval}

	switch cfg.Session.Backend {
	case config.StorageRedis:
		client := deps.Redis
		if client == nil {
			var err error
			if client, err = ConnectRedis(ctx, cfg.Redis, logger); err != nil {
				return nil, fmt.Errorf("connect redis: %w", err)
			}
			st.closers = append(st.closers, namedCloser{name: "redis", close: client.Close})
		}
		st.Tabs = redis.NewTabStorage(redis.TabStorageOptions{Client: client, TTL: cfg.Session.TTL})

	case config.StoragePostgres:
		db := deps.DB
		if db == nil {
			var err error
			if db, err = ConnectDB(ctx, cfg.Postgres, logger); err != nil {
				return nil, fmt.Errorf("connect db: %w", err)
			}
			st.closers = append(st.closers, namedCloser{name: "database", close: db.Close})
		}
		if cfg.Postgres.RunMigrationsOnStart {
			if err := RunMigrations(ctx, db, logger); err != nil {
				return nil, errors.Join(err, st.Close())
			}
		} else {
			logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
		}
		repo := data.NewTabStorageRepo(db, cfg.Session.TTL)
		st.Tabs = repo
		if cfg.Session.TTL > 0 {
			st.purger = repo
		}

	default:
		st.Tabs = memory.NewTabStorage(memory.TabStorageOptions{TTL: cfg.Session.TTL})
	}

	logger.InfoContext(ctx, "session storage ready", "backend", string(st.Backend), "ttl", cfg.Session.TTL)
	return st, nil
}

// RunPurge deletes expired sessions every purge interval until ctx is
// canceled. Backends that expire entries themselves return immediately.
func (s *Storage) RunPurge(ctx context.Context, logger *slog.Logger) error {
	if s == nil || s.purger == nil {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	ticker := time.NewTicker(s.purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := s.purger.PurgeExpired(ctx)
			switch {
			case err != nil && ctx.Err() == nil:
				logger.WarnContext(ctx, "purge expired sessions failed", "error", err)
			case n > 0:
				logger.InfoContext(ctx, "purged expired sessions", "count", n)
			}
		}
	}
}

// Close releases connections opened by BuildStorage.
func (s *Storage) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		c := s.closers[i]
		if err := c.close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
