package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/botivate/systems-dashboard/config"
	"github.com/botivate/systems-dashboard/internal/bootstrap"
	"github.com/botivate/systems-dashboard/internal/data"
	"github.com/botivate/systems-dashboard/internal/service"
)

// sessionKeyPattern matches the keys written by the Redis session backend.
const sessionKeyPattern = "tab:*:" + service.SessionKey

type migrateOptions struct {
	Timeout time.Duration
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	var opts migrateOptions
	fs.DurationVar(&opts.Timeout, "timeout", 5*time.Minute, "Maximum time to wait for migrations")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.Timeout <= 0 {
		return opts, errors.New("--timeout must be positive")
	}
	return opts, nil
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(ctx, cmdCtx.Config.Postgres, cmdCtx.Logger)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()
	return bootstrap.RunMigrations(ctx, db, cmdCtx.Logger)
}

func runPurgeSessions(cmdCtx *commandContext, _ []string) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(ctx, cmdCtx.Config.Postgres, cmdCtx.Logger)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	n, err := data.NewTabStorageRepo(db, cmdCtx.Config.Session.TTL).PurgeExpired(ctx)
	if err != nil {
		return err
	}
	return writef(cmdCtx.Out, "Purged %d expired session(s)\n", n)
}

type listSessionsOptions struct {
	Limit int
}

func parseListSessionsFlags(args []string) (listSessionsOptions, error) {
	fs := flag.NewFlagSet("list-sessions", flag.ContinueOnError)
	var opts listSessionsOptions
	fs.IntVar(&opts.Limit, "limit", 100, "Maximum number of sessions to print (0 for all)")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.Limit < 0 {
		return opts, errors.New("--limit must not be negative")
	}
	return opts, nil
}

type sessionRow struct {
	TabID string
	TTL   time.Duration
	Err   error
}

func runListSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseListSessionsFlags(args)
	if err != nil {
		return err
	}
	if cmdCtx.Config.Session.Backend != config.StorageRedis {
		return fmt.Errorf("list-sessions needs SESSION_BACKEND=redis, got %q", cmdCtx.Config.Session.Backend)
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	client, err := bootstrap.ConnectRedis(ctx, cmdCtx.Config.Redis, cmdCtx.Logger)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", closeErr)
		}
	}()

	rows, err := scanSessions(ctx, client, opts.Limit)
	if err != nil {
		return err
	}
	return renderSessions(cmdCtx.Out, rows)
}

func scanSessions(ctx context.Context, client redis.UniversalClient, limit int) ([]sessionRow, error) {
	var rows []sessionRow
	iter := client.Scan(ctx, 0, sessionKeyPattern, 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		ttl, err := client.TTL(ctx, key).Result()
		rows = append(rows, sessionRow{TabID: tabIDFromKey(key), TTL: ttl, Err: err})
		if limit > 0 && len(rows) >= limit {
			break
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return rows, nil
}

func tabIDFromKey(key string) string {
	return strings.TrimSuffix(strings.TrimPrefix(key, "tab:"), ":"+service.SessionKey)
}

func renderSessions(w io.Writer, rows []sessionRow) error {
	if len(rows) == 0 {
		return writeln(w, "(no sessions found)")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "TAB\tEXPIRES IN\n"); err != nil {
		return err
	}
	for _, r := range rows {
		if err := writef(tw, "%s\t%s\n", r.TabID, formatTTL(r.TTL, r.Err)); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writef(w, "\nTotal sessions: %d\n", len(rows))
}

// formatTTL renders go-redis TTL results, where -1 means no expiry.
func formatTTL(ttl time.Duration, err error) string {
	switch {
	case err != nil:
		return "error: " + err.Error()
	case ttl == -1:
		return "never"
	case ttl < 0:
		return "expired"
	default:
		return ttl.Truncate(time.Second).String()
	}
}

type clearSessionOptions struct {
	TabID string
}

func parseClearSessionFlags(args []string) (clearSessionOptions, error) {
	fs := flag.NewFlagSet("clear-session", flag.ContinueOnError)
	var opts clearSessionOptions
	fs.StringVar(&opts.TabID, "tab", "", "Tab id whose session should be removed")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.TabID = strings.TrimSpace(opts.TabID)
	if opts.TabID == "" {
		return opts, errors.New("--tab is required")
	}
	return opts, nil
}

func runClearSession(cmdCtx *commandContext, args []string) error {
	opts, err := parseClearSessionFlags(args)
	if err != nil {
		return err
	}
	if cmdCtx.Config.Session.Backend == config.StorageMemory {
		return errors.New("the memory backend keeps sessions inside the server process")
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	cfg := cmdCtx.Config
	cfg.Postgres.RunMigrationsOnStart = false
	storage, err := bootstrap.BuildStorage(ctx, bootstrap.StorageDeps{Config: &cfg, Logger: cmdCtx.Logger})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := storage.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("storage close failed", "error", closeErr)
		}
	}()

	if err := storage.Tabs.Delete(ctx, opts.TabID, service.SessionKey); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return writef(cmdCtx.Out, "Cleared session for tab %s\n", opts.TabID)
}
