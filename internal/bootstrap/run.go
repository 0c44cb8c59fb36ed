package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"golang.org/x/sync/errgroup"

	"github.com/botivate/systems-dashboard/config"
)

// backgroundService is a long-running component stopped by canceling ctx.
type backgroundService struct {
	name  string
	start func(ctx context.Context) error
}

// RunConfig contains everything Run needs.
type RunConfig struct {
	Config *config.AppConfig
	Logger *slog.Logger
	// Listener overrides listening on Config.HTTP.Addr, for tests.
	Listener net.Listener
	// StorageDeps overrides connection setup, for tests. Its Config and
	// Logger are filled in from this struct.
	StorageDeps StorageDeps
	// ServiceDeps overrides the catalog source, for tests.
	ServiceDeps ServiceDeps
}

// Run starts the dashboard and blocks until ctx is canceled or a component
// fails. Every component is stopped before Run returns.
func Run(ctx context.Context, rc RunConfig) error {
	if rc.Config == nil {
		return errors.New("run config is required")
	}
	logger := rc.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := rc.Config

	sd := rc.StorageDeps
	sd.Config, sd.Logger = cfg, logger
	storage, err := BuildStorage(ctx, sd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("close storage failed", "error", cerr)
		}
	}()

	svd := rc.ServiceDeps
	svd.Config, svd.Storage, svd.Logger = cfg, storage.Tabs, logger
	services, err := NewServices(svd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := services.Close(); cerr != nil {
			logger.Error("close services failed", "error", cerr)
		}
	}()

	srv, err := NewHTTPServer(HTTPServerConfig{Config: cfg, Services: services, Logger: logger})
	if err != nil {
		return err
	}

	ln := rc.Listener
	if ln == nil {
		if ln, err = net.Listen("tcp", srv.Addr); err != nil {
			return fmt.Errorf("listen %s: %w", srv.Addr, err)
		}
	}

	background := []backgroundService{
		{name: "http server", start: func(ctx context.Context) error {
			return serveHTTP(ctx, srv, ln, cfg.HTTP.ShutdownTimeout, logger)
		}},
		{name: "tab sweeper", start: services.Tabs.Run},
		{name: "session purge", start: func(ctx context.Context) error {
			return storage.RunPurge(ctx, logger)
		}},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, svc := range background {
		g.Go(func() error {
			if serr := svc.start(gctx); serr != nil {
				return fmt.Errorf("%s failed: %w", svc.name, serr)
			}
			logger.Info(svc.name + " stopped")
			return nil
		})
	}
	logger.InfoContext(ctx, "dashboard started",
		"addr", ln.Addr().String(),
		"session_backend", string(storage.Backend),
		"dev", cfg.IsDev,
	)
	return g.Wait()
}
