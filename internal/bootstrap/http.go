package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/botivate/systems-dashboard/config"
	httpx "github.com/botivate/systems-dashboard/internal/http"
)

// HTTPServerConfig contains configuration for the HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Logger   *slog.Logger
	// TemplateFS overrides the embedded templates.
	TemplateFS fs.FS
}

// NewHTTPServer builds the dashboard server without starting it.
func NewHTTPServer(cfg HTTPServerConfig) (*http.Server, error) {
	if cfg.Config == nil || cfg.Services == nil {
		return nil, errors.New("http server requires config and services")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	handler, err := httpx.NewRouter(httpx.RouterServices{
		Tabs:         cfg.Services.Tabs,
		CookieDomain: cfg.Config.HTTP.CookieDomain,
		IsDev:        cfg.Config.IsDev,
		Logger:       logger,
		TemplateFS:   cfg.TemplateFS,
	})
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}

	return &http.Server{
		Addr:              cfg.Config.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Config.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.Config.HTTP.WriteTimeout,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}, nil
}

// serveHTTP serves on ln until ctx is canceled, then shuts down gracefully
// within timeout.
func serveHTTP(ctx context.Context, srv *http.Server, ln net.Listener, timeout time.Duration, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "starting HTTP server", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	logger.Info("HTTP server stopped")
	return nil
}
