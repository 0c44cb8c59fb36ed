package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/botivate/systems-dashboard/config"
	"github.com/botivate/systems-dashboard/internal/adapters/sheets"
	"github.com/botivate/systems-dashboard/internal/observability/statsd"
	"github.com/botivate/systems-dashboard/internal/ports"
	"github.com/botivate/systems-dashboard/internal/service"
)

// ServiceContainer holds the application services.
type ServiceContainer struct {
	Catalog   ports.CatalogSource
	Projector *service.CatalogProjector
	Tabs      *service.TabRegistry
	Metrics   statsd.Sink

	metricsClient *statsd.Client
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config  *config.AppConfig
	Storage ports.TabStorage
	// Catalog overrides the HTTP sheets client, for tests.
	Catalog ports.CatalogSource
	Logger  *slog.Logger
}

// NewServices wires the catalog client, projector and tab registry.
func NewServices(deps ServiceDeps) (*ServiceContainer, error) {
	if deps.Config == nil {
		return nil, errors.New("service config is required")
	}
	if deps.Storage == nil {
		return nil, errors.New("session storage is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	metricsClient, sink := buildMetrics(logger, cfg.Observability.Metrics)

	source := deps.Catalog
	if source == nil {
		client, err := sheets.New(sheetsConfig(cfg.Catalog, logger))
		if err != nil {
			return nil, errors.Join(fmt.Errorf("catalog client: %w", err), metricsClient.Close())
		}
		source = client
	}

	projector := service.NewCatalogProjector(service.CatalogProjectorOptions{
		Source:  source,
		Metrics: sink,
		Logger:  logger,
	})

	tabs := service.NewTabRegistry(service.TabRegistryOptions{
		Storage:   deps.Storage,
		Source:    source,
		Projector: projector,
		IdleTTL:   cfg.Session.TabIdleTTL,
		MaxTabs:   cfg.Session.MaxTabs,
		Metrics:   sink,
		Logger:    logger,
	})

	return &ServiceContainer{
		Catalog:       source,
		Projector:     projector,
		Tabs:          tabs,
		Metrics:       sink,
		metricsClient: metricsClient,
	}, nil
}

// Close closes every tab and flushes the metrics connection.
func (c *ServiceContainer) Close() error {
	if c == nil {
		return nil
	}
	c.Tabs.Close()
	return c.metricsClient.Close()
}

// buildMetrics returns a statsd client when metrics are enabled and a sink
// that is safe to use either way.
func buildMetrics(logger *slog.Logger, cfg config.ObservabilityMetricsConfig) (*statsd.Client, statsd.Sink) {
	if !cfg.IsEnabled() {
		return nil, statsd.Nop{}
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil, statsd.Nop{}
	}
	return client, client
}

func sheetsConfig(cfg config.CatalogConfig, logger *slog.Logger) sheets.Config {
	out := sheets.Config{
		Endpoint:    cfg.Endpoint,
		Timeout:     cfg.Timeout,
		SuccessExpr: cfg.SuccessExpr,
		RowsExpr:    cfg.RowsExpr,
		BearerToken: cfg.BearerToken,
		Logger:      logger,
	}
	if cfg.OAuth.Enabled() {
		out.OAuth = &sheets.OAuthConfig{
			TokenURL:     cfg.OAuth.TokenURL,
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			Scopes:       cfg.OAuth.Scopes,
		}
	}
	return out
}
