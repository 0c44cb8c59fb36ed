package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/botivate/systems-dashboard/internal/domain/access"
	domainauth "github.com/botivate/systems-dashboard/internal/domain/auth"
	"github.com/botivate/systems-dashboard/internal/domain/model"
	"github.com/botivate/systems-dashboard/internal/observability/metrics"
	"github.com/botivate/systems-dashboard/internal/observability/statsd"
	"github.com/botivate/systems-dashboard/internal/ports"
)

// CatalogProjectorOptions groups dependencies for CatalogProjector.
type CatalogProjectorOptions struct {
	Source ports.CatalogSource
	// Policy defaults to access.SubstringPolicy.
	Policy  access.Policy
	Metrics statsd.Sink
	Logger  *slog.Logger
}

// CatalogProjector turns raw system rows into the per-user status partition.
// It holds no per-user state and is shared by every tab.
type CatalogProjector struct {
	source  ports.CatalogSource
	policy  access.Policy
	metrics statsd.Sink
	logger  *slog.Logger
}

// NewCatalogProjector constructs a new CatalogProjector.
func NewCatalogProjector(opts CatalogProjectorOptions) *CatalogProjector {
	policy := opts.Policy
	if policy == nil {
		policy = access.SubstringPolicy{}
	}
	return &CatalogProjector{
		source:  opts.Source,
		policy:  policy,
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
}

func (p *CatalogProjector) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.Default()
}

// Project numbers the rows by position, normalizes their status, keeps only
// the rows a regular user may see, and partitions the rest by status.
// Rows whose status is neither complete nor running are dropped.
func (p *CatalogProjector) Project(raw []model.SystemRecord, user domainauth.UserRecord) model.Catalog {
	out := model.EmptyCatalog()
	for i, rec := range raw {
		rec.Ordinal = i + 1
		if rec.RawStatus != "" || rec.Status == "" {
			rec.Status = model.ParseStatus(rec.RawStatus)
		}
		if !user.IsAdmin() && !p.policy.IsAccessible(user, rec) {
			continue
		}
		out.Add(rec)
	}
	return out
}

// Load fetches the systems list and projects it for user.
// On a fetch failure it returns an empty catalog together with the error.
func (p *CatalogProjector) Load(ctx context.Context, user domainauth.UserRecord) (model.Catalog, error) {
	start := time.Now()
	raw, err := p.source.FetchSystems(ctx)
	metrics.EmitCatalogFetch(p.metrics, metrics.CatalogFetchMetric{
		Duration: time.Since(start),
		Rows:     len(raw),
		Err:      err,
	})
	if err != nil {
		p.log().WarnContext(ctx, "catalog fetch failed", "user_id", user.UserID, "error", err)
		return model.EmptyCatalog(), fmt.Errorf("fetch systems: %w", err)
	}
	return p.Project(raw, user), nil
}
