package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/botivate/systems-dashboard/internal/errors"
	"github.com/botivate/systems-dashboard/internal/observability/metrics"
	"github.com/botivate/systems-dashboard/internal/observability/statsd"
	"github.com/botivate/systems-dashboard/internal/ports"
)

const (
	// DefaultTabIdleTTL is how long an unused tab stays in memory.
	DefaultTabIdleTTL = 30 * time.Minute
	// DefaultMaxTabs caps how many tabs are held in memory at once.
	DefaultMaxTabs   = 10000
	minSweepInterval = time.Second
)

// ErrRegistryClosed is returned by Get after Close.
var ErrRegistryClosed = apperrors.New(apperrors.ErrCodeCanceled, "Dashboard is shutting down")

// TabRegistryOptions groups dependencies for TabRegistry.
type TabRegistryOptions struct {
	Storage   ports.TabStorage
	Source    ports.CatalogSource
	Projector *CatalogProjector
	// IdleTTL defaults to DefaultTabIdleTTL.
	IdleTTL time.Duration
	// SweepInterval defaults to half of IdleTTL.
	SweepInterval time.Duration
	// MaxTabs defaults to DefaultMaxTabs. When full, the least recently
	// used tab is evicted to make room.
	MaxTabs int
	Metrics statsd.Sink
	Logger  *slog.Logger
	Now     func() time.Time
}

type tabEntry struct {
	tab  *Tab
	once sync.Once
	err  error
}

// TabRegistry owns the live tabs of the process, keyed by tab id.
type TabRegistry struct {
	storage       ports.TabStorage
	source        ports.CatalogSource
	projector     *CatalogProjector
	idleTTL       time.Duration
	sweepInterval time.Duration
	maxTabs       int
	metrics       statsd.Sink
	logger        *slog.Logger
	now           func() time.Time

	mu     sync.Mutex
	tabs   map[string]*tabEntry
	closed bool
}

// NewTabRegistry constructs a new TabRegistry.
func NewTabRegistry(opts TabRegistryOptions) *TabRegistry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	idle := opts.IdleTTL
	if idle <= 0 {
		idle = DefaultTabIdleTTL
	}
	sweep := opts.SweepInterval
	if sweep <= 0 {
		sweep = idle / 2
	}
	if sweep < minSweepInterval {
		sweep = minSweepInterval
	}
	maxTabs := opts.MaxTabs
	if maxTabs <= 0 {
		maxTabs = DefaultMaxTabs
	}
	projector := opts.Projector
	if projector == nil {
		projector = NewCatalogProjector(CatalogProjectorOptions{Source: opts.Source, Metrics: opts.Metrics, Logger: logger})
	}
	return &TabRegistry{
		storage:       opts.Storage,
		source:        opts.Source,
		projector:     projector,
		idleTTL:       idle,
		sweepInterval: sweep,
		maxTabs:       maxTabs,
		metrics:       opts.Metrics,
		logger:        logger.With("component", "tab_registry"),
		now:           now,
		tabs:          make(map[string]*tabEntry),
	}
}

// Get returns the tab for id, creating it and restoring its session on
// first use. A tab whose restore fails is forgotten so the next call retries.
func (r *TabRegistry) Get(ctx context.Context, id string) (*Tab, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRegistryClosed
	}
	e, ok := r.tabs[id]
	var evicted *Tab
	if !ok {
		if len(r.tabs) >= r.maxTabs {
			evicted = r.evictOldestLocked()
		}
		e = &tabEntry{tab: NewTab(TabOptions{
			ID:        id,
			Storage:   r.storage,
			Source:    r.source,
			Projector: r.projector,
			Metrics:   r.metrics,
			Logger:    r.logger,
			Now:       r.now,
		})}
		r.tabs[id] = e
	}
	active := len(r.tabs)
	r.mu.Unlock()

	if evicted != nil {
		evicted.Close()
		r.logger.Warn("tab limit reached, evicted least recently used tab", "evicted_tab_id", evicted.ID(), "max_tabs", r.maxTabs)
		metrics.EmitTabs(r.metrics, active, 1)
	}

	e.once.Do(func() {
		e.err = e.tab.Start(ctx)
	})
	if e.err != nil {
		r.mu.Lock()
		if r.tabs[id] == e {
			delete(r.tabs, id)
		}
		r.mu.Unlock()
		e.tab.Close()
		return nil, e.err
	}
	return e.tab, nil
}

// evictOldestLocked removes the least recently used tab from the map and
// returns it for closing. Its persisted session is kept.
func (r *TabRegistry) evictOldestLocked() *Tab {
	var (
		oldestID string
		oldest   *Tab
		seen     time.Time
	)
	for id, e := range r.tabs {
		last := e.tab.LastSeen()
		if oldest == nil || last.Before(seen) {
			oldestID, oldest, seen = id, e.tab, last
		}
	}
	if oldest != nil {
		delete(r.tabs, oldestID)
	}
	return oldest
}

// Len returns the number of live tabs.
func (r *TabRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tabs)
}

// Sweep closes tabs idle for longer than the idle TTL and returns how many
// were evicted. Their persisted sessions are kept.
func (r *TabRegistry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var stale []*Tab
	for id, e := range r.tabs {
		if e.tab.LastSeen().Before(cutoff) {
			stale = append(stale, e.tab)
			delete(r.tabs, id)
		}
	}
	active := len(r.tabs)
	r.mu.Unlock()

	for _, tab := range stale {
		tab.Close()
	}
	if len(stale) > 0 {
		r.logger.Info("evicted idle tabs", "evicted", len(stale), "active", active)
	}
	metrics.EmitTabs(r.metrics, active, len(stale))
	return len(stale)
}

// Run sweeps idle tabs periodically until ctx is canceled.
func (r *TabRegistry) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close closes every tab. Later calls to Get fail with ErrRegistryClosed.
func (r *TabRegistry) Close() {
	r.mu.Lock()
	r.closed = true
	tabs := make([]*Tab, 0, len(r.tabs))
	for id, e := range r.tabs {
		tabs = append(tabs, e.tab)
		delete(r.tabs, id)
	}
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, tab := range tabs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tab.Close()
		}()
	}
	wg.Wait()
}
