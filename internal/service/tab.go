package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/botivate/systems-dashboard/internal/domain/auth"
	"github.com/botivate/systems-dashboard/internal/domain/model"
	"github.com/botivate/systems-dashboard/internal/domain/view"
	apperrors "github.com/botivate/systems-dashboard/internal/errors"
	"github.com/botivate/systems-dashboard/internal/observability/metrics"
	"github.com/botivate/systems-dashboard/internal/observability/statsd"
	"github.com/botivate/systems-dashboard/internal/ports"
)

// ErrLoginSuperseded is returned by Login when a logout or reload happened
// while the credentials were being checked. The login result is discarded.
var ErrLoginSuperseded = apperrors.New(apperrors.ErrCodeCanceled, "Login was canceled")

// TabView is a consistent snapshot of a tab, suitable for rendering.
type TabView struct {
	ID       string
	State    view.State
	User     *domainauth.UserRecord
	Catalog  model.Catalog
	Loading  bool
	FetchErr error
	// Generation identifies the latest fetch or session change.
	Generation uint64
}

// Authenticated reports whether a user is logged in.
func (v TabView) Authenticated() bool { return v.User != nil }

// IsAdmin reports whether the logged-in user is an admin.
func (v TabView) IsAdmin() bool { return v.User != nil && v.User.IsAdmin() }

// TabOptions groups dependencies for a Tab.
type TabOptions struct {
	ID        string
	Storage   ports.TabStorage
	Source    ports.CatalogSource
	Projector *CatalogProjector
	Metrics   statsd.Sink
	Logger    *slog.Logger
	Now       func() time.Time
}

// Tab is the server-side runtime of one browser tab: its session, the
// active screen, and the catalog shown on it.
//
// Transitions are serialized by mu. Catalog fetches run on their own
// goroutine and report back through complete, which drops any result whose
// generation is no longer current.
type Tab struct {
	id        string
	sessions  *SessionStore
	projector *CatalogProjector
	metrics   statsd.Sink
	logger    *slog.Logger
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	state    view.State
	catalog  model.Catalog
	loading  bool
	idle     chan struct{}
	fetchErr error
	gen      uint64
	closed   bool
	lastSeen time.Time
}

// NewTab constructs a Tab in the login state. Call Start before use.
func NewTab(opts TabOptions) *Tab {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	projector := opts.Projector
	if projector == nil {
		projector = NewCatalogProjector(CatalogProjectorOptions{Source: opts.Source, Metrics: opts.Metrics, Logger: logger})
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Tab{
		id: opts.ID,
		sessions: NewSessionStore(SessionStoreOptions{
			TabID:   opts.ID,
			Storage: opts.Storage,
			Source:  opts.Source,
			Metrics: opts.Metrics,
			Logger:  logger,
		}),
		projector: projector,
		metrics:   opts.Metrics,
		logger:    logger.With("tab_id", opts.ID),
		now:       now,
		ctx:       ctx,
		cancel:    cancel,
		state:     view.StateLoggingIn,
		catalog:   model.EmptyCatalog(),
		lastSeen:  now(),
	}
}

// ID returns the tab id.
func (t *Tab) ID() string { return t.id }

// Start restores the persisted session, if any, and enters the initial screen.
func (t *Tab) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.touchLocked()
	return t.startLocked(ctx)
}

// Reload drops everything held in memory and starts again from storage,
// the way a page reload does. An in-flight login or fetch is abandoned.
func (t *Tab) Reload(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.touchLocked()
	t.gen++
	t.catalog = model.EmptyCatalog()
	t.fetchErr = nil
	t.setLoadingLocked(false)
	return t.startLocked(ctx)
}

func (t *Tab) startLocked(ctx context.Context) error {
	user, err := t.sessions.Restore(ctx)
	if err != nil {
		t.state = view.StateLoggingIn
		return err
	}
	state, effect := view.Start(user != nil)
	t.state = state
	return t.applyLocked(ctx, effect, user)
}

// Login checks the credentials and, on success, moves to the dashboard and
// starts a catalog fetch. It is refused with ErrBusy while a login or fetch
// is in flight. Logging in on a tab that already has a user returns that user.
func (t *Tab) Login(ctx context.Context, userID, password string) (domainauth.UserRecord, error) {
	t.mu.Lock()
	t.touchLocked()
	if t.loading {
		t.mu.Unlock()
		metrics.EmitLoginAttempt(t.metrics, metrics.OutcomeBusy, ErrBusy)
		return domainauth.UserRecord{}, ErrBusy
	}
	if t.state != view.StateLoggingIn {
		current := t.sessions.Current()
		t.mu.Unlock()
		if current != nil {
			return *current, nil
		}
		return domainauth.UserRecord{}, ErrLoginSuperseded
	}
	t.gen++
	g := t.gen
	t.setLoadingLocked(true)
	t.mu.Unlock()

	user, err := t.sessions.Login(ctx, userID, password)

	t.mu.Lock()
	defer t.mu.Unlock()
	if g != t.gen || t.closed {
		// A reload may already have picked the new session up from storage.
		if err == nil && t.state == view.StateLoggingIn {
			t.logger.InfoContext(ctx, "discarding login after logout", "user_id", user.UserID)
			if clearErr := t.sessions.Logout(ctx); clearErr != nil {
				t.logger.WarnContext(ctx, "clear superseded login failed", "error", clearErr)
			}
		}
		return domainauth.UserRecord{}, ErrLoginSuperseded
	}
	if err != nil {
		t.setLoadingLocked(false)
		return domainauth.UserRecord{}, err
	}

	state, effect := view.Transition(t.state, view.EventLoginSucceeded, user.Role)
	t.state = state
	if applyErr := t.applyLocked(ctx, effect, &user); applyErr != nil {
		return domainauth.UserRecord{}, applyErr
	}
	return user, nil
}

// Navigate applies a screen change: view.EventSelectComplete,
// view.EventSelectRunning or view.EventBack. Other events are ignored, as are
// transitions the machine does not allow.
func (t *Tab) Navigate(ev view.Event) TabView {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.touchLocked()
	switch ev {
	case view.EventSelectComplete, view.EventSelectRunning, view.EventBack:
		state, _ := view.Transition(t.state, ev, t.roleLocked())
		t.state = state
	case view.EventLoginSucceeded, view.EventLogout:
	}
	return t.snapshotLocked()
}

// Logout returns to the login screen from any state, clearing the session
// and the catalog. Any fetch still running is discarded when it completes.
func (t *Tab) Logout(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.touchLocked()
	state, effect := view.Transition(t.state, view.EventLogout, t.roleLocked())
	t.state = state
	return t.applyLocked(ctx, effect, nil)
}

// applyLocked runs a machine effect. user is the session user for a fetch.
func (t *Tab) applyLocked(ctx context.Context, effect view.Effect, user *domainauth.UserRecord) error {
	switch effect {
	case view.EffectFetchCatalog:
		if user != nil {
			t.startFetchLocked(*user)
		}
	case view.EffectClearSession:
		t.gen++
		t.catalog = model.EmptyCatalog()
		t.fetchErr = nil
		t.setLoadingLocked(false)
		return t.sessions.Logout(ctx)
	case view.EffectNone:
	}
	return nil
}

func (t *Tab) startFetchLocked(user domainauth.UserRecord) {
	if t.closed {
		return
	}
	t.gen++
	g := t.gen
	t.fetchErr = nil
	t.setLoadingLocked(true)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		catalog, err := t.projector.Load(t.ctx, user)
		t.complete(g, catalog, err)
	}()
}

func (t *Tab) complete(g uint64, catalog model.Catalog, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if g != t.gen || t.closed {
		t.logger.Debug("discarding stale catalog", "generation", g, "current", t.gen)
		metrics.EmitStaleDiscarded(t.metrics)
		return
	}
	t.catalog = catalog
	t.fetchErr = err
	t.setLoadingLocked(false)
	t.logger.Debug("catalog loaded", "generation", g, "systems", catalog.Len())
}

func (t *Tab) setLoadingLocked(loading bool) {
	t.loading = loading
	if loading {
		if t.idle == nil {
			t.idle = make(chan struct{})
		}
		return
	}
	if t.idle != nil {
		close(t.idle)
		t.idle = nil
	}
}

func (t *Tab) roleLocked() domainauth.Role {
	if u := t.sessions.Current(); u != nil {
		return u.Role
	}
	return ""
}

func (t *Tab) touchLocked() { t.lastSeen = t.now() }

// WaitIdle blocks until no login or fetch is in flight, or ctx ends.
func (t *Tab) WaitIdle(ctx context.Context) error {
	t.mu.Lock()
	idle := t.idle
	t.mu.Unlock()
	if idle == nil {
		return nil
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the current view of the tab.
func (t *Tab) Snapshot() TabView {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.touchLocked()
	return t.snapshotLocked()
}

func (t *Tab) snapshotLocked() TabView {
	return TabView{
		ID:         t.id,
		State:      t.state,
		User:       t.sessions.Current(),
		Catalog:    t.catalog,
		Loading:    t.loading,
		FetchErr:   t.fetchErr,
		Generation: t.gen,
	}
}

// LastSeen returns when the tab was last used.
func (t *Tab) LastSeen() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastSeen
}

// Close cancels in-flight fetches and waits for their goroutines to exit.
// Persisted session state is kept so the tab can be restored later.
func (t *Tab) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.gen++
	t.setLoadingLocked(false)
	t.mu.Unlock()

	t.cancel()
	t.wg.Wait()
}
