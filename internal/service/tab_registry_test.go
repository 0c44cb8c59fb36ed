package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"

	"github.com/botivate/systems-dashboard/internal/adapters/memory"
	"github.com/botivate/systems-dashboard/internal/domain/view"
	"github.com/botivate/systems-dashboard/internal/mocks"
	catalogfake "github.com/botivate/systems-dashboard/internal/mocks/catalog"
	"github.com/botivate/systems-dashboard/internal/observability/metrics"
	"github.com/botivate/systems-dashboard/internal/observability/statsd"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestRegistry(t *testing.T, clock *fakeClock, rec *statsd.Recorder) (*TabRegistry, *memory.TabStorage) {
	t.Helper()
	storage := memory.NewTabStorage(memory.TabStorageOptions{})
	opts := TabRegistryOptions{
		Storage: storage,
		Source:  catalogfake.NewStaticSource(defaultUsers(), defaultSystems()),
		IdleTTL: time.Minute,
		Now:     clock.Now,
	}
	if rec != nil {
		opts.Metrics = rec
	}
	reg := NewTabRegistry(opts)
	t.Cleanup(reg.Close)
	return reg, storage
}

func TestTabRegistry_GetReturnsSameTab(t *testing.T) {
	defer goleak.VerifyNone(t)
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	reg, _ := newTestRegistry(t, clock, nil)
	ctx := context.Background()

	a, err := reg.Get(ctx, "a")
	require.NoError(t, err)
	again, err := reg.Get(ctx, "a")
	require.NoError(t, err)
	b, err := reg.Get(ctx, "b")
	require.NoError(t, err)

	assert.Same(t, a, again)
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, reg.Len())
}

func TestTabRegistry_SweepEvictsIdleTabs(t *testing.T) {
	defer goleak.VerifyNone(t)
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	rec := &statsd.Recorder{}
	reg, _ := newTestRegistry(t, clock, rec)
	ctx := context.Background()

	idle, err := reg.Get(ctx, "idle")
	require.NoError(t, err)
	_, err = idle.Login(ctx, "root", "secret")
	require.NoError(t, err)
	waitIdle(t, idle)

	clock.Advance(45 * time.Second)
	busy, err := reg.Get(ctx, "busy")
	require.NoError(t, err)
	busy.Snapshot()

	clock.Advance(30 * time.Second)
	assert.Equal(t, 1, reg.Sweep())
	assert.Equal(t, 1, reg.Len())

	evicted := rec.Named(metrics.TabsEvicted)
	require.Len(t, evicted, 1)
	assert.InDelta(t, 1, evicted[0].Value, 0)
	active := rec.Named(metrics.TabsActive)
	require.NotEmpty(t, active)
	assert.InDelta(t, 1, active[len(active)-1].Value, 0)

	// The evicted tab comes back from storage on its next request.
	restored, err := reg.Get(ctx, "idle")
	require.NoError(t, err)
	assert.NotSame(t, idle, restored)
	waitIdle(t, restored)
	v := restored.Snapshot()
	assert.Equal(t, view.StateDashboard, v.State)
	require.NotNil(t, v.User)
	assert.Equal(t, "root", v.User.UserID)
}

func TestTabRegistry_MaxTabsEvictsLeastRecentlyUsed(t *testing.T) {
	defer goleak.VerifyNone(t)
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	rec := &statsd.Recorder{}
	reg := NewTabRegistry(TabRegistryOptions{
		Storage: memory.NewTabStorage(memory.TabStorageOptions{}),
		Source:  catalogfake.NewStaticSource(defaultUsers(), defaultSystems()),
		MaxTabs: 2,
		Metrics: rec,
		Now:     clock.Now,
	})
	t.Cleanup(reg.Close)
	ctx := context.Background()

	a, err := reg.Get(ctx, "a")
	require.NoError(t, err)
	clock.Advance(time.Second)
	_, err = reg.Get(ctx, "b")
	require.NoError(t, err)
	clock.Advance(time.Second)
	a.Snapshot()

	clock.Advance(time.Second)
	_, err = reg.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	again, err := reg.Get(ctx, "a")
	require.NoError(t, err)
	assert.Same(t, a, again, "recently used tab must survive")

	evicted := rec.Named(metrics.TabsEvicted)
	require.NotEmpty(t, evicted)
	assert.InDelta(t, 1, evicted[0].Value, 0)
}

func TestTabRegistry_GetStartFailure(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctrl := gomock.NewController(t)
	storage := mocks.NewMockTabStorage(ctrl)
	storage.EXPECT().Get(gomock.Any(), "a", SessionKey).Return(nil, errors.New("connection refused"))
	storage.EXPECT().Get(gomock.Any(), "a", SessionKey).Return([]byte(`{"user_id":"root","role":"admin"}`), nil)

	reg := NewTabRegistry(TabRegistryOptions{
		Storage: storage,
		Source:  catalogfake.NewStaticSource(defaultUsers(), nil),
	})
	defer reg.Close()

	_, err := reg.Get(context.Background(), "a")
	require.Error(t, err)
	assert.Zero(t, reg.Len())

	tab, err := reg.Get(context.Background(), "a")
	require.NoError(t, err)
	waitIdle(t, tab)
	assert.Equal(t, view.StateDashboard, tab.Snapshot().State)
}

func TestTabRegistry_Close(t *testing.T) {
	defer goleak.VerifyNone(t)
	clock := &fakeClock{now: time.Now()}
	reg, _ := newTestRegistry(t, clock, nil)

	_, err := reg.Get(context.Background(), "a")
	require.NoError(t, err)

	reg.Close()
	assert.Zero(t, reg.Len())
	_, err = reg.Get(context.Background(), "a")
	require.ErrorIs(t, err, ErrRegistryClosed)
}

func TestTabRegistry_RunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)
	clock := &fakeClock{now: time.Now()}
	reg, _ := newTestRegistry(t, clock, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- reg.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
