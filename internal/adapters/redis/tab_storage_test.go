package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botivate/systems-dashboard/internal/ports"
	"github.com/botivate/systems-dashboard/internal/testutil"
)

// setupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func TestTabStorage_SetAndGet(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewTabStorage(TabStorageOptions{Client: client, TTL: time.Minute})
	ctx := context.Background()

	value := []byte(`{"user_id":"alice","role":"user"}`)
	require.NoError(t, store.Set(ctx, "tab-1", "currentUser", value))

	got, err := store.Get(ctx, "tab-1", "currentUser")
	require.NoError(t, err)
	assert.Equal(t, value, got)

	ttl, err := client.TTL(ctx, "tab:tab-1:currentUser").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestTabStorage_GetMissing(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewTabStorage(TabStorageOptions{Client: client})
	ctx := context.Background()

	_, err := store.Get(ctx, "tab-x", "currentUser")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	_, err = store.Get(ctx, "", "currentUser")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestTabStorage_TabsAreIsolated(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewTabStorage(TabStorageOptions{Client: client})
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "tab-a", "currentUser", []byte("a")))

	_, err := store.Get(ctx, "tab-b", "currentUser")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestTabStorage_Delete(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewTabStorage(TabStorageOptions{Client: client, Prefix: "test:"})
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "tab-1", "currentUser", []byte("x")))
	require.NoError(t, store.Delete(ctx, "tab-1", "currentUser"))

	_, err := store.Get(ctx, "tab-1", "currentUser")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	// Deleting again is fine.
	require.NoError(t, store.Delete(ctx, "tab-1", "currentUser"))
	require.NoError(t, store.Delete(ctx, "", ""))
}

func TestTabStorage_SetRequiresIDs(t *testing.T) {
	store := NewTabStorage(TabStorageOptions{})
	assert.Error(t, store.Set(context.Background(), "", "currentUser", []byte("x")))
}
