package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botivate/systems-dashboard/internal/ports"
)

func TestTabStorage_RoundTrip(t *testing.T) {
	s := NewTabStorage(TabStorageOptions{})
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "tab-1", "currentUser", []byte("v1")))
	got, err := s.Get(ctx, "tab-1", "currentUser")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	// Returned slice is a copy.
	got[0] = 'X'
	again, err := s.Get(ctx, "tab-1", "currentUser")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), again)

	require.NoError(t, s.Delete(ctx, "tab-1", "currentUser"))
	_, err = s.Get(ctx, "tab-1", "currentUser")
	assert.ErrorIs(t, err, ports.ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestTabStorage_Isolation(t *testing.T) {
	s := NewTabStorage(TabStorageOptions{})
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "tab-a", "currentUser", []byte("a")))
	_, err := s.Get(ctx, "tab-b", "currentUser")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestTabStorage_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewTabStorage(TabStorageOptions{TTL: time.Minute, Now: func() time.Time { return now }})
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "tab-1", "currentUser", []byte("v")))
	_, err := s.Get(ctx, "tab-1", "currentUser")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = s.Get(ctx, "tab-1", "currentUser")
	assert.ErrorIs(t, err, ports.ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestTabStorage_RejectsEmptyIDs(t *testing.T) {
	s := NewTabStorage(TabStorageOptions{})
	assert.Error(t, s.Set(context.Background(), "", "k", nil))
	assert.Error(t, s.Set(context.Background(), "t", "", nil))
}

func TestTabStorage_Concurrent(t *testing.T) {
	s := NewTabStorage(TabStorageOptions{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Set(ctx, "tab", "k", []byte{byte(i)})
			_, _ = s.Get(ctx, "tab", "k")
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, s.Len())
}
