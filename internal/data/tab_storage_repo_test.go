package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botivate/systems-dashboard/internal/ports"
	"github.com/botivate/systems-dashboard/internal/testutil"
)

func newTestTabStorageRepo(db *sql.DB, ttl time.Duration) (*TabStorageRepo, *FixedTimeProvider) {
	clock := NewFixedTimeProvider(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	repo := NewTabStorageRepo(db, ttl)
	repo.Time = clock
	return repo, clock
}

func TestTabStorageRepo_SetGetDelete(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo, _ := newTestTabStorageRepo(db, 0)
		ctx := context.Background()

		require.NoError(t, repo.Set(ctx, "tab-1", "currentUser", []byte(`{"user_id":"alice"}`)))
		got, err := repo.Get(ctx, "tab-1", "currentUser")
		require.NoError(t, err)
		assert.JSONEq(t, `{"user_id":"alice"}`, string(got))

		// Upsert replaces the value.
		require.NoError(t, repo.Set(ctx, "tab-1", "currentUser", []byte(`{"user_id":"bob"}`)))
		got, err = repo.Get(ctx, "tab-1", "currentUser")
		require.NoError(t, err)
		assert.JSONEq(t, `{"user_id":"bob"}`, string(got))

		require.NoError(t, repo.Delete(ctx, "tab-1", "currentUser"))
		_, err = repo.Get(ctx, "tab-1", "currentUser")
		assert.ErrorIs(t, err, ports.ErrNotFound)
	})
}

func TestTabStorageRepo_Expiry(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo, clock := newTestTabStorageRepo(db, time.Hour)
		ctx := context.Background()

		require.NoError(t, repo.Set(ctx, "tab-1", "currentUser", []byte("v")))
		require.NoError(t, repo.Set(ctx, "tab-2", "currentUser", []byte("v")))

		clock.AddTime(2 * time.Hour)
		_, err := repo.Get(ctx, "tab-1", "currentUser")
		assert.ErrorIs(t, err, ports.ErrNotFound)

		n, err := repo.PurgeExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})
}

func TestTabStorageRepo_Validation(t *testing.T) {
	repo := &TabStorageRepo{}
	ctx := context.Background()

	assert.ErrorIs(t, repo.Set(ctx, "", "k", nil), ErrTabKeyRequired)
	_, err := repo.Get(ctx, "", "k")
	assert.ErrorIs(t, err, ports.ErrNotFound)
	assert.NoError(t, repo.Delete(ctx, "", ""))
}
