package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/botivate/systems-dashboard/internal/data/pgxutil"
	apperrors "github.com/botivate/systems-dashboard/internal/errors"
	"github.com/botivate/systems-dashboard/internal/ports"
)

// TabStorageRepo is a Postgres-backed ports.TabStorage over the tab_storage table.
type TabStorageRepo struct {
	DB   *sql.DB
	TTL  time.Duration
	Time TimeProvider
}

var _ ports.TabStorage = (*TabStorageRepo)(nil)

// NewTabStorageRepo creates a new TabStorageRepo. A TTL of zero stores rows without expiry.
func NewTabStorageRepo(db *sql.DB, ttl time.Duration) *TabStorageRepo {
	return &TabStorageRepo{DB: db, TTL: ttl, Time: RealTimeProvider{}}
}

func (r *TabStorageRepo) now() time.Time {
	if r.Time == nil {
		return time.Now()
	}
	return r.Time.Now()
}

// Get implements ports.TabStorage. Expired rows read as missing.
func (r *TabStorageRepo) Get(ctx context.Context, tabID, key string) ([]byte, error) {
	if tabID == "" || key == "" {
		return nil, ports.ErrNotFound
	}

	var value []byte
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, `
			SELECT value FROM tab_storage
			WHERE tab_id = $1 AND key = $2
			  AND (expires_at IS NULL OR expires_at > $3)`,
			tabID, key, r.now().UTC(),
		).Scan(&value)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("get tab value: %w", apperrors.MapDBError(err))
	}
	return value, nil
}

// Set implements ports.TabStorage with an upsert that refreshes the expiry.
func (r *TabStorageRepo) Set(ctx context.Context, tabID, key string, value []byte) error {
	if tabID == "" || key == "" {
		return ErrTabKeyRequired
	}
	if value == nil {
		value = []byte{}
	}

	now := r.now().UTC()
	var expiresAt sql.NullTime
	if r.TTL > 0 {
		expiresAt = sql.NullTime{Time: now.Add(r.TTL), Valid: true}
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO tab_storage (tab_id, key, value, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tab_id, key) DO UPDATE
		SET value = EXCLUDED.value,
		    expires_at = EXCLUDED.expires_at,
		    updated_at = EXCLUDED.updated_at`,
		tabID, key, value, expiresAt, now,
	)
	if err != nil {
		return fmt.Errorf("set tab value: %w", apperrors.MapDBError(err))
	}
	return nil
}

// Delete implements ports.TabStorage.
func (r *TabStorageRepo) Delete(ctx context.Context, tabID, key string) error {
	if tabID == "" || key == "" {
		return nil
	}
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM tab_storage WHERE tab_id = $1 AND key = $2`, tabID, key); err != nil {
		return fmt.Errorf("delete tab value: %w", apperrors.MapDBError(err))
	}
	return nil
}

// PurgeExpired removes rows whose expiry has passed and returns how many were removed.
func (r *TabStorageRepo) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM tab_storage WHERE expires_at IS NOT NULL AND expires_at <= $1`, r.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge tab values: %w", apperrors.MapDBError(err))
	}
	return res.RowsAffected()
}
