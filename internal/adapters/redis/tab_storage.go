package redis

// Package redis provides Redis-based adapters for the dashboard.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/botivate/systems-dashboard/internal/ports"
)

const defaultPrefix = "tab:"

// TabStorage is a Redis-backed ports.TabStorage.
// Each value lives under "<prefix><tabID>:<key>" and expires after the
// configured TTL, refreshed on every write.
type TabStorage struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ ports.TabStorage = (*TabStorage)(nil)

// TabStorageOptions configures a TabStorage.
type TabStorageOptions struct {
	Client redis.UniversalClient
	// Prefix defaults to "tab:".
	Prefix string
	// TTL of zero or less stores values without expiry.
	TTL time.Duration
}

// NewTabStorage creates a new Redis-backed tab storage.
func NewTabStorage(opts TabStorageOptions) *TabStorage {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &TabStorage{
		client: opts.Client,
		prefix: prefix,
		ttl:    opts.TTL,
	}
}

func (s *TabStorage) key(tabID, key string) string {
	return s.prefix + tabID + ":" + key
}

// Get implements ports.TabStorage.
func (s *TabStorage) Get(ctx context.Context, tabID, key string) ([]byte, error) {
	if tabID == "" || key == "" {
		return nil, ports.ErrNotFound
	}

	data, err := s.client.Get(ctx, s.key(tabID, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

// Set implements ports.TabStorage.
func (s *TabStorage) Set(ctx context.Context, tabID, key string, value []byte) error {
	if tabID == "" || key == "" {
		return errors.New("tab id and key are required")
	}

	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.key(tabID, key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete implements ports.TabStorage.
func (s *TabStorage) Delete(ctx context.Context, tabID, key string) error {
	if tabID == "" || key == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.key(tabID, key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
