// Package memory provides an in-process ports.TabStorage for development and tests.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/botivate/systems-dashboard/internal/ports"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// TabStorage keeps tab-scoped values in a map guarded by a RWMutex.
// Values are lost when the process exits.
type TabStorage struct {
	mu    sync.RWMutex
	items map[string]entry
	ttl   time.Duration
	now   func() time.Time
}

var _ ports.TabStorage = (*TabStorage)(nil)

// TabStorageOptions configures a TabStorage.
type TabStorageOptions struct {
	// TTL of zero keeps values until deleted.
	TTL time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// NewTabStorage creates an empty in-memory tab storage.
func NewTabStorage(opts TabStorageOptions) *TabStorage {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &TabStorage{
		items: make(map[string]entry),
		ttl:   opts.TTL,
		now:   now,
	}
}

func itemKey(tabID, key string) string { return tabID + "\x00" + key }

// Get implements ports.TabStorage.
func (s *TabStorage) Get(_ context.Context, tabID, key string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.items[itemKey(tabID, key)]
	s.mu.RUnlock()
	if !ok {
		return nil, ports.ErrNotFound
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		s.mu.Lock()
		delete(s.items, itemKey(tabID, key))
		s.mu.Unlock()
		return nil, ports.ErrNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set implements ports.TabStorage.
func (s *TabStorage) Set(_ context.Context, tabID, key string, value []byte) error {
	if tabID == "" || key == "" {
		return errors.New("tab id and key are required")
	}
	e := entry{value: append([]byte(nil), value...)}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	s.items[itemKey(tabID, key)] = e
	s.mu.Unlock()
	return nil
}

// Delete implements ports.TabStorage.
func (s *TabStorage) Delete(_ context.Context, tabID, key string) error {
	s.mu.Lock()
	delete(s.items, itemKey(tabID, key))
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored values, expired ones included.
func (s *TabStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
