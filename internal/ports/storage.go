package ports

import (
	"context"
	"errors"
)

// ErrNotFound is returned by TabStorage.Get when no value is stored under the key.
var ErrNotFound = errors.New("tab storage: not found")

// TabStorage is a small key/value store scoped to one browser tab.
// Values are opaque bytes; the session layer stores JSON.
type TabStorage interface {
	Get(ctx context.Context, tabID, key string) ([]byte, error)
	Set(ctx context.Context, tabID, key string, value []byte) error
	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, tabID, key string) error
}
