package ports

// Package ports defines interfaces (hexagonal ports) for the dashboard's outside world.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/botivate/systems-dashboard/internal/domain/auth"
	"github.com/botivate/systems-dashboard/internal/domain/model"
)

// CatalogSource reads the remote credential and systems lists.
//
// On failure both methods return an empty (non-nil) slice together with an
// error wrapping errors.ErrRemoteFetch, so callers can tell "no rows" from
// "could not read rows".
type CatalogSource interface {
	// FetchCredentials returns every credential row, header excluded.
	FetchCredentials(ctx context.Context) ([]domainauth.UserRecord, error)

	// FetchSystems returns every system row, header excluded, with Ordinal
	// set to the 1-based row position and Status parsed from RawStatus.
	FetchSystems(ctx context.Context) ([]model.SystemRecord, error)
}
