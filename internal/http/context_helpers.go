package httpx

import (
	"context"

	"github.com/botivate/systems-dashboard/internal/service"
)

// tabKey is an unexported context key type to avoid collisions across packages.
type tabKey struct{}

// SetTabInContext returns a child context that carries the given tab.
// If tab is nil, the original ctx is returned unchanged.
func SetTabInContext(ctx context.Context, tab *service.Tab) context.Context {
	if tab == nil {
		return ctx
	}
	return context.WithValue(ctx, tabKey{}, tab)
}

// GetTabFromContext returns the request's tab and whether one was attached.
func GetTabFromContext(ctx context.Context) (*service.Tab, bool) {
	tab, ok := ctx.Value(tabKey{}).(*service.Tab)
	return tab, ok && tab != nil
}
