package httpx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/botivate/systems-dashboard/internal/domain/view"
	"github.com/botivate/systems-dashboard/internal/service"
)

func TestGetTabFromContext(t *testing.T) {
	// No tab
	if tab, ok := GetTabFromContext(context.Background()); assert.False(t, ok) {
		assert.Nil(t, tab)
	}

	// Nil tab leaves ctx untouched
	ctx := SetTabInContext(context.Background(), nil)
	_, ok := GetTabFromContext(ctx)
	assert.False(t, ok)

	// With tab
	tab := service.NewTab(service.TabOptions{ID: "t1"})
	defer tab.Close()
	got, ok := GetTabFromContext(SetTabInContext(context.Background(), tab))
	assert.True(t, ok)
	assert.Same(t, tab, got)
}

func TestPageForState(t *testing.T) {
	cases := map[view.State]string{
		view.StateLoggingIn:       PageLogin,
		view.StateDashboard:       PageDashboard,
		view.StateViewingComplete: PageComplete,
		view.StateViewingRunning:  PageRunning,
		view.State("bogus"):       PageLogin,
	}
	for state, want := range cases {
		assert.Equal(t, want, PageForState(state), string(state))
	}
	assert.Equal(t, "systems-content", ContentTemplateFor(PageRunning))
	assert.Equal(t, "login-content", ContentTemplateFor("nope"))
}
