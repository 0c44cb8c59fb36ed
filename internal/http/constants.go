package httpx

import "github.com/botivate/systems-dashboard/internal/domain/view"

// Page identifiers used in templates and navigation, one per screen.
const (
	PageLogin     = "login"
	PageDashboard = "dashboard"
	PageComplete  = "complete"
	PageRunning   = "running"
)

// Cookie names.
const (
	// TabCookieName carries the tab id. It is a session cookie so it ends
	// with the browser session.
	TabCookieName = "tab_id"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "frontend/templates"       // From project root
	TemplatePathFromTest = "../../frontend/templates" // From internal/http test files
)

// Content templates are defined once and reused to avoid per-call allocations.
//
//nolint:gochecknoglobals // static read-only lookup for templates
var contentTemplates = map[string]string{
	PageLogin:     "login-content",
	PageDashboard: "dashboard-content",
	PageComplete:  "systems-content",
	PageRunning:   "systems-content",
}

// ContentTemplateFor returns the content template for the given CurrentPage.
// Falls back to login-content for unknown pages.
func ContentTemplateFor(currentPage string) string {
	if name, ok := contentTemplates[currentPage]; ok {
		return name
	}
	return "login-content"
}

// PageForState maps a tab screen onto its page identifier.
func PageForState(s view.State) string {
	switch s {
	case view.StateDashboard:
		return PageDashboard
	case view.StateViewingComplete:
		return PageComplete
	case view.StateViewingRunning:
		return PageRunning
	case view.StateLoggingIn:
		return PageLogin
	default:
		return PageLogin
	}
}
