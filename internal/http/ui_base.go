package httpx

import (
	"html"
	"log/slog"
	"net/http"

	"github.com/botivate/systems-dashboard/internal/domain/access"
	"github.com/botivate/systems-dashboard/internal/domain/model"
	"github.com/botivate/systems-dashboard/internal/http/ui/viewmodel"
	"github.com/botivate/systems-dashboard/internal/service"
)

const appTitle = "Systems Dashboard"

// UIHandlers serves browser-facing routes.
type UIHandlers struct {
	T     *TemplateRenderer
	IsDev bool // Development mode flag for enhanced error reporting
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// logger returns the configured logger or falls back to slog.Default().
func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// buildLayout constructs shared layout metadata from the request and tab snapshot.
func buildLayout(r *http.Request, v service.TabView) viewmodel.Layout {
	page := PageForState(v.State)
	layout := viewmodel.Layout{
		Title:       pageTitle(page),
		CurrentPage: page,
		CSRFToken:   GetCSRFToken(r),
	}
	if v.User != nil {
		layout.IsAuthenticated = true
		layout.User = &viewmodel.User{
			ID:          v.User.UserID,
			Role:        string(v.User.Role),
			RoleLabel:   v.User.Role.Label(),
			IsAdmin:     v.User.IsAdmin(),
			AccessGrant: v.User.AccessGrant,
		}
		if !v.User.IsAdmin() {
			layout.User.Access = access.ParseGrant(v.User.AccessGrant)
		}
	}
	return layout
}

func pageTitle(page string) string {
	switch page {
	case PageDashboard:
		return appTitle + " - Dashboard"
	case PageComplete:
		return appTitle + " - Complete Systems"
	case PageRunning:
		return appTitle + " - Running Systems"
	default:
		return appTitle + " - Login"
	}
}

// buildPage turns a tab snapshot into the data for its active screen.
// form carries the login form state and is only used on the login screen.
func buildPage(r *http.Request, v service.TabView, form *viewmodel.Login) *viewmodel.Page {
	p := &viewmodel.Page{Layout: buildLayout(r, v)}
	switch p.CurrentPage {
	case PageDashboard:
		p.Dashboard = &viewmodel.Dashboard{
			Loading:       v.Loading,
			CompleteCount: len(v.Catalog.Complete),
			RunningCount:  len(v.Catalog.Running),
			ShowRunning:   v.IsAdmin(),
		}
	case PageComplete:
		p.List = systemList(v, model.StatusComplete)
	case PageRunning:
		p.List = systemList(v, model.StatusRunning)
	default:
		if form == nil {
			form = &viewmodel.Login{}
		}
		p.Login = form
	}
	p.Poll = v.Loading && p.CurrentPage != PageLogin
	return p
}

func systemList(v service.TabView, status model.Status) *viewmodel.SystemList {
	list := &viewmodel.SystemList{
		Status:        string(status),
		Loading:       v.Loading,
		ShowSheetLink: v.IsAdmin(),
		ShowRemarks:   status == model.StatusRunning,
		EmptyDetail:   "You don't have access to any systems in this category",
	}
	if v.IsAdmin() {
		list.EmptyDetail = "No systems available in this category"
	}
	if status == model.StatusRunning {
		list.Title = "Running Systems"
	} else {
		list.Title = "Complete Systems"
	}

	records := v.Catalog.Bucket(status)
	list.Rows = make([]viewmodel.SystemRow, 0, len(records))
	for _, rec := range records {
		list.Rows = append(list.Rows, viewmodel.SystemRow{
			Ordinal:   rec.Ordinal,
			Name:      rec.Name,
			AppLink:   rec.AppLink,
			SheetLink: rec.SheetLink,
			Status:    rec.RawStatus,
			Remarks:   rec.Remarks,
		})
	}
	return list
}

// renderPage renders the tab's active screen, as a full page or as the
// content fragment for htmx swaps.
func (h *UIHandlers) renderPage(w http.ResponseWriter, r *http.Request, page *viewmodel.Page) {
	if !WantsPartial(r) {
		if err := h.T.RenderFull(w, r, page); err != nil {
			h.logAndRenderTemplateError(w, r, err, "full page render")
		}
		return
	}
	if err := h.T.RenderPartial(w, r, page); err != nil {
		h.logAndRenderTemplateError(w, r, err, "partial content render")
	}
}

// logAndRenderTemplateError logs template errors and renders them in dev mode.
func (h *UIHandlers) logAndRenderTemplateError(w http.ResponseWriter, r *http.Request, err error, context string) {
	h.logger().Error("template rendering failed",
		"error", err,
		"context", context,
		"path", r.URL.Path,
		"method", r.Method,
	)

	if h.IsDev {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		body := `<div class="template-error"><h2>Template Rendering Error</h2>` +
			`<p><strong>Context:</strong> ` + html.EscapeString(context) + `</p>` +
			`<p><strong>Path:</strong> ` + html.EscapeString(r.URL.Path) + `</p>` +
			`<pre>` + html.EscapeString(err.Error()) + `</pre></div>`
		if _, writeErr := w.Write([]byte(body)); writeErr != nil {
			h.logger().Error("failed to write template error response", "error", writeErr)
		}
		return
	}

	http.Error(w, "internal server error", http.StatusInternalServerError)
}
