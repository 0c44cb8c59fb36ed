package httpx

import (
	"net/http"

	"github.com/botivate/systems-dashboard/internal/domain/view"
	"github.com/botivate/systems-dashboard/internal/http/ui/viewmodel"
	"github.com/botivate/systems-dashboard/internal/service"
)

// Index renders the tab's active screen.
// GET /.
func (h *UIHandlers) Index(w http.ResponseWriter, r *http.Request) {
	tab, ok := h.tab(w, r)
	if !ok {
		return
	}
	h.renderPage(w, r, buildPage(r, tab.Snapshot(), nil))
}

// Fragment re-renders the active screen's content. The page polls it while
// a catalog fetch is in flight; the response stops polling once it lands.
// GET /fragments/dashboard.
func (h *UIHandlers) Fragment(w http.ResponseWriter, r *http.Request) {
	tab, ok := h.tab(w, r)
	if !ok {
		return
	}
	v := tab.Snapshot()
	// A fragment for a logged-out tab would leave a stale header behind.
	if !v.Authenticated() {
		SetHXRefresh(w)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := h.T.RenderPartial(w, r, buildPage(r, v, nil)); err != nil {
		h.logAndRenderTemplateError(w, r, err, "fragment render")
	}
}

// Navigate returns a handler that feeds ev to the tab's view controller.
// Transitions the controller does not allow leave the screen unchanged.
// POST /views/complete, /views/running, /views/back.
func (h *UIHandlers) Navigate(ev view.Event) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tab, ok := h.tab(w, r)
		if !ok {
			return
		}
		h.respond(w, r, tab.Navigate(ev))
	}
}

// Refresh restarts the tab as a page reload would: the session is restored
// from storage and the catalog is fetched again.
// POST /views/refresh.
func (h *UIHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	tab, ok := h.tab(w, r)
	if !ok {
		return
	}
	if err := tab.Reload(r.Context()); err != nil {
		h.logger().WarnContext(r.Context(), "tab reload failed", "tab_id", tab.ID(), "error", err)
		if WantsJSON(r) {
			WriteAppError(w, err)
			return
		}
	}
	h.respond(w, r, tab.Snapshot())
}

// NotFound renders the error page for unknown routes.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if WantsJSON(r) {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Message: "Page not found"})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	data := map[string]any{
		"Title":      appTitle + " - Not Found",
		"StatusCode": http.StatusNotFound,
		"Message":    "The page you are looking for does not exist.",
	}
	if err := h.T.RenderError(w, r, data); err != nil {
		h.logger().Error("failed to render not found page", "error", err, "path", r.URL.Path)
	}
}

// respond answers a state-changing request in the form the client asked for:
// session JSON, the new content fragment, or a redirect back to the page.
func (h *UIHandlers) respond(w http.ResponseWriter, r *http.Request, v service.TabView) {
	h.respondWithForm(w, r, v, nil)
}

func (h *UIHandlers) respondWithForm(w http.ResponseWriter, r *http.Request, v service.TabView, form *viewmodel.Login) {
	switch {
	case WantsJSON(r):
		WriteJSON(w, http.StatusOK, sessionPayloadFor(v))
	case IsHTMX(r):
		SetHXPushURL(w, "/")
		if err := h.T.RenderPartial(w, r, buildPage(r, v, form)); err != nil {
			h.logAndRenderTemplateError(w, r, err, "partial content render")
		}
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// tab returns the request's tab or writes an error when the middleware did
// not attach one.
func (h *UIHandlers) tab(w http.ResponseWriter, r *http.Request) (*service.Tab, bool) {
	tab, ok := GetTabFromContext(r.Context())
	if !ok {
		h.logger().ErrorContext(r.Context(), "no tab attached to request", "path", r.URL.Path)
		http.Error(w, genericErrorMessage, http.StatusInternalServerError)
		return nil, false
	}
	return tab, true
}
