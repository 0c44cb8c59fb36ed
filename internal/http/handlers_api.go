package httpx

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/botivate/systems-dashboard/internal/domain/access"
	"github.com/botivate/systems-dashboard/internal/domain/model"
	"github.com/botivate/systems-dashboard/internal/service"
)

// maxWait bounds how long /api/systems?wait=true holds the request.
const maxWait = 30 * time.Second

type sessionUser struct {
	ID     string   `json:"id"`
	Role   string   `json:"role"`
	Access []string `json:"access"`
}

type sessionPayload struct {
	Authenticated bool         `json:"authenticated"`
	User          *sessionUser `json:"user,omitempty"`
	View          string       `json:"view"`
	Loading       bool         `json:"loading"`
}

type systemsPayload struct {
	Complete []model.SystemRecord `json:"complete"`
	Running  []model.SystemRecord `json:"running,omitempty"`
	Loading  bool                 `json:"loading"`
	Error    string               `json:"error,omitempty"`
}

func sessionPayloadFor(v service.TabView) sessionPayload {
	p := sessionPayload{
		Authenticated: v.Authenticated(),
		View:          string(v.State),
		Loading:       v.Loading,
	}
	if v.User != nil {
		u := &sessionUser{ID: v.User.UserID, Role: string(v.User.Role), Access: []string{}}
		if !v.User.IsAdmin() {
			u.Access = access.ParseGrant(v.User.AccessGrant)
		}
		p.User = u
	}
	return p
}

// Session reports who is logged in on the tab and which screen is active.
// GET /api/session.
func (h *UIHandlers) Session(w http.ResponseWriter, r *http.Request) {
	tab, ok := h.tab(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, sessionPayloadFor(tab.Snapshot()))
}

// Systems returns the tab's projected catalog. Running systems are only
// included for admins. With wait=true the response is held until any
// in-flight fetch has landed.
// GET /api/systems[?wait=true].
func (h *UIHandlers) Systems(w http.ResponseWriter, r *http.Request) {
	tab, ok := h.tab(w, r)
	if !ok {
		return
	}

	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		ctx, cancel := context.WithTimeout(r.Context(), maxWait)
		err := tab.WaitIdle(ctx)
		cancel()
		if err != nil {
			WriteAppError(w, err)
			return
		}
	}

	v := tab.Snapshot()
	if !v.Authenticated() {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "unauthenticated",
			Message: "Log in to view systems",
		})
		return
	}

	p := systemsPayload{Complete: v.Catalog.Complete, Loading: v.Loading}
	if p.Complete == nil {
		p.Complete = []model.SystemRecord{}
	}
	if v.IsAdmin() {
		p.Running = v.Catalog.Running
		if p.Running == nil {
			p.Running = []model.SystemRecord{}
		}
	}
	if v.FetchErr != nil {
		p.Error = UserMessage(v.FetchErr)
	}
	WriteJSON(w, http.StatusOK, p)
}
