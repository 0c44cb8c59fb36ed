package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	apperrors "github.com/botivate/systems-dashboard/internal/errors"
	"github.com/botivate/systems-dashboard/internal/http/ui/viewmodel"
	"github.com/botivate/systems-dashboard/internal/http/validation"
	"github.com/botivate/systems-dashboard/internal/service"
)

const (
	maxCredentialLen = 256
	maxLoginBody     = 16 << 10
)

type loginRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

// Login checks the submitted credentials against the remote credential table.
// POST /auth/login (form or JSON fields user_id, password).
func (h *UIHandlers) Login(w http.ResponseWriter, r *http.Request) {
	tab, ok := h.tab(w, r)
	if !ok {
		return
	}

	req, err := decodeLogin(w, r)
	if err == nil {
		err = validateLogin(req)
	}
	if err == nil {
		_, err = tab.Login(r.Context(), req.UserID, req.Password)
	}
	if err != nil {
		h.loginFailed(w, r, tab, req, err)
		return
	}

	h.logger().InfoContext(r.Context(), "user logged in", "tab_id", tab.ID(), "user_id", req.UserID)
	switch {
	case WantsJSON(r):
		WriteJSON(w, http.StatusOK, sessionPayloadFor(tab.Snapshot()))
	case IsHTMX(r):
		// The header shows the user, so the whole page is redrawn.
		SetHXRefresh(w)
		w.WriteHeader(http.StatusOK)
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (h *UIHandlers) loginFailed(w http.ResponseWriter, r *http.Request, tab *service.Tab, req loginRequest, err error) {
	level := h.logger().InfoContext
	if apperrors.IsRemoteFetch(err) || apperrors.GetCode(err) == apperrors.ErrCodeInternal {
		level = h.logger().WarnContext
	}
	level(r.Context(), "login rejected", "tab_id", tab.ID(), "user_id", req.UserID, "error", err)

	if WantsJSON(r) {
		WriteAppError(w, err)
		return
	}

	v := tab.Snapshot()
	form := &viewmodel.Login{UserID: req.UserID, ErrorMessage: UserMessage(err)}
	if errors.Is(err, service.ErrLoginSuperseded) {
		form.ErrorMessage = ""
	}
	if IsHTMX(r) {
		h.respondWithForm(w, r, v, form)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(StatusForError(err))
	if renderErr := h.T.RenderFull(w, r, buildPage(r, v, form)); renderErr != nil {
		h.logger().Error("failed to render login page", "error", renderErr)
	}
}

// Logout ends the tab's session and discards any fetch still in flight.
// POST /auth/logout.
func (h *UIHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	tab, ok := h.tab(w, r)
	if !ok {
		return
	}
	if err := tab.Logout(r.Context()); err != nil {
		// The tab is logged out either way; only the persisted copy may linger.
		h.logger().WarnContext(r.Context(), "failed to clear persisted session", "tab_id", tab.ID(), "error", err)
	}

	switch {
	case WantsJSON(r):
		WriteJSON(w, http.StatusOK, sessionPayloadFor(tab.Snapshot()))
	case IsHTMX(r):
		SetHXRefresh(w)
		w.WriteHeader(http.StatusOK)
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// decodeLogin reads credentials from a JSON body or a form post.
// Values are taken as submitted; the comparison is exact.
func decodeLogin(w http.ResponseWriter, r *http.Request) (loginRequest, error) {
	var req loginRequest
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		dec := json.NewDecoder(io.LimitReader(r.Body, maxLoginBody))
		if err := dec.Decode(&req); err != nil {
			return req, apperrors.Validation("Request body must be a JSON object with user_id and password")
		}
		return req, nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBody)
	if err := r.ParseForm(); err != nil {
		return req, apperrors.Validation("Unable to read the login form")
	}
	req.UserID = r.PostFormValue("user_id")
	req.Password = r.PostFormValue("password")
	return req, nil
}

func validateLogin(req loginRequest) error {
	fv := validation.New().
		Validate("user_id", req.UserID, validation.MaxLen("User ID", maxCredentialLen), validation.Printable("User ID")).
		Validate("password", req.Password, validation.MaxLen("Password", maxCredentialLen), validation.Printable("Password"))
	if field, msg, ok := fv.First(); ok {
		return apperrors.ValidationField(field, msg)
	}
	return nil
}
