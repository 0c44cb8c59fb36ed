package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/botivate/systems-dashboard/internal/service"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.LogAttrs(r.Context(), slog.LevelInfo, "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Bool("htmx", IsHTMX(r)),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// TabProvider resolves a tab id to its runtime, creating it on first use.
type TabProvider interface {
	Get(ctx context.Context, id string) (*service.Tab, error)
}

var _ TabProvider = (*service.TabRegistry)(nil)

// TabSessionConfig configures the TabSession middleware.
type TabSessionConfig struct {
	CookieDomain string
	Logger       *slog.Logger
}

// TabSession attaches the caller's tab to the request context.
// The tab id travels in a session cookie; a missing or malformed id gets a
// fresh one, which starts a new tab at the login screen.
func TabSession(tabs TabProvider, cfg TabSessionConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := tabIDFromRequest(r)
			if id == "" {
				id = uuid.NewString()
				setTabCookie(w, r, id, cfg.CookieDomain)
			}

			tab, err := tabs.Get(r.Context(), id)
			if err != nil {
				logger.ErrorContext(r.Context(), "tab unavailable", "tab_id", id, "error", err)
				if WantsJSON(r) || strings.HasPrefix(r.URL.Path, "/api/") {
					WriteAppError(w, err)
					return
				}
				http.Error(w, UserMessage(err), StatusForError(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(SetTabInContext(r.Context(), tab)))
		})
	}
}

// tabIDFromRequest returns the tab id cookie if it holds a valid UUID.
func tabIDFromRequest(r *http.Request) string {
	c, err := r.Cookie(TabCookieName)
	if err != nil {
		return ""
	}
	id, err := uuid.Parse(c.Value)
	if err != nil {
		return ""
	}
	return id.String()
}

func setTabCookie(w http.ResponseWriter, r *http.Request, id, domain string) {
	http.SetCookie(w, &http.Cookie{
		Name:     TabCookieName,
		Value:    id,
		Path:     "/",
		Domain:   domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// isSecureRequest reports whether the request arrived over HTTPS, directly
// or through a proxy that sets X-Forwarded-Proto.
func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}

// Chain applies middlewares so that the first one listed runs outermost.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
