package httpx

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	dashboard "github.com/botivate/systems-dashboard"
	"github.com/botivate/systems-dashboard/internal/domain/view"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Tabs         TabProvider
	CookieDomain string
	// IsDev serves templates and static files from disk for hot reloading.
	IsDev  bool
	Logger *slog.Logger
	// TemplateFS overrides the template source; tests point it at the
	// working tree.
	TemplateFS fs.FS
}

// NewRouter creates and configures the HTTP router with browser middleware.
func NewRouter(services RouterServices) (http.Handler, error) {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ui, err := setupUIHandlers(services, logger)
	if err != nil {
		return nil, err
	}

	app := http.NewServeMux()
	app.HandleFunc("GET /{$}", ui.Index)
	app.HandleFunc("GET /fragments/dashboard", ui.Fragment)
	app.HandleFunc("POST /auth/login", ui.Login)
	app.HandleFunc("POST /auth/logout", ui.Logout)
	app.Handle("POST /views/complete", ui.Navigate(view.EventSelectComplete))
	app.Handle("POST /views/running", ui.Navigate(view.EventSelectRunning))
	app.Handle("POST /views/back", ui.Navigate(view.EventBack))
	app.HandleFunc("POST /views/refresh", ui.Refresh)
	app.HandleFunc("GET /api/session", ui.Session)
	app.HandleFunc("GET /api/systems", ui.Systems)

	tabbed := TabSession(services.Tabs, TabSessionConfig{
		CookieDomain: services.CookieDomain,
		Logger:       logger,
	})(app)

	mux := http.NewServeMux()
	var counter TabCounter
	if c, ok := services.Tabs.(TabCounter); ok {
		counter = c
	}
	health := healthHandler(counter)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)
	mux.Handle("GET /static/", staticHandler(services.IsDev, logger))
	mux.Handle("GET /{$}", tabbed)
	mux.Handle("GET /fragments/", tabbed)
	mux.Handle("/auth/", tabbed)
	mux.Handle("/views/", tabbed)
	mux.Handle("/api/", tabbed)
	mux.HandleFunc("/", ui.NotFound)

	return Chain(mux,
		Recover(logger),
		Logging(logger),
		CSRFProtection(CSRFConfig{CookieDomain: services.CookieDomain}),
	), nil
}

// setupUIHandlers creates UI handlers with a template renderer.
// In dev mode templates are loaded from disk for hot reloading; otherwise
// they come from the embedded filesystem.
func setupUIHandlers(services RouterServices, logger *slog.Logger) (*UIHandlers, error) {
	templateFS := services.TemplateFS
	if templateFS == nil {
		if services.IsDev {
			templateFS = os.DirFS(TemplatePathFromRoot)
		} else {
			sub, err := fs.Sub(dashboard.TemplateFS, TemplatePathFromRoot)
			if err != nil {
				return nil, fmt.Errorf("embedded templates: %w", err)
			}
			templateFS = sub
		}
	}

	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateFS,
		DevMode:    services.IsDev,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create template renderer: %w", err)
	}
	return &UIHandlers{T: tr, IsDev: services.IsDev, Logger: logger}, nil
}

// staticHandler serves /static/* from disk in dev mode and from the
// embedded filesystem otherwise.
func staticHandler(isDev bool, logger *slog.Logger) http.Handler {
	if isDev {
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir("frontend/static"))), false)
	}
	staticSub, err := fs.Sub(dashboard.StaticFS, "frontend/static")
	if err != nil {
		logger.Error("failed to create sub-filesystem for static assets, serving from disk", "error", err)
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir("frontend/static"))), false)
	}
	return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))), true)
}

// staticWithCacheHeaders wraps a static file handler to add cache headers.
// Embedded assets change only with a deploy and may be cached briefly.
func staticWithCacheHeaders(handler http.Handler, cacheable bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cacheable {
			w.Header().Set("Cache-Control", "public, max-age=300")
		} else {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		}
		handler.ServeHTTP(w, r)
	})
}
