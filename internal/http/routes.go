package httpx

import (
	"bytes"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	darahdashboard "github.com/darahconnect/darah-dashboard"
	"github.com/darahconnect/darah-dashboard/internal/core"
	"github.com/darahconnect/darah-dashboard/internal/domain/model"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Dashboard DashboardService
	Sessions  core.SessionRepository // Optional: enables /session and operator tokens
	Health    http.Handler           // Optional: replaces the static /healthz response
	Metrics   http.Handler           // Optional: Prometheus exposition at /metrics
	// TemplateFS overrides the template filesystem chosen from IsDev. Optional.
	TemplateFS   fs.FS
	SessionTTL   time.Duration
	CookieSecure bool
	MaxPageSize  int
	IsDev        bool         // Development mode flag for hot reloading, etc.
	Logger       *slog.Logger // Logger for template and HTTP errors (optional)
}

// NewRouter creates and configures a new HTTP router with browser middleware.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	health := services.Health
	if health == nil {
		health = http.HandlerFunc(livenessHandler)
	}
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)
	mux.HandleFunc("GET /livez", livenessHandler)
	mux.HandleFunc("HEAD /livez", livenessHandler)
	if services.Metrics != nil {
		mux.Handle("GET /metrics", services.Metrics)
	}

	sessions := &SessionHandlers{
		Sessions:     services.Sessions,
		TTL:          services.SessionTTL,
		CookieSecure: services.CookieSecure,
		Logger:       services.Logger,
	}
	mux.HandleFunc("POST /session", sessions.Create)
	mux.HandleFunc("DELETE /session", sessions.Delete)

	mux.Handle("GET /static/", staticWithFallback(services.IsDev))

	uiHandlers := setupUIHandlers(services)
	if uiHandlers != nil && services.Dashboard != nil {
		registerUIRoutes(mux, uiHandlers)
	}

	handler := &notFoundHandler{
		mux:        mux,
		uiHandlers: uiHandlers,
	}

	return BrowserDetection()(SessionContext(services.Sessions, services.Logger)(handler))
}

func registerUIRoutes(mux *http.ServeMux, h *UIHandlers) {
	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET /audit", h.Audit)
	mux.HandleFunc("GET /{resource}", h.List)

	mux.HandleFunc("POST /{resource}", h.Mutate(model.ActionCreate))
	mux.HandleFunc("POST /{resource}/{id}/approve", h.Mutate(model.ActionApprove))
	mux.HandleFunc("POST /{resource}/{id}/reject", h.Mutate(model.ActionReject))
	mux.HandleFunc("POST /{resource}/{id}/read", h.Mutate(model.ActionMarkRead))
	mux.HandleFunc("POST /{resource}/{id}/unread", h.Mutate(model.ActionMarkUnread))
	mux.HandleFunc("DELETE /{resource}/{id}", h.Mutate(model.ActionDelete))
	mux.HandleFunc("POST /{resource}/bulk-delete", h.Mutate(model.ActionBulkDelete))
	mux.HandleFunc("POST /{resource}/bulk-read", h.Mutate(model.ActionBulkMarkRead))
}

// templateFS picks the template source: an explicit override, disk in dev mode for hot
// reloading, or the embedded copy in production.
func templateFS(services RouterServices) fs.FS {
	if services.TemplateFS != nil {
		return services.TemplateFS
	}
	if services.IsDev {
		return os.DirFS(TemplatePathFromRoot)
	}
	sub, err := fs.Sub(darahdashboard.TemplateFS, TemplatePathFromRoot)
	if err != nil {
		log.Printf("failed to create sub-filesystem for templates: %v; falling back to disk", err)
		return os.DirFS(TemplatePathFromRoot)
	}
	return sub
}

// setupUIHandlers creates UI handlers with the template renderer. Returns nil when the
// templates cannot be parsed; API routes keep working.
func setupUIHandlers(services RouterServices) *UIHandlers {
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateFS(services),
		Logger:     services.Logger,
	})
	if err != nil {
		if services.Logger != nil {
			services.Logger.Error("failed to create template renderer", slog.Any("error", err))
		} else {
			log.Printf("ERROR: failed to create template renderer: %v", err)
		}
		return nil
	}

	return &UIHandlers{
		T:           tr,
		Dashboard:   services.Dashboard,
		MaxPageSize: services.MaxPageSize,
		IsDev:       services.IsDev,
		Logger:      services.Logger,
	}
}

// staticWithFallback serves /static/* assets.
// In dev mode (isDev=true), serves from disk for hot reloading.
// In production mode (isDev=false), serves from embedded FS.
func staticWithFallback(isDev bool) http.Handler {
	if isDev {
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir(StaticPathFromRoot))), false)
	}

	staticSub, err := fs.Sub(darahdashboard.StaticFS, StaticPathFromRoot)
	if err != nil {
		log.Printf("failed to create sub-filesystem for static assets: %v", err)
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir(StaticPathFromRoot))), false)
	}
	return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))), true)
}

// staticWithCacheHeaders adds cache headers: a short public cache for embedded assets and
// none for assets served from disk in dev mode.
func staticWithCacheHeaders(handler http.Handler, cacheable bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cacheable {
			w.Header().Set("Cache-Control", "public, max-age=3600")
		} else {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}
		handler.ServeHTTP(w, r)
	})
}

// notFoundHandler wraps a ServeMux and provides custom 404 handling.
type notFoundHandler struct {
	mux        *http.ServeMux
	uiHandlers *UIHandlers
}

// ServeHTTP implements http.Handler and provides custom 404 handling.
func (h *notFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Handlers that resolve a pattern render their own not-found pages; only unmatched
	// requests need the fallback.
	if _, pattern := h.mux.Handler(r); pattern != "" {
		h.mux.ServeHTTP(w, r)
		return
	}

	cw := newCaptureWriter()
	h.mux.ServeHTTP(cw, r)
	if cw.status == http.StatusNotFound && h.uiHandlers != nil {
		h.uiHandlers.NotFound(w, r)
		return
	}
	cw.flushTo(w)
}

// captureWriter buffers headers, status and body so we can decide post-dispatch.
type captureWriter struct {
	header http.Header
	status int
	buf    bytes.Buffer
}

func newCaptureWriter() *captureWriter {
	return &captureWriter{header: make(http.Header), status: http.StatusOK}
}

func (c *captureWriter) Header() http.Header         { return c.header }
func (c *captureWriter) WriteHeader(code int)        { c.status = code }
func (c *captureWriter) Write(b []byte) (int, error) { return c.buf.Write(b) }

func (c *captureWriter) flushTo(w http.ResponseWriter) {
	for k, vs := range c.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(c.status)
	if _, err := w.Write(c.buf.Bytes()); err != nil {
		log.Printf("failed to write captured response: %v", err)
	}
}
