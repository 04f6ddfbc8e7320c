package httpx

import (
	"context"
	"errors"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/darahconnect/darah-dashboard/internal/domain/model"
	"github.com/darahconnect/darah-dashboard/internal/http/ui/viewmodel"
	"github.com/darahconnect/darah-dashboard/internal/service"
)

// Toast types understood by the client-side showToast handler.
const (
	toastSuccess = "success"
	toastWarning = "warning"
	toastError   = "error"
)

var errNotFound = errors.New("resource not found")

// DashboardService is the slice of the dashboard service the UI needs.
type DashboardService interface {
	Keys() []string
	Source(key string) (service.Source, error)
	List(ctx context.Context, resource string, q model.QueryState) (service.ListPage, error)
	Mutate(ctx context.Context, in service.MutationInput) (service.MutationResult, error)
	Summary(ctx context.Context) service.Summary
	AuditLog(ctx context.Context, opts model.AuditListOptions) ([]*model.AuditEntry, error)
}

// Compile-time interface assertion to ensure the concrete service satisfies the UI interface.
var _ DashboardService = (*service.DashboardService)(nil)

// UIHandlers serves browser-facing routes.
type UIHandlers struct {
	T           *TemplateRenderer
	Dashboard   DashboardService
	MaxPageSize int
	IsDev       bool // Development mode flag for enhanced error reporting
	Logger      *slog.Logger
}

// logger returns the configured logger or falls back to slog.Default().
func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *UIHandlers) maxPageSize() int {
	if h.MaxPageSize > 0 {
		return h.MaxPageSize
	}
	return defaultMaxPageSize
}

// pageOpts represents pagination options for list views.
type pageOpts struct {
	Page     int
	PageSize int
}

// getPageParams parses pagination params from URL query. Zero means "use the resource default".
func getPageParams(q url.Values, maxPageSize int) pageOpts {
	var p pageOpts
	if v := q.Get(paramPage); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Page = n
		}
	}
	if v := q.Get(paramPageSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxPageSize {
			p.PageSize = n
		}
	}
	return p
}

// triggerToast sends a standardized HX-Trigger payload for toast notifications.
func triggerToast(w http.ResponseWriter, message, toastType string) {
	if w == nil || strings.TrimSpace(message) == "" {
		return
	}
	HTMX(w).Trigger("showToast", map[string]any{
		"message": message,
		"type":    strings.TrimSpace(toastType),
	})
}

// buildPageURL returns a URL with page and page_size set, preserving other query params.
// basePath should be the path without query string (e.g., "/donors").
// Whitespace-only values and htmx transport params are dropped.
func buildPageURL(basePath string, q url.Values, p pageOpts) string {
	qq := make(url.Values, len(q))
	for k, v := range q {
		if strings.HasPrefix(k, "hx-") || strings.HasPrefix(k, "hx_") {
			continue
		}
		if len(v) == 0 {
			continue
		}
		tmp := make([]string, 0, len(v))
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				tmp = append(tmp, s)
			}
		}
		if len(tmp) > 0 {
			qq[k] = tmp
		}
	}
	if p.Page > 0 {
		qq.Set(paramPage, strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		qq.Set(paramPageSize, strconv.Itoa(p.PageSize))
	}
	if enc := qq.Encode(); enc != "" {
		return basePath + "?" + enc
	}
	return basePath
}

// PageMeta contains metadata for page rendering.
type PageMeta struct {
	Title       string
	PageTitle   string
	CurrentPage string
}

// buildLayout constructs shared layout metadata from the request/session context.
func buildLayout(r *http.Request, meta PageMeta) viewmodel.Layout {
	layout := viewmodel.Layout{
		Title:       meta.Title,
		PageTitle:   meta.PageTitle,
		CurrentPage: meta.CurrentPage,
	}
	if r == nil {
		return layout
	}
	if s := model.SessionFrom(r.Context()); s != nil {
		layout.IsAuthenticated = true
		layout.Operator = &viewmodel.Operator{Name: s.AdminName, Email: s.Email}
	}
	return layout
}

// basePageData constructs the common page data map with operator context.
func basePageData(r *http.Request, meta PageMeta) map[string]any {
	layout := buildLayout(r, meta)
	data := map[string]any{
		"Title":           layout.Title,
		"PageTitle":       layout.PageTitle,
		"CurrentPage":     layout.CurrentPage,
		"IsAuthenticated": layout.IsAuthenticated,
	}
	if layout.Operator != nil {
		data["Operator"] = layout.Operator
	}
	return data
}

// navItems builds the sidebar from the registered resources, marking the one at path.
func (h *UIHandlers) navItems(path string) []viewmodel.NavItem {
	items := []viewmodel.NavItem{{Key: PageDashboard, Title: "Dashboard", Path: "/", Active: path == "/"}}
	if h.Dashboard == nil {
		return items
	}
	for _, key := range h.Dashboard.Keys() {
		src, err := h.Dashboard.Source(key)
		if err != nil {
			continue
		}
		p := "/" + key
		items = append(items, viewmodel.NavItem{
			Key:    key,
			Title:  src.Spec().Title,
			Path:   p,
			Active: path == p || strings.HasPrefix(path, p+"/"),
		})
	}
	return append(items, viewmodel.NavItem{
		Key:    PageAudit,
		Title:  "Audit",
		Path:   "/audit",
		Active: path == "/audit",
	})
}

// PageSpec defines metadata and an optional fetch for page-specific data.
type PageSpec struct {
	Meta  PageMeta
	Fetch func(ctx context.Context, data map[string]any) error
}

// Page builds base data, optionally fetches content data, and renders.
func (h *UIHandlers) Page(w http.ResponseWriter, r *http.Request, spec PageSpec) {
	data := basePageData(r, spec.Meta)
	if spec.Fetch != nil {
		if err := spec.Fetch(r.Context(), data); err != nil {
			h.logger().WarnContext(r.Context(), "page fetch failed", "page", spec.Meta.CurrentPage, "error", err)
			if _, ok := data["ErrorMessage"]; !ok {
				data["ErrorMessage"] = userMessage(err)
			}
			markPageError(data)
		}
	}
	h.renderDashboardPage(w, r, data)
}

// renderDashboardPage renders a dashboard page with proper HTMX partial support.
func (h *UIHandlers) renderDashboardPage(w http.ResponseWriter, r *http.Request, data any) {
	if m, ok := data.(map[string]any); ok {
		if _, has := m["Nav"]; !has {
			m["Nav"] = h.navItems(r.URL.Path)
		}
	}

	if !WantsPartial(r) {
		if err := h.T.RenderFull(w, r, data); err != nil {
			h.logAndRenderTemplateError(w, r, err, "full page render")
		}
		return
	}

	// For HTMX requests, render the content plus out-of-band header updates
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	// Hint client JS to update nav active state based on current path
	SetHXTrigger(w, "nav:activate", map[string]string{"path": r.URL.Path})

	layout := extractLayoutInfo(data)

	// Include a <title> element so htmx updates document.title on partial swaps
	safeDocTitle := html.EscapeString(layout.Title)
	if _, err := w.Write([]byte(`<title>` + safeDocTitle + `</title>`)); err != nil {
		h.logger().Error("failed to write partial document title", "error", err)
		return
	}

	safeTitle := html.EscapeString(layout.PageTitle)
	if _, err := w.Write([]byte(`<h1 id="header-title" class="header-title" hx-swap-oob="outerHTML">` + safeTitle + `</h1>`)); err != nil {
		h.logger().Error("failed to write partial header title", "error", err)
		return
	}

	if err := h.T.execute(w, ContentTemplateFor(layout.CurrentPage), data); err != nil {
		h.logAndRenderTemplateError(w, r, err, "partial content render")
		return
	}
}

func markPageError(data map[string]any) {
	data["Error"] = true
	if _, ok := data["ErrorMessage"]; ok {
		return
	}
	data["ErrorMessage"] = "An unexpected error occurred. Please try again."
}

func extractLayoutInfo(data any) viewmodel.Layout {
	switch v := data.(type) {
	case viewmodel.LayoutProvider:
		if l := v.LayoutData(); l != nil {
			return *l
		}
	case viewmodel.Layout:
		return v
	case *viewmodel.Layout:
		if v != nil {
			return *v
		}
	case map[string]any:
		layout := viewmodel.Layout{}
		layout.Title, _ = v["Title"].(string)
		layout.PageTitle, _ = v["PageTitle"].(string)
		layout.CurrentPage, _ = v["CurrentPage"].(string)
		return layout
	}
	return viewmodel.Layout{}
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
		errHTML := html.EscapeString(err.Error())
		pathHTML := html.EscapeString(r.URL.Path)
		contextHTML := html.EscapeString(context)
		if _, writeErr := w.Write([]byte(`<div class="dev-error"><h2>Template Rendering Error</h2>` +
			`<p><strong>Context:</strong> ` + contextHTML + `</p>` +
			`<p><strong>Path:</strong> ` + pathHTML + `</p>` +
			`<pre>` + errHTML + `</pre></div>`)); writeErr != nil {
			h.logger().Error("failed to write template error response", "error", writeErr)
		}
		return
	}

	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// NotFound renders the not-found page for browsers and a JSON error for API clients.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if !IsBrowserRequest(r) || h.T == nil {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errNotFound})
		return
	}
	data := basePageData(r, PageMeta{Title: "Not found", PageTitle: "Not found"})
	data["ErrorMessage"] = "The page you requested does not exist."
	data["StatusCode"] = http.StatusNotFound
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	if err := h.T.RenderError(w, r, data); err != nil {
		h.logger().Error("failed to render not found page", "error", err)
	}
}
