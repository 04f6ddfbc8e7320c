package httpx

import (
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/darahconnect/darah-dashboard/internal/domain/model"
	"github.com/darahconnect/darah-dashboard/internal/service"
)

// listResultsTarget is the element id of the swappable results region under the filter bar.
const listResultsTarget = "list-results"

// queryFromValues builds the list query for spec from request values. Unknown statuses
// fall back to "all" and only the resource's declared filters pass through.
func queryFromValues(spec service.SourceSpec, v url.Values, maxPageSize int) model.QueryState {
	q := model.NewQueryState(spec.PageSize)
	q = q.WithSearch(v.Get(paramSearch))
	if status := strings.TrimSpace(v.Get(paramStatus)); slices.Contains(spec.Statuses, status) {
		q = q.WithStatus(status)
	}
	for _, f := range spec.Filters {
		q = q.WithFilter(f, v.Get(f))
	}
	p := getPageParams(v, maxPageSize)
	if p.Page > 0 {
		q.Page = p.Page
	}
	if p.PageSize > 0 {
		q.PageSize = p.PageSize
	}
	return q
}

// filterValues returns the query's search, status, and filters as URL values, without paging.
func filterValues(q model.QueryState) url.Values {
	v := url.Values{}
	if s := q.TrimmedSearch(); s != "" {
		v.Set(paramSearch, s)
	}
	if q.HasStatusFilter() {
		v.Set(paramStatus, q.StatusFilter)
	}
	for k, val := range q.Filters {
		v.Set(k, val)
	}
	return v
}

// listMeta is the page metadata for a resource list.
func listMeta(spec service.SourceSpec) PageMeta {
	return PageMeta{
		Title:       spec.Title + " · DarahConnect",
		PageTitle:   spec.Title,
		CurrentPage: PageList,
	}
}

// withListFrame adds the filter bar and form context shared by full renders and partial swaps.
func withListFrame(b *TemplateDataBuilder, spec service.SourceSpec, q model.QueryState) *TemplateDataBuilder {
	filters := make(map[string]string, len(spec.Filters))
	for _, f := range spec.Filters {
		filters[f] = q.Filters[f]
	}
	status := q.StatusFilter
	if !q.HasStatusFilter() {
		status = model.StatusAll
	}
	b.With("Resource", spec).
		With("BasePath", "/"+spec.Key).
		With("Query", q).
		With("Search", q.TrimmedSearch()).
		With("Status", status).
		With("FilterValues", filters).
		With("Filtered", q.TrimmedSearch() != "" || q.HasStatusFilter() || len(q.Filters) > 0)
	if spec.Key == "notifications" {
		b.With("NotificationTypes", model.NotificationTypes())
	}
	return b
}

// withListPage adds the table and pagination for page.
func withListPage(b *TemplateDataBuilder, spec service.SourceSpec, q model.QueryState, page service.ListPage) *TemplateDataBuilder {
	table := buildTable(spec.Key, page.Items)
	return b.With("Table", table).
		With("Empty", table.Empty()).
		WithPagination(PaginationData{
			Info:     page.Pagination,
			Shown:    len(table.Rows),
			BasePath: "/" + spec.Key,
			Query:    filterValues(q),
		})
}

// List renders one page of a resource list.
func (h *UIHandlers) List(w http.ResponseWriter, r *http.Request) {
	src, ok := h.source(w, r)
	if !ok {
		return
	}
	spec := src.Spec()
	q := queryFromValues(spec, r.URL.Query(), h.maxPageSize())
	partial := IsHTMX(r) && r.Header.Get("Hx-Target") == listResultsTarget

	b := withListFrame(NewTemplateData(r, listMeta(spec)), spec, q)

	page, err := h.Dashboard.List(r.Context(), spec.Key, q)
	if err != nil {
		h.logger().WarnContext(r.Context(), "list fetch failed", "resource", spec.Key, "error", err)
		if partial {
			// Keep the rows already on screen and report the failure as a toast.
			triggerToast(w, userMessage(err), toastError)
			HTMX(w).NoContent()
			return
		}
		b.WithError(userMessage(err)).With("RetryURL", r.URL.RequestURI())
		h.renderDashboardPage(w, r, b.Build())
		return
	}
	withListPage(b, spec, q, page)

	if partial {
		h.renderListResults(w, r, b.Build())
		return
	}
	h.renderDashboardPage(w, r, b.Build())
}

// renderListResults renders only the results region for an htmx swap.
func (h *UIHandlers) renderListResults(w http.ResponseWriter, r *http.Request, data map[string]any) {
	if err := h.T.RenderPartial(w, listResultsTarget, data); err != nil {
		h.logAndRenderTemplateError(w, r, err, "list results render")
	}
}

// source resolves the {resource} path segment, writing a not-found response when unknown.
func (h *UIHandlers) source(w http.ResponseWriter, r *http.Request) (service.Source, bool) {
	if h.Dashboard == nil {
		h.NotFound(w, r)
		return nil, false
	}
	src, err := h.Dashboard.Source(r.PathValue("resource"))
	if err != nil {
		h.NotFound(w, r)
		return nil, false
	}
	return src, true
}

// parsePositiveInt parses a form value as a positive integer id.
func parsePositiveInt(raw string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	return n, err == nil && n > 0
}
