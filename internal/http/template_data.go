package httpx

import (
	"net/http"
	"net/url"

	"github.com/darahconnect/darah-dashboard/internal/domain/model"
	"github.com/darahconnect/darah-dashboard/internal/http/ui/viewmodel"
)

// maxPageLinks bounds the numbered page buttons shown around the current page.
const maxPageLinks = 7

// PaginationData contains the inputs for building list pagination.
type PaginationData struct {
	Info     model.PaginationInfo
	Shown    int // items on the current page
	BasePath string
	// Query is carried into page URLs. Defaults to the request query.
	Query url.Values
}

// TemplateDataBuilder provides a fluent API for building template data maps.
type TemplateDataBuilder struct {
	data map[string]any
	r    *http.Request
}

// NewTemplateData creates a new TemplateDataBuilder initialized with basePageData.
func NewTemplateData(r *http.Request, meta PageMeta) *TemplateDataBuilder {
	return &TemplateDataBuilder{
		data: basePageData(r, meta),
		r:    r,
	}
}

// WithPagination adds pagination data with page URLs that keep the current filters.
func (b *TemplateDataBuilder) WithPagination(opts PaginationData) *TemplateDataBuilder {
	q := opts.Query
	if q == nil && b.r != nil {
		q = b.r.URL.Query()
	}
	b.data["Pagination"] = buildPagination(opts, q)
	return b
}

// WithError sets a general error message.
func (b *TemplateDataBuilder) WithError(msg string) *TemplateDataBuilder {
	b.data["Error"] = true
	b.data["ErrorMessage"] = msg
	return b
}

// WithFieldErrors adds field-level validation errors.
func (b *TemplateDataBuilder) WithFieldErrors(errs map[string]string) *TemplateDataBuilder {
	if len(errs) > 0 {
		b.data["Errors"] = errs
	}
	return b
}

// With adds a custom field to the template data.
func (b *TemplateDataBuilder) With(key string, value any) *TemplateDataBuilder {
	b.data[key] = value
	return b
}

// Build returns the final template data map.
func (b *TemplateDataBuilder) Build() map[string]any {
	return b.data
}

func buildPagination(opts PaginationData, q url.Values) viewmodel.Pagination {
	info := opts.Info
	start, end := info.Range(opts.Shown)
	p := viewmodel.Pagination{
		Page:       info.CurrentPage,
		PageSize:   info.PerPage,
		TotalPages: info.TotalPages,
		TotalCount: info.TotalItems,
		HasPrev:    info.HasPrev(),
		HasNext:    info.HasNext(),
		StartIndex: start,
		EndIndex:   end,
		Visible:    info.Multiple(),
	}
	if !p.Visible {
		return p
	}

	if p.HasPrev {
		p.PrevURL = buildPageURL(opts.BasePath, q, pageOpts{Page: info.CurrentPage - 1, PageSize: info.PerPage})
	}
	if p.HasNext {
		p.NextURL = buildPageURL(opts.BasePath, q, pageOpts{Page: info.CurrentPage + 1, PageSize: info.PerPage})
	}

	first, last := pageWindow(info.CurrentPage, info.TotalPages, maxPageLinks)
	for n := first; n <= last; n++ {
		p.Links = append(p.Links, viewmodel.PageLink{
			Number:  n,
			URL:     buildPageURL(opts.BasePath, q, pageOpts{Page: n, PageSize: info.PerPage}),
			Current: n == info.CurrentPage,
		})
	}
	return p
}

// pageWindow returns the first and last page number of a window of at most size pages
// centred on current and clamped to [1, total].
func pageWindow(current, total, size int) (int, int) {
	if total <= size {
		return 1, total
	}
	first := max(current-size/2, 1)
	last := first + size - 1
	if last > total {
		last = total
		first = total - size + 1
	}
	return first, last
}
