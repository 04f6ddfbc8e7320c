package httpx

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/darahconnect/darah-dashboard/internal/domain/model"
	apperrors "github.com/darahconnect/darah-dashboard/internal/errors"
	"github.com/darahconnect/darah-dashboard/internal/http/ui/viewmodel"
)

// limitAndOffset returns the limit/offset for a page fetch, asking for one extra item
// so the next page can be detected without a count query.
func (p pageOpts) limitAndOffset() (int, int) {
	page := max(p.Page, 1)
	pageSize := p.PageSize
	if pageSize <= 0 {
		pageSize = defaultAuditLimit
	}
	return pageSize + 1, (page - 1) * pageSize
}

// paginate is a generic paginator for limit/offset list endpoints.
func paginate[T any](
	ctx context.Context,
	p pageOpts,
	fetch func(context.Context, int, int) ([]T, error),
) ([]T, viewmodel.Pagination, error) {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = defaultAuditLimit
	}
	limit, offset := p.limitAndOffset()
	items, err := fetch(ctx, limit, offset)
	if err != nil {
		return nil, viewmodel.Pagination{}, err
	}
	pg := viewmodel.Pagination{Page: p.Page, PageSize: p.PageSize, HasPrev: p.Page > 1}
	if len(items) > p.PageSize {
		pg.HasNext = true
		items = items[:p.PageSize]
	}
	if len(items) > 0 {
		pg.StartIndex = offset + 1
		pg.EndIndex = offset + len(items)
	}
	pg.Visible = pg.HasPrev || pg.HasNext
	return items, pg, nil
}

// Audit renders the mutation audit trail, optionally filtered by resource.
func (h *UIHandlers) Audit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resource := strings.TrimSpace(q.Get("resource"))
	p := getPageParams(q, h.maxPageSize())

	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "Audit · DarahConnect", PageTitle: "Audit log", CurrentPage: PageAudit},
		Fetch: func(ctx context.Context, data map[string]any) error {
			data["Resource"] = resource
			if h.Dashboard == nil {
				return apperrors.Unavailable("Audit log is not configured")
			}
			data["Resources"] = h.Dashboard.Keys()
			entries, pg, err := paginate(ctx, p, func(ctx context.Context, limit, offset int) ([]*model.AuditEntry, error) {
				return h.Dashboard.AuditLog(ctx, model.AuditListOptions{Resource: resource, Limit: limit, Offset: offset})
			})
			if err != nil {
				return err
			}
			auditPageURLs(&pg, q)
			data["Entries"] = entries
			data["Pagination"] = pg
			return nil
		},
	})
}

func auditPageURLs(pg *viewmodel.Pagination, q url.Values) {
	if pg.HasPrev {
		pg.PrevURL = buildPageURL("/audit", q, pageOpts{Page: pg.Page - 1, PageSize: pg.PageSize})
	}
	if pg.HasNext {
		pg.NextURL = buildPageURL("/audit", q, pageOpts{Page: pg.Page + 1, PageSize: pg.PageSize})
	}
}
