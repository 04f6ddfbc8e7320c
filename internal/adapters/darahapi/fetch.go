package darahapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/darahconnect/darah-dashboard/internal/core"
	"github.com/darahconnect/darah-dashboard/internal/domain/model"
)

// FetchPage issues GET {path}?page&limit&search&status&... for q and maps the normalized
// items through r.Map. Fixed resource parameters take precedence over query filters.
// Unpaged resources are fetched whole and narrowed to q locally.
func FetchPage[T model.Item[T]](ctx context.Context, c *Client, r Resource[T], q model.QueryState) (model.Page[T], error) {
	if q.PageSize <= 0 {
		q.PageSize = r.PageSize
	}
	params := url.Values{}
	if !r.Unpaged {
		params = q.Values()
	}
	for k, v := range r.Fixed {
		params.Set(k, v)
	}

	body, err := c.send(ctx, http.MethodGet, r.Path, params, nil)
	if err != nil {
		return model.Page[T]{}, err
	}

	raw, shape, err := Normalize(body, q.PageSize)
	if err != nil {
		return model.Page[T]{}, toAppError(&APIError{
			Kind: KindDecode, Method: http.MethodGet, Path: r.Path, Message: "Invalid response from server", Err: err,
		})
	}
	if shape == ShapeUnknown {
		c.logger.WarnContext(ctx, "unexpected list response shape", "resource", r.Key, "path", r.Path)
	}

	items := make([]T, 0, len(raw.Items))
	for _, it := range raw.Items {
		items = append(items, r.Map(NewRecord(it)))
	}
	if r.Unpaged {
		return pageLocally(items, q, r.Match), nil
	}
	return model.Page[T]{Items: items, Pagination: raw.Pagination}, nil
}

// pageLocally keeps the items matching q and cuts out page q.Page. Out-of-range
// pages are clamped to the last page.
func pageLocally[T any](items []T, q model.QueryState, match func(T, model.QueryState) bool) model.Page[T] {
	kept := make([]T, 0, len(items))
	for _, it := range items {
		if match == nil || match(it, q) {
			kept = append(kept, it)
		}
	}

	limit := max(q.PageSize, 1)
	pages := max((len(kept)+limit-1)/limit, 1)
	page := min(max(q.Page, 1), pages)
	start := (page - 1) * limit
	end := min(start+limit, len(kept))
	return model.Page[T]{
		Items: kept[start:end],
		Pagination: model.PaginationInfo{
			CurrentPage: page,
			PerPage:     limit,
			TotalItems:  len(kept),
			TotalPages:  pages,
		},
	}
}

// NewFetcher binds FetchPage to a client and resource.
func NewFetcher[T model.Item[T]](c *Client, r Resource[T]) core.PageFetcher[T] {
	return core.PageFetcherFunc[T](func(ctx context.Context, q model.QueryState) (model.Page[T], error) {
		return FetchPage(ctx, c, r, q)
	})
}
