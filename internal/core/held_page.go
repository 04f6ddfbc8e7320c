package core

import (
	"context"
	"errors"
	"sync"

	"github.com/darahconnect/darah-dashboard/internal/domain/model"
)

// HeldPage is a single fetched page kept for the lifetime of one request. It is the
// ListReconciler used by server-rendered views, which have no long-lived controller.
type HeldPage[T model.Item[T]] struct {
	fetcher PageFetcher[T]
	query   model.QueryState

	mu     sync.Mutex
	page   model.Page[T]
	loaded bool
}

var _ ListReconciler = (*HeldPage[model.Notification])(nil)

// NewHeldPage creates a page holder for q. Call Load before reconciling against it.
func NewHeldPage[T model.Item[T]](fetcher PageFetcher[T], q model.QueryState) (*HeldPage[T], error) {
	if fetcher == nil {
		return nil, errors.New("held page requires a fetcher")
	}
	return &HeldPage[T]{fetcher: fetcher, query: q.Clone()}, nil
}

// Load fetches the page. On failure the previously held items are kept.
func (h *HeldPage[T]) Load(ctx context.Context) error {
	page, err := h.fetcher.FetchPage(ctx, h.query)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.page = page
	h.loaded = true
	h.mu.Unlock()
	return nil
}

// Loaded reports whether a fetch has succeeded.
func (h *HeldPage[T]) Loaded() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loaded
}

// Page returns a copy of the held page.
func (h *HeldPage[T]) Page() model.Page[T] {
	h.mu.Lock()
	defer h.mu.Unlock()
	return model.Page[T]{
		Items:      append([]T(nil), h.page.Items...),
		Pagination: h.page.Pagination,
	}
}

// Lookup implements ListReconciler.
func (h *HeldPage[T]) Lookup(id string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	i := model.IndexOf(h.page.Items, id)
	if i < 0 {
		return "", false
	}
	return h.page.Items[i].ItemStatus(), true
}

// Patch implements ListReconciler.
func (h *HeldPage[T]) Patch(ids []string, ch model.Change) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, id := range ids {
		if model.ApplyChange(h.page.Items, id, ch) {
			n++
		}
	}
	return n
}

// Remove implements ListReconciler.
func (h *HeldPage[T]) Remove(ids ...string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	var n int
	h.page.Items, n = model.RemoveIDs(h.page.Items, ids...)
	if n > 0 {
		h.page.Pagination.TotalItems = max(h.page.Pagination.TotalItems-n, 0)
	}
	return n
}

// Refetch implements ListReconciler. Unlike ListController it blocks until the fetch completes.
func (h *HeldPage[T]) Refetch(ctx context.Context) error {
	return h.Load(ctx)
}
