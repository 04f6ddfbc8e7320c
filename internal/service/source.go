package service

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/darahconnect/darah-dashboard/internal/core"
	"github.com/darahconnect/darah-dashboard/internal/domain/model"
)

// ListPage is an untyped page handed to views. Items keep their concrete model type.
type ListPage struct {
	Items      []any
	Pagination model.PaginationInfo
}

// SourceSpec describes a list resource independently of its item type.
type SourceSpec struct {
	Key      string
	Title    string
	PageSize int
	// Statuses are the status filter options, without "all".
	Statuses []string
	// Filters are the extra query parameters a list view may pass through.
	Filters []string
	Targets core.StatusTargets
	// Selectable enables bulk selection.
	Selectable bool
	// Creatable enables the create form.
	Creatable bool
}

// CanApprove reports whether items can be approved.
func (s SourceSpec) CanApprove() bool { return s.Targets.Approve != "" }

// CanReject reports whether items can be rejected.
func (s SourceSpec) CanReject() bool { return s.Targets.Reject != "" }

// AllowsFilter reports whether key is an accepted extra filter.
func (s SourceSpec) AllowsFilter(key string) bool {
	return slices.Contains(s.Filters, key)
}

// Source is a list resource wired to the API and the page cache.
type Source interface {
	Spec() SourceSpec
	// List fetches one page, through the cache when one is configured.
	List(ctx context.Context, q model.QueryState) (ListPage, error)
	// Mutate dispatches req against the page q, held for the duration of the call, and
	// returns the page as reconciled by the action's policy.
	Mutate(ctx context.Context, q model.QueryState, req model.MutationRequest, opts core.MutationDispatcherOptions) (ListPage, model.MutationOutcome, error)
	// Warm refreshes page 1 in the cache.
	Warm(ctx context.Context) error
	// Browse opens a list controller over the resource. Call Load to fetch the first page
	// and Close when done.
	Browse(opts BrowseOptions) (Browser, error)
}

type source[T model.Item[T]] struct {
	spec   SourceSpec
	origin core.PageFetcher[T]
	cached core.PageFetcher[T]
	pages  *core.PageCache
}

// NewSource binds a typed resource. origin fetches from the API; pages may be nil.
func NewSource[T model.Item[T]](spec SourceSpec, origin core.PageFetcher[T], pages *core.PageCache) (Source, error) {
	if strings.TrimSpace(spec.Key) == "" {
		return nil, errors.New("source requires a key")
	}
	if origin == nil {
		return nil, errors.New("source requires a fetcher")
	}
	if spec.PageSize <= 0 {
		spec.PageSize = model.DefaultPageSize
	}
	return &source[T]{
		spec:   spec,
		origin: origin,
		cached: core.CachedFetcher(pages, spec.Key, origin),
		pages:  pages,
	}, nil
}

func (s *source[T]) Spec() SourceSpec { return s.spec }

// query fills the parts of q a caller left zero.
func (s *source[T]) query(q model.QueryState) model.QueryState {
	q = q.Clone()
	if q.PageSize <= 0 {
		q.PageSize = s.spec.PageSize
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.StatusFilter == "" {
		q.StatusFilter = model.StatusAll
	}
	return q
}

func (s *source[T]) List(ctx context.Context, q model.QueryState) (ListPage, error) {
	page, err := s.cached.FetchPage(ctx, s.query(q))
	if err != nil {
		return ListPage{}, err
	}
	return toListPage(page), nil
}

func (s *source[T]) Mutate(
	ctx context.Context,
	q model.QueryState,
	req model.MutationRequest,
	opts core.MutationDispatcherOptions,
) (ListPage, model.MutationOutcome, error) {
	held, err := core.NewHeldPage(s.cached, s.query(q))
	if err != nil {
		return ListPage{}, model.MutationOutcome{}, err
	}
	opts.Resource = s.spec.Key
	opts.Targets = s.spec.Targets
	if req.Action != model.ActionCreate {
		if loadErr := held.Load(ctx); loadErr == nil {
			opts.List = held
		}
	} else {
		opts.List = held
	}

	d, err := core.NewMutationDispatcher(opts)
	if err != nil {
		return ListPage{}, model.MutationOutcome{}, err
	}
	out, err := d.Mutate(ctx, req)
	if err != nil {
		return ListPage{}, out, err
	}
	if !held.Loaded() {
		// The page could not be held, so show the server's view instead.
		if loadErr := held.Load(ctx); loadErr != nil {
			return ListPage{}, out, loadErr
		}
	}
	return toListPage(held.Page()), out, nil
}

func (s *source[T]) Warm(ctx context.Context) error {
	_, err := core.RefreshPage(ctx, s.pages, s.spec.Key, s.origin, model.NewQueryState(s.spec.PageSize))
	return err
}

func toListPage[T any](page model.Page[T]) ListPage {
	items := make([]any, 0, len(page.Items))
	for _, it := range page.Items {
		items = append(items, it)
	}
	return ListPage{Items: items, Pagination: page.Pagination}
}
