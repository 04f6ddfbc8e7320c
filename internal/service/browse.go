package service

import (
	"log/slog"
	"time"

	"github.com/darahconnect/darah-dashboard/internal/core"
	"github.com/darahconnect/darah-dashboard/internal/domain/model"
)

// BrowseSnapshot is a list controller snapshot with the item type erased.
type BrowseSnapshot struct {
	Query      model.QueryState
	Items      []any
	Pagination model.PaginationInfo
	Err        string
	Loading    bool
}

// Browser is a long-lived list view over one resource. It debounces search input, drops
// stale responses, and can be handed to Dispatcher as the list a mutation reconciles.
type Browser interface {
	core.ListReconciler
	Load()
	SetSearchTerm(term string)
	SetStatusFilter(status string)
	SetFilter(key, value string)
	SetPage(p int) bool
	Snapshot() BrowseSnapshot
	Wait()
	Close()
}

// BrowseOptions configures a Browser. All fields are optional.
type BrowseOptions struct {
	Query    model.QueryState
	Debounce time.Duration
	OnChange func(BrowseSnapshot)
	Logger   *slog.Logger
}

type browser[T model.Item[T]] struct {
	*core.ListController[T]
}

func (b browser[T]) Snapshot() BrowseSnapshot {
	return eraseSnapshot(b.ListController.Snapshot())
}

func eraseSnapshot[T any](s core.ListSnapshot[T]) BrowseSnapshot {
	items := make([]any, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, it)
	}
	return BrowseSnapshot{
		Query:      s.Query,
		Items:      items,
		Pagination: s.Pagination,
		Err:        s.Err,
		Loading:    s.Loading,
	}
}

func (s *source[T]) Browse(opts BrowseOptions) (Browser, error) {
	var onChange func(core.ListSnapshot[T])
	if opts.OnChange != nil {
		onChange = func(snap core.ListSnapshot[T]) { opts.OnChange(eraseSnapshot(snap)) }
	}
	logger := opts.Logger
	if logger != nil {
		logger = logger.With("resource", s.spec.Key)
	}
	ctrl, err := core.NewListController(core.ListControllerOptions[T]{
		Fetcher:  s.cached,
		Query:    opts.Query,
		PageSize: s.spec.PageSize,
		Debounce: opts.Debounce,
		OnChange: onChange,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	return browser[T]{ctrl}, nil
}
