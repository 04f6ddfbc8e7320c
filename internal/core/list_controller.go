package core

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/darahconnect/darah-dashboard/internal/domain/model"
	apperrors "github.com/darahconnect/darah-dashboard/internal/errors"
)

// DefaultSearchDebounce is the quiet period after the last keystroke before a search fetch fires.
const DefaultSearchDebounce = 500 * time.Millisecond

const genericFetchError = "Gagal memuat data. Silakan coba lagi."

// ListSnapshot is a consistent view of a list controller's state.
type ListSnapshot[T any] struct {
	Query      model.QueryState
	Items      []T
	Pagination model.PaginationInfo
	Err        string
	Loading    bool
}

// ListControllerOptions configures a ListController.
type ListControllerOptions[T model.Item[T]] struct {
	// Fetcher loads pages (required).
	Fetcher PageFetcher[T]
	// Query is the initial query; zero value means model.NewQueryState(PageSize).
	Query model.QueryState
	// PageSize is used when Query is zero.
	PageSize int
	// Debounce is the search quiet period (default 500ms).
	Debounce time.Duration
	// Clock schedules the debounced search; defaults to SystemClock.
	Clock Clock
	// OnChange is called outside the lock after every state transition.
	OnChange func(ListSnapshot[T])
	Logger   *slog.Logger
}

// ListController owns the query, the held items, and pagination for a single list view.
// Search input is debounced; status, filter, and page changes fetch immediately. Only the
// response to the most recently issued fetch is applied.
type ListController[T model.Item[T]] struct {
	fetcher  PageFetcher[T]
	clock    Clock
	debounce time.Duration
	onChange func(ListSnapshot[T])
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu             sync.Mutex
	query          model.QueryState
	items          []T
	pagination     model.PaginationInfo
	errMsg         string
	loading        bool
	seq            uint64
	timer          Timer
	timerGen       uint64
	cancelInflight context.CancelFunc
	closed         bool
}

// NewListController creates a controller. Call Load to issue the initial fetch.
func NewListController[T model.Item[T]](opts ListControllerOptions[T]) (*ListController[T], error) {
	if opts.Fetcher == nil {
		return nil, errors.New("list controller requires a fetcher")
	}
	q := opts.Query
	if q.PageSize <= 0 || q.Page <= 0 {
		q = model.NewQueryState(opts.PageSize)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultSearchDebounce
	}
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &ListController[T]{
		fetcher:    opts.Fetcher,
		clock:      clock,
		debounce:   debounce,
		onChange:   opts.OnChange,
		logger:     logger.With("component", "list_controller"),
		ctx:        ctx,
		cancel:     cancel,
		query:      q.Clone(),
		pagination: model.PaginationInfo{CurrentPage: q.Page, PerPage: q.PageSize, TotalPages: 1},
	}, nil
}

// Load issues a fetch for the current query.
func (c *ListController[T]) Load() {
	c.fetch()
}

// SetSearchTerm records the term immediately and schedules a fetch after the debounce
// window. Each call cancels the previously scheduled fetch.
func (c *ListController[T]) SetSearchTerm(term string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.query = c.query.WithSearch(term)
	c.stopTimerLocked()
	gen := c.timerGen
	c.timer = c.clock.AfterFunc(c.debounce, func() { c.debouncedFetch(gen) })
	c.mu.Unlock()
	c.notify()
}

// SetStatusFilter replaces the status filter, resets to page 1, and fetches immediately.
func (c *ListController[T]) SetStatusFilter(status string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.query = c.query.WithStatus(status)
	c.stopTimerLocked()
	c.mu.Unlock()
	c.fetch()
}

// SetFilter sets a resource-specific filter, resets to page 1, and fetches immediately.
func (c *ListController[T]) SetFilter(key, value string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.query = c.query.WithFilter(key, value)
	c.stopTimerLocked()
	c.mu.Unlock()
	c.fetch()
}

// SetPage moves to page p and fetches. Requests outside 1..totalPages or for the
// current page are ignored; the return value reports whether a fetch was issued.
func (c *ListController[T]) SetPage(p int) bool {
	c.mu.Lock()
	total := max(c.pagination.TotalPages, 1)
	if c.closed || p < 1 || p > total || p == c.query.Page {
		c.mu.Unlock()
		return false
	}
	c.query = c.query.Clone()
	c.query.Page = p
	c.stopTimerLocked()
	c.mu.Unlock()
	c.fetch()
	return true
}

// EffectiveQuery returns a copy of the current query.
func (c *ListController[T]) EffectiveQuery() model.QueryState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query.Clone()
}

// Snapshot returns a copy of the controller state.
func (c *ListController[T]) Snapshot() ListSnapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Wait blocks until every issued fetch has completed.
func (c *ListController[T]) Wait() {
	c.wg.Wait()
}

// Close cancels the pending debounce and any in-flight fetch. Later setters are ignored.
func (c *ListController[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopTimerLocked()
	c.mu.Unlock()
	c.cancel()
}

// Lookup implements ListReconciler.
func (c *ListController[T]) Lookup(id string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := model.IndexOf(c.items, id)
	if i < 0 {
		return "", false
	}
	return c.items[i].ItemStatus(), true
}

// Patch implements ListReconciler.
func (c *ListController[T]) Patch(ids []string, ch model.Change) int {
	c.mu.Lock()
	n := 0
	for _, id := range ids {
		if model.ApplyChange(c.items, id, ch) {
			n++
		}
	}
	c.mu.Unlock()
	if n > 0 {
		c.notify()
	}
	return n
}

// Remove implements ListReconciler.
func (c *ListController[T]) Remove(ids ...string) int {
	c.mu.Lock()
	var n int
	c.items, n = model.RemoveIDs(c.items, ids...)
	if n > 0 {
		c.pagination.TotalItems = max(c.pagination.TotalItems-n, 0)
	}
	c.mu.Unlock()
	if n > 0 {
		c.notify()
	}
	return n
}

// Refetch implements ListReconciler. The fetch runs asynchronously; use Wait to block on it.
func (c *ListController[T]) Refetch(_ context.Context) error {
	c.fetch()
	return nil
}

// debouncedFetch runs when a search timer fires. A timer that was superseded after it
// fired but before it acquired the lock carries an old generation and is dropped.
func (c *ListController[T]) debouncedFetch(gen uint64) {
	c.mu.Lock()
	if gen != c.timerGen || c.closed {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.mu.Unlock()
	c.fetch()
}

func (c *ListController[T]) fetch() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.seq++
	seq := c.seq
	q := c.query.Clone()
	if c.cancelInflight != nil {
		c.cancelInflight()
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancelInflight = cancel
	c.loading = true
	c.wg.Add(1)
	c.mu.Unlock()
	c.notify()

	go func() {
		defer c.wg.Done()
		defer cancel()
		page, err := c.fetcher.FetchPage(ctx, q)
		c.apply(seq, page, err)
	}()
}

func (c *ListController[T]) apply(seq uint64, page model.Page[T], err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if seq != c.seq {
		c.mu.Unlock()
		c.logger.Debug("discarding stale list response", "seq", seq)
		return
	}
	c.loading = false
	c.cancelInflight = nil
	if err != nil {
		// Previous items stay in place; only the error banner changes.
		c.errMsg = apperrors.UserMessage(err, genericFetchError)
		pageNo := c.query.Page
		c.mu.Unlock()
		c.logger.Warn("list fetch failed", "error", err, "page", pageNo)
		c.notify()
		return
	}
	c.items = page.Items
	c.pagination = page.Pagination
	if c.pagination.TotalPages < 1 {
		c.pagination.TotalPages = 1
	}
	c.errMsg = ""
	c.mu.Unlock()
	c.notify()
}

func (c *ListController[T]) stopTimerLocked() {
	c.timerGen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *ListController[T]) snapshotLocked() ListSnapshot[T] {
	return ListSnapshot[T]{
		Query:      c.query.Clone(),
		Items:      append([]T(nil), c.items...),
		Pagination: c.pagination,
		Err:        c.errMsg,
		Loading:    c.loading,
	}
}

func (c *ListController[T]) notify() {
	if c.onChange == nil {
		return
	}
	c.onChange(c.Snapshot())
}
