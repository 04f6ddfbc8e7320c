// Package service wires list resources, mutations, and background cache warming for the dashboard.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/darahconnect/darah-dashboard/internal/core"
	"github.com/darahconnect/darah-dashboard/internal/domain/model"
	apperrors "github.com/darahconnect/darah-dashboard/internal/errors"
)

const summaryConcurrency = 4

// MutationDeps groups the collaborators every mutation dispatcher is built with.
type MutationDeps struct {
	Mutator     core.Mutator          // Required: issues upstream mutations
	Audit       core.AuditRepository  // Optional: mutation audit trail
	Cache       core.CacheInvalidator // Optional: page cache invalidation
	Observer    core.MutationObserver // Optional: mutation timings
	Validate    func(any) error       // Optional: create payload validation
	Concurrency int                   // Optional: bulk fan-out limit
}

// DashboardServiceOptions groups dependencies for DashboardService.
type DashboardServiceOptions struct {
	Sources   []Source     // Required: list resources
	Mutations MutationDeps // Required: Mutator must be set
	Logger    *slog.Logger // Optional: structured logger
}

// DashboardService serves list pages, mutations, the summary, and the audit log.
type DashboardService struct {
	sources map[string]Source
	order   []string
	deps    MutationDeps
	logger  *slog.Logger
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(opts DashboardServiceOptions) (*DashboardService, error) {
	if len(opts.Sources) == 0 {
		return nil, errors.New("at least one source is required")
	}
	if opts.Mutations.Mutator == nil {
		return nil, errors.New("mutator is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sources := make(map[string]Source, len(opts.Sources))
	order := make([]string, 0, len(opts.Sources))
	for _, src := range opts.Sources {
		if src == nil {
			return nil, errors.New("nil source")
		}
		key := src.Spec().Key
		if _, dup := sources[key]; dup {
			return nil, fmt.Errorf("duplicate source %q", key)
		}
		sources[key] = src
		order = append(order, key)
	}

	return &DashboardService{
		sources: sources,
		order:   order,
		deps:    opts.Mutations,
		logger:  logger.With("component", "dashboard_service"),
	}, nil
}

// Source returns the source registered under key.
func (s *DashboardService) Source(key string) (Source, error) {
	src, ok := s.sources[key]
	if !ok {
		return nil, apperrors.NotFoundf("unknown resource %q", key)
	}
	return src, nil
}

// Keys returns the resource keys in registration order.
func (s *DashboardService) Keys() []string {
	return append([]string(nil), s.order...)
}

// List fetches one page of resource.
func (s *DashboardService) List(ctx context.Context, resource string, q model.QueryState) (ListPage, error) {
	src, err := s.Source(resource)
	if err != nil {
		return ListPage{}, err
	}
	page, err := src.List(ctx, q)
	if err != nil {
		return ListPage{}, fmt.Errorf("list %s: %w", resource, err)
	}
	return page, nil
}

// MutationInput is one mutation issued from a list view.
type MutationInput struct {
	Request model.MutationRequest
	// Query is the list view the mutation was issued from; its page is reconciled.
	Query model.QueryState
	// Selection is the bulk selection, cleared after any bulk action. Optional.
	Selection *model.SelectionSet
}

// MutationResult is the reconciled list view after a mutation.
type MutationResult struct {
	Page    ListPage
	Outcome model.MutationOutcome
}

// Mutate dispatches in.Request and returns the reconciled page.
func (s *DashboardService) Mutate(ctx context.Context, in MutationInput) (MutationResult, error) {
	src, err := s.Source(in.Request.Resource)
	if err != nil {
		return MutationResult{}, err
	}
	page, out, err := src.Mutate(ctx, in.Query, in.Request, s.dispatcherOptions(in.Selection))
	if err != nil {
		return MutationResult{Outcome: out}, err
	}
	return MutationResult{Page: page, Outcome: out}, nil
}

// Browse opens a list controller over resource.
func (s *DashboardService) Browse(resource string, opts BrowseOptions) (Browser, error) {
	src, err := s.Source(resource)
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = s.logger
	}
	return src.Browse(opts)
}

// Dispatcher builds a dispatcher for a caller that holds its own list, such as a
// ListController. list may be nil.
func (s *DashboardService) Dispatcher(
	resource string,
	list core.ListReconciler,
	selection *model.SelectionSet,
) (*core.MutationDispatcher, error) {
	src, err := s.Source(resource)
	if err != nil {
		return nil, err
	}
	opts := s.dispatcherOptions(selection)
	opts.Resource = resource
	opts.Targets = src.Spec().Targets
	opts.List = list
	return core.NewMutationDispatcher(opts)
}

func (s *DashboardService) dispatcherOptions(selection *model.SelectionSet) core.MutationDispatcherOptions {
	return core.MutationDispatcherOptions{
		Mutator:     s.deps.Mutator,
		Selection:   selection,
		Validate:    s.deps.Validate,
		Audit:       s.deps.Audit,
		Cache:       s.deps.Cache,
		Observer:    s.deps.Observer,
		Concurrency: s.deps.Concurrency,
		Logger:      s.logger,
	}
}

// SummaryEntry is the total for one resource on the dashboard home page.
type SummaryEntry struct {
	Resource string
	Total    int
	Err      error
}

// Summary is the dashboard home view.
type Summary struct {
	Entries     []SummaryEntry
	GeneratedAt time.Time
}

// Failed reports how many resources could not be counted.
func (s Summary) Failed() int {
	n := 0
	for _, e := range s.Entries {
		if e.Err != nil {
			n++
		}
	}
	return n
}

// Summary fetches page 1 of every resource in parallel and reports the totals.
// A failing resource is recorded in its entry and does not fail the summary.
func (s *DashboardService) Summary(ctx context.Context) Summary {
	entries := make([]SummaryEntry, len(s.order))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(summaryConcurrency)
	for i, key := range s.order {
		src := s.sources[key]
		g.Go(func() error {
			entries[i] = SummaryEntry{Resource: key}
			page, err := src.List(gctx, model.QueryState{})
			if err != nil {
				s.logger.WarnContext(gctx, "summary fetch failed", "resource", key, "error", err)
				entries[i].Err = err
				return nil
			}
			entries[i].Total = max(page.Pagination.TotalItems, len(page.Items))
			return nil
		})
	}
	_ = g.Wait()
	return Summary{Entries: entries, GeneratedAt: time.Now()}
}

// AuditLog returns recent mutation audit entries.
func (s *DashboardService) AuditLog(ctx context.Context, opts model.AuditListOptions) ([]*model.AuditEntry, error) {
	if s.deps.Audit == nil {
		return nil, apperrors.Unavailable("audit log is not configured")
	}
	if opts.Resource != "" {
		if _, err := s.Source(opts.Resource); err != nil {
			return nil, err
		}
	}
	entries, err := s.deps.Audit.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}

// FlushCache drops every cached page of resource.
func (s *DashboardService) FlushCache(ctx context.Context, resource string) error {
	if _, err := s.Source(resource); err != nil {
		return err
	}
	if s.deps.Cache == nil {
		return apperrors.Unavailable("page cache is not configured")
	}
	if err := s.deps.Cache.Invalidate(ctx, resource); err != nil {
		return fmt.Errorf("flush %s cache: %w", resource, err)
	}
	s.logger.InfoContext(ctx, "page cache flushed", "resource", resource)
	return nil
}
