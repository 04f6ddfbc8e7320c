package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/darahconnect/darah-dashboard/internal/domain/model"
	apperrors "github.com/darahconnect/darah-dashboard/internal/errors"
)

const defaultBulkConcurrency = 4

// StatusTargets are the terminal statuses approve and reject move an item to.
type StatusTargets struct {
	Approve string
	Reject  string
}

// CacheInvalidator drops cached pages for a resource after a server-side change.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, resource string) error
}

// MutationObserver receives timing for every dispatched mutation.
type MutationObserver interface {
	ObserveMutation(resource string, action model.Action, d time.Duration, err error)
}

// MutationDispatcherOptions configures a MutationDispatcher bound to one resource.
type MutationDispatcherOptions struct {
	// Resource is the dashboard resource key passed to the Mutator (required).
	Resource string
	// Mutator issues the upstream requests (required).
	Mutator Mutator
	// List is the held list to reconcile. When nil, the caller reconciles from the outcome.
	List ListReconciler
	// Selection is cleared after every bulk mutation attempt. Optional.
	Selection *model.SelectionSet
	Targets   StatusTargets
	// Policies overrides model.DefaultMutationPolicies.
	Policies map[model.Action]model.MutationPolicy
	// Validate checks create payloads before they are sent. Optional.
	Validate    func(any) error
	Audit       AuditRepository
	Cache       CacheInvalidator
	Observer    MutationObserver
	Concurrency int
	Logger      *slog.Logger
}

// MutationDispatcher issues status changes, deletions, and creations and reconciles the
// held list according to a per-action policy.
type MutationDispatcher struct {
	resource    string
	mutator     Mutator
	list        ListReconciler
	selection   *model.SelectionSet
	targets     StatusTargets
	policies    map[model.Action]model.MutationPolicy
	validate    func(any) error
	audit       AuditRepository
	cache       CacheInvalidator
	observer    MutationObserver
	concurrency int
	logger      *slog.Logger

	mu      sync.Mutex
	removed map[string]struct{} // ids this dispatcher has removed from the held list
}

// NewMutationDispatcher creates a dispatcher.
func NewMutationDispatcher(opts MutationDispatcherOptions) (*MutationDispatcher, error) {
	if opts.Mutator == nil {
		return nil, errors.New("mutation dispatcher requires a mutator")
	}
	if strings.TrimSpace(opts.Resource) == "" {
		return nil, errors.New("mutation dispatcher requires a resource")
	}
	policies := opts.Policies
	if policies == nil {
		policies = model.DefaultMutationPolicies()
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultBulkConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &MutationDispatcher{
		resource:    opts.Resource,
		mutator:     opts.Mutator,
		list:        opts.List,
		selection:   opts.Selection,
		targets:     opts.Targets,
		policies:    policies,
		validate:    opts.Validate,
		audit:       opts.Audit,
		cache:       opts.Cache,
		observer:    opts.Observer,
		concurrency: concurrency,
		removed:     make(map[string]struct{}),
		logger:      logger.With("component", "mutation_dispatcher", "resource", opts.Resource),
	}, nil
}

// Mutate performs req.Action. A non-nil error means local state was not changed.
// Optimistic actions always update local state; an upstream failure is logged and
// reported in MutationOutcome.ServerErr.
func (d *MutationDispatcher) Mutate(ctx context.Context, req model.MutationRequest) (model.MutationOutcome, error) {
	policy, ok := d.policies[req.Action]
	if !ok {
		return model.MutationOutcome{}, apperrors.Validationf("unsupported action %q", req.Action)
	}
	if req.Action.IsBulk() {
		defer d.clearSelection()
		if len(req.IDs) == 0 && d.selection != nil {
			req.IDs = d.selection.IDs()
		}
	}

	out := model.MutationOutcome{
		Action:     req.Action,
		IDs:        req.IDs,
		Reconcile:  policy.Reconcile,
		Optimistic: policy.Optimistic,
	}

	ch, err := d.changeFor(req.Action)
	if err != nil {
		return model.MutationOutcome{}, err
	}
	out.Change = ch

	if err = d.checkRequest(req); err != nil {
		return model.MutationOutcome{}, err
	}

	ids, skipped := d.pending(req, ch)
	if skipped {
		out.Skipped = true
		out.Reconcile = model.ReconcileNone
		d.record(ctx, req, out, nil)
		return out, nil
	}

	if policy.Optimistic {
		d.reconcile(ctx, policy.Reconcile, ids, ch)
		out.Applied = true
	}

	start := time.Now()
	callErr := d.call(ctx, req, ids, ch)
	if d.observer != nil {
		d.observer.ObserveMutation(d.resource, req.Action, time.Since(start), callErr)
	}

	switch {
	case callErr != nil && policy.Optimistic:
		d.logger.ErrorContext(ctx, "optimistic mutation failed upstream",
			"action", req.Action, "ids", ids, "error", callErr)
		out.ServerErr = callErr
		if policy.Reconcile == model.ReconcileRemove {
			d.unmarkRemoved(ids)
		}
		d.record(ctx, req, out, callErr)
		return out, nil
	case callErr != nil:
		d.logger.WarnContext(ctx, "mutation failed", "action", req.Action, "ids", ids, "error", callErr)
		d.record(ctx, req, out, callErr)
		return model.MutationOutcome{}, callErr
	}

	d.invalidate(ctx)
	if !policy.Optimistic {
		d.reconcile(ctx, policy.Reconcile, ids, ch)
		out.Applied = true
	}
	d.record(ctx, req, out, nil)
	return out, nil
}

// changeFor maps an action to the field patch it produces.
func (d *MutationDispatcher) changeFor(action model.Action) (model.Change, error) {
	switch action {
	case model.ActionApprove:
		if d.targets.Approve == "" {
			return model.Change{}, apperrors.Validationf("%s cannot be approved", d.resource)
		}
		return model.StatusChange(d.targets.Approve), nil
	case model.ActionReject:
		if d.targets.Reject == "" {
			return model.Change{}, apperrors.Validationf("%s cannot be rejected", d.resource)
		}
		return model.StatusChange(d.targets.Reject), nil
	case model.ActionMarkRead, model.ActionBulkMarkRead:
		return model.ReadChange(true), nil
	case model.ActionMarkUnread:
		return model.ReadChange(false), nil
	default:
		return model.Change{}, nil
	}
}

func (d *MutationDispatcher) checkRequest(req model.MutationRequest) error {
	if req.Action == model.ActionCreate {
		if req.Payload == nil {
			return apperrors.Validation("create requires a payload")
		}
		if d.validate != nil {
			return d.validate(req.Payload)
		}
		return nil
	}
	if len(req.IDs) == 0 {
		if req.Action.IsBulk() {
			return apperrors.Validation("no items selected")
		}
		return apperrors.Validation("an item id is required")
	}
	if !req.Action.IsBulk() && len(req.IDs) > 1 {
		return apperrors.Validationf("%s accepts a single item", req.Action)
	}
	return nil
}

// pending returns the ids that still need a server call. With a held list, approving or
// rejecting an item already in the target status, or deleting an id this dispatcher has
// already removed, is a no-op. Ids that are simply not on the held page are always sent.
func (d *MutationDispatcher) pending(req model.MutationRequest, ch model.Change) ([]string, bool) {
	if d.list == nil || req.Action == model.ActionCreate {
		return req.IDs, false
	}
	var out []string
	for _, id := range req.IDs {
		switch req.Action {
		case model.ActionApprove, model.ActionReject:
			status, held := d.list.Lookup(id)
			if held && ch.Status != nil && status == *ch.Status {
				continue
			}
		case model.ActionDelete, model.ActionBulkDelete:
			if d.wasRemoved(id) {
				continue
			}
		}
		out = append(out, id)
	}
	return out, len(out) == 0
}

func (d *MutationDispatcher) call(ctx context.Context, req model.MutationRequest, ids []string, ch model.Change) error {
	if req.Action == model.ActionCreate {
		return d.mutator.Create(ctx, d.resource, req.Payload)
	}
	one := func(ctx context.Context, id string) error {
		switch {
		case ch.Status != nil:
			return d.mutator.UpdateStatus(ctx, d.resource, id, *ch.Status)
		case ch.IsRead != nil:
			return d.mutator.SetRead(ctx, d.resource, id, *ch.IsRead)
		default:
			err := d.mutator.Delete(ctx, d.resource, id)
			if apperrors.IsNotFound(err) {
				d.logger.DebugContext(ctx, "delete target already gone", "id", id)
				return nil
			}
			return err
		}
	}
	if len(ids) == 1 {
		return one(ctx, ids[0])
	}

	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(d.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			if err := one(ctx, id); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s %s: %w", req.Action, id, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (d *MutationDispatcher) reconcile(ctx context.Context, r model.Reconcile, ids []string, ch model.Change) {
	if d.list == nil {
		return
	}
	switch r {
	case model.ReconcilePatch:
		d.list.Patch(ids, ch)
	case model.ReconcileRemove:
		d.markRemoved(ids)
		d.list.Remove(ids...)
	case model.ReconcileRefetch:
		if err := d.list.Refetch(ctx); err != nil {
			d.logger.WarnContext(ctx, "refetch after mutation failed", "error", err)
		}
	case model.ReconcileNone:
	}
}

func (d *MutationDispatcher) markRemoved(ids []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range ids {
		d.removed[id] = struct{}{}
	}
}

// unmarkRemoved lets a retry resend deletes that failed upstream.
func (d *MutationDispatcher) unmarkRemoved(ids []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range ids {
		delete(d.removed, id)
	}
}

func (d *MutationDispatcher) wasRemoved(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.removed[id]
	return ok
}

func (d *MutationDispatcher) clearSelection() {
	if d.selection != nil {
		d.selection.Clear()
	}
}

func (d *MutationDispatcher) invalidate(ctx context.Context) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Invalidate(ctx, d.resource); err != nil {
		d.logger.WarnContext(ctx, "page cache invalidation failed", "error", err)
	}
}

func (d *MutationDispatcher) record(ctx context.Context, req model.MutationRequest, out model.MutationOutcome, err error) {
	if d.audit == nil {
		return
	}
	entry := &model.AuditEntry{
		Resource:   d.resource,
		Action:     req.Action,
		ItemIDs:    req.IDs,
		Optimistic: out.Optimistic,
		Outcome:    auditOutcome(out, err),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if s := model.SessionFrom(ctx); s != nil {
		entry.Actor = s.Email
	}
	if recErr := d.audit.Record(ctx, entry); recErr != nil {
		d.logger.WarnContext(ctx, "record mutation audit failed", "error", recErr)
	}
}

func auditOutcome(out model.MutationOutcome, err error) string {
	switch {
	case out.Skipped:
		return model.AuditOutcomeSkipped
	case err != nil && out.Optimistic:
		return model.AuditOutcomeOptimistic
	case err != nil:
		return model.AuditOutcomeFailed
	default:
		return model.AuditOutcomeSuccess
	}
}
