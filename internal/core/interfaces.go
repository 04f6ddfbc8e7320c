package core

import (
	"context"
	"time"

	"github.com/darahconnect/darah-dashboard/internal/domain/model"
)

// PageFetcher loads one normalized page of a resource list for a query.
type PageFetcher[T any] interface {
	FetchPage(ctx context.Context, q model.QueryState) (model.Page[T], error)
}

// PageFetcherFunc adapts a function to PageFetcher.
type PageFetcherFunc[T any] func(ctx context.Context, q model.QueryState) (model.Page[T], error)

// FetchPage implements PageFetcher.
func (f PageFetcherFunc[T]) FetchPage(ctx context.Context, q model.QueryState) (model.Page[T], error) {
	return f(ctx, q)
}

// Mutator issues state-changing requests against a resource endpoint.
// The resource argument is the dashboard resource key (e.g. "requests").
type Mutator interface {
	UpdateStatus(ctx context.Context, resource, id, status string) error
	SetRead(ctx context.Context, resource, id string, read bool) error
	Delete(ctx context.Context, resource, id string) error
	Create(ctx context.Context, resource string, payload any) error
}

// ListReconciler is the locally held list a mutation is reconciled against.
type ListReconciler interface {
	// Lookup returns the current status of the item with id and whether it is held.
	Lookup(id string) (string, bool)
	// Patch applies ch to every held item in ids and returns how many were found.
	Patch(ids []string, ch model.Change) int
	// Remove drops the ids from the held list and returns how many were removed.
	Remove(ids ...string) int
	// Refetch reloads the current page with the current query.
	Refetch(ctx context.Context) error
}

// AuditRepository persists the mutation audit trail.
type AuditRepository interface {
	Record(ctx context.Context, entry *model.AuditEntry) error
	List(ctx context.Context, opts model.AuditListOptions) ([]*model.AuditEntry, error)
}

// SessionRepository stores dashboard sessions carrying upstream credentials.
type SessionRepository interface {
	Save(ctx context.Context, s model.Session) error
	Get(ctx context.Context, id string) (model.Session, error)
	Delete(ctx context.Context, id string) error
}

// Clock schedules deferred work; tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable scheduled call.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// SystemClock returns a Clock backed by time.AfterFunc.
func SystemClock() Clock { return realClock{} }
