package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/darahconnect/darah-dashboard/internal/core"
	"github.com/darahconnect/darah-dashboard/internal/domain/model"
	apperrors "github.com/darahconnect/darah-dashboard/internal/errors"
	"github.com/darahconnect/darah-dashboard/internal/mocks"
)

var requestSpec = SourceSpec{
	Key:      "requests",
	PageSize: 10,
	Targets:  core.StatusTargets{Approve: model.RequestStatusCompleted, Reject: model.RequestStatusRejected},
}

func requestPage() model.Page[model.BloodRequest] {
	return model.Page[model.BloodRequest]{
		Items: []model.BloodRequest{
			{ID: "41", PatientName: "Siti", Status: model.RequestStatusPending},
			{ID: "42", PatientName: "Ahmad", Status: model.RequestStatusPending},
		},
		Pagination: model.PaginationInfo{CurrentPage: 1, PerPage: 10, TotalItems: 2, TotalPages: 1},
	}
}

func staticSource[T model.Item[T]](t *testing.T, spec SourceSpec, page model.Page[T], err error) Source {
	t.Helper()
	src, serr := NewSource(spec, core.PageFetcherFunc[T](func(context.Context, model.QueryState) (model.Page[T], error) {
		return page, err
	}), nil)
	require.NoError(t, serr)
	return src
}

func newTestDashboard(t *testing.T, deps MutationDeps, sources ...Source) *DashboardService {
	t.Helper()
	svc, err := NewDashboardService(DashboardServiceOptions{Sources: sources, Mutations: deps})
	require.NoError(t, err)
	return svc
}

func TestNewDashboardService_Validation(t *testing.T) {
	ctrl := gomock.NewController(t)
	mutator := mocks.NewMockMutator(ctrl)
	src := staticSource(t, requestSpec, requestPage(), nil)

	_, err := NewDashboardService(DashboardServiceOptions{Mutations: MutationDeps{Mutator: mutator}})
	require.Error(t, err)

	_, err = NewDashboardService(DashboardServiceOptions{Sources: []Source{src}})
	require.Error(t, err)

	_, err = NewDashboardService(DashboardServiceOptions{
		Sources:   []Source{src, src},
		Mutations: MutationDeps{Mutator: mutator},
	})
	require.ErrorContains(t, err, "duplicate")
}

func TestNewSource_Validation(t *testing.T) {
	_, err := NewSource[model.BloodRequest](SourceSpec{}, nil, nil)
	require.Error(t, err)
	_, err = NewSource[model.BloodRequest](SourceSpec{Key: "requests"}, nil, nil)
	require.Error(t, err)
}

func TestDashboardService_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	var got model.QueryState
	src, err := NewSource(requestSpec, core.PageFetcherFunc[model.BloodRequest](
		func(_ context.Context, q model.QueryState) (model.Page[model.BloodRequest], error) {
			got = q
			return requestPage(), nil
		}), nil)
	require.NoError(t, err)
	svc := newTestDashboard(t, MutationDeps{Mutator: mocks.NewMockMutator(ctrl)}, src)

	page, err := svc.List(context.Background(), "requests", model.QueryState{SearchTerm: "ahmad"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.IsType(t, model.BloodRequest{}, page.Items[0])
	assert.Equal(t, model.QueryState{SearchTerm: "ahmad", StatusFilter: model.StatusAll, Page: 1, PageSize: 10}, got)

	_, err = svc.List(context.Background(), "unknown", model.QueryState{})
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, []string{"requests"}, svc.Keys())
}

func TestDashboardService_ApprovePatchesHeldPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	mutator := mocks.NewMockMutator(ctrl)
	cache := mocks.NewMockCacheInvalidator(ctrl)
	audit := mocks.NewMockAuditRepository(ctrl)

	mutator.EXPECT().UpdateStatus(gomock.Any(), "requests", "42", model.RequestStatusCompleted).Return(nil)
	cache.EXPECT().Invalidate(gomock.Any(), "requests").Return(nil)
	var recorded *model.AuditEntry
	audit.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e *model.AuditEntry) error {
		recorded = e
		return nil
	})

	svc := newTestDashboard(t,
		MutationDeps{Mutator: mutator, Cache: cache, Audit: audit},
		staticSource(t, requestSpec, requestPage(), nil),
	)
	ctx := model.WithSession(context.Background(), &model.Session{Email: "admin@darah.id"})
	res, err := svc.Mutate(ctx, MutationInput{
		Request: model.MutationRequest{Resource: "requests", Action: model.ActionApprove, IDs: []string{"42"}},
		Query:   model.NewQueryState(10),
	})
	require.NoError(t, err)
	assert.True(t, res.Outcome.Applied)
	require.Len(t, res.Page.Items, 2)
	assert.Equal(t, model.RequestStatusCompleted, res.Page.Items[1].(model.BloodRequest).Status)

	require.NotNil(t, recorded)
	assert.Equal(t, model.AuditOutcomeSuccess, recorded.Outcome)
	assert.Equal(t, "admin@darah.id", recorded.Actor)
}

func TestDashboardService_ApproveAlreadyCompletedIsSkipped(t *testing.T) {
	ctrl := gomock.NewController(t)
	page := requestPage()
	page.Items[1].Status = model.RequestStatusCompleted

	svc := newTestDashboard(t,
		MutationDeps{Mutator: mocks.NewMockMutator(ctrl)},
		staticSource(t, requestSpec, page, nil),
	)
	res, err := svc.Mutate(context.Background(), MutationInput{
		Request: model.MutationRequest{Resource: "requests", Action: model.ActionApprove, IDs: []string{"42"}},
	})
	require.NoError(t, err)
	assert.True(t, res.Outcome.Skipped)
}

func TestDashboardService_DeleteIsOptimistic(t *testing.T) {
	ctrl := gomock.NewController(t)
	mutator := mocks.NewMockMutator(ctrl)
	upstream := apperrors.Upstream("Server error", errors.New("500"))
	mutator.EXPECT().Delete(gomock.Any(), "requests", "41").Return(upstream)

	svc := newTestDashboard(t, MutationDeps{Mutator: mutator}, staticSource(t, requestSpec, requestPage(), nil))
	res, err := svc.Mutate(context.Background(), MutationInput{
		Request: model.MutationRequest{Resource: "requests", Action: model.ActionDelete, IDs: []string{"41"}},
	})
	require.NoError(t, err)
	require.ErrorIs(t, res.Outcome.ServerErr, upstream)
	require.Len(t, res.Page.Items, 1)
	assert.Equal(t, "42", res.Page.Items[0].(model.BloodRequest).ID)
	assert.Equal(t, 1, res.Page.Pagination.TotalItems)
}

func TestDashboardService_DeleteOffPageItemIsSent(t *testing.T) {
	ctrl := gomock.NewController(t)
	mutator := mocks.NewMockMutator(ctrl)
	mutator.EXPECT().Delete(gomock.Any(), "requests", "77").Return(nil).Times(1)

	svc := newTestDashboard(t, MutationDeps{Mutator: mutator}, staticSource(t, requestSpec, requestPage(), nil))
	res, err := svc.Mutate(context.Background(), MutationInput{
		Request: model.MutationRequest{Resource: "requests", Action: model.ActionDelete, IDs: []string{"77"}},
	})
	require.NoError(t, err)
	assert.False(t, res.Outcome.Skipped)
	assert.True(t, res.Outcome.Applied)
	assert.Len(t, res.Page.Items, 2)
}

func TestDashboardService_RejectFailureReturnsError(t *testing.T) {
	ctrl := gomock.NewController(t)
	mutator := mocks.NewMockMutator(ctrl)
	mutator.EXPECT().UpdateStatus(gomock.Any(), "requests", "41", model.RequestStatusRejected).
		Return(apperrors.Upstream("Request not found", nil))

	svc := newTestDashboard(t, MutationDeps{Mutator: mutator}, staticSource(t, requestSpec, requestPage(), nil))
	_, err := svc.Mutate(context.Background(), MutationInput{
		Request: model.MutationRequest{Resource: "requests", Action: model.ActionReject, IDs: []string{"41"}},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsUpstream(err))
}

func TestDashboardService_MutateWithoutHeldPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	mutator := mocks.NewMockMutator(ctrl)
	mutator.EXPECT().UpdateStatus(gomock.Any(), "requests", "42", model.RequestStatusCompleted).Return(nil)

	var calls atomic.Int32
	src, err := NewSource(requestSpec, core.PageFetcherFunc[model.BloodRequest](
		func(context.Context, model.QueryState) (model.Page[model.BloodRequest], error) {
			if calls.Add(1) == 1 {
				return model.Page[model.BloodRequest]{}, errors.New("timeout")
			}
			page := requestPage()
			page.Items[1].Status = model.RequestStatusCompleted
			return page, nil
		}), nil)
	require.NoError(t, err)

	svc := newTestDashboard(t, MutationDeps{Mutator: mutator}, src)
	res, err := svc.Mutate(context.Background(), MutationInput{
		Request: model.MutationRequest{Resource: "requests", Action: model.ActionApprove, IDs: []string{"42"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, model.RequestStatusCompleted, res.Page.Items[1].(model.BloodRequest).Status)
}

func TestDashboardService_BulkMarkReadClearsSelection(t *testing.T) {
	ctrl := gomock.NewController(t)
	mutator := mocks.NewMockMutator(ctrl)
	mutator.EXPECT().SetRead(gomock.Any(), "notifications", "n1", true).Return(nil)
	mutator.EXPECT().SetRead(gomock.Any(), "notifications", "n2", true).Return(nil)

	page := model.Page[model.Notification]{
		Items: []model.Notification{{ID: "n1"}, {ID: "n2"}, {ID: "n3"}},
	}
	src := staticSource(t, SourceSpec{Key: "notifications"}, page, nil)
	svc := newTestDashboard(t, MutationDeps{Mutator: mutator}, src)

	sel := model.NewSelectionSet("n1", "n2")
	res, err := svc.Mutate(context.Background(), MutationInput{
		Request:   model.MutationRequest{Resource: "notifications", Action: model.ActionBulkMarkRead},
		Selection: sel,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, sel.Len())
	assert.True(t, res.Page.Items[0].(model.Notification).IsRead)
	assert.True(t, res.Page.Items[1].(model.Notification).IsRead)
	assert.False(t, res.Page.Items[2].(model.Notification).IsRead)
}

func TestDashboardService_CreateValidatesAndRefetches(t *testing.T) {
	ctrl := gomock.NewController(t)
	mutator := mocks.NewMockMutator(ctrl)
	payload := model.CreateNotificationRequest{UserID: 7, Title: "Halo", Message: "Pesan", NotificationType: "System"}
	mutator.EXPECT().Create(gomock.Any(), "notifications", payload).Return(nil)

	var fetches atomic.Int32
	src, err := NewSource(SourceSpec{Key: "notifications"}, core.PageFetcherFunc[model.Notification](
		func(context.Context, model.QueryState) (model.Page[model.Notification], error) {
			fetches.Add(1)
			return model.Page[model.Notification]{Items: []model.Notification{{ID: "new"}}}, nil
		}), nil)
	require.NoError(t, err)

	validate := func(v any) error {
		if _, ok := v.(model.CreateNotificationRequest); !ok {
			return apperrors.Validation("bad payload")
		}
		return nil
	}
	svc := newTestDashboard(t, MutationDeps{Mutator: mutator, Validate: validate}, src)

	res, err := svc.Mutate(context.Background(), MutationInput{
		Request: model.MutationRequest{Resource: "notifications", Action: model.ActionCreate, Payload: payload},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), fetches.Load())
	assert.Len(t, res.Page.Items, 1)

	_, err = svc.Mutate(context.Background(), MutationInput{
		Request: model.MutationRequest{Resource: "notifications", Action: model.ActionCreate, Payload: "nope"},
	})
	assert.True(t, apperrors.IsValidation(err))
}

func TestDashboardService_Summary(t *testing.T) {
	ctrl := gomock.NewController(t)
	ok := staticSource(t, requestSpec, requestPage(), nil)
	failing := staticSource(t, SourceSpec{Key: "donations"}, model.Page[model.Donation]{}, errors.New("down"))
	svc := newTestDashboard(t, MutationDeps{Mutator: mocks.NewMockMutator(ctrl)}, ok, failing)

	sum := svc.Summary(context.Background())
	require.Len(t, sum.Entries, 2)
	assert.Equal(t, "requests", sum.Entries[0].Resource)
	assert.Equal(t, 2, sum.Entries[0].Total)
	assert.Equal(t, "donations", sum.Entries[1].Resource)
	require.Error(t, sum.Entries[1].Err)
	assert.Equal(t, 1, sum.Failed())
	assert.False(t, sum.GeneratedAt.IsZero())
}

func TestDashboardService_AuditLog(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := staticSource(t, requestSpec, requestPage(), nil)

	svc := newTestDashboard(t, MutationDeps{Mutator: mocks.NewMockMutator(ctrl)}, src)
	_, err := svc.AuditLog(context.Background(), model.AuditListOptions{})
	assert.True(t, apperrors.IsUnavailable(err))

	audit := mocks.NewMockAuditRepository(ctrl)
	want := []*model.AuditEntry{{ID: "a1", Resource: "requests"}}
	audit.EXPECT().List(gomock.Any(), model.AuditListOptions{Resource: "requests", Limit: 5}).Return(want, nil)
	svc = newTestDashboard(t, MutationDeps{Mutator: mocks.NewMockMutator(ctrl), Audit: audit}, src)

	got, err := svc.AuditLog(context.Background(), model.AuditListOptions{Resource: "requests", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = svc.AuditLog(context.Background(), model.AuditListOptions{Resource: "bogus"})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDashboardService_FlushCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := staticSource(t, requestSpec, requestPage(), nil)

	svc := newTestDashboard(t, MutationDeps{Mutator: mocks.NewMockMutator(ctrl)}, src)
	assert.True(t, apperrors.IsUnavailable(svc.FlushCache(context.Background(), "requests")))

	cache := mocks.NewMockCacheInvalidator(ctrl)
	cache.EXPECT().Invalidate(gomock.Any(), "requests").Return(nil)
	svc = newTestDashboard(t, MutationDeps{Mutator: mocks.NewMockMutator(ctrl), Cache: cache}, src)
	require.NoError(t, svc.FlushCache(context.Background(), "requests"))
	assert.True(t, apperrors.IsNotFound(svc.FlushCache(context.Background(), "bogus")))
}

func TestDashboardService_Dispatcher(t *testing.T) {
	ctrl := gomock.NewController(t)
	mutator := mocks.NewMockMutator(ctrl)
	mutator.EXPECT().UpdateStatus(gomock.Any(), "requests", "9", model.RequestStatusRejected).Return(nil)

	svc := newTestDashboard(t, MutationDeps{Mutator: mutator}, staticSource(t, requestSpec, requestPage(), nil))
	d, err := svc.Dispatcher("requests", nil, nil)
	require.NoError(t, err)
	out, err := d.Mutate(context.Background(), model.MutationRequest{
		Resource: "requests", Action: model.ActionReject, IDs: []string{"9"},
	})
	require.NoError(t, err)
	assert.False(t, out.Skipped)

	_, err = svc.Dispatcher("bogus", nil, nil)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSourceSpec_Capabilities(t *testing.T) {
	spec := SourceSpec{
		Key:     "donors",
		Filters: []string{"blood_type"},
		Targets: core.StatusTargets{Approve: "approved"},
	}
	assert.True(t, spec.CanApprove())
	assert.False(t, spec.CanReject())
	assert.True(t, spec.AllowsFilter("blood_type"))
	assert.False(t, spec.AllowsFilter("event_type"))
}
