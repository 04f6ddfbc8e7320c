package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/darahconnect/darah-dashboard/internal/core"
	"github.com/darahconnect/darah-dashboard/internal/domain/model"
	"github.com/darahconnect/darah-dashboard/internal/mocks"
)

func TestDashboardService_BrowseLoadsAndFilters(t *testing.T) {
	var (
		mu      sync.Mutex
		queries []model.QueryState
	)
	src, err := NewSource(requestSpec, core.PageFetcherFunc[model.BloodRequest](
		func(_ context.Context, q model.QueryState) (model.Page[model.BloodRequest], error) {
			mu.Lock()
			queries = append(queries, q)
			mu.Unlock()
			return requestPage(), nil
		}), nil)
	require.NoError(t, err)
	svc := newTestDashboard(t, MutationDeps{Mutator: mocks.NewMockMutator(gomock.NewController(t))}, src)

	var changes atomic.Int32
	b, err := svc.Browse("requests", BrowseOptions{OnChange: func(BrowseSnapshot) { changes.Add(1) }})
	require.NoError(t, err)
	defer b.Close()

	b.Load()
	b.Wait()
	snap := b.Snapshot()
	require.Len(t, snap.Items, 2)
	assert.IsType(t, model.BloodRequest{}, snap.Items[0])
	assert.False(t, snap.Loading)
	assert.Equal(t, 10, snap.Query.PageSize)

	b.SetStatusFilter(model.RequestStatusPending)
	b.Wait()
	mu.Lock()
	last := queries[len(queries)-1]
	mu.Unlock()
	assert.Equal(t, model.RequestStatusPending, last.StatusFilter)
	assert.Positive(t, changes.Load())

	_, err = svc.Browse("volunteers", BrowseOptions{})
	require.Error(t, err)
}

func TestDashboardService_BrowserReconcilesMutations(t *testing.T) {
	ctrl := gomock.NewController(t)
	mutator := mocks.NewMockMutator(ctrl)
	mutator.EXPECT().UpdateStatus(gomock.Any(), "requests", "41", model.RequestStatusCompleted).Return(nil)

	svc := newTestDashboard(t, MutationDeps{Mutator: mutator}, staticSource(t, requestSpec, requestPage(), nil))
	b, err := svc.Browse("requests", BrowseOptions{})
	require.NoError(t, err)
	defer b.Close()
	b.Load()
	b.Wait()

	d, err := svc.Dispatcher("requests", b, nil)
	require.NoError(t, err)
	out, err := d.Mutate(t.Context(), model.MutationRequest{
		Resource: "requests",
		Action:   model.ActionApprove,
		IDs:      []string{"41"},
	})
	require.NoError(t, err)
	assert.True(t, out.Applied)

	status, held := b.Lookup("41")
	assert.True(t, held)
	assert.Equal(t, model.RequestStatusCompleted, status)
}
