package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darahconnect/darah-dashboard/internal/domain/model"
)

func TestNewHeldPage_RequiresFetcher(t *testing.T) {
	_, err := NewHeldPage[model.BloodRequest](nil, model.NewQueryState(10))
	require.Error(t, err)
}

func TestHeldPage_ReconcilesLoadedItems(t *testing.T) {
	var calls int
	fetcher := PageFetcherFunc[model.BloodRequest](func(_ context.Context, q model.QueryState) (model.Page[model.BloodRequest], error) {
		calls++
		assert.Equal(t, "ahmad", q.SearchTerm)
		return model.Page[model.BloodRequest]{
			Items: []model.BloodRequest{
				{ID: "41", Status: model.RequestStatusPending},
				{ID: "42", Status: model.RequestStatusPending},
			},
			Pagination: model.PaginationInfo{CurrentPage: 1, PerPage: 10, TotalItems: 2, TotalPages: 1},
		}, nil
	})

	held, err := NewHeldPage(fetcher, model.NewQueryState(10).WithSearch("ahmad"))
	require.NoError(t, err)
	assert.False(t, held.Loaded())
	require.NoError(t, held.Load(context.Background()))
	assert.True(t, held.Loaded())

	status, ok := held.Lookup("42")
	assert.True(t, ok)
	assert.Equal(t, model.RequestStatusPending, status)

	assert.Equal(t, 1, held.Patch([]string{"42", "99"}, model.StatusChange(model.RequestStatusCompleted)))
	status, _ = held.Lookup("42")
	assert.Equal(t, model.RequestStatusCompleted, status)

	assert.Equal(t, 1, held.Remove("41"))
	assert.Equal(t, 0, held.Remove("41"))
	page := held.Page()
	require.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.Pagination.TotalItems)

	require.NoError(t, held.Refetch(context.Background()))
	assert.Equal(t, 2, calls)
	assert.Len(t, held.Page().Items, 2)
}

func TestHeldPage_FailedLoadKeepsItems(t *testing.T) {
	fail := false
	fetcher := PageFetcherFunc[model.BloodRequest](func(context.Context, model.QueryState) (model.Page[model.BloodRequest], error) {
		if fail {
			return model.Page[model.BloodRequest]{}, errors.New("boom")
		}
		return model.Page[model.BloodRequest]{Items: []model.BloodRequest{{ID: "1"}}}, nil
	})
	held, err := NewHeldPage(fetcher, model.NewQueryState(10))
	require.NoError(t, err)
	require.NoError(t, held.Load(context.Background()))

	fail = true
	require.Error(t, held.Refetch(context.Background()))
	assert.Len(t, held.Page().Items, 1)
}
