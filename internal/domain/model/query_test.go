package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryState_Values(t *testing.T) {
	tests := []struct {
		name string
		q    QueryState
		want string
	}{
		{
			name: "defaults omit search and status",
			q:    NewQueryState(10),
			want: "limit=10&page=1",
		},
		{
			name: "search trimmed and status set",
			q:    QueryState{SearchTerm: "  ahmad ", StatusFilter: "pending", Page: 1, PageSize: 10},
			want: "limit=10&page=1&search=ahmad&status=pending",
		},
		{
			name: "whitespace search omitted",
			q:    QueryState{SearchTerm: "   ", StatusFilter: StatusAll, Page: 2, PageSize: 16},
			want: "limit=16&page=2",
		},
		{
			name: "extra filters included, blank ones dropped",
			q: QueryState{
				Page:     1,
				PageSize: 10,
				Filters:  map[string]string{"event_type": "blood_request", "date_filter": " "},
			},
			want: "event_type=blood_request&limit=10&page=1",
		},
		{
			name: "filters cannot override paging, search or status",
			q: QueryState{
				SearchTerm:   "siti",
				StatusFilter: "pending",
				Page:         3,
				PageSize:     10,
				Filters:      map[string]string{"page": "99", "limit": "1000", "search": "x", "status": "all", "blood_type": "O+"},
			},
			want: "blood_type=O%2B&limit=10&page=3&search=siti&status=pending",
		},
		{
			name: "invalid page and size fall back",
			q:    QueryState{Page: 0, PageSize: 0},
			want: "limit=10&page=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.Values().Encode())
		})
	}
}

func TestQueryState_ChangesResetPage(t *testing.T) {
	q := NewQueryState(10)
	q.Page = 4

	assert.Equal(t, 1, q.WithSearch("abc").Page)
	assert.Equal(t, 1, q.WithStatus("pending").Page)
	assert.Equal(t, 1, q.WithFilter("date_filter", "today").Page)
	assert.Equal(t, 4, q.Page, "original query must not be mutated")
}

func TestQueryState_WithStatusBlankMeansAll(t *testing.T) {
	q := NewQueryState(10).WithStatus("  ")
	assert.Equal(t, StatusAll, q.StatusFilter)
	assert.False(t, q.HasStatusFilter())
}

func TestQueryState_WithFilterRemovesEmpty(t *testing.T) {
	q := NewQueryState(10).WithFilter("date_filter", "week")
	assert.Equal(t, "week", q.Filters["date_filter"])

	cleared := q.WithFilter("date_filter", "")
	_, ok := cleared.Filters["date_filter"]
	assert.False(t, ok)
	assert.Equal(t, "week", q.Filters["date_filter"], "clone must not share the filter map")
}

func TestQueryState_WithFilterIgnoresReservedKeys(t *testing.T) {
	q := NewQueryState(10)
	q.Page = 2
	for _, key := range []string{"page", "limit", " Search ", "status"} {
		got := q.WithFilter(key, "5")
		assert.Empty(t, got.Filters, key)
		assert.Equal(t, 2, got.Page, key)
	}
	assert.True(t, IsReservedParam("LIMIT"))
	assert.False(t, IsReservedParam("blood_type"))
}

func TestQueryState_CacheKeyStable(t *testing.T) {
	a := QueryState{Page: 1, PageSize: 10, Filters: map[string]string{"b": "2", "a": "1"}}
	b := QueryState{Page: 1, PageSize: 10, Filters: map[string]string{"a": "1", "b": "2"}}
	assert.Equal(t, a.CacheKey(), b.CacheKey())
}

func TestPaginationInfo(t *testing.T) {
	p := SynthesizePagination(3, 10)
	assert.Equal(t, PaginationInfo{CurrentPage: 1, PerPage: 10, TotalItems: 3, TotalPages: 1}, p)
	assert.False(t, p.Multiple())
	assert.False(t, p.HasNext())

	p = PaginationInfo{CurrentPage: 2, PerPage: 10, TotalItems: 25, TotalPages: 3}
	assert.True(t, p.HasPrev())
	assert.True(t, p.HasNext())
	assert.True(t, p.Contains(3))
	assert.False(t, p.Contains(4))
	assert.False(t, p.Contains(0))

	start, end := p.Range(10)
	assert.Equal(t, 11, start)
	assert.Equal(t, 20, end)
}
