package darahapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darahconnect/darah-dashboard/internal/domain/model"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		limit     int
		wantShape Shape
		wantCount int
		wantPag   model.PaginationInfo
	}{
		{
			name:      "bare array with top-level pagination",
			body:      `{"success":true,"data":[{"id":1},{"id":2}],"pagination":{"page":2,"per_page":2,"total_items":6,"total_pages":3}}`,
			limit:     2,
			wantShape: ShapeBareArray,
			wantCount: 2,
			wantPag:   model.PaginationInfo{CurrentPage: 2, PerPage: 2, TotalItems: 6, TotalPages: 3},
		},
		{
			name:      "nested data with inner pagination",
			body:      `{"success":true,"data":{"data":[{"id":1}],"pagination":{"current_page":1,"limit":10,"total":1,"total_pages":1}}}`,
			limit:     10,
			wantShape: ShapeNested,
			wantCount: 1,
			wantPag:   model.PaginationInfo{CurrentPage: 1, PerPage: 10, TotalItems: 1, TotalPages: 1},
		},
		{
			name:      "nested data falls back to top-level pagination",
			body:      `{"data":{"data":[{"id":1},{"id":2},{"id":3}]},"pagination":{"page":1,"per_page":3,"total_items":9,"total_pages":3}}`,
			limit:     3,
			wantShape: ShapeNested,
			wantCount: 3,
			wantPag:   model.PaginationInfo{CurrentPage: 1, PerPage: 3, TotalItems: 9, TotalPages: 3},
		},
		{
			name:      "keyed notifications",
			body:      `{"success":true,"data":{"notifications":[{"id":"n1"}]}}`,
			limit:     10,
			wantShape: ShapeKeyed,
			wantCount: 1,
			wantPag:   model.PaginationInfo{CurrentPage: 1, PerPage: 10, TotalItems: 1, TotalPages: 1},
		},
		{
			name:      "missing pagination is synthesized",
			body:      `{"success":true,"data":[{"id":1},{"id":2},{"id":3}]}`,
			limit:     10,
			wantShape: ShapeBareArray,
			wantCount: 3,
			wantPag:   model.PaginationInfo{CurrentPage: 1, PerPage: 10, TotalItems: 3, TotalPages: 1},
		},
		{
			name:      "string pagination numbers",
			body:      `{"data":[{"id":1}],"pagination":{"page":"4","per_page":"1","total_items":"7","total_pages":"7"}}`,
			limit:     1,
			wantShape: ShapeBareArray,
			wantCount: 1,
			wantPag:   model.PaginationInfo{CurrentPage: 4, PerPage: 1, TotalItems: 7, TotalPages: 7},
		},
		{
			name:      "zero total pages clamps to one",
			body:      `{"data":[],"pagination":{"page":1,"per_page":10,"total_items":0,"total_pages":0}}`,
			limit:     10,
			wantShape: ShapeBareArray,
			wantCount: 0,
			wantPag:   model.PaginationInfo{CurrentPage: 1, PerPage: 10, TotalItems: 0, TotalPages: 1},
		},
		{
			name:      "top-level array",
			body:      `[{"id":1}]`,
			limit:     10,
			wantShape: ShapeBareArray,
			wantCount: 1,
			wantPag:   model.PaginationInfo{CurrentPage: 1, PerPage: 10, TotalItems: 1, TotalPages: 1},
		},
		{
			name:      "object without an item array",
			body:      `{"success":true,"data":{"count":3}}`,
			limit:     10,
			wantShape: ShapeUnknown,
			wantPag:   model.PaginationInfo{CurrentPage: 1, PerPage: 10, TotalItems: 0, TotalPages: 1},
		},
		{
			name:      "null data",
			body:      `{"success":true,"data":null}`,
			limit:     10,
			wantShape: ShapeUnknown,
			wantPag:   model.PaginationInfo{CurrentPage: 1, PerPage: 10, TotalItems: 0, TotalPages: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, shape, err := Normalize([]byte(tt.body), tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.wantShape, shape, "shape %s", shape)
			assert.Len(t, page.Items, tt.wantCount)
			assert.NotNil(t, page.Items)
			assert.Equal(t, tt.wantPag, page.Pagination)
		})
	}
}

func TestNormalize_BareAndNestedAreEquivalent(t *testing.T) {
	items := `[{"id":7,"status":"pending"},{"id":8,"status":"approved"}]`
	pag := `{"page":1,"per_page":10,"total_items":2,"total_pages":1}`

	bare := `{"success":true,"data":` + items + `,"pagination":` + pag + `}`
	nested := `{"success":true,"data":{"data":` + items + `,"pagination":` + pag + `}}`

	a, shapeA, err := Normalize([]byte(bare), 10)
	require.NoError(t, err)
	b, shapeB, err := Normalize([]byte(nested), 10)
	require.NoError(t, err)

	assert.Equal(t, ShapeBareArray, shapeA)
	assert.Equal(t, ShapeNested, shapeB)
	assert.Equal(t, a, b)

	// Typed output matches too.
	mapAll := func(p RawPage) []model.BloodRequest {
		out := make([]model.BloodRequest, 0, len(p.Items))
		for _, it := range p.Items {
			out = append(out, Requests.Map(NewRecord(it)))
		}
		return out
	}
	assert.Equal(t, mapAll(a), mapAll(b))
}

func TestNormalize_InvalidJSON(t *testing.T) {
	_, _, err := Normalize([]byte(`<html>`), 10)
	require.Error(t, err)
}
