package darahapi

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/darahconnect/darah-dashboard/internal/domain/model"
)

// Shape identifies which list envelope layout a response used.
type Shape int

const (
	// ShapeUnknown means no item array was found. The result is empty, not an error.
	ShapeUnknown Shape = iota
	// ShapeBareArray is {"data": [...], "pagination": {...}}.
	ShapeBareArray
	// ShapeNested is {"data": {"data": [...], "pagination": {...}}}.
	ShapeNested
	// ShapeKeyed is {"data": {"notifications": [...]}} or a similar named array.
	ShapeKeyed
)

func (s Shape) String() string {
	switch s {
	case ShapeBareArray:
		return "bare_array"
	case ShapeNested:
		return "nested"
	case ShapeKeyed:
		return "keyed"
	default:
		return "unknown"
	}
}

// keyedArrays are the named collections some endpoints nest under data.
var keyedArrays = []string{"notifications", "items", "results"}

// RawPage is a normalized page whose items are still untyped JSON objects.
type RawPage struct {
	Items      []any
	Pagination model.PaginationInfo
}

// Normalize extracts the item array and pagination from any of the list envelopes the API
// produces. limit is the requested page size, used when the response omits per_page.
func Normalize(body []byte, limit int) (RawPage, Shape, error) {
	var root any
	if err := json.Unmarshal(body, &root); err != nil {
		return RawPage{}, ShapeUnknown, fmt.Errorf("decode list envelope: %w", err)
	}

	var (
		items []any
		pag   any
		shape = ShapeUnknown
	)

	switch top := root.(type) {
	case []any:
		items, shape = top, ShapeBareArray
	case map[string]any:
		switch data := top["data"].(type) {
		case []any:
			items, pag, shape = data, top["pagination"], ShapeBareArray
		case map[string]any:
			pag = firstNonNil(data["pagination"], top["pagination"])
			if arr, ok := data["data"].([]any); ok {
				items, shape = arr, ShapeNested
				break
			}
			for _, key := range keyedArrays {
				if arr, ok := data[key].([]any); ok {
					items, shape = arr, ShapeKeyed
					break
				}
			}
		}
	}

	if shape == ShapeUnknown {
		return RawPage{Items: []any{}, Pagination: model.SynthesizePagination(0, limit)}, shape, nil
	}
	if items == nil {
		items = []any{}
	}
	return RawPage{Items: items, Pagination: parsePagination(pag, len(items), limit)}, shape, nil
}

// parsePagination accepts both naming conventions the API uses for pagination fields.
func parsePagination(raw any, count, limit int) model.PaginationInfo {
	m, ok := raw.(map[string]any)
	if !ok {
		return model.SynthesizePagination(count, limit)
	}
	p := model.PaginationInfo{
		CurrentPage: intField(m, 1, "page", "current_page"),
		PerPage:     intField(m, limit, "per_page", "limit"),
		TotalItems:  intField(m, count, "total_items", "total"),
		TotalPages:  intField(m, 1, "total_pages"),
	}
	if p.CurrentPage < 1 {
		p.CurrentPage = 1
	}
	if p.TotalPages < 1 {
		p.TotalPages = 1
	}
	return p
}

func intField(m map[string]any, fallback int, keys ...string) int {
	for _, k := range keys {
		if n, ok := toInt(m[k]); ok {
			return n
		}
	}
	return fallback
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	default:
		return 0, false
	}
}

func firstNonNil(vals ...any) any {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
