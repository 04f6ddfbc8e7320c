//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

// PaginationInfo is the pagination metadata reported by the most recent fetch.
type PaginationInfo struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	TotalItems  int `json:"total_items"`
	TotalPages  int `json:"total_pages"`
}

// SynthesizePagination is the fallback used when a response carries no pagination object.
func SynthesizePagination(itemCount, limit int) PaginationInfo {
	return PaginationInfo{
		CurrentPage: 1,
		PerPage:     limit,
		TotalItems:  itemCount,
		TotalPages:  1,
	}
}

// HasPrev reports whether a previous page exists.
func (p PaginationInfo) HasPrev() bool { return p.CurrentPage > 1 }

// HasNext reports whether a next page exists.
func (p PaginationInfo) HasNext() bool { return p.CurrentPage < p.TotalPages }

// Multiple reports whether pagination controls should be shown at all.
func (p PaginationInfo) Multiple() bool { return p.TotalPages > 1 }

// Contains reports whether page p is addressable.
func (p PaginationInfo) Contains(page int) bool {
	return page >= 1 && page <= p.TotalPages
}

// Range returns the 1-based index of the first and last item shown on the current page.
func (p PaginationInfo) Range(shown int) (int, int) {
	if shown <= 0 {
		return 0, 0
	}
	page := max(p.CurrentPage, 1)
	offset := (page - 1) * p.PerPage
	return offset + 1, offset + shown
}

// Page is a normalized page of list items.
type Page[T any] struct {
	Items      []T            `json:"items"`
	Pagination PaginationInfo `json:"pagination"`
}
