//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"maps"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// StatusAll is the status filter sentinel meaning "no status filter".
const StatusAll = "all"

// reservedParams are the query parameters Values owns; extra filters cannot override them.
var reservedParams = map[string]bool{"page": true, "limit": true, "search": true, "status": true}

// IsReservedParam reports whether key is a paging, search, or status parameter rather than
// a resource filter.
func IsReservedParam(key string) bool {
	return reservedParams[strings.ToLower(strings.TrimSpace(key))]
}

// DefaultPageSize is used when a resource does not declare its own page size.
const DefaultPageSize = 10

// QueryState is the list query owned by a single list view.
// Changing the search term, status filter, or any extra filter resets Page to 1.
type QueryState struct {
	SearchTerm   string            `json:"search"`
	StatusFilter string            `json:"status"`
	Page         int               `json:"page"`
	PageSize     int               `json:"limit"`
	Filters      map[string]string `json:"filters,omitempty"`
}

// NewQueryState returns the default query a list view starts with.
func NewQueryState(pageSize int) QueryState {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return QueryState{
		StatusFilter: StatusAll,
		Page:         1,
		PageSize:     pageSize,
	}
}

// Clone returns a deep copy so callers can hand the query out without sharing the filter map.
func (q QueryState) Clone() QueryState {
	out := q
	if q.Filters != nil {
		out.Filters = maps.Clone(q.Filters)
	}
	return out
}

// WithSearch returns a copy with the search term replaced and the page reset.
func (q QueryState) WithSearch(term string) QueryState {
	out := q.Clone()
	out.SearchTerm = term
	out.Page = 1
	return out
}

// WithStatus returns a copy with the status filter replaced and the page reset.
func (q QueryState) WithStatus(status string) QueryState {
	out := q.Clone()
	out.StatusFilter = normalizeStatus(status)
	out.Page = 1
	return out
}

// WithFilter returns a copy with one extra filter set (or removed when value is empty) and the page reset.
// Blank and reserved keys leave the query unchanged.
func (q QueryState) WithFilter(key, value string) QueryState {
	out := q.Clone()
	key = strings.TrimSpace(key)
	if key == "" || IsReservedParam(key) {
		return out
	}
	value = strings.TrimSpace(value)
	if value == "" {
		delete(out.Filters, key)
	} else {
		if out.Filters == nil {
			out.Filters = map[string]string{}
		}
		out.Filters[key] = value
	}
	out.Page = 1
	return out
}

// TrimmedSearch is the search term as sent upstream.
func (q QueryState) TrimmedSearch() string {
	return strings.TrimSpace(q.SearchTerm)
}

// HasStatusFilter reports whether a concrete status filter is active.
func (q QueryState) HasStatusFilter() bool {
	s := strings.TrimSpace(q.StatusFilter)
	return s != "" && s != StatusAll
}

// Values encodes the query the way the DarahConnect list endpoints expect it:
// page, limit, search (omitted when blank), status (omitted for "all"), and extra filters.
func (q QueryState) Values() url.Values {
	v := url.Values{}
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.PageSize
	if limit <= 0 {
		limit = DefaultPageSize
	}
	v.Set("page", strconv.Itoa(page))
	v.Set("limit", strconv.Itoa(limit))
	if s := q.TrimmedSearch(); s != "" {
		v.Set("search", s)
	}
	if q.HasStatusFilter() {
		v.Set("status", strings.TrimSpace(q.StatusFilter))
	}
	for _, k := range q.filterKeys() {
		if IsReservedParam(k) {
			continue
		}
		if val := strings.TrimSpace(q.Filters[k]); val != "" {
			v.Set(k, val)
		}
	}
	return v
}

// CacheKey returns a stable string identifying the query, used for page caching.
func (q QueryState) CacheKey() string {
	return q.Values().Encode()
}

func (q QueryState) filterKeys() []string {
	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func normalizeStatus(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return StatusAll
	}
	return status
}
