package viewmodel

// PageLink is one numbered pagination button.
type PageLink struct {
	Number  int
	URL     string
	Current bool
}

// Pagination contains pagination metadata for list views.
type Pagination struct {
	Page       int
	PageSize   int
	TotalPages int
	TotalCount int
	HasPrev    bool
	HasNext    bool
	StartIndex int
	EndIndex   int
	PrevURL    string
	NextURL    string
	Links      []PageLink
	// Visible is false when everything fits on one page.
	Visible bool
}
