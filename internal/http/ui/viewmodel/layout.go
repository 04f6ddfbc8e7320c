package viewmodel

// Operator is the signed-in dashboard operator shown in the header.
type Operator struct {
	Name  string
	Email string
}

// NavItem is one sidebar entry.
type NavItem struct {
	Key    string
	Title  string
	Path   string
	Active bool
}

// Layout captures shared chrome metadata (titles, navigation state, operator).
type Layout struct {
	Title           string
	PageTitle       string
	CurrentPage     string
	IsAuthenticated bool
	Operator        *Operator
	Nav             []NavItem
}

// LayoutProvider exposes layout metadata for renderer utilities.
type LayoutProvider interface {
	LayoutData() *Layout
}
