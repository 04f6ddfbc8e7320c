package httpx

// CurrentPage constants define the page identifiers used in templates and navigation.
const (
	PageDashboard = "dashboard"
	PageList      = "list"
	PageAudit     = "audit"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "frontend/templates"       // From project root
	TemplatePathFromTest = "../../frontend/templates" // From internal/http test files
	StaticPathFromRoot   = "frontend/static"
)

const (
	// sessionCookieName carries the dashboard session id.
	sessionCookieName = "darah_session"

	// defaultMaxPageSize caps page_size when the router is not configured with one.
	defaultMaxPageSize = 100

	// defaultAuditLimit is the number of audit entries shown per page.
	defaultAuditLimit = 50
)

// Query parameter names shared by list views and mutation forms.
const (
	paramSearch   = "search"
	paramStatus   = "status"
	paramPage     = "page"
	paramPageSize = "page_size"
	paramID       = "id"
)

//nolint:gochecknoglobals // static read-only lookup for templates
var contentTemplates = map[string]string{
	PageDashboard: "dashboard-content",
	PageList:      "list-content",
	PageAudit:     "audit-content",
}

// ContentTemplateMap returns the mapping from CurrentPage to template name.
func ContentTemplateMap() map[string]string { return contentTemplates }

// ContentTemplateFor returns the content template for the given CurrentPage.
// Falls back to dashboard-content for unknown pages.
func ContentTemplateFor(currentPage string) string {
	if name, ok := ContentTemplateMap()[currentPage]; ok {
		return name
	}
	return "dashboard-content"
}
