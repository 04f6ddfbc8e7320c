// Package darahdashboard embeds the dashboard templates and static assets for production builds.
package darahdashboard

import "embed"

// In dev mode (IsDev=true) templates and assets are read from disk instead.

//go:embed all:frontend/static
var StaticFS embed.FS

//go:embed all:frontend/templates
var TemplateFS embed.FS
