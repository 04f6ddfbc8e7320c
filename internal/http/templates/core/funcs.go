// Package core provides the template helpers shared by every dashboard page.
package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"html"
	"html/template"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/darahconnect/darah-dashboard/internal/http/uiutil"
)

// Deps holds optional dependencies for constructing the core template func map.
type Deps struct {
	Template           **template.Template
	ContentTemplateFor func(string) string
}

// Funcs returns a template.FuncMap containing helpers that are broadly useful across templates.
func Funcs(deps Deps) template.FuncMap {
	strict := bluemonday.StrictPolicy()
	funcs := template.FuncMap{
		"sectionTmpl":   deps.ContentTemplateFor,
		"friendlyTime":  friendlyTime,
		"relativeTime":  relativeTime,
		"add":           func(a, b int) int { return a + b },
		"sub":           func(a, b int) int { return a - b },
		"formatNumber":  formatNumber,
		"rupiah":        uiutil.FormatRupiah,
		"statusClass":   StatusClass,
		"humanize":      uiutil.Humanize,
		"orPlaceholder": uiutil.OrPlaceholder,
		"truncateText":  uiutil.TruncateWithEllipsis,
		// plain strips any markup from upstream free text. Entities are decoded again since
		// html/template escapes the result.
		"plain": func(s string) string { return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s))) },
	}

	addRenderFuncs(funcs, deps)
	return funcs
}

func addRenderFuncs(funcs template.FuncMap, deps Deps) {
	funcs["renderSection"] = func(page string, data any) (template.HTML, error) {
		if deps.Template == nil || *deps.Template == nil {
			return "", errors.New("template not initialized")
		}
		var buf bytes.Buffer
		if err := (*deps.Template).ExecuteTemplate(&buf, deps.ContentTemplateFor(page), data); err != nil {
			return "", err
		}
		// #nosec G203 - rendered by our own html/template set; values were escaped during ExecuteTemplate.
		return template.HTML(buf.String()), nil
	}

	funcs["toJSON"] = func(v any) (string, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

func asTime(ts any) time.Time {
	switch v := ts.(type) {
	case time.Time:
		return v
	case *time.Time:
		if v != nil {
			return *v
		}
	}
	return time.Time{}
}

func friendlyTime(ts any) string { return uiutil.FormatFriendlyDateTime(asTime(ts)) }

func relativeTime(ts any) string { return uiutil.FriendlyRelativeTime(asTime(ts)) }

// formatNumber groups the digits of any signed integer.
func formatNumber(v any) string {
	switch x := v.(type) {
	case int:
		return uiutil.FormatThousands(int64(x))
	case int64:
		return uiutil.FormatThousands(x)
	case int32:
		return uiutil.FormatThousands(int64(x))
	default:
		return ""
	}
}

// StatusClass maps an item status to its badge class.
func StatusClass(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "approved", "completed", "success", "active", "read", "valid", "issued":
		return "badge-success"
	case "pending", "unread", "scheduled":
		return "badge-warning"
	case "rejected", "failed", "suspended", "cancelled", "revoked":
		return "badge-danger"
	case "expired":
		return "badge-secondary"
	default:
		return "badge-light"
	}
}
