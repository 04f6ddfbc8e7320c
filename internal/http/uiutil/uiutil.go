// Package uiutil formats values for display in dashboard tables and templates.
package uiutil

import (
	"strconv"
	"strings"
	"time"

	"github.com/darahconnect/darah-dashboard/internal/domain/model"
)

const (
	FriendlyDateTimeLayout = "02 Jan 2006 15:04"
	DateLayout             = "02 Jan 2006"
)

// FriendlyRelativeTime returns a human-friendly description of how long ago t occurred.
// Times in the future are treated as "just now" to avoid confusing negative durations.
func FriendlyRelativeTime(t time.Time) string {
	if t.IsZero() {
		return model.Placeholder
	}
	diff := time.Since(t)
	if diff < 0 {
		return "just now"
	}

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return strconv.Itoa(mins) + " minutes ago"
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return strconv.Itoa(hours) + " hours ago"
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return strconv.Itoa(days) + " days ago"
	default:
		return FormatFriendlyDateTime(t)
	}
}

// FormatFriendlyDateTime returns a consistent local timestamp, or the placeholder for the zero time.
func FormatFriendlyDateTime(t time.Time) string {
	if t.IsZero() {
		return model.Placeholder
	}
	return t.Local().Format(FriendlyDateTimeLayout)
}

// FormatDate returns the local calendar date, or the placeholder for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return model.Placeholder
	}
	return t.Local().Format(DateLayout)
}

// FormatThousands groups digits with dots, the Indonesian convention (1.250.000).
func FormatThousands(n int64) string {
	neg := n < 0
	s := strconv.FormatInt(n, 10)
	if neg {
		s = s[1:]
	}
	if len(s) > 3 {
		var b strings.Builder
		b.Grow(len(s) + (len(s)-1)/3)
		prefix := len(s) % 3
		if prefix == 0 {
			prefix = 3
		}
		b.WriteString(s[:prefix])
		for i := prefix; i < len(s); i += 3 {
			b.WriteByte('.')
			b.WriteString(s[i : i+3])
		}
		s = b.String()
	}
	if neg {
		return "-" + s
	}
	return s
}

// FormatRupiah renders an amount in whole rupiah.
func FormatRupiah(amount int64) string {
	return "Rp " + FormatThousands(amount)
}

// OrPlaceholder returns s, or the placeholder when s is blank.
func OrPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return model.Placeholder
	}
	return s
}

// TruncateWithEllipsis shortens text to the provided rune limit and appends an ellipsis when truncated.
func TruncateWithEllipsis(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	if limit <= 1 {
		return "…"
	}
	return strings.TrimSpace(string(runes[:limit-1])) + "…"
}

// Humanize turns an identifier such as "mark-read" or "blood_request" into "Mark read".
func Humanize(s string) string {
	s = strings.TrimSpace(strings.NewReplacer("-", " ", "_", " ").Replace(s))
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
