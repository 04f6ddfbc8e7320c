//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"context"
	"time"
)

// Session carries the dashboard operator's upstream credentials.
// It is passed explicitly through context rather than read from ambient state.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	AdminName string    `json:"admin_name"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || (!s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt))
}

type sessionKey struct{}

// WithSession returns a context carrying the session.
func WithSession(ctx context.Context, s *Session) context.Context {
	if s == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session stored in ctx, or nil.
func SessionFrom(ctx context.Context) *Session {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}
