package httpx

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/darahconnect/darah-dashboard/internal/core"
	"github.com/darahconnect/darah-dashboard/internal/domain/model"
	apperrors "github.com/darahconnect/darah-dashboard/internal/errors"
)

const defaultSessionTTL = 12 * time.Hour

// SessionHandlers hands upstream admin credentials to the dashboard. The token is kept
// server-side; the browser only holds an opaque session id cookie.
type SessionHandlers struct {
	Sessions     core.SessionRepository
	TTL          time.Duration
	CookieSecure bool
	Now          func() time.Time
	Logger       *slog.Logger
}

type createSessionRequest struct {
	Token     string `json:"token"`
	AdminName string `json:"admin_name"`
	Email     string `json:"email"`
}

type sessionResponse struct {
	ID        string    `json:"id"`
	AdminName string    `json:"admin_name"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *SessionHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *SessionHandlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *SessionHandlers) ttl() time.Duration {
	if h.TTL > 0 {
		return h.TTL
	}
	return defaultSessionTTL
}

// Create stores a session for the posted admin token and sets the session cookie.
// POST /session.
func (h *SessionHandlers) Create(w http.ResponseWriter, r *http.Request) {
	if h.Sessions == nil {
		writeAppError(w, apperrors.Unavailable("Sessions are not configured"))
		return
	}
	var req createSessionRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		writeAppError(w, apperrors.ValidationField("token", "token is required"))
		return
	}

	sess := model.Session{
		ID:        uuid.NewString(),
		Token:     strings.TrimSpace(req.Token),
		AdminName: strings.TrimSpace(req.AdminName),
		Email:     strings.TrimSpace(req.Email),
		ExpiresAt: h.now().Add(h.ttl()).UTC(),
	}
	if err := h.Sessions.Save(r.Context(), sess); err != nil {
		h.logger().ErrorContext(r.Context(), "failed to save session", "error", err)
		writeAppError(w, err)
		return
	}

	h.setSessionCookie(w, r, sess)
	WriteJSON(w, http.StatusCreated, sessionResponse{
		ID:        sess.ID,
		AdminName: sess.AdminName,
		Email:     sess.Email,
		ExpiresAt: sess.ExpiresAt,
	})
}

// Delete removes the current session and clears the cookie.
// DELETE /session.
func (h *SessionHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" && h.Sessions != nil {
		if delErr := h.Sessions.Delete(r.Context(), c.Value); delErr != nil {
			h.logger().WarnContext(r.Context(), "failed to delete session", "error", delErr)
		}
	}
	h.clearCookie(w, r)
	if IsHTMX(r) {
		HTMX(w).Redirect("/")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandlers) secure(r *http.Request) bool {
	return h.CookieSecure || r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func (h *SessionHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, s model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ExpiresAt.Sub(h.now()).Seconds()),
	})
}

func (h *SessionHandlers) clearCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}
