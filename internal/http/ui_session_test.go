package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/darahconnect/darah-dashboard/internal/domain/model"
	"github.com/darahconnect/darah-dashboard/internal/mocks"
)

func TestSessionHandlers_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockSessionRepository(ctrl)
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	var saved model.Session
	repo.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(_ any, s model.Session) error {
		saved = s
		return nil
	})

	h := &SessionHandlers{Sessions: repo, TTL: time.Hour, Now: func() time.Time { return now }}
	req := httptest.NewRequest(http.MethodPost, "/session",
		strings.NewReader(`{"token":" jwt-abc ","admin_name":"Rina","email":"rina@darah.id"}`))
	w := httptest.NewRecorder()
	h.Create(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "jwt-abc", saved.Token)
	assert.Equal(t, "Rina", saved.AdminName)
	assert.Equal(t, now.Add(time.Hour), saved.ExpiresAt)
	assert.NotEmpty(t, saved.ID)
	assert.NotContains(t, w.Body.String(), "jwt-abc")

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, saved.ID, resp.ID)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookieName, cookies[0].Name)
	assert.Equal(t, saved.ID, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)
}

func TestSessionHandlers_CreateRejects(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockSessionRepository(ctrl)

	tests := []struct {
		name string
		h    *SessionHandlers
		body string
		want int
	}{
		{name: "missing token", h: &SessionHandlers{Sessions: repo}, body: `{"admin_name":"Rina"}`, want: http.StatusUnprocessableEntity},
		{name: "unknown field", h: &SessionHandlers{Sessions: repo}, body: `{"token":"x","role":"root"}`, want: http.StatusBadRequest},
		{name: "no session store", h: &SessionHandlers{}, body: `{"token":"x"}`, want: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.h.Create(w, httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestSessionHandlers_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockSessionRepository(ctrl)
	repo.EXPECT().Delete(gomock.Any(), "sess-1").Return(errors.New("redis down"))

	h := &SessionHandlers{Sessions: repo}
	req := httptest.NewRequest(http.MethodDelete, "/session", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sess-1"})
	req.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	h.Delete(w, req)

	assert.Equal(t, "/", w.Header().Get("HX-Redirect"))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestSessionContext_ShowsOperator(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockSessionRepository(ctrl)
	repo.EXPECT().Get(gomock.Any(), "live").Return(model.Session{
		ID: "live", Token: "t", AdminName: "Rina Kartika", ExpiresAt: time.Now().Add(time.Hour),
	}, nil)
	repo.EXPECT().Get(gomock.Any(), "stale").Return(model.Session{
		ID: "stale", Token: "t", AdminName: "Old Admin", ExpiresAt: time.Now().Add(-time.Hour),
	}, nil)

	dash := newTestDashboard(t, mocks.NewMockMutator(ctrl), pageSource(t, requestsSpec, nil, requestsPage(), nil))
	router := newTestRouter(t, dash, repo)

	get := func(cookie string) string {
		req := httptest.NewRequest(http.MethodGet, "/requests", nil)
		req.Header.Set("Accept", "text/html")
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: cookie})
		return serve(router, req).Body.String()
	}

	assert.Contains(t, get("live"), "Rina Kartika")
	stale := get("stale")
	assert.NotContains(t, stale, "Old Admin")
	assert.Contains(t, stale, "Service account")
}
