package httpx

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLivenessHandler(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		wantBody bool
	}{
		{name: "get returns status", method: http.MethodGet, wantBody: true},
		{name: "head has no body", method: http.MethodHead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			livenessHandler(rec, httptest.NewRequest(tt.method, "/livez", nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if !tt.wantBody {
				assert.Zero(t, rec.Body.Len())
				return
			}
			var body livenessResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "ok", body.Status)
			assert.Equal(t, dashboardServiceName, body.Service)
			assert.False(t, body.Timestamp.IsZero())
		})
	}
}

func TestRouterHealthFallsBackToLiveness(t *testing.T) {
	h := NewRouter(RouterServices{TemplateFS: emptyTemplateFS()})

	for _, path := range []string{"/healthz", "/livez"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Accept", "application/json")
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), `"status":"ok"`, path)
	}
}

func TestRouterHealthUsesConfiguredChecks(t *testing.T) {
	checks := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	h := NewRouter(RouterServices{Health: checks, TemplateFS: emptyTemplateFS()})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func emptyTemplateFS() fs.FS { return fstest.MapFS{} }
