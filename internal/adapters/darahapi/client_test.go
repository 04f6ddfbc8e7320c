package darahapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darahconnect/darah-dashboard/internal/domain/model"
	apperrors "github.com/darahconnect/darah-dashboard/internal/errors"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Options{BaseURL: srv.URL + "/api", Timeout: 2 * time.Second, Token: "service-token"})
	require.NoError(t, err)
	return c, srv
}

func TestNewClient_RejectsBadBaseURL(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "ftp://example.com"})
	require.Error(t, err)

	c, err := NewClient(Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
}

func TestFetchPage_SearchAndStatusScenario(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/admin/blood-requests", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "1", q.Get("page"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.Equal(t, "ahmad", q.Get("search"))
		assert.Equal(t, "pending", q.Get("status"))
		assert.Equal(t, "blood_request", q.Get("event_type"))
		assert.Equal(t, "Bearer service-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"data":[
			{"id":1,"status":"pending","user":{"name":"Ahmad"}},
			{"id":2,"status":"pending","user":{"name":"Ahmad Fauzi"}}
		],"pagination":{"page":1,"per_page":10,"total_items":2,"total_pages":1}}`)
	})

	q := model.NewQueryState(10).WithSearch("ahmad").WithStatus("pending")
	page, err := FetchPage(context.Background(), c, Requests, q)
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.Equal(t, "Ahmad Fauzi", page.Items[1].RequesterName)
	assert.Equal(t, 1, page.Pagination.TotalPages)
	assert.False(t, page.Pagination.Multiple())
}

func TestFetchPage_OmitsEmptyParamsAndUsesSessionToken(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.False(t, q.Has("search"))
		assert.False(t, q.Has("status"))
		assert.Equal(t, "16", q.Get("limit"))
		assert.Equal(t, "campaign", q.Get("event_type"))
		assert.Equal(t, "Bearer admin-token", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"success":true,"data":{"data":[]}}`)
	})

	ctx := model.WithSession(context.Background(), &model.Session{Token: "admin-token"})
	q := model.NewQueryState(0).WithSearch("   ")
	q.PageSize = 0
	page, err := FetchPage(ctx, c, Campaigns, q)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestFetchPage_FixedParamsWinOverFilters(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "blood_request", r.URL.Query().Get("event_type"))
		_, _ = io.WriteString(w, `{"data":[]}`)
	})
	q := model.NewQueryState(10).WithFilter("event_type", "campaign")
	_, err := FetchPage(context.Background(), c, Requests, q)
	require.NoError(t, err)
}

func TestFetchPage_UnknownShapeIsEmpty(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"data":{"total":12}}`)
	})
	page, err := FetchPage(context.Background(), c, Donations, model.NewQueryState(10))
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.Pagination.TotalPages)
}

func TestClient_ErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantMsg  string
		wantCode apperrors.ErrorCode
	}{
		{
			name:     "meta message wins",
			status:   http.StatusUnauthorized,
			body:     `{"meta":{"message":"Token kedaluwarsa"},"error":"unauthorized","message":"nope"}`,
			wantMsg:  "Token kedaluwarsa",
			wantCode: apperrors.ErrCodeUpstream,
		},
		{
			name:     "error before message",
			status:   http.StatusBadRequest,
			body:     `{"error":"status tidak valid","message":"bad request"}`,
			wantMsg:  "status tidak valid",
			wantCode: apperrors.ErrCodeValidation,
		},
		{
			name:     "message",
			status:   http.StatusNotFound,
			body:     `{"message":"Data tidak ditemukan"}`,
			wantMsg:  "Data tidak ditemukan",
			wantCode: apperrors.ErrCodeNotFound,
		},
		{
			name:     "status text for empty body",
			status:   http.StatusBadGateway,
			body:     ``,
			wantMsg:  "Bad Gateway",
			wantCode: apperrors.ErrCodeUpstream,
		},
		{
			name:     "success false on 200",
			status:   http.StatusOK,
			body:     `{"success":false}`,
			wantMsg:  "Request failed",
			wantCode: apperrors.ErrCodeUpstream,
		},
		{
			name:     "success false with message",
			status:   http.StatusOK,
			body:     `{"success":false,"message":"Gagal memperbarui status"}`,
			wantMsg:  "Gagal memperbarui status",
			wantCode: apperrors.ErrCodeUpstream,
		},
		{
			name:     "undecodable 200",
			status:   http.StatusOK,
			body:     `<html>oops</html>`,
			wantMsg:  "Invalid response from server",
			wantCode: apperrors.ErrCodeUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			err := c.UpdateStatus(context.Background(), ResourceDonations, "1", model.DonationStatusSuccess)
			require.Error(t, err)
			assert.Equal(t, tt.wantMsg, apperrors.UserMessage(err, ""))
			assert.Equal(t, tt.wantCode, apperrors.GetCode(err))

			apiErr, ok := AsAPIError(err)
			require.True(t, ok)
			assert.Equal(t, tt.status, apiErr.Status)
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewClient(Options{BaseURL: url})
	require.NoError(t, err)

	_, err = FetchPage(context.Background(), c, Donations, model.NewQueryState(10))
	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailable(err))
	assert.Equal(t, "Network error occurred", apperrors.UserMessage(err, ""))

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, KindTransport, apiErr.Kind)
}

func TestClient_CanceledContext(t *testing.T) {
	c, _ := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Error("request should not be sent")
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Delete(ctx, ResourceNotifications, "n1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCanceled(err))
}

const hospitalsBody = `{"success":true,"data":[
	{"id":1,"name":"RS Hasan Sadikin","address":"Jl. Pasteur 38","city":"Bandung","province":"Jawa Barat","latitude":-6.897,"longitude":"107.598"},
	{"id":2,"name":"RS Borromeus","address":"Jl. Ir. H. Juanda 100","city":"Bandung","province":"Jawa Barat"},
	{"id":3,"name":"RSUP Sardjito","address":"Jl. Kesehatan 1","city":"Yogyakarta","province":"DI Yogyakarta"},
	{"id":4,"name":"RS Santosa","address":"Jl. Kebonjati 38","city":"Bandung","province":"Jawa Barat"}
]}`

func TestFetchPage_UnpagedHospitalsAreFilteredLocally(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/api/hospital", r.URL.Path)
		assert.Empty(t, r.URL.RawQuery)
		_, _ = io.WriteString(w, hospitalsBody)
	})
	ctx := context.Background()

	tests := []struct {
		name      string
		q         model.QueryState
		wantIDs   []string
		wantPage  int
		wantTotal int
		wantPages int
	}{
		{
			name:      "first page",
			q:         model.NewQueryState(2),
			wantIDs:   []string{"1", "2"},
			wantPage:  1,
			wantTotal: 4,
			wantPages: 2,
		},
		{
			name:      "second page",
			q:         model.QueryState{Page: 2, PageSize: 2},
			wantIDs:   []string{"3", "4"},
			wantPage:  2,
			wantTotal: 4,
			wantPages: 2,
		},
		{
			name:      "search matches address case-insensitively",
			q:         model.NewQueryState(10).WithSearch("  KEBONJATI "),
			wantIDs:   []string{"4"},
			wantPage:  1,
			wantTotal: 1,
			wantPages: 1,
		},
		{
			name:      "city filter",
			q:         model.NewQueryState(10).WithFilter("city", "yogyakarta"),
			wantIDs:   []string{"3"},
			wantPage:  1,
			wantTotal: 1,
			wantPages: 1,
		},
		{
			name:      "province filter with search",
			q:         model.NewQueryState(10).WithFilter("province", "Jawa Barat").WithSearch("rs b"),
			wantIDs:   []string{"2"},
			wantPage:  1,
			wantTotal: 1,
			wantPages: 1,
		},
		{
			name:      "page past the end is clamped",
			q:         model.QueryState{Page: 9, PageSize: 3},
			wantIDs:   []string{"4"},
			wantPage:  2,
			wantTotal: 4,
			wantPages: 2,
		},
		{
			name:      "no match",
			q:         model.NewQueryState(10).WithSearch("Surabaya"),
			wantIDs:   []string{},
			wantPage:  1,
			wantTotal: 0,
			wantPages: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := FetchPage(ctx, c, Hospitals, tt.q)
			require.NoError(t, err)
			ids := make([]string, 0, len(page.Items))
			for _, h := range page.Items {
				ids = append(ids, h.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantPage, page.Pagination.CurrentPage)
			assert.Equal(t, tt.wantTotal, page.Pagination.TotalItems)
			assert.Equal(t, tt.wantPages, page.Pagination.TotalPages)
		})
	}
	assert.Equal(t, int32(len(tests)), hits.Load())

	page, err := FetchPage(ctx, c, Hospitals, model.NewQueryState(1))
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "RS Hasan Sadikin", page.Items[0].Name)
	assert.InDelta(t, -6.897, page.Items[0].Latitude, 1e-9)
	assert.InDelta(t, 107.598, page.Items[0].Longitude, 1e-9)
}

func TestClient_Mutations(t *testing.T) {
	type call struct {
		method string
		path   string
		body   map[string]any
	}
	var got call
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = call{method: r.Method, path: r.URL.Path}
		if r.Body != nil {
			raw, _ := io.ReadAll(r.Body)
			if len(raw) > 0 {
				assert.NoError(t, json.Unmarshal(raw, &got.body))
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			}
		}
		_, _ = io.WriteString(w, `{"success":true,"message":"ok"}`)
	})
	ctx := context.Background()

	tests := []struct {
		name string
		do   func() error
		want call
	}{
		{
			name: "approve blood request",
			do:   func() error { return c.UpdateStatus(ctx, ResourceRequests, "42", model.RequestStatusCompleted) },
			want: call{http.MethodPut, "/api/admin/blood-requests/42/status", map[string]any{"status": "completed"}},
		},
		{
			name: "verify campaign",
			do:   func() error { return c.UpdateStatus(ctx, ResourceCampaigns, "9", Campaigns.Targets.Approve) },
			want: call{http.MethodPut, "/api/admin/blood-requests/9/status", map[string]any{"status": "verified"}},
		},
		{
			name: "mark notification read",
			do:   func() error { return c.SetRead(ctx, ResourceNotifications, "n1", true) },
			want: call{http.MethodPut, "/api/admin/notifications/n1", map[string]any{"is_read": true}},
		},
		{
			name: "delete donor",
			do:   func() error { return c.Delete(ctx, ResourceDonors, "7") },
			want: call{http.MethodDelete, "/api/admin/donors/7", nil},
		},
		{
			name: "delete hospital",
			do:   func() error { return c.Delete(ctx, ResourceHospitals, "3") },
			want: call{http.MethodDelete, "/api/hospital/3", nil},
		},
		{
			name: "create notification",
			do: func() error {
				return c.Create(ctx, ResourceNotifications, model.CreateNotificationRequest{
					UserID: 3, Title: "Halo", Message: "Terima kasih", NotificationType: "System",
				})
			},
			want: call{http.MethodPost, "/api/admin/notifications", map[string]any{
				"user_id": float64(3), "title": "Halo", "message": "Terima kasih", "notification_type": "System",
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = call{}
			require.NoError(t, tt.do())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_MutationInputValidation(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, func(http.ResponseWriter, *http.Request) { hits.Add(1) })
	ctx := context.Background()

	assert.True(t, apperrors.IsValidation(c.Delete(ctx, "hospitals", "1")))
	assert.True(t, apperrors.IsValidation(c.Delete(ctx, ResourceDonors, " ")))
	assert.True(t, apperrors.IsValidation(c.Create(ctx, "hospitals", map[string]string{})))
	assert.Zero(t, hits.Load())
}

type recordingObserver struct {
	calls atomic.Int32
	last  atomic.Int32
}

func (o *recordingObserver) ObserveRequest(_, _ string, status int, _ time.Duration, _ error) {
	o.calls.Add(1)
	o.last.Store(int32(status))
}

func TestClient_ObserverAndPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	c, err := NewClient(Options{BaseURL: srv.URL, Observer: obs, RateLimit: 100, Burst: 5})
	require.NoError(t, err)

	require.NoError(t, c.Delete(context.Background(), ResourceCertificates, "1"))
	assert.Equal(t, int32(1), obs.calls.Load())
	assert.Equal(t, int32(http.StatusNoContent), obs.last.Load())
	require.NoError(t, c.Ping(context.Background()))
}
