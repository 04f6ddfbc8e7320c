package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/darahconnect/darah-dashboard/internal/core"
	"github.com/darahconnect/darah-dashboard/internal/domain/model"
	"github.com/darahconnect/darah-dashboard/internal/service"
	"github.com/darahconnect/darah-dashboard/internal/validation"
)

var requestsSpec = service.SourceSpec{
	Key:      "requests",
	Title:    "Permintaan Darah",
	PageSize: 10,
	Statuses: []string{model.RequestStatusPending, model.RequestStatusCompleted, model.RequestStatusRejected},
	Filters:  []string{"urgency_level", "blood_type"},
	Targets:  core.StatusTargets{Approve: model.RequestStatusCompleted, Reject: model.RequestStatusRejected},
}

var notificationsSpec = service.SourceSpec{
	Key:        "notifications",
	Title:      "Notifikasi",
	PageSize:   10,
	Statuses:   []string{model.NotificationFilterRead, model.NotificationFilterUnread},
	Filters:    []string{"notification_type"},
	Selectable: true,
	Creatable:  true,
}

func requestsPage() model.Page[model.BloodRequest] {
	return model.Page[model.BloodRequest]{
		Items: []model.BloodRequest{
			{ID: "41", RequesterName: "RS Harapan", PatientName: "Siti", BloodType: "A+", Quantity: 2, UrgencyLevel: "high", Status: model.RequestStatusPending},
			{ID: "42", RequesterName: "PMI Bandung", PatientName: "Ahmad", BloodType: "O-", Quantity: 1, UrgencyLevel: "low", Status: model.RequestStatusCompleted},
		},
		Pagination: model.PaginationInfo{CurrentPage: 1, PerPage: 10, TotalItems: 2, TotalPages: 1},
	}
}

func notificationsPage() model.Page[model.Notification] {
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	return model.Page[model.Notification]{
		Items: []model.Notification{
			{ID: "7", Title: "Stok menipis", Message: "Golongan O- hampir habis", NotificationType: "System", CreatedAt: created},
			{ID: "8", Title: "Donasi diterima", Message: "Terima kasih", NotificationType: "Donation", IsRead: true, CreatedAt: created},
		},
		Pagination: model.PaginationInfo{CurrentPage: 1, PerPage: 10, TotalItems: 2, TotalPages: 1},
	}
}

// fetchRecorder records the last query a source was asked for.
type fetchRecorder struct {
	last model.QueryState
}

func pageSource[T model.Item[T]](t *testing.T, spec service.SourceSpec, rec *fetchRecorder, page model.Page[T], err error) service.Source {
	t.Helper()
	src, serr := service.NewSource(spec, core.PageFetcherFunc[T](func(_ context.Context, q model.QueryState) (model.Page[T], error) {
		if rec != nil {
			rec.last = q
		}
		return page, err
	}), nil)
	require.NoError(t, serr)
	return src
}

// newTestDashboard wires a real dashboard service over in-memory sources.
func newTestDashboard(t *testing.T, mutator core.Mutator, sources ...service.Source) *service.DashboardService {
	t.Helper()
	svc, err := service.NewDashboardService(service.DashboardServiceOptions{
		Sources: sources,
		Mutations: service.MutationDeps{
			Mutator:  mutator,
			Validate: validation.New().Validate,
		},
	})
	require.NoError(t, err)
	return svc
}

// newTestRouter builds the full router over the on-disk templates.
func newTestRouter(t *testing.T, dash DashboardService, sessions core.SessionRepository) http.Handler {
	t.Helper()
	SkipIfNoTemplates(t)
	return NewRouter(RouterServices{
		Dashboard:  dash,
		Sessions:   sessions,
		TemplateFS: os.DirFS(TemplatePathFromTest),
	})
}

func htmxRequest(method, target, hxTarget string, form url.Values) *http.Request {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("HX-Request", "true")
	if hxTarget != "" {
		req.Header.Set("HX-Target", hxTarget)
	}
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
