package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/darahconnect/darah-dashboard/internal/core"
	"github.com/darahconnect/darah-dashboard/internal/domain/model"
	"github.com/darahconnect/darah-dashboard/internal/mocks"
	"github.com/darahconnect/darah-dashboard/internal/service"
)

var requestsSpec = service.SourceSpec{
	Key:      "requests",
	PageSize: 10,
	Filters:  []string{"urgency_level", "blood_type"},
	Targets:  core.StatusTargets{Approve: model.RequestStatusCompleted, Reject: model.RequestStatusRejected},
}

func newDashboard(t *testing.T, mutator core.Mutator, audit core.AuditRepository) *service.DashboardService {
	t.Helper()
	src, err := service.NewSource(requestsSpec, core.PageFetcherFunc[model.BloodRequest](
		func(context.Context, model.QueryState) (model.Page[model.BloodRequest], error) {
			return model.Page[model.BloodRequest]{}, nil
		}), nil)
	require.NoError(t, err)
	dash, err := service.NewDashboardService(service.DashboardServiceOptions{
		Sources:   []service.Source{src},
		Mutations: service.MutationDeps{Mutator: mutator, Audit: audit},
	})
	require.NoError(t, err)
	return dash
}

func TestPrintUsageListsCommandsSorted(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))

	out := buf.String()
	assert.Contains(t, out, "Usage: darah-dashboard-admin <command> [flags]")
	assert.Contains(t, out, "cache-flush")
	assert.Less(t, strings.Index(out, "  approve"), strings.Index(out, "  reject"))
}

func TestParseListFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    listOptions
		wantErr string
	}{
		{
			name: "resource before flags",
			args: []string{"requests", "-status", "pending", "-filter", "blood_type=A+"},
			want: listOptions{
				Resource: "requests", Status: "pending", Page: 1,
				Filters: map[string]string{"blood_type": "A+"},
			},
		},
		{
			name: "resource after flags",
			args: []string{"-search", "siti", "-page", "2", "requests"},
			want: listOptions{
				Resource: "requests", Search: "siti", Status: model.StatusAll, Page: 2,
				Filters: map[string]string{},
			},
		},
		{name: "missing resource", args: []string{"-search", "x"}, wantErr: "a resource is required"},
		{name: "bad filter", args: []string{"requests", "-filter", "blood_type"}, wantErr: "must be key=value"},
		{name: "bad page", args: []string{"requests", "-page", "0"}, wantErr: "--page"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseListFlags(tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListOptionsQuery(t *testing.T) {
	opts := listOptions{
		Status:   "pending",
		Search:   "siti",
		Page:     3,
		PageSize: 25,
		Filters:  map[string]string{"urgency_level": "high"},
	}
	q, err := opts.query(requestsSpec)
	require.NoError(t, err)
	assert.Equal(t, "pending", q.StatusFilter)
	assert.Equal(t, "siti", q.SearchTerm)
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 25, q.PageSize)
	assert.Equal(t, map[string]string{"urgency_level": "high"}, q.Filters)

	_, err = listOptions{Page: 1, Filters: map[string]string{"city": "Bandung"}}.query(requestsSpec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `does not accept filter "city"`)
}

func TestParseMutationFlags(t *testing.T) {
	opts, err := parseMutationFlags("delete", []string{"notifications", "-yes", "-actor", "ops", "7", " ", "8"})
	require.NoError(t, err)
	assert.Equal(t, mutationOptions{Resource: "notifications", IDs: []string{"7", "8"}, Actor: "ops", Yes: true}, opts)

	_, err = parseMutationFlags("approve", []string{"requests"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usage: approve")
}

func TestParseCacheFlushFlags(t *testing.T) {
	opts, err := parseCacheFlushFlags([]string{"requests", "donors"})
	require.NoError(t, err)
	assert.Equal(t, []string{"requests", "donors"}, opts.Resources)

	_, err = parseCacheFlushFlags(nil)
	require.Error(t, err)

	_, err = parseCacheFlushFlags([]string{"-all", "requests"})
	require.Error(t, err)
}

func TestParseAuditFlags(t *testing.T) {
	opts, err := parseAuditFlags([]string{"-resource", " requests ", "-limit", "5"})
	require.NoError(t, err)
	assert.Equal(t, auditOptions{Resource: "requests", Limit: 5}, opts)

	_, err = parseAuditFlags([]string{"-limit", "0"})
	require.Error(t, err)
}

func TestConfirmAction(t *testing.T) {
	tests := []struct {
		name    string
		yes     bool
		input   string
		wantErr bool
	}{
		{name: "yes flag skips prompt", yes: true},
		{name: "y accepts", input: "y\n"},
		{name: "YES accepts", input: "YES\n"},
		{name: "empty declines", input: "\n", wantErr: true},
		{name: "eof declines", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := confirmAction(&out, strings.NewReader(tt.input), tt.yes, "About to delete 1 item(s).")
			if tt.wantErr {
				require.EqualError(t, err, "aborted by user")
			} else {
				require.NoError(t, err)
			}
			if !tt.yes {
				assert.Contains(t, out.String(), "Continue? [y/N]: ")
			}
		})
	}
}

func TestPrintListPage(t *testing.T) {
	var buf bytes.Buffer
	err := printListPage(&buf, service.ListPage{
		Items: []any{
			model.BloodRequest{ID: "41", Status: model.RequestStatusPending},
			model.BloodRequest{ID: "42"},
		},
		Pagination: model.PaginationInfo{CurrentPage: 1, TotalPages: 3, TotalItems: 21},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "41  pending")
	assert.Contains(t, out, "42  -")
	assert.Contains(t, out, "Page 1 of 3 (21 items)")

	buf.Reset()
	require.NoError(t, printListPage(&buf, service.ListPage{}))
	assert.Equal(t, "No items match the current filters.\n", buf.String())
}

func TestPrintSummaryReportsFailures(t *testing.T) {
	var buf bytes.Buffer
	err := printSummary(&buf, service.Summary{Entries: []service.SummaryEntry{
		{Resource: "donors", Total: 12},
		{Resource: "requests", Err: errors.New("upstream down")},
	}})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "donors    12")
	assert.Contains(t, out, "error: upstream down")
	assert.Contains(t, out, "1 resource(s) could not be loaded.")
}

func TestPrintAuditEntries(t *testing.T) {
	var buf bytes.Buffer
	err := printAuditEntries(&buf, []*model.AuditEntry{{
		Resource:  "requests",
		Action:    model.ActionApprove,
		ItemIDs:   []string{"41", "42"},
		Outcome:   model.AuditOutcomeSuccess,
		CreatedAt: time.Now(),
	}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "41,42")
	assert.Contains(t, buf.String(), "approve")

	buf.Reset()
	require.NoError(t, printAuditEntries(&buf, nil))
	assert.Equal(t, "No mutations recorded yet.\n", buf.String())
}

func TestReportOutcome(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, reportOutcome(&buf, "requests", model.MutationOutcome{Action: model.ActionApprove, IDs: []string{"41"}, Applied: true}))
	require.NoError(t, reportOutcome(&buf, "requests", model.MutationOutcome{Action: model.ActionApprove, IDs: []string{"42"}, Skipped: true}))

	err := reportOutcome(&buf, "notifications", model.MutationOutcome{
		Action:    model.ActionDelete,
		IDs:       []string{"7"},
		ServerErr: errors.New("boom"),
	})
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "approve requests 41: done")
	assert.Contains(t, out, "approve requests 42: nothing to change")
	assert.Contains(t, out, "delete notifications 7: failed: boom")
}

func TestMutateEachRecordsActorAndContinuesAfterFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	mutator := mocks.NewMockMutator(ctrl)
	audit := mocks.NewMockAuditRepository(ctrl)

	mutator.EXPECT().UpdateStatus(gomock.Any(), "requests", "41", model.RequestStatusCompleted).Return(nil)
	mutator.EXPECT().UpdateStatus(gomock.Any(), "requests", "42", model.RequestStatusCompleted).Return(errors.New("upstream down"))

	var actors []string
	audit.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e *model.AuditEntry) error {
		actors = append(actors, e.Actor)
		return nil
	}).Times(2)

	dash := newDashboard(t, mutator, audit)
	var buf bytes.Buffer
	err := mutateEach(withActor(t.Context(), "ops"), &buf, dash, mutationOptions{
		Resource: "requests",
		IDs:      []string{"41", "42"},
	}, model.ActionApprove)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "approve 42")
	assert.Equal(t, []string{"ops", "ops"}, actors)
	assert.Contains(t, buf.String(), "approve requests 41: done")
	assert.Contains(t, buf.String(), "approve requests 42: failed")
}

func TestMutateEachUnknownResource(t *testing.T) {
	ctrl := gomock.NewController(t)
	dash := newDashboard(t, mocks.NewMockMutator(ctrl), nil)

	err := mutateEach(t.Context(), &bytes.Buffer{}, dash, mutationOptions{Resource: "unknown", IDs: []string{"1"}}, model.ActionDelete)
	require.Error(t, err)
}

func TestWithActor(t *testing.T) {
	ctx := withActor(t.Context(), "  ")
	assert.Nil(t, model.SessionFrom(ctx))

	ctx = withActor(t.Context(), "ops@darah.id")
	require.NotNil(t, model.SessionFrom(ctx))
	assert.Equal(t, "ops@darah.id", model.SessionFrom(ctx).Email)
}
