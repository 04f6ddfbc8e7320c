package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/darahconnect/darah-dashboard/config"
	"github.com/darahconnect/darah-dashboard/internal/core"
	"github.com/darahconnect/darah-dashboard/internal/domain/model"
	"github.com/darahconnect/darah-dashboard/internal/mocks"
)

var _ Source = (*warmSource)(nil)

type warmSource struct {
	key   string
	err   error
	warms atomic.Int32
}

func (s *warmSource) Spec() SourceSpec { return SourceSpec{Key: s.key} }

func (s *warmSource) List(context.Context, model.QueryState) (ListPage, error) {
	return ListPage{}, nil
}

func (s *warmSource) Mutate(
	context.Context, model.QueryState, model.MutationRequest, core.MutationDispatcherOptions,
) (ListPage, model.MutationOutcome, error) {
	return ListPage{}, model.MutationOutcome{}, nil
}

func (s *warmSource) Browse(BrowseOptions) (Browser, error) {
	return nil, errors.New("warmSource does not browse")
}

func (s *warmSource) Warm(context.Context) error {
	s.warms.Add(1)
	return s.err
}

type warmRecorder struct {
	mu      sync.Mutex
	results map[string]error
}

func (r *warmRecorder) ObserveWarm(resource string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.results == nil {
		r.results = map[string]error{}
	}
	r.results[resource] = err
}

type sinkCall struct {
	kind string
	name string
	tags map[string]string
}

type recordingSink struct {
	mu    sync.Mutex
	calls []sinkCall
}

func (s *recordingSink) add(kind, name string, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, sinkCall{kind: kind, name: name, tags: tags})
}

func (s *recordingSink) Count(name string, _ int64, tags map[string]string)   { s.add("count", name, tags) }
func (s *recordingSink) Gauge(name string, _ float64, tags map[string]string) { s.add("gauge", name, tags) }
func (s *recordingSink) Timing(name string, _ time.Duration, tags map[string]string) {
	s.add("timing", name, tags)
}

func (s *recordingSink) find(name string) (sinkCall, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.calls {
		if c.name == name {
			return c, true
		}
	}
	return sinkCall{}, false
}

func TestNewCacheWarmer_Validation(t *testing.T) {
	_, err := NewCacheWarmer(CacheWarmerOptions{Config: config.WarmerConfig{Interval: time.Minute}})
	require.Error(t, err)

	_, err = NewCacheWarmer(CacheWarmerOptions{Sources: []Source{&warmSource{key: "a"}}})
	require.Error(t, err)

	w, err := NewCacheWarmer(CacheWarmerOptions{
		Sources: []Source{&warmSource{key: "a"}},
		Config:  config.WarmerConfig{Interval: time.Minute},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, w.config.Concurrency)
}

func TestCacheWarmer_WarmOnce(t *testing.T) {
	ok := &warmSource{key: "requests"}
	bad := &warmSource{key: "donations", err: errors.New("upstream down")}
	obs := &warmRecorder{}
	sink := &recordingSink{}

	w, err := NewCacheWarmer(CacheWarmerOptions{
		Sources: []Source{ok, bad},
		Config:  config.WarmerConfig{Interval: time.Minute, Concurrency: 2},
		Deps:    CacheWarmerDeps{Observer: obs, Metrics: sink},
	})
	require.NoError(t, err)

	err = w.WarmOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "warm donations")
	assert.Equal(t, int32(1), ok.warms.Load())
	assert.Equal(t, int32(1), bad.warms.Load())

	assert.NoError(t, obs.results["requests"])
	assert.Error(t, obs.results["donations"])

	run, found := sink.find("cache_warmer.run")
	require.True(t, found)
	assert.Equal(t, "error", run.tags["result"])
	assert.Equal(t, "errors_errorstring", run.tags["error_class"])
	_, found = sink.find("cache_warmer.last_success_epoch")
	assert.False(t, found)
}

func TestCacheWarmer_RunStopsOnCancel(t *testing.T) {
	src := &warmSource{key: "requests"}
	w, err := NewCacheWarmer(CacheWarmerOptions{
		Sources: []Source{src},
		Config:  config.WarmerConfig{Interval: 20 * time.Millisecond, Concurrency: 1},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return src.warms.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("cache warmer did not stop")
	}
}

func TestSource_WarmRefreshesFirstPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCacheRepository(ctrl)
	pages := core.NewPageCache(core.PageCacheOptions{Cache: cache})

	var got model.QueryState
	origin := core.PageFetcherFunc[model.BloodRequest](func(_ context.Context, q model.QueryState) (model.Page[model.BloodRequest], error) {
		got = q
		return requestPage(), nil
	})
	src, err := NewSource(requestSpec, origin, pages)
	require.NoError(t, err)

	cache.EXPECT().Get(gomock.Any(), "darah:page:requests:gen").Return([]byte("g7"), nil)
	cache.EXPECT().Set(gomock.Any(), gomock.Cond(func(k any) bool {
		return strings.HasPrefix(k.(string), "darah:page:requests:g7:")
	}), gomock.Any(), core.DefaultPageCacheTTL).Return(nil)

	require.NoError(t, src.Warm(context.Background()))
	assert.Equal(t, model.NewQueryState(10), got)
}
