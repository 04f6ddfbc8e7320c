package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/darahconnect/darah-dashboard/config"
	obserrors "github.com/darahconnect/darah-dashboard/internal/observability/errors"
	"github.com/darahconnect/darah-dashboard/internal/observability/metrics"
	"github.com/darahconnect/darah-dashboard/internal/observability/statsd"
)

// WarmObserver receives the outcome of each resource warm.
type WarmObserver interface {
	ObserveWarm(resource string, err error)
}

// CacheWarmerOptions groups dependencies for CacheWarmer.
type CacheWarmerOptions struct {
	Sources []Source            // Required: resources to keep warm
	Config  config.WarmerConfig // Required: interval and concurrency
	Deps    CacheWarmerDeps     // Optional: logging and metrics
}

// CacheWarmerDeps are the optional collaborators of CacheWarmer.
type CacheWarmerDeps struct {
	Logger   *slog.Logger
	Observer WarmObserver
	Metrics  statsd.Sink
}

// CacheWarmer keeps page 1 of every resource in the page cache so the first view of each
// list is served without an upstream round trip.
type CacheWarmer struct {
	sources  []Source
	config   config.WarmerConfig
	logger   *slog.Logger
	observer WarmObserver
	metrics  statsd.Sink
}

// NewCacheWarmer constructs a CacheWarmer.
func NewCacheWarmer(opts CacheWarmerOptions) (*CacheWarmer, error) {
	if len(opts.Sources) == 0 {
		return nil, errors.New("cache warmer requires at least one source")
	}
	if opts.Config.Interval <= 0 {
		return nil, errors.New("cache warmer interval must be positive")
	}
	logger := opts.Deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	concurrency := opts.Config.Concurrency
	if concurrency <= 0 {
		opts.Config.Concurrency = 1
		concurrency = 1
	}
	logger = logger.With("component", "cache_warmer")
	logger.Debug("CacheWarmer initialized",
		"interval", opts.Config.Interval,
		"concurrency", concurrency,
		"resources", len(opts.Sources),
	)
	return &CacheWarmer{
		sources:  opts.Sources,
		config:   opts.Config,
		logger:   logger,
		observer: opts.Deps.Observer,
		metrics:  opts.Deps.Metrics,
	}, nil
}

// Run warms the cache at the configured interval until ctx is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (w *CacheWarmer) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "starting cache warmer", "interval", w.config.Interval)

	w.waitWithJitter(ctx)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	if err := w.WarmOnce(ctx); err != nil {
		w.logWarmError(ctx, err)
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "cache warmer stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if err := w.WarmOnce(ctx); err != nil {
				w.logWarmError(ctx, err)
			}
		}
	}
}

// waitWithJitter delays up to 10% of the interval so replicas do not warm in lockstep.
func (w *CacheWarmer) waitWithJitter(ctx context.Context) {
	maxJitter := int64(w.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		w.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		return
	}
	jitter := time.Duration(int64(binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter))) // #nosec G115 - bounded by maxJitter
	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

// WarmOnce refreshes page 1 of every source. Failures are collected; one resource failing
// does not stop the others.
func (w *CacheWarmer) WarmOnce(ctx context.Context) error {
	start := time.Now()
	var (
		mu   sync.Mutex
		errs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.config.Concurrency)
	for _, src := range w.sources {
		g.Go(func() error {
			key := src.Spec().Key
			err := src.Warm(gctx)
			if w.observer != nil {
				w.observer.ObserveWarm(key, err)
			}
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("warm %s: %w", key, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	w.emitMetrics(len(w.sources)-len(errs), time.Since(start), errs)
	if err := errors.Join(errs...); err != nil {
		if isContextCancellation(err) && ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (w *CacheWarmer) emitMetrics(warmed int, elapsed time.Duration, errs []error) {
	if w.metrics == nil {
		return
	}
	result := metrics.ResultSuccess
	tags := map[string]string{}
	if len(errs) > 0 {
		result = metrics.ResultError
		if class := obserrors.Classify(errs[0]); class != "" {
			tags["error_class"] = class
		}
	}
	tags["result"] = result
	w.metrics.Count("cache_warmer.run", 1, tags)
	w.metrics.Gauge("cache_warmer.pages_warmed", float64(warmed), nil)
	if elapsed > 0 {
		w.metrics.Timing("cache_warmer.run_duration", elapsed, map[string]string{"result": result})
	}
	if len(errs) == 0 {
		w.metrics.Gauge("cache_warmer.last_success_epoch", float64(time.Now().Unix()), nil)
	}
}

func (w *CacheWarmer) logWarmError(ctx context.Context, err error) {
	if isContextCancellation(err) {
		w.logger.DebugContext(ctx, "cache warm cancelled by context", "error", err)
		return
	}
	w.logger.ErrorContext(ctx, "cache warm failed", "error", err)
}

func isContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
