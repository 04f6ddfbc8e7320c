// Package metrics records upstream request, mutation, and dashboard HTTP metrics to StatsD
// and Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/darahconnect/darah-dashboard/internal/adapters/darahapi"
	"github.com/darahconnect/darah-dashboard/internal/core"
	"github.com/darahconnect/darah-dashboard/internal/domain/model"
	obserrors "github.com/darahconnect/darah-dashboard/internal/observability/errors"
	"github.com/darahconnect/darah-dashboard/internal/observability/statsd"
)

// Result tags.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

const namespace = "darah_dashboard"

// Recorder fans metrics out to a StatsD sink and a Prometheus registry. Either may be nil.
type Recorder struct {
	sink     statsd.Sink
	registry *prometheus.Registry

	upstreamTotal    *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	mutationTotal    *prometheus.CounterVec
	mutationDuration *prometheus.HistogramVec
	warmTotal        *prometheus.CounterVec
	httpTotal        *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

var (
	_ darahapi.RequestObserver = (*Recorder)(nil)
	_ core.MutationObserver    = (*Recorder)(nil)
)

// NewRecorder builds a Recorder with its own registry, including Go and process collectors.
func NewRecorder(sink statsd.Sink) *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Recorder{
		sink:     sink,
		registry: reg,
		upstreamTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Requests sent to the DarahConnect API.",
		}, []string{"method", "route", "status", "result"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of DarahConnect API requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		mutationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Dispatched list mutations.",
		}, []string{"resource", "action", "result", "error_class"}),
		mutationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mutation_duration_seconds",
			Help:      "End-to-end latency of dispatched mutations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"resource", "action"}),
		warmTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_warm_total",
			Help:      "Page cache warm attempts per resource.",
		}, []string{"resource", "result"}),
		httpTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Dashboard HTTP requests.",
		}, []string{"code", "method", "pattern"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Dashboard HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "pattern"}),
	}
	reg.MustRegister(r.upstreamTotal, r.upstreamDuration, r.mutationTotal, r.mutationDuration,
		r.warmTotal, r.httpTotal, r.httpDuration)
	return r
}

// Registry exposes the Prometheus registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// ObserveRequest implements darahapi.RequestObserver.
func (r *Recorder) ObserveRequest(method, path string, status int, d time.Duration, err error) {
	if r == nil {
		return
	}
	route := Route(path)
	result := resultOf(err)
	statusLabel := "none"
	if status > 0 {
		statusLabel = strconv.Itoa(status)
	}

	r.upstreamTotal.WithLabelValues(method, route, statusLabel, result).Inc()
	r.upstreamDuration.WithLabelValues(method, route).Observe(d.Seconds())

	if r.sink == nil {
		return
	}
	tags := map[string]string{"method": method, "route": route, "status": statusLabel, "result": result}
	if err != nil {
		tags["error_class"] = obserrors.Classify(err)
	}
	r.sink.Count("upstream.request", 1, tags)
	r.sink.Timing("upstream.duration", d, map[string]string{"method": method, "route": route})
}

// ObserveMutation implements core.MutationObserver.
func (r *Recorder) ObserveMutation(resource string, action model.Action, d time.Duration, err error) {
	if r == nil {
		return
	}
	result := resultOf(err)
	class := "none"
	if err != nil {
		class = obserrors.Classify(err)
	}

	r.mutationTotal.WithLabelValues(resource, action.String(), result, class).Inc()
	r.mutationDuration.WithLabelValues(resource, action.String()).Observe(d.Seconds())

	if r.sink == nil {
		return
	}
	tags := map[string]string{"resource": resource, "action": action.String(), "result": result}
	if err != nil {
		tags["error_class"] = class
	}
	r.sink.Count("mutation.dispatch", 1, tags)
	if d > 0 {
		r.sink.Timing("mutation.duration", d, map[string]string{"resource": resource, "action": action.String()})
	}
}

// ObserveWarm records one cache warmer attempt for resource.
func (r *Recorder) ObserveWarm(resource string, err error) {
	if r == nil {
		return
	}
	result := resultOf(err)
	r.warmTotal.WithLabelValues(resource, result).Inc()
	if r.sink != nil {
		r.sink.Count("cache.warm", 1, map[string]string{"resource": resource, "result": result})
	}
}

// Middleware counts dashboard requests by their mux pattern.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, req)

		pattern := req.Pattern
		if pattern == "" {
			pattern = "unmatched"
		}
		r.httpTotal.WithLabelValues(strconv.Itoa(sw.status), req.Method, pattern).Inc()
		r.httpDuration.WithLabelValues(req.Method, pattern).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Route collapses item ids in an upstream path so it is safe as a label:
// "/admin/blood-requests/42/status" becomes "/admin/blood-requests/:id/status".
func Route(path string) string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segs {
		if strings.IndexFunc(s, unicode.IsDigit) >= 0 {
			segs[i] = ":id"
		}
	}
	return "/" + strings.Join(segs, "/")
}

func resultOf(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}
