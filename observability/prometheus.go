package observability

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ensure Prometheus implements MetricFactory.
var _ MetricFactory = (*Prometheus)(nil)

// Prometheus is a MetricFactory backed by its own registry. It also
// carries HTTP request metrics for the API server.
type Prometheus struct {
	registry *prometheus.Registry
	handler  http.Handler

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	histograms map[string]prometheus.Histogram

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewPrometheus initialises the registry and the HTTP metrics.
func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoiced_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "invoiced_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	registry.MustRegister(requests, duration)

	return &Prometheus{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		counters:        make(map[string]prometheus.Counter),
		histograms:      make(map[string]prometheus.Histogram),
		requestsTotal:   requests,
		requestDuration: duration,
	}
}

// metricName maps "ledger.invoice.created" to "ledger_invoice_created".
func metricName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}

// Counter implements MetricFactory. Asking twice for a name returns the
// same collector.
func (p *Prometheus) Counter(name string) Counter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.counters[name]; ok {
		return c
	}
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricName(name) + "_total",
		Help: "Count of " + name + " events.",
	})
	p.registry.MustRegister(c)
	p.counters[name] = c
	return c
}

// Histogram implements MetricFactory.
func (p *Prometheus) Histogram(name string) Histogram {
	p.mu.Lock()
	defer p.mu.Unlock()

	if h, ok := p.histograms[name]; ok {
		return h
	}
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    metricName(name),
		Help:    "Distribution of " + name + ".",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})
	p.registry.MustRegister(h)
	p.histograms[name] = h
	return h
}

// Handler returns the /metrics endpoint.
func (p *Prometheus) Handler() http.Handler {
	if p == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return p.handler
}

// Registerer exposes the registry for custom collectors.
func (p *Prometheus) Registerer() prometheus.Registerer {
	if p == nil {
		return prometheus.DefaultRegisterer
	}
	return p.registry
}

// Middleware records request count and latency per chi route pattern.
func (p *Prometheus) Middleware(next http.Handler) http.Handler {
	if p == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		p.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		p.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
