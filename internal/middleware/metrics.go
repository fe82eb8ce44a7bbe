package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsConfig struct {
	Namespace   string
	Enabled     bool
	LogRequests bool
}

// Metrics records per-route request counts and latencies and logs one line
// per request at debug level.
type Metrics struct {
	cfg       MetricsConfig
	logger    *log.Logger
	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
	registry  *prometheus.Registry
}

func NewMetrics(cfg MetricsConfig, logger *log.Logger) *Metrics {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "devlevel"
	}
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Name:      "requests_total",
		Help:      "Total HTTP requests processed.",
	}, []string{"route", "method", "status"})
	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})
	registry.MustRegister(requests, durations, collectors.NewGoCollector())
	return &Metrics{cfg: cfg, logger: logger, requests: requests, durations: durations, registry: registry}
}

func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		elapsed := time.Since(start)
		route := routePattern(r)
		if m.cfg.Enabled {
			m.requests.WithLabelValues(route, r.Method, strconv.Itoa(recorder.status)).Inc()
			m.durations.WithLabelValues(route, r.Method).Observe(elapsed.Seconds())
		}
		if m.cfg.LogRequests {
			m.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", recorder.status, "duration", elapsed)
		}
	})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// routePattern labels by chi pattern so path ids do not explode cardinality.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
