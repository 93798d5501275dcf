package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	summariesTotal     *prometheus.CounterVec
	summaryDuration    *prometheus.HistogramVec
	extractedChars     *prometheus.HistogramVec
	truncationsTotal   *prometheus.CounterVec
	rateLimitedTotal   *prometheus.CounterVec
	upstreamCallsTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "axs",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "axs",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "axs",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	summariesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "axs",
			Subsystem: "summary",
			Name:      "pipeline_total",
			Help:      "Total summarization pipeline runs by style and outcome.",
		},
		[]string{"service", "style", "outcome"},
	)
	summaryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "axs",
			Subsystem: "summary",
			Name:      "pipeline_duration_seconds",
			Help:      "End-to-end summarization pipeline duration in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"service", "outcome"},
	)
	extractedChars := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "axs",
			Subsystem: "summary",
			Name:      "extracted_chars",
			Help:      "Distribution of extracted PDF text length in characters.",
			Buckets:   []float64{500, 1000, 5000, 10000, 50000, 100000, 250000, 500000},
		},
		[]string{"service"},
	)
	truncationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "axs",
			Subsystem: "summary",
			Name:      "truncations_total",
			Help:      "Total pipeline runs whose text was truncated before AI submission.",
		},
		[]string{"service"},
	)
	rateLimitedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "axs",
			Subsystem: "ratelimit",
			Name:      "rejections_total",
			Help:      "Total requests rejected by the per-client rate limiter.",
		},
		[]string{"service", "endpoint"},
	)
	upstreamCallsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "axs",
			Subsystem: "upstream",
			Name:      "calls_total",
			Help:      "Total outbound calls by upstream and outcome.",
		},
		[]string{"service", "upstream", "outcome"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		summariesTotal,
		summaryDuration,
		extractedChars,
		truncationsTotal,
		rateLimitedTotal,
		upstreamCallsTotal,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		summariesTotal:     summariesTotal,
		summaryDuration:    summaryDuration,
		extractedChars:     extractedChars,
		truncationsTotal:   truncationsTotal,
		rateLimitedTotal:   rateLimitedTotal,
		upstreamCallsTotal: upstreamCallsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath keeps label cardinality bounded: anything outside the fixed
// route set is lumped together.
func normalizePath(path string) string {
	switch path {
	case "/v1/summarize", "/healthz", "/metrics", "/info":
		return path
	default:
		return "other"
	}
}

func (m *HTTPServerMetrics) RecordSummary(service, style, outcome string, duration time.Duration) {
	if style == "" {
		style = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.summariesTotal.WithLabelValues(service, style, outcome).Inc()
	m.summaryDuration.WithLabelValues(service, outcome).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordExtractedChars(service string, chars int) {
	if chars <= 0 {
		return
	}
	m.extractedChars.WithLabelValues(service).Observe(float64(chars))
}

func (m *HTTPServerMetrics) RecordTruncation(service string) {
	m.truncationsTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordRateLimited(service, endpoint string) {
	m.rateLimitedTotal.WithLabelValues(service, endpoint).Inc()
}

func (m *HTTPServerMetrics) RecordUpstreamCall(service, upstream string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.upstreamCallsTotal.WithLabelValues(service, upstream, outcome).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
