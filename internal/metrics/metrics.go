// Package metrics exposes Prometheus instruments for the HTTP layer, the
// video providers and the title generator.
package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/renderdragon/backend/internal/media"
)

const namespace = "renderdragon"

// Metrics holds all application metrics on a private registry
type Metrics struct {
	registry *prometheus.Registry

	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	providerRequests *prometheus.CounterVec
	downloadBytes    prometheus.Counter
	titleGenerations *prometheus.CounterVec
}

// New creates a Metrics instance with Go and process collectors registered
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"method", "route"}),
		providerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Video provider calls by outcome",
		}, []string{"provider", "operation", "outcome"}),
		downloadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "download_bytes_total",
			Help:      "Bytes proxied to download clients",
		}),
		titleGenerations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "title_generations_total",
			Help:      "Title generation attempts by outcome",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
		m.requests,
		m.requestDuration,
		m.providerRequests,
		m.downloadBytes,
		m.titleGenerations,
	)
	return m
}

// RecordRequest records one served request
func (m *Metrics) RecordRequest(method, path string, statusCode int, duration time.Duration) {
	route := Route(path)
	m.requests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordProvider records one provider call
func (m *Metrics) RecordProvider(provider, operation string, err error) {
	m.providerRequests.WithLabelValues(provider, operation, outcome(err)).Inc()
}

// AddDownloadBytes adds to the proxied byte counter
func (m *Metrics) AddDownloadBytes(n int64) {
	if n > 0 {
		m.downloadBytes.Add(float64(n))
	}
}

// RecordTitleGeneration records a generation outcome such as "success",
// "timeout" or "error"
func (m *Metrics) RecordTitleGeneration(outcome string) {
	m.titleGenerations.WithLabelValues(outcome).Inc()
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

var knownRoutes = map[string]bool{
	"/api/info":                 true,
	"/api/download":             true,
	"/api/downloadThumbnail":    true,
	"/api/generateTitles":       true,
	"/api/generateTitles/quota": true,
	"/api/stats/downloads":      true,
	"/api/check-copyright-keys": true,
	"/api/validate":             true,
	"/health":                   true,
	"/health/live":              true,
	"/health/ready":             true,
	"/metrics":                  true,
}

// Route maps a request path onto a bounded label set
func Route(path string) string {
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		return "/"
	}
	if knownRoutes[path] {
		return path
	}
	return "other"
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return "error"
}

// Middleware records request count and latency
func Middleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &statusResponseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(wrapped, r)

			m.RecordRequest(r.Method, r.URL.Path, wrapped.statusCode, time.Since(start))
		})
	}
}

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (w *statusResponseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// InstrumentProvider decorates p so every call is counted and every
// streamed byte is added to the download counter.
func InstrumentProvider(p media.Provider, m *Metrics) media.Provider {
	return &instrumentedProvider{Provider: p, metrics: m}
}

type instrumentedProvider struct {
	media.Provider
	metrics *Metrics
}

func (p *instrumentedProvider) GetVideo(ctx context.Context, url string) (*media.Video, error) {
	v, err := p.Provider.GetVideo(ctx, url)
	p.metrics.RecordProvider(p.Name(), "get_video", err)
	return v, err
}

func (p *instrumentedProvider) OpenStream(ctx context.Context, video *media.Video, format *media.Format) (io.ReadCloser, int64, error) {
	rc, size, err := p.Provider.OpenStream(ctx, video, format)
	p.metrics.RecordProvider(p.Name(), "open_stream", err)
	if err != nil {
		return nil, 0, err
	}
	return &countingReader{ReadCloser: rc, metrics: p.metrics}, size, nil
}

type countingReader struct {
	io.ReadCloser
	metrics *Metrics
}

func (r *countingReader) Read(b []byte) (int, error) {
	n, err := r.ReadCloser.Read(b)
	r.metrics.AddDownloadBytes(int64(n))
	return n, err
}
