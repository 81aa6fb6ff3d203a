package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the application's Prometheus registry.
var Registry = prometheus.NewRegistry()

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "portfolio",
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Number of HTTP requests currently being served.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portfolio",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests processed.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "portfolio",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	rateLimited = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portfolio",
		Subsystem: "ratelimit",
		Name:      "rejections_total",
		Help:      "Requests rejected by the fixed-window limiter.",
	}, []string{"prefix"})

	llmCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portfolio",
		Subsystem: "llm",
		Name:      "calls_total",
		Help:      "Calls made to the LLM gateway.",
	}, []string{"operation", "outcome"})

	receiptParses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portfolio",
		Subsystem: "receipts",
		Name:      "parses_total",
		Help:      "Receipt parse attempts by strategy.",
	}, []string{"method", "outcome"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpInFlight,
		httpRequests,
		httpDuration,
		rateLimited,
		llmCalls,
		receiptParses,
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// InstrumentHandler records request counts and latency labelled by chi route pattern.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func ObserveRateLimited(prefix string) {
	rateLimited.WithLabelValues(prefix).Inc()
}

func ObserveLLMCall(operation string, err error) {
	llmCalls.WithLabelValues(operation, outcome(err)).Inc()
}

func ObserveReceiptParse(method string, err error) {
	receiptParses.WithLabelValues(method, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
