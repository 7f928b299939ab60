package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/df07/go-nearfield-flow/pkg/flow"
	"github.com/df07/go-nearfield-flow/pkg/streamline"
)

// Metrics holds the server's Prometheus collectors
type Metrics struct {
	requests     *prometheus.CounterVec
	streamlines  *prometheus.CounterVec
	refinements  prometheus.Counter
	gridDuration prometheus.Histogram
	flowDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nearfield_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		streamlines: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nearfield_streamlines_total",
				Help: "Traced streamlines by outcome",
			},
			[]string{"outcome"},
		),
		refinements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nearfield_step_refinements_total",
			Help: "Step halvings performed by the adaptive tracer",
		}),
		gridDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nearfield_grid_duration_seconds",
			Help:    "Time spent sampling field maps",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		flowDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nearfield_flow_duration_seconds",
			Help:    "Time spent tracing streamline bundles",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	reg.MustRegister(m.requests, m.streamlines, m.refinements, m.gridDuration, m.flowDuration)
	return m
}

// observeResult records the outcome of one traced streamline
func (m *Metrics) observeResult(r flow.TraceResult) {
	switch {
	case r.Err != nil:
		m.streamlines.WithLabelValues("failed").Inc()
	case r.Stats.Termination == streamline.IterationCap:
		m.streamlines.WithLabelValues("capped").Inc()
	default:
		m.streamlines.WithLabelValues("complete").Inc()
	}
	m.refinements.Add(float64(r.Stats.Refinements))
}

func (m *Metrics) observeGrid(start time.Time) {
	m.gridDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) observeFlow(start time.Time) {
	m.flowDuration.Observe(time.Since(start).Seconds())
}

// instrument counts requests by chi route pattern and status
func (m *Metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}
