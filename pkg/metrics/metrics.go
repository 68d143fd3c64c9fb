package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Upstream API metrics
	APIRequests *prometheus.CounterVec
	APILatency  *prometheus.HistogramVec

	// Page state metrics
	Transitions    *prometheus.CounterVec
	StaleResponses *prometheus.CounterVec
	PagesMounted   prometheus.Gauge

	// Calendar metrics
	SkippedVisits    prometheus.Counter
	CalendarCacheHit *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics on reg
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		APIRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of upstream API requests",
		}, []string{"resource", "method", "outcome"}),
		APILatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Duration of upstream API requests",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"resource", "method"}),

		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "page",
			Name:      "state_transitions_total",
			Help:      "Total number of page controller state transitions",
		}, []string{"resource", "from", "to"}),
		StaleResponses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "page",
			Name:      "stale_responses_total",
			Help:      "Responses discarded because a newer request or an unmount superseded them",
		}, []string{"component"}),
		PagesMounted: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "page",
			Name:      "mounted",
			Help:      "Current number of mounted pages",
		}),

		SkippedVisits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "calendar",
			Name:      "skipped_visits_total",
			Help:      "Visit records excluded from the calendar because of an unparseable date",
		}),
		CalendarCacheHit: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "calendar",
			Name:      "cache_lookups_total",
			Help:      "Calendar month cache lookups",
		}, []string{"result"}),
	}
}

func (m *Metrics) ObserveAPI(resource, method, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.APIRequests.WithLabelValues(resource, method, outcome).Inc()
	m.APILatency.WithLabelValues(resource, method).Observe(took.Seconds())
}

func (m *Metrics) ObserveTransition(resource, from, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(resource, from, to).Inc()
}

func (m *Metrics) ObserveStale(component string) {
	if m == nil {
		return
	}
	m.StaleResponses.WithLabelValues(component).Inc()
}

func (m *Metrics) AddSkippedVisits(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SkippedVisits.Add(float64(n))
}

func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CalendarCacheHit.WithLabelValues(result).Inc()
}

func (m *Metrics) PageMounted() {
	if m == nil {
		return
	}
	m.PagesMounted.Inc()
}

func (m *Metrics) PageUnmounted() {
	if m == nil {
		return
	}
	m.PagesMounted.Dec()
}
