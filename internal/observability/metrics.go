package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// risk assessment pipeline.
type Metrics struct {
	EvaluationsTotal *prometheus.CounterVec // labels: outcome={user_not_found,coordinates_missing,low_risk,call_initiated}
	CallLogsAppended prometheus.Counter

	// Sweep metrics.
	SweepsTotal      prometheus.Counter
	SweepUsers       prometheus.Histogram
	SweepDuration    prometheus.Histogram
	SchedulerRunning prometheus.Gauge

	// Coordinate resolution metrics.
	ResolveTier *prometheus.CounterVec // labels: tier={cache,remote,static,miss}

	// External dependency metrics.
	WeatherRequests   *prometheus.CounterVec // labels: outcome={success,error,empty}
	AdvisorySource    *prometheus.CounterVec // labels: source={gemini,template}
	SynthesisAttempts prometheus.Counter
	SynthesisFallback prometheus.Counter

	// Dispatch metrics.
	DispatchPublished prometheus.Counter
	DispatchErrors    prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		EvaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sabi_health",
			Name:      "evaluations_total",
			Help:      "Completed user risk evaluations by outcome.",
		}, []string{"outcome"}),
		CallLogsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sabi_health",
			Name:      "call_logs_appended_total",
			Help:      "Call log entries created for elevated-risk evaluations.",
		}),
		SweepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sabi_health",
			Name:      "sweeps_total",
			Help:      "Scheduler sweeps fired.",
		}),
		SweepUsers: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sabi_health",
			Name:      "sweep_users",
			Help:      "Number of users evaluated per sweep.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sabi_health",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of a complete sweep over all users.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		SchedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sabi_health",
			Name:      "scheduler_running",
			Help:      "1 when the sweep scheduler is active, 0 when stopped.",
		}),
		ResolveTier: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sabi_health",
			Name:      "resolve_tier_total",
			Help:      "Coordinate resolutions by the tier that answered.",
		}, []string{"tier"}),
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sabi_health",
			Name:      "weather_requests_total",
			Help:      "Open-Meteo requests by outcome.",
		}, []string{"outcome"}),
		AdvisorySource: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sabi_health",
			Name:      "advisory_source_total",
			Help:      "Advisory scripts by generation path.",
		}, []string{"source"}),
		SynthesisAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sabi_health",
			Name:      "synthesis_attempts_total",
			Help:      "TTS backend attempts, including retries.",
		}),
		SynthesisFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sabi_health",
			Name:      "synthesis_fallbacks_total",
			Help:      "Syntheses that degraded to the placeholder artifact.",
		}),
		DispatchPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sabi_health",
			Name:      "dispatch_published_total",
			Help:      "Advisory dispatch events published to the delivery topic.",
		}),
		DispatchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sabi_health",
			Name:      "dispatch_errors_total",
			Help:      "Failed dispatch publishes.",
		}),
	}

	prometheus.MustRegister(
		m.EvaluationsTotal,
		m.CallLogsAppended,
		m.SweepsTotal,
		m.SweepUsers,
		m.SweepDuration,
		m.SchedulerRunning,
		m.ResolveTier,
		m.WeatherRequests,
		m.AdvisorySource,
		m.SynthesisAttempts,
		m.SynthesisFallback,
		m.DispatchPublished,
		m.DispatchErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		EvaluationsTotal:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "sabi_health", Name: "evaluations_total"}, []string{"outcome"}),
		CallLogsAppended:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "sabi_health", Name: "call_logs_appended_total"}),
		SweepsTotal:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "sabi_health", Name: "sweeps_total"}),
		SweepUsers:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "sabi_health", Name: "sweep_users"}),
		SweepDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "sabi_health", Name: "sweep_duration_seconds"}),
		SchedulerRunning:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "sabi_health", Name: "scheduler_running"}),
		ResolveTier:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "sabi_health", Name: "resolve_tier_total"}, []string{"tier"}),
		WeatherRequests:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "sabi_health", Name: "weather_requests_total"}, []string{"outcome"}),
		AdvisorySource:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "sabi_health", Name: "advisory_source_total"}, []string{"source"}),
		SynthesisAttempts: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "sabi_health", Name: "synthesis_attempts_total"}),
		SynthesisFallback: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "sabi_health", Name: "synthesis_fallbacks_total"}),
		DispatchPublished: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "sabi_health", Name: "dispatch_published_total"}),
		DispatchErrors:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "sabi_health", Name: "dispatch_errors_total"}),
	}
}
