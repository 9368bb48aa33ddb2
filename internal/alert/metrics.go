package alert

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	Passes              prometheus.Counter
	PassFailures        prometheus.Counter
	PassDuration        prometheus.Histogram
	Fired               *prometheus.CounterVec
	Skipped             *prometheus.CounterVec
	GatewayErrors       *prometheus.CounterVec
	NotifyFailures      prometheus.Counter
	DeactivationRetries prometheus.Counter
	DeactivationStuck   prometheus.Counter
}

// NewMetrics builds the engine collectors and registers them with reg when
// it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Passes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crypto_alert",
			Subsystem: "engine",
			Name:      "passes_total",
			Help:      "The total number of evaluation passes started",
		}),
		PassFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crypto_alert",
			Subsystem: "engine",
			Name:      "pass_failures_total",
			Help:      "Passes aborted because active alerts could not be listed",
		}),
		PassDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crypto_alert",
			Subsystem: "engine",
			Name:      "pass_duration_seconds",
			Help:      "Wall time of a single evaluation pass",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		Fired: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "crypto_alert",
				Subsystem: "engine",
				Name:      "alerts_fired_total",
				Help:      "Alerts whose condition evaluated true",
			},
			[]string{"kind"},
		),
		Skipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "crypto_alert",
				Subsystem: "engine",
				Name:      "alerts_skipped_total",
				Help:      "Alerts left for the next pass without evaluation",
			},
			[]string{"reason"},
		),
		GatewayErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "crypto_alert",
				Subsystem: "engine",
				Name:      "gateway_errors_total",
				Help:      "Failed market data requests",
			},
			[]string{"kind"},
		),
		NotifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crypto_alert",
			Subsystem: "engine",
			Name:      "notification_failures_total",
			Help:      "Alert notifications that could not be delivered",
		}),
		DeactivationRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crypto_alert",
			Subsystem: "engine",
			Name:      "deactivation_retries_total",
			Help:      "Deactivation attempts made by the end-of-pass sweep",
		}),
		DeactivationStuck: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crypto_alert",
			Subsystem: "engine",
			Name:      "deactivation_stuck_total",
			Help:      "Fired alerts that stayed active after the retry sweep",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.Passes,
			m.PassFailures,
			m.PassDuration,
			m.Fired,
			m.Skipped,
			m.GatewayErrors,
			m.NotifyFailures,
			m.DeactivationRetries,
			m.DeactivationStuck,
		)
	}
	return m
}
