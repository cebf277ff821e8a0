package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the registration pipeline's Prometheus metrics.
type Metrics struct {
	RegistrationsCreated prometheus.Counter
	PaymentsConfirmed    prometheus.Counter
	PaymentsFailed       prometheus.Counter
	GatewayPollDuration  prometheus.Histogram
	FanOutEffectFailures *prometheus.CounterVec
	FanOutCompleted      prometheus.Counter
}

// New creates and registers all registration metrics.
func New() *Metrics {
	return &Metrics{
		RegistrationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "utsav_registrations_created_total",
			Help: "Registrations created through the submission endpoint.",
		}),
		PaymentsConfirmed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "utsav_payments_confirmed_total",
			Help: "Transactions that reached the SUCCESS terminal state.",
		}),
		PaymentsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "utsav_payments_failed_total",
			Help: "Transactions that reached the FAILED terminal state.",
		}),
		GatewayPollDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "utsav_gateway_poll_duration_seconds",
			Help:    "Latency of payment gateway status calls.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		FanOutEffectFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "utsav_fanout_effect_failures_total",
			Help: "Fan-out effect attempts that exhausted their retries.",
		}, []string{"effect"}),
		FanOutCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "utsav_fanout_completed_total",
			Help: "Registrations whose three fan-out effects have all been recorded.",
		}),
	}
}
