package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registration results.
const (
	ResultNew      = "new"
	ResultExisting = "existing"
	ResultInvalid  = "invalid"
	ResultError    = "error"
)

// Metrics provides observability for the registrar.
type Metrics struct {
	Registrations        *prometheus.CounterVec
	Draws                prometheus.Counter
	NotificationFailures prometheus.Counter
	Removals             prometheus.Counter
	Resets               prometheus.Counter
	PermissionDenials    prometheus.Counter
	StoreDuration        *prometheus.HistogramVec
}

// New registers the collectors with reg. A nil reg uses the default
// registerer, which may only happen once per process.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contest_registrations_total",
			Help: "Registration attempts by result",
		}, []string{"result"}),
		Draws: factory.NewCounter(prometheus.CounterOpts{
			Name: "contest_draws_total",
			Help: "Completed winner draws",
		}),
		NotificationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "contest_winner_notification_failures_total",
			Help: "Draws whose winner could not be notified",
		}),
		Removals: factory.NewCounter(prometheus.CounterOpts{
			Name: "contest_participants_removed_total",
			Help: "Participants removed by the administrator",
		}),
		Resets: factory.NewCounter(prometheus.CounterOpts{
			Name: "contest_roster_resets_total",
			Help: "Full roster resets",
		}),
		PermissionDenials: factory.NewCounter(prometheus.CounterOpts{
			Name: "contest_permission_denials_total",
			Help: "Administrator commands refused to other users",
		}),
		StoreDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contest_store_operation_duration_seconds",
			Help:    "Duration of participant store operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
		}, []string{"op"}),
	}
}

// NewNop returns metrics bound to a throwaway registry. Used by tests and by
// callers that do not expose /metrics.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) IncRegistration(result string) {
	m.Registrations.WithLabelValues(result).Inc()
}

// ObserveStore records the duration of one store operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveStore(op string, start time.Time) {
	m.StoreDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
