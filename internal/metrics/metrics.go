package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bracketd"

type Metrics struct {
	BracketsGenerated prometheus.Counter
	ByesAdvanced      prometheus.Counter
	ResultsRecorded   prometheus.Counter
	// labelled by the error kind that rejected the submission
	ResultsRejected *prometheus.CounterVec
}

// New registers the service counters on reg. Pass a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BracketsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "brackets_generated_total",
			Help:      "Number of bracket stages generated or regenerated.",
		}),
		ByesAdvanced: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "byes_advanced_total",
			Help:      "Number of matches settled as byes at generation time.",
		}),
		ResultsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_recorded_total",
			Help:      "Number of match results accepted.",
		}),
		ResultsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_rejected_total",
			Help:      "Number of match result submissions rejected.",
		}, []string{"reason"}),
	}
}
