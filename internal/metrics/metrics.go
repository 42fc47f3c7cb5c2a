package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	weekLoaded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shiftdesk",
			Name:      "week_load_total",
			Help:      "Count of week loads by result.",
		},
		[]string{"result"},
	)

	assignmentsSaved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shiftdesk",
			Name:      "assignments_saved_total",
			Help:      "Count of assignment records written by bulk saves.",
		},
	)

	weekPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shiftdesk",
			Name:      "week_published_total",
			Help:      "Count of weeks published.",
		},
	)

	slotCreateFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shiftdesk",
			Name:      "slot_create_failures_total",
			Help:      "Count of shift definitions that failed to create during catalog reconciliation.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(weekLoaded, assignmentsSaved, weekPublished, slotCreateFailures)
	})
}

func IncWeekLoaded(result string) {
	weekLoaded.WithLabelValues(result).Inc()
}

func AddAssignmentsSaved(n int) {
	assignmentsSaved.Add(float64(n))
}

func IncWeekPublished() {
	weekPublished.Inc()
}

func IncSlotCreateFailure() {
	slotCreateFailures.Inc()
}
