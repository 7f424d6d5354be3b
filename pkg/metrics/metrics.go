package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Scheduler related metrics
	SchedulerTicks       prometheus.Counter
	RemindersFired       prometheus.Counter
	ReminderCatchupFires prometheus.Counter
	NotificationsSent    *prometheus.CounterVec
	NotificationFailures prometheus.Counter
	SchedulerTickLatency prometheus.Histogram

	// Record sync metrics
	RecordSyncOperations *prometheus.CounterVec
	RecordSyncLatency    *prometheus.HistogramVec
	StaleLoadsDiscarded  prometheus.Counter

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace, subsystem string) *Metrics {
	return &Metrics{
		SchedulerTicks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "scheduler_ticks_total",
			Help:      "Total number of scheduler minute ticks",
		}),
		RemindersFired: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reminders_fired_total",
			Help:      "Total number of reminders fired",
		}),
		ReminderCatchupFires: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reminder_catchup_fires_total",
			Help:      "Reminders fired for minutes skipped during suspension",
		}),
		NotificationsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notifications_sent_total",
			Help:      "Total notifications sent by channel",
		}, []string{"channel"}),
		NotificationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notification_failures_total",
			Help:      "Total notification delivery failures",
		}),
		SchedulerTickLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "scheduler_tick_duration_seconds",
			Help:      "Time spent evaluating due reminders per tick",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		RecordSyncOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "record_sync_operations_total",
			Help:      "Total record synchronizer operations",
		}, []string{"operation", "status"}),
		RecordSyncLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "record_sync_duration_seconds",
			Help:      "Time spent in record synchronizer operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"operation"}),
		StaleLoadsDiscarded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stale_loads_discarded_total",
			Help:      "Record loads discarded because the identity changed mid-flight",
		}),
		DatabaseOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
	}
}
