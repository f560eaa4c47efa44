package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Messages handled, by outcome: sent, send_failed, skipped, fetch_failed
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inquirybot_messages_total",
			Help: "Total number of form notifications handled",
		},
		[]string{"outcome"},
	)

	InquiriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inquirybot_inquiries_total",
			Help: "Total number of analysed inquiries by type",
		},
		[]string{"inquiry_type"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inquirybot_notifications_total",
			Help: "Operator notifications attempted, by provider and result",
		},
		[]string{"provider", "result"},
	)

	// Poll cycles, by outcome: processed, empty, transport_failure, unexpected_failure
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inquirybot_cycles_total",
			Help: "Total number of poll cycles",
		},
		[]string{"outcome"},
	)

	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inquirybot_cycle_duration_seconds",
			Help:    "Duration of a poll cycle in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
	)

	// 1 for the current scheduler state, 0 for the others
	SchedulerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "inquirybot_scheduler_state",
			Help: "Current scheduler state",
		},
		[]string{"state"},
	)

	LastCycleTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "inquirybot_last_cycle_timestamp_seconds",
			Help: "Unix time at which the last poll cycle finished",
		},
	)
)

func IncrementMessages(outcome string) {
	MessagesTotal.WithLabelValues(outcome).Inc()
}

func IncrementInquiries(inquiryType string) {
	InquiriesTotal.WithLabelValues(inquiryType).Inc()
}

func RecordNotification(provider string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	NotificationsTotal.WithLabelValues(provider, result).Inc()
}

// RecordCycle counts a finished cycle and its duration
func RecordCycle(outcome string, duration time.Duration, finished time.Time) {
	CyclesTotal.WithLabelValues(outcome).Inc()
	CycleDuration.Observe(duration.Seconds())
	LastCycleTimestamp.Set(float64(finished.Unix()))
}

// SetSchedulerState marks current as the only active state
func SetSchedulerState(current string, all []string) {
	for _, s := range all {
		v := 0.0
		if s == current {
			v = 1
		}
		SchedulerState.WithLabelValues(s).Set(v)
	}
}
