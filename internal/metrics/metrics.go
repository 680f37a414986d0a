package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts renewal triggers by origin and HTTP status.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "license",
		Subsystem: "renewal",
		Name:      "requests_total",
		Help:      "Total renewal triggers by origin and HTTP status.",
	}, []string{"origin", "status"})

	// Duration tracks end-to-end renewal processing latency.
	Duration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "license",
		Subsystem: "renewal",
		Name:      "duration_seconds",
		Help:      "Renewal processing duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"origin"})

	// ExtensionsTotal counts successful extensions by plan tier.
	ExtensionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "license",
		Subsystem: "renewal",
		Name:      "extensions_total",
		Help:      "Licenses extended, by plan tier.",
	}, []string{"tier"})

	// NotificationFailuresTotal counts notifications that could not be delivered.
	NotificationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "license",
		Subsystem: "renewal",
		Name:      "notification_failures_total",
		Help:      "Renewal notifications that failed, by channel.",
	}, []string{"channel"})
)
