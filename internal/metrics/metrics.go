package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gateway metrics
var (
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lewctl_api_requests_total",
		Help: "Total number of admin API requests",
	}, []string{"endpoint", "status"})

	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lewctl_api_request_duration_seconds",
		Help:    "Admin API request duration in seconds",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"endpoint"})

	APITransportErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lewctl_api_transport_errors_total",
		Help: "Total number of admin API calls that failed at the transport layer",
	})
)

// Event counters (incremented on occurrence)
var (
	AuthLoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lewctl_auth_logins_total",
		Help: "Total number of login attempts",
	}, []string{"status"})

	ReportActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lewctl_report_actions_total",
		Help: "Total number of moderation actions issued",
	}, []string{"action", "status"})

	StaleFetchesDiscardedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lewctl_stale_fetches_discarded_total",
		Help: "Total number of report page fetches discarded because a newer fetch was issued",
	})
)

// Store state gauges (updated periodically by the collector)
var (
	SessionAuthenticated = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lewctl_session_authenticated",
		Help: "Whether an authenticated admin session is present (1=yes, 0=no)",
	})

	ReportsVisible = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lewctl_reports_visible",
		Help: "Number of reports visible on the current page after client-side filtering",
	})

	ReportsTotalPages = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lewctl_reports_total_pages",
		Help: "Server-derived total page count for the current report filter",
	})
)
