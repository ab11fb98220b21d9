// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskhub_http_requests_total",
			Help: "Total HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskhub_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	RLRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskhub_rate_limiter_requests_total",
			Help: "Total requests seen by the rate limiter",
		},
		[]string{"endpoint"},
	)
	RLBlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskhub_rate_limiter_blocked_total",
			Help: "Total requests blocked by the rate limiter",
		},
		[]string{"endpoint"},
	)

	ProjectsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "taskhub_projects_created_total",
		Help: "Projects created",
	})
	TasksCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "taskhub_tasks_created_total",
		Help: "Tasks created",
	})
	Invitations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskhub_invitations_total",
			Help: "Invitations by outcome",
		},
		[]string{"outcome"},
	)
	TimerEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskhub_timer_events_total",
			Help: "Timer starts and stops",
		},
		[]string{"action"},
	)
	Logins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskhub_logins_total",
			Help: "Login attempts by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequests,
		HTTPDuration,
		RLRequests,
		RLBlocked,
		ProjectsCreated,
		TasksCreated,
		Invitations,
		TimerEvents,
		Logins,
	)
}
