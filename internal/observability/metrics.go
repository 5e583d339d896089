package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	adminRequestsTotal  *prometheus.CounterVec
	adminLatencySeconds *prometheus.HistogramVec
	adminErrorsTotal    *prometheus.CounterVec

	moderationDecisionsTotal *prometheus.CounterVec
	moderationRetriesTotal   *prometheus.CounterVec
	moderationFeedClients    prometheus.Gauge
	cacheRequestsTotal       *prometheus.CounterVec
	adBookingsTotal          *prometheus.CounterVec
	notificationsPublished   *prometheus.CounterVec
	sseClientsActive         prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		adminRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_admin_requests_total",
			Help: "Admin API requests by route, resource and moderation kind (empty outside moderation).",
		}, []string{"method", "route", "status", "resource", "kind"})

		adminLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_admin_latency_seconds",
			Help:    "Latency distribution for admin API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route", "resource"})

		adminErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_admin_errors_total",
			Help: "Total number of error responses returned by admin endpoints.",
		}, []string{"method", "route", "status"})

		moderationDecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moderation_decisions_total",
			Help: "Moderation transitions by kind, action and outcome.",
		}, []string{"kind", "action", "result"})

		moderationRetriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moderation_version_retries_total",
			Help: "Moderation attempts retried after losing the version check.",
		}, []string{"kind"})

		moderationFeedClients = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "moderation_feed_clients",
			Help: "Admins currently connected to the live moderation feed.",
		})

		cacheRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_cache_requests_total",
			Help: "Cache lookups by cache name and result (hit, miss, error).",
		}, []string{"cache", "result"})

		adBookingsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ad_bookings_total",
			Help: "Ad booking attempts by outcome.",
		}, []string{"result"})

		notificationsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "Notifications delivered to subscribers by type.",
		}, []string{"type"})

		sseClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "notification_sse_clients",
			Help: "Open notification SSE streams.",
		})

		prometheus.MustRegister(
			adminRequestsTotal,
			adminLatencySeconds,
			adminErrorsTotal,
			moderationDecisionsTotal,
			moderationRetriesTotal,
			moderationFeedClients,
			cacheRequestsTotal,
			adBookingsTotal,
			notificationsPublished,
			sseClientsActive,
		)
	})
}

// AdminRequests exposes the counter for admin requests.
func AdminRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return adminRequestsTotal
}

// AdminLatency exposes the latency histogram for admin requests.
func AdminLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return adminLatencySeconds
}

// AdminErrors exposes the counter for admin error responses.
func AdminErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return adminErrorsTotal
}

// ModerationDecisions counts transitions by kind, action and result.
func ModerationDecisions() *prometheus.CounterVec {
	RegisterMetrics()
	return moderationDecisionsTotal
}

// ModerationRetries counts optimistic lock retries.
func ModerationRetries() *prometheus.CounterVec {
	RegisterMetrics()
	return moderationRetriesTotal
}

// ModerationFeedClients tracks connected websocket admins.
func ModerationFeedClients() prometheus.Gauge {
	RegisterMetrics()
	return moderationFeedClients
}

// CacheRequests counts cache lookups.
func CacheRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return cacheRequestsTotal
}

// AdBookings counts booking attempts.
func AdBookings() *prometheus.CounterVec {
	RegisterMetrics()
	return adBookingsTotal
}

// NotificationsPublishedTotal counts delivered notifications.
func NotificationsPublishedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsPublished
}

// SSEClientsActive tracks open SSE streams.
func SSEClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return sseClientsActive
}
