package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPResponseSize      *prometheus.HistogramVec
	HTTPActiveConnections *prometheus.GaugeVec

	// Rate limiting
	RateLimitExceededTotal *prometheus.CounterVec

	// Auth events: login_success, login_failure, account_locked, otp_sent, otp_blocked, token_refresh
	AuthEventsTotal *prometheus.CounterVec

	// Social engagement: tweet, reply, quote, like, retweet, follow, bookmark, message
	SocialActionsTotal *prometheus.CounterVec

	FeedGenerationTime *prometheus.HistogramVec

	WebSocketConnections prometheus.Gauge
	WebSocketMessages    *prometheus.CounterVec

	AssistantGenerationDuration *prometheus.HistogramVec

	SearchRequestsTotal *prometheus.CounterVec

	ErrorsTotal *prometheus.CounterVec

	CleanupRowsTotal *prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPResponseSize: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_response_size_bytes",
					Help:    "HTTP response size in bytes",
					Buckets: prometheus.ExponentialBuckets(100, 10, 7),
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_connections",
					Help: "Number of currently active HTTP connections",
				},
				[]string{"method", "path"},
			),

			RateLimitExceededTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Total number of requests rejected by a rate limiter",
				},
				[]string{"limiter", "path"},
			),

			AuthEventsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "auth_events_total",
					Help: "Authentication events by type",
				},
				[]string{"event"},
			),

			SocialActionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "social_actions_total",
					Help: "Social actions by type and direction",
				},
				[]string{"action", "direction"},
			),

			FeedGenerationTime: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "feed_generation_duration_seconds",
					Help:    "Time spent assembling a feed page",
					Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
				},
				[]string{"feed"},
			),

			WebSocketConnections: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "websocket_connections",
					Help: "Number of open WebSocket connections",
				},
			),
			WebSocketMessages: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "websocket_messages_total",
					Help: "WebSocket messages pushed to clients by type",
				},
				[]string{"type"},
			),

			AssistantGenerationDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "assistant_generation_duration_seconds",
					Help:    "AI reply generation latency",
					Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
				},
				[]string{"provider", "status"},
			),

			SearchRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "search_requests_total",
					Help: "Tweet searches by backend",
				},
				[]string{"backend", "status"},
			),

			ErrorsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "errors_total",
					Help: "Total number of errors by type",
				},
				[]string{"error_type", "endpoint"},
			),

			CleanupRowsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cleanup_rows_total",
					Help: "Rows changed by the periodic cleanup, by kind",
				},
				[]string{"kind"},
			),
		}
	})
	return instance
}

// Get returns the global metrics instance
func Get() *Metrics {
	if instance == nil {
		return Initialize()
	}
	return instance
}

// RecordAuthEvent counts an authentication event
func RecordAuthEvent(event string) {
	Get().AuthEventsTotal.WithLabelValues(event).Inc()
}

// RecordSocialAction counts a social action; direction is "add" or "remove"
func RecordSocialAction(action, direction string) {
	Get().SocialActionsTotal.WithLabelValues(action, direction).Inc()
}
