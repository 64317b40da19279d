// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WebhookRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sms_webhook_requests_total",
			Help: "Total number of inbound webhook requests by outcome",
		},
		[]string{"outcome"},
	)

	MessagesClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sms_messages_classified_total",
			Help: "Total number of messages classified by intent",
		},
		[]string{"intent"},
	)

	RateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sms_rate_limit_rejections_total",
			Help: "Total number of messages rejected by the rate limiter",
		},
	)

	SignatureFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sms_signature_failures_total",
			Help: "Total number of webhook requests with an invalid signature",
		},
	)

	HandlerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "sms_handler_duration_seconds",
			Help: "Duration of command handler execution in seconds",
		},
		[]string{"intent"},
	)

	DedupeHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sms_dedupe_hits_total",
			Help: "Total number of redelivered webhooks suppressed by MessageSid dedupe",
		},
	)
)
