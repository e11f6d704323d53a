package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	PollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_polls_total",
			Help: "Conversation poll cycles by result (applied, discarded, failed)",
		},
		[]string{"result"},
	)

	PollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "conversation_poll_duration_seconds",
			Help:    "Duration of a conversation message fetch",
			Buckets: prometheus.DefBuckets,
		},
	)

	MessagesSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_sent_total",
			Help: "Send attempts by result (ok, validation, send_error)",
		},
		[]string{"result"},
	)

	SummaryUpdateFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conversation_summary_update_failures_total",
			Help: "Conversation summary writes that failed after the message was persisted",
		},
	)

	ReadReceiptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "read_receipts_total",
			Help: "Mark-read updates by result (ok, failed)",
		},
		[]string{"result"},
	)

	SummaryRepairsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conversation_summary_repairs_total",
			Help: "Conversation summaries rewritten by the repair job",
		},
	)
)
