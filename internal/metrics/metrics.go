// Package metrics exposes Prometheus collectors for HTTP traffic and ledger
// activity. Collectors register on the default registry and are served by
// promhttp.Handler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "deeddraw"

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	TransactionsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transactions_submitted_total",
		Help:      "Transactions registered as pending.",
	})

	TransactionsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transactions_processed_total",
		Help:      "Transactions moved out of pending, by resulting status.",
	}, []string{"status"})

	PointsVerified = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "points_verified_total",
		Help:      "Draw points credited by transaction approval.",
	})

	CertificateRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "certificate_retries_total",
		Help:      "Submissions that lost a certificate number race and retried.",
	})

	WithdrawalsRequested = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "withdrawals_requested_total",
		Help:      "Withdrawal requests accepted as pending.",
	})

	WithdrawalsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "withdrawals_processed_total",
		Help:      "Withdrawal requests moved out of pending, by resulting status.",
	}, []string{"status"})

	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "Participant notifications that could not be delivered.",
	}, []string{"kind"})

	TotalsDrift = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "totals_drift_total",
		Help:      "Users whose cached totals disagreed with the ledger during reconciliation.",
	})
)
