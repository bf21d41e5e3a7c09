package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinic_requests_total",
			Help: "Total number of requests",
		},
		[]string{"route", "code", "method"},
	)

	DBTxDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clinic_db_tx_seconds",
			Help:    "Duration of DB transactions",
			Buckets: prometheus.DefBuckets,
		},
	)

	TicketsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clinic_tickets_issued_total",
			Help: "Total queue tickets issued",
		},
	)

	TicketNumberConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clinic_ticket_number_conflicts_total",
			Help: "Ticket numbering conflicts that were retried",
		},
	)

	OutboxLag = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clinic_outbox_lag_seconds",
			Help: "Lag of outbox publishing",
		},
	)

	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clinic_rate_limit_exceeded_total",
			Help: "Total rate limit exceeded",
		},
	)
)
