package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_messages_handled_total",
			Help: "Total messages handled by pattern and outcome",
		},
		[]string{"pattern", "outcome"},
	)

	OrdersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total orders created",
		},
	)

	RPCTimeouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_rpc_timeouts_total",
			Help: "Total collaborator RPC timeouts",
		},
		[]string{"collaborator"},
	)

	PaymentFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_payment_fallbacks_total",
			Help: "Total payment sessions degraded to the fallback URL",
		},
	)

	EnrichmentFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_enrichment_failures_total",
			Help: "Total best-effort catalog enrichment failures on user listings",
		},
	)

	DBTxDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orders_db_tx_seconds",
			Help:    "Duration of DB transactions",
			Buckets: prometheus.DefBuckets,
		},
	)
)
