// Package metrics exposes prometheus collectors for the wheel.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SpinsTotal counts spins by source (free, extra) and result (token, item, none, rejected)
	SpinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spinwheel_spins_total",
			Help: "The total number of spins played",
		},
		[]string{"source", "result"},
	)

	// PurchasesTotal counts purchase confirmations by result
	PurchasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spinwheel_purchases_total",
			Help: "The total number of purchase confirmations",
		},
		[]string{"source", "result"}, // manual/watcher, credited/duplicate/invalid/error
	)

	// TransfersTotal counts prize transfers by status
	TransfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spinwheel_transfers_total",
			Help: "The total number of prize transfers submitted",
		},
		[]string{"status"}, // sent, failed
	)

	// TokensTotal tracks tokens in and out
	TokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spinwheel_tokens_total",
			Help: "Tokens received from purchases and paid as prizes",
		},
		[]string{"direction"},
	)

	// WatcherBlock is the last block scanned for deposits
	WatcherBlock = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spinwheel_watcher_block",
		Help: "The last block scanned by the deposit watcher",
	})

	// PayoutQueueLength tracks pending payout retries
	PayoutQueueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spinwheel_payout_queue_length",
		Help: "The number of payout retries waiting in the queue",
	})

	// QueueTaskDuration tracks how long workers spend on a payout retry
	QueueTaskDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "spinwheel_queue_task_duration_seconds",
		Help:    "Time taken by workers to process a payout retry",
		Buckets: prometheus.DefBuckets,
	})

	// RPCRequestsTotal counts node calls by outcome
	RPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spinwheel_rpc_requests_total",
			Help: "The total number of chain RPC calls",
		},
		[]string{"status"},
	)

	// RPCEndpointHealthy is 1 while a node is in rotation
	RPCEndpointHealthy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "spinwheel_rpc_endpoint_healthy",
			Help: "Whether a chain RPC endpoint is in rotation",
		},
		[]string{"endpoint"},
	)
)

// RecordSpin records a spin outcome.
func RecordSpin(source, result string) {
	SpinsTotal.WithLabelValues(source, result).Inc()
}

// RecordPurchase records a purchase confirmation outcome.
func RecordPurchase(source, result string) {
	PurchasesTotal.WithLabelValues(source, result).Inc()
}

// RecordTransfer records a prize transfer attempt.
func RecordTransfer(status string) {
	TransfersTotal.WithLabelValues(status).Inc()
}

// RecordTokensIn adds received tokens.
func RecordTokensIn(amount int64) {
	TokensTotal.WithLabelValues("in").Add(float64(amount))
}

// RecordTokensOut adds paid tokens.
func RecordTokensOut(amount int64) {
	TokensTotal.WithLabelValues("out").Add(float64(amount))
}

// RecordRPCRequest records one node call.
func RecordRPCRequest(status string) {
	RPCRequestsTotal.WithLabelValues(status).Inc()
}

func SetRPCEndpointHealth(endpoint string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1
	}
	RPCEndpointHealthy.WithLabelValues(endpoint).Set(v)
}
