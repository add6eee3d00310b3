package common

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RPCCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "execution_body_rpc_call_duration_seconds",
		Help:    "Duration of RPC calls to Ethereum nodes",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"chain_id", "node", "method", "status"})

	RPCCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "execution_body_rpc_calls_total",
		Help: "Total RPC calls made to Ethereum nodes",
	}, []string{"chain_id", "node", "method", "status"})

	BodiesStoredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "execution_body_bodies_stored_total",
		Help: "Total number of block bodies verified and stored",
	}, []string{"network"})

	BodyFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "execution_body_body_fetch_duration_seconds",
		Help:    "Time taken to fetch, verify and store a block body",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"network"})

	StoreOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "execution_body_store_operations_total",
		Help: "Total number of content store operations",
	}, []string{"operation", "status"})

	RootMismatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "execution_body_root_mismatches_total",
		Help: "Total number of fetched bodies whose roots did not match the header",
	}, []string{"node"})

	RetryCountTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "execution_body_retry_count_total",
		Help: "Total number of retried RPC calls",
	}, []string{"node", "method"})
)
