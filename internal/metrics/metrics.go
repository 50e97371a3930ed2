// Package metrics holds the gateway's Prometheus collectors. They register
// with the default registry, which /metrics serves.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "smile_gateway"

var (
	// GraphQL metrics
	GraphQLRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graphql_requests_total",
			Help:      "Number of GraphQL operations executed",
		},
		[]string{"operation", "status"},
	)

	GraphQLDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graphql_request_duration_seconds",
			Help:      "GraphQL operation latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Store metrics
	CypherQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cypher_queries_total",
			Help:      "Number of Cypher statements sent to Neo4j",
		},
		[]string{"mode", "status"},
	)

	CypherDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cypher_query_duration_seconds",
		Help:      "Cypher statement latency",
		Buckets:   prometheus.DefBuckets,
	})

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_entries",
			Help:      "Entries currently held by a cache",
		},
		[]string{"cache_type"},
	)

	// Loader metrics
	LoaderBatchSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "loader_batch_size",
			Help:      "Keys resolved per loader batch",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
		},
		[]string{"loader"},
	)

	// Session metrics
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_user_sessions",
		Help:      "Users seen within the session idle timeout",
	})
)
