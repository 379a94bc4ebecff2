package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticketdesk_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ticketdesk_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	storeOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticketdesk_store_operations_total",
		Help: "Document store calls by operation, collection and result",
	}, []string{"op", "collection", "result"})

	storeBreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ticketdesk_store_breaker_state",
		Help: "Document store circuit breaker state (0 closed, 1 open, 2 half-open)",
	})

	resolverLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticketdesk_resolver_lookups_total",
		Help: "User lookups issued by the join resolver, by role and result",
	}, []string{"role", "result"})

	resolverBatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ticketdesk_resolver_batch_duration_seconds",
		Help:    "Time from dispatch to completion of a resolver batch",
		Buckets: prometheus.DefBuckets,
	})

	boardRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticketdesk_board_refreshes_total",
		Help: "Manager board snapshot refreshes by result",
	}, []string{"result"})
)

func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

func ObserveStoreOp(op, collection, result string) {
	storeOperations.WithLabelValues(op, collection, result).Inc()
}

func SetBreakerState(state int) {
	storeBreakerState.Set(float64(state))
}

// ObserveLookup records one resolver lookup. result is "hit", "miss" or "error".
func ObserveLookup(role, result string) {
	resolverLookups.WithLabelValues(role, result).Inc()
}

func ObserveResolverBatch(duration time.Duration) {
	resolverBatchDuration.Observe(duration.Seconds())
}

func ObserveBoardRefresh(result string) {
	boardRefreshes.WithLabelValues(result).Inc()
}
