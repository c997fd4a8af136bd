// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Graph size, set once after ingestion.
	GraphUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "moviegraph_users",
		Help: "Number of users in the rating graph",
	})
	GraphMovies = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "moviegraph_movies",
		Help: "Number of movies in the rating graph",
	})
	GraphRatings = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "moviegraph_ratings",
		Help: "Number of ratings in the rating graph",
	})

	IngestRecords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moviegraph_ingest_records_total",
		Help: "Rating records applied during graph construction",
	})
	IngestFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moviegraph_ingest_failures_total",
		Help: "Graph builds aborted by a bad record or source error",
	})
	IngestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "moviegraph_ingest_duration_seconds",
		Help:    "Time to build the rating graph",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	})

	RecommendRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moviegraph_recommend_requests_total",
		Help: "Recommendation requests by outcome",
	}, []string{"outcome"})
	RecommendDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "moviegraph_recommend_duration_seconds",
		Help:    "Time spent scoring a recommendation request",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	})
	RecommendCandidates = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "moviegraph_recommend_candidates",
		Help:    "Candidates scored per recommendation request",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moviegraph_http_requests_total",
		Help: "HTTP requests by route and status",
	}, []string{"method", "route", "status"})
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "moviegraph_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	CatalogLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moviegraph_catalog_lookups_total",
		Help: "Catalog lookups by outcome",
	}, []string{"outcome"})
	CatalogBreakerOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "moviegraph_catalog_breaker_open",
		Help: "1 while the catalog circuit breaker is open",
	})
)

// ObserveGraph records graph size gauges.
func ObserveGraph(users, movies, ratings int) {
	GraphUsers.Set(float64(users))
	GraphMovies.Set(float64(movies))
	GraphRatings.Set(float64(ratings))
}

// ObserveHTTP records one served request.
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
