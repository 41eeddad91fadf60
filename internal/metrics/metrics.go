package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Offer valuations by trigger (create, update, rescore, preview, ingest) and rating label
	ValuationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bonus_valuations_total",
		Help: "Count of offer value calculations by trigger and rating",
	}, []string{"trigger", "rating"})

	// Distribution of computed value scores
	ValueScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bonus_value_score",
		Help:    "Distribution of computed 0-100 value scores",
		Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	})

	RecommendDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bonus_recommend_latency_seconds",
		Help:    "Latency of filter and rank passes",
		Buckets: prometheus.DefBuckets,
	})

	RecommendTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bonus_recommend_total",
		Help: "Total ranking passes served by source (catalog, recommendation)",
	}, []string{"source"})

	FilterResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bonus_filter_offers_total",
		Help: "Offers considered by the catalog filter, by outcome",
	}, []string{"outcome"})

	OutboxPublished = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bonus_outbox_published_total",
		Help: "Outbox events published to Kafka",
	})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bonus_http_requests_total",
		Help: "HTTP requests by method, chi route pattern and status",
	}, []string{"method", "route", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bonus_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

var once sync.Once

// Init registers all collectors with the default registry. Safe to call more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			ValuationsTotal,
			ValueScore,
			RecommendDuration,
			RecommendTotal,
			FilterResults,
			OutboxPublished,
			HTTPRequests,
			HTTPDuration,
		)
	})
}

// ObserveValuation records one calculation.
func ObserveValuation(trigger, rating string, score float64) {
	ValuationsTotal.WithLabelValues(trigger, rating).Inc()
	ValueScore.Observe(score)
}

// ObserveHTTP records one served request.
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
