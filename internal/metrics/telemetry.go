package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 1. Throughput (Counters)
	VectorizeRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imgvec_vectorize_requests_total",
		Help: "Total number of vectorize requests received",
	})

	VectorizeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imgvec_vectorize_failures_total",
		Help: "Vectorize requests that failed, by pipeline stage",
	}, []string{"stage"})

	// 2. Latency (Histograms)
	VectorizeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "imgvec_vectorize_duration_seconds",
		Help:    "End to end time of a vectorize request",
		Buckets: prometheus.DefBuckets,
	})

	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "imgvec_fetch_duration_seconds",
		Help:    "Time taken to download an image from the file store",
		Buckets: []float64{.005, .01, .05, .1, .5, 1, 5, 10, 30}, // fetch is capped at 30s
	})

	InferenceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "imgvec_inference_duration_seconds",
		Help:    "Time taken by the embedding model (preprocessing included)",
		Buckets: prometheus.DefBuckets,
	})
)
