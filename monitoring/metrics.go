// Package monitoring exposes Prometheus metrics and in-process prediction
// statistics for the prediction services.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PredictionsTotal counts predictions by kind, source (model or rules) and outcome.
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrosmart_predictions_total",
			Help: "Total number of predictions served",
		},
		[]string{"kind", "source", "outcome"},
	)

	// PredictionDuration tracks end-to-end adapter latency.
	PredictionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agrosmart_prediction_duration_seconds",
			Help:    "Duration of predictions in seconds",
			Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"kind"},
	)

	// ModelLoadsTotal counts artifact deserialization passes.
	ModelLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrosmart_model_loads_total",
			Help: "Total number of model artifact loads",
		},
		[]string{"kind", "outcome"},
	)

	// ModelLoaded is 1 while a kind has a loaded artifact.
	ModelLoaded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "agrosmart_model_loaded",
			Help: "Whether the model artifact for a kind is loaded",
		},
		[]string{"kind"},
	)

	// UnknownCategoryTotal counts categorical inputs that fell back to the sentinel code.
	UnknownCategoryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrosmart_unknown_category_total",
			Help: "Categorical inputs unseen in training, encoded as the sentinel",
		},
		[]string{"kind", "feature"},
	)

	// CacheHitsTotal counts prediction cache hits by kind.
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrosmart_prediction_cache_hits_total",
			Help: "Prediction results served from the cache",
		},
		[]string{"kind"},
	)
)
