package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cookclip_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cookclip_http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// ExtractionsTotal outcome: cached, extracted, conflict, or an error code
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cookclip_extractions_total",
			Help: "Recipe extraction pipeline runs by outcome.",
		},
		[]string{"outcome"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cookclip_pipeline_stage_duration_seconds",
			Help:    "Duration of extraction and meal-plan stages.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 20, 30, 45, 60},
		},
		[]string{"stage"},
	)

	// MealPlanOptimizeTotal outcome: optimized or degraded
	MealPlanOptimizeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cookclip_meal_plan_optimize_total",
			Help: "Meal-plan optimize phase results.",
		},
		[]string{"outcome"},
	)

	SmartMergeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cookclip_grocery_smart_merge_total",
			Help: "Grocery smart-merge calls by outcome.",
		},
		[]string{"outcome"},
	)

	// ThumbnailLookupsTotal source: cache, search, fallback
	ThumbnailLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cookclip_thumbnail_lookups_total",
			Help: "Thumbnail resolutions by source.",
		},
		[]string{"source"},
	)

	ReasoningQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cookclip_reasoning_queue_depth",
			Help: "Reasoning calls waiting for a worker.",
		},
	)
)

// ObserveStage 記錄階段耗時，搭配 defer 使用
func ObserveStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
