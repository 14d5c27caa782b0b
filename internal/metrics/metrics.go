package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fraudform_submissions_enqueued_total",
		Help: "Total number of transactions placed on the scoring queue.",
	})

	SubmissionsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fraudform_submissions_dropped_total",
		Help: "Total number of transactions rejected due to a full queue.",
	})

	Predictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraudform_predictions_total",
		Help: "Total number of successful predictions, labelled by verdict.",
	}, []string{"verdict"})

	Failures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraudform_prediction_failures_total",
		Help: "Total number of submissions that produced no prediction, labelled by failure kind.",
	}, []string{"kind"})

	FraudProbability = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fraudform_fraud_probability",
		Help:    "Distribution of positive-class probabilities reported by the model.",
		Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
	})

	ScoringDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fraudform_scoring_duration_seconds",
		Help:    "Time spent scoring one submission on a worker.",
		Buckets: prometheus.ExponentialBuckets(5e-6, 4, 10), // 5µs .. ~1.3s
	})

	ArtifactReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraudform_artifact_reloads_total",
		Help: "Total number of artifact reload attempts, labelled by status.",
	}, []string{"status"})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fraudform_queue_utilization_ratio",
		Help: "Current scoring queue utilization (0-1).",
	})
)
