package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "framevr_jobs_processed_total",
		Help: "Total number of recognition jobs processed, by status",
	}, []string{"status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "framevr_stage_duration_seconds",
		Help:    "Duration of each recognition pipeline stage",
		Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	FramesExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "framevr_frames_extracted_total",
		Help: "Total number of screenshots extracted across all batches",
	})

	FramesRecognizedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "framevr_frames_recognized_total",
		Help: "Frames that went through the three recognition calls, by outcome",
	}, []string{"outcome"})

	RecognitionCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "framevr_recognition_calls_total",
		Help: "Recognition service calls, by operation and status",
	}, []string{"op", "status"})

	RecognitionCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "framevr_recognition_call_duration_seconds",
		Help:    "Latency of single recognition calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "framevr_active_workers",
		Help: "Number of workers currently processing a recognition job",
	})

	FileCleanupFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "framevr_file_cleanup_failures_total",
		Help: "Screenshots that could not be deleted after recognition",
	})
)
