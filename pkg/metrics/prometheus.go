package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesSampledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scandaemon_frames_sampled_total",
		Help: "Total number of frames offered to the sampler, by camera and decision",
	}, []string{"camera", "decision"})

	FrameReleaseFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scandaemon_frame_release_failures_total",
		Help: "Total number of frames whose release panicked",
	})

	BarcodesScannedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scandaemon_barcodes_scanned_total",
		Help: "Total number of barcodes recognised, by camera and format",
	}, []string{"camera", "format"})

	RecognitionFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scandaemon_recognition_failures_total",
		Help: "Total number of failed recognition attempts, by camera",
	}, []string{"camera"})

	RecognitionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scandaemon_recognition_duration_seconds",
		Help:    "Duration of a single recognition pass over an admitted frame",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"camera"})

	SnapshotsTakenTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scandaemon_snapshots_taken_total",
		Help: "Total number of still pictures written, by camera and status",
	}, []string{"camera", "status"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scandaemon_active_sessions",
		Help: "Number of camera sessions currently streaming",
	})
)
