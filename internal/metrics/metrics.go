// Package metrics holds the Prometheus collectors for uploads, analyses and model training.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	StatusSuccess  = "success"
	StatusRejected = "rejected"
	StatusError    = "error"
)

// Analysis records domain metrics. A nil *Analysis is valid and records nothing.
type Analysis struct {
	uploads       *prometheus.CounterVec
	runs          *prometheus.CounterVec
	trainDuration *prometheus.HistogramVec
}

// NewAnalysis creates the collectors and registers them on reg.
func NewAnalysis(reg prometheus.Registerer) (*Analysis, error) {
	a := &Analysis{
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cellclassify_uploads_total",
				Help: "Dataset uploads by outcome.",
			},
			[]string{"status"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cellclassify_analyses_total",
				Help: "Analysis runs by outcome.",
			},
			[]string{"status"},
		),
		trainDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cellclassify_model_training_duration_seconds",
				Help:    "Time spent training and scoring one model.",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"model"},
		),
	}
	for _, c := range []prometheus.Collector{a.uploads, a.runs, a.trainDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Analysis) ObserveUpload(status string) {
	if a == nil {
		return
	}
	a.uploads.WithLabelValues(status).Inc()
}

func (a *Analysis) ObserveRun(status string) {
	if a == nil {
		return
	}
	a.runs.WithLabelValues(status).Inc()
}

func (a *Analysis) ObserveTraining(model string, d time.Duration) {
	if a == nil {
		return
	}
	a.trainDuration.WithLabelValues(model).Observe(d.Seconds())
}
