package memorycard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// export results, the values of the result label
const (
	resultSuccess = "success"
	resultInvalid = "invalid"
	resultBusy    = "busy"
	resultMissing = "target_missing"
	resultFailed  = "failed"
)

type metrics struct {
	exports  *prometheus.CounterVec
	duration prometheus.Histogram
	pages    prometheus.Histogram
}

// newMetrics registers the export collectors on reg. A nil reg keeps them
// unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		exports: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "memorycard",
				Name:      "exports_total",
				Help:      "Exports by result.",
			},
			[]string{"result"},
		),
		duration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "memorycard",
				Name:      "export_duration_seconds",
				Help:      "Time from trigger to delivery of successful exports.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		pages: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "memorycard",
				Name:      "export_pages",
				Help:      "Pages per delivered document.",
				Buckets:   []float64{1, 2, 3, 5, 10},
			},
		),
	}
}
