package report

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline-level instruments.
type Metrics struct {
	GenerationDuration prometheus.Histogram
	DataPoints         prometheus.Histogram
	Sections           prometheus.Histogram
}

// NewMetrics registers the pipeline instruments with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		GenerationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "report_generation_duration_seconds",
			Help:    "Total report generation duration in seconds",
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 60, 120},
		}),
		DataPoints: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "report_data_points",
			Help:    "Number of data points processed per report",
			Buckets: prometheus.ExponentialBuckets(10, 2, 12),
		}),
		Sections: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "report_sections",
			Help:    "Number of sections generated per report",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
		}),
	}
}
