package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var ConversionDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Subsystem: "wintarget",
		Name:      "image_conversion_duration_seconds",
		Help:      "The time it took to convert a disk image",
		Buckets:   []float64{0, 1, 5, 10, 15, 30, 60, 120, 180},
	},
	[]string{"operation_type"},
)

var OperationErrorsCount = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: "wintarget",
		Name:      "operation_errors_total",
		Help:      "Cumulative number of volume operation errors in the driver",
	},
	[]string{"operation_type"},
)

// Register registers every collector in this package with reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(ConversionDuration, OperationErrorsCount)
}
