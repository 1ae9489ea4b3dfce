// server/internal/dispatch/metrics.go
package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ordersDispatched *prometheus.CounterVec
	ordersSkipped    *prometheus.CounterVec
	dispatchesTotal  *prometheus.CounterVec
	dispatchDuration prometheus.Histogram
)

func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, *prometheus.CounterVec, prometheus.Histogram) {
	dispatched := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_dispatched_total",
			Help: "Number of orders committed to a rider",
		},
		[]string{"store"},
	)
	skipped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_skipped_total",
			Help: "Number of orders refused during dispatch, by reason",
		},
		[]string{"reason"},
	)
	total := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatches_total",
			Help: "Number of dispatch events created, by mode",
		},
		[]string{"mode"},
	)
	duration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_request_duration_seconds",
			Help:    "Wall time of dispatch requests, planning through commit",
			Buckets: prometheus.DefBuckets,
		},
	)
	return dispatched, skipped, total, duration
}

func init() {
	ordersDispatched, ordersSkipped, dispatchesTotal, dispatchDuration = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(ordersDispatched, ordersSkipped, dispatchesTotal, dispatchDuration)
}
