// Package metrics exposes Prometheus instrumentation for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VoucherSends counts voucher-service calls by classified outcome
	VoucherSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coffree_voucher_sends_total",
			Help: "Voucher service send attempts by classified outcome",
		},
		[]string{"outcome"},
	)

	// DistributionDuration tracks how long a campaign fan-out takes
	DistributionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coffree_distribution_duration_seconds",
			Help:    "Duration of campaign fan-out operations in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
		},
		[]string{"result"}, // completed or rejected
	)
)

// RecordVoucherSend records one classified voucher-service call
func RecordVoucherSend(outcome string) {
	VoucherSends.WithLabelValues(outcome).Inc()
}

// ObserveDistribution records the duration of one campaign fan-out
func ObserveDistribution(result string, seconds float64) {
	DistributionDuration.WithLabelValues(result).Observe(seconds)
}
