package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitfreak_program_invocations_total",
			Help: "Total number of contest program invocations by operation and result code",
		},
		[]string{"operation", "result"},
	)

	InvocationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitfreak_program_invocation_duration_seconds",
			Help:    "Duration of contest program invocations, including ledger commit",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
		[]string{"operation"},
	)

	LamportsPaidOut = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitfreak_program_lamports_paid_out_total",
			Help: "Total lamports released from contest vaults",
		},
		[]string{"reason"},
	)
)
