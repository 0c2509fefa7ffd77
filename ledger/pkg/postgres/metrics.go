package postgres

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TxTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitfreak_ledger_postgres_tx_total",
			Help: "Total number of ledger transactions by mode and outcome",
		},
		[]string{"mode", "status"},
	)

	TxRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fitfreak_ledger_postgres_tx_retries_total",
			Help: "Total number of ledger transactions re-run after a serialization failure",
		},
	)
)
