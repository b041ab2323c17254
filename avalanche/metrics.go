// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package avalanche

import "github.com/prometheus/client_golang/prometheus"

// metrics holds the Prometheus instruments an Engine reports through,
// mirroring tsdc's nil-safe metrics struct: a nil *metrics silently no-ops
// every observation, so constructing an Engine without a Registerer (as
// every test does) is fine.
type metrics struct {
	txAccepted   prometheus.Counter
	txRejected   prometheus.Counter
	roundsPerTx  prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		return nil
	}
	m := &metrics{
		txAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "timecoin",
			Subsystem: "avalanche",
			Name:      "tx_accepted_total",
			Help:      "Transactions whose Snowball round loop converged on Accept.",
		}),
		txRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "timecoin",
			Subsystem: "avalanche",
			Name:      "tx_rejected_total",
			Help:      "Transactions whose Snowball round loop converged on Reject, or gave up.",
		}),
		roundsPerTx: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "timecoin",
			Subsystem: "avalanche",
			Name:      "rounds_per_tx",
			Help:      "Number of Snowball rounds a transaction's loop ran before reaching a terminal outcome.",
			Buckets:   prometheus.LinearBuckets(1, 5, 20),
		}),
	}
	reg.MustRegister(m.txAccepted, m.txRejected, m.roundsPerTx)
	return m
}

func (m *metrics) incAccepted() {
	if m == nil {
		return
	}
	m.txAccepted.Inc()
}

func (m *metrics) incRejected() {
	if m == nil {
		return
	}
	m.txRejected.Inc()
}

func (m *metrics) observeRounds(n int) {
	if m == nil {
		return
	}
	m.roundsPerTx.Observe(float64(n))
}
