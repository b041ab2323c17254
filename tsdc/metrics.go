// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tsdc

import "github.com/prometheus/client_golang/prometheus"

// metrics holds the Prometheus instruments a Producer reports through, the
// same per-component registerer pattern snow.Context's Metrics field exists
// for. Nil-safe: a nil *metrics silently no-ops every observation, so
// constructing a Producer without a Registerer (as every test does) is fine.
type metrics struct {
	slotDuration     prometheus.Histogram
	blocksFinalized  prometheus.Counter
	emptySlots       prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		return nil
	}
	m := &metrics{
		slotDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "timecoin",
			Subsystem: "tsdc",
			Name:      "slot_duration_seconds",
			Help:      "Wall-clock time RunSlot spent on a slot, from entry to finalize or budget exhaustion.",
			Buckets:   prometheus.DefBuckets,
		}),
		blocksFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "timecoin",
			Subsystem: "tsdc",
			Name:      "blocks_finalized_total",
			Help:      "Blocks this node has finalized via the precommit threshold.",
		}),
		emptySlots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "timecoin",
			Subsystem: "tsdc",
			Name:      "empty_slots_total",
			Help:      "Slots that exceeded their budget with no block finalized.",
		}),
	}
	reg.MustRegister(m.slotDuration, m.blocksFinalized, m.emptySlots)
	return m
}

func (m *metrics) observeSlotDuration(seconds float64) {
	if m == nil {
		return
	}
	m.slotDuration.Observe(seconds)
}

func (m *metrics) incBlocksFinalized() {
	if m == nil {
		return
	}
	m.blocksFinalized.Inc()
}

func (m *metrics) incEmptySlots() {
	if m == nil {
		return
	}
	m.emptySlots.Inc()
}
