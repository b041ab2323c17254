// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package avalanche implements C4: per-transaction local acceptance via
// repeated stake-weighted peer sampling, generalizing the teacher's
// snow/consensus/snowball Parameters/Network harness (see
// consensus_benchmark_test.go) from a constant-K simulation into a live
// engine that samples the real validator registry, dispatches
// vote-requests through a Broadcaster, and feeds results into per-tx
// Snowball counters with reputation-weighted resampling.
package avalanche

import "time"

// Parameters configures every transaction's Avalanche round loop.
type Parameters struct {
	KMin int
	KMax int

	// QuorumFraction is the fraction of the sample that must agree for a
	// round to produce a majority (0.7 per §4.4).
	QuorumFraction float64

	Beta     int // consecutive confirmations required for local acceptance
	RoundTimeout time.Duration
	MaxRounds    int

	// SuspicionCap bounds a validator's reputation score to [-cap, +cap].
	SuspicionCap int32
}

// DefaultParameters matches the §4.4 defaults.
func DefaultParameters() Parameters {
	return Parameters{
		KMin:           7,
		KMax:           20,
		QuorumFraction: 0.7,
		Beta:           20,
		RoundTimeout:   500 * time.Millisecond,
		MaxRounds:      100,
		SuspicionCap:   50,
	}
}

// Alpha returns the quorum size within a sample of size k: ceil(0.7*k).
func (p Parameters) Alpha(k int) int {
	a := int(p.QuorumFraction*float64(k) + 0.999999)
	if a < 1 {
		a = 1
	}
	if a > k {
		a = k
	}
	return a
}

// BetaSoft is the relaxed confidence threshold used at R_max (ceil(beta/2)).
func (p Parameters) BetaSoft() int {
	return (p.Beta + 1) / 2
}
