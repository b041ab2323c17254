// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package tsdc implements C6: Time-Slotted Deterministic Consensus, the
// fixed-epoch block producer with deterministic leader election and a
// PBFT-style prepare/precommit commit protocol. Its round structure is
// grounded in the teacher-adjacent istanbul/core PBFT sequencing
// (sendPreprepare/handlePreprepare moving StateAcceptRequest ->
// StatePreprepared -> StatePrepared) and its stake-weighted threshold
// check in other_examples' BlockFinalizationEngine.checkBFEFinality,
// generalized into TimeCoin's own Idle -> Proposed -> Prepared ->
// Precommitted -> Finalized slot state machine.
package tsdc

import "math"

// S0 is the base per-block subsidy in base units (100 TIME at 1e8 base
// units per TIME), per the reward-curve design note.
const S0 = 100 * 1_0000_0000

// Subsidy computes the block reward at height h: floor(S0*(1+ln(1+h))).
// 1+h avoids ln(0) at genesis and keeps the curve monotonically increasing.
func Subsidy(h uint64) uint64 {
	return uint64(math.Floor(float64(S0) * (1 + math.Log(1+float64(h)))))
}
