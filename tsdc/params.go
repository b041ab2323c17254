// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tsdc

import "time"

// SlotState is TSDC's per-slot state machine position. Prepared and
// Precommitted can time out back to Idle (the slot is skipped); Finalized
// never regresses.
type SlotState uint8

const (
	Idle SlotState = iota
	Proposed
	Prepared
	Precommitted
	Finalized
)

func (s SlotState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Proposed:
		return "Proposed"
	case Prepared:
		return "Prepared"
	case Precommitted:
		return "Precommitted"
	case Finalized:
		return "Finalized"
	default:
		return "Invalid"
	}
}

// Parameters configures the slot clock, leader timeouts and tolerances.
type Parameters struct {
	SlotPeriod         time.Duration
	LeaderTimeout      time.Duration
	SlotGrace          time.Duration
	ClockSkewTolerance time.Duration
	MaxBlockTxCount    int
}

// DefaultParameters matches the §6 defaults (canonical 600s slot; callers
// running a testnet shrink SlotPeriod/LeaderTimeout/SlotGrace together).
func DefaultParameters() Parameters {
	return Parameters{
		SlotPeriod:         600 * time.Second,
		LeaderTimeout:      5 * time.Second,
		SlotGrace:          30 * time.Second,
		ClockSkewTolerance: 5 * time.Second,
		MaxBlockTxCount:    10_000,
	}
}

// SlotBudget is the total time a slot gets before all validators mark it
// empty: SlotPeriod + SlotGrace.
func (p Parameters) SlotBudget() time.Duration { return p.SlotPeriod + p.SlotGrace }
