// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package validator implements C3: the active validator set with
// copy-on-write atomic-swap semantics (readers never block writers and
// always see a consistent snapshot) plus the AVS snapshot retention ring
// TSDC and VFP consult to validate late-arriving votes.
package validator

import (
	"sync"
	"sync/atomic"

	"github.com/timecoin-project/timecoin/core"
)

// AVSRetention is the number of most-recent slot snapshots kept around, per
// §6's avs_retention default.
const AVSRetention = 100

// Snapshot is an immutable view of the active validator set: once
// captured, its contents never change. Registry.ActiveSet swaps in a new
// Snapshot atomically rather than mutating one in place.
type Snapshot struct {
	Members     []core.Validator
	TotalWeight uint64
	byID        map[core.Address]*core.Validator
}

func newSnapshot(members []core.Validator) *Snapshot {
	byID := make(map[core.Address]*core.Validator, len(members))
	var total uint64
	cp := make([]core.Validator, len(members))
	for i, m := range members {
		cp[i] = m
		byID[m.ID] = &cp[i]
		total += m.StakeWeight
	}
	return &Snapshot{Members: cp, TotalWeight: total, byID: byID}
}

// WeightOf returns id's stake weight and whether it is a current member.
func (s *Snapshot) WeightOf(id core.Address) (uint64, bool) {
	v, ok := s.byID[id]
	if !ok {
		return 0, false
	}
	return v.StakeWeight, true
}

// Threshold returns ceil(2/3 * TotalWeight), the finality quorum.
func (s *Snapshot) Threshold() uint64 { return core.ThresholdOf(s.TotalWeight) }

// Registry holds the live validator set plus the ring of AVS snapshots
// captured once per slot.
type Registry struct {
	current atomic.Pointer[Snapshot]

	mu        sync.Mutex
	avsRing   map[uint64]*core.AVSSnapshot
}

// New constructs a Registry seeded with the given initial validator set.
func New(initial []core.Validator) *Registry {
	r := &Registry{avsRing: make(map[uint64]*core.AVSSnapshot)}
	r.current.Store(newSnapshot(initial))
	return r
}

// ActiveSet returns the current validator set snapshot. Safe to call
// concurrently with Update; never blocks.
func (r *Registry) ActiveSet() *Snapshot {
	return r.current.Load()
}

// WeightOf is a convenience wrapper over ActiveSet().WeightOf.
func (r *Registry) WeightOf(id core.Address) (uint64, bool) {
	return r.ActiveSet().WeightOf(id)
}

// Update atomically replaces the active validator set. The old snapshot
// remains valid for any reader that already loaded it (copy-on-write).
func (r *Registry) Update(members []core.Validator) {
	r.current.Store(newSnapshot(members))
}

// CaptureAVS snapshots the current validator set indexed by slotIndex,
// evicting any entry older than AVSRetention slots.
func (r *Registry) CaptureAVS(slotIndex uint64) *core.AVSSnapshot {
	cur := r.ActiveSet()

	members := make([]core.AVSMember, len(cur.Members))
	for i, v := range cur.Members {
		members[i] = core.AVSMember{ID: v.ID, PubKey: v.PubKey, Weight: v.StakeWeight}
	}
	snap := &core.AVSSnapshot{
		SlotIndex:   slotIndex,
		Members:     members,
		TotalWeight: cur.TotalWeight,
		Threshold:   core.ThresholdOf(cur.TotalWeight),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.avsRing[slotIndex] = snap
	for s := range r.avsRing {
		if slotIndex >= AVSRetention && s < slotIndex-AVSRetention {
			delete(r.avsRing, s)
		}
	}
	return snap
}

// AVSAt returns the retained snapshot for slotIndex, if still within the
// retention window.
func (r *Registry) AVSAt(slotIndex uint64) (*core.AVSSnapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap, ok := r.avsRing[slotIndex]
	return snap, ok
}
