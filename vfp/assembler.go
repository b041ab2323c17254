// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package vfp implements C5: the Verifiable Finality Proof assembler that
// converts per-node local acceptance into objective, stake-weighted global
// finality, grounded in the same stake-weighted aggregation pattern as
// other_examples' BlockFinalizationEngine.checkBFEFinality, generalized
// from a single block-level vote to a per-transaction accumulator keyed by
// txid and scoped to a slot to prevent cross-epoch replay.
package vfp

import (
	"context"
	"sync"

	"github.com/timecoin-project/timecoin/cache"
	"github.com/timecoin-project/timecoin/core"
	"github.com/timecoin-project/timecoin/ids"
	"github.com/timecoin-project/timecoin/validator"
)

// maxPendingAccumulators bounds how many distinct txids can have an
// in-flight vote accumulator at once, independent of how reliably callers
// call Forget: a flood of gossiped votes for txids that never reach
// threshold evicts its oldest accumulator rather than growing forever.
const maxPendingAccumulators = 50_000

type accumulator struct {
	slotIndex uint64
	hasSlot   bool
	votes     map[core.Address]core.FinalityVote
	weight    uint64
	vfp       *core.VFP // cached once assembled; Idempotent per (V2)
}

// Assembler accumulates FinalityVotes per txid and produces a VFP once
// cumulative weight clears the AVS threshold for that transaction's slot.
type Assembler struct {
	registry *validator.Registry
	oracle   core.SignatureOracle

	mu   sync.Mutex
	byTx *cache.LRU
}

// New constructs an Assembler backed by registry for AVS lookups and
// oracle for per-vote signature verification.
func New(registry *validator.Registry, oracle core.SignatureOracle) *Assembler {
	return &Assembler{registry: registry, oracle: oracle, byTx: &cache.LRU{Size: maxPendingAccumulators}}
}

// GenerateLocalVote builds this node's own FinalityVote for txid at
// slotIndex, to be signed by the caller's validator key and broadcast. It
// does not sign the vote itself -- the oracle's CPU-heavy Sign call is
// left to the caller so it can be dispatched to a blocking pool.
func GenerateLocalVote(chainID, txid ids.ID, slotIndex uint64, self core.Address, weight uint64) *core.FinalityVote {
	return &core.FinalityVote{ChainID: chainID, TxID: txid, SlotIndex: slotIndex, Voter: self, Weight: weight}
}

// AcceptVote verifies and accumulates a peer's FinalityVote. Returns an
// error describing why the vote was discarded (StaleVote, UnknownVoter,
// BadSignature, duplicate) -- none of which halt assembly for other votes
// or other transactions, per §4.5's failure model.
func (a *Assembler) AcceptVote(ctx context.Context, vote *core.FinalityVote) error {
	snap, ok := a.registry.AVSAt(vote.SlotIndex)
	if !ok {
		return core.ErrStaleVote
	}
	weight, member := snap.WeightOf(vote.Voter)
	if !member {
		return core.ErrUnknownVoter
	}
	if weight != vote.Weight {
		return core.NewValidationError("vote weight %d does not match AVS weight %d for voter %s", vote.Weight, weight, vote.Voter)
	}

	// Find the voter's PubKey in the snapshot to verify the signature.
	var pub core.PubKey
	for _, m := range snap.Members {
		if m.ID == vote.Voter {
			pub = m.PubKey
			break
		}
	}
	payload := core.SerializeFinalityVote(vote)
	if !a.oracle.Verify(ctx, pub, payload, vote.Sig) {
		return core.ErrBadSignature
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	var acc *accumulator
	if v, ok := a.byTx.Get(vote.TxID); ok {
		acc = v.(*accumulator)
	} else {
		acc = &accumulator{votes: make(map[core.Address]core.FinalityVote)}
		a.byTx.Put(vote.TxID, acc)
	}
	if acc.hasSlot && vote.SlotIndex != acc.slotIndex {
		return core.NewValidationError("vote slot %d does not match accumulator slot %d for tx %s", vote.SlotIndex, acc.slotIndex, vote.TxID)
	}
	if _, dup := acc.votes[vote.Voter]; dup {
		return core.ErrDuplicateVote
	}
	acc.slotIndex = vote.SlotIndex
	acc.hasSlot = true
	acc.votes[vote.Voter] = *vote
	acc.weight += vote.Weight
	return nil
}

// TryAssemble returns a VFP for txid once cumulative weight reaches the
// snapshot threshold for that vote's slot, including every accumulated
// vote (excess votes beyond threshold are kept for robustness per §4.5).
// Idempotent: once assembled, the same VFP is returned on every subsequent
// call (V2).
func (a *Assembler) TryAssemble(txid ids.ID) (*core.VFP, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	v, ok := a.byTx.Get(txid)
	if !ok {
		return nil, false
	}
	acc := v.(*accumulator)
	if acc.vfp != nil {
		return acc.vfp, true
	}

	if len(acc.votes) == 0 || !acc.hasSlot {
		return nil, false
	}
	snap, ok := a.registry.AVSAt(acc.slotIndex)
	if !ok || acc.weight < snap.Threshold {
		return nil, false
	}

	votes := make([]core.FinalityVote, 0, len(acc.votes))
	for _, v := range acc.votes {
		votes = append(votes, v)
	}
	vfp := &core.VFP{TxID: txid, SlotIndex: acc.slotIndex, Votes: votes}
	acc.vfp = vfp
	return vfp, true
}

// Verify independently re-checks a VFP against the AVS snapshot for its
// slot: every vote must verify, belong to the AVS, be distinct per voter,
// and together clear the threshold (V1).
func (a *Assembler) Verify(ctx context.Context, vfp *core.VFP) error {
	snap, ok := a.registry.AVSAt(vfp.SlotIndex)
	if !ok {
		return core.ErrStaleVote
	}

	seen := make(map[core.Address]struct{}, len(vfp.Votes))
	var total uint64
	for _, vote := range vfp.Votes {
		if vote.TxID != vfp.TxID || vote.SlotIndex != vfp.SlotIndex {
			return core.NewValidationError("vote does not match proof's txid/slot")
		}
		if _, dup := seen[vote.Voter]; dup {
			return core.NewValidationError("duplicate voter %s in proof", vote.Voter)
		}
		seen[vote.Voter] = struct{}{}

		weight, member := snap.WeightOf(vote.Voter)
		if !member || weight != vote.Weight {
			return core.ErrUnknownVoter
		}

		var pub core.PubKey
		for _, m := range snap.Members {
			if m.ID == vote.Voter {
				pub = m.PubKey
				break
			}
		}
		payload := core.SerializeFinalityVote(&vote)
		if !a.oracle.Verify(ctx, pub, payload, vote.Sig) {
			return core.ErrBadSignature
		}
		total += vote.Weight
	}

	if total < snap.Threshold {
		return core.NewValidationError("proof weight %d below threshold %d", total, snap.Threshold)
	}
	return nil
}

// Forget releases txid's accumulator, called once its VFP has been
// consumed downstream (C2 mark_globally_finalized) so memory doesn't grow
// unbounded across the transaction's lifetime.
func (a *Assembler) Forget(txid ids.ID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.byTx.Evict(txid)
}
