// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tsdc

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/timecoin-project/timecoin/chainstore"
	"github.com/timecoin-project/timecoin/core"
	"github.com/timecoin-project/timecoin/ids"
	"github.com/timecoin-project/timecoin/notifier"
	"github.com/timecoin-project/timecoin/txpool"
	"github.com/timecoin-project/timecoin/utils/logging"
	"github.com/timecoin-project/timecoin/utxo"
	"github.com/timecoin-project/timecoin/validator"
	"github.com/timecoin-project/timecoin/vfp"
)

// blockVotes accumulates Prepare and Precommit votes for a single proposed
// block, keyed by voter to deduplicate. Released on finalization or slot
// timeout.
type blockVotes struct {
	block      *core.Block
	txs        []*core.Transaction // bodies backing block.TxIDs, for UTXO finalization
	prepares   map[core.Address]core.PrepareVote
	precommits map[core.Address]core.PrecommitVote
	prepareWeight, precommitWeight uint64

	emittedPrepare, emittedPrecommit bool
}

// Producer drives the per-slot state machine: proposal, prepare,
// precommit and finalization. Exactly one slot is active on a given node
// at a time (§5); votes are checked against the current slot's AVS, and
// a vote for a block this node has not seen proposed is rejected rather
// than buffered.
type Producer struct {
	params   Parameters
	clock    SlotClock
	self     core.Address
	privKey  core.PrivateKey

	registry *validator.Registry
	pool     *txpool.Pool
	utxos    *utxo.Store
	chain    *chainstore.Store
	vfps     *vfp.Assembler
	notif    *notifier.Notifier
	bcast    core.Broadcaster
	oracle   core.SignatureOracle
	log      logging.Logger

	mu          sync.Mutex
	state       SlotState
	curSlot     uint64
	votes       map[ids.ID]*blockVotes // by block hash, scoped to the current slot
	slotDone    chan struct{}          // closed by finalize() so RunSlot can return early

	metrics *metrics
}

// Config bundles a Producer's dependencies.
type Config struct {
	Params   Parameters
	Clock    SlotClock
	Self     core.Address
	PrivKey  core.PrivateKey
	Registry *validator.Registry
	Pool     *txpool.Pool
	UTXOs    *utxo.Store
	Chain    *chainstore.Store
	VFPs     *vfp.Assembler
	Notifier *notifier.Notifier
	Bcast    core.Broadcaster
	Oracle   core.SignatureOracle
	Log      logging.Logger

	// Metrics is optional; when nil, RunSlot's observations are no-ops.
	Metrics prometheus.Registerer
}

// New constructs a Producer from cfg.
func New(cfg Config) *Producer {
	log := cfg.Log
	if log == nil {
		log = logging.NoLog
	}
	return &Producer{
		params: cfg.Params, clock: cfg.Clock, self: cfg.Self, privKey: cfg.PrivKey,
		registry: cfg.Registry, pool: cfg.Pool, utxos: cfg.UTXOs, chain: cfg.Chain,
		vfps: cfg.VFPs, notif: cfg.Notifier, bcast: cfg.Bcast, oracle: cfg.Oracle, log: log,
		state: Idle, votes: make(map[ids.ID]*blockVotes),
		metrics: newMetrics(cfg.Metrics),
	}
}

// RunSlot drives slotIndex's state machine to completion (Finalized) or
// timeout (Idle, slot skipped). It blocks until either outcome or ctx is
// canceled.
func (p *Producer) RunSlot(ctx context.Context, slotIndex uint64) error {
	start := time.Now()
	defer func() { p.metrics.observeSlotDuration(time.Since(start).Seconds()) }()

	p.mu.Lock()
	p.curSlot = slotIndex
	p.state = Idle
	p.votes = make(map[ids.ID]*blockVotes)
	done := make(chan struct{})
	p.slotDone = done
	p.mu.Unlock()

	snap := p.registry.CaptureAVS(slotIndex)
	if snap.TotalWeight == 0 {
		return core.NewValidationError("tsdc: empty AVS at slot %d, refusing to operate", slotIndex)
	}

	tip, hasTip := p.chain.Tip()
	tipHash := ids.Empty
	if hasTip {
		tipHash = tip.BlockHash
	}
	order := LeaderOrder(slotIndex, tipHash, snap.Members)

	budget := time.NewTimer(p.params.SlotBudget())
	defer budget.Stop()

	if len(order) > 0 && order[0] == p.self {
		if err := p.propose(ctx, slotIndex, tip); err != nil {
			p.log.Warn("tsdc: slot %d: primary propose failed: %s", slotIndex, err)
		}
	} else if len(order) > 1 {
		go func() {
			select {
			case <-time.After(p.params.LeaderTimeout):
				p.mu.Lock()
				already := p.state != Idle
				p.mu.Unlock()
				if already {
					return
				}
				if order[1] == p.self {
					if err := p.propose(ctx, slotIndex, tip); err != nil {
						p.log.Warn("tsdc: slot %d: backup propose failed: %s", slotIndex, err)
					}
				}
			case <-ctx.Done():
			}
		}()
	}

	select {
	case <-done:
		return nil
	case <-budget.C:
		p.mu.Lock()
		if p.state != Finalized {
			p.log.Info("tsdc: slot %d exceeded budget with no finalization, marking empty", slotIndex)
			p.state = Idle
			p.metrics.incEmptySlots()
		}
		p.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Producer) propose(ctx context.Context, slotIndex uint64, tip *core.Block) error {
	finalizedTxs := p.pool.DrainFinalized()
	if len(finalizedTxs) > p.params.MaxBlockTxCount {
		finalizedTxs = finalizedTxs[:p.params.MaxBlockTxCount]
	}

	txids := make([]ids.ID, len(finalizedTxs))
	for i, tx := range finalizedTxs {
		txids[i] = tx.TxID
	}

	var height uint64
	prevHash := ids.Empty
	if tip != nil {
		height = tip.Header.Height + 1
		prevHash = tip.BlockHash
	}

	header := core.BlockHeader{
		Version:     0,
		Height:      height,
		PrevHash:    prevHash,
		MerkleRoot:  core.ComputeMerkleRoot(txids),
		SlotIndex:   slotIndex,
		Proposer:    p.self,
		TimestampMS: time.Now().UnixMilli(),
		VRFProof:    VRFProof(slotIndex, prevHash, p.self),
		Reward:      Subsidy(height) + sumFees(finalizedTxs),
	}
	block := &core.Block{Header: header, TxIDs: txids, BlockHash: core.ComputeBlockHash(&header)}

	p.mu.Lock()
	p.state = Proposed
	p.votes[block.BlockHash] = &blockVotes{
		block: block, txs: finalizedTxs,
		prepares: map[core.Address]core.PrepareVote{}, precommits: map[core.Address]core.PrecommitVote{},
	}
	p.mu.Unlock()

	return p.bcast.BroadcastProposal(ctx, *block)
}

// HandleProposal validates an incoming BlockProposal and, if valid, emits
// this node's signed PrepareVote.
func (p *Producer) HandleProposal(ctx context.Context, block *core.Block) error {
	snap, ok := p.registry.AVSAt(block.Header.SlotIndex)
	if !ok {
		return core.ErrStaleVote
	}
	if err := p.validateBlock(ctx, block, snap); err != nil {
		return err
	}

	txs := make([]*core.Transaction, 0, len(block.TxIDs))
	for _, txid := range block.TxIDs {
		tx, _, ok := p.pool.FinalizedEntry(txid)
		if !ok {
			return core.NewValidationError("proposal references unknown tx %s", txid)
		}
		txs = append(txs, tx)
	}

	p.mu.Lock()
	if p.state == Idle {
		p.state = Proposed
	}
	bv, ok := p.votes[block.BlockHash]
	if !ok {
		bv = &blockVotes{
			block: block, txs: txs,
			prepares: map[core.Address]core.PrepareVote{}, precommits: map[core.Address]core.PrecommitVote{},
		}
		p.votes[block.BlockHash] = bv
	}
	p.mu.Unlock()

	weight, _ := snap.WeightOf(p.self)
	vote := core.PrepareVote{BlockHash: block.BlockHash, Voter: p.self, Weight: weight}
	sig, err := p.oracle.Sign(ctx, p.privKey, core.SerializePrepareVote(&vote))
	if err != nil {
		return &core.StorageError{Op: "tsdc.sign_prepare", Err: err}
	}
	vote.Sig = sig
	return p.bcast.BroadcastPrepare(ctx, vote)
}

// validateBlock runs every check a prepare-vote requires: structural
// integrity, a non-future timestamp, leader eligibility under snap, a
// correct VRF proof, and, for every included tx, a VFP that
// independently re-verifies against snap's slot. Any failure means this
// node must not prepare-vote for block.
func (p *Producer) validateBlock(ctx context.Context, block *core.Block, snap *core.AVSSnapshot) error {
	if core.ComputeBlockHash(&block.Header) != block.BlockHash {
		return core.NewValidationError("block hash does not match header")
	}
	if core.ComputeMerkleRoot(block.TxIDs) != block.Header.MerkleRoot {
		return core.NewValidationError("merkle root mismatch")
	}

	now := time.Now()
	if block.Header.TimestampMS > now.Add(p.params.ClockSkewTolerance).UnixMilli() {
		return core.NewValidationError("block timestamp %d exceeds clock skew tolerance from %d", block.Header.TimestampMS, now.UnixMilli())
	}

	order := LeaderOrder(block.Header.SlotIndex, block.Header.PrevHash, snap.Members)
	if len(order) == 0 {
		return core.NewValidationError("no eligible leader for slot %d", block.Header.SlotIndex)
	}
	eligible := order[0] == block.Header.Proposer
	if !eligible && len(order) > 1 && order[1] == block.Header.Proposer {
		eligible = now.Sub(p.clock.StartOf(block.Header.SlotIndex)) >= p.params.LeaderTimeout
	}
	if !eligible {
		return core.NewValidationError("proposer %s is not eligible to lead slot %d", block.Header.Proposer, block.Header.SlotIndex)
	}
	wantVRF := VRFProof(block.Header.SlotIndex, block.Header.PrevHash, block.Header.Proposer)
	if !bytes.Equal(block.Header.VRFProof, wantVRF) {
		return core.NewValidationError("invalid VRF proof for slot %d", block.Header.SlotIndex)
	}

	seen := make(map[ids.ID]struct{}, len(block.TxIDs))
	for _, txid := range block.TxIDs {
		if _, dup := seen[txid]; dup {
			return core.NewValidationError("duplicate txid %s in block", txid)
		}
		seen[txid] = struct{}{}

		_, proof, ok := p.pool.FinalizedEntry(txid)
		if !ok || proof == nil {
			return core.NewValidationError("proposal includes tx %s with no assembled VFP", txid)
		}
		if err := p.vfps.Verify(ctx, proof); err != nil {
			return core.NewValidationError("tx %s VFP failed re-verification: %s", txid, err)
		}
	}
	return nil
}

// HandlePrepareVote accumulates a PrepareVote; once prepareWeight clears
// threshold, this node emits a PrecommitVote.
func (p *Producer) HandlePrepareVote(ctx context.Context, vote *core.PrepareVote) error {
	snap, ok := p.registry.AVSAt(p.currentSlot())
	if !ok {
		return core.ErrStaleVote
	}
	weight, member := snap.WeightOf(vote.Voter)
	if !member || weight != vote.Weight {
		return core.ErrUnknownVoter
	}

	p.mu.Lock()
	bv, ok := p.votes[vote.BlockHash]
	if !ok {
		p.mu.Unlock()
		return core.NewValidationError("prepare vote for unknown block %s", vote.BlockHash)
	}
	if _, dup := bv.prepares[vote.Voter]; dup {
		p.mu.Unlock()
		return core.ErrDuplicateVote
	}
	bv.prepares[vote.Voter] = *vote
	bv.prepareWeight += vote.Weight
	shouldEmit := bv.prepareWeight >= snap.Threshold && !bv.emittedPrepare
	if shouldEmit {
		bv.emittedPrepare = true
		p.state = Prepared
	}
	p.mu.Unlock()

	if !shouldEmit {
		return nil
	}

	myWeight, _ := snap.WeightOf(p.self)
	precommit := core.PrecommitVote{BlockHash: vote.BlockHash, Voter: p.self, Weight: myWeight}
	sig, err := p.oracle.Sign(ctx, p.privKey, core.SerializePrecommitVote(&precommit))
	if err != nil {
		return &core.StorageError{Op: "tsdc.sign_precommit", Err: err}
	}
	precommit.Sig = sig
	return p.bcast.BroadcastPrecommit(ctx, precommit)
}

// HandlePrecommitVote accumulates a PrecommitVote; once precommitWeight
// clears threshold, the block finalizes.
func (p *Producer) HandlePrecommitVote(ctx context.Context, vote *core.PrecommitVote) error {
	snap, ok := p.registry.AVSAt(p.currentSlot())
	if !ok {
		return core.ErrStaleVote
	}
	weight, member := snap.WeightOf(vote.Voter)
	if !member || weight != vote.Weight {
		return core.ErrUnknownVoter
	}

	p.mu.Lock()
	bv, ok := p.votes[vote.BlockHash]
	if !ok {
		p.mu.Unlock()
		return core.NewValidationError("precommit vote for unknown block %s", vote.BlockHash)
	}
	if _, dup := bv.precommits[vote.Voter]; dup {
		p.mu.Unlock()
		return core.ErrDuplicateVote
	}
	bv.precommits[vote.Voter] = *vote
	bv.precommitWeight += vote.Weight
	shouldFinalize := bv.precommitWeight >= snap.Threshold && !bv.emittedPrecommit
	if shouldFinalize {
		bv.emittedPrecommit = true
		p.state = Precommitted
	}
	block := bv.block
	p.mu.Unlock()

	if !shouldFinalize {
		return nil
	}
	return p.finalize(block, bv)
}

func (p *Producer) finalize(block *core.Block, bv *blockVotes) error {
	cert := &core.FinalityCertificate{BlockHash: block.BlockHash}
	for _, v := range bv.precommits {
		cert.Votes = append(cert.Votes, v)
	}

	if err := p.chain.Append(block, cert); err != nil {
		return err
	}

	// Every tx's settlement touches only its own outpoints (utxo.Store takes
	// its striped outpoint locks in a fixed order), so a block's transactions finalize
	// concurrently instead of one at a time -- the same fan-out-then-wait
	// shape as vertex-set processing in the teacher's topological consensus.
	var g errgroup.Group
	for _, tx := range bv.txs {
		tx := tx
		if tx.Coinbase {
			continue
		}
		g.Go(func() error {
			if err := p.utxos.Finalize(tx, block.Header.Height); err != nil {
				p.log.Error("tsdc: block %s: utxo finalize of %s failed: %s", block.BlockHash, tx.TxID, err)
			}
			_ = p.pool.MarkGloballyFinalized(tx.TxID, nil)
			return nil
		})
	}
	_ = g.Wait()

	p.mu.Lock()
	p.state = Finalized
	delete(p.votes, block.BlockHash)
	if p.slotDone != nil {
		close(p.slotDone)
		p.slotDone = nil
	}
	p.mu.Unlock()
	p.metrics.incBlocksFinalized()

	if p.notif != nil {
		p.notif.PublishBlock(block)
	}
	return nil
}

func (p *Producer) currentSlot() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.curSlot
}

func sumFees(txs []*core.Transaction) uint64 {
	var total uint64
	for _, tx := range txs {
		total += tx.Fee
	}
	return total
}
