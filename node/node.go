// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package node wires C1-C8 into one running validator, owning the two
// finalization callback chains that the components' narrow interfaces
// otherwise leave dangling: per-tx global finality (C4 local accept -> C5
// vote assembly -> C2 pool transition) and per-block finality (C6
// precommit threshold -> C7 chain append -> C1 UTXO settlement -> C2 pool
// drop -> C8 notify). No other package imports node; it is purely a
// composition root, the same role the teacher's dir/main entrypoints play
// for a single chain's VM+engine+network stack.
package node

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/timecoin-project/timecoin/avalanche"
	"github.com/timecoin-project/timecoin/chainstore"
	"github.com/timecoin-project/timecoin/core"
	"github.com/timecoin-project/timecoin/database"
	"github.com/timecoin-project/timecoin/ids"
	"github.com/timecoin-project/timecoin/notifier"
	"github.com/timecoin-project/timecoin/tsdc"
	"github.com/timecoin-project/timecoin/txpool"
	"github.com/timecoin-project/timecoin/utils/logging"
	"github.com/timecoin-project/timecoin/utxo"
	"github.com/timecoin-project/timecoin/validator"
	"github.com/timecoin-project/timecoin/vfp"
)

// Config bundles everything needed to stand up a Node.
type Config struct {
	Self    core.Address
	PrivKey core.PrivateKey
	ChainID ids.ID

	DB                database.Database
	InitialValidators []core.Validator

	AvalancheParams avalanche.Parameters
	TSDCParams      tsdc.Parameters
	SlotClock       tsdc.SlotClock

	Bcast  core.Broadcaster
	Oracle core.SignatureOracle
	Log    logging.Logger

	NotifierQueueSize int

	// Metrics is optional; when set, it's handed to every component that
	// reports Prometheus metrics (currently avalanche.Engine and tsdc.Producer).
	Metrics prometheus.Registerer
}

// Node is one running TimeCoin validator: the composition of every
// component, plus the glue that moves a transaction from submission
// through local acceptance, global finality, block inclusion and
// settlement.
type Node struct {
	self    core.Address
	privKey core.PrivateKey
	chainID ids.ID
	clock   tsdc.SlotClock
	log     logging.Logger

	UTXOs     *utxo.Store
	Pool      *txpool.Pool
	Registry  *validator.Registry
	Engine    *avalanche.Engine
	VFP       *vfp.Assembler
	Producer  *tsdc.Producer
	Chain     *chainstore.Store
	Notifier  *notifier.Notifier
	Bcast     core.Broadcaster
	Oracle    core.SignatureOracle
}

// New constructs a Node from cfg. The avalanche Engine's onAccept/onReject
// callbacks are bound to this Node's own methods, so tracking a
// transaction (SubmitTransaction) eventually drives it all the way to
// global finality without further caller involvement.
func New(cfg Config) *Node {
	log := cfg.Log
	if log == nil {
		log = logging.NoLog
	}

	notif := notifier.New(cfg.NotifierQueueSize)
	registry := validator.New(cfg.InitialValidators)
	utxos := utxo.New(cfg.DB, notif)
	pool := txpool.New(txpool.DefaultConfig(), notif)
	chain := chainstore.New(cfg.DB)
	assembler := vfp.New(registry, cfg.Oracle)

	n := &Node{
		self: cfg.Self, privKey: cfg.PrivKey, chainID: cfg.ChainID, clock: cfg.SlotClock, log: log,
		UTXOs: utxos, Pool: pool, Registry: registry, VFP: assembler,
		Chain: chain, Notifier: notif, Bcast: cfg.Bcast, Oracle: cfg.Oracle,
	}

	n.Engine = avalanche.New(cfg.AvalancheParams, cfg.Self, registry, cfg.Bcast, log, cfg.Metrics, n.onLocallyAccepted, n.onLocallyRejected)
	n.Producer = tsdc.New(tsdc.Config{
		Params: cfg.TSDCParams, Clock: cfg.SlotClock, Self: cfg.Self, PrivKey: cfg.PrivKey,
		Registry: registry, Pool: pool, UTXOs: utxos, Chain: chain, VFPs: assembler,
		Notifier: notif, Bcast: cfg.Bcast, Oracle: cfg.Oracle, Log: log,
		Metrics: cfg.Metrics,
	})
	return n
}

// SubmitTransaction admits tx into the pool, provisionally locks its
// inputs, and starts its Avalanche round loop. Returns an error without
// starting consensus if tx is structurally invalid, conflicts with
// already-locked inputs, or duplicates a known tx.
func (n *Node) SubmitTransaction(ctx context.Context, tx *core.Transaction) error {
	if err := n.Pool.AddPending(tx); err != nil {
		return err
	}
	if err := n.UTXOs.TryLockAll(tx); err != nil {
		_ = n.Pool.Reject(tx.TxID, err.Error())
		return err
	}
	n.Engine.Track(ctx, tx.TxID)
	return nil
}

// onLocallyAccepted runs when C4 converges on Accept for txid: it marks
// the pool entry LocallyAccepted, builds and self-signs this node's
// FinalityVote, and gossips it, exactly as §4.4's "on local acceptance"
// transition into §4.5 describes.
func (n *Node) onLocallyAccepted(txid ids.ID) {
	ctx := context.Background()
	if err := n.Pool.MarkLocallyAccepted(txid); err != nil {
		n.log.Warn("node: mark locally accepted %s: %s", txid, err)
		return
	}

	slotIndex := n.clock.SlotAt(time.Now())
	weight, member := n.Registry.WeightOf(n.self)
	if !member {
		n.log.Warn("node: %s is not a current validator, cannot vote for %s", n.self, txid)
		return
	}

	vote := vfp.GenerateLocalVote(n.chainID, txid, slotIndex, n.self, weight)
	sig, err := n.Oracle.Sign(ctx, n.privKey, core.SerializeFinalityVote(vote))
	if err != nil {
		n.log.Error("node: sign finality vote for %s: %s", txid, err)
		return
	}
	vote.Sig = sig

	if err := n.VFP.AcceptVote(ctx, vote); err != nil {
		n.log.Warn("node: self-vote for %s rejected: %s", txid, err)
		return
	}
	n.tryAssemble(ctx, txid)

	if err := n.Bcast.GossipFinalityVote(ctx, *vote); err != nil {
		n.log.Warn("node: gossip finality vote for %s: %s", txid, err)
	}
}

// onLocallyRejected runs when C4 converges on Reject, or gives up after
// exhausting its round budget: it releases the tx's input locks back to
// Unspent and moves it into the pool's rejected_ttl set.
func (n *Node) onLocallyRejected(txid ids.ID, reason string) {
	if tx, ok := n.Pool.Peek(txid); ok {
		if err := n.UTXOs.Unlock(tx); err != nil {
			n.log.Error("node: unlock inputs for rejected tx %s: %s", txid, err)
		}
	}
	if err := n.Pool.Reject(txid, reason); err != nil {
		n.log.Warn("node: reject %s: %s", txid, err)
	}
}

// AcceptVote is this Node's core.Broadcaster-facing entry point for
// a peer's gossiped FinalityVote (loopback.FinalityVoteSink). Accepting a
// vote may complete the VFP; when it does, the tx becomes eligible for
// C6's next block.
func (n *Node) AcceptVote(ctx context.Context, vote *core.FinalityVote) error {
	if err := n.VFP.AcceptVote(ctx, vote); err != nil {
		return err
	}
	n.tryAssemble(ctx, vote.TxID)
	return nil
}

func (n *Node) tryAssemble(ctx context.Context, txid ids.ID) {
	proof, ok := n.VFP.TryAssemble(txid)
	if !ok {
		return
	}
	if err := n.Pool.MarkGloballyFinalized(txid, proof); err != nil {
		n.log.Verbo("node: mark globally finalized %s: %s", txid, err)
	}
	n.VFP.Forget(txid)
	n.Engine.Cancel(txid)
}

// RunSlot drives TSDC's state machine for slotIndex; see tsdc.Producer. A
// FatalInvariantError from the slot is logged as Fatal and then panics.
func (n *Node) RunSlot(ctx context.Context, slotIndex uint64) error {
	err := n.Producer.RunSlot(ctx, slotIndex)
	var fatal *core.FatalInvariantError
	if errors.As(err, &fatal) {
		n.log.Fatal("node: slot %d: %s", slotIndex, err)
		panic(err)
	}
	return err
}

// Replay rebuilds chain and UTXO state from cfg.DB on startup, in that
// order: chain history first (so TSDC knows the current tip and height),
// then the UTXO set (so C1's cache and C2's future lock attempts see
// consistent state).
func (n *Node) Replay() error {
	if err := n.Chain.Replay(nil); err != nil {
		return err
	}
	return n.UTXOs.Replay(nil)
}
