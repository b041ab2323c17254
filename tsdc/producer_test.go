// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tsdc

import (
	"context"
	"testing"
	"time"

	"github.com/timecoin-project/timecoin/chainstore"
	"github.com/timecoin-project/timecoin/core"
	"github.com/timecoin-project/timecoin/database/memdb"
	"github.com/timecoin-project/timecoin/ids"
	"github.com/timecoin-project/timecoin/txpool"
	"github.com/timecoin-project/timecoin/utxo"
	"github.com/timecoin-project/timecoin/validator"
	"github.com/timecoin-project/timecoin/vfp"
)

// loopbackBcast routes every broadcast straight back into the same
// Producer's handlers, simulating a single-node or fully-synchronous
// cluster without a real transport.
type loopbackBcast struct {
	p *Producer
}

func (l *loopbackBcast) RequestVotes(context.Context, []core.Address, ids.ID) (<-chan core.VoteResponse, error) {
	ch := make(chan core.VoteResponse)
	close(ch)
	return ch, nil
}
func (l *loopbackBcast) GossipFinalityVote(context.Context, core.FinalityVote) error { return nil }
func (l *loopbackBcast) BroadcastProposal(ctx context.Context, b core.Block) error {
	return l.p.HandleProposal(ctx, &b)
}
func (l *loopbackBcast) BroadcastPrepare(ctx context.Context, v core.PrepareVote) error {
	return l.p.HandlePrepareVote(ctx, &v)
}
func (l *loopbackBcast) BroadcastPrecommit(ctx context.Context, v core.PrecommitVote) error {
	return l.p.HandlePrecommitVote(ctx, &v)
}

type acceptAllOracle struct{}

func (acceptAllOracle) Sign(context.Context, core.PrivateKey, []byte) (core.Signature, error) {
	return core.Signature("sig"), nil
}
func (acceptAllOracle) Verify(context.Context, core.PubKey, []byte, core.Signature) bool { return true }

func newSingleValidatorProducer(t *testing.T) *Producer {
	t.Helper()
	reg := validator.New([]core.Validator{{ID: "self", StakeWeight: 100, Tier: core.TierGold}})
	pool := txpool.New(txpool.DefaultConfig(), nil)
	utxos := utxo.New(memdb.New(), nil)
	chain := chainstore.New(memdb.New())
	assembler := vfp.New(reg, acceptAllOracle{})

	params := DefaultParameters()
	params.SlotPeriod = 200 * time.Millisecond
	params.SlotGrace = 200 * time.Millisecond
	params.LeaderTimeout = 50 * time.Millisecond

	p := New(Config{
		Params: params, Self: "self", PrivKey: core.PrivateKey("priv"),
		Registry: reg, Pool: pool, UTXOs: utxos, Chain: chain, VFPs: assembler,
		Oracle: acceptAllOracle{},
	})
	p.bcast = &loopbackBcast{p: p}
	return p
}

func TestProducerFinalizesGenesisWithNoTransactions(t *testing.T) {
	p := newSingleValidatorProducer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := p.RunSlot(ctx, 0); err != nil {
		t.Fatalf("RunSlot: %v", err)
	}

	block, ok := p.chain.Tip()
	if !ok {
		t.Fatalf("expected a finalized genesis block")
	}
	if block.Header.Height != 0 {
		t.Fatalf("expected height 0, got %d", block.Header.Height)
	}
	if block.Header.Reward != Subsidy(0) {
		t.Fatalf("expected reward %d, got %d", Subsidy(0), block.Header.Reward)
	}
}

func TestProducerIncludesFinalizedTransaction(t *testing.T) {
	p := newSingleValidatorProducer(t)

	genesis := core.UTXO{
		OutPoint: core.OutPoint{TxID: ids.ID{0x11}, Vout: 0},
		Amount:   1_000_000_000, Owner: "alice", State: core.Unspent,
	}
	if err := p.utxos.Insert(&genesis); err != nil {
		t.Fatalf("insert genesis utxo: %v", err)
	}

	tx := &core.Transaction{
		Inputs:  []core.OutPoint{genesis.OutPoint},
		Outputs: []core.TxOutput{{Address: "bob", Amount: 400_000_000}, {Address: "alice", Amount: 599_999_000}},
		Fee:     1000,
	}
	tx.TxID = core.ComputeTxID(tx)

	if err := p.pool.AddPending(tx); err != nil {
		t.Fatalf("add pending: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// validateBlock requires a genuine, re-verifiable VFP for every included
	// tx, so finalize tx the same way node.onLocallyAccepted would: accept
	// this node's own vote and assemble it before marking the pool entry
	// globally finalized.
	p.registry.CaptureAVS(0)
	vote := vfp.GenerateLocalVote(ids.ID{}, tx.TxID, 0, "self", 100)
	vote.Sig = core.Signature("sig")
	if err := p.vfps.AcceptVote(ctx, vote); err != nil {
		t.Fatalf("accept vote: %v", err)
	}
	proof, ok := p.vfps.TryAssemble(tx.TxID)
	if !ok {
		t.Fatalf("expected vfp to assemble")
	}
	if err := p.pool.MarkGloballyFinalized(tx.TxID, proof); err != nil {
		t.Fatalf("mark globally finalized: %v", err)
	}
	if err := p.RunSlot(ctx, 0); err != nil {
		t.Fatalf("RunSlot: %v", err)
	}

	block, ok := p.chain.Tip()
	if !ok {
		t.Fatalf("expected a finalized block")
	}
	if len(block.TxIDs) != 1 || block.TxIDs[0] != tx.TxID {
		t.Fatalf("expected block to carry tx %s, got %v", tx.TxID, block.TxIDs)
	}

	if u, ok := p.utxos.Get(core.OutPoint{TxID: tx.TxID, Vout: 0}); !ok || u.Amount != 400_000_000 {
		t.Fatalf("expected bob's output materialized, got %+v ok=%v", u, ok)
	}
	if spent, ok := p.utxos.Get(genesis.OutPoint); !ok || spent.State != core.SpentFinalized {
		t.Fatalf("expected genesis outpoint finalized, got %+v ok=%v", spent, ok)
	}
}

func TestProducerRefusesSlotWithEmptyAVS(t *testing.T) {
	reg := validator.New(nil)
	pool := txpool.New(txpool.DefaultConfig(), nil)
	utxos := utxo.New(memdb.New(), nil)
	chain := chainstore.New(memdb.New())
	assembler := vfp.New(reg, acceptAllOracle{})

	params := DefaultParameters()
	params.SlotPeriod = 30 * time.Millisecond
	params.SlotGrace = 30 * time.Millisecond

	p := New(Config{
		Params: params, Self: "self", Registry: reg, Pool: pool, UTXOs: utxos,
		Chain: chain, VFPs: assembler, Oracle: acceptAllOracle{},
	})
	p.bcast = &loopbackBcast{p: p}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.RunSlot(ctx, 0); err == nil {
		t.Fatalf("expected empty-AVS error")
	}
	if _, ok := p.chain.Tip(); ok {
		t.Fatalf("expected no block finalized with an empty AVS")
	}
}
