// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"context"
	"testing"
	"time"

	"github.com/timecoin-project/timecoin/adapters/loopback"
	"github.com/timecoin-project/timecoin/avalanche"
	"github.com/timecoin-project/timecoin/core"
	"github.com/timecoin-project/timecoin/database/memdb"
	"github.com/timecoin-project/timecoin/ids"
	"github.com/timecoin-project/timecoin/tsdc"
)

type acceptAllOracle struct{}

func (acceptAllOracle) Sign(context.Context, core.PrivateKey, []byte) (core.Signature, error) {
	return core.Signature("sig"), nil
}
func (acceptAllOracle) Verify(context.Context, core.PubKey, []byte, core.Signature) bool { return true }

func singleValidatorNode(t *testing.T, hub *loopback.Hub) *Node {
	t.Helper()

	avalancheParams := avalanche.DefaultParameters()
	avalancheParams.RoundTimeout = 20 * time.Millisecond
	avalancheParams.Beta = 2
	avalancheParams.KMin, avalancheParams.KMax = 1, 1

	tsdcParams := tsdc.DefaultParameters()
	tsdcParams.SlotPeriod = 300 * time.Millisecond
	tsdcParams.SlotGrace = 300 * time.Millisecond
	tsdcParams.LeaderTimeout = 50 * time.Millisecond

	n := New(Config{
		Self: "self", PrivKey: core.PrivateKey("priv"), ChainID: ids.ID{0x01},
		DB:                memdb.New(),
		InitialValidators: []core.Validator{{ID: "self", StakeWeight: 100, Tier: core.TierGold}},
		AvalancheParams:   avalancheParams,
		TSDCParams:        tsdcParams,
		SlotClock:         tsdc.SlotClock{GenesisTime: time.Now().Add(-time.Hour), SlotPeriod: tsdcParams.SlotPeriod},
		Bcast:             hub.For("self"),
		Oracle:            acceptAllOracle{},
	})

	hub.Register("self", &loopback.Peer{
		Votes: n.Engine, Proposals: n.Producer, Prepares: n.Producer, Precommits: n.Producer, Finality: n,
	})
	return n
}

// TestEndToEndSubmitAcceptFinalizeSettle exercises the whole pipeline a
// single validator drives a transaction through: pool admission, UTXO
// locking, Avalanche local acceptance, VFP self-assembly, TSDC block
// production and settlement back into the UTXO set -- mirroring the E1
// scenario's literal amounts.
func TestEndToEndSubmitAcceptFinalizeSettle(t *testing.T) {
	hub := loopback.New()
	n := singleValidatorNode(t, hub)

	genesis := &core.UTXO{
		OutPoint: core.OutPoint{TxID: ids.ID{0x11}, Vout: 0},
		Amount:   1_000_000_000, Owner: "alice", State: core.Unspent,
	}
	if err := n.UTXOs.Insert(genesis); err != nil {
		t.Fatalf("insert genesis utxo: %v", err)
	}

	tx := &core.Transaction{
		Inputs: []core.OutPoint{genesis.OutPoint},
		Outputs: []core.TxOutput{
			{Address: "bob", Amount: 400_000_000},
			{Address: "alice", Amount: 599_999_000},
		},
		Fee:        1000,
		Signatures: []core.Signature{core.Signature("sig")},
	}
	tx.TxID = core.ComputeTxID(tx)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := n.SubmitTransaction(ctx, tx); err != nil {
		t.Fatalf("SubmitTransaction: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for {
		if _, ok := n.Pool.Status(tx.TxID); ok {
			status, _ := n.Pool.Status(tx.TxID)
			if status == core.GloballyFinalized {
				break
			}
		}
		select {
		case <-deadline:
			t.Fatalf("tx did not reach global finality in time")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if err := n.RunSlot(ctx, n.clock.SlotAt(time.Now())); err != nil {
		t.Fatalf("RunSlot: %v", err)
	}

	block, ok := n.Chain.Tip()
	if !ok {
		t.Fatalf("expected a finalized block")
	}
	if len(block.TxIDs) != 1 || block.TxIDs[0] != tx.TxID {
		t.Fatalf("expected block to include tx %s, got %v", tx.TxID, block.TxIDs)
	}

	bobOut, ok := n.UTXOs.Get(core.OutPoint{TxID: tx.TxID, Vout: 0})
	if !ok || bobOut.Amount != 400_000_000 || bobOut.Owner != "bob" {
		t.Fatalf("expected bob's output settled, got %+v ok=%v", bobOut, ok)
	}
	spentGenesis, ok := n.UTXOs.Get(genesis.OutPoint)
	if !ok || spentGenesis.State != core.SpentFinalized {
		t.Fatalf("expected genesis outpoint finalized, got %+v ok=%v", spentGenesis, ok)
	}
}

func TestSubmitTransactionRejectsConflictingInput(t *testing.T) {
	hub := loopback.New()
	n := singleValidatorNode(t, hub)

	genesis := &core.UTXO{OutPoint: core.OutPoint{TxID: ids.ID{0x22}, Vout: 0}, Amount: 500, Owner: "alice", State: core.Unspent}
	if err := n.UTXOs.Insert(genesis); err != nil {
		t.Fatalf("insert: %v", err)
	}

	tx1 := &core.Transaction{Inputs: []core.OutPoint{genesis.OutPoint}, Outputs: []core.TxOutput{{Address: "bob", Amount: 400}}, Fee: 10, Signatures: []core.Signature{core.Signature("sig")}}
	tx1.TxID = core.ComputeTxID(tx1)
	tx2 := &core.Transaction{Inputs: []core.OutPoint{genesis.OutPoint}, Outputs: []core.TxOutput{{Address: "carol", Amount: 300}}, Fee: 10, Signatures: []core.Signature{core.Signature("sig")}}
	tx2.TxID = core.ComputeTxID(tx2)

	ctx := context.Background()
	if err := n.SubmitTransaction(ctx, tx1); err != nil {
		t.Fatalf("submit tx1: %v", err)
	}
	if err := n.SubmitTransaction(ctx, tx2); err == nil {
		t.Fatalf("expected tx2 to be rejected as a double-spend")
	}
}
