// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package core

import (
	"testing"

	"github.com/timecoin-project/timecoin/ids"
)

func TestTxIDDeterministic(t *testing.T) {
	tx := &Transaction{
		Inputs:  []OutPoint{{TxID: ids.ID{0x11}, Vout: 0}},
		Outputs: []TxOutput{{Address: "bob", Amount: 400_000_000}, {Address: "alice", Amount: 599_999_000}},
		Fee:     1_000,
	}
	tx.TxID = ComputeTxID(tx)

	again := ComputeTxID(tx)
	if tx.TxID != again {
		t.Fatalf("txid is not deterministic across calls")
	}

	tx.Signatures = []Signature{[]byte("sig")}
	withSig := ComputeTxID(tx)
	if withSig != tx.TxID {
		t.Fatalf("txid must not depend on signatures")
	}
}

func TestComputeBlockHashChangesWithHeader(t *testing.T) {
	h1 := &BlockHeader{Height: 1, SlotIndex: 1, Proposer: "alice"}
	h2 := &BlockHeader{Height: 2, SlotIndex: 1, Proposer: "alice"}

	if ComputeBlockHash(h1) == ComputeBlockHash(h2) {
		t.Fatalf("different headers must hash differently")
	}
	if ComputeBlockHash(h1) != ComputeBlockHash(h1) {
		t.Fatalf("hash must be deterministic")
	}
}

func TestValidateStructureRejectsDuplicateInputs(t *testing.T) {
	tx := &Transaction{
		Inputs:     []OutPoint{{TxID: ids.ID{1}, Vout: 0}, {TxID: ids.ID{1}, Vout: 0}},
		Outputs:    []TxOutput{{Address: "bob", Amount: 10}},
		Signatures: []Signature{[]byte("a"), []byte("b")},
	}
	if err := ValidateStructure(tx); err == nil {
		t.Fatalf("expected duplicate-input rejection")
	}
}

func TestValidateStructureRejectsDustOutput(t *testing.T) {
	tx := &Transaction{
		Inputs:     []OutPoint{{TxID: ids.ID{1}, Vout: 0}},
		Outputs:    []TxOutput{{Address: "bob", Amount: 0}},
		Signatures: []Signature{[]byte("a")},
	}
	if err := ValidateStructure(tx); err == nil {
		t.Fatalf("expected dust rejection")
	}
}

func TestThresholdOfCeilsTwoThirds(t *testing.T) {
	if got := ThresholdOf(300); got != 200 {
		t.Fatalf("expected 200, got %d", got)
	}
	if got := ThresholdOf(500); got != 334 {
		t.Fatalf("expected 334 (ceil of 2/3 * 500), got %d", got)
	}
}
