// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txpool

import (
	"testing"

	"github.com/timecoin-project/timecoin/core"
	"github.com/timecoin-project/timecoin/ids"
)

func simpleTx(id byte, fee uint64) *core.Transaction {
	tx := &core.Transaction{
		Inputs:     []core.OutPoint{{TxID: ids.ID{id, 0xFF}, Vout: 0}},
		Outputs:    []core.TxOutput{{Address: "bob", Amount: 10}},
		Fee:        fee,
		Signatures: []core.Signature{[]byte("sig")},
	}
	tx.TxID = core.ComputeTxID(tx)
	tx.TxID[0] = id // keep txids distinguishable for the test's own bookkeeping
	return tx
}

func TestAddPendingAndLifecycle(t *testing.T) {
	p := New(DefaultConfig(), nil)
	tx := simpleTx(1, 100)

	if err := p.AddPending(tx); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	status, ok := p.Status(tx.TxID)
	if !ok || status != core.Pending {
		t.Fatalf("expected Pending, got %v", status)
	}

	if err := p.MarkLocallyAccepted(tx.TxID); err != nil {
		t.Fatalf("mark locally accepted failed: %v", err)
	}
	status, _ = p.Status(tx.TxID)
	if status != core.LocallyAccepted {
		t.Fatalf("expected LocallyAccepted, got %v", status)
	}

	vfp := &core.VFP{TxID: tx.TxID}
	if err := p.MarkGloballyFinalized(tx.TxID, vfp); err != nil {
		t.Fatalf("mark finalized failed: %v", err)
	}
	status, _ = p.Status(tx.TxID)
	if status != core.GloballyFinalized {
		t.Fatalf("expected GloballyFinalized, got %v", status)
	}

	drained := p.DrainFinalized()
	if len(drained) != 1 || drained[0].TxID != tx.TxID {
		t.Fatalf("expected drain to return the finalized tx")
	}
	if drained := p.DrainFinalized(); len(drained) != 0 {
		t.Fatalf("expected drain to be idempotent once empty")
	}
}

func TestRejectThenResubmitRefused(t *testing.T) {
	p := New(DefaultConfig(), nil)
	tx := simpleTx(1, 100)
	p.AddPending(tx)

	if err := p.Reject(tx.TxID, "ConflictingSpend"); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if err := p.AddPending(tx); err == nil {
		t.Fatalf("expected resubmission within TTL to be refused")
	}
}

func TestEvictionPrefersLowestFeeWhenSaturated(t *testing.T) {
	p := New(Config{MaxPoolBytes: 1 << 30, MaxPoolCount: 2}, nil)
	low := simpleTx(1, 10)
	high := simpleTx(2, 10_000)

	if err := p.AddPending(low); err != nil {
		t.Fatalf("add low failed: %v", err)
	}
	mid := simpleTx(3, 500)
	if err := p.AddPending(mid); err != nil {
		t.Fatalf("add mid failed: %v", err)
	}

	// Pool is now at MaxPoolCount; admitting a higher fee-per-byte tx must
	// evict the lowest fee-per-byte pending entry (low), never a tx that
	// isn't Pending anymore.
	if err := p.AddPending(high); err != nil {
		t.Fatalf("add high failed: %v", err)
	}

	if _, ok := p.Status(low.TxID); ok {
		t.Fatalf("expected low-fee tx to be evicted")
	}
	if _, ok := p.Status(high.TxID); !ok {
		t.Fatalf("expected high-fee tx to be admitted")
	}
}

func TestLocallyAcceptedNeverEvicted(t *testing.T) {
	p := New(Config{MaxPoolBytes: 1 << 30, MaxPoolCount: 1}, nil)
	low := simpleTx(1, 10)
	p.AddPending(low)
	p.MarkLocallyAccepted(low.TxID)

	high := simpleTx(2, 10_000)
	// Pool is saturated by count (1) but low is no longer Pending, so it
	// must not be evicted; the admit itself should fail instead.
	if err := p.AddPending(high); err == nil {
		t.Fatalf("expected admission to fail rather than evict a LocallyAccepted entry")
	}
	if status, ok := p.Status(low.TxID); !ok || status != core.LocallyAccepted {
		t.Fatalf("expected low to remain LocallyAccepted, got %v, %v", status, ok)
	}
}
