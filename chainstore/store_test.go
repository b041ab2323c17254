// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chainstore

import (
	"testing"

	"github.com/timecoin-project/timecoin/core"
	"github.com/timecoin-project/timecoin/database/memdb"
	"github.com/timecoin-project/timecoin/ids"
)

func genesisBlock() *core.Block {
	h := core.BlockHeader{Height: 0, Proposer: "alice"}
	hash := core.ComputeBlockHash(&h)
	return &core.Block{Header: h, BlockHash: hash}
}

func childBlock(parent *core.Block) *core.Block {
	h := core.BlockHeader{Height: parent.Header.Height + 1, PrevHash: parent.BlockHash, Proposer: "bob"}
	hash := core.ComputeBlockHash(&h)
	return &core.Block{Header: h, TxIDs: []ids.ID{{0x01}}, BlockHash: hash}
}

func TestAppendContiguousChain(t *testing.T) {
	s := New(memdb.New())
	gen := genesisBlock()
	if err := s.Append(gen, &core.FinalityCertificate{BlockHash: gen.BlockHash}); err != nil {
		t.Fatalf("genesis append failed: %v", err)
	}

	child := childBlock(gen)
	if err := s.Append(child, &core.FinalityCertificate{BlockHash: child.BlockHash}); err != nil {
		t.Fatalf("child append failed: %v", err)
	}

	tip, ok := s.Tip()
	if !ok || tip.Header.Height != 1 {
		t.Fatalf("expected tip at height 1, got %+v, %v", tip, ok)
	}
}

func TestAppendRejectsNonContiguousHeight(t *testing.T) {
	s := New(memdb.New())
	gen := genesisBlock()
	s.Append(gen, &core.FinalityCertificate{BlockHash: gen.BlockHash})

	bad := &core.Block{Header: core.BlockHeader{Height: 5, PrevHash: gen.BlockHash}}
	bad.BlockHash = core.ComputeBlockHash(&bad.Header)
	if err := s.Append(bad, &core.FinalityCertificate{}); err == nil {
		t.Fatalf("expected non-contiguous height to be rejected")
	}
}

func TestAppendRejectsBrokenLink(t *testing.T) {
	s := New(memdb.New())
	gen := genesisBlock()
	s.Append(gen, &core.FinalityCertificate{BlockHash: gen.BlockHash})

	bad := &core.Block{Header: core.BlockHeader{Height: 1, PrevHash: ids.ID{0xFF}}}
	bad.BlockHash = core.ComputeBlockHash(&bad.Header)
	if err := s.Append(bad, &core.FinalityCertificate{}); err == nil {
		t.Fatalf("expected broken prev_hash link to be rejected")
	}
}

func TestReplayRebuildsIndex(t *testing.T) {
	db := memdb.New()
	s := New(db)
	gen := genesisBlock()
	s.Append(gen, &core.FinalityCertificate{BlockHash: gen.BlockHash})
	child := childBlock(gen)
	s.Append(child, &core.FinalityCertificate{BlockHash: child.BlockHash})

	fresh := New(db)
	count := 0
	if err := fresh.Replay(func(*core.Block, *core.FinalityCertificate) { count++ }); err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 blocks replayed, got %d", count)
	}
	tip, ok := fresh.Tip()
	if !ok || tip.Header.Height != 1 {
		t.Fatalf("expected replayed tip at height 1, got %+v", tip)
	}
	if _, _, ok := fresh.GetByHash(gen.BlockHash); !ok {
		t.Fatalf("expected genesis retrievable by hash after replay")
	}
}
