// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package core

import (
	"github.com/timecoin-project/timecoin/ids"
	"github.com/timecoin-project/timecoin/utils/hashing"
	"github.com/timecoin-project/timecoin/utils/wrappers"
)

const (
	codecVersion = uint16(0)

	// MaxTxBytes bounds a single transaction's canonical encoding.
	MaxTxBytes = 64 * 1024
)

// SerializeTx encodes tx in canonical field order with fixed-width
// little-endian integers and length-prefixed byte strings, the same shape
// the teacher's vertex.Marshal builds with a wrappers.Packer. When
// withSignatures is false the signature list is omitted entirely, which is
// what TxID hashes over; the signed wire form sets it true.
func SerializeTx(tx *Transaction, withSignatures bool) []byte {
	p := wrappers.Packer{MaxSize: MaxTxBytes}
	p.PackShort(codecVersion)
	p.PackBool(tx.Coinbase)

	p.PackInt(uint32(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		p.PackFixedBytes(in.TxID.Bytes())
		p.PackInt(in.Vout)
	}

	p.PackInt(uint32(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		p.PackBytes([]byte(out.Address))
		p.PackLong(out.Amount)
	}

	p.PackLong(tx.Fee)

	if withSignatures {
		p.PackInt(uint32(len(tx.Signatures)))
		for _, sig := range tx.Signatures {
			p.PackBytes(sig)
		}
	}
	return p.Bytes
}

// ComputeTxID derives tx's canonical ID from its unsigned serialization.
// Callers must set tx.TxID to the result before tx is used as a map key
// anywhere (UTXO store, tx pool, conflict sets).
func ComputeTxID(tx *Transaction) ids.ID {
	return ids.NewID(hashing.ComputeHash256Array(SerializeTx(tx, false)))
}

// SerializeBlockHeader encodes a block header in canonical form; BlockHash
// is H(SerializeBlockHeader(header)).
func SerializeBlockHeader(h *BlockHeader) []byte {
	p := wrappers.Packer{}
	p.PackInt(h.Version)
	p.PackLong(h.Height)
	p.PackFixedBytes(h.PrevHash.Bytes())
	p.PackFixedBytes(h.MerkleRoot.Bytes())
	p.PackLong(h.SlotIndex)
	p.PackBytes([]byte(h.Proposer))
	p.PackLong(uint64(h.TimestampMS))
	p.PackBytes(h.VRFProof)
	p.PackLong(h.Reward)
	return p.Bytes
}

// ComputeBlockHash derives a block's canonical hash from its header.
func ComputeBlockHash(h *BlockHeader) ids.ID {
	return ids.NewID(hashing.ComputeHash256Array(SerializeBlockHeader(h)))
}

// ComputeMerkleRoot hashes the sorted set of included txids into a single
// root. TimeCoin doesn't need membership proofs today, so a simple
// iterated hash (rather than a full binary Merkle tree) is sufficient and
// still gives every block a content-addressed root that changes if any
// included txid changes.
func ComputeMerkleRoot(txids []ids.ID) ids.ID {
	sorted := make([]ids.ID, len(txids))
	copy(sorted, txids)
	ids.SortIDs(sorted)

	p := wrappers.Packer{}
	p.PackInt(uint32(len(sorted)))
	for _, id := range sorted {
		p.PackFixedBytes(id.Bytes())
	}
	return ids.NewID(hashing.ComputeHash256Array(p.Bytes))
}

// SerializeFinalityVote encodes a FinalityVote's signed payload (everything
// but the signature itself).
func SerializeFinalityVote(v *FinalityVote) []byte {
	p := wrappers.Packer{}
	p.PackFixedBytes(v.ChainID.Bytes())
	p.PackFixedBytes(v.TxID.Bytes())
	p.PackLong(v.SlotIndex)
	p.PackBytes([]byte(v.Voter))
	p.PackLong(v.Weight)
	return p.Bytes
}

// SerializePrepareVote encodes a PrepareVote's signed payload.
func SerializePrepareVote(v *PrepareVote) []byte {
	p := wrappers.Packer{}
	p.PackFixedBytes(v.BlockHash.Bytes())
	p.PackBytes([]byte(v.Voter))
	p.PackLong(v.Weight)
	return p.Bytes
}

// SerializePrecommitVote encodes a PrecommitVote's signed payload.
func SerializePrecommitVote(v *PrecommitVote) []byte {
	p := wrappers.Packer{}
	p.PackFixedBytes(v.BlockHash.Bytes())
	p.PackBytes([]byte(v.Voter))
	p.PackLong(v.Weight)
	return p.Bytes
}
