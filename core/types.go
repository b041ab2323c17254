// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package core holds the data model shared by every component: the UTXO
// model, transactions, validators, votes, proofs and blocks, plus the
// canonical serialization and capability interfaces the rest of the tree is
// built against. Nothing in here talks to storage, the network, or a
// signature library directly -- that indirection is exactly what keeps
// utxo, txpool, avalanche, vfp, tsdc and chainstore unit-testable without a
// running node.
package core

import (
	"fmt"

	"github.com/timecoin-project/timecoin/ids"
)

// Address identifies a validator or a UTXO owner. It's string-equatable
// rather than a fixed-width hash because bech32m rendering is an external
// concern (§1); core code only ever compares and hashes it.
type Address string

// PubKey and Signature are opaque byte strings; nothing in core interprets
// their contents, verification is delegated to a SignatureOracle.
type PubKey []byte
type Signature []byte

// OutPoint identifies a specific output of a specific transaction.
type OutPoint struct {
	TxID ids.ID
	Vout uint32
}

func (o OutPoint) String() string { return fmt.Sprintf("%s:%d", o.TxID, o.Vout) }

// Less defines the outpoint byte-lex total order used for deadlock-free
// multi-key locking in the UTXO store: compare TxID bytes, then Vout.
func (o OutPoint) Less(other OutPoint) bool {
	if cmp := o.TxID.Compare(other.TxID); cmp != 0 {
		return cmp < 0
	}
	return o.Vout < other.Vout
}

// UtxoState is the lifecycle of a single UTXO entry.
type UtxoState uint8

const (
	Unspent UtxoState = iota
	SpentPending
	SpentFinalized
)

func (s UtxoState) String() string {
	switch s {
	case Unspent:
		return "Unspent"
	case SpentPending:
		return "SpentPending"
	case SpentFinalized:
		return "SpentFinalized"
	default:
		return "Invalid"
	}
}

// UTXO is one entry in the outpoint -> state map C1 owns for its entire
// lifetime. SpendingTx is the zero ID unless State is SpentPending or
// SpentFinalized.
type UTXO struct {
	OutPoint        OutPoint
	Amount          uint64
	Owner           Address
	CreatedAtHeight uint64
	State           UtxoState
	SpendingTx      ids.ID
}

// TxOutput is one (address, amount) pair in a transaction's output list.
type TxOutput struct {
	Address Address
	Amount  uint64
}

// TxStatus is the lifecycle of a transaction as it moves through C2/C4/C5.
type TxStatus uint8

const (
	Pending TxStatus = iota
	LocallyAccepted
	GloballyFinalized
	Rejected
)

func (s TxStatus) String() string {
	switch s {
	case Pending:
		return "Pending"
	case LocallyAccepted:
		return "LocallyAccepted"
	case GloballyFinalized:
		return "GloballyFinalized"
	case Rejected:
		return "Rejected"
	default:
		return "Invalid"
	}
}

// Transaction is a signed spend of zero or more inputs (coinbase has none)
// into one or more outputs. TxID is always the hash of the canonical
// serialization with signatures excluded; it's computed once by ComputeTxID
// and carried rather than recomputed on every access.
type Transaction struct {
	TxID       ids.ID
	Inputs     []OutPoint
	Outputs    []TxOutput
	Fee        uint64
	Signatures []Signature
	Coinbase   bool
}

// InputIDs returns the set of outpoints this transaction consumes, which is
// both its Snowstorm-style conflict key and the set the UTXO store must
// lock atomically.
func (tx *Transaction) InputIDs() []OutPoint { return tx.Inputs }

// Validator is a registered masternode: its signing key, voting weight and
// service tier.
type Validator struct {
	ID          Address
	PubKey      PubKey
	StakeWeight uint64
	Tier        Tier
}

// Tier is the masternode collateral class; its numeric value is the weight
// contribution a single validator of that tier brings to StakeWeight,
// replacing what the source modeled as a validator-info trait hierarchy.
type Tier uint64

const (
	TierFree   Tier = 1
	TierBronze Tier = 10
	TierSilver Tier = 100
	TierGold   Tier = 1000
)

// AVSMember is one entry in an AVS snapshot.
type AVSMember struct {
	ID     Address
	PubKey PubKey
	Weight uint64
}

// AVSSnapshot is an immutable view of the validator set eligible to vote at
// SlotIndex. Threshold is precomputed so every consumer agrees on the exact
// same ceil(2/3 * total) value.
type AVSSnapshot struct {
	SlotIndex   uint64
	Members     []AVSMember
	TotalWeight uint64
	Threshold   uint64
}

// WeightOf returns id's weight in the snapshot, or (0, false) if absent.
func (s *AVSSnapshot) WeightOf(id Address) (uint64, bool) {
	for _, m := range s.Members {
		if m.ID == id {
			return m.Weight, true
		}
	}
	return 0, false
}

// Thresholds are always ceil(2/3 * total), fixed per the finality-threshold
// open question: the spec resolves the source's majority/supermajority
// inconsistency in favor of 2/3 everywhere.
func ThresholdOf(totalWeight uint64) uint64 {
	return (totalWeight*2 + 2) / 3
}

// FinalityVote is one validator's attestation that txid reached global
// finality at slotIndex, scoped to that slot to prevent cross-epoch replay.
type FinalityVote struct {
	ChainID   ids.ID
	TxID      ids.ID
	SlotIndex uint64
	Voter     Address
	Weight    uint64
	Sig       Signature
}

// VFP (Verifiable Finality Proof) aggregates enough FinalityVotes to prove
// txid cleared the AVS threshold at SlotIndex.
type VFP struct {
	TxID      ids.ID
	SlotIndex uint64
	Votes     []FinalityVote
}

// TotalWeight sums the weight carried by the proof's votes.
func (v *VFP) TotalWeight() uint64 {
	var total uint64
	for _, vote := range v.Votes {
		total += vote.Weight
	}
	return total
}

// BlockHeader is the hashed, signed portion of a block.
type BlockHeader struct {
	Version     uint32
	Height      uint64
	PrevHash    ids.ID
	MerkleRoot  ids.ID
	SlotIndex   uint64
	Proposer    Address
	TimestampMS int64
	VRFProof    []byte
	Reward      uint64
}

// Block is a finalized slot's header plus the finalized txids it includes.
type Block struct {
	Header    BlockHeader
	TxIDs     []ids.ID
	BlockHash ids.ID
}

// FinalityCertificate is the set of PrecommitVotes that cleared threshold
// for a block, carried alongside it in the chain store.
type FinalityCertificate struct {
	BlockHash ids.ID
	Votes     []PrecommitVote
}

// TotalWeight sums the weight carried by the certificate's precommits.
func (c *FinalityCertificate) TotalWeight() uint64 {
	var total uint64
	for _, v := range c.Votes {
		total += v.Weight
	}
	return total
}

// PrepareVote and PrecommitVote are the two rounds of TSDC's per-block BFT
// commit protocol.
type PrepareVote struct {
	BlockHash ids.ID
	Voter     Address
	Weight    uint64
	Sig       Signature
}

type PrecommitVote struct {
	BlockHash ids.ID
	Voter     Address
	Weight    uint64
	Sig       Signature
}
