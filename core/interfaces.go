// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package core

import (
	"context"

	"github.com/timecoin-project/timecoin/ids"
)

// SignatureOracle is the capability interface every signing/verification
// call in the core routes through. It's deliberately narrow: core code
// never touches a private key type or a curve directly, so the reference
// secp256k1 adapter (adapters/secp256k1oracle) can be swapped for an HSM-
// backed one without touching consensus code. Implementations are CPU-heavy
// and must be safe to call from a blocking worker pool.
type SignatureOracle interface {
	Sign(ctx context.Context, priv PrivateKey, msg []byte) (Signature, error)
	Verify(ctx context.Context, pub PubKey, msg []byte, sig Signature) bool
}

// PrivateKey is an opaque signing key handle; its concrete representation
// is owned by whichever SignatureOracle adapter is wired in.
type PrivateKey []byte

// VoteResponse is one peer's answer to a VoteRequest during an Avalanche
// sampling round.
type VoteResponse struct {
	Voter      Address
	Preference bool // true = Accept, false = Reject
	Ok         bool // false if the peer did not respond in time
}

// Broadcaster is the capability interface for every outbound network
// action the core needs: Avalanche vote-requests, VFP gossip, and TSDC's
// proposal/prepare/precommit broadcasts. A real implementation sits behind
// the (out-of-scope) peer-to-peer transport; adapters/loopback gives an
// in-process implementation for tests and single-node operation.
type Broadcaster interface {
	RequestVotes(ctx context.Context, to []Address, txid ids.ID) (<-chan VoteResponse, error)
	GossipFinalityVote(ctx context.Context, vote FinalityVote) error
	BroadcastProposal(ctx context.Context, block Block) error
	BroadcastPrepare(ctx context.Context, vote PrepareVote) error
	BroadcastPrecommit(ctx context.Context, vote PrecommitVote) error
}
