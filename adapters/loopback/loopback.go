// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package loopback is an in-process core.Broadcaster, used for single-node
// operation and for integration tests that run a small cluster of
// TimeCoin components inside one process with no real peer-to-peer
// transport. It plays the role the teacher's in-process Network test
// harness (snow/consensus/snowball's benchmark tests) plays for Snowball
// alone, generalized to TimeCoin's four message kinds.
package loopback

import (
	"context"
	"sync"

	"github.com/timecoin-project/timecoin/core"
	"github.com/timecoin-project/timecoin/ids"
)

// VoteSource answers a RequestVotes poll with this peer's current local
// preference for txid, without a network round-trip.
type VoteSource interface {
	LocalPreference(txid ids.ID) (pref bool, tracking bool)
}

// ProposalSink, PrepareSink, PrecommitSink and FinalityVoteSink are the
// handler shapes a registered peer exposes for each TSDC/VFP message kind.
// *tsdc.Producer satisfies ProposalSink/PrepareSink/PrecommitSink and
// *vfp.Assembler satisfies FinalityVoteSink without either package needing
// to import this one.
type ProposalSink interface {
	HandleProposal(ctx context.Context, block *core.Block) error
}
type PrepareSink interface {
	HandlePrepareVote(ctx context.Context, vote *core.PrepareVote) error
}
type PrecommitSink interface {
	HandlePrecommitVote(ctx context.Context, vote *core.PrecommitVote) error
}
type FinalityVoteSink interface {
	AcceptVote(ctx context.Context, vote *core.FinalityVote) error
}

// Peer bundles one node's registered handlers. Any field may be nil; a nil
// handler simply does not receive that message kind (useful for a
// validator-only peer with no TSDC producer, say).
type Peer struct {
	Votes      VoteSource
	Proposals  ProposalSink
	Prepares   PrepareSink
	Precommits PrecommitSink
	Finality   FinalityVoteSink
}

// Hub fans every broadcast out to every registered peer in-process,
// standing in for a real gossip transport. Callers obtain a per-node
// core.Broadcaster view via Hub.For.
type Hub struct {
	mu    sync.RWMutex
	peers map[core.Address]*Peer
}

// New returns an empty Hub.
func New() *Hub {
	return &Hub{peers: make(map[core.Address]*Peer)}
}

// Register binds addr's handlers into the hub. Call again with an updated
// Peer to replace a prior registration.
func (h *Hub) Register(addr core.Address, p *Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.peers[addr] = p
}

// For returns a core.Broadcaster that gossips through this hub as self.
// self need not be registered via Register to use For -- an observer-only
// caller can broadcast without ever receiving anything back.
func (h *Hub) For(self core.Address) core.Broadcaster {
	return &broadcaster{hub: h, self: self}
}

type broadcaster struct {
	hub  *Hub
	self core.Address
}

func (b *broadcaster) snapshot() map[core.Address]*Peer {
	b.hub.mu.RLock()
	defer b.hub.mu.RUnlock()
	out := make(map[core.Address]*Peer, len(b.hub.peers))
	for addr, p := range b.hub.peers {
		out[addr] = p
	}
	return out
}

// RequestVotes polls every address in to for its current local preference,
// returning immediately with whatever answers are available (no simulated
// network delay); a peer not yet tracking txid answers with Ok: false.
func (b *broadcaster) RequestVotes(ctx context.Context, to []core.Address, txid ids.ID) (<-chan core.VoteResponse, error) {
	peers := b.snapshot()
	ch := make(chan core.VoteResponse, len(to))
	for _, addr := range to {
		p, ok := peers[addr]
		if !ok || p.Votes == nil {
			ch <- core.VoteResponse{Voter: addr, Ok: false}
			continue
		}
		pref, tracking := p.Votes.LocalPreference(txid)
		ch <- core.VoteResponse{Voter: addr, Preference: pref, Ok: tracking}
	}
	close(ch)
	return ch, nil
}

// GossipFinalityVote delivers vote to every registered FinalityVoteSink.
func (b *broadcaster) GossipFinalityVote(ctx context.Context, vote core.FinalityVote) error {
	for _, p := range b.snapshot() {
		if p.Finality == nil {
			continue
		}
		if err := p.Finality.AcceptVote(ctx, &vote); err != nil {
			continue // per-vote rejections never halt gossip to other peers
		}
	}
	return nil
}

// BroadcastProposal delivers block to every registered ProposalSink.
func (b *broadcaster) BroadcastProposal(ctx context.Context, block core.Block) error {
	for _, p := range b.snapshot() {
		if p.Proposals == nil {
			continue
		}
		_ = p.Proposals.HandleProposal(ctx, &block)
	}
	return nil
}

// BroadcastPrepare delivers vote to every registered PrepareSink.
func (b *broadcaster) BroadcastPrepare(ctx context.Context, vote core.PrepareVote) error {
	for _, p := range b.snapshot() {
		if p.Prepares == nil {
			continue
		}
		_ = p.Prepares.HandlePrepareVote(ctx, &vote)
	}
	return nil
}

// BroadcastPrecommit delivers vote to every registered PrecommitSink.
func (b *broadcaster) BroadcastPrecommit(ctx context.Context, vote core.PrecommitVote) error {
	for _, p := range b.snapshot() {
		if p.Precommits == nil {
			continue
		}
		_ = p.Precommits.HandlePrecommitVote(ctx, &vote)
	}
	return nil
}
