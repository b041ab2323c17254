// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package loopback

import (
	"context"
	"testing"

	"github.com/timecoin-project/timecoin/core"
	"github.com/timecoin-project/timecoin/ids"
)

type fixedVoteSource struct {
	pref     bool
	tracking bool
}

func (f fixedVoteSource) LocalPreference(ids.ID) (bool, bool) { return f.pref, f.tracking }

func TestRequestVotesCollectsRegisteredPeers(t *testing.T) {
	hub := New()
	hub.Register("v1", &Peer{Votes: fixedVoteSource{pref: true, tracking: true}})
	hub.Register("v2", &Peer{Votes: fixedVoteSource{pref: false, tracking: true}})

	bcast := hub.For("self")
	ch, err := bcast.RequestVotes(context.Background(), []core.Address{"v1", "v2", "ghost"}, ids.ID{0x01})
	if err != nil {
		t.Fatalf("RequestVotes: %v", err)
	}

	got := make(map[core.Address]core.VoteResponse)
	for resp := range ch {
		got[resp.Voter] = resp
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 responses, got %d", len(got))
	}
	if !got["v1"].Ok || !got["v1"].Preference {
		t.Fatalf("expected v1 to answer Accept, got %+v", got["v1"])
	}
	if !got["v2"].Ok || got["v2"].Preference {
		t.Fatalf("expected v2 to answer Reject, got %+v", got["v2"])
	}
	if got["ghost"].Ok {
		t.Fatalf("expected an unregistered peer to answer Ok: false")
	}
}

type countingProposalSink struct {
	received []core.Block
}

func (c *countingProposalSink) HandleProposal(_ context.Context, b *core.Block) error {
	c.received = append(c.received, *b)
	return nil
}

func TestBroadcastProposalFansOutToAllPeers(t *testing.T) {
	hub := New()
	sinkA := &countingProposalSink{}
	sinkB := &countingProposalSink{}
	hub.Register("a", &Peer{Proposals: sinkA})
	hub.Register("b", &Peer{Proposals: sinkB})

	block := core.Block{Header: core.BlockHeader{Height: 1}}
	if err := hub.For("proposer").BroadcastProposal(context.Background(), block); err != nil {
		t.Fatalf("BroadcastProposal: %v", err)
	}

	if len(sinkA.received) != 1 || len(sinkB.received) != 1 {
		t.Fatalf("expected both peers to receive the proposal, got a=%d b=%d", len(sinkA.received), len(sinkB.received))
	}
}
