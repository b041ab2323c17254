// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package avalanche

import (
	"context"
	"testing"
	"time"

	"github.com/timecoin-project/timecoin/core"
	"github.com/timecoin-project/timecoin/ids"
	"github.com/timecoin-project/timecoin/validator"
)

// fakeBroadcaster answers every vote request with a fixed preference from
// every requested peer, simulating a fully cooperative (or fully hostile)
// network without any real transport.
type fakeBroadcaster struct {
	preference bool
}

func (f *fakeBroadcaster) RequestVotes(ctx context.Context, to []core.Address, txid ids.ID) (<-chan core.VoteResponse, error) {
	ch := make(chan core.VoteResponse, len(to))
	for _, voter := range to {
		ch <- core.VoteResponse{Voter: voter, Preference: f.preference, Ok: true}
	}
	close(ch)
	return ch, nil
}
func (f *fakeBroadcaster) GossipFinalityVote(context.Context, core.FinalityVote) error { return nil }
func (f *fakeBroadcaster) BroadcastProposal(context.Context, core.Block) error         { return nil }
func (f *fakeBroadcaster) BroadcastPrepare(context.Context, core.PrepareVote) error     { return nil }
func (f *fakeBroadcaster) BroadcastPrecommit(context.Context, core.PrecommitVote) error { return nil }

func fiveValidators() []core.Validator {
	var out []core.Validator
	for _, id := range []core.Address{"self", "v1", "v2", "v3", "v4"} {
		out = append(out, core.Validator{ID: id, StakeWeight: 100, Tier: core.TierGold})
	}
	return out
}

func TestEngineLocallyAcceptsOnUnanimousAccept(t *testing.T) {
	reg := validator.New(fiveValidators())
	params := DefaultParameters()
	params.RoundTimeout = 50 * time.Millisecond
	params.Beta = 3
	params.KMin, params.KMax = 2, 4

	accepted := make(chan ids.ID, 1)
	e := New(params, "self", reg, &fakeBroadcaster{preference: true}, nil, nil,
		func(txid ids.ID) { accepted <- txid },
		func(ids.ID, string) { t.Fatalf("should not reject") },
	)

	txid := ids.ID{0x42}
	e.Track(context.Background(), txid)

	select {
	case got := <-accepted:
		if got != txid {
			t.Fatalf("unexpected accepted txid: %v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for local acceptance")
	}
}

func TestEngineLocallyRejectsOnUnanimousReject(t *testing.T) {
	reg := validator.New(fiveValidators())
	params := DefaultParameters()
	params.RoundTimeout = 50 * time.Millisecond
	params.Beta = 3
	params.KMin, params.KMax = 2, 4

	rejected := make(chan string, 1)
	e := New(params, "self", reg, &fakeBroadcaster{preference: false}, nil, nil,
		func(ids.ID) { t.Fatalf("should not accept") },
		func(txid ids.ID, reason string) { rejected <- reason },
	)

	e.Track(context.Background(), ids.ID{0x43})

	select {
	case <-rejected:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for local rejection")
	}
}

func TestEngineRejectsOnEmptyAVS(t *testing.T) {
	reg := validator.New(nil)
	params := DefaultParameters()

	rejected := make(chan string, 1)
	e := New(params, "self", reg, &fakeBroadcaster{preference: true}, nil, nil,
		func(ids.ID) { t.Fatalf("should not accept with an empty AVS") },
		func(txid ids.ID, reason string) { rejected <- reason },
	)

	e.Track(context.Background(), ids.ID{0x44})

	select {
	case <-rejected:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for empty-AVS rejection")
	}
}
