// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package notifier

import (
	"testing"

	"github.com/timecoin-project/timecoin/core"
	"github.com/timecoin-project/timecoin/ids"
)

func TestSubscribeReceivesEvent(t *testing.T) {
	n := New(4)
	ch, unsub := n.Subscribe()
	defer unsub()

	n.PublishTx(ids.ID{1}, core.LocallyAccepted)

	select {
	case ev := <-ch:
		if ev.Kind != TxEvent || ev.TxStatus != core.LocallyAccepted {
			t.Fatalf("unexpected event: %+v", ev)
		}
	default:
		t.Fatalf("expected an event to be queued")
	}
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	n := New(1)
	ch, _ := n.Subscribe()

	n.PublishTx(ids.ID{1}, core.Pending)
	n.PublishTx(ids.ID{2}, core.Pending) // queue full: this subscriber gets dropped

	if n.DroppedSubscribers() != 1 {
		t.Fatalf("expected 1 dropped subscriber, got %d", n.DroppedSubscribers())
	}
	if _, ok := <-ch; !ok {
		t.Fatalf("expected to still drain the first queued event")
	}
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed after drop")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	n := New(4)
	ch, unsub := n.Subscribe()
	unsub()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed after unsubscribe")
	}
}
