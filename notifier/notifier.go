// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package notifier implements C8: publish/subscribe fan-out of UTXO, tx and
// block state transitions. Delivery is at-least-once into a bounded
// per-subscriber queue; a subscriber that falls behind is dropped rather
// than allowed to block producers, the same backpressure policy the
// teacher applies to its pubsub broadcast channel in vms/avm (t.vm.pubsub
// .Publish("accepted", txID)) generalized here to three event kinds and a
// real drop-slow-subscriber eviction instead of a single fire-and-forget
// channel send.
package notifier

import (
	"sync"

	"github.com/timecoin-project/timecoin/core"
	"github.com/timecoin-project/timecoin/ids"
)

// EventKind distinguishes the three sources of state transitions.
type EventKind uint8

const (
	OutpointEvent EventKind = iota
	TxEvent
	BlockEvent
)

// Event is one state transition delivered to subscribers.
type Event struct {
	Kind     EventKind
	Outpoint core.OutPoint
	UtxoState core.UtxoState
	TxID     ids.ID
	TxStatus core.TxStatus
	Block    *core.Block
}

const defaultQueueSize = 256

type subscriber struct {
	id    uint64
	ch    chan Event
	alive bool
}

// Notifier fans out Events to any number of registered subscribers.
type Notifier struct {
	mu        sync.Mutex
	nextID    uint64
	subs      map[uint64]*subscriber
	queueSize int
	dropped   uint64
}

// New returns a Notifier whose per-subscriber queues hold queueSize events
// before the subscriber is dropped. queueSize <= 0 uses a sane default.
func New(queueSize int) *Notifier {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Notifier{subs: make(map[uint64]*subscriber), queueSize: queueSize}
}

// Subscribe registers a new subscriber and returns its event channel and an
// unsubscribe function. The channel is closed once Unsubscribe is called or
// the subscriber is dropped for being too slow.
func (n *Notifier) Subscribe() (<-chan Event, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	sub := &subscriber{id: id, ch: make(chan Event, n.queueSize), alive: true}
	n.subs[id] = sub

	return sub.ch, func() { n.unsubscribe(id) }
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	sub, ok := n.subs[id]
	if !ok {
		return
	}
	delete(n.subs, id)
	if sub.alive {
		sub.alive = false
		close(sub.ch)
	}
}

func (n *Notifier) publish(ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, sub := range n.subs {
		if !sub.alive {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			// Queue full: drop this subscriber rather than block the
			// producer (C1/C2/C4/C5/C6 all publish from hot paths).
			sub.alive = false
			close(sub.ch)
			delete(n.subs, id)
			n.dropped++
		}
	}
}

// PublishOutpoint notifies subscribers of a UTXO state transition.
func (n *Notifier) PublishOutpoint(o core.OutPoint, state core.UtxoState) {
	n.publish(Event{Kind: OutpointEvent, Outpoint: o, UtxoState: state})
}

// PublishTx notifies subscribers of a transaction status transition.
func (n *Notifier) PublishTx(txid ids.ID, status core.TxStatus) {
	n.publish(Event{Kind: TxEvent, TxID: txid, TxStatus: status})
}

// PublishBlock notifies subscribers that a block finalized.
func (n *Notifier) PublishBlock(b *core.Block) {
	n.publish(Event{Kind: BlockEvent, Block: b})
}

// DroppedSubscribers returns the cumulative count of subscribers evicted
// for falling behind, exposed for metrics.
func (n *Notifier) DroppedSubscribers() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.dropped
}

// SubscriberCount returns the number of currently live subscribers.
func (n *Notifier) SubscriberCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}
