// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package txpool implements C2: the pending/finalized/rejected_ttl pools
// with fee-ordered eviction, generalizing the teacher's mempool-free AVM
// model (which accepts a tx as soon as it verifies) into a staged pipeline
// that tracks a tx across local acceptance and global finality.
package txpool

import (
	"container/heap"
	"sync"
	"time"

	"github.com/timecoin-project/timecoin/core"
	"github.com/timecoin-project/timecoin/ids"
	"github.com/timecoin-project/timecoin/notifier"
)

const rejectedTTL = time.Hour

// Config bounds pool growth.
type Config struct {
	MaxPoolBytes int64
	MaxPoolCount int
}

// DefaultConfig matches the §6 defaults.
func DefaultConfig() Config {
	return Config{MaxPoolBytes: 300 * 1024 * 1024, MaxPoolCount: 10_000}
}

type entry struct {
	tx        *core.Transaction
	status    core.TxStatus
	vfp       *core.VFP
	sizeBytes int64
	feePerByte float64
	heapIndex int
}

type rejected struct {
	reason    string
	expiresAt time.Time
}

// Pool holds every transaction from submission through finalization or
// rejection. A txid is present in at most one of pending/finalized/
// rejected_ttl at any instant (IP8).
type Pool struct {
	cfg      Config
	notifier *notifier.Notifier
	now      func() time.Time

	mu         sync.Mutex
	pending    map[ids.ID]*entry
	finalized  map[ids.ID]*entry
	rejectedSet map[ids.ID]rejected
	evictHeap  evictionHeap

	totalBytes int64
}

// New constructs an empty Pool. notif may be nil.
func New(cfg Config, notif *notifier.Notifier) *Pool {
	return &Pool{
		cfg:         cfg,
		notifier:    notif,
		now:         time.Now,
		pending:     make(map[ids.ID]*entry),
		finalized:   make(map[ids.ID]*entry),
		rejectedSet: make(map[ids.ID]rejected),
	}
}

// AddPending validates and admits tx into the pending pool, evicting the
// lowest fee-per-byte Pending entries if necessary to make room. Returns an
// error if tx is structurally invalid, already present anywhere, recently
// rejected, or the pool remains saturated even after eviction.
func (p *Pool) AddPending(tx *core.Transaction) error {
	if err := core.ValidateStructure(tx); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.pending[tx.TxID]; ok {
		return core.NewValidationError("duplicate pending tx %s", tx.TxID)
	}
	if _, ok := p.finalized[tx.TxID]; ok {
		return core.NewValidationError("tx %s already finalized", tx.TxID)
	}
	if r, ok := p.rejectedSet[tx.TxID]; ok && p.now().Before(r.expiresAt) {
		return core.NewValidationError("tx %s was rejected recently: %s", tx.TxID, r.reason)
	}

	raw := core.SerializeTx(tx, true)
	size := int64(len(raw))
	fpb := 0.0
	if size > 0 {
		fpb = float64(tx.Fee) / float64(size)
	}
	e := &entry{tx: tx, status: core.Pending, sizeBytes: size, feePerByte: fpb}

	p.makeRoom(size)
	if p.totalBytes+size > p.cfg.MaxPoolBytes || len(p.pending) >= p.cfg.MaxPoolCount {
		return core.NewValidationError("pool saturated: cannot admit %s", tx.TxID)
	}

	p.pending[tx.TxID] = e
	heap.Push(&p.evictHeap, e)
	p.totalBytes += size

	if p.notifier != nil {
		p.notifier.PublishTx(tx.TxID, core.Pending)
	}
	return nil
}

// makeRoom evicts the lowest fee-per-byte Pending entries until there is
// room for an incoming transaction of the given size, or nothing left to
// evict. LocallyAccepted+ entries are never evicted: they may still sit in
// the eviction heap, but are popped and skipped as stale.
func (p *Pool) makeRoom(incoming int64) {
	for (p.totalBytes+incoming > p.cfg.MaxPoolBytes || len(p.pending) >= p.cfg.MaxPoolCount) && p.evictHeap.Len() > 0 {
		victim := heap.Pop(&p.evictHeap).(*entry)
		if victim.status != core.Pending {
			continue // already transitioned; stale heap entry, skip
		}
		delete(p.pending, victim.tx.TxID)
		p.totalBytes -= victim.sizeBytes
	}
}

// MarkLocallyAccepted transitions txid from pending to LocallyAccepted. Its
// heap entry stays in place; makeRoom skips it, so it can never be evicted.
func (p *Pool) MarkLocallyAccepted(txid ids.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.pending[txid]
	if !ok {
		return core.NewValidationError("tx %s is not pending", txid)
	}
	e.status = core.LocallyAccepted
	if p.notifier != nil {
		p.notifier.PublishTx(txid, core.LocallyAccepted)
	}
	return nil
}

// MarkGloballyFinalized moves txid from pending into the finalized pool,
// attaching its VFP.
func (p *Pool) MarkGloballyFinalized(txid ids.ID, vfp *core.VFP) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.pending[txid]
	if !ok {
		return core.NewValidationError("tx %s is not pending", txid)
	}
	delete(p.pending, txid)
	p.totalBytes -= e.sizeBytes
	e.status = core.GloballyFinalized
	e.vfp = vfp
	p.finalized[txid] = e

	if p.notifier != nil {
		p.notifier.PublishTx(txid, core.GloballyFinalized)
	}
	return nil
}

// Reject removes txid from pending and records it in rejected_ttl for one
// hour, so a resubmission attempt is cheaply refused without re-validating.
func (p *Pool) Reject(txid ids.ID, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.pending[txid]
	if !ok {
		return core.NewValidationError("tx %s is not pending", txid)
	}
	delete(p.pending, txid)
	p.totalBytes -= e.sizeBytes
	e.status = core.Rejected // marks its eviction-heap entry stale
	p.rejectedSet[txid] = rejected{reason: reason, expiresAt: p.now().Add(rejectedTTL)}

	if p.notifier != nil {
		p.notifier.PublishTx(txid, core.Rejected)
	}
	return nil
}

// DrainFinalized atomically removes and returns every finalized tx, for C6
// to pack into a slot block. Idempotent: a second call with no new
// finalizations returns an empty slice.
func (p *Pool) DrainFinalized() []*core.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*core.Transaction, 0, len(p.finalized))
	for txid, e := range p.finalized {
		out = append(out, e.tx)
		delete(p.finalized, txid)
	}
	return out
}

// ExpireRejected sweeps rejected_ttl entries whose expiry has passed. Meant
// to be called periodically (e.g. once per slot) by the node orchestrator.
func (p *Pool) ExpireRejected() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	for txid, r := range p.rejectedSet {
		if !now.Before(r.expiresAt) {
			delete(p.rejectedSet, txid)
		}
	}
}

// Peek returns the transaction for txid without removing it from whichever
// pool currently holds it, for callers (the node's local-rejection path)
// that need the tx body for a txid they only know by reference.
func (p *Pool) Peek(txid ids.ID) (*core.Transaction, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.finalized[txid]; ok {
		return e.tx, true
	}
	if e, ok := p.pending[txid]; ok {
		return e.tx, true
	}
	return nil, false
}

// FinalizedEntry returns txid's transaction and attached VFP, but only if
// txid has reached GloballyFinalized. Callers that must not accept a tx on
// the strength of mere pool presence (C6's proposal validation) use this
// instead of Peek, since Peek also matches a still-Pending entry with no
// VFP at all.
func (p *Pool) FinalizedEntry(txid ids.ID) (*core.Transaction, *core.VFP, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.finalized[txid]
	if !ok {
		return nil, nil, false
	}
	return e.tx, e.vfp, true
}

// Status returns txid's current status and whether it's tracked at all.
func (p *Pool) Status(txid ids.ID) (core.TxStatus, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.pending[txid]; ok {
		return e.status, true
	}
	if _, ok := p.finalized[txid]; ok {
		return core.GloballyFinalized, true
	}
	if _, ok := p.rejectedSet[txid]; ok {
		return core.Rejected, true
	}
	return core.Pending, false
}

// Counts returns the current pending count and byte total, for metrics and
// invariant checks (byte/count totals equal the sum of present entries).
func (p *Pool) Counts() (count int, bytes int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending), p.totalBytes
}
