// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package avalanche

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/timecoin-project/timecoin/core"
	"github.com/timecoin-project/timecoin/ids"
	"github.com/timecoin-project/timecoin/snow/choices"
	"github.com/timecoin-project/timecoin/utils/logging"
	"github.com/timecoin-project/timecoin/validator"
)

// Outcome is the terminal result of a transaction's Avalanche round loop.
type Outcome int

const (
	OutcomeLocallyAccepted Outcome = iota
	OutcomeLocallyRejected
)

// txState is the per-transaction Snowball bookkeeping described in §4.4.
type txState struct {
	preference bool // true = Accept
	confidence int
	suspicion  map[core.Address]int32
	status     choices.Status

	cancel context.CancelFunc
}

// Engine drives the per-transaction Snowball loop for every transaction it
// is asked to track. Each tx gets its own long-lived goroutine so rounds
// for different txids proceed in parallel while a single tx's own rounds
// are strictly serialized, matching §5's ordering guarantee for C4.
type Engine struct {
	params   Parameters
	self     core.Address
	registry *validator.Registry
	bcast    core.Broadcaster
	log      logging.Logger
	metrics  *metrics

	onAccept func(ids.ID)
	onReject func(ids.ID, string)

	mu     sync.Mutex
	active map[ids.ID]*txState
}

// New constructs an Engine. onAccept/onReject are invoked exactly once per
// tracked tx, once the round loop reaches a terminal outcome. metricsReg may
// be nil, in which case the Engine reports no Prometheus metrics.
func New(params Parameters, self core.Address, registry *validator.Registry, bcast core.Broadcaster, log logging.Logger, metricsReg prometheus.Registerer, onAccept func(ids.ID), onReject func(ids.ID, string)) *Engine {
	if log == nil {
		log = logging.NoLog
	}
	return &Engine{
		params:   params,
		self:     self,
		registry: registry,
		bcast:    bcast,
		log:      log,
		metrics:  newMetrics(metricsReg),
		onAccept: onAccept,
		onReject: onReject,
		active:   make(map[ids.ID]*txState),
	}
}

// Track begins the round loop for txid, whose inputs have just locked
// cleanly in C1 (so its initial preference is Accept). Safe to call more
// than once for the same txid; subsequent calls are no-ops.
func (e *Engine) Track(ctx context.Context, txid ids.ID) {
	e.mu.Lock()
	if _, exists := e.active[txid]; exists {
		e.mu.Unlock()
		return
	}
	roundCtx, cancel := context.WithCancel(ctx)
	st := &txState{preference: true, suspicion: make(map[core.Address]int32), status: choices.Processing, cancel: cancel}
	e.active[txid] = st
	e.mu.Unlock()

	go e.run(roundCtx, txid, st)
}

// LocalPreference returns this node's current Snowball preference for
// txid and whether it is actively tracking that tx at all. Used by
// in-process broadcasters (adapters/loopback) to answer a peer's
// RequestVotes without a real network round-trip.
func (e *Engine) LocalPreference(txid ids.ID) (pref bool, tracking bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.active[txid]
	if !ok {
		return false, false
	}
	return st.preference, true
}

// Status returns txid's current decision lifecycle state: Unknown if this
// Engine has never tracked it, Processing while its round loop is still
// running, or Accepted/Rejected once that loop has reached a terminal
// outcome. A terminal status is only observable in the narrow window
// between accept()/reject() running and the tx's removal from active (when
// its round loop returns, or earlier via Cancel), since a decided tx is
// otherwise handed off to the caller's own onAccept/onReject callback
// rather than polled.
func (e *Engine) Status(txid ids.ID) choices.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.active[txid]
	if !ok {
		return choices.Unknown
	}
	return st.status
}

// Cancel terminates txid's round loop promptly, releasing its state. Used
// when C5 reaches global finality or an upstream conflict (C1) resolves
// the tx before local acceptance completes.
func (e *Engine) Cancel(txid ids.ID) {
	e.mu.Lock()
	st, ok := e.active[txid]
	if ok {
		delete(e.active, txid)
	}
	e.mu.Unlock()
	if ok {
		st.cancel()
	}
}

func (e *Engine) run(ctx context.Context, txid ids.ID, st *txState) {
	defer func() {
		e.mu.Lock()
		delete(e.active, txid)
		e.mu.Unlock()
	}()

	for round := 1; round <= e.params.MaxRounds; round++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		snap := e.registry.ActiveSet()
		if snap.TotalWeight == 0 || len(snap.Members) == 0 {
			e.log.Warn("avalanche: empty AVS, cannot sample for tx %s", txid)
			e.reject(txid, "empty AVS", st, round)
			return
		}

		// A single-validator AVS (bootstrap or standalone testnet) has no
		// peers to sample: this node is the entire network, so its own
		// preference trivially carries every round without a network call.
		if len(snap.Members) == 1 {
			st.confidence++
			if st.confidence >= e.params.Beta {
				e.accept(txid, st, round)
				return
			}
			continue
		}

		k := e.params.KMax
		if avail := len(snap.Members) - 1; avail < k {
			k = avail
		}
		if k < e.params.KMin {
			k = e.params.KMin
			if k > len(snap.Members)-1 {
				k = len(snap.Members) - 1
			}
		}
		if k <= 0 {
			e.log.Warn("avalanche: no peers available to sample for tx %s", txid)
			e.reject(txid, "no peers to sample", st, round)
			return
		}
		alpha := e.params.Alpha(k)

		sample := sampleValidators(snap, e.self, st.suspicion, e.params.SuspicionCap, txid, round, k)

		respCh, err := e.bcast.RequestVotes(ctx, sample, txid)
		if err != nil {
			e.log.Verbo("avalanche: round %d for tx %s: request failed: %s", round, txid, err)
			continue
		}

		nAccept, nReject := 0, 0
		responded := make(map[core.Address]bool)
		timeout := time.NewTimer(e.params.RoundTimeout)
	collect:
		for {
			select {
			case resp, ok := <-respCh:
				if !ok {
					break collect
				}
				if !resp.Ok {
					continue
				}
				responded[resp.Voter] = resp.Preference
				if resp.Preference {
					nAccept++
				} else {
					nReject++
				}
			case <-timeout.C:
				break collect
			case <-ctx.Done():
				timeout.Stop()
				return
			}
		}
		timeout.Stop()

		majority, hadQuorum := false, false
		if nAccept >= alpha {
			majority, hadQuorum = true, true
		} else if nReject >= alpha {
			majority, hadQuorum = false, true
		}

		if hadQuorum {
			for voter, pref := range responded {
				if pref == majority {
					st.suspicion[voter] = clip(st.suspicion[voter]+1, e.params.SuspicionCap)
				} else {
					st.suspicion[voter] = clip(st.suspicion[voter]-1, e.params.SuspicionCap)
				}
			}

			e.mu.Lock()
			if majority == st.preference {
				st.confidence++
			} else {
				st.preference = majority
				st.confidence = 1
			}
			e.mu.Unlock()
		}

		if st.confidence >= e.params.Beta {
			if st.preference {
				e.accept(txid, st, round)
			} else {
				e.reject(txid, "snowball converged on Reject", st, round)
			}
			return
		}

		if round == e.params.MaxRounds {
			if st.preference && st.confidence >= e.params.BetaSoft() {
				e.accept(txid, st, round)
			} else {
				e.reject(txid, "round budget exhausted without reaching beta", st, round)
			}
			return
		}
	}

	// The last round can end early on a failed request or an undecided
	// single-validator round; the round budget is spent either way, so the
	// same budget-exhausted decision applies.
	if st.preference && st.confidence >= e.params.BetaSoft() {
		e.accept(txid, st, e.params.MaxRounds)
	} else {
		e.reject(txid, "round budget exhausted without reaching beta", st, e.params.MaxRounds)
	}
}

func clip(v, cap int32) int32 {
	if v > cap {
		return cap
	}
	if v < -cap {
		return -cap
	}
	return v
}

func (e *Engine) accept(txid ids.ID, st *txState, round int) {
	e.mu.Lock()
	st.status = choices.Accepted
	e.mu.Unlock()
	e.metrics.incAccepted()
	e.metrics.observeRounds(round)
	e.log.Debug("avalanche: tx %s locally accepted", txid)
	if e.onAccept != nil {
		e.onAccept(txid)
	}
}

func (e *Engine) reject(txid ids.ID, reason string, st *txState, round int) {
	e.mu.Lock()
	st.status = choices.Rejected
	e.mu.Unlock()
	e.metrics.incRejected()
	e.metrics.observeRounds(round)
	e.log.Debug("avalanche: tx %s locally rejected: %s", txid, reason)
	if e.onReject != nil {
		e.onReject(txid, reason)
	}
}
