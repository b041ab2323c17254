// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package utxo implements C1: the outpoint -> UTXO state map with atomic
// multi-key locking. It mirrors the teacher's vms/avm UTXO bookkeeping
// (SpendUTXO/FundUTXO against a database.Database) but generalizes the
// single-shot spend into the three-state lifecycle (Unspent, SpentPending,
// SpentFinalized) a two-phase consensus pipeline needs: a tx's inputs are
// provisionally locked the moment Avalanche sampling begins, and only
// become permanently spent once TSDC finalizes the block that includes it.
package utxo

import (
	"encoding/binary"
	"sort"
	"sync"

	"github.com/timecoin-project/timecoin/core"
	"github.com/timecoin-project/timecoin/database"
	"github.com/timecoin-project/timecoin/ids"
	"github.com/timecoin-project/timecoin/notifier"
)

var keyPrefix = []byte("utxo/")

// lockStripes is the fixed size of Store's outpoint lock table. A fixed
// array rather than a map keyed by every outpoint ever touched bounds the
// table's memory to a constant regardless of how many UTXOs the store has
// ever held; two outpoints landing on the same stripe merely serialize
// against each other, which is correct, just occasionally more
// conservative than per-outpoint locking would be.
const lockStripes = 256

// Store owns every UTXO for its entire lifetime. Multi-outpoint operations
// (TryLockAll, Unlock, Finalize) acquire the outpoints' stripe locks in
// ascending stripe order, which is what makes concurrent lock attempts on
// overlapping input sets deadlock-free and gives deterministic
// first-lock-wins conflict resolution.
type Store struct {
	db       database.Database
	notifier *notifier.Notifier

	locks [lockStripes]sync.Mutex

	cache sync.Map // core.OutPoint -> *core.UTXO, write-through over db
}

// New constructs a Store persisting into db. notif may be nil if no one
// needs per-outpoint notifications (e.g. in isolated unit tests).
func New(db database.Database, notif *notifier.Notifier) *Store {
	return &Store{db: db, notifier: notif}
}

// stripeOf maps an outpoint onto its lock stripe. TxID is already a
// uniformly-distributed hash, so its leading bytes serve directly as a
// stripe selector without hashing again.
func stripeOf(o core.OutPoint) int {
	b := o.TxID.Bytes()
	h := binary.LittleEndian.Uint32(b[:4]) ^ o.Vout
	return int(h % lockStripes)
}

func (s *Store) lockFor(o core.OutPoint) *sync.Mutex {
	return &s.locks[stripeOf(o)]
}

// stripesFor returns the distinct stripe locks covering outs, in ascending
// stripe order, so TryLockAll/Unlock/Finalize never acquire the same
// stripe twice and always lock in the same global order regardless of
// which outpoints happen to collide.
func (s *Store) stripesFor(outs []core.OutPoint) []*sync.Mutex {
	seen := make(map[int]struct{}, len(outs))
	var idx []int
	for _, o := range outs {
		si := stripeOf(o)
		if _, ok := seen[si]; !ok {
			seen[si] = struct{}{}
			idx = append(idx, si)
		}
	}
	sort.Ints(idx)
	locks := make([]*sync.Mutex, len(idx))
	for i, si := range idx {
		locks[i] = &s.locks[si]
	}
	return locks
}

func outpointKey(o core.OutPoint) []byte {
	k := make([]byte, 0, len(keyPrefix)+36)
	k = append(k, keyPrefix...)
	k = append(k, o.TxID.Bytes()...)
	k = append(k, byte(o.Vout), byte(o.Vout>>8), byte(o.Vout>>16), byte(o.Vout>>24))
	return k
}

// Insert adds a new Unspent UTXO, failing with core.ErrAlreadyExists if the
// outpoint is already present.
func (s *Store) Insert(u *core.UTXO) error {
	lock := s.lockFor(u.OutPoint)
	lock.Lock()
	defer lock.Unlock()

	if _, ok := s.get(u.OutPoint); ok {
		return core.ErrAlreadyExists
	}
	cp := *u
	cp.State = core.Unspent
	return s.put(&cp)
}

// Get returns the UTXO at outpoint, if any.
func (s *Store) Get(outpoint core.OutPoint) (*core.UTXO, bool) {
	lock := s.lockFor(outpoint)
	lock.Lock()
	defer lock.Unlock()
	return s.get(outpoint)
}

func (s *Store) get(outpoint core.OutPoint) (*core.UTXO, bool) {
	if v, ok := s.cache.Load(outpoint); ok {
		u := v.(*core.UTXO)
		cp := *u
		return &cp, true
	}
	raw, err := s.db.Get(outpointKey(outpoint))
	if err != nil {
		return nil, false
	}
	u, err := decodeUTXO(raw)
	if err != nil {
		return nil, false
	}
	s.cache.Store(outpoint, u)
	return u, true
}

func (s *Store) put(u *core.UTXO) error {
	if err := s.db.Put(outpointKey(u.OutPoint), encodeUTXO(u)); err != nil {
		return &core.StorageError{Op: "utxo.put", Err: err}
	}
	cp := *u
	s.cache.Store(u.OutPoint, &cp)
	return nil
}

// sortedOutpoints returns outpoints sorted in outpoint-byte-lex order, the
// order every multi-key operation below checks and updates them in; the
// locks themselves are taken in ascending stripe order (see stripesFor).
func sortedOutpoints(outs []core.OutPoint) []core.OutPoint {
	sorted := make([]core.OutPoint, len(outs))
	copy(sorted, outs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })
	return sorted
}

// TryLockAll atomically transitions every input of tx from Unspent to
// SpentPending(tx.TxID). If any input is missing or already SpentPending
// (or SpentFinalized) by a different tx, no state changes at all. Calling
// it again for a tx that already holds the lock is a no-op (RT2).
func (s *Store) TryLockAll(tx *core.Transaction) error {
	inputs := sortedOutpoints(tx.Inputs)

	locks := s.stripesFor(inputs)
	for _, l := range locks {
		l.Lock()
	}
	defer func() {
		for _, l := range locks {
			l.Unlock()
		}
	}()

	// First pass: verify every input can be locked before mutating any of
	// them, so a failure never leaves a partial lock behind.
	for _, o := range inputs {
		u, ok := s.get(o)
		if !ok {
			return core.NewValidationError("input %s does not exist", o)
		}
		switch u.State {
		case core.Unspent:
		case core.SpentPending:
			if u.SpendingTx != tx.TxID {
				return &core.ConflictError{Outpoint: o}
			}
		case core.SpentFinalized:
			return &core.ConflictError{Outpoint: o}
		}
	}

	for _, o := range inputs {
		u, _ := s.get(o)
		if u.State == core.SpentPending {
			continue // idempotent: already locked by this same tx
		}
		u.State = core.SpentPending
		u.SpendingTx = tx.TxID
		if err := s.put(u); err != nil {
			return err
		}
		if s.notifier != nil {
			s.notifier.PublishOutpoint(o, u.State)
		}
	}
	return nil
}

// Unlock reverts every input currently SpentPending(tx.TxID) back to
// Unspent. Inputs locked by a different tx, or already finalized, are left
// untouched.
func (s *Store) Unlock(tx *core.Transaction) error {
	inputs := sortedOutpoints(tx.Inputs)
	locks := s.stripesFor(inputs)
	for _, l := range locks {
		l.Lock()
	}
	defer func() {
		for _, l := range locks {
			l.Unlock()
		}
	}()

	for _, o := range inputs {
		u, ok := s.get(o)
		if !ok || u.State != core.SpentPending || u.SpendingTx != tx.TxID {
			continue
		}
		u.State = core.Unspent
		u.SpendingTx = ids.Empty
		if err := s.put(u); err != nil {
			return err
		}
		if s.notifier != nil {
			s.notifier.PublishOutpoint(o, u.State)
		}
	}
	return nil
}

// Finalize transitions tx's inputs to SpentFinalized and materializes its
// outputs as new Unspent UTXOs at atHeight. Must be called exactly once
// per tx, after TSDC has finalized the block that includes it.
func (s *Store) Finalize(tx *core.Transaction, atHeight uint64) error {
	inputs := sortedOutpoints(tx.Inputs)
	locks := s.stripesFor(inputs)
	for _, l := range locks {
		l.Lock()
	}
	defer func() {
		for _, l := range locks {
			l.Unlock()
		}
	}()

	for _, o := range inputs {
		u, ok := s.get(o)
		if !ok {
			return &core.FatalInvariantError{Reason: "finalize: input vanished: " + o.String()}
		}
		if u.State == core.SpentFinalized {
			if u.SpendingTx == tx.TxID {
				continue // already finalized by a previous, crash-interrupted attempt
			}
			return &core.FatalInvariantError{Reason: "finalize: outpoint already finalized by another tx: " + o.String()}
		}
		u.State = core.SpentFinalized
		u.SpendingTx = tx.TxID
		if err := s.put(u); err != nil {
			return err
		}
		if s.notifier != nil {
			s.notifier.PublishOutpoint(o, u.State)
		}
	}

	for vout, out := range tx.Outputs {
		newOutpoint := core.OutPoint{TxID: tx.TxID, Vout: uint32(vout)}
		u := &core.UTXO{
			OutPoint:        newOutpoint,
			Amount:          out.Amount,
			Owner:           out.Address,
			CreatedAtHeight: atHeight,
			State:           core.Unspent,
		}
		if err := s.put(u); err != nil {
			return err
		}
		if s.notifier != nil {
			s.notifier.PublishOutpoint(newOutpoint, core.Unspent)
		}
	}
	return nil
}

// Replay iterates every persisted UTXO in key order, invoking cb for each;
// used on startup to rebuild the in-memory cache and validator-facing
// indices from the on-disk state after a crash. Per §4.1's failure model,
// SpentPending entries observed here are transient and the caller (node
// startup) is responsible for re-queuing their owning transactions rather
// than trusting the pending state itself.
func (s *Store) Replay(cb func(*core.UTXO)) error {
	it := s.db.NewIteratorWithPrefix(keyPrefix)
	defer it.Release()
	for it.Next() {
		u, err := decodeUTXO(it.Value())
		if err != nil {
			return &core.StorageError{Op: "utxo.replay", Err: err}
		}
		s.cache.Store(u.OutPoint, u)
		cb(u)
	}
	return it.Error()
}
