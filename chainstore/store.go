// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package chainstore implements C7: the append-only finalized block log
// with O(1) tip lookup and O(log n) height/hash lookup, grounded in the
// teacher's snow/engine/avalanche/state.state (Vertex/SetVertex/Status/
// SetStatus/Edge/SetEdge over a wrappers.Packer-keyed database.Database),
// generalized from per-vertex status tracking to a height-indexed block
// log with an in-memory index rebuilt by Replay on startup.
package chainstore

import (
	"encoding/binary"
	"sync"

	"github.com/timecoin-project/timecoin/core"
	"github.com/timecoin-project/timecoin/database"
	"github.com/timecoin-project/timecoin/ids"
	"github.com/timecoin-project/timecoin/utils/wrappers"
)

var (
	blockPrefix = []byte("blocks/")
	tipKey      = []byte("meta/tip")
)

// Store is the append-only, height-ordered finalized block log.
type Store struct {
	db database.Database

	mu        sync.RWMutex
	byHeight  map[uint64]*record
	byHash    map[ids.ID]*record
	tipHeight uint64
	hasTip    bool
}

type record struct {
	block *core.Block
	cert  *core.FinalityCertificate
}

// New constructs a Store persisting into db. Call Replay on startup before
// serving any reads.
func New(db database.Database) *Store {
	return &Store{db: db, byHeight: make(map[uint64]*record), byHash: make(map[ids.ID]*record)}
}

// heightKey encodes h big-endian (unlike Packer's little-endian integers)
// so the database's byte-wise key order is height order for Replay.
func heightKey(h uint64) []byte {
	k := make([]byte, len(blockPrefix)+wrappers.LongLen)
	copy(k, blockPrefix)
	binary.BigEndian.PutUint64(k[len(blockPrefix):], h)
	return k
}

// Append atomically persists block and its finality certificate and
// advances the tip. Heights must be contiguous from genesis (IP3/IP4):
// Append refuses to write a height that isn't exactly current tip + 1 (or
// 0, for genesis).
func (s *Store) Append(block *core.Block, cert *core.FinalityCertificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wantHeight := uint64(0)
	if s.hasTip {
		wantHeight = s.tipHeight + 1
	}
	if block.Header.Height != wantHeight {
		return &core.FatalInvariantError{Reason: "chainstore: non-contiguous height append"}
	}
	if wantHeight > 0 {
		prev, ok := s.byHeight[wantHeight-1]
		if !ok || prev.block.BlockHash != block.Header.PrevHash {
			return &core.FatalInvariantError{Reason: "chainstore: block does not link to previous tip"}
		}
	}

	p := wrappers.Packer{}
	encodeBlock(&p, block)
	encodeCert(&p, cert)

	batch := s.db.NewBatch()
	if err := batch.Put(heightKey(block.Header.Height), p.Bytes); err != nil {
		return &core.StorageError{Op: "chainstore.append", Err: err}
	}
	if err := batch.Put(tipKey, encodeTip(block.Header.Height, block.BlockHash)); err != nil {
		return &core.StorageError{Op: "chainstore.append", Err: err}
	}
	if err := batch.Write(); err != nil {
		return &core.StorageError{Op: "chainstore.append", Err: err}
	}

	rec := &record{block: block, cert: cert}
	s.byHeight[block.Header.Height] = rec
	s.byHash[block.BlockHash] = rec
	s.tipHeight = block.Header.Height
	s.hasTip = true
	return nil
}

// GetByHeight returns the block and certificate at height h, if present.
func (s *Store) GetByHeight(h uint64) (*core.Block, *core.FinalityCertificate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byHeight[h]
	if !ok {
		return nil, nil, false
	}
	return r.block, r.cert, true
}

// GetByHash returns the block and certificate with the given hash, if
// present.
func (s *Store) GetByHash(hash ids.ID) (*core.Block, *core.FinalityCertificate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byHash[hash]
	if !ok {
		return nil, nil, false
	}
	return r.block, r.cert, true
}

// Tip returns the chain's terminal block, if any has been appended.
func (s *Store) Tip() (*core.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasTip {
		return nil, false
	}
	return s.byHeight[s.tipHeight].block, true
}

// TipHeight returns the current tip's height; only meaningful if Tip()'s
// second return is true.
func (s *Store) TipHeight() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tipHeight
}

// Replay iterates persisted blocks in height order, invoking cb for each
// and rebuilding the in-memory height/hash indices. cb may be nil. This
// package only rebuilds its own index; the node orchestrator passes a nil
// cb and restores C1 from the UTXO store's own persisted records.
func (s *Store) Replay(cb func(*core.Block, *core.FinalityCertificate)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it := s.db.NewIteratorWithPrefix(blockPrefix)
	defer it.Release()

	var maxHeight uint64
	any := false
	for it.Next() {
		block, cert, err := decodeBlockRecord(it.Value())
		if err != nil {
			return &core.StorageError{Op: "chainstore.replay", Err: err}
		}
		rec := &record{block: block, cert: cert}
		s.byHeight[block.Header.Height] = rec
		s.byHash[block.BlockHash] = rec
		if block.Header.Height >= maxHeight || !any {
			maxHeight = block.Header.Height
			any = true
		}
		if cb != nil {
			cb(block, cert)
		}
	}
	if any {
		s.tipHeight = maxHeight
		s.hasTip = true
	}
	return it.Error()
}
