// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package memdb is an in-memory database.Database, used by package tests
// and by the loopback node wiring so the full consensus/UTXO/chainstore
// stack can run without a real LevelDB handle.
package memdb

import (
	"sort"
	"strings"
	"sync"

	"github.com/timecoin-project/timecoin/database"
)

type Database struct {
	lock   sync.RWMutex
	data   map[string][]byte
	closed bool
}

// New returns an empty in-memory Database.
func New() *Database {
	return &Database{data: make(map[string][]byte)}
}

func (db *Database) Has(key []byte) (bool, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()
	if db.closed {
		return false, database.ErrClosed
	}
	_, ok := db.data[string(key)]
	return ok, nil
}

func (db *Database) Get(key []byte) ([]byte, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()
	if db.closed {
		return nil, database.ErrClosed
	}
	v, ok := db.data[string(key)]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

func (db *Database) Put(key, value []byte) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	if db.closed {
		return database.ErrClosed
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	db.data[string(key)] = cp
	return nil
}

func (db *Database) Delete(key []byte) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	if db.closed {
		return database.ErrClosed
	}
	delete(db.data, string(key))
	return nil
}

func (db *Database) NewIteratorWithPrefix(prefix []byte) database.Iterator {
	db.lock.RLock()
	defer db.lock.RUnlock()

	p := string(prefix)
	keys := make([]string, 0, len(db.data))
	for k := range db.data {
		if strings.HasPrefix(k, p) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	snapshot := make(map[string][]byte, len(keys))
	for _, k := range keys {
		snapshot[k] = db.data[k]
	}
	return &iterator{keys: keys, values: snapshot, idx: -1}
}

func (db *Database) NewBatch() database.Batch {
	return &batch{db: db}
}

func (db *Database) Close() error {
	db.lock.Lock()
	defer db.lock.Unlock()
	db.closed = true
	db.data = nil
	return nil
}

type iterator struct {
	keys   []string
	values map[string][]byte
	idx    int
}

func (it *iterator) Next() bool {
	it.idx++
	return it.idx < len(it.keys)
}
func (it *iterator) Key() []byte   { return []byte(it.keys[it.idx]) }
func (it *iterator) Value() []byte { return it.values[it.keys[it.idx]] }
func (it *iterator) Error() error  { return nil }
func (it *iterator) Release()      {}

type op struct {
	key, value []byte
	delete     bool
}

type batch struct {
	db  *Database
	ops []op
	sz  int
}

func (b *batch) Put(key, value []byte) error {
	b.ops = append(b.ops, op{key: key, value: value})
	b.sz += len(key) + len(value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.ops = append(b.ops, op{key: key, delete: true})
	b.sz += len(key)
	return nil
}

func (b *batch) Size() int { return b.sz }

func (b *batch) Write() error {
	b.db.lock.Lock()
	defer b.db.lock.Unlock()
	if b.db.closed {
		return database.ErrClosed
	}
	for _, o := range b.ops {
		if o.delete {
			delete(b.db.data, string(o.key))
			continue
		}
		cp := make([]byte, len(o.value))
		copy(cp, o.value)
		b.db.data[string(o.key)] = cp
	}
	return nil
}

func (b *batch) Reset() {
	b.ops = nil
	b.sz = 0
}
