// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package database defines the narrow key/value storage interface every
// persisted component (utxo, chainstore, validator) depends on, so the
// actual backend (in-memory for tests, LevelDB in adapters/leveldbstore)
// stays swappable behind it, the same way the teacher's snow/engine state
// packages only ever depend on database.Database and never on goleveldb
// directly.
package database

import "errors"

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("database: not found")

// ErrClosed is returned by any operation on a database that has been closed.
var ErrClosed = errors.New("database: closed")

// KeyValueReader reads keys.
type KeyValueReader interface {
	Has(key []byte) (bool, error)
	Get(key []byte) ([]byte, error)
}

// KeyValueWriter writes and deletes keys.
type KeyValueWriter interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

// Iteratee produces an Iterator over keys sharing prefix.
type Iteratee interface {
	NewIteratorWithPrefix(prefix []byte) Iterator
}

// Iterator walks a key range in ascending key order.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Release()
}

// Batch buffers a set of writes to be applied atomically.
type Batch interface {
	KeyValueWriter
	Size() int
	Write() error
	Reset()
}

// Database is the full storage surface: point reads/writes, atomic batches,
// prefix iteration, and lifecycle management.
type Database interface {
	KeyValueReader
	KeyValueWriter
	Iteratee

	NewBatch() Batch
	Close() error
}
