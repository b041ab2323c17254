// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package leveldbstore is the default on-disk database.Database, backed by
// syndtr/goleveldb, the same embedded store the teacher uses under every
// chain's state and vertex databases.
package leveldbstore

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/timecoin-project/timecoin/database"
)

type Database struct {
	db *leveldb.DB
}

// New opens (or creates) a LevelDB store at path.
func New(path string) (*Database, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{})
	if err != nil {
		return nil, err
	}
	return &Database{db: db}, nil
}

func (d *Database) Has(key []byte) (bool, error) {
	ok, err := d.db.Has(key, nil)
	if err != nil {
		return false, translate(err)
	}
	return ok, nil
}

func (d *Database) Get(key []byte) ([]byte, error) {
	v, err := d.db.Get(key, nil)
	if err != nil {
		return nil, translate(err)
	}
	return v, nil
}

func (d *Database) Put(key, value []byte) error {
	return translate(d.db.Put(key, value, nil))
}

func (d *Database) Delete(key []byte) error {
	return translate(d.db.Delete(key, nil))
}

func (d *Database) NewIteratorWithPrefix(prefix []byte) database.Iterator {
	return &levelIterator{it: d.db.NewIterator(util.BytesPrefix(prefix), nil)}
}

func (d *Database) NewBatch() database.Batch {
	return &levelBatch{db: d.db, batch: new(leveldb.Batch)}
}

func (d *Database) Close() error {
	return translate(d.db.Close())
}

func translate(err error) error {
	switch err {
	case nil:
		return nil
	case leveldb.ErrClosed:
		return database.ErrClosed
	case errors.ErrNotFound:
		return database.ErrNotFound
	default:
		return err
	}
}

type levelIterator struct {
	it iterator.Iterator
}

func (i *levelIterator) Next() bool    { return i.it.Next() }
func (i *levelIterator) Key() []byte   { return i.it.Key() }
func (i *levelIterator) Value() []byte { return i.it.Value() }
func (i *levelIterator) Error() error  { return translate(i.it.Error()) }
func (i *levelIterator) Release()      { i.it.Release() }

type levelBatch struct {
	db    *leveldb.DB
	batch *leveldb.Batch
}

func (b *levelBatch) Put(key, value []byte) error {
	b.batch.Put(key, value)
	return nil
}

func (b *levelBatch) Delete(key []byte) error {
	b.batch.Delete(key)
	return nil
}

func (b *levelBatch) Size() int { return b.batch.Len() }

func (b *levelBatch) Write() error {
	return translate(b.db.Write(b.batch, nil))
}

func (b *levelBatch) Reset() { b.batch.Reset() }
