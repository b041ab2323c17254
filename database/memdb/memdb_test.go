// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package memdb

import (
	"testing"

	"github.com/timecoin-project/timecoin/database"
)

func TestPutGetDelete(t *testing.T) {
	db := New()

	if ok, _ := db.Has([]byte("a")); ok {
		t.Fatalf("expected missing key to report absent")
	}
	if err := db.Put([]byte("a"), []byte("1")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	v, err := db.Get([]byte("a"))
	if err != nil || string(v) != "1" {
		t.Fatalf("unexpected get result: %v, %v", v, err)
	}
	if err := db.Delete([]byte("a")); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := db.Get([]byte("a")); err != database.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBatchIsAtomicOnWrite(t *testing.T) {
	db := New()
	b := db.NewBatch()
	b.Put([]byte("x"), []byte("1"))
	b.Put([]byte("y"), []byte("2"))

	if _, err := db.Get([]byte("x")); err != database.ErrNotFound {
		t.Fatalf("batch writes must not be visible before Write()")
	}
	if err := b.Write(); err != nil {
		t.Fatalf("batch write failed: %v", err)
	}
	if v, _ := db.Get([]byte("x")); string(v) != "1" {
		t.Fatalf("expected x=1 after batch write")
	}
	if v, _ := db.Get([]byte("y")); string(v) != "2" {
		t.Fatalf("expected y=2 after batch write")
	}
}

func TestIteratorWithPrefixOrdered(t *testing.T) {
	db := New()
	db.Put([]byte("utxo/b"), []byte("2"))
	db.Put([]byte("utxo/a"), []byte("1"))
	db.Put([]byte("other/z"), []byte("9"))

	it := db.NewIteratorWithPrefix([]byte("utxo/"))
	defer it.Release()

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	if len(keys) != 2 || keys[0] != "utxo/a" || keys[1] != "utxo/b" {
		t.Fatalf("unexpected iteration order: %v", keys)
	}
}

func TestClosedDatabaseErrors(t *testing.T) {
	db := New()
	db.Close()
	if _, err := db.Get([]byte("a")); err != database.ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
