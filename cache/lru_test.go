// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cache

import (
	"testing"

	"github.com/timecoin-project/timecoin/ids"
)

func TestLRUEvictsOldest(t *testing.T) {
	c := &LRU{Size: 2}
	a, b, d := ids.ID{1}, ids.ID{2}, ids.ID{3}

	c.Put(a, "a")
	c.Put(b, "b")
	c.Put(d, "d") // evicts a, the least recently used

	if _, ok := c.Get(a); ok {
		t.Fatalf("expected a to be evicted")
	}
	if v, ok := c.Get(b); !ok || v != "b" {
		t.Fatalf("expected b to remain cached")
	}
	if v, ok := c.Get(d); !ok || v != "d" {
		t.Fatalf("expected d to remain cached")
	}
}

func TestLRUTouchUpdatesRecency(t *testing.T) {
	c := &LRU{Size: 2}
	a, b, d := ids.ID{1}, ids.ID{2}, ids.ID{3}

	c.Put(a, "a")
	c.Put(b, "b")
	c.Get(a) // touch a, making b the least recently used
	c.Put(d, "d")

	if _, ok := c.Get(b); ok {
		t.Fatalf("expected b to be evicted")
	}
	if _, ok := c.Get(a); !ok {
		t.Fatalf("expected a to remain cached")
	}
}
