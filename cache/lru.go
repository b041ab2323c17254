// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package cache implements the bounded, ID-keyed LRU used to avoid refetching
// hot transactions, blocks and validator snapshots from storage on every
// consensus round. Mirrors the cache.LRU the vertex manager and chain state
// keep in front of their database.Database handles.
package cache

import (
	"container/list"
	"sync"

	"github.com/timecoin-project/timecoin/ids"
)

// LRU is a fixed-capacity, ID-keyed cache. Safe for concurrent use.
type LRU struct {
	Size int

	lock    sync.Mutex
	entries map[ids.ID]*list.Element
	order   *list.List // front = most recently used
}

type entry struct {
	key   ids.ID
	value interface{}
}

func (c *LRU) init() {
	if c.entries == nil {
		c.entries = make(map[ids.ID]*list.Element)
		c.order = list.New()
		if c.Size <= 0 {
			c.Size = 1
		}
	}
}

// Put inserts or updates key's value, evicting the least recently used entry
// if the cache is at capacity.
func (c *LRU) Put(key ids.ID, value interface{}) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.init()

	if el, ok := c.entries[key]; ok {
		el.Value.(*entry).value = value
		c.order.MoveToFront(el)
		return
	}

	el := c.order.PushFront(&entry{key: key, value: value})
	c.entries[key] = el

	for c.order.Len() > c.Size {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).key)
	}
}

// Get returns key's value and whether it was present, moving it to the
// front of the recency order on a hit.
func (c *LRU) Get(key ids.ID) (interface{}, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.init()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry).value, true
}

// Evict removes key from the cache, if present.
func (c *LRU) Evict(key ids.ID) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.init()

	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}
}

// Len returns the number of entries currently cached.
func (c *LRU) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.init()
	return c.order.Len()
}
