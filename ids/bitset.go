// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ids

import "math/bits"

// BitSet is a fixed-width bitset used to track, per-ID, which sampled voters
// (indexed 0..63) contributed a vote. 64 bits comfortably covers K_MAX (20)
// oversampled rounds with room for retries.
type BitSet uint64

// Add sets bit i.
func (b *BitSet) Add(i uint) { *b |= BitSet(1) << i }

// Remove clears bit i.
func (b *BitSet) Remove(i uint) { *b &^= BitSet(1) << i }

// Contains reports whether bit i is set.
func (b BitSet) Contains(i uint) bool { return b&(BitSet(1)<<i) != 0 }

// Union ORs other into b.
func (b *BitSet) Union(other BitSet) { *b |= other }

// Intersection ANDs other into b.
func (b *BitSet) Intersection(other BitSet) { *b &= other }

// Len returns the number of set bits.
func (b BitSet) Len() int { return bits.OnesCount64(uint64(b)) }

// Clear zeroes the bitset.
func (b *BitSet) Clear() { *b = 0 }
