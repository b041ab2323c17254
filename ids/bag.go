// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ids

// Bag is a multiset of IDs: every Add increments that ID's count. Used to
// tally raw (unweighted or pre-weighted) votes for a round.
type Bag struct {
	counts map[ID]int
	size   int
}

// AddCount adds count occurrences of id to the bag.
func (b *Bag) AddCount(id ID, count int) {
	if b.counts == nil {
		b.counts = make(map[ID]int)
	}
	b.counts[id] += count
	b.size += count
}

// Add adds a single occurrence of id to the bag.
func (b *Bag) Add(id ID) { b.AddCount(id, 1) }

// Count returns how many times id was added.
func (b Bag) Count(id ID) int { return b.counts[id] }

// Len returns the total number of elements across all IDs (sum of counts).
func (b Bag) Len() int { return b.size }

// List returns the distinct IDs present in the bag.
func (b Bag) List() []ID {
	lst := make([]ID, 0, len(b.counts))
	for id := range b.counts {
		lst = append(lst, id)
	}
	return lst
}

// Mode returns the ID with the highest count and that count. Ties are broken
// by whichever ID the map iteration visits first; callers needing a
// deterministic tie-break should pre-sort candidates.
func (b Bag) Mode() (ID, int) {
	var (
		best      ID
		bestCount = -1
	)
	for id, count := range b.counts {
		if count > bestCount {
			best, bestCount = id, count
		}
	}
	return best, bestCount
}

// UniqueBag maps each ID to the set of voter indices (as a BitSet) that
// contributed a vote for it: each sampled voter contributes at most one bit
// per ID it votes for.
type UniqueBag map[ID]BitSet

// Add records that voter index [voterIdx] voted for id.
func (u UniqueBag) Add(id ID, voterIdx uint) {
	set := u[id]
	set.Add(voterIdx)
	u[id] = set
}

// UnionSet merges bits into id's existing bitset.
func (u UniqueBag) UnionSet(id ID, bits BitSet) {
	set := u[id]
	set.Union(bits)
	u[id] = set
}

// RemoveSet deletes id from the bag entirely.
func (u UniqueBag) RemoveSet(id ID) { delete(u, id) }

// GetSet returns the bitset of voters that voted for id.
func (u UniqueBag) GetSet(id ID) BitSet { return u[id] }

// List returns the distinct IDs present in the bag.
func (u UniqueBag) List() []ID {
	lst := make([]ID, 0, len(u))
	for id := range u {
		lst = append(lst, id)
	}
	return lst
}

// Difference removes from u every ID present in other.
func (u UniqueBag) Difference(other *UniqueBag) {
	for id := range *other {
		delete(u, id)
	}
}

// Bag collapses the bitset votes into a plain vote-count Bag, counting an ID
// once per set bit, but only for IDs with at least minBits votes (the
// quorum floor alpha); this matches how the consensus layer turns bubbled,
// per-voter votes into a majority tally.
func (u UniqueBag) Bag(minBits int) Bag {
	bag := Bag{}
	for id, set := range u {
		if n := set.Len(); n >= minBits {
			bag.AddCount(id, n)
		}
	}
	return bag
}
