// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ids

// ShortSet is an unordered collection of unique ShortIDs, used for address
// and node-id sets (e.g. a sampled validator committee).
type ShortSet map[ShortID]struct{}

// NewShortSet returns a set pre-sized to hold at least size elements.
func NewShortSet(size int) ShortSet {
	if size < 0 {
		size = 0
	}
	return make(ShortSet, size)
}

// Add inserts the given ShortIDs into the set.
func (s *ShortSet) Add(ids ...ShortID) {
	if *s == nil {
		*s = make(ShortSet, len(ids))
	}
	for _, id := range ids {
		(*s)[id] = struct{}{}
	}
}

// Remove deletes the given ShortIDs from the set, if present.
func (s *ShortSet) Remove(ids ...ShortID) {
	for _, id := range ids {
		delete(*s, id)
	}
}

// Contains reports whether id is a member of the set.
func (s ShortSet) Contains(id ShortID) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of elements in the set.
func (s ShortSet) Len() int { return len(s) }

// List returns the set's elements as a slice, in no particular order.
func (s ShortSet) List() []ShortID {
	lst := make([]ShortID, 0, len(s))
	for id := range s {
		lst = append(lst, id)
	}
	return lst
}
