// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ids

// Set is an unordered collection of unique IDs.
type Set map[ID]struct{}

// NewSet returns a set pre-sized to hold at least size elements.
func NewSet(size int) Set {
	if size < 0 {
		size = 0
	}
	return make(Set, size)
}

// Add inserts the given IDs into the set.
func (s *Set) Add(ids ...ID) {
	if *s == nil {
		*s = make(Set, len(ids))
	}
	for _, id := range ids {
		(*s)[id] = struct{}{}
	}
}

// Remove deletes the given IDs from the set, if present.
func (s *Set) Remove(ids ...ID) {
	for _, id := range ids {
		delete(*s, id)
	}
}

// Contains reports whether id is a member of the set.
func (s Set) Contains(id ID) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of elements in the set.
func (s Set) Len() int { return len(s) }

// Clear empties the set in place.
func (s *Set) Clear() { *s = make(Set) }

// List returns the set's elements as a slice, in no particular order.
func (s Set) List() []ID {
	lst := make([]ID, 0, len(s))
	for id := range s {
		lst = append(lst, id)
	}
	return lst
}

// Union adds every element of other into s.
func (s *Set) Union(other Set) {
	for id := range other {
		s.Add(id)
	}
}

// Intersection removes from s every element not present in other.
func (s *Set) Intersection(other Set) {
	for id := range *s {
		if !other.Contains(id) {
			delete(*s, id)
		}
	}
}

// Difference removes from s every element present in other.
func (s *Set) Difference(other Set) {
	for id := range other {
		delete(*s, id)
	}
}

// Overlaps reports whether s and other share at least one element.
func (s Set) Overlaps(other Set) bool {
	small, big := s, other
	if len(big) < len(small) {
		small, big = big, small
	}
	for id := range small {
		if big.Contains(id) {
			return true
		}
	}
	return false
}

// Equals reports whether s and other contain exactly the same elements.
func (s Set) Equals(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.Contains(id) {
			return false
		}
	}
	return true
}

// CappedList returns up to size elements of the set.
func (s Set) CappedList(size int) []ID {
	if size > len(s) {
		size = len(s)
	}
	lst := make([]ID, 0, size)
	for id := range s {
		if len(lst) == size {
			break
		}
		lst = append(lst, id)
	}
	return lst
}
