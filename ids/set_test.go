// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ids

import "testing"

func TestSetUnionIntersectionDifference(t *testing.T) {
	a := NewSet(0)
	a.Add(ID{1}, ID{2}, ID{3})

	b := NewSet(0)
	b.Add(ID{2}, ID{3}, ID{4})

	union := NewSet(0)
	union.Union(a)
	union.Union(b)
	if union.Len() != 4 {
		t.Fatalf("expected union of size 4, got %d", union.Len())
	}

	inter := NewSet(0)
	inter.Union(a)
	inter.Intersection(b)
	if inter.Len() != 2 || !inter.Contains(ID{2}) || !inter.Contains(ID{3}) {
		t.Fatalf("unexpected intersection: %v", inter)
	}

	diff := NewSet(0)
	diff.Union(a)
	diff.Difference(b)
	if diff.Len() != 1 || !diff.Contains(ID{1}) {
		t.Fatalf("unexpected difference: %v", diff)
	}

	if !a.Overlaps(b) {
		t.Fatalf("expected a and b to overlap")
	}
}

func TestBitSetLen(t *testing.T) {
	var bs BitSet
	bs.Add(0)
	bs.Add(5)
	bs.Add(63)
	if bs.Len() != 3 {
		t.Fatalf("expected 3 bits set, got %d", bs.Len())
	}
	bs.Remove(5)
	if bs.Len() != 2 {
		t.Fatalf("expected 2 bits set after remove, got %d", bs.Len())
	}
}

func TestUniqueBagQuorum(t *testing.T) {
	u := make(UniqueBag)
	id := ID{7}
	u.Add(id, 0)
	u.Add(id, 1)
	u.Add(id, 2)

	bag := u.Bag(2)
	if bag.Count(id) != 3 {
		t.Fatalf("expected count 3, got %d", bag.Count(id))
	}

	belowQuorum := u.Bag(4)
	if belowQuorum.Count(id) != 0 {
		t.Fatalf("expected id to be excluded below quorum")
	}
}

func TestIsSortedAndUniqueIDs(t *testing.T) {
	sorted := []ID{{1}, {2}, {3}}
	if !IsSortedAndUniqueIDs(sorted) {
		t.Fatalf("expected sorted slice to report sorted")
	}
	unsorted := []ID{{3}, {1}, {2}}
	if IsSortedAndUniqueIDs(unsorted) {
		t.Fatalf("expected unsorted slice to report unsorted")
	}
	dup := []ID{{1}, {1}, {2}}
	if IsSortedAndUniqueIDs(dup) {
		t.Fatalf("expected duplicate slice to report unsorted")
	}
}
