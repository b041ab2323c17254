// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txpool

// evictionHeap is a container/heap.Interface over pending entries, ordered
// by ascending fee-per-byte so the cheapest entry is always the eviction
// candidate at the root. Entries that have transitioned out of Pending are
// left in place (popped lazily in makeRoom) rather than eagerly removed,
// since container/heap has no O(log n) arbitrary-element delete.
type evictionHeap []*entry

func (h evictionHeap) Len() int { return len(h) }
func (h evictionHeap) Less(i, j int) bool { return h[i].feePerByte < h[j].feePerByte }
func (h evictionHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}

func (h *evictionHeap) Push(x interface{}) {
	e := x.(*entry)
	e.heapIndex = len(*h)
	*h = append(*h, e)
}

func (h *evictionHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}
