package medhist

import "fmt"

// MedianRank returns the 1-indexed rank of the median of n values:
// n/2+1 for odd n and n/2 for even n. For even n this is the lower of the
// two middle order statistics; values are never averaged, since the value
// type need not support arithmetic.
func MedianRank(n uint64) uint64 {
	if n%2 == 0 {
		return n / 2
	}
	return n/2 + 1
}

// Median returns a clone of the value at MedianRank(TotalWeight()), or
// false if the histogram is empty.
func (h *Histogram[V]) Median() (V, bool) {
	if h.total == 0 {
		var zero V
		return zero, false
	}
	return h.selectRank(MedianRank(h.total)), true
}

// Quantile returns a clone of the (k+1)-th smallest value, or false if
// k >= TotalWeight().
func (h *Histogram[V]) Quantile(k uint64) (V, bool) {
	if k >= h.total {
		var zero V
		return zero, false
	}
	return h.selectRank(k + 1), true
}

// selectRank walks entries in ascending order, accumulating counts until
// the running sum reaches rank, and returns the entry that crossed it.
// Cost is O(log d + r) for d distinct values of which r precede the result.
func (h *Histogram[V]) selectRank(rank uint64) V {
	var seen uint64
	found := nilIdx
	h.tree.ascend(func(i int32) bool {
		c := h.tree.nodes[i].count
		if seen+c >= rank {
			found = i
		}
		seen += c
		return seen < rank
	})
	if found == nilIdx {
		// Only reachable if total disagrees with the entry counts.
		panic(fmt.Errorf("medhist: rank %d not reached after %d of %d: %w",
			rank, seen, h.total, ErrContractViolation))
	}
	return h.clone(h.tree.nodes[found].value)
}
