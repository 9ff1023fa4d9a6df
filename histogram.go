// Package medhist provides a sparse order-statistics histogram:
// a balanced multiset of (value, count) entries over any totally ordered
// type, supporting incremental insert and remove plus rank queries
// (median, quantile) without materializing or sorting the raw values.
//
// Histogram is the typed core. Aggregate layers the observe / forget /
// finalize protocol of an incremental aggregate on top of it for values
// whose type is only known at run time, and Window and Groups drive
// Aggregates for sliding windows and keyed groups.
//
// None of the types are safe for concurrent mutation; give each
// aggregation group its own instance.
package medhist

import (
	"fmt"
	"math"
)

// Histogram is a multiset of values ordered by a bound Comparator, stored as
// one entry per distinct value with an occurrence count.
type Histogram[V any] struct {
	ctx   Context[V]
	clone Cloner[V]
	tree  tree[V]
	total uint64
}

// New returns an empty Histogram ordered by ctx. A nil clone means Identity.
func New[V any](ctx Context[V], clone Cloner[V]) *Histogram[V] {
	if ctx.order == nil {
		panic("medhist: zero Context")
	}
	if clone == nil {
		clone = Identity[V]
	}
	return &Histogram[V]{ctx: ctx, clone: clone, tree: newTree(ctx.order)}
}

// Context returns the comparator context the histogram was created with.
func (h *Histogram[V]) Context() Context[V] {
	return h.ctx
}

// Insert adds one occurrence of v. The first occurrence of a distinct value
// is cloned into the histogram; later ones only bump its count.
// It returns ErrOverflow, leaving h unchanged, if the total weight is saturated.
func (h *Histogram[V]) Insert(v V) error {
	// count <= total, so checking total covers both.
	if h.total == math.MaxUint64 {
		return fmt.Errorf("insert: total weight at %d: %w", h.total, ErrOverflow)
	}
	if i := h.tree.get(v); i != nilIdx {
		h.tree.nodes[i].count++
	} else {
		if h.tree.full(1) {
			return fmt.Errorf("insert: %d distinct values: %w", h.tree.size, ErrOverflow)
		}
		h.tree.put(h.clone(v))
	}
	h.total++
	return nil
}

// Remove drops one occurrence of v and reports whether there was one.
// An entry whose count reaches zero is deleted.
func (h *Histogram[V]) Remove(v V) bool {
	i := h.tree.get(v)
	if i == nilIdx {
		return false
	}
	h.total--
	h.tree.nodes[i].count--
	if h.tree.nodes[i].count == 0 {
		h.tree.delete(v)
	}
	return true
}

// TotalWeight returns the number of occurrences held.
func (h *Histogram[V]) TotalWeight() uint64 {
	return h.total
}

// Distinct returns the number of distinct values held.
func (h *Histogram[V]) Distinct() int {
	return h.tree.size
}

// Count returns the number of occurrences of v.
func (h *Histogram[V]) Count(v V) uint64 {
	if i := h.tree.get(v); i != nilIdx {
		return h.tree.nodes[i].count
	}
	return 0
}

// Ascend calls visit for each distinct value in ascending order with its
// count, stopping early if visit returns false. The value passed to visit is
// the stored one; clone it before retaining it past the call.
// h must not be mutated during the walk.
func (h *Histogram[V]) Ascend(visit func(v V, count uint64) bool) {
	h.tree.ascend(func(i int32) bool {
		return visit(h.tree.nodes[i].value, h.tree.nodes[i].count)
	})
}

// Reset empties the histogram, keeping its comparator.
func (h *Histogram[V]) Reset() {
	h.tree = newTree(h.ctx.order)
	h.total = 0
}
