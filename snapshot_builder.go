package medhist

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/hillbig/rsdic"
)

// SnapshotBuilder collects (value, count) pairs in ascending order and
// builds a Snapshot from them.
type SnapshotBuilder[V any] struct {
	order  Comparator[V]
	values []V
	counts []uint64
	num    uint64
}

// NewSnapshotBuilder returns an empty builder for values ordered by order.
func NewSnapshotBuilder[V any](order Comparator[V]) *SnapshotBuilder[V] {
	return &SnapshotBuilder[V]{order: order}
}

// PushBack appends count occurrences of v. v must sort strictly after the
// previously pushed value, and count must be positive.
func (b *SnapshotBuilder[V]) PushBack(v V, count uint64) error {
	if count == 0 {
		return fmt.Errorf("push %v with zero count: %w", v, ErrCorrupt)
	}
	if n := len(b.values); n > 0 && b.order(b.values[n-1], v) >= 0 {
		return fmt.Errorf("push %v after %v: %w", v, b.values[n-1], ErrUnordered)
	}
	if b.num > math.MaxUint64-count {
		return fmt.Errorf("push %v: %w", v, ErrOverflow)
	}
	b.push(v, count)
	return nil
}

func (b *SnapshotBuilder[V]) push(v V, count uint64) {
	b.values = append(b.values, v)
	b.counts = append(b.counts, count)
	b.num += count
}

// Build returns the Snapshot in O(Dim()) time and space.
func (b *SnapshotBuilder[V]) Build() *Snapshot[V] {
	s := &Snapshot[V]{
		hi:     rsdic.New(),
		values: b.values,
		order:  b.order,
		num:    b.num,
	}
	d := uint64(len(b.values))
	if d == 0 {
		return s
	}
	// width = floor(log2(num/d)) keeps the unary part under 2d bits.
	s.width = uint(bits.Len64(b.num/d) - 1)
	s.lo = make([]uint64, (d*uint64(s.width)+63)/64)

	var total, high uint64
	for i, count := range b.counts {
		total += count
		x := total - 1
		for ; high < x>>s.width; high++ {
			s.hi.PushBack(false)
		}
		s.hi.PushBack(true)
		s.setLow(i, x)
	}
	return s
}

func (s *Snapshot[V]) setLow(i int, x uint64) {
	if s.width == 0 {
		return
	}
	x &= 1<<s.width - 1
	off := uint64(i) * uint64(s.width)
	w, o := off/64, off%64
	s.lo[w] |= x << o
	if o+uint64(s.width) > 64 {
		s.lo[w+1] |= x >> (64 - o)
	}
}
