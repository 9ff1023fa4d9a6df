package medhist

import (
	"fmt"
	"sort"

	"github.com/hillbig/rsdic"
	"github.com/ugorji/go/codec"
)

// Snapshot is an immutable rank/select index over a multiset.
//
// The distinct values are kept sorted next to the running totals of their
// counts, Elias-Fano coded: the high bits of each total go to a succinct
// bit vector in unary, the low width bits are packed in lo. The index holds
// about 2+width bits per distinct value however large the counts are, and
// the i-th running total is recovered with one Select.
type Snapshot[V any] struct {
	hi     *rsdic.RSDic
	lo     []uint64
	width  uint
	values []V
	order  Comparator[V]
	num    uint64
}

// Snapshot freezes the current content of h. Values are cloned, so later
// mutation of h does not affect the snapshot.
func (h *Histogram[V]) Snapshot() *Snapshot[V] {
	b := NewSnapshotBuilder(h.ctx.order)
	h.tree.ascend(func(i int32) bool {
		n := &h.tree.nodes[i]
		b.push(h.clone(n.value), n.count)
		return true
	})
	return b.Build()
}

// Num returns the number of occurrences indexed.
func (s *Snapshot[V]) Num() uint64 {
	return s.num
}

// Dim returns the number of distinct values.
func (s *Snapshot[V]) Dim() uint64 {
	return uint64(len(s.values))
}

// Quantile returns the (k+1)-th smallest value, or false if k >= Num().
func (s *Snapshot[V]) Quantile(k uint64) (V, bool) {
	if k >= s.num {
		var zero V
		return zero, false
	}
	i := sort.Search(len(s.values), func(i int) bool { return s.last(i) >= k })
	return s.values[i], true
}

// Median returns the value at MedianRank(Num()), or false if empty.
func (s *Snapshot[V]) Median() (V, bool) {
	if s.num == 0 {
		var zero V
		return zero, false
	}
	return s.Quantile(MedianRank(s.num) - 1)
}

// Rank returns the number of occurrences equivalent to v.
func (s *Snapshot[V]) Rank(v V) uint64 {
	i := s.search(v)
	if i == len(s.values) || s.order(s.values[i], v) != 0 {
		return 0
	}
	return s.before(i+1) - s.before(i)
}

// RankLessThan returns the number of occurrences less than v.
func (s *Snapshot[V]) RankLessThan(v V) uint64 {
	return s.before(s.search(v))
}

// RankMoreThan returns the number of occurrences greater than v.
func (s *Snapshot[V]) RankMoreThan(v V) uint64 {
	return s.num - s.RankLessThan(v) - s.Rank(v)
}

// search returns the index of the first distinct value not less than v.
func (s *Snapshot[V]) search(v V) int {
	return sort.Search(len(s.values), func(i int) bool {
		return s.order(s.values[i], v) >= 0
	})
}

// before returns the number of occurrences of the first i distinct values.
func (s *Snapshot[V]) before(i int) uint64 {
	if i == 0 {
		return 0
	}
	return s.last(i-1) + 1
}

// last returns the 0-based position of the last occurrence of the i-th
// distinct value, that is its running total minus one.
func (s *Snapshot[V]) last(i int) uint64 {
	high := s.hi.Select(uint64(i), true) - uint64(i)
	return high<<s.width | s.low(i)
}

func (s *Snapshot[V]) low(i int) uint64 {
	if s.width == 0 {
		return 0
	}
	off := uint64(i) * uint64(s.width)
	w, o := off/64, off%64
	v := s.lo[w] >> o
	if o+uint64(s.width) > 64 {
		v |= s.lo[w+1] << (64 - o)
	}
	return v & (1<<s.width - 1)
}

// MarshalBinary encodes the snapshot as its distinct values and counts.
func (s *Snapshot[V]) MarshalBinary() (out []byte, err error) {
	var mh codec.MsgpackHandle
	enc := codec.NewEncoderBytes(&out, &mh)
	err = enc.Encode(len(s.values))
	if err != nil {
		return
	}
	for i, v := range s.values {
		err = enc.Encode(v)
		if err != nil {
			return
		}
		err = enc.Encode(s.before(i+1) - s.before(i))
		if err != nil {
			return
		}
	}
	err = enc.Encode(s.num)
	return
}

// UnmarshalBinary decodes a snapshot produced by MarshalBinary and rebuilds
// its index. The order is not encoded; the receiver supplies it, so start
// from NewSnapshotBuilder(order).Build().
func (s *Snapshot[V]) UnmarshalBinary(in []byte) (err error) {
	var mh codec.MsgpackHandle
	dec := codec.NewDecoderBytes(in, &mh)
	dim := 0
	err = dec.Decode(&dim)
	if err != nil {
		return
	}
	b := NewSnapshotBuilder(s.order)
	for range dim {
		var v V
		var count uint64
		err = dec.Decode(&v)
		if err != nil {
			return
		}
		err = dec.Decode(&count)
		if err != nil {
			return
		}
		err = b.PushBack(v, count)
		if err != nil {
			return
		}
	}
	var num uint64
	err = dec.Decode(&num)
	if err != nil {
		return
	}
	built := b.Build()
	if built.num != num {
		return fmt.Errorf("total %d, counts sum to %d: %w", num, built.num, ErrCorrupt)
	}
	*s = *built
	return
}
