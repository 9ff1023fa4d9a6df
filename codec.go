package medhist

import (
	"fmt"
	"math"

	"github.com/ugorji/go/codec"
)

// MarshalBinary encodes the histogram as msgpack: the distinct count, each
// (value, count) pair in ascending order, then the total weight. The
// comparator is not encoded.
func (h *Histogram[V]) MarshalBinary() (out []byte, err error) {
	var mh codec.MsgpackHandle
	enc := codec.NewEncoderBytes(&out, &mh)
	err = enc.Encode(h.tree.size)
	if err != nil {
		return
	}
	h.tree.ascend(func(i int32) bool {
		n := &h.tree.nodes[i]
		if err = enc.Encode(n.value); err != nil {
			return false
		}
		err = enc.Encode(n.count)
		return err == nil
	})
	if err != nil {
		return
	}
	err = enc.Encode(h.total)
	return
}

// UnmarshalBinary replaces the content of h with state produced by
// MarshalBinary. h keeps its own comparator and cloner, so it must be created
// with New beforehand. Decoded state with duplicate values, zero counts or a
// total that disagrees with the counts is rejected with ErrCorrupt and h is
// left unchanged.
func (h *Histogram[V]) UnmarshalBinary(in []byte) (err error) {
	var mh codec.MsgpackHandle
	dec := codec.NewDecoderBytes(in, &mh)
	distinct := 0
	err = dec.Decode(&distinct)
	if err != nil {
		return
	}
	if distinct < 0 || distinct > maxNodes {
		return fmt.Errorf("%d distinct values: %w", distinct, ErrCorrupt)
	}
	t := newTree(h.ctx.order)
	var sum uint64
	for range distinct {
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
		switch {
		case count == 0:
			return fmt.Errorf("value %v has zero count: %w", v, ErrCorrupt)
		case sum > math.MaxUint64-count:
			return fmt.Errorf("counts exceed total range: %w", ErrCorrupt)
		case t.get(v) != nilIdx:
			return fmt.Errorf("duplicate value %v: %w", v, ErrCorrupt)
		}
		i := t.put(v)
		t.nodes[i].count = count
		sum += count
	}
	var total uint64
	err = dec.Decode(&total)
	if err != nil {
		return
	}
	if total != sum {
		return fmt.Errorf("total %d, counts sum to %d: %w", total, sum, ErrCorrupt)
	}
	h.tree = t
	h.total = total
	return nil
}

// Merge adds every occurrence held by other to h, as when combining the
// partial states of two shards. It returns ErrOverflow, leaving h unchanged,
// if the combined weight does not fit.
//
// Both histograms must be ordered by the same comparator. Merge returns
// ErrUnordered, leaving h unchanged, if other's entries are not ascending
// under h's order; a shard holding a single distinct value cannot be
// checked this way.
func (h *Histogram[V]) Merge(other *Histogram[V]) error {
	if other == nil || other.total == 0 {
		return nil
	}
	if h.total > math.MaxUint64-other.total {
		return fmt.Errorf("merge: %d + %d: %w", h.total, other.total, ErrOverflow)
	}
	if h.tree.full(other.tree.size) {
		return fmt.Errorf("merge: %d + %d distinct values: %w", h.tree.size, other.tree.size, ErrOverflow)
	}
	if other == h {
		for i := range h.tree.nodes {
			h.tree.nodes[i].count *= 2
		}
		h.total *= 2
		return nil
	}
	prev, ordered := nilIdx, true
	other.tree.ascend(func(i int32) bool {
		if prev != nilIdx && h.ctx.order(other.tree.nodes[prev].value, other.tree.nodes[i].value) >= 0 {
			ordered = false
		}
		prev = i
		return ordered
	})
	if !ordered {
		return fmt.Errorf("merge: shard order disagrees with receiver: %w", ErrUnordered)
	}
	other.tree.ascend(func(i int32) bool {
		n := &other.tree.nodes[i]
		if j := h.tree.get(n.value); j != nilIdx {
			h.tree.nodes[j].count += n.count
		} else {
			j = h.tree.put(h.clone(n.value))
			h.tree.nodes[j].count = n.count
		}
		return true
	})
	h.total += other.total
	return nil
}
