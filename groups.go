package medhist

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Groups keeps one Aggregate per key. Mutation is single-goroutine;
// FinalizeAll computes the per-key results concurrently, which is safe
// because no two goroutines touch the same aggregate.
type Groups[K comparable] struct {
	opts   []Option
	groups map[K]*Aggregate
	keys   []K
	limit  int
}

// NewGroups returns an empty set of groups whose aggregates are created with opts.
func NewGroups[K comparable](opts ...Option) *Groups[K] {
	return &Groups[K]{opts: opts, groups: make(map[K]*Aggregate)}
}

// SetLimit bounds the number of goroutines FinalizeAll runs at once.
// n <= 0 means no limit.
func (g *Groups[K]) SetLimit(n int) {
	g.limit = n
}

// Observe adds v to the group for k, creating it on first use.
func (g *Groups[K]) Observe(k K, v any) error {
	agg, ok := g.groups[k]
	if !ok {
		agg = NewAggregate(g.opts...)
		g.groups[k] = agg
		g.keys = append(g.keys, k)
	}
	return agg.Observe(v)
}

// Forget removes v from the group for k.
func (g *Groups[K]) Forget(k K, v any) error {
	agg, ok := g.groups[k]
	if !ok {
		return fmt.Errorf("forget from unknown group %v: %w", k, ErrContractViolation)
	}
	return agg.Forget(v)
}

// Get returns the aggregate for k, or nil.
func (g *Groups[K]) Get(k K) *Aggregate {
	return g.groups[k]
}

// Keys returns the keys in the order they were first observed.
func (g *Groups[K]) Keys() []K {
	return append([]K(nil), g.keys...)
}

// Len returns the number of groups.
func (g *Groups[K]) Len() int {
	return len(g.keys)
}

// FinalizeAll returns the median of every group that holds at least one
// value; empty groups are absent from the result. It stops early and
// returns the context's error if ctx is cancelled.
func (g *Groups[K]) FinalizeAll(ctx context.Context) (map[K]any, error) {
	type result struct {
		v  any
		ok bool
	}
	results := make([]result, len(g.keys))

	eg, ctx := errgroup.WithContext(ctx)
	if g.limit > 0 {
		eg.SetLimit(g.limit)
	}
	for i, k := range g.keys {
		agg := g.groups[k]
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, ok := agg.Finalize()
			results[i] = result{v: v, ok: ok}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make(map[K]any, len(g.keys))
	for i, k := range g.keys {
		if results[i].ok {
			out[k] = results[i].v
		}
	}
	return out, nil
}
