package medhist

import (
	"errors"
	"fmt"
)

// Window keeps the median of the most recent Size() values pushed into it.
// Each push observes the new value and, once the window is full, forgets
// the oldest one.
type Window struct {
	agg   *Aggregate
	data  []any
	head  int // next write position; the oldest value when full
	count int
}

// NewWindow returns an empty window holding at most size values.
func NewWindow(size int, opts ...Option) (*Window, error) {
	if size < 1 {
		return nil, errors.New("window size must be positive")
	}
	return &Window{
		agg:  NewAggregate(opts...),
		data: make([]any, size),
	}, nil
}

// Push adds v, evicting the oldest value if the window is full. A nil v
// occupies a slot but does not count toward the median. A value the
// aggregate rejects leaves the window unchanged.
func (w *Window) Push(v any) error {
	if err := w.agg.Observe(v); err != nil {
		return err
	}
	if w.count == len(w.data) {
		if err := w.agg.Forget(w.data[w.head]); err != nil {
			return fmt.Errorf("evict: %w", err)
		}
		w.count--
	}
	w.data[w.head] = w.agg.own(v)
	w.head = (w.head + 1) % len(w.data)
	w.count++
	return nil
}

// Median returns the median of the values in the window, or false if it
// holds none.
func (w *Window) Median() (any, bool) {
	return w.agg.Finalize()
}

// Len returns the number of slots in use.
func (w *Window) Len() int {
	return w.count
}

// Size returns the window capacity.
func (w *Window) Size() int {
	return len(w.data)
}

// Full reports whether the next Push evicts a value.
func (w *Window) Full() bool {
	return w.count == len(w.data)
}

// Aggregate returns the aggregate backing the window.
func (w *Window) Aggregate() *Aggregate {
	return w.agg
}
